package govern

import "errors"

// 治理器错误定义
var (
	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = errors.New("govern: invalid config")

	// ErrSupervisorClosed 监督器已关闭
	ErrSupervisorClosed = errors.New("govern: supervisor closed")

	// ErrAlreadyTracked 连接已被跟踪
	ErrAlreadyTracked = errors.New("govern: connection already tracked")

	// ErrHeartbeatRunning 心跳已在运行
	ErrHeartbeatRunning = errors.New("govern: heartbeat already running")
)
