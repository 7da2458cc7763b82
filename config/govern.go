package config

import (
	"errors"
	"time"
)

// GovernConfig 连接治理配置
//
// 控制心跳扫描的节奏。心跳是进程级的单一后台任务，
// 每次心跳批量评估所有连接的空闲状态。
type GovernConfig struct {
	// HeartbeatInterval 心跳扫描间隔
	//
	// 必须显著小于最小的合理 KeepAliveTimeout（亚秒级），
	// 实际关闭延迟 = 超时 + 至多一个心跳间隔。
	// 默认值: 100ms
	HeartbeatInterval Duration `json:"heartbeat_interval"`
}

// DefaultGovernConfig 返回默认治理配置
func DefaultGovernConfig() GovernConfig {
	return GovernConfig{
		HeartbeatInterval: Duration(100 * time.Millisecond),
	}
}

// Validate 验证治理配置
func (c GovernConfig) Validate() error {
	if c.HeartbeatInterval <= 0 {
		return errors.New("heartbeat interval must be positive")
	}
	return nil
}

// WithHeartbeatInterval 设置心跳扫描间隔
func (c GovernConfig) WithHeartbeatInterval(interval time.Duration) GovernConfig {
	c.HeartbeatInterval = Duration(interval)
	return c
}
