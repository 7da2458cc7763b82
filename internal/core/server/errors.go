package server

import "errors"

// 服务端错误定义
var (
	// ErrServerClosed 服务器已关闭
	ErrServerClosed = errors.New("server: closed")

	// ErrServerRunning 服务器已在运行
	ErrServerRunning = errors.New("server: already running")

	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = errors.New("server: invalid config")

	// ErrRequestLineTooLarge 请求行超出上限
	ErrRequestLineTooLarge = errors.New("server: request line too large")

	// ErrHeadersTooLarge 请求头总大小超出上限
	ErrHeadersTooLarge = errors.New("server: header section too large")

	// ErrTooManyHeaders 请求头数量超出上限
	ErrTooManyHeaders = errors.New("server: too many header fields")

	// ErrBufferExceeded 请求缓冲区超出上限
	ErrBufferExceeded = errors.New("server: request buffer exceeded")

	// ErrMalformedRequest 请求格式错误
	ErrMalformedRequest = errors.New("server: malformed request")
)

// isLimitError 返回错误是否为资源限制违规
func isLimitError(err error) bool {
	return errors.Is(err, ErrRequestLineTooLarge) ||
		errors.Is(err, ErrHeadersTooLarge) ||
		errors.Is(err, ErrTooManyHeaders) ||
		errors.Is(err, ErrBufferExceeded)
}
