package config

import (
	"errors"
	"time"
)

// 默认限制值
//
// 与常见反向代理/服务器的默认值保持一致。
const (
	// DefaultMaxRequestBufferSize 默认请求缓冲区上限（1 MiB）
	DefaultMaxRequestBufferSize int64 = 1 << 20

	// DefaultMaxRequestLineSize 默认请求行上限（8 KiB）
	DefaultMaxRequestLineSize = 8 << 10

	// DefaultMaxRequestHeadersSize 默认请求头总大小上限（32 KiB）
	DefaultMaxRequestHeadersSize = 32 << 10

	// DefaultMaxRequestHeaderCount 默认请求头数量上限
	DefaultMaxRequestHeaderCount = 100

	// DefaultKeepAliveTimeout 默认 Keep-Alive 空闲超时
	DefaultKeepAliveTimeout = 5 * time.Second
)

// 限制配置错误定义
var (
	// ErrLimitOutOfRange 限制值超出合法范围
	ErrLimitOutOfRange = errors.New("config: limit out of range")
)

// LimitsConfig 每连接资源限制配置
//
// 限制配置在构造并校验后对所有连接只读共享；
// 运行中修改只影响之后接受的连接（每个连接在创建时
// 快照一份 KeepAliveTimeout，见 govern 包）。
type LimitsConfig struct {
	// MaxRequestBufferSize 请求缓冲区上限（字节）
	//
	// nil 表示不限制；非 nil 时必须为正数。
	MaxRequestBufferSize *int64 `json:"max_request_buffer_size,omitempty"`

	// MaxRequestLineSize 请求行上限（字节）
	MaxRequestLineSize int `json:"max_request_line_size"`

	// MaxRequestHeadersSize 请求头总大小上限（字节）
	MaxRequestHeadersSize int `json:"max_request_headers_size"`

	// MaxRequestHeaderCount 请求头数量上限
	MaxRequestHeaderCount int `json:"max_request_header_count"`

	// KeepAliveTimeout Keep-Alive 空闲超时
	//
	// 仅约束两次请求之间（含首个请求之前）的空闲时间，
	// 不约束请求体传输过程（见 govern.PhaseReadingBody）。
	KeepAliveTimeout Duration `json:"keep_alive_timeout"`
}

// DefaultLimitsConfig 返回默认限制配置
func DefaultLimitsConfig() LimitsConfig {
	bufSize := DefaultMaxRequestBufferSize
	return LimitsConfig{
		MaxRequestBufferSize:  &bufSize,
		MaxRequestLineSize:    DefaultMaxRequestLineSize,
		MaxRequestHeadersSize: DefaultMaxRequestHeadersSize,
		MaxRequestHeaderCount: DefaultMaxRequestHeaderCount,
		KeepAliveTimeout:      Duration(DefaultKeepAliveTimeout),
	}
}

// Validate 验证限制配置
//
// 所有数值限制必须为正数；MaxRequestBufferSize 允许为 nil（不限制），
// 但出现时同样必须为正数。
func (c LimitsConfig) Validate() error {
	if c.MaxRequestBufferSize != nil && *c.MaxRequestBufferSize <= 0 {
		return ErrLimitOutOfRange
	}
	if c.MaxRequestLineSize <= 0 {
		return ErrLimitOutOfRange
	}
	if c.MaxRequestHeadersSize <= 0 {
		return ErrLimitOutOfRange
	}
	if c.MaxRequestHeaderCount <= 0 {
		return ErrLimitOutOfRange
	}
	if c.KeepAliveTimeout <= 0 {
		return ErrLimitOutOfRange
	}
	return nil
}

// ============================================================================
//                              校验式修改器
// ============================================================================
//
// 每个修改器在赋值前做范围校验：非法值立即返回错误，
// 原值保持不变。这是部署/编程错误，不做运行时重试。

// SetMaxRequestBufferSize 设置请求缓冲区上限
//
// size 为 nil 表示不限制；非 nil 时必须为正数。
func (c *LimitsConfig) SetMaxRequestBufferSize(size *int64) error {
	if size != nil && *size <= 0 {
		return ErrLimitOutOfRange
	}
	if size == nil {
		c.MaxRequestBufferSize = nil
		return nil
	}
	v := *size
	c.MaxRequestBufferSize = &v
	return nil
}

// SetMaxRequestLineSize 设置请求行上限
func (c *LimitsConfig) SetMaxRequestLineSize(size int) error {
	if size <= 0 {
		return ErrLimitOutOfRange
	}
	c.MaxRequestLineSize = size
	return nil
}

// SetMaxRequestHeadersSize 设置请求头总大小上限
func (c *LimitsConfig) SetMaxRequestHeadersSize(size int) error {
	if size <= 0 {
		return ErrLimitOutOfRange
	}
	c.MaxRequestHeadersSize = size
	return nil
}

// SetMaxRequestHeaderCount 设置请求头数量上限
func (c *LimitsConfig) SetMaxRequestHeaderCount(count int) error {
	if count <= 0 {
		return ErrLimitOutOfRange
	}
	c.MaxRequestHeaderCount = count
	return nil
}

// SetKeepAliveTimeout 设置 Keep-Alive 空闲超时
func (c *LimitsConfig) SetKeepAliveTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return ErrLimitOutOfRange
	}
	c.KeepAliveTimeout = Duration(timeout)
	return nil
}

// ============================================================================
//                              链式设置
// ============================================================================

// WithMaxRequestLineSize 设置请求行上限
func (c LimitsConfig) WithMaxRequestLineSize(size int) LimitsConfig {
	c.MaxRequestLineSize = size
	return c
}

// WithMaxRequestHeadersSize 设置请求头总大小上限
func (c LimitsConfig) WithMaxRequestHeadersSize(size int) LimitsConfig {
	c.MaxRequestHeadersSize = size
	return c
}

// WithMaxRequestHeaderCount 设置请求头数量上限
func (c LimitsConfig) WithMaxRequestHeaderCount(count int) LimitsConfig {
	c.MaxRequestHeaderCount = count
	return c
}

// WithKeepAliveTimeout 设置 Keep-Alive 空闲超时
func (c LimitsConfig) WithKeepAliveTimeout(timeout time.Duration) LimitsConfig {
	c.KeepAliveTimeout = Duration(timeout)
	return c
}

// WithUnlimitedRequestBuffer 取消请求缓冲区上限
func (c LimitsConfig) WithUnlimitedRequestBuffer() LimitsConfig {
	c.MaxRequestBufferSize = nil
	return c
}
