package govern

import (
	"time"

	"github.com/dep2p/go-httpd/config"
)

// Config 治理器配置
type Config struct {
	// KeepAliveTimeout Keep-Alive 空闲超时
	//
	// 新连接创建 ConnState 时快照此值。
	// 默认值: 5s
	KeepAliveTimeout time.Duration

	// HeartbeatInterval 心跳扫描间隔
	//
	// 必须显著小于 KeepAliveTimeout（亚秒级），
	// 实际关闭延迟 = 超时 + 至多一个心跳间隔。
	// 默认值: 100ms
	HeartbeatInterval time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		KeepAliveTimeout:  config.DefaultKeepAliveTimeout,
		HeartbeatInterval: 100 * time.Millisecond,
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if c.KeepAliveTimeout <= 0 {
		return ErrInvalidConfig
	}
	if c.HeartbeatInterval <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// WithKeepAliveTimeout 设置空闲超时
func (c Config) WithKeepAliveTimeout(timeout time.Duration) Config {
	c.KeepAliveTimeout = timeout
	return c
}

// WithHeartbeatInterval 设置心跳间隔
func (c Config) WithHeartbeatInterval(interval time.Duration) Config {
	c.HeartbeatInterval = interval
	return c
}

// ConfigFromUnified 从统一配置创建治理器配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		KeepAliveTimeout:  cfg.Limits.KeepAliveTimeout.Duration(),
		HeartbeatInterval: cfg.Govern.HeartbeatInterval.Duration(),
	}
}
