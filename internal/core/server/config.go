package server

import (
	"fmt"

	"github.com/dep2p/go-httpd/config"
)

// Config 服务端配置
type Config struct {
	// Listen 监听地址列表
	Listen []string

	// AcceptRate 每秒接受的新连接数上限（0 = 不限制）
	AcceptRate float64

	// AcceptBurst 接入突发上限（0 时取 AcceptRate 向上取整）
	AcceptBurst int

	// Limits 每连接资源限制
	Limits config.LimitsConfig
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Listen: []string{"127.0.0.1:8080"},
		Limits: config.DefaultLimitsConfig(),
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if len(c.Listen) == 0 {
		return fmt.Errorf("%w: 监听地址列表为空", ErrInvalidConfig)
	}
	if c.AcceptRate < 0 || c.AcceptBurst < 0 {
		return fmt.Errorf("%w: 接入速率限制必须为非负数", ErrInvalidConfig)
	}
	if err := c.Limits.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// WithListen 设置监听地址
func (c Config) WithListen(addrs ...string) Config {
	c.Listen = addrs
	return c
}

// WithLimits 设置资源限制
func (c Config) WithLimits(limits config.LimitsConfig) Config {
	c.Limits = limits
	return c
}

// ConfigFromUnified 从统一配置转换
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		Listen:      cfg.Server.Listen,
		AcceptRate:  cfg.Server.AcceptRate,
		AcceptBurst: cfg.Server.AcceptBurst,
		Limits:      cfg.Limits,
	}
}
