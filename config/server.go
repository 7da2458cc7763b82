package config

import "errors"

// ServerConfig 服务器配置
//
// 配置监听地址与接入控制：
//   - 监听地址列表
//   - 接入速率限制（防止 accept 风暴）
type ServerConfig struct {
	// Listen 监听地址列表
	//
	// 格式 "host:port"，例如 "0.0.0.0:8080"、"127.0.0.1:0"。
	Listen []string `json:"listen"`

	// AcceptRate 每秒接受的新连接数上限
	//
	// 0 表示不限制。
	AcceptRate float64 `json:"accept_rate,omitempty"`

	// AcceptBurst 接入突发上限
	//
	// 仅在 AcceptRate > 0 时生效；0 时取 AcceptRate 向上取整。
	AcceptBurst int `json:"accept_burst,omitempty"`
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Listen:      []string{"127.0.0.1:8080"},
		AcceptRate:  0, // 默认不限制
		AcceptBurst: 0,
	}
}

// Validate 验证服务器配置
func (c ServerConfig) Validate() error {
	if len(c.Listen) == 0 {
		return errors.New("listen address list is empty")
	}
	for _, addr := range c.Listen {
		if addr == "" {
			return errors.New("listen address is empty")
		}
	}
	if c.AcceptRate < 0 {
		return errors.New("accept rate must be non-negative")
	}
	if c.AcceptBurst < 0 {
		return errors.New("accept burst must be non-negative")
	}
	return nil
}

// WithListen 设置监听地址
func (c ServerConfig) WithListen(addrs ...string) ServerConfig {
	c.Listen = addrs
	return c
}

// WithAcceptRate 设置接入速率限制
func (c ServerConfig) WithAcceptRate(rate float64, burst int) ServerConfig {
	c.AcceptRate = rate
	c.AcceptBurst = burst
	return c
}
