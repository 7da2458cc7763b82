// Package config 提供统一的配置管理
//
// 本包采用混合配置模式：
//   - 主 Config 结构体嵌入所有子配置
//   - 每个子配置在独立文件中定义
//   - 支持从 JSON 加载和保存配置
//
// 使用示例：
//
//	// 创建默认配置
//	cfg := config.NewConfig()
//	cfg.Limits.MaxRequestHeaderCount = 200
//
//	// 从 JSON 加载
//	cfg, err := config.FromJSON(data)
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config 是 go-httpd 的完整配置结构
//
// 该结构体嵌入了所有组件的子配置，提供统一的配置接口。
// 配置按照功能模块组织：
//   - Server: 监听与接入控制
//   - Limits: 每连接资源限制与 Keep-Alive 超时
//   - Govern: 连接生命周期治理（心跳扫描）
//   - Log: 日志配置
type Config struct {
	// Server 服务器配置
	Server ServerConfig `json:"server"`

	// Limits 每连接限制配置
	Limits LimitsConfig `json:"limits"`

	// Govern 连接治理配置
	Govern GovernConfig `json:"govern"`

	// Log 日志配置
	Log LogConfig `json:"log"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Server: DefaultServerConfig(),
		Limits: DefaultLimitsConfig(),
		Govern: DefaultGovernConfig(),
		Log:    DefaultLogConfig(),
	}
}

// Validate 验证完整配置
//
// 任意子配置非法时返回错误，配置本身保持不变。
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server 配置无效: %w", err)
	}
	if err := c.Limits.Validate(); err != nil {
		return fmt.Errorf("limits 配置无效: %w", err)
	}
	if err := c.Govern.Validate(); err != nil {
		return fmt.Errorf("govern 配置无效: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log 配置无效: %w", err)
	}
	return nil
}

// FromJSON 从 JSON 数据解析配置
//
// 未出现的字段保持默认值。
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile 从文件加载配置
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return FromJSON(data)
}

// ToJSON 序列化为 JSON
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// SaveToFile 保存配置到文件
func (c *Config) SaveToFile(path string) error {
	data, err := c.ToJSON()
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}
	return nil
}
