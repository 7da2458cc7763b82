// Package app 提供 httpd 应用编排层
//
// app 包负责：
// - fx 模块组装
// - 依赖注入协调
// - 生命周期管理
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-httpd/config"
	"github.com/dep2p/go-httpd/internal/core/govern"
	"github.com/dep2p/go-httpd/internal/core/server"
	"github.com/dep2p/go-httpd/internal/util/logger"
)

// startTimeout 启动/停止超时
const startTimeout = 15 * time.Second

// App 应用引导程序
//
// 组装配置、治理与服务端模块并管理整体生命周期。
type App struct {
	config *config.Config
	fxApp  *fx.App

	server     *server.Server
	supervisor *govern.Supervisor

	logFile *os.File
}

// New 创建应用（不启动）
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置无效: %w", err)
	}

	a := &App{config: cfg}

	// 应用日志配置（必须在所有模块初始化之前）
	if err := a.setupLogging(); err != nil {
		return nil, fmt.Errorf("设置日志失败: %w", err)
	}

	a.fxApp = fx.New(
		fx.Supply(cfg),
		govern.Module(),
		server.Module(),
		fx.Populate(&a.server, &a.supervisor),
		// 禁用 Fx 日志输出（避免干扰用户日志）
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
		fx.StartTimeout(startTimeout),
		fx.StopTimeout(startTimeout),
	)
	if err := a.fxApp.Err(); err != nil {
		return nil, fmt.Errorf("组装模块失败: %w", err)
	}
	return a, nil
}

// setupLogging 应用日志配置
func (a *App) setupLogging() error {
	level, ok := logger.ParseLevel(a.config.Log.Level)
	if !ok {
		level = slog.LevelInfo
	}
	logger.SetGlobalLevel(level)

	if a.config.Log.File != "" {
		f, err := os.OpenFile(a.config.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		a.logFile = f
		logger.SetOutput(f)
	}
	return nil
}

// Start 启动应用
func (a *App) Start(ctx context.Context) error {
	return a.fxApp.Start(ctx)
}

// Stop 停止应用
func (a *App) Stop(ctx context.Context) error {
	err := a.fxApp.Stop(ctx)
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
	return err
}

// Wait 返回应用退出信号通道（收到 SIGINT/SIGTERM 等时关闭）
func (a *App) Wait() <-chan fx.ShutdownSignal {
	return a.fxApp.Wait()
}

// Server 返回服务端实例
func (a *App) Server() *server.Server {
	return a.server
}

// Supervisor 返回连接监督器
func (a *App) Supervisor() *govern.Supervisor {
	return a.supervisor
}
