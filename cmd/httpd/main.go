// Package main 提供 httpd 命令行入口
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dep2p/go-httpd/config"
	"github.com/dep2p/go-httpd/internal/app"
	"github.com/dep2p/go-httpd/internal/util/logger"
)

// Version 版本号
const Version = "0.1.0"

var log = logger.Logger("httpd/cmd")

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
//
//	命令行参数：运行时覆盖 / 快速测试
//	JSON 配置文件：持久化配置 / 长期运行
var (
	configFile = flag.String("config", "", "配置文件路径（JSON）")
	listen     = flag.String("listen", "", "监听地址，逗号分隔（覆盖配置文件）")
	timeout    = flag.Duration("keep-alive-timeout", 0, "Keep-Alive 空闲超时（覆盖配置文件）")
	logLevel   = flag.String("log-level", "", "日志级别 debug/info/warn/error（覆盖配置文件）")
	logFile    = flag.String("log-file", "", "日志文件路径（空 = 标准错误输出）")

	showVersion = flag.Bool("version", false, "显示版本信息")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVersion {
		fmt.Printf("httpd %s\n", Version)
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = a.Start(ctx)
	cancel()
	if err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}

	for _, addr := range a.Server().Addrs() {
		fmt.Printf("监听 %s\n", addr)
	}

	// 等待退出信号
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("收到退出信号", "signal", sig)

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return a.Stop(stopCtx)
}

// loadConfig 加载配置并应用命令行覆盖
func loadConfig() (*config.Config, error) {
	cfg := config.NewConfig()

	if *configFile != "" {
		loaded, err := config.LoadFromFile(*configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if *listen != "" {
		cfg.Server.Listen = strings.Split(*listen, ",")
	}
	if *timeout > 0 {
		cfg.Limits.KeepAliveTimeout = config.Duration(*timeout)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logFile != "" {
		cfg.Log.File = *logFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
