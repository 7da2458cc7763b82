package govern

import (
	"context"

	"go.uber.org/fx"
)

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("govern",
		fx.Provide(
			ConfigFromUnified,
			ProvideSupervisor,
			ProvideHeartbeat,
		),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideSupervisor 提供连接监督器
func ProvideSupervisor(cfg Config) (*Supervisor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewSupervisor(), nil
}

// ProvideHeartbeat 提供心跳调度器
func ProvideHeartbeat(cfg Config, sup *Supervisor) *Heartbeat {
	return NewHeartbeat(cfg.HeartbeatInterval, sup)
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In
	LC         fx.Lifecycle
	Supervisor *Supervisor
	Heartbeat  *Heartbeat
}

// registerLifecycle 注册生命周期
//
// 心跳随服务器启动/关停，关停后监督器拒绝新的注册。
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return input.Heartbeat.Start(ctx)
		},
		OnStop: func(_ context.Context) error {
			if err := input.Heartbeat.Stop(); err != nil {
				return err
			}
			return input.Supervisor.Close()
		},
	})
}
