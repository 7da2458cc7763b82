package govern

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Heartbeat 心跳调度器
//
// 进程级的单一周期触发器：以固定间隔唤醒监督器扫描。
// 生命周期与服务器一致——服务器开始接受连接时启动，
// 服务器关停时停止，停止后不再触发，也不持有阻碍退出的引用。
//
// 评估是周期性的，因此实际关闭延迟为
// 超时 + 至多一个心跳间隔；这是文档化的可接受误差。
type Heartbeat struct {
	interval time.Duration
	sup      *Supervisor

	// now 时间源，测试可注入
	now func() time.Time

	running atomic.Bool
	stopped atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewHeartbeat 创建心跳调度器
func NewHeartbeat(interval time.Duration, sup *Supervisor) *Heartbeat {
	return &Heartbeat{
		interval: interval,
		sup:      sup,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start 启动心跳
//
// 重复启动返回 ErrHeartbeatRunning。
// 注意：后台循环的存续由 Stop 控制而非 ctx，
// Fx OnStart 的 ctx 在 OnStart 返回后即被取消。
func (h *Heartbeat) Start(_ context.Context) error {
	if !h.running.CompareAndSwap(false, true) {
		return ErrHeartbeatRunning
	}

	h.wg.Add(1)
	go h.loop()

	log.Info("心跳已启动", "interval", h.interval)
	return nil
}

// Stop 停止心跳
//
// 幂等；返回时后台循环已退出，之后不会再有任何扫描。
func (h *Heartbeat) Stop() error {
	if !h.stopped.CompareAndSwap(false, true) {
		return nil
	}

	close(h.stopCh)
	h.wg.Wait()

	log.Info("心跳已停止")
	return nil
}

// loop 心跳循环
func (h *Heartbeat) loop() {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			// 中止指令本身不阻塞（仅关闭通道），
			// 单个连接不会拖慢本轮扫描或下一次心跳
			h.sup.EvaluateAll(h.now())
		}
	}
}

// Interval 返回心跳间隔
func (h *Heartbeat) Interval() time.Duration {
	return h.interval
}
