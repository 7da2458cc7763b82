package govern

import "sync/atomic"

// Metrics 治理器计数器
//
// 使用原子操作实现并发安全的计数器，
// 供观测通道读取快照。
type Metrics struct {
	tracked atomic.Int64 // 当前跟踪的连接数
	expired atomic.Int64 // 累计超时关闭的连接数
	scans   atomic.Int64 // 累计扫描次数
}

// MetricsSnapshot 计数器快照
type MetricsSnapshot struct {
	// Tracked 当前跟踪的连接数
	Tracked int64

	// Expired 累计超时关闭的连接数
	Expired int64

	// Scans 累计心跳扫描次数
	Scans int64
}

// Snapshot 返回当前快照
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Tracked: m.tracked.Load(),
		Expired: m.expired.Load(),
		Scans:   m.scans.Load(),
	}
}
