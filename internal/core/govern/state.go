package govern

import (
	"sync/atomic"
	"time"
)

// stateEpoch 时间戳打包基准
//
// 打包后的时间戳是相对进程启动的单调纳秒数，
// 避免墙钟回拨影响超时判定。
var stateEpoch = time.Now()

// monoNanos 返回 t 相对基准的单调纳秒数
func monoNanos(t time.Time) uint64 {
	d := t.Sub(stateEpoch)
	if d < 0 {
		return 0
	}
	return uint64(d)
}

// phaseBits 阶段占用的低位数
const phaseBits = 2

// ConnState 每连接超时状态
//
// (最后活动时间, 阶段) 打包进一个 uint64：
// 高位为单调纳秒时间戳，低 2 位为阶段。
// 写入方只有连接自己的 I/O 路径（单写者），
// 心跳扫描通过一次原子读取获得一致的时间戳/阶段对，
// 热路径上无锁。
//
// effectiveTimeout 在连接创建时从配置快照，
// 之后的配置修改不影响已打开的连接。
type ConnState struct {
	packed  atomic.Uint64
	timeout time.Duration
}

// pack 打包 (时间戳, 阶段)
func pack(now time.Time, p Phase) uint64 {
	return monoNanos(now)<<phaseBits | uint64(p)
}

// NewConnState 创建连接状态
//
// 初始阶段为 PhaseAwaitingRequest，时间戳为接受时刻。
func NewConnState(timeout time.Duration, now time.Time) *ConnState {
	s := &ConnState{timeout: timeout}
	s.packed.Store(pack(now, PhaseAwaitingRequest))
	return s
}

// Touch 记录一次活动，保留当前阶段
//
// 由连接的 I/O 路径在每次收到字节时调用。
// 仅允许连接自己的执行上下文调用（单写者）。
func (s *ConnState) Touch(now time.Time) {
	p := Phase(s.packed.Load() & (1<<phaseBits - 1))
	s.packed.Store(pack(now, p))
}

// Transition 切换阶段并刷新时间戳
//
// 仅允许连接自己的执行上下文调用（单写者）。
func (s *ConnState) Transition(p Phase, now time.Time) {
	s.packed.Store(pack(now, p))
}

// Snapshot 原子读取 (最后活动的单调纳秒数, 阶段)
func (s *ConnState) Snapshot() (lastActivity uint64, p Phase) {
	v := s.packed.Load()
	return v >> phaseBits, Phase(v & (1<<phaseBits - 1))
}

// Phase 返回当前阶段
func (s *ConnState) Phase() Phase {
	_, p := s.Snapshot()
	return p
}

// Timeout 返回本连接生效的 Keep-Alive 超时
func (s *ConnState) Timeout() time.Duration {
	return s.timeout
}

// IdleFor 返回截至 now 的空闲时长
func (s *ConnState) IdleFor(now time.Time) time.Duration {
	last, _ := s.Snapshot()
	n := monoNanos(now)
	if n <= last {
		// 活动发生在 now 采样之后，视为无空闲
		return 0
	}
	return time.Duration(n - last)
}

// Expired 判断连接是否超时
//
// 判定条件为严格大于（elapsed > timeout），
// 且仅在允许超时的阶段（非 PhaseReadingBody）成立。
func (s *ConnState) Expired(now time.Time) bool {
	last, p := s.Snapshot()
	if !p.TimeoutEligible() {
		return false
	}
	n := monoNanos(now)
	if n <= last {
		return false
	}
	return time.Duration(n-last) > s.timeout
}
