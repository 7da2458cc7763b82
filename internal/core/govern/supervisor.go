package govern

import (
	"sync"
	"time"

	"github.com/dep2p/go-httpd/internal/util/logger"
)

var log = logger.Logger("govern")

// AbortFunc 中止指令
//
// 由连接在注册时提供，通常只是关闭连接持有的中止通道。
// 必须快速且不阻塞：实际的传输关闭由连接自己的执行上下文
// 完成，监督器从不直接操作别的连接的套接字（单写者约束）。
type AbortFunc func()

// trackedConn 被跟踪的连接
type trackedConn struct {
	state *ConnState
	abort AbortFunc
}

// Supervisor 连接监督器
//
// 跟踪全部打开的连接，由心跳驱动批量评估空闲超时。
// 对每个处于允许超时阶段且 elapsed > timeout 的连接，
// 先从跟踪集合移除（首个注销者胜出），再下发中止指令。
type Supervisor struct {
	mu      sync.RWMutex
	conns   map[string]*trackedConn
	closed  bool
	metrics Metrics
}

// NewSupervisor 创建监督器
func NewSupervisor() *Supervisor {
	return &Supervisor{
		conns: make(map[string]*trackedConn),
	}
}

// Track 注册连接
//
// abort 在连接超时过期时被调用恰好一次（若先被 Untrack 则不调用）。
func (s *Supervisor) Track(connID string, state *ConnState, abort AbortFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSupervisorClosed
	}
	if _, exists := s.conns[connID]; exists {
		return ErrAlreadyTracked
	}

	s.conns[connID] = &trackedConn{state: state, abort: abort}
	s.metrics.tracked.Add(1)

	log.Debug("连接已注册", "conn", logger.TruncateID(connID, 8), "timeout", state.Timeout())
	return nil
}

// Untrack 注销连接
//
// 幂等：返回 true 表示本次调用完成了移除（首个注销者胜出），
// false 表示连接已被移除（或从未注册），调用方不做任何后续动作。
// 超时中止与对端关闭并发竞争时依赖此语义保证恰好一次注销。
func (s *Supervisor) Untrack(connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.conns[connID]; !exists {
		return false
	}
	delete(s.conns, connID)
	s.metrics.tracked.Add(-1)
	return true
}

// OnActivity 记录连接活动
//
// 等价于通过 ConnState.Touch 上报；连接 I/O 路径通常直接
// 持有 ConnState 指针，此方法供仅持有连接 ID 的调用方使用。
func (s *Supervisor) OnActivity(connID string, now time.Time) {
	s.mu.RLock()
	tc := s.conns[connID]
	s.mu.RUnlock()

	if tc != nil {
		tc.state.Touch(now)
	}
}

// EvaluateAll 批量评估所有连接
//
// 由心跳以 now 为统一时间基准调用。本次扫描发现的全部过期
// 连接都会在返回前完成注销并下发中止指令；跨连接的评估顺序
// 不作保证。返回过期连接数。
func (s *Supervisor) EvaluateAll(now time.Time) int {
	s.metrics.scans.Add(1)

	// 快速只读扫描，不在持锁期间执行任何回调
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return 0
	}
	var expired []string
	for id, tc := range s.conns {
		if tc.state.Expired(now) {
			expired = append(expired, id)
		}
	}
	s.mu.RUnlock()

	if len(expired) == 0 {
		return 0
	}

	aborted := 0
	for _, id := range expired {
		s.mu.Lock()
		tc, exists := s.conns[id]
		if exists {
			delete(s.conns, id)
			s.metrics.tracked.Add(-1)
		}
		s.mu.Unlock()

		// 注销与中止竞争：连接可能在扫描后、移除前已自行注销
		if !exists {
			continue
		}

		s.metrics.expired.Add(1)
		aborted++
		log.Debug("连接空闲超时",
			"conn", logger.TruncateID(id, 8),
			"idle", tc.state.IdleFor(now),
			"timeout", tc.state.Timeout())

		// 中止指令交给连接自己的执行上下文处理
		tc.abort()
	}

	return aborted
}

// TrackedCount 返回当前跟踪的连接数
func (s *Supervisor) TrackedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

// Metrics 返回计数器快照
func (s *Supervisor) Metrics() MetricsSnapshot {
	return s.metrics.Snapshot()
}

// Close 关闭监督器
//
// 关闭后 Track 返回 ErrSupervisorClosed；已跟踪的连接
// 由服务器的关停路径各自注销，监督器不主动中止它们。
func (s *Supervisor) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSupervisorClosed
	}
	s.closed = true
	s.conns = make(map[string]*trackedConn)
	s.metrics.tracked.Store(0)

	log.Info("监督器已关闭")
	return nil
}
