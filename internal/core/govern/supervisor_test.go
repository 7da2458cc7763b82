package govern

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSupervisor_TrackUntrack 测试注册与注销
func TestSupervisor_TrackUntrack(t *testing.T) {
	sup := NewSupervisor()
	now := time.Now()

	st := NewConnState(time.Second, now)
	require.NoError(t, sup.Track("conn-1", st, func() {}))
	assert.Equal(t, 1, sup.TrackedCount())

	// 重复注册被拒绝
	assert.ErrorIs(t, sup.Track("conn-1", st, func() {}), ErrAlreadyTracked)

	assert.True(t, sup.Untrack("conn-1"))
	assert.Equal(t, 0, sup.TrackedCount())

	// 幂等：再次注销返回 false
	assert.False(t, sup.Untrack("conn-1"))
	assert.False(t, sup.Untrack("never-tracked"))

	t.Log("✅ 注册/注销正确")
}

// TestSupervisor_EvaluateAllExpires 测试过期中止
func TestSupervisor_EvaluateAllExpires(t *testing.T) {
	sup := NewSupervisor()
	now := time.Now()

	abortCh := make(chan struct{})
	st := NewConnState(time.Second, now)
	require.NoError(t, sup.Track("conn-1", st, func() { close(abortCh) }))

	// 未超时不中止
	assert.Equal(t, 0, sup.EvaluateAll(now.Add(time.Second)))
	select {
	case <-abortCh:
		t.Fatal("未超时不应中止")
	default:
	}

	// 严格超过后中止并从跟踪集合移除
	assert.Equal(t, 1, sup.EvaluateAll(now.Add(1100*time.Millisecond)))
	select {
	case <-abortCh:
	default:
		t.Fatal("应已下发中止指令")
	}
	assert.Equal(t, 0, sup.TrackedCount())

	// 连接自身稍后注销观察到「已移除」
	assert.False(t, sup.Untrack("conn-1"))

	t.Log("✅ 过期中止正确")
}

// TestSupervisor_ReadingBodyNotAborted 测试请求体阶段不被中止
func TestSupervisor_ReadingBodyNotAborted(t *testing.T) {
	sup := NewSupervisor()
	now := time.Now()

	st := NewConnState(time.Second, now)
	st.Transition(PhaseReadingBody, now)

	aborted := false
	require.NoError(t, sup.Track("conn-1", st, func() { aborted = true }))

	// 远超 timeout 也不中止
	assert.Equal(t, 0, sup.EvaluateAll(now.Add(time.Hour)))
	assert.False(t, aborted)
	assert.Equal(t, 1, sup.TrackedCount())

	t.Log("✅ ReadingBody 阶段不被中止")
}

// TestSupervisor_AllExpiredSignaledInOneScan 测试单次扫描全量下发
func TestSupervisor_AllExpiredSignaledInOneScan(t *testing.T) {
	sup := NewSupervisor()
	now := time.Now()

	var mu sync.Mutex
	abortedIDs := make(map[string]bool)

	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("conn-%d", i)
		st := NewConnState(time.Second, now)
		if i%3 == 0 {
			// 部分连接仍活跃
			st.Touch(now.Add(2 * time.Second))
		}
		require.NoError(t, sup.Track(id, st, func() {
			mu.Lock()
			abortedIDs[id] = true
			mu.Unlock()
		}))
	}

	expired := sup.EvaluateAll(now.Add(2100 * time.Millisecond))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 6, expired)
	assert.Len(t, abortedIDs, 6)
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("conn-%d", i)
		assert.Equal(t, i%3 != 0, abortedIDs[id], id)
	}
	assert.Equal(t, 4, sup.TrackedCount())

	t.Log("✅ 一次扫描下发全部过期连接")
}

// TestSupervisor_UntrackRaceFirstWins 测试注销竞争首者胜出
//
// 对端关闭与超时中止并发时，恰好一方完成注销，
// 中止指令不会在连接已注销后下发。
func TestSupervisor_UntrackRaceFirstWins(t *testing.T) {
	now := time.Now()

	for i := 0; i < 100; i++ {
		sup := NewSupervisor()
		st := NewConnState(time.Millisecond, now)

		aborted := make(chan struct{}, 1)
		require.NoError(t, sup.Track("conn-1", st, func() { aborted <- struct{}{} }))

		var wg sync.WaitGroup
		var peerClosed bool

		wg.Add(2)
		go func() {
			defer wg.Done()
			// 对端关闭路径
			peerClosed = sup.Untrack("conn-1")
		}()
		go func() {
			defer wg.Done()
			// 心跳超时路径
			sup.EvaluateAll(now.Add(time.Second))
		}()
		wg.Wait()

		timedOut := len(aborted) == 1
		// 恰好一方完成注销
		require.NotEqual(t, peerClosed, timedOut, "注销必须恰好发生一次")
		assert.Equal(t, 0, sup.TrackedCount())
	}

	t.Log("✅ 注销竞争首者胜出")
}

// TestSupervisor_OnActivity 测试按 ID 上报活动
func TestSupervisor_OnActivity(t *testing.T) {
	sup := NewSupervisor()
	now := time.Now()

	st := NewConnState(time.Second, now)
	require.NoError(t, sup.Track("conn-1", st, func() {}))

	// 活动上报将时间戳推进，原本会过期的时刻不再过期
	sup.OnActivity("conn-1", now.Add(900*time.Millisecond))
	assert.Equal(t, 0, sup.EvaluateAll(now.Add(1500*time.Millisecond)))

	// 未跟踪的 ID 安全忽略
	sup.OnActivity("unknown", now)

	t.Log("✅ 活动上报正确")
}

// TestSupervisor_MetricsAndClose 测试计数器与关闭
func TestSupervisor_MetricsAndClose(t *testing.T) {
	sup := NewSupervisor()
	now := time.Now()

	st := NewConnState(time.Millisecond, now)
	require.NoError(t, sup.Track("conn-1", st, func() {}))
	sup.EvaluateAll(now.Add(time.Second))

	m := sup.Metrics()
	assert.Equal(t, int64(0), m.Tracked)
	assert.Equal(t, int64(1), m.Expired)
	assert.Equal(t, int64(1), m.Scans)

	require.NoError(t, sup.Close())
	assert.ErrorIs(t, sup.Close(), ErrSupervisorClosed)
	assert.ErrorIs(t, sup.Track("conn-2", st, func() {}), ErrSupervisorClosed)
	assert.Equal(t, 0, sup.EvaluateAll(now))

	t.Log("✅ 计数器与关闭正确")
}
