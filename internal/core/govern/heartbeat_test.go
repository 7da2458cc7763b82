package govern

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitFor 轮询等待条件成立
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

// TestHeartbeat_DrivesEvaluation 测试心跳驱动扫描
func TestHeartbeat_DrivesEvaluation(t *testing.T) {
	sup := NewSupervisor()
	hb := NewHeartbeat(10*time.Millisecond, sup)

	abortCh := make(chan struct{})
	st := NewConnState(50*time.Millisecond, time.Now())
	require.NoError(t, sup.Track("conn-1", st, func() { close(abortCh) }))

	require.NoError(t, hb.Start(context.Background()))
	defer hb.Stop()

	// 超时 + 至多一个心跳间隔内应收到中止
	select {
	case <-abortCh:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("心跳未在期望时间内触发中止")
	}
	assert.Equal(t, 0, sup.TrackedCount())

	t.Log("✅ 心跳驱动扫描并触发中止")
}

// TestHeartbeat_StartTwice 测试重复启动
func TestHeartbeat_StartTwice(t *testing.T) {
	hb := NewHeartbeat(10*time.Millisecond, NewSupervisor())

	require.NoError(t, hb.Start(context.Background()))
	assert.ErrorIs(t, hb.Start(context.Background()), ErrHeartbeatRunning)
	require.NoError(t, hb.Stop())

	t.Log("✅ 重复启动被拒绝")
}

// TestHeartbeat_StopPreventsFurtherTicks 测试停止后不再扫描
func TestHeartbeat_StopPreventsFurtherTicks(t *testing.T) {
	sup := NewSupervisor()
	hb := NewHeartbeat(5*time.Millisecond, sup)

	require.NoError(t, hb.Start(context.Background()))
	waitFor(t, time.Second, func() bool { return sup.Metrics().Scans > 0 }, "心跳未开始扫描")

	require.NoError(t, hb.Stop())
	scansAtStop := sup.Metrics().Scans

	// 停止后扫描计数不再增长
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, scansAtStop, sup.Metrics().Scans)

	// Stop 幂等
	require.NoError(t, hb.Stop())

	t.Log("✅ 停止后不再触发扫描")
}

// TestHeartbeat_InjectedClock 测试注入时间源
func TestHeartbeat_InjectedClock(t *testing.T) {
	sup := NewSupervisor()
	hb := NewHeartbeat(5*time.Millisecond, sup)

	// 时间源固定在远未来：所有等待阶段的连接立即视为过期
	frozen := time.Now().Add(time.Hour)
	hb.now = func() time.Time { return frozen }

	abortCh := make(chan struct{})
	st := NewConnState(time.Minute, time.Now())
	require.NoError(t, sup.Track("conn-1", st, func() { close(abortCh) }))

	require.NoError(t, hb.Start(context.Background()))
	defer hb.Stop()

	select {
	case <-abortCh:
	case <-time.After(time.Second):
		t.Fatal("注入时间源未生效")
	}

	t.Log("✅ 注入时间源生效")
}
