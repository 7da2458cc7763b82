package server

import (
	"bufio"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dep2p/go-httpd/internal/core/govern"
	"github.com/dep2p/go-httpd/internal/util/logger"
)

// ============================================================================
//                              活动上报
// ============================================================================

// activityReader 读端活动上报包装
//
// 每成功读到字节即刷新连接状态的活动时间戳，
// 阶段保持不变（阶段转换由请求循环显式完成）。
type activityReader struct {
	r     io.Reader
	state *govern.ConnState
}

func (a *activityReader) Read(p []byte) (int, error) {
	n, err := a.r.Read(p)
	if n > 0 {
		a.state.Touch(time.Now())
	}
	return n, err
}

// ============================================================================
//                              连接
// ============================================================================

// conn 单个服务端连接
//
// 连接的传输只由本连接的协程写入/关闭（单写者约束）。
// 监督器的超时中止通过关闭 abortCh 下发，
// 由 watchAbort 协程代表本连接关闭传输。
type conn struct {
	id  string
	srv *Server
	rwc net.Conn

	state *govern.ConnState
	br    *bufio.Reader
	bw    *bufio.Writer

	abortCh chan struct{}
	doneCh  chan struct{}

	closeOnce sync.Once
	timedOut  atomic.Bool
}

// newConn 创建连接
func newConn(id string, srv *Server, rwc net.Conn, state *govern.ConnState) *conn {
	c := &conn{
		id:      id,
		srv:     srv,
		rwc:     rwc,
		state:   state,
		abortCh: make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	c.br = bufio.NewReader(&activityReader{r: rwc, state: state})
	c.bw = bufio.NewWriter(rwc)
	return c
}

// abort 超时中止指令（由监督器在扫描中调用，至多一次）
func (c *conn) abort() {
	close(c.abortCh)
}

// close 关闭传输（幂等）
func (c *conn) close() {
	c.closeOnce.Do(func() {
		_ = c.rwc.Close()
	})
}

// watchAbort 等待中止指令
//
// 超时过期后不得再写出任何字节，直接关闭传输：
// 正在阻塞的读随之失败，请求循环退出。
func (c *conn) watchAbort() {
	select {
	case <-c.abortCh:
		c.timedOut.Store(true)
		log.Debug("连接超时中止", "conn", logger.TruncateID(c.id, 8))
		c.close()
	case <-c.doneCh:
	}
}

// serve 请求循环
//
// 阶段转换：
//   - 头部解析完成且携带请求体 → ReadingBody（豁免空闲超时）
//   - 请求体消费完、响应刷出 → Draining → AwaitingRequest，
//     活动时间戳重置为响应刷出时刻
func (c *conn) serve() {
	defer c.finish()
	go c.watchAbort()

	p := newParser(c.br, c.srv.cfg.Limits)

	for {
		req, err := p.readHead()
		if err != nil {
			c.replyError(err)
			return
		}

		if req.hasBody() {
			c.state.Transition(govern.PhaseReadingBody, time.Now())
			if err := p.discardBody(req); err != nil {
				c.replyError(err)
				return
			}
		}

		status, body := c.srv.handler(req.method, req.target)
		if err := writeResponse(c.bw, status, body, req.keepAlive); err != nil {
			return
		}

		flushed := time.Now()
		c.state.Transition(govern.PhaseDraining, flushed)
		if !req.keepAlive {
			return
		}
		c.state.Transition(govern.PhaseAwaitingRequest, flushed)
	}
}

// replyError 对解析失败的连接写出错误响应
//
// 仅限限制违规与格式错误（431/400）；超时中止与对端断开
// 不产生响应字节。
func (c *conn) replyError(err error) {
	if c.timedOut.Load() {
		return
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return
	}

	log.Debug("请求被拒绝", "conn", logger.TruncateID(c.id, 8), "err", err)
	_ = writeResponse(c.bw, errorStatus(err), []byte(err.Error()+"\n"), false)
}

// finish 连接收尾
//
// 注销与超时中止竞争时首者胜出：Untrack 返回 false
// 说明监督器已（或正在）中止本连接，这里不再做治理侧动作。
func (c *conn) finish() {
	close(c.doneCh)
	c.srv.sup.Untrack(c.id)
	c.close()
	c.srv.removeConn(c.id)
}
