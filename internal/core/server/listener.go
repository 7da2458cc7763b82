package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/dep2p/go-httpd/internal/core/govern"
	"github.com/dep2p/go-httpd/internal/util/logger"
)

var log = logger.Logger("server")

// Server HTTP/1.1 服务器
//
// 每个接受的连接在创建时快照一份 KeepAliveTimeout 并注册到
// 监督器；之后对限制配置的修改只影响新接受的连接。
type Server struct {
	cfg     Config
	sup     *govern.Supervisor
	handler Handler

	// limiter 接入速率限制（nil = 不限制）
	limiter *rate.Limiter

	mu        sync.Mutex
	listeners []net.Listener
	conns     map[string]*conn
	running   bool
	closed    bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer 创建服务器
func NewServer(cfg Config, sup *govern.Supervisor) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		sup:     sup,
		handler: defaultHandler,
		conns:   make(map[string]*conn),
	}
	if cfg.AcceptRate > 0 {
		burst := cfg.AcceptBurst
		if burst <= 0 {
			burst = int(cfg.AcceptRate + 1)
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.AcceptRate), burst)
	}
	return s, nil
}

// SetHandler 替换请求处理函数
//
// 仅允许在 Start 之前调用。
func (s *Server) SetHandler(h Handler) {
	if h != nil {
		s.handler = h
	}
}

// Start 启动服务器
//
// 在全部配置地址上开始监听并接受连接。
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrServerClosed
	}
	if s.running {
		return ErrServerRunning
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	for _, addr := range s.cfg.Listen {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			s.closeListenersLocked()
			s.cancel()
			return err
		}
		s.listeners = append(s.listeners, ln)

		s.wg.Add(1)
		go s.acceptLoop(ln)

		log.Info("开始监听", "addr", ln.Addr())
	}

	s.running = true
	return nil
}

// Stop 停止服务器
//
// 关闭监听器与全部活动连接，等待连接协程退出。幂等。
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	s.closeListenersLocked()
	for _, c := range s.conns {
		c.close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	log.Info("服务器已停止")
	return nil
}

// closeListenersLocked 关闭全部监听器（须持有 s.mu）
func (s *Server) closeListenersLocked() {
	for _, ln := range s.listeners {
		_ = ln.Close()
	}
	s.listeners = nil
}

// Addrs 返回实际监听地址（端口 0 时为分配后的端口）
func (s *Server) Addrs() []net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	addrs := make([]net.Addr, 0, len(s.listeners))
	for _, ln := range s.listeners {
		addrs = append(addrs, ln.Addr())
	}
	return addrs
}

// ActiveConns 返回当前活动连接数
func (s *Server) ActiveConns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// ============================================================================
//                              接入
// ============================================================================

// acceptLoop 接受循环
func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()

	for {
		if s.limiter != nil {
			if err := s.limiter.Wait(s.ctx); err != nil {
				return
			}
		}

		nc, err := ln.Accept()
		if err != nil {
			if s.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			log.Warn("接受连接失败", "err", err)
			continue
		}

		if tc, ok := nc.(*net.TCPConn); ok {
			_ = tc.SetNoDelay(true)
			_ = tc.SetKeepAlive(true)
		}

		s.startConn(nc)
	}
}

// startConn 注册并启动连接协程
func (s *Server) startConn(nc net.Conn) {
	id := uuid.New().String()
	state := govern.NewConnState(s.cfg.Limits.KeepAliveTimeout.Duration(), time.Now())
	c := newConn(id, s, nc, state)

	if err := s.sup.Track(id, state, c.abort); err != nil {
		// 关停竞争：监督器已关闭，直接拒绝
		_ = nc.Close()
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.sup.Untrack(id)
		_ = nc.Close()
		return
	}
	s.conns[id] = c
	s.mu.Unlock()

	log.Debug("接受连接",
		"conn", logger.TruncateID(id, 8),
		"remote", nc.RemoteAddr(),
		"timeout", state.Timeout())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		c.serve()
	}()
}

// removeConn 从活动集合移除连接
func (s *Server) removeConn(id string) {
	s.mu.Lock()
	delete(s.conns, id)
	s.mu.Unlock()
}
