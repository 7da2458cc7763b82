package server

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dep2p/go-httpd/config"
)

// ============================================================================
//                              请求模型
// ============================================================================

// headerField 单个请求头字段
type headerField struct {
	name  string
	value string
}

// request 已解析的请求头部
type request struct {
	method string
	target string
	proto  string

	headers []headerField

	// contentLength 请求体长度（-1 表示无 Content-Length）
	contentLength int64

	// chunked 请求体使用分块编码
	chunked bool

	// keepAlive 响应后保持连接
	keepAlive bool
}

// hasBody 返回请求是否携带请求体
func (r *request) hasBody() bool {
	return r.chunked || r.contentLength > 0
}

// header 按名称查找请求头（不区分大小写），未找到返回空串
func (r *request) header(name string) string {
	for _, f := range r.headers {
		if strings.EqualFold(f.name, name) {
			return f.value
		}
	}
	return ""
}

// ============================================================================
//                              解析器
// ============================================================================

// parser HTTP/1.1 请求解析器
//
// 绑定到单个连接的读端，限制配置在连接创建时快照、全程只读。
// 所有上限在读取过程中即时执行：超限立即失败，不会先缓冲再检查。
type parser struct {
	br     *bufio.Reader
	limits config.LimitsConfig

	// headBytes 当前请求头部（请求行 + 请求头）累计字节数
	headBytes int64
}

// newParser 创建解析器
func newParser(br *bufio.Reader, limits config.LimitsConfig) *parser {
	return &parser{br: br, limits: limits}
}

// readLine 读取一行（含结尾 CRLF 计入 headBytes）
//
// limit 为本行的字节上限，overflowErr 为超限时返回的错误。
// 返回的行已剥离结尾的 CRLF/LF。
func (p *parser) readLine(limit int, overflowErr error) ([]byte, error) {
	var line []byte
	for {
		frag, err := p.br.ReadSlice('\n')
		if len(frag) > 0 {
			line = append(line, frag...)
		}
		if len(line) > limit {
			return nil, overflowErr
		}
		if err == nil {
			break
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		return nil, err
	}

	p.headBytes += int64(len(line))
	if p.limits.MaxRequestBufferSize != nil && p.headBytes > *p.limits.MaxRequestBufferSize {
		return nil, ErrBufferExceeded
	}

	line = bytes.TrimRight(line, "\r\n")
	return line, nil
}

// readHead 读取并解析一个请求的请求行与全部请求头
//
// 首字节之前的阻塞属于 AwaitingRequest 阶段，由调用方治理；
// 本方法只负责解析与限制执行。
func (p *parser) readHead() (*request, error) {
	p.headBytes = 0

	// 请求行（结尾 CRLF 计入上限）
	line, err := p.readLine(p.limits.MaxRequestLineSize+2, ErrRequestLineTooLarge)
	if err != nil {
		return nil, err
	}

	req, err := parseRequestLine(string(line))
	if err != nil {
		return nil, err
	}

	// 请求头
	var headerBytes int
	for {
		remaining := p.limits.MaxRequestHeadersSize - headerBytes
		if remaining < 0 {
			remaining = 0
		}
		line, err := p.readLine(remaining+2, ErrHeadersTooLarge)
		if err != nil {
			return nil, err
		}
		if len(line) == 0 {
			break
		}

		headerBytes += len(line) + 2
		if headerBytes > p.limits.MaxRequestHeadersSize {
			return nil, ErrHeadersTooLarge
		}
		if len(req.headers)+1 > p.limits.MaxRequestHeaderCount {
			return nil, ErrTooManyHeaders
		}

		name, value, err := parseHeaderField(line)
		if err != nil {
			return nil, err
		}
		req.headers = append(req.headers, headerField{name: name, value: value})
	}

	if err := resolveFraming(req); err != nil {
		return nil, err
	}
	return req, nil
}

// parseRequestLine 解析请求行
func parseRequestLine(line string) (*request, error) {
	parts := strings.Split(line, " ")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("%w: 请求行格式错误", ErrMalformedRequest)
	}

	proto := parts[2]
	if proto != "HTTP/1.1" && proto != "HTTP/1.0" {
		return nil, fmt.Errorf("%w: 不支持的协议版本 %q", ErrMalformedRequest, proto)
	}

	return &request{
		method:        parts[0],
		target:        parts[1],
		proto:         proto,
		contentLength: -1,
	}, nil
}

// parseHeaderField 解析单个请求头字段
func parseHeaderField(line []byte) (name, value string, err error) {
	idx := bytes.IndexByte(line, ':')
	if idx <= 0 {
		return "", "", fmt.Errorf("%w: 请求头字段格式错误", ErrMalformedRequest)
	}

	name = string(line[:idx])
	if strings.ContainsAny(name, " \t") {
		return "", "", fmt.Errorf("%w: 请求头名称含空白字符", ErrMalformedRequest)
	}

	value = strings.Trim(string(line[idx+1:]), " \t")
	return name, value, nil
}

// resolveFraming 解析请求体定界与连接保持语义
func resolveFraming(req *request) error {
	var haveCL bool
	for _, f := range req.headers {
		switch {
		case strings.EqualFold(f.name, "Content-Length"):
			if haveCL || req.chunked {
				return fmt.Errorf("%w: 请求体定界冲突", ErrMalformedRequest)
			}
			n, err := strconv.ParseInt(f.value, 10, 64)
			if err != nil || n < 0 {
				return fmt.Errorf("%w: Content-Length 无效", ErrMalformedRequest)
			}
			req.contentLength = n
			haveCL = true

		case strings.EqualFold(f.name, "Transfer-Encoding"):
			if !strings.EqualFold(f.value, "chunked") {
				return fmt.Errorf("%w: 不支持的传输编码 %q", ErrMalformedRequest, f.value)
			}
			if haveCL {
				return fmt.Errorf("%w: 请求体定界冲突", ErrMalformedRequest)
			}
			req.chunked = true
		}
	}

	// 连接保持：HTTP/1.1 默认保持，HTTP/1.0 默认关闭
	conn := req.header("Connection")
	if req.proto == "HTTP/1.1" {
		req.keepAlive = !strings.EqualFold(conn, "close")
	} else {
		req.keepAlive = strings.EqualFold(conn, "keep-alive")
	}
	return nil
}

// ============================================================================
//                              请求体消费
// ============================================================================

// discardBody 消费并丢弃请求体
//
// 请求体读取期间连接处于 ReadingBody 阶段，不受空闲超时约束；
// 活动上报由底层 activityReader 按字节完成。
func (p *parser) discardBody(req *request) error {
	if req.chunked {
		return p.discardChunked()
	}
	if req.contentLength > 0 {
		if _, err := io.CopyN(io.Discard, p.br, req.contentLength); err != nil {
			return err
		}
	}
	return nil
}

// discardChunked 消费分块编码的请求体
func (p *parser) discardChunked() error {
	for {
		size, err := p.readChunkSize()
		if err != nil {
			return err
		}
		if size == 0 {
			break
		}

		if _, err := io.CopyN(io.Discard, p.br, size); err != nil {
			return err
		}
		if err := p.expectCRLF(); err != nil {
			return err
		}
	}

	// trailer 部分：读到空行为止
	for {
		line, err := p.readLine(p.limits.MaxRequestLineSize+2, ErrHeadersTooLarge)
		if err != nil {
			return err
		}
		if len(line) == 0 {
			return nil
		}
	}
}

// readChunkSize 读取分块大小行
func (p *parser) readChunkSize() (int64, error) {
	line, err := p.readLine(p.limits.MaxRequestLineSize+2, ErrMalformedRequest)
	if err != nil {
		return 0, err
	}

	// 剥离块扩展
	s := string(line)
	if idx := strings.IndexByte(s, ';'); idx >= 0 {
		s = s[:idx]
	}

	size, err := strconv.ParseInt(strings.TrimSpace(s), 16, 64)
	if err != nil || size < 0 {
		return 0, fmt.Errorf("%w: 分块大小无效", ErrMalformedRequest)
	}
	return size, nil
}

// expectCRLF 消费分块数据后的 CRLF
func (p *parser) expectCRLF() error {
	b, err := p.br.ReadByte()
	if err != nil {
		return err
	}
	if b == '\r' {
		if b, err = p.br.ReadByte(); err != nil {
			return err
		}
	}
	if b != '\n' {
		return fmt.Errorf("%w: 分块结尾缺少 CRLF", ErrMalformedRequest)
	}
	return nil
}
