package server

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-httpd/config"
)

// newTestParser 基于字符串输入创建解析器
func newTestParser(input string, limits config.LimitsConfig) *parser {
	return newParser(bufio.NewReader(strings.NewReader(input)), limits)
}

// TestParser_SimpleGET 测试基本 GET 请求解析
func TestParser_SimpleGET(t *testing.T) {
	p := newTestParser("GET /index.html HTTP/1.1\r\nHost: example.com\r\n\r\n", config.DefaultLimitsConfig())

	req, err := p.readHead()
	require.NoError(t, err)
	assert.Equal(t, "GET", req.method)
	assert.Equal(t, "/index.html", req.target)
	assert.Equal(t, "HTTP/1.1", req.proto)
	assert.Equal(t, "example.com", req.header("host"))
	assert.False(t, req.hasBody())
	assert.True(t, req.keepAlive)

	t.Log("✅ GET 请求解析正确")
}

// TestParser_ConnectionSemantics 测试连接保持语义
func TestParser_ConnectionSemantics(t *testing.T) {
	limits := config.DefaultLimitsConfig()

	// HTTP/1.1 显式 close
	req, err := newTestParser("GET / HTTP/1.1\r\nConnection: close\r\n\r\n", limits).readHead()
	require.NoError(t, err)
	assert.False(t, req.keepAlive)

	// HTTP/1.0 默认关闭
	req, err = newTestParser("GET / HTTP/1.0\r\n\r\n", limits).readHead()
	require.NoError(t, err)
	assert.False(t, req.keepAlive)

	// HTTP/1.0 显式 keep-alive
	req, err = newTestParser("GET / HTTP/1.0\r\nConnection: Keep-Alive\r\n\r\n", limits).readHead()
	require.NoError(t, err)
	assert.True(t, req.keepAlive)

	t.Log("✅ 连接保持语义正确")
}

// TestParser_BodyFraming 测试请求体定界解析
func TestParser_BodyFraming(t *testing.T) {
	limits := config.DefaultLimitsConfig()

	req, err := newTestParser("POST /a HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello", limits).readHead()
	require.NoError(t, err)
	assert.Equal(t, int64(5), req.contentLength)
	assert.True(t, req.hasBody())

	req, err = newTestParser("POST /a HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n", limits).readHead()
	require.NoError(t, err)
	assert.True(t, req.chunked)
	assert.True(t, req.hasBody())

	// Content-Length: 0 无请求体
	req, err = newTestParser("POST /a HTTP/1.1\r\nContent-Length: 0\r\n\r\n", limits).readHead()
	require.NoError(t, err)
	assert.False(t, req.hasBody())

	t.Log("✅ 请求体定界解析正确")
}

// TestParser_MalformedRequests 测试格式错误拒绝
func TestParser_MalformedRequests(t *testing.T) {
	limits := config.DefaultLimitsConfig()

	cases := []struct {
		name  string
		input string
	}{
		{"请求行缺少字段", "GET /\r\n\r\n"},
		{"协议版本不支持", "GET / HTTP/2.0\r\n\r\n"},
		{"请求头缺少冒号", "GET / HTTP/1.1\r\nBadHeader\r\n\r\n"},
		{"请求头名称含空白", "GET / HTTP/1.1\r\nBad Name: x\r\n\r\n"},
		{"Content-Length 非数字", "POST / HTTP/1.1\r\nContent-Length: abc\r\n\r\n"},
		{"Content-Length 为负", "POST / HTTP/1.1\r\nContent-Length: -1\r\n\r\n"},
		{"定界冲突", "POST / HTTP/1.1\r\nContent-Length: 5\r\nTransfer-Encoding: chunked\r\n\r\n"},
		{"传输编码不支持", "POST / HTTP/1.1\r\nTransfer-Encoding: gzip\r\n\r\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newTestParser(tc.input, limits).readHead()
			assert.ErrorIs(t, err, ErrMalformedRequest)
		})
	}

	t.Log("✅ 格式错误全部拒绝")
}

// TestParser_RequestLineLimit 测试请求行上限
func TestParser_RequestLineLimit(t *testing.T) {
	limits := config.DefaultLimitsConfig()
	limits.MaxRequestLineSize = 32

	long := "GET /" + strings.Repeat("a", 64) + " HTTP/1.1\r\n\r\n"
	_, err := newTestParser(long, limits).readHead()
	assert.ErrorIs(t, err, ErrRequestLineTooLarge)

	// 恰好在上限内通过
	ok := "GET /abc HTTP/1.1\r\nHost: x\r\n\r\n"
	_, err = newTestParser(ok, limits).readHead()
	assert.NoError(t, err)

	t.Log("✅ 请求行上限生效")
}

// TestParser_HeaderLimits 测试请求头上限
func TestParser_HeaderLimits(t *testing.T) {
	// 总大小上限
	limits := config.DefaultLimitsConfig()
	limits.MaxRequestHeadersSize = 64

	big := "GET / HTTP/1.1\r\nX-Big: " + strings.Repeat("a", 128) + "\r\n\r\n"
	_, err := newTestParser(big, limits).readHead()
	assert.ErrorIs(t, err, ErrHeadersTooLarge)

	// 数量上限
	limits = config.DefaultLimitsConfig()
	limits.MaxRequestHeaderCount = 3

	var sb strings.Builder
	sb.WriteString("GET / HTTP/1.1\r\n")
	for i := 0; i < 5; i++ {
		sb.WriteString("X-H: v\r\n")
	}
	sb.WriteString("\r\n")
	_, err = newTestParser(sb.String(), limits).readHead()
	assert.ErrorIs(t, err, ErrTooManyHeaders)

	// 恰好等于上限通过
	_, err = newTestParser("GET / HTTP/1.1\r\nA: 1\r\nB: 2\r\nC: 3\r\n\r\n", limits).readHead()
	assert.NoError(t, err)

	t.Log("✅ 请求头上限生效")
}

// TestParser_BufferLimit 测试请求缓冲区上限
func TestParser_BufferLimit(t *testing.T) {
	limits := config.DefaultLimitsConfig()
	bufSize := int64(40)
	limits.MaxRequestBufferSize = &bufSize

	// 单行都在各自上限内，但累计超出缓冲区上限
	input := "GET / HTTP/1.1\r\nX-Header-One: aaaaaaaaaaaaaaaaaaaa\r\n\r\n"
	_, err := newTestParser(input, limits).readHead()
	assert.ErrorIs(t, err, ErrBufferExceeded)

	// nil 表示不限制
	limits.MaxRequestBufferSize = nil
	_, err = newTestParser(input, limits).readHead()
	assert.NoError(t, err)

	t.Log("✅ 缓冲区上限生效，nil 不限制")
}

// TestParser_DiscardContentLengthBody 测试定长请求体消费
func TestParser_DiscardContentLengthBody(t *testing.T) {
	limits := config.DefaultLimitsConfig()
	input := "POST /a HTTP/1.1\r\nContent-Length: 5\r\n\r\nhelloGET /b HTTP/1.1\r\n\r\n"
	p := newTestParser(input, limits)

	req, err := p.readHead()
	require.NoError(t, err)
	require.NoError(t, p.discardBody(req))

	// 请求体消费后下一请求可解析
	next, err := p.readHead()
	require.NoError(t, err)
	assert.Equal(t, "/b", next.target)

	t.Log("✅ 定长请求体消费正确")
}

// TestParser_DiscardChunkedBody 测试分块请求体消费
func TestParser_DiscardChunkedBody(t *testing.T) {
	limits := config.DefaultLimitsConfig()

	// 含块扩展与 trailer
	input := "POST /a HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"5;ext=1\r\nhello\r\n" +
		"7\r\n, world\r\n" +
		"0\r\n" +
		"X-Trailer: v\r\n" +
		"\r\n" +
		"GET /b HTTP/1.1\r\n\r\n"
	p := newTestParser(input, limits)

	req, err := p.readHead()
	require.NoError(t, err)
	require.NoError(t, p.discardBody(req))

	next, err := p.readHead()
	require.NoError(t, err)
	assert.Equal(t, "/b", next.target)

	t.Log("✅ 分块请求体消费正确")
}

// TestParser_ChunkedMalformed 测试分块编码错误
func TestParser_ChunkedMalformed(t *testing.T) {
	limits := config.DefaultLimitsConfig()

	// 分块大小非十六进制
	p := newTestParser("POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\nzz\r\n", limits)
	req, err := p.readHead()
	require.NoError(t, err)
	assert.ErrorIs(t, p.discardBody(req), ErrMalformedRequest)

	// 块数据后缺少 CRLF
	p = newTestParser("POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nhelloXX", limits)
	req, err = p.readHead()
	require.NoError(t, err)
	assert.ErrorIs(t, p.discardBody(req), ErrMalformedRequest)

	t.Log("✅ 分块编码错误全部拒绝")
}
