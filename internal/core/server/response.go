package server

import (
	"bufio"
	"fmt"
	"net/http"
	"time"
)

// Handler 请求处理函数
//
// 返回状态码与响应体；请求体已由引擎消费完毕。
type Handler func(method, target string) (status int, body []byte)

// defaultHandler 默认处理函数
func defaultHandler(_, _ string) (int, []byte) {
	return http.StatusOK, []byte("hello, world")
}

// writeResponse 写出完整响应
//
// 响应头固定包含 Date 与 Content-Length；keepAlive 为 false 时
// 附加 Connection: close。写出后立即刷出缓冲。
func writeResponse(bw *bufio.Writer, status int, body []byte, keepAlive bool) error {
	text := http.StatusText(status)
	if text == "" {
		text = "Status"
	}

	fmt.Fprintf(bw, "HTTP/1.1 %d %s\r\n", status, text)
	fmt.Fprintf(bw, "Date: %s\r\n", time.Now().UTC().Format(http.TimeFormat))
	fmt.Fprintf(bw, "Content-Type: text/plain; charset=utf-8\r\n")
	fmt.Fprintf(bw, "Content-Length: %d\r\n", len(body))
	if !keepAlive {
		fmt.Fprintf(bw, "Connection: close\r\n")
	}
	fmt.Fprintf(bw, "\r\n")

	if _, err := bw.Write(body); err != nil {
		return err
	}
	return bw.Flush()
}

// errorStatus 将解析错误映射为响应状态码
//
// 超限类错误返回 431，其余格式错误返回 400；
// 超时中止不经过此路径（不产生任何响应字节）。
func errorStatus(err error) int {
	switch {
	case isLimitError(err):
		return http.StatusRequestHeaderFieldsTooLarge
	default:
		return http.StatusBadRequest
	}
}
