// Package server 实现最小化的 HTTP/1.1 服务端引擎
//
// 职责边界：
//   - 监听与接入（含接入速率限制）
//   - 每连接一个处理协程：解析请求行/请求头、消费请求体、写响应
//   - 执行每连接资源限制（请求行/请求头/缓冲区上限）
//   - 向 govern 包上报活动与阶段转换，接收超时中止指令
//
// 超时治理本身不在本包：服务端只负责在 I/O 路径上如实上报，
// 并在收到中止指令时由连接自己的协程关闭传输（单写者约束）。
// 超时关闭不产生任何 HTTP 响应字节；限制违规则返回 431/400 后关闭。
package server
