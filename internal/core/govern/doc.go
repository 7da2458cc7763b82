// Package govern 实现连接生命周期治理
//
// 治理器是 HTTP/1.1 服务器中强制 Keep-Alive 空闲超时的子系统：
//
//   - ConnState: 每连接的 (最后活动时间, 阶段) 记录，
//     由连接自己的 I/O 路径写入，由心跳扫描读取。
//   - Supervisor: 跟踪全部打开连接，批量评估空闲超时，
//     对过期连接下发中止指令。
//   - Heartbeat: 进程级周期触发器，驱动 Supervisor 的扫描节奏。
//
// 超时仅约束两次请求之间（含首个请求之前）的空闲时间；
// 请求体传输期间（PhaseReadingBody）明确豁免。
//
// 超时过期不是应用错误：连接被拆除、资源释放、计数上报，
// 对端只观察到连接关闭，永远不会收到 HTTP 层的错误响应。
package govern
