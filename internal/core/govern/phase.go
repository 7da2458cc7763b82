package govern

// Phase 连接在请求生命周期中的阶段
//
// 阶段决定空闲超时当前是否允许触发。
type Phase uint8

const (
	// PhaseAwaitingRequest 等待下一个请求
	//
	// 新请求尚未消费任何字节，或上一个响应已完全刷出、
	// 连接空闲等待下一个请求。空闲超时在此阶段生效。
	PhaseAwaitingRequest Phase = iota

	// PhaseReadingBody 正在读取请求体
	//
	// 请求头已解析完毕，服务器正在消费请求体
	// （Content-Length 或 chunked 分帧）。
	// 此阶段豁免空闲超时：Keep-Alive 计时器只约束
	// 请求之间的间隔，不约束传输中的请求体。
	PhaseReadingBody

	// PhaseDraining 响应已写出，即将回到 PhaseAwaitingRequest
	//
	// 超时语义与 PhaseAwaitingRequest 完全相同。
	PhaseDraining
)

// String 返回阶段名称
func (p Phase) String() string {
	switch p {
	case PhaseAwaitingRequest:
		return "awaiting_request"
	case PhaseReadingBody:
		return "reading_body"
	case PhaseDraining:
		return "draining"
	default:
		return "unknown"
	}
}

// TimeoutEligible 返回该阶段是否允许空闲超时触发
func (p Phase) TimeoutEligible() bool {
	return p != PhaseReadingBody
}
