package msg_broker

import (
	"context"

	"paywall-bench/core/payload"
	"paywall-bench/core/paywall"
)

// BenchmarkRequest asks for one benchmark run. A nil Order runs the demo order.
type BenchmarkRequest struct {
	RequestId          string                 `json:"requestId"`
	Order              *payload.Order         `json:"order,omitempty"`
	Mode               string                 `json:"mode,omitempty"`
	TracingInformation map[string]interface{} `json:"tracingInformation"`
}

type BenchmarkResponse struct {
	RequestId          string                 `json:"requestId"`
	Report             *paywall.Report        `json:"report,omitempty"`
	Error              string                 `json:"error,omitempty"`
	TracingInformation map[string]interface{} `json:"tracingInformation"`
}

// HandlerFunc handles one request. ctx carries the span of the message.
type HandlerFunc func(ctx context.Context, msg *BenchmarkRequest) error

type Client interface {
	Send(resp *BenchmarkResponse) error
	Recv(ctx context.Context, handlerFunc HandlerFunc) error
}
