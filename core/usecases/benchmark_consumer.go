package usecases

import (
	"context"
	"errors"
	"fmt"
	"log"

	"paywall-bench/core/msg_broker"
	"paywall-bench/core/payload"
	"paywall-bench/core/paywall"
)

// BenchmarkReqConsumer runs a benchmark for every request read from the broker
// and publishes the report, or the failure, as the response.
func BenchmarkReqConsumer(ctx context.Context, client msg_broker.Client, bench *Benchmark) error {
	return client.Recv(ctx, func(ctx context.Context, msg *msg_broker.BenchmarkRequest) error {
		resp := &msg_broker.BenchmarkResponse{
			RequestId:          msg.RequestId,
			TracingInformation: msg.TracingInformation,
		}

		var mode paywall.Mode
		if msg.Mode != "" {
			var err error
			if mode, err = paywall.ParseMode(msg.Mode); err != nil {
				resp.Error = err.Error()
				return client.Send(resp)
			}
		}

		var overrides payload.Payload
		if msg.Order != nil {
			if err := msg.Order.Validate(); err != nil {
				resp.Error = err.Error()
				return client.Send(resp)
			}
			overrides = msg.Order.Overrides(bench.now())
		}

		report, err := bench.RunWithMode(ctx, overrides, mode)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			log.Printf("Benchmark request %s failed: %v", msg.RequestId, err)
			resp.Error = err.Error()
		} else {
			resp.Report = report
		}

		if err := client.Send(resp); err != nil {
			return fmt.Errorf("cannot publish benchmark response %s: %w", msg.RequestId, err)
		}
		return nil
	})
}
