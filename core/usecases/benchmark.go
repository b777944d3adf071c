package usecases

import (
	"context"
	"fmt"
	"log"
	"time"

	"paywall-bench/core/constants"
	"paywall-bench/core/payload"
	"paywall-bench/core/paywall"

	"github.com/google/uuid"
)

type Benchmark struct {
	signer *payload.Signer
	client paywall.Client
	fanOut paywall.FanOut
	now    func() time.Time
}

func NewBenchmark(signer *payload.Signer, client paywall.Client, fanOut paywall.FanOut) *Benchmark {
	return &Benchmark{
		signer: signer,
		client: client,
		fanOut: fanOut,
		now:    time.Now,
	}
}

func (b *Benchmark) Now() time.Time {
	return b.now()
}

// Sign returns the payload a run would submit. Nil overrides use the demo order.
func (b *Benchmark) Sign(overrides payload.Payload) (payload.Payload, error) {
	if overrides == nil {
		overrides = payload.DemoOverrides(b.now())
	}
	return b.signer.Build(overrides)
}

func (b *Benchmark) Run(ctx context.Context, overrides payload.Payload) (*paywall.Report, error) {
	return b.RunWithMode(ctx, overrides, "")
}

// RunWithMode runs the whole pipeline: sign, open the wall, parse the bank
// options and probe all of them. An empty mode falls back to the configured
// one, and to first-error when none is configured.
func (b *Benchmark) RunWithMode(ctx context.Context, overrides payload.Payload, mode paywall.Mode) (*paywall.Report, error) {
	if mode == "" {
		mode = b.fanOut.Mode
	}
	if mode == "" {
		mode = paywall.ModeFirstError
	}
	report := &paywall.Report{
		RunID:     uuid.NewString(),
		StartedAt: b.now().UTC(),
		Mode:      mode,
	}

	signed, err := b.Sign(overrides)
	if err != nil {
		return nil, fmt.Errorf("cannot sign payload: %w", err)
	}

	wall, err := b.client.Open(ctx, signed)
	if err != nil {
		return nil, fmt.Errorf("cannot open payment wall: %w", err)
	}
	if wall.Status < 200 || wall.Status > 299 {
		return nil, fmt.Errorf("%w: %d", paywall.ErrWallStatus, wall.Status)
	}

	options, err := paywall.ParseBankOptions(wall.Body)
	if err != nil {
		return nil, err
	}
	log.Printf("Run %s: payment wall offered %d bank options in %.3fs", report.RunID, len(options), wall.ElapsedSeconds)

	fanOut := b.fanOut
	fanOut.Mode = mode
	probes, err := paywall.ProbeAll(ctx, b.client.Probe, options, fanOut)
	if err != nil {
		return nil, err
	}

	report.Results = make([]paywall.ProbeResult, 0, len(probes)+1)
	report.Results = append(report.Results, paywall.ProbeResult{
		Status:         wall.Status,
		Provider:       constants.PAYWALL_PROVIDER,
		ElapsedSeconds: wall.ElapsedSeconds,
	})
	report.Results = append(report.Results, probes...)
	return report, nil
}
