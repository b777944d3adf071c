package paywall

import (
	"context"
	"errors"
	"net/http"
	"time"

	"paywall-bench/core/payload"
)

// StatusTimeout is reported for a probe that did not answer in time.
const StatusTimeout = http.StatusRequestTimeout

var (
	ErrUnexpectedShape = errors.New("unexpected payment wall response shape")
	ErrWallStatus      = errors.New("payment wall answered with an error status")
)

// BankOption is one redirect target offered by the payment wall.
type BankOption struct {
	Provider   string            `json:"provider"`
	URL        string            `json:"url"`
	Fields     map[string]string `json:"fields"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// ProbeResult is the outcome of one timed request. Error is only set when
// probes run in settled mode.
type ProbeResult struct {
	Status         int     `json:"status"`
	Provider       string  `json:"provider"`
	ElapsedSeconds float64 `json:"elapsedSeconds"`
	Error          string  `json:"error,omitempty"`
}

// Report is the outcome of one benchmark run. The payment wall call comes
// first, followed by one result per bank option.
type Report struct {
	RunID     string        `json:"runId"`
	StartedAt time.Time     `json:"startedAt"`
	Mode      Mode          `json:"mode"`
	Results   []ProbeResult `json:"results"`
}

// WallResponse is the raw answer of the payment wall to the signed payload.
type WallResponse struct {
	Status         int
	Body           []byte
	ElapsedSeconds float64
}

type Client interface {
	// Open posts the signed payload to the payment wall.
	Open(ctx context.Context, p payload.Payload) (*WallResponse, error)
	// Probe posts the option's fields to its URL. Timeouts are reported as
	// StatusTimeout, never as an error.
	Probe(ctx context.Context, option BankOption) (ProbeResult, error)
}
