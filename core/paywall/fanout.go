package paywall

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Mode decides how ProbeAll treats a probe that fails with something other
// than a timeout.
type Mode string

const (
	// ModeFirstError aborts the whole run on the first failure.
	ModeFirstError Mode = "first-error"
	// ModeSettled keeps going and reports failures as results.
	ModeSettled Mode = "settled"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeFirstError:
		return ModeFirstError, nil
	case ModeSettled:
		return ModeSettled, nil
	}
	return "", fmt.Errorf("unknown probe mode %q", s)
}

type FanOut struct {
	// Limit caps simultaneous probes, 0 means one goroutine per option.
	Limit int
	Mode  Mode
}

type ProbeFunc func(ctx context.Context, option BankOption) (ProbeResult, error)

// ProbeAll probes every option concurrently and returns the results in option
// order. In first-error mode the first failure cancels the remaining probes
// and is returned without results.
func ProbeAll(ctx context.Context, probe ProbeFunc, options []BankOption, fanOut FanOut) ([]ProbeResult, error) {
	results := make([]ProbeResult, len(options))

	g, gctx := errgroup.WithContext(ctx)
	if fanOut.Limit > 0 {
		g.SetLimit(fanOut.Limit)
	}

	for i, option := range options {
		i, option := i, option
		g.Go(func() error {
			result, err := probe(gctx, option)
			if err != nil {
				if fanOut.Mode != ModeSettled {
					return fmt.Errorf("probe %s: %w", option.Provider, err)
				}
				result = ProbeResult{
					Provider:       option.Provider,
					ElapsedSeconds: result.ElapsedSeconds,
					Error:          err.Error(),
				}
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
