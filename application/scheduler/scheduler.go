package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"paywall-bench/core/paywall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"
)

var scheduledRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "scheduled_benchmark_runs_total",
	Help: "Benchmark runs started by the scheduler, by outcome",
}, []string{"outcome"})

type RunFunc func(ctx context.Context) (*paywall.Report, error)

// Scheduler runs a benchmark on a cron schedule and keeps the latest report.
// A run still in progress when the next one is due makes that one skip.
type Scheduler struct {
	cron *cron.Cron
	run  RunFunc
	ctx  context.Context

	mu     sync.RWMutex
	latest *paywall.Report
}

func New(ctx context.Context, spec string, run RunFunc) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		run: run,
		ctx: ctx,
	}
	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return nil, fmt.Errorf("invalid benchmark schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("Benchmark scheduler started")
}

// Stop waits for a running benchmark to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("Benchmark scheduler stopped")
}

// Latest returns the report of the last successful run, nil before the first.
func (s *Scheduler) Latest() *paywall.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func (s *Scheduler) runOnce() {
	report, err := s.run(s.ctx)
	if err != nil {
		scheduledRuns.WithLabelValues("error").Inc()
		log.Printf("Scheduled benchmark failed: %v", err)
		return
	}
	scheduledRuns.WithLabelValues("ok").Inc()
	log.Printf("Scheduled benchmark %s finished with %d results", report.RunID, len(report.Results))

	s.mu.Lock()
	s.latest = report
	s.mu.Unlock()
}
