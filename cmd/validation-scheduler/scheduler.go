// Package main provides the scheduled validation runner.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/reqarchitect/validation/pkg/engine"
)

// Scheduler triggers validation cycles for a fixed set of tenants on a
// cron schedule. Tenants run independently: one tenant's failed cycle
// never blocks the others.
type Scheduler struct {
	id      string
	engine  *engine.Engine
	tenants []string
	spec    string
	cron    *cron.Cron
	logger  *slog.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(id string, engine *engine.Engine, tenants []string, spec string, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		id:      id,
		engine:  engine,
		tenants: tenants,
		spec:    spec,
		cron:    cron.New(),
		logger:  logger.With("module", "scheduler"),
	}
}

// Start registers the cron entry and blocks until the context is cancelled
// or a termination signal arrives.
func (s *Scheduler) Start(ctx context.Context) error {
	sCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	_, err := s.cron.AddFunc(s.spec, func() {
		s.runAll(sCtx)
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Starting scheduler", "schedule", s.spec, "tenants", len(s.tenants))
	s.cron.Start()

	s.handleSignals(cancel)
	<-sCtx.Done()

	s.logger.Info("Shutting down scheduler")
	<-s.cron.Stop().Done()

	return nil
}

func (s *Scheduler) handleSignals(cancel context.CancelFunc) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-signals
		s.logger.Info("Received signal", "signal", sig)
		cancel()
	}()
}

func (s *Scheduler) runAll(ctx context.Context) {
	for _, tenantID := range s.tenants {
		if ctx.Err() != nil {
			return
		}

		cycle, err := s.engine.Run(ctx, engine.RunRequest{
			TenantID:    tenantID,
			TriggeredBy: s.id,
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "Scheduled validation run failed", "tenant_id", tenantID, "error", err)

			continue
		}

		s.logger.InfoContext(ctx, "Scheduled validation run finished",
			"tenant_id", tenantID,
			"cycle_id", cycle.ID,
			"status", cycle.ExecutionStatus,
			"total_issues", cycle.TotalIssuesFound)
	}
}
