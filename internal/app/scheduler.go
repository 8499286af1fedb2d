/**
 * @description
 * Cron scheduler for the nightly close job. At the configured schedule it runs
 * DailyClose for every employee on the configured roster, which warms the
 * summary cache for the day and publishes the close events.
 */

package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler manages the daily close cron job.
type Scheduler struct {
	cron      *cron.Cron
	service   *Service
	logger    *slog.Logger
	schedule  string
	employees []string
}

// NewScheduler creates a scheduler that closes the day for the given employees.
func NewScheduler(service *Service, logger *slog.Logger, schedule string, employees []string) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)), cron.WithLocation(service.Location()))

	return &Scheduler{
		cron:      c,
		service:   service,
		logger:    logger,
		schedule:  schedule,
		employees: employees,
	}
}

// Start registers the daily close job and starts the cron scheduler.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.schedule, s.runDailyClose); err != nil {
		s.logger.Error("failed to schedule daily close job", "error", err)
		return
	}
	s.logger.Info("scheduled daily close job", "schedule", s.schedule, "employees", len(s.employees))
	s.cron.Start()
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runDailyClose() {
	s.logger.Info("starting daily close job")
	ctx := context.Background()
	today := time.Now().In(s.service.Location())

	for _, employeeID := range s.employees {
		summary, err := s.service.DailyClose(ctx, employeeID, today)
		if err != nil {
			s.logger.Error("daily close failed", "employee", employeeID, "error", err)
			continue
		}
		s.logger.Info("daily close finished",
			"employee", employeeID,
			"date", today.Format("2006-01-02"),
			"collected", summary.Total.Collected.String(),
			"partial", summary.Partial)
	}

	s.logger.Info("daily close job finished")
}
