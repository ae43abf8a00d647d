// Package jobs runs the periodic maintenance tasks: the lottery sweep that
// resolves tickets whose in-process timer was lost to a restart, and the
// daily payment-reminder emails.
package jobs

import (
	"context"

	"github.com/curtWhite/finance-game-server/internal/service"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler owns the cron instance and its registered jobs.
type Scheduler struct {
	cron *cron.Cron
	svc  *service.Service
	log  *logrus.Logger
}

// NewScheduler registers the standing jobs. Start must be called to run them.
func NewScheduler(svc *service.Service, log *logrus.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(),
		svc:  svc,
		log:  log,
	}

	if _, err := s.cron.AddFunc("@every 1m", func() {
		if err := s.svc.SweepDueLottoTickets(); err != nil {
			s.log.Errorf("Lotto sweep failed: %v", err)
		}
	}); err != nil {
		return nil, err
	}

	// Reminders go out once a day, early morning server time.
	if _, err := s.cron.AddFunc("0 7 * * *", func() {
		if err := s.svc.SendPaymentReminders(); err != nil {
			s.log.Errorf("Payment reminder sweep failed: %v", err)
		}
	}); err != nil {
		return nil, err
	}

	return s, nil
}

// Start launches the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Job scheduler started")
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
