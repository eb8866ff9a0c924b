package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/rentscore/rent-service/internal/config"
	"github.com/rentscore/rent-service/internal/service"
)

// Scheduler runs the periodic jobs: the missed-payment sweep and the
// upcoming-due reminders.
type Scheduler struct {
	cron *cron.Cron
	svc  *service.Service
	log  *logrus.Logger
}

// New wires the jobs onto a cron instance without starting it.
func New(svc *service.Service, cfg *config.Config, log *logrus.Logger) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{cron: c, svc: svc, log: log}

	if _, err := c.AddFunc(cfg.SweepSchedule, s.sweep); err != nil {
		return nil, err
	}
	// Reminders once a day, early morning.
	if _, err := c.AddFunc("0 7 * * *", s.remind); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins running jobs in their own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Scheduler started")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("Scheduler stopped")
}

func (s *Scheduler) sweep() {
	if err := s.svc.SweepMissed(context.Background()); err != nil {
		s.log.Errorf("Missed-payment sweep failed: %v", err)
	}
}

func (s *Scheduler) remind() {
	if err := s.svc.RemindUpcoming(context.Background()); err != nil {
		s.log.Errorf("Payment reminders failed: %v", err)
	}
}
