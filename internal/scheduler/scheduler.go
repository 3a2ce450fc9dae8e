package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/avelin/cashflow-service/internal/config"
	"github.com/avelin/cashflow-service/internal/repository"
	"github.com/avelin/cashflow-service/internal/service"
	"github.com/avelin/cashflow-service/internal/utils/email"
)

// Scheduler runs the daily low-balance warning job
type Scheduler struct {
	cron   *cron.Cron
	repo   *repository.Repository
	svc    *service.Service
	sender *email.Sender
	cfg    *config.Config
	log    *logrus.Logger
}

// NewScheduler initializes the cron scheduler
func NewScheduler(repo *repository.Repository, svc *service.Service, sender *email.Sender, cfg *config.Config, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		repo:   repo,
		svc:    svc,
		sender: sender,
		cfg:    cfg,
		log:    log,
	}
}

// Start registers the warning job and starts the cron loop
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.WarningCronSpec, s.runWarningJob); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Infof("Warning scheduler started with spec %q", s.cfg.WarningCronSpec)
	return nil
}

// Stop halts the cron loop, waiting for a running job to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// runWarningJob projects every opted-in user's balances and emails a digest
// of upcoming below-threshold days
func (s *Scheduler) runWarningJob() {
	users, err := s.repo.ListUsers()
	if err != nil {
		s.log.Errorf("Warning job failed to list users: %v", err)
		return
	}

	now := time.Now()
	for _, user := range users {
		settings, err := s.svc.SettingsForUser(user.ID)
		if err != nil {
			s.log.Errorf("Warning job failed to load settings for user %d: %v", user.ID, err)
			continue
		}
		if !settings.NotifyEmail {
			continue
		}

		result, err := s.svc.ProjectForUser(user.ID, 0, now)
		if err != nil {
			s.log.Errorf("Warning job failed to project for user %d: %v", user.ID, err)
			continue
		}
		if len(result.Warnings) == 0 {
			continue
		}
		if err := s.sender.SendLowBalanceWarnings(user.Email, user.Username, result.Warnings); err != nil {
			s.log.Errorf("Warning job failed to notify user %d: %v", user.ID, err)
		}
	}
	s.log.Infof("Warning job finished for %d users", len(users))
}
