package services

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CronManager runs the periodic background jobs.
type CronManager struct {
	cron *cron.Cron
	log  *logrus.Logger
}

func NewCronManager(log *logrus.Logger) *CronManager {
	return &CronManager{
		cron: cron.New(),
		log:  log,
	}
}

// Register adds a job under a standard cron spec or a descriptor such as
// "@every 30m". An empty schedule disables the job.
func (m *CronManager) Register(name, schedule string, job func()) error {
	if schedule == "" {
		m.log.WithField("job", name).Info("cron job disabled")
		return nil
	}
	_, err := m.cron.AddFunc(schedule, func() {
		m.log.WithField("job", name).Debug("cron job starting")
		job()
	})
	if err != nil {
		return fmt.Errorf("register cron job %s (%q): %w", name, schedule, err)
	}
	m.log.WithFields(logrus.Fields{"job": name, "schedule": schedule}).Info("cron job registered")
	return nil
}

func (m *CronManager) Start() {
	m.cron.Start()
	m.log.Println("✅ Cron jobs started")
}

// Stop waits for running jobs to finish.
func (m *CronManager) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.log.Println("Cron jobs stopped")
}
