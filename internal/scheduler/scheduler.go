// Package scheduler runs the periodic housekeeping jobs.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/Wikid82/chimera/backend/internal/cerberus"
	"github.com/Wikid82/chimera/backend/internal/config"
	"github.com/Wikid82/chimera/backend/internal/logger"
)

// Engine is the part of the pipeline the jobs touch.
type Engine interface {
	Sweep() int
	Status() cerberus.Status
}

type Scheduler struct {
	Cron   *cron.Cron
	engine Engine
}

// New registers the sweep and status jobs. An empty spec disables a job; an
// invalid spec is an error.
func New(engine Engine, cfg config.ScheduleConfig) (*Scheduler, error) {
	s := &Scheduler{
		Cron:   cron.New(cron.WithChain(cron.Recover(cronLogger{}))),
		engine: engine,
	}
	if cfg.Sweep != "" {
		if _, err := s.Cron.AddFunc(cfg.Sweep, s.SweepWindows); err != nil {
			return nil, fmt.Errorf("invalid sweep schedule %q: %w", cfg.Sweep, err)
		}
	}
	if cfg.Status != "" {
		if _, err := s.Cron.AddFunc(cfg.Status, s.LogStatus); err != nil {
			return nil, fmt.Errorf("invalid status schedule %q: %w", cfg.Status, err)
		}
	}
	return s, nil
}

// Start runs the jobs in the background.
func (s *Scheduler) Start() {
	s.Cron.Start()
}

// Stop prevents new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.Cron.Stop().Done():
	case <-ctx.Done():
	}
}

// SweepWindows drops rate windows with no recent events.
func (s *Scheduler) SweepWindows() {
	if n := s.engine.Sweep(); n > 0 {
		logger.Component("scheduler").WithField("sources", n).Debug("swept idle rate windows")
	}
}

// LogStatus writes a telemetry snapshot to the log.
func (s *Scheduler) LogStatus() {
	st := s.engine.Status()
	logger.Component("scheduler").WithFields(logrus.Fields{
		"health":          st.Health,
		"threat_level":    st.ThreatLevel,
		"total_requests":  st.TotalRequests,
		"attacks_blocked": st.AttacksBlocked,
		"active_blocks":   len(st.ActiveBlocks),
		"tracked_sources": st.TrackedSources,
	}).Info("status snapshot")
}

// cronLogger routes cron's own messages through logrus.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Component("cron").WithFields(fields(keysAndValues)).Debug(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Component("cron").WithFields(fields(keysAndValues)).WithError(err).Error(msg)
}

func fields(kv []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}
