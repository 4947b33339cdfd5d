// Package cerberus runs each event through the classifier, the response
// selector and the ledger, and keeps the process-wide health telemetry.
package cerberus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Wikid82/chimera/backend/internal/classifier"
	"github.com/Wikid82/chimera/backend/internal/ledger"
	"github.com/Wikid82/chimera/backend/internal/logger"
	"github.com/Wikid82/chimera/backend/internal/response"
	"github.com/Wikid82/chimera/backend/internal/util"
)

// ThreatLevel is the aggregate label reported by Status.
type ThreatLevel string

const (
	ThreatNormal   ThreatLevel = "NORMAL"
	ThreatElevated ThreatLevel = "ELEVATED"
	ThreatCritical ThreatLevel = "CRITICAL"
)

const (
	StatusOK             = "ok"
	StatusBlocked        = "blocked"
	StatusThreatDetected = "threat_detected"

	MaxHealth         = 100
	MaliciousPenalty  = 10
	SuspiciousPenalty = 5
	MitigationHistory = 100
	StatusLogCount    = 10

	blockedAttackType = "BLOCKED"
	blockedDetails    = "Source previously blocked"
)

// Outcome is the answer for one processed event.
type Outcome struct {
	Status     string                 `json:"status"`
	Threat     *classifier.Assessment `json:"threat,omitempty"`
	Mitigation *response.Decision     `json:"mitigation,omitempty"`
	Redirect   string                 `json:"redirect,omitempty"`
}

// MitigationRecord is one entry of the mitigation history.
type MitigationRecord struct {
	Timestamp  time.Time         `json:"timestamp"`
	Source     string            `json:"source"`
	Mitigation response.Decision `json:"mitigation"`
}

// Status is the telemetry snapshot served by the status endpoint.
type Status struct {
	Health         int                `json:"health"`
	ThreatLevel    ThreatLevel        `json:"threat_level"`
	TotalRequests  uint64             `json:"total_requests"`
	AttacksBlocked uint64             `json:"attacks_blocked"`
	Mitigations    []MitigationRecord `json:"mitigations"`
	Logs           []ledger.Entry     `json:"logs"`
	ActiveBlocks   []string           `json:"active_blocks"`
	TrackedSources int                `json:"tracked_sources"`
}

// Event is handed to every Sink after an outcome is decided.
type Event struct {
	Time        time.Time
	Source      string
	Payload     string
	Outcome     Outcome
	Health      int
	ThreatLevel ThreatLevel
	// NewlyBlocked is set when this event put the source on the block list.
	NewlyBlocked bool
}

// Sink observes processed events. Errors are logged and never change the
// outcome.
type Sink interface {
	Observe(ctx context.Context, ev Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev Event) error

func (f SinkFunc) Observe(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Option configures a Cerberus.
type Option func(*Cerberus)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cerberus) {
		if now != nil {
			c.now = now
		}
	}
}

// WithSinks registers sinks at construction time.
func WithSinks(sinks ...Sink) Option {
	return func(c *Cerberus) {
		c.sinks = append(c.sinks, sinks...)
	}
}

// Cerberus wires the core components together. It is safe for concurrent use.
type Cerberus struct {
	classifier *classifier.Classifier
	selector   *response.Selector
	ledger     *ledger.Ledger
	now        func() time.Time

	sinkMu sync.RWMutex
	sinks  []Sink

	mu             sync.Mutex
	health         int
	threatLevel    ThreatLevel
	totalRequests  uint64
	attacksBlocked uint64
	mitigations    []MitigationRecord
}

// New creates a Cerberus instance around the given components.
func New(c *classifier.Classifier, s *response.Selector, l *ledger.Ledger, opts ...Option) *Cerberus {
	cb := &Cerberus{
		classifier:  c,
		selector:    s,
		ledger:      l,
		now:         time.Now,
		health:      MaxHealth,
		threatLevel: ThreatNormal,
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

// AddSink registers a sink after construction.
func (c *Cerberus) AddSink(s Sink) {
	c.sinkMu.Lock()
	defer c.sinkMu.Unlock()
	c.sinks = append(c.sinks, s)
}

func (c *Cerberus) Classifier() *classifier.Classifier { return c.classifier }
func (c *Cerberus) Selector() *response.Selector       { return c.selector }
func (c *Cerberus) Ledger() *ledger.Ledger             { return c.ledger }

// Process classifies one event, applies the chosen mitigation and returns the
// outcome.
func (c *Cerberus) Process(ctx context.Context, source, payload string) Outcome {
	now := c.now()

	c.mu.Lock()
	c.totalRequests++
	c.mu.Unlock()

	if c.ledger.IsBlocked(source) {
		c.ledger.RecordAttack(source, blockedAttackType, blockedDetails, now)
		out := Outcome{Status: StatusBlocked, Redirect: c.ledger.FakeEndpoint()}
		health, level := c.snapshotHealth()
		c.emit(ctx, Event{Time: now, Source: source, Payload: payload, Outcome: out, Health: health, ThreatLevel: level})
		return out
	}

	assessment := c.classifier.Analyze(payload, source, now)
	c.ledger.RecordRequest(source, payload, string(assessment.Level), now)

	ev := Event{Time: now, Source: source, Payload: payload}
	out := Outcome{Status: StatusOK, Threat: &assessment}

	switch assessment.Level {
	case classifier.LevelMalicious:
		decision := c.selector.Decide(assessment)
		out.Status = StatusThreatDetected
		out.Mitigation = &decision

		c.mu.Lock()
		c.attacksBlocked++
		c.health = max(0, c.health-MaliciousPenalty)
		c.threatLevel = ThreatCritical
		c.mitigations = append(c.mitigations, MitigationRecord{Timestamp: now, Source: source, Mitigation: decision})
		if over := len(c.mitigations) - MitigationHistory; over > 0 {
			c.mitigations = append([]MitigationRecord(nil), c.mitigations[over:]...)
		}
		c.mu.Unlock()

		if decision.Action == response.ActionBlockSource {
			ev.NewlyBlocked = !c.ledger.IsBlocked(source)
			c.ledger.Block(source)
		}
		c.ledger.RecordAttack(source, string(assessment.Category), fmt.Sprintf("%s: %s", decision.ID, decision.Reason), now)
		out.Redirect = c.ledger.FakeEndpoint()

		logger.Component("cerberus").WithFields(logrus.Fields{
			"source":      util.SanitizeForLog(source),
			"category":    assessment.Category,
			"rule":        assessment.MatchedPattern,
			"decision_id": decision.ID,
			"action":      decision.Action,
		}).Warn("Threat detected")

	case classifier.LevelSuspicious:
		decision := c.selector.Decide(assessment)
		out.Mitigation = &decision

		c.mu.Lock()
		c.health = max(0, c.health-SuspiciousPenalty)
		c.threatLevel = ThreatElevated
		c.mu.Unlock()

		logger.Component("cerberus").WithFields(logrus.Fields{
			"source":      util.SanitizeForLog(source),
			"rule":        assessment.MatchedPattern,
			"decision_id": decision.ID,
		}).Info("Suspicious event")

	default:
		c.mu.Lock()
		c.health = min(MaxHealth, c.health+1)
		c.threatLevel = ThreatNormal
		c.mu.Unlock()
	}

	ev.Outcome = out
	ev.Health, ev.ThreatLevel = c.snapshotHealth()
	c.emit(ctx, ev)
	return out
}

// Status returns a snapshot of the telemetry.
func (c *Cerberus) Status() Status {
	c.mu.Lock()
	st := Status{
		Health:         c.health,
		ThreatLevel:    c.threatLevel,
		TotalRequests:  c.totalRequests,
		AttacksBlocked: c.attacksBlocked,
		Mitigations:    append([]MitigationRecord{}, c.mitigations...),
	}
	c.mu.Unlock()

	st.Logs = c.ledger.Recent(StatusLogCount)
	st.ActiveBlocks = c.ledger.Blocked()
	if st.ActiveBlocks == nil {
		st.ActiveBlocks = []string{}
	}
	st.TrackedSources = c.classifier.Sources()
	return st
}

// Sweep drops expired rate windows and returns how many sources were removed.
func (c *Cerberus) Sweep() int {
	return c.classifier.Sweep(c.now())
}

func (c *Cerberus) snapshotHealth() (int, ThreatLevel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.health, c.threatLevel
}

func (c *Cerberus) emit(ctx context.Context, ev Event) {
	c.sinkMu.RLock()
	sinks := append([]Sink(nil), c.sinks...)
	c.sinkMu.RUnlock()

	for _, s := range sinks {
		if err := s.Observe(ctx, ev); err != nil {
			logger.Component("cerberus").WithError(err).Warn("Sink failed")
		}
	}
}
