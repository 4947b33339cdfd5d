// Package simulator generates synthetic attack traffic against the engine,
// either in process or over HTTP.
package simulator

import (
	"context"
	"fmt"
	"time"

	"github.com/Wikid82/chimera/backend/internal/cerberus"
	"github.com/Wikid82/chimera/backend/internal/logger"
	"github.com/Wikid82/chimera/backend/internal/util"
)

// Kind names a traffic pattern.
type Kind string

const (
	KindSQLInjection Kind = "sql_injection"
	KindDDoS         Kind = "ddos"
	KindMixed        Kind = "mixed"
)

const (
	ddosRequests  = 25
	mixedSQLTake  = 2
	mixedDDoSTake = 10
	DefaultPause  = 500 * time.Millisecond
)

var sqlInjectionPayloads = []string{
	"' OR '1'='1",
	"admin'--",
	"1' UNION SELECT * FROM users--",
	"'; DROP TABLE users--",
	"1=1",
}

// Kinds lists the supported patterns.
func Kinds() []Kind {
	return []Kind{KindSQLInjection, KindDDoS, KindMixed}
}

// Sender delivers one event and returns the engine's answer.
type Sender interface {
	Send(ctx context.Context, source, payload string) (cerberus.Outcome, error)
}

// Result is what one simulated event produced. Exactly one of Response and
// Error is set.
type Result struct {
	Source   string            `json:"ip"`
	Payload  string            `json:"payload"`
	Response *cerberus.Outcome `json:"response,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithPicker makes source selection deterministic.
func WithPicker(p util.Picker) Option {
	return func(s *Simulator) {
		if p != nil {
			s.picker = p
		}
	}
}

// WithPause sets the gap between the two halves of a mixed run.
func WithPause(d time.Duration) Option {
	return func(s *Simulator) {
		if d >= 0 {
			s.pause = d
		}
	}
}

// Simulator drives a Sender with canned attack patterns.
type Simulator struct {
	sender  Sender
	picker  util.Picker
	sources []string
	pause   time.Duration
}

// New returns a Simulator sending through sender.
func New(sender Sender, opts ...Option) *Simulator {
	s := &Simulator{
		sender: sender,
		picker: util.NewRandomPicker(),
		pause:  DefaultPause,
	}
	for i := 100; i < 110; i++ {
		s.sources = append(s.sources, fmt.Sprintf("192.168.1.%d", i))
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the named pattern. Unknown kinds produce no traffic.
func (s *Simulator) Run(ctx context.Context, kind Kind) []Result {
	var results []Result
	switch kind {
	case KindSQLInjection:
		results = s.SQLInjection(ctx)
	case KindDDoS:
		results = s.DDoS(ctx)
	case KindMixed:
		results = s.Mixed(ctx)
	default:
		logger.Component("simulator").WithField("kind", util.SanitizeForLog(string(kind))).Warn("unknown simulation kind")
		return []Result{}
	}
	logger.Component("simulator").WithField("kind", kind).WithField("count", len(results)).Info("simulation finished")
	return results
}

// SQLInjection sends each canned injection payload from a random source.
func (s *Simulator) SQLInjection(ctx context.Context) []Result {
	results := make([]Result, 0, len(sqlInjectionPayloads))
	for _, p := range sqlInjectionPayloads {
		if ctx.Err() != nil {
			break
		}
		results = append(results, s.send(ctx, util.Pick(s.picker, s.sources), p))
	}
	return results
}

// DDoS floods the engine from a single random source.
func (s *Simulator) DDoS(ctx context.Context) []Result {
	source := util.Pick(s.picker, s.sources)
	results := make([]Result, 0, ddosRequests)
	for i := 0; i < ddosRequests; i++ {
		if ctx.Err() != nil {
			break
		}
		results = append(results, s.send(ctx, source, fmt.Sprintf("request_%d", i)))
	}
	return results
}

// Mixed runs an injection burst, pauses, then a flood, keeping the head of
// each.
func (s *Simulator) Mixed(ctx context.Context) []Result {
	results := head(s.SQLInjection(ctx), mixedSQLTake)

	timer := time.NewTimer(s.pause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return results
	case <-timer.C:
	}

	return append(results, head(s.DDoS(ctx), mixedDDoSTake)...)
}

func (s *Simulator) send(ctx context.Context, source, payload string) Result {
	res := Result{Source: source, Payload: payload}
	out, err := s.sender.Send(ctx, source, payload)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Response = &out
	return res
}

func head(r []Result, n int) []Result {
	if len(r) > n {
		return r[:n]
	}
	return r
}
