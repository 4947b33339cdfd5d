// Package classifier assigns a threat level to (source, payload) events using
// ordered payload signatures followed by a per-source sliding rate window.
package classifier

import (
	"sync"
	"time"
)

const (
	DefaultWindow    = 10 * time.Second
	DefaultThreshold = 20
)

// Option configures a Classifier.
type Option func(*Classifier)

// WithWindow sets the trailing interval used for rate assessment.
func WithWindow(d time.Duration) Option {
	return func(c *Classifier) {
		if d > 0 {
			c.window = d
		}
	}
}

// WithThreshold sets how many in-window events a source may send before the
// next one is treated as a DDoS attempt.
func WithThreshold(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.threshold = n
		}
	}
}

// WithRules replaces the built-in signature tables. rs must come from
// DefaultRules, NewRuleSet or LoadRules; uncompiled rules never match.
func WithRules(rs RuleSet) Option {
	return func(c *Classifier) {
		c.rules = rs
	}
}

// Classifier is safe for concurrent use.
type Classifier struct {
	rules     RuleSet
	window    time.Duration
	threshold int

	mu      sync.Mutex
	history map[string][]time.Time
}

// New returns a Classifier with the built-in rules and a 10s/20 event window
// unless overridden by opts.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		rules:     DefaultRules(),
		window:    DefaultWindow,
		threshold: DefaultThreshold,
		history:   make(map[string][]time.Time),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Rules returns the signature tables in use.
func (c *Classifier) Rules() RuleSet {
	return c.rules
}

// Analyze classifies payload from source at time now. Signature checks run
// first; only events that match no signature are counted against the
// source's rate window.
func (c *Classifier) Analyze(payload, source string, now time.Time) Assessment {
	if r, ok := firstMatch(c.rules.SQLInjection, payload); ok {
		return Assessment{
			Level:          LevelMalicious,
			Category:       CategorySQLInjection,
			MatchedPattern: r.ID,
			Confidence:     ConfidenceSQLInjection,
		}
	}

	if r, ok := firstMatch(c.rules.Suspicious, payload); ok {
		return Assessment{
			Level:          LevelSuspicious,
			Category:       CategorySuspiciousPattern,
			MatchedPattern: r.ID,
			Confidence:     ConfidenceSuspicious,
		}
	}

	if c.record(source, now) > c.threshold {
		return Assessment{
			Level:          LevelMalicious,
			Category:       CategoryDDoSAttempt,
			MatchedPattern: RateLimitPattern,
			Confidence:     ConfidenceDDoS,
		}
	}

	return Assessment{
		Level:      LevelNormal,
		Category:   CategoryClean,
		Confidence: ConfidenceClean,
	}
}

// record appends now to the source window, prunes it and returns the
// retained count.
func (c *Classifier) record(source string, now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	recent := c.prune(append(c.history[source], now), now)
	c.history[source] = recent
	return len(recent)
}

// prune keeps timestamps strictly younger than the window, reusing ts.
func (c *Classifier) prune(ts []time.Time, now time.Time) []time.Time {
	kept := ts[:0]
	for _, t := range ts {
		if now.Sub(t) < c.window {
			kept = append(kept, t)
		}
	}
	return kept
}

// Sweep forgets sources whose windows are empty at now and returns how many
// were dropped.
func (c *Classifier) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for source, ts := range c.history {
		recent := c.prune(ts, now)
		if len(recent) == 0 {
			delete(c.history, source)
			dropped++
			continue
		}
		c.history[source] = recent
	}
	return dropped
}

// Sources returns the number of sources with a tracked window.
func (c *Classifier) Sources() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.history)
}

// WindowSize returns the retained event count for source as of now without
// recording a new event.
func (c *Classifier) WindowSize(source string, now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts, ok := c.history[source]
	if !ok {
		return 0
	}
	recent := c.prune(ts, now)
	c.history[source] = recent
	return len(recent)
}
