// Package response maps threat assessments to mitigation decisions.
package response

import (
	"fmt"
	"sync/atomic"

	"github.com/Wikid82/chimera/backend/internal/classifier"
	"github.com/Wikid82/chimera/backend/internal/util"
)

// Action is the mitigation applied for a decision.
type Action string

const (
	ActionBlockSource Action = "block_source"
	ActionRateLimit   Action = "rate_limit"
	ActionMonitor     Action = "monitor"
	ActionAlert       Action = "alert"
)

// Patch describes the remediation that goes with a decision.
type Patch struct {
	Kind               string `json:"kind"`
	RuleID             string `json:"rule_id"`
	ImplementationNote string `json:"implementation_note,omitempty"`
}

// Decision is the mitigation chosen for one assessment.
type Decision struct {
	ID         string              `json:"decision_id"`
	Action     Action              `json:"action"`
	Reason     string              `json:"reason"`
	Confidence float64             `json:"confidence"`
	Patch      Patch               `json:"patch"`
	Insight    string              `json:"insight"`
	Category   classifier.Category `json:"category"`
}

type policy struct {
	action   Action
	reason   string
	patch    Patch
	insights []string
}

var policies = map[classifier.Category]policy{
	classifier.CategorySQLInjection: {
		action: ActionBlockSource,
		reason: "SQL injection pattern detected - blocking source",
		patch: Patch{
			Kind:               "input_validation",
			RuleID:             "sanitize_sql_input",
			ImplementationNote: "Add parameterized queries",
		},
		insights: []string{
			"Pattern matches known SQLi attack vectors",
			"Attacker attempting database enumeration",
			"Recommend immediate source blocking and input sanitization",
		},
	},
	classifier.CategoryDDoSAttempt: {
		action: ActionRateLimit,
		reason: "Excessive requests detected - applying rate limiting",
		patch: Patch{
			Kind:               "rate_limiter",
			RuleID:             "max_10_requests_per_10_seconds",
			ImplementationNote: "Token bucket algorithm",
		},
		insights: []string{
			"Traffic pattern indicates automated bot",
			"Request rate exceeds normal user behavior by 400%",
			"Recommend adaptive rate limiting",
		},
	},
	classifier.CategorySuspiciousPattern: {
		action: ActionMonitor,
		reason: "Suspicious pattern detected - enhanced monitoring",
		patch: Patch{
			Kind:               "logging",
			RuleID:             "log_all_requests_from_source",
			ImplementationNote: "Increase logging verbosity",
		},
		insights: []string{
			"Payload contains potentially malicious code",
			"Pattern similarity to known exploit attempts: 78%",
			"Recommend enhanced monitoring",
		},
	},
}

var fallback = policy{
	action:   ActionAlert,
	reason:   "Unknown threat pattern",
	patch:    Patch{Kind: "generic", RuleID: "investigate"},
	insights: []string{"Unknown threat pattern detected"},
}

// Selector issues decisions. It is safe for concurrent use.
type Selector struct {
	picker util.Picker
	count  atomic.Uint64
}

// NewSelector returns a Selector that draws insights with picker. A nil
// picker uses the runtime random source.
func NewSelector(picker util.Picker) *Selector {
	if picker == nil {
		picker = util.NewRandomPicker()
	}
	return &Selector{picker: picker}
}

// Decide returns the decision for a. Callers are expected to gate on
// a.IsThreat(); any category without a policy gets an alert.
func (s *Selector) Decide(a classifier.Assessment) Decision {
	p, ok := policies[a.Category]
	if !ok {
		p = fallback
	}

	n := s.count.Add(1)
	return Decision{
		ID:         FormatID(n),
		Action:     p.action,
		Reason:     p.reason,
		Confidence: a.Confidence,
		Patch:      p.patch,
		Insight:    util.Pick(s.picker, p.insights),
		Category:   a.Category,
	}
}

// Count returns how many decisions have been issued.
func (s *Selector) Count() uint64 {
	return s.count.Load()
}

// FormatID renders a decision sequence number. Numbers past 9999 widen
// rather than wrap.
func FormatID(n uint64) string {
	return fmt.Sprintf("MUT-%04d", n)
}

// Insights returns the insight pool for category.
func Insights(category classifier.Category) []string {
	p, ok := policies[category]
	if !ok {
		p = fallback
	}
	return append([]string(nil), p.insights...)
}
