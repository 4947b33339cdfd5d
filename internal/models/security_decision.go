package models

import (
	"time"
)

// SecurityDecision stores a mitigation decision so it can be audited and
// surfaced through the decisions endpoint.
type SecurityDecision struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UUID       string    `json:"uuid" gorm:"uniqueIndex"`
	DecisionID string    `json:"decision_id" gorm:"index"` // MUT-0001 ...
	Source     string    `json:"source" gorm:"index"`      // source identifier the decision applies to
	Action     string    `json:"action"`                   // block_source, rate_limit, monitor, alert
	Category   string    `json:"category"`
	Level      string    `json:"level"`
	RuleID     string    `json:"rule_id"`
	PatchKind  string    `json:"patch_kind"`
	Reason     string    `json:"reason"`
	Insight    string    `json:"insight"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"created_at" gorm:"index"`
}
