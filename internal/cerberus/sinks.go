package cerberus

import (
	"context"

	"github.com/Wikid82/chimera/backend/internal/metrics"
	"github.com/Wikid82/chimera/backend/internal/models"
	"github.com/Wikid82/chimera/backend/internal/services"
)

// MetricsSink feeds the Prometheus collectors.
func MetricsSink() Sink {
	return SinkFunc(func(_ context.Context, ev Event) error {
		metrics.SetHealth(ev.Health)
		if ev.Outcome.Status == StatusBlocked {
			metrics.IncBlockedRequest()
			return nil
		}
		if t := ev.Outcome.Threat; t != nil {
			metrics.IncEvent(string(t.Level))
			if t.IsThreat() {
				metrics.IncThreat(string(t.Category))
			}
		}
		if m := ev.Outcome.Mitigation; m != nil {
			metrics.IncMitigation(string(m.Action))
		}
		return nil
	})
}

// AuditSink stores every decision in the audit trail.
func AuditSink(svc *services.AuditService) Sink {
	return SinkFunc(func(_ context.Context, ev Event) error {
		m := ev.Outcome.Mitigation
		if m == nil {
			return nil
		}
		row := &models.SecurityDecision{
			DecisionID: m.ID,
			Source:     ev.Source,
			Action:     string(m.Action),
			Category:   string(m.Category),
			RuleID:     m.Patch.RuleID,
			PatchKind:  m.Patch.Kind,
			Reason:     m.Reason,
			Insight:    m.Insight,
			Confidence: m.Confidence,
			CreatedAt:  ev.Time,
		}
		if t := ev.Outcome.Threat; t != nil {
			row.Level = string(t.Level)
		}
		return svc.LogDecision(row)
	})
}

// NotifySink alerts external channels when a source is blocked for the first
// time.
func NotifySink(svc *services.NotificationService) Sink {
	return SinkFunc(func(_ context.Context, ev Event) error {
		if !ev.NewlyBlocked || ev.Outcome.Mitigation == nil {
			return nil
		}
		m := ev.Outcome.Mitigation
		svc.NotifyBlocked(ev.Source, m.ID, string(m.Category), m.Reason)
		return nil
	})
}
