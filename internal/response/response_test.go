package response

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wikid82/chimera/backend/internal/classifier"
	"github.com/Wikid82/chimera/backend/internal/util"
)

func TestDecide_PolicyTable(t *testing.T) {
	tests := []struct {
		category classifier.Category
		action   Action
		kind     string
		ruleID   string
	}{
		{classifier.CategorySQLInjection, ActionBlockSource, "input_validation", "sanitize_sql_input"},
		{classifier.CategoryDDoSAttempt, ActionRateLimit, "rate_limiter", "max_10_requests_per_10_seconds"},
		{classifier.CategorySuspiciousPattern, ActionMonitor, "logging", "log_all_requests_from_source"},
		{classifier.Category("PHISHING"), ActionAlert, "generic", "investigate"},
		{classifier.CategoryClean, ActionAlert, "generic", "investigate"},
	}

	s := NewSelector(util.NewSeededPicker(1))
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			d := s.Decide(classifier.Assessment{Category: tt.category, Confidence: 0.42})
			assert.Equal(t, tt.action, d.Action)
			assert.Equal(t, tt.kind, d.Patch.Kind)
			assert.Equal(t, tt.ruleID, d.Patch.RuleID)
			assert.Equal(t, 0.42, d.Confidence)
			assert.NotEmpty(t, d.Reason)
			assert.Contains(t, Insights(tt.category), d.Insight)
		})
	}
}

func TestDecide_IDsIncrease(t *testing.T) {
	s := NewSelector(nil)
	a := classifier.Assessment{Level: classifier.LevelMalicious, Category: classifier.CategorySQLInjection, Confidence: 0.95}

	first := s.Decide(a)
	second := s.Decide(a)
	assert.Equal(t, "MUT-0001", first.ID)
	assert.Equal(t, "MUT-0002", second.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, uint64(2), s.Count())
}

func TestDecide_ConcurrentIDsAreUnique(t *testing.T) {
	s := NewSelector(util.NewSeededPicker(3))
	a := classifier.Assessment{Category: classifier.CategoryDDoSAttempt, Confidence: 0.9}

	const workers, per = 8, 250
	ids := make(chan string, workers*per)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < per; i++ {
				ids <- s.Decide(a).ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]struct{}, workers*per)
	for id := range ids {
		_, dup := seen[id]
		require.False(t, dup, "duplicate decision id %s", id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, workers*per)
	assert.Equal(t, uint64(workers*per), s.Count())
}

func TestDecide_DeterministicInsights(t *testing.T) {
	a := classifier.Assessment{Category: classifier.CategorySQLInjection, Confidence: 0.95}
	s1 := NewSelector(util.NewSeededPicker(99))
	s2 := NewSelector(util.NewSeededPicker(99))
	for i := 0; i < 10; i++ {
		assert.Equal(t, s1.Decide(a).Insight, s2.Decide(a).Insight)
	}
}

func TestFormatID(t *testing.T) {
	assert.Equal(t, "MUT-0001", FormatID(1))
	assert.Equal(t, "MUT-9999", FormatID(9999))
	assert.Equal(t, "MUT-10000", FormatID(10000))
}

func TestDecide_UnknownCategoryInsight(t *testing.T) {
	s := NewSelector(nil)
	d := s.Decide(classifier.Assessment{Category: "WHATEVER"})
	assert.Equal(t, "Unknown threat pattern detected", d.Insight)
	assert.Empty(t, d.Patch.ImplementationNote)
}
