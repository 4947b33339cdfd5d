// Package ledger keeps the append-only event log, the block list and the
// decoy endpoints used to redirect detected attackers.
package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/Wikid82/chimera/backend/internal/util"
)

const (
	// ExcerptLength is the number of payload characters kept per request entry.
	ExcerptLength = 100
	// DefaultRecent is used by Recent when n is not positive.
	DefaultRecent = 10
	// MaliciousLevel is the threat level stamped on every attack entry.
	MaliciousLevel = "MALICIOUS"
)

// EntryType tags a log entry.
type EntryType string

const (
	EntryRequest EntryType = "request"
	EntryAttack  EntryType = "attack"
)

// Entry is one log record. Request entries carry Payload; attack entries
// carry AttackType and Details.
type Entry struct {
	Type        EntryType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	Source      string    `json:"source"`
	Payload     string    `json:"payload,omitempty"`
	AttackType  string    `json:"attack_type,omitempty"`
	Details     string    `json:"details,omitempty"`
	ThreatLevel string    `json:"threat_level"`
}

var defaultDecoys = []string{
	"/admin/secret",
	"/api/v1/users/all",
	"/database/backup",
	"/config/passwords",
	"/internal/keys",
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithCapacity bounds the log to the n most recent entries. Zero keeps every
// entry.
func WithCapacity(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.capacity = n
		}
	}
}

// WithPicker sets the source used to choose decoy endpoints.
func WithPicker(p util.Picker) Option {
	return func(l *Ledger) {
		if p != nil {
			l.picker = p
		}
	}
}

// Ledger is safe for concurrent use.
type Ledger struct {
	picker   util.Picker
	decoys   []string
	capacity int

	mu      sync.RWMutex
	entries []Entry
	start   int
	evicted uint64
	blocked map[string]struct{}
}

// New returns an empty Ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		picker:  util.NewRandomPicker(),
		decoys:  append([]string(nil), defaultDecoys...),
		blocked: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// RecordRequest appends a request entry holding the first ExcerptLength
// characters of payload.
func (l *Ledger) RecordRequest(source, payload, level string, now time.Time) {
	l.append(Entry{
		Type:        EntryRequest,
		Timestamp:   now,
		Source:      source,
		Payload:     util.Truncate(payload, ExcerptLength),
		ThreatLevel: level,
	})
}

// RecordAttack appends an attack entry.
func (l *Ledger) RecordAttack(source, attackType, details string, now time.Time) {
	l.append(Entry{
		Type:        EntryAttack,
		Timestamp:   now,
		Source:      source,
		AttackType:  attackType,
		Details:     details,
		ThreatLevel: MaliciousLevel,
	})
}

func (l *Ledger) append(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, e)
	if l.capacity == 0 || len(l.entries)-l.start <= l.capacity {
		return
	}
	l.start++
	l.evicted++
	if l.start >= l.capacity {
		l.entries = append([]Entry(nil), l.entries[l.start:]...)
		l.start = 0
	}
}

// Block adds source to the block list. Blocking twice is a no-op.
func (l *Ledger) Block(source string) {
	l.mu.Lock()
	l.blocked[source] = struct{}{}
	l.mu.Unlock()
}

// IsBlocked reports whether source is on the block list.
func (l *Ledger) IsBlocked(source string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.blocked[source]
	return ok
}

// Blocked returns the block list, sorted.
func (l *Ledger) Blocked() []string {
	l.mu.RLock()
	out := make([]string, 0, len(l.blocked))
	for s := range l.blocked {
		out = append(out, s)
	}
	l.mu.RUnlock()
	sort.Strings(out)
	return out
}

// FakeEndpoint returns a decoy resource path.
func (l *Ledger) FakeEndpoint() string {
	return util.Pick(l.picker, l.decoys)
}

// Recent returns the last n entries in insertion order. Non-positive n
// means DefaultRecent.
func (l *Ledger) Recent(n int) []Entry {
	if n <= 0 {
		n = DefaultRecent
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	view := l.entries[l.start:]
	if n > len(view) {
		n = len(view)
	}
	return append(make([]Entry, 0, n), view[len(view)-n:]...)
}

// All returns a copy of the whole log in insertion order.
func (l *Ledger) All() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Entry{}, l.entries[l.start:]...)
}

// Len returns the number of retained entries.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries) - l.start
}

// Evicted returns how many entries were dropped to honour the capacity.
func (l *Ledger) Evicted() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.evicted
}
