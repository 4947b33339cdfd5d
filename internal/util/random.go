package util

import (
	"math/rand/v2"
	"sync"
)

// Picker chooses an index in [0, n). Components that pick from fixed pools
// take a Picker so tests can make the choice deterministic.
type Picker interface {
	IntN(n int) int
}

type globalPicker struct{}

func (globalPicker) IntN(n int) int { return rand.IntN(n) }

// NewRandomPicker returns a Picker backed by the runtime's random source.
func NewRandomPicker() Picker {
	return globalPicker{}
}

type seededPicker struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSeededPicker returns a goroutine-safe Picker that yields the same
// sequence for the same seed.
func NewSeededPicker(seed uint64) Picker {
	return &seededPicker{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (p *seededPicker) IntN(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rnd.IntN(n)
}

// Pick returns a pooled value chosen by p, or the zero value for an empty pool.
func Pick[T any](p Picker, pool []T) T {
	var zero T
	if len(pool) == 0 {
		return zero
	}
	if p == nil {
		p = NewRandomPicker()
	}
	return pool[p.IntN(len(pool))]
}
