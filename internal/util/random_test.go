package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeededPickerIsDeterministic(t *testing.T) {
	a := NewSeededPicker(42)
	b := NewSeededPicker(42)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.IntN(100), b.IntN(100))
	}
}

func TestPick(t *testing.T) {
	pool := []string{"a", "b", "c"}
	p := NewSeededPicker(7)
	for i := 0; i < 50; i++ {
		assert.Contains(t, pool, Pick(p, pool))
	}
	assert.Equal(t, "", Pick[string](p, nil))
	assert.Contains(t, pool, Pick(nil, pool))
}
