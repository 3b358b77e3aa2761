package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_Bounds(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		min, max float64
		invert   bool
		want     float64
	}{
		{"at min", 5, 5, 50, false, 0},
		{"at max", 50, 5, 50, false, 100},
		{"below min clamps", -100, 5, 50, false, 0},
		{"above max clamps", 1000, 5, 50, false, 100},
		{"midpoint", 27.5, 5, 50, false, 50},
		{"inverted at min", 5, 5, 50, true, 100},
		{"inverted at max", 50, 5, 50, true, 0},
		{"inverted below min clamps", -100, 5, 50, true, 100},
		{"negative range", 0, -50, 100, false, 100.0 / 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.value, tt.min, tt.max, tt.invert)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 100.0)
		})
	}
}

func TestNormalize_Monotonic(t *testing.T) {
	prev := -1.0
	for v := -20.0; v <= 120; v += 2.5 {
		got := Normalize(v, 0, 100, false)
		assert.GreaterOrEqual(t, got, prev, "normalize must never decrease as input grows")
		prev = got
	}
}
