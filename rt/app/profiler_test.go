package app

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fakeClock(p *Profiler) *time.Time {
	t := time.Unix(0, 0)
	p.now = func() time.Time { return t }
	return &t
}

func TestProfilerScopes(t *testing.T) {
	p := NewProfiler()
	p.Smoothing = 1
	clock := fakeClock(p)

	p.BeginScope("Upload")
	*clock = clock.Add(2 * time.Millisecond)
	p.EndScope("Upload")

	p.BeginScope("Draw")
	*clock = clock.Add(5 * time.Millisecond)
	p.EndScope("Draw")

	p.BeginScope("Upload")
	*clock = clock.Add(3 * time.Millisecond)
	p.EndScope("Upload")

	assert.Equal(t, []string{"Upload", "Draw"}, p.Order)
	assert.Equal(t, 3*time.Millisecond, p.Scopes["Upload"])
	assert.Equal(t, 5*time.Millisecond, p.Scopes["Draw"])
}

func TestProfilerSmoothing(t *testing.T) {
	p := NewProfiler()
	p.Smoothing = 0.5
	clock := fakeClock(p)

	for _, d := range []time.Duration{4 * time.Millisecond, 8 * time.Millisecond} {
		p.BeginScope("Draw")
		*clock = clock.Add(d)
		p.EndScope("Draw")
	}
	assert.Equal(t, 6*time.Millisecond, p.Scopes["Draw"])
}

func TestProfilerEndWithoutBegin(t *testing.T) {
	p := NewProfiler()
	p.EndScope("nothing")
	assert.Empty(t, p.Scopes)
}

func TestProfilerStatsString(t *testing.T) {
	p := NewProfiler()
	p.SetCount("Primitives", 3)
	p.SetCount("Lights", 2)
	p.BeginScope("Draw")
	p.EndScope("Draw")

	s := p.GetStatsString()
	assert.Contains(t, s, "Timings (CPU):")
	assert.Contains(t, s, "Draw")
	assert.Less(t, strings.Index(s, "Lights"), strings.Index(s, "Primitives"))

	p.Reset()
	assert.Zero(t, p.Scopes["Draw"])
	assert.Equal(t, []string{"Draw"}, p.Order)
}
