package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

func TestTickOnlyChecksEveryN(t *testing.T) {
	calls := 0
	g := New(Config{Every: 50, MinAvailable: 1}, WithMemoryProbe(func() (uint64, error) {
		calls++
		return 1 << 30, nil
	}))

	for i := 1; i <= 120; i++ {
		require.NoError(t, g.Tick(context.Background(), i))
	}
	assert.Equal(t, 2, calls)
}

func TestCheckTimeout(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0), step: 2 * time.Second}
	g := New(Config{Timeout: 5 * time.Second}, WithClock(clock.Now), WithMemoryProbe(nil))

	require.NoError(t, g.Check(context.Background()))
	require.NoError(t, g.Check(context.Background()))
	err := g.Check(context.Background())
	assert.True(t, errors.Is(err, ErrTimeout), "got %v", err)
}

func TestCheckMemoryFloor(t *testing.T) {
	g := New(Config{MinAvailable: 150 << 20}, WithMemoryProbe(func() (uint64, error) {
		return 100 << 20, nil
	}))
	err := g.Check(context.Background())
	assert.ErrorIs(t, err, ErrOutOfMemory)
	assert.Contains(t, err.Error(), "100 MB")
}

func TestCheckIgnoresProbeFailure(t *testing.T) {
	g := New(Config{MinAvailable: 150 << 20}, WithMemoryProbe(func() (uint64, error) {
		return 0, errors.New("no /proc")
	}))
	assert.NoError(t, g.Check(context.Background()))
}

func TestCheckHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := New(DefaultConfig(), WithMemoryProbe(nil))
	assert.ErrorIs(t, g.Check(ctx), context.Canceled)
}

func TestSystemMemory(t *testing.T) {
	avail, err := SystemMemory()
	if err != nil {
		t.Skipf("memory stats unavailable: %v", err)
	}
	assert.Greater(t, avail, uint64(0))
}
