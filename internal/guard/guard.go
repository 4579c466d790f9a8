// Package guard aborts long comparisons that run out of time or memory.
package guard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/mem"
)

var (
	ErrTimeout     = errors.New("comparison timed out")
	ErrOutOfMemory = errors.New("comparison out of memory")
)

const (
	DefaultTimeout      = 300 * time.Second
	DefaultMinAvailable = 150 << 20
	DefaultEvery        = 50
)

type Config struct {
	Timeout time.Duration
	// MinAvailable is the floor of available system memory in bytes.
	MinAvailable uint64
	// Every is how many processed paragraphs pass between checks.
	Every int
}

func DefaultConfig() Config {
	return Config{Timeout: DefaultTimeout, MinAvailable: DefaultMinAvailable, Every: DefaultEvery}
}

// MemoryProbe reports available system memory in bytes.
type MemoryProbe func() (uint64, error)

// SystemMemory reads available memory from the host.
func SystemMemory() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.Available, nil
}

type Option func(*Guard)

func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		if now != nil {
			g.now = now
		}
	}
}

func WithMemoryProbe(p MemoryProbe) Option {
	return func(g *Guard) {
		g.probe = p
	}
}

// Guard tracks one comparison from the moment it is created.
type Guard struct {
	cfg   Config
	now   func() time.Time
	probe MemoryProbe
	start time.Time
}

func New(cfg Config, opts ...Option) *Guard {
	if cfg.Every <= 0 {
		cfg.Every = DefaultEvery
	}
	g := &Guard{cfg: cfg, now: time.Now, probe: SystemMemory}
	for _, opt := range opts {
		opt(g)
	}
	g.start = g.now()
	return g
}

// Tick checks limits once every cfg.Every processed items.
func (g *Guard) Tick(ctx context.Context, processed int) error {
	if processed <= 0 || processed%g.cfg.Every != 0 {
		return nil
	}
	return g.Check(ctx)
}

// Check tests every limit now. A failing memory probe is not fatal.
func (g *Guard) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if g.cfg.Timeout > 0 {
		if elapsed := g.now().Sub(g.start); elapsed > g.cfg.Timeout {
			return fmt.Errorf("%w: %s elapsed, limit %s", ErrTimeout, elapsed.Round(time.Millisecond), g.cfg.Timeout)
		}
	}
	if g.cfg.MinAvailable > 0 && g.probe != nil {
		avail, err := g.probe()
		if err == nil && avail < g.cfg.MinAvailable {
			return fmt.Errorf("%w: %d MB available, floor %d MB", ErrOutOfMemory, avail>>20, g.cfg.MinAvailable>>20)
		}
	}
	return nil
}

// Elapsed is the time since the guard was created.
func (g *Guard) Elapsed() time.Duration {
	return g.now().Sub(g.start)
}
