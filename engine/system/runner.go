package system

import (
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-core/engine/ecs"
	"go.uber.org/zap"
)

// LogicSystem is a System with a create/update lifecycle that emits no GPU work. Transform and
// camera systems that feed the render passes are LogicSystems.
type LogicSystem interface {
	System

	// OnCreate runs once when e first satisfies the filter.
	OnCreate(reg *ecs.Registry, e ecs.Entity, c Tuple) error

	// OnUpdate runs every tick for every filtered entity.
	OnUpdate(reg *ecs.Registry, dt float32, e ecs.Entity, c Tuple) error
}

// Stats holds execution statistics for one system.
type Stats struct {
	Name           string
	Entities       int
	ExecutionCount int64
	LastDuration   time.Duration
	MaxDuration    time.Duration
	TotalDuration  time.Duration
}

type runnerEntry struct {
	system    LogicSystem
	lifecycle *Lifecycle
	stats     Stats
}

// Runner updates logic systems in registration order.
type Runner struct {
	registry *ecs.Registry
	logger   *zap.Logger
	entries  []*runnerEntry
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunnerLogger sets the runner logger.
func WithRunnerLogger(logger *zap.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a Runner over reg.
func NewRunner(reg *ecs.Registry, opts ...RunnerOption) *Runner {
	if reg == nil {
		panic("system: runner requires a registry")
	}
	r := &Runner{registry: reg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register appends s. Systems run in registration order.
func (r *Runner) Register(s LogicSystem) {
	r.entries = append(r.entries, &runnerEntry{
		system:    s,
		lifecycle: NewLifecycle(),
		stats:     Stats{Name: s.Name()},
	})
	r.logger.Debug("logic system registered", zap.String("system", s.Name()))
}

// Update runs create for newly matching entities and then update for every match, system by
// system. The first error stops the tick.
func (r *Runner) Update(dt float32) error {
	entities := r.registry.Entities()
	for _, entry := range r.entries {
		start := time.Now()
		if err := r.updateSystem(entry, dt, entities); err != nil {
			return err
		}
		d := time.Since(start)
		entry.stats.ExecutionCount++
		entry.stats.LastDuration = d
		entry.stats.TotalDuration += d
		entry.stats.MaxDuration = max(entry.stats.MaxDuration, d)
	}
	return nil
}

func (r *Runner) updateSystem(entry *runnerEntry, dt float32, entities []ecs.Entity) error {
	s := entry.system
	matched := s.FilterEntities(r.registry, entities)
	entry.stats.Entities = len(matched)

	pending, _ := entry.lifecycle.Sync(matched)
	for _, e := range pending {
		c, ok := s.ExtractComponents(r.registry, e)
		if !ok {
			continue
		}
		if err := s.OnCreate(r.registry, e, c); err != nil {
			return &CreateError{System: s.Name(), Entity: e, Err: err}
		}
		entry.lifecycle.Set(e, StateCreated)
	}

	for _, e := range matched {
		c, ok := s.ExtractComponents(r.registry, e)
		if !ok {
			continue
		}
		if err := s.OnUpdate(r.registry, dt, e, c); err != nil {
			return fmt.Errorf("system %s: update entity %d: %w", s.Name(), e, err)
		}
	}
	return nil
}

// Stats returns a snapshot of every system's statistics in registration order.
func (r *Runner) Stats() []Stats {
	out := make([]Stats, len(r.entries))
	for i, entry := range r.entries {
		out[i] = entry.stats
	}
	return out
}
