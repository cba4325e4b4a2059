package system

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-core/engine/ecs"
)

// State is the per entity, per system lifecycle position.
type State int

const (
	StateUnseen State = iota
	StateCreated
	StatePrepared
	StateRendered
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StatePrepared:
		return "prepared"
	case StateRendered:
		return "rendered"
	}
	return "unseen"
}

// Lifecycle tracks which entities a system has created. Entities that drop out of the filter are
// forgotten, so a later re-entry runs create again.
type Lifecycle struct {
	states map[ecs.Entity]State
}

// NewLifecycle creates an empty tracker.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{states: make(map[ecs.Entity]State)}
}

// Sync reconciles the tracker with this frame's filtered entities. It returns, in input order,
// the entities that still need create, and in ascending entity order the tracked entities that
// left the filter. Dropped entities are forgotten.
func (l *Lifecycle) Sync(matched []ecs.Entity) (pending, dropped []ecs.Entity) {
	seen := make(map[ecs.Entity]struct{}, len(matched))
	for _, e := range matched {
		seen[e] = struct{}{}
		if l.states[e] == StateUnseen {
			pending = append(pending, e)
		}
	}
	for e := range l.states {
		if _, ok := seen[e]; !ok {
			dropped = append(dropped, e)
			delete(l.states, e)
		}
	}
	slices.Sort(dropped)
	return pending, dropped
}

// State returns e's current state.
func (l *Lifecycle) State(e ecs.Entity) State {
	return l.states[e]
}

// Set moves e to s.
func (l *Lifecycle) Set(e ecs.Entity, s State) {
	if s == StateUnseen {
		delete(l.states, e)
		return
	}
	l.states[e] = s
}

// Len returns the number of created entities.
func (l *Lifecycle) Len() int {
	return len(l.states)
}
