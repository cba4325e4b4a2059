// Package system decouples which entities a piece of logic processes from what it does with them.
// A system declares an ordered component filter; the caller hands it the registry's entities and
// receives the matching subset plus one component tuple per entity.
package system

import (
	"fmt"
	"reflect"

	"github.com/Carmen-Shannon/oxy-core/engine/ecs"
)

// Tuple holds one component pointer per filter type, in filter order. A single-type filter
// still yields a Tuple of length one.
type Tuple []any

// At returns element i of t as *T. It panics when the element has another type, which means the
// caller and the filter disagree.
func At[T any](t Tuple, i int) *T {
	c, ok := t[i].(*T)
	if !ok {
		panic(fmt.Sprintf("system: tuple element %d is %T, not *%s", i, t[i], reflect.TypeFor[T]()))
	}
	return c
}

// System is the filter half shared by logic systems and render passes.
type System interface {
	// Name returns a unique, human readable system name.
	Name() string

	// Filter returns the required component types in declaration order.
	Filter() []reflect.Type

	// FilterEntities keeps the entities holding every filter type, preserving input order.
	//
	// Parameters:
	//   - reg: the registry to test against
	//   - entities: candidate entities, normally reg.Entities()
	//
	// Returns:
	//   - []ecs.Entity: the matching entities
	FilterEntities(reg *ecs.Registry, entities []ecs.Entity) []ecs.Entity

	// ExtractComponents fetches one component per filter type for e.
	//
	// Parameters:
	//   - reg: the registry holding e
	//   - e: a filtered entity
	//
	// Returns:
	//   - Tuple: component pointers in filter order
	//   - bool: false when e no longer satisfies the filter
	ExtractComponents(reg *ecs.Registry, e ecs.Entity) (Tuple, bool)
}

// Base implements System. Concrete systems embed it.
type Base struct {
	name      string
	filter    []reflect.Type
	predicate func(reg *ecs.Registry, e ecs.Entity) bool
}

var _ System = &Base{}

// BaseOption configures a Base.
type BaseOption func(*Base)

// Require appends T to the filter.
func Require[T any]() BaseOption {
	return func(b *Base) {
		b.filter = append(b.filter, reflect.TypeFor[T]())
	}
}

// WithPredicate adds a value-based test applied after the type filter.
func WithPredicate(fn func(reg *ecs.Registry, e ecs.Entity) bool) BaseOption {
	return func(b *Base) {
		b.predicate = fn
	}
}

// NewBase builds the filter of a system. It panics on an empty filter.
func NewBase(name string, opts ...BaseOption) Base {
	b := Base{name: name}
	for _, opt := range opts {
		opt(&b)
	}
	if len(b.filter) == 0 {
		panic(fmt.Sprintf("system: %s declares no required components", name))
	}
	return b
}

func (b *Base) Name() string {
	return b.name
}

func (b *Base) Filter() []reflect.Type {
	out := make([]reflect.Type, len(b.filter))
	copy(out, b.filter)
	return out
}

func (b *Base) FilterEntities(reg *ecs.Registry, entities []ecs.Entity) []ecs.Entity {
	out := make([]ecs.Entity, 0, len(entities))
	for _, e := range entities {
		if b.matches(reg, e) {
			out = append(out, e)
		}
	}
	return out
}

func (b *Base) matches(reg *ecs.Registry, e ecs.Entity) bool {
	for _, typ := range b.filter {
		if !reg.HasComponent(e, typ) {
			return false
		}
	}
	return b.predicate == nil || b.predicate(reg, e)
}

func (b *Base) ExtractComponents(reg *ecs.Registry, e ecs.Entity) (Tuple, bool) {
	t := make(Tuple, len(b.filter))
	for i, typ := range b.filter {
		c, ok := reg.GetComponent(e, typ)
		if !ok {
			return nil, false
		}
		t[i] = c
	}
	return t, true
}

// CreateError reports an entity whose create step failed. The entity stays Unseen.
type CreateError struct {
	System string
	Entity ecs.Entity
	Err    error
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("system %s: create entity %d: %v", e.System, e.Entity, e.Err)
}

func (e *CreateError) Unwrap() error {
	return e.Err
}
