package ecs

import (
	"errors"
	"fmt"
	"reflect"
	"slices"

	"go.uber.org/zap"
)

var (
	// ErrEntityNotFound is returned when an operation names an entity that was never created or
	// has been destroyed.
	ErrEntityNotFound = errors.New("ecs: entity not found")

	// ErrUnregisteredComponent is returned by AddComponent for a type with no table.
	ErrUnregisteredComponent = errors.New("ecs: component type not registered")
)

// Registry is the store of entities, their component tables and the entity -> component type
// relation. It is not safe for concurrent use; only the frame-driving goroutine may touch it.
type Registry struct {
	logger   *zap.Logger
	pool     *entityPool
	order    []Entity
	tables   map[reflect.Type]table
	relation map[Entity][]reflect.Type
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger used for diagnostics such as duplicate component adds.
func WithLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		logger:   zap.NewNop(),
		pool:     newEntityPool(),
		order:    make([]Entity, 0, 256),
		tables:   make(map[reflect.Type]table),
		relation: make(map[Entity][]reflect.Type),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateEntity allocates a new entity with no components.
func (r *Registry) CreateEntity() Entity {
	e := r.pool.create()
	r.order = append(r.order, e)
	r.relation[e] = nil
	return e
}

// IsAlive reports whether e was created by this registry and not destroyed since.
func (r *Registry) IsAlive(e Entity) bool {
	return r.pool.isAlive(e)
}

// DestroyEntity removes every component of e and invalidates the handle.
func (r *Registry) DestroyEntity(e Entity) error {
	if !r.pool.isAlive(e) {
		return fmt.Errorf("destroy %d: %w", e, ErrEntityNotFound)
	}
	for _, typ := range r.relation[e] {
		if t, ok := r.tables[typ]; ok {
			t.remove(e)
		}
	}
	delete(r.relation, e)
	if i := slices.Index(r.order, e); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	r.pool.destroy(e)
	return nil
}

// Entities returns the live entities in creation order. The slice is a copy.
func (r *Registry) Entities() []Entity {
	return slices.Clone(r.order)
}

// Len returns the number of live entities.
func (r *Registry) Len() int {
	return len(r.order)
}

// RegisterComponent makes sure a table exists for T and returns it.
func RegisterComponent[T any](r *Registry) *ComponentTable[T] {
	typ := reflect.TypeFor[T]()
	if t, ok := r.tables[typ]; ok {
		return t.(*ComponentTable[T])
	}
	t := NewComponentTable[T](64)
	r.tables[typ] = t
	return t
}

// Table returns the table for T, or nil if T was never registered.
func Table[T any](r *Registry) *ComponentTable[T] {
	t, ok := r.tables[reflect.TypeFor[T]()]
	if !ok {
		return nil
	}
	return t.(*ComponentTable[T])
}

// AddComponent attaches c (a value or pointer of a registered component type) to e and returns a
// pointer to the stored row. When e already holds a component of that type the existing row is
// returned unchanged and a warning is logged.
func (r *Registry) AddComponent(e Entity, c any) (any, error) {
	if c == nil {
		return nil, fmt.Errorf("add nil component to %d: %w", e, ErrUnregisteredComponent)
	}
	typ := reflect.TypeOf(c)
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	t, ok := r.tables[typ]
	if !ok {
		return nil, fmt.Errorf("add %s to %d: %w", typ, e, ErrUnregisteredComponent)
	}
	if !r.pool.isAlive(e) {
		return nil, fmt.Errorf("add %s to %d: %w", typ, e, ErrEntityNotFound)
	}
	row, existed := t.addAny(e, c)
	r.link(e, typ, existed)
	return row, nil
}

// Add attaches c to e, registering T on first use. See AddComponent for duplicate handling.
func Add[T any](r *Registry, e Entity, c T) (*T, error) {
	if !r.pool.isAlive(e) {
		return nil, fmt.Errorf("add %s to %d: %w", reflect.TypeFor[T](), e, ErrEntityNotFound)
	}
	t := RegisterComponent[T](r)
	row, existed := t.Add(e, c)
	r.link(e, t.typ, existed)
	return row, nil
}

func (r *Registry) link(e Entity, typ reflect.Type, existed bool) {
	if existed {
		r.logger.Warn("component already present, keeping existing instance",
			zap.Uint64("entity", uint64(e)),
			zap.String("component", typ.String()),
		)
		if !slices.Contains(r.relation[e], typ) {
			r.relation[e] = append(r.relation[e], typ)
		}
		return
	}
	r.relation[e] = append(r.relation[e], typ)
}

// HasComponent reports whether e is alive, relates to typ and the table holds a row for it.
func (r *Registry) HasComponent(e Entity, typ reflect.Type) bool {
	if !r.pool.isAlive(e) {
		return false
	}
	if !slices.Contains(r.relation[e], typ) {
		return false
	}
	t, ok := r.tables[typ]
	return ok && t.has(e)
}

// GetComponent returns a pointer to e's component of typ, or nil and false when absent.
func (r *Registry) GetComponent(e Entity, typ reflect.Type) (any, bool) {
	if !r.HasComponent(e, typ) {
		return nil, false
	}
	return r.tables[typ].getAny(e)
}

// RemoveComponent detaches typ from e. It reports whether a component was removed.
func (r *Registry) RemoveComponent(e Entity, typ reflect.Type) bool {
	if !r.HasComponent(e, typ) {
		return false
	}
	r.tables[typ].remove(e)
	types := r.relation[e]
	if i := slices.Index(types, typ); i >= 0 {
		r.relation[e] = slices.Delete(types, i, i+1)
	}
	return true
}

// ComponentTypes returns the component types attached to e in attachment order.
func (r *Registry) ComponentTypes(e Entity) []reflect.Type {
	if !r.pool.isAlive(e) {
		return nil
	}
	return slices.Clone(r.relation[e])
}

// Get returns e's T, or nil and false when absent.
func Get[T any](r *Registry, e Entity) (*T, bool) {
	c, ok := r.GetComponent(e, reflect.TypeFor[T]())
	if !ok {
		return nil, false
	}
	return c.(*T), true
}

// Has reports whether e holds a T.
func Has[T any](r *Registry, e Entity) bool {
	return r.HasComponent(e, reflect.TypeFor[T]())
}

// Remove detaches T from e.
func Remove[T any](r *Registry, e Entity) bool {
	return r.RemoveComponent(e, reflect.TypeFor[T]())
}
