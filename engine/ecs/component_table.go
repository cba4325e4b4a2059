package ecs

import (
	"reflect"

	"github.com/kamstrup/intmap"
)

// table is the type-erased view of a ComponentTable the Registry holds per component type.
type table interface {
	componentType() reflect.Type
	has(e Entity) bool
	getAny(e Entity) (any, bool)
	addAny(e Entity, c any) (any, bool)
	remove(e Entity) bool
	Len() int
}

// ComponentTable stores every instance of one component type in a dense slice, with an
// entity -> slot index owned by the table. Removal swap-removes and patches the moved entity's slot.
//
// Pointers returned by Get and Add point into the dense slice. They stay valid until the next
// Add or Remove on the same table.
type ComponentTable[T any] struct {
	typ    reflect.Type
	dense  []T
	owners []Entity
	slots  *intmap.Map[Entity, int]
}

var _ table = &ComponentTable[struct{}]{}

// NewComponentTable creates an empty table with room for capacity rows.
func NewComponentTable[T any](capacity int) *ComponentTable[T] {
	return &ComponentTable[T]{
		typ:    reflect.TypeFor[T](),
		dense:  make([]T, 0, capacity),
		owners: make([]Entity, 0, capacity),
		slots:  intmap.New[Entity, int](capacity),
	}
}

// Add appends c for e. If e already has a row, the existing row is returned unchanged and
// the second result is true.
func (t *ComponentTable[T]) Add(e Entity, c T) (*T, bool) {
	if slot, ok := t.slots.Get(e); ok {
		return &t.dense[slot], true
	}
	t.dense = append(t.dense, c)
	t.owners = append(t.owners, e)
	slot := len(t.dense) - 1
	t.slots.Put(e, slot)
	return &t.dense[slot], false
}

// Get returns e's row, or nil and false when e has none.
func (t *ComponentTable[T]) Get(e Entity) (*T, bool) {
	slot, ok := t.slots.Get(e)
	if !ok || slot >= len(t.dense) {
		return nil, false
	}
	return &t.dense[slot], true
}

func (t *ComponentTable[T]) Has(e Entity) bool {
	slot, ok := t.slots.Get(e)
	return ok && slot < len(t.dense)
}

// Remove deletes e's row by moving the last row into its slot.
func (t *ComponentTable[T]) Remove(e Entity) bool {
	slot, ok := t.slots.Get(e)
	if !ok {
		return false
	}
	last := len(t.dense) - 1
	if slot != last {
		t.dense[slot] = t.dense[last]
		moved := t.owners[last]
		t.owners[slot] = moved
		t.slots.Put(moved, slot)
	}
	var zero T
	t.dense[last] = zero
	t.dense = t.dense[:last]
	t.owners = t.owners[:last]
	t.slots.Del(e)
	return true
}

// Len returns the number of rows.
func (t *ComponentTable[T]) Len() int {
	return len(t.dense)
}

// Slot returns the dense index of e's row.
func (t *ComponentTable[T]) Slot(e Entity) (int, bool) {
	return t.slots.Get(e)
}

// Each calls fn for every row in dense order until fn returns false.
func (t *ComponentTable[T]) Each(fn func(e Entity, c *T) bool) {
	for i := range t.dense {
		if !fn(t.owners[i], &t.dense[i]) {
			return
		}
	}
}

func (t *ComponentTable[T]) componentType() reflect.Type { return t.typ }
func (t *ComponentTable[T]) has(e Entity) bool           { return t.Has(e) }
func (t *ComponentTable[T]) remove(e Entity) bool        { return t.Remove(e) }

func (t *ComponentTable[T]) getAny(e Entity) (any, bool) {
	c, ok := t.Get(e)
	if !ok {
		return nil, false
	}
	return c, true
}

func (t *ComponentTable[T]) addAny(e Entity, c any) (any, bool) {
	switch v := c.(type) {
	case T:
		return t.Add(e, v)
	case *T:
		return t.Add(e, *v)
	}
	panic("ecs: component of type " + reflect.TypeOf(c).String() + " added to table of " + t.typ.String())
}
