package ecs

// Entity is an opaque handle: a 32-bit slot index in the low bits and a 32-bit generation in the
// high bits. Destroying an entity bumps the generation of its slot so stale handles stop resolving.
// The zero Entity is never issued.
type Entity uint64

// NewEntity packs an index and generation into an Entity.
func NewEntity(index, generation uint32) Entity {
	return Entity(uint64(generation)<<32 | uint64(index))
}

func (e Entity) Index() uint32      { return uint32(e) }
func (e Entity) Generation() uint32 { return uint32(e >> 32) }
func (e Entity) IsZero() bool       { return e == 0 }

// entityPool allocates entity handles with generational indices and a free list.
type entityPool struct {
	generations []uint32
	alive       []bool
	freeList    []uint32
}

func newEntityPool() *entityPool {
	return &entityPool{
		generations: make([]uint32, 0, 1024),
		alive:       make([]bool, 0, 1024),
		freeList:    make([]uint32, 0, 256),
	}
}

func (p *entityPool) create() Entity {
	if n := len(p.freeList); n > 0 {
		idx := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		p.alive[idx] = true
		return NewEntity(idx, p.generations[idx])
	}
	idx := uint32(len(p.generations))
	p.generations = append(p.generations, 1)
	p.alive = append(p.alive, true)
	return NewEntity(idx, 1)
}

func (p *entityPool) isAlive(e Entity) bool {
	idx := e.Index()
	if int(idx) >= len(p.generations) {
		return false
	}
	return p.alive[idx] && p.generations[idx] == e.Generation()
}

func (p *entityPool) destroy(e Entity) bool {
	if !p.isAlive(e) {
		return false
	}
	idx := e.Index()
	p.alive[idx] = false
	p.generations[idx]++
	if p.generations[idx] == 0 {
		p.generations[idx] = 1
	}
	p.freeList = append(p.freeList, idx)
	return true
}
