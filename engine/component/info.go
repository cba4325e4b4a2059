package component

import "slices"

// Info carries a human readable name and tags.
type Info struct {
	Name string
	Tags []string
}

// HasTag reports whether tag is set.
func (i Info) HasTag(tag string) bool {
	return slices.Contains(i.Tags, tag)
}

// RenderExclusive restricts an entity to the named passes.
type RenderExclusive struct {
	Passes []string
}

// Allows reports whether the pass may draw the entity.
func (r RenderExclusive) Allows(pass string) bool {
	return slices.Contains(r.Passes, pass)
}
