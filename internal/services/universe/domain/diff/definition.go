package diff

import (
	"github.com/louisbranch/starpatch/internal/services/universe/domain/hunk"
)

// Definition is a named, ordered list of hunks. It is never mutated after
// construction and may be shared by any number of instances.
type Definition struct {
	name   string
	source string
	hunks  []hunk.Hunk
}

// NewDefinition copies hunks into a new definition.
func NewDefinition(name, source string, hunks []hunk.Hunk) *Definition {
	owned := make([]hunk.Hunk, 0, len(hunks))
	for _, h := range hunks {
		h = h.Clone()
		h.Old = nil
		owned = append(owned, h)
	}
	return &Definition{name: name, source: source, hunks: owned}
}

// Name returns the diff name.
func (d *Definition) Name() string {
	return d.name
}

// Source returns the document the definition was read from, if any.
func (d *Definition) Source() string {
	return d.source
}

// Len returns the number of hunks.
func (d *Definition) Len() int {
	return len(d.hunks)
}

// Hunks returns owned copies of the hunks in authoring order.
func (d *Definition) Hunks() []hunk.Hunk {
	out := make([]hunk.Hunk, 0, len(d.hunks))
	for _, h := range d.hunks {
		out = append(out, h.Clone())
	}
	return out
}

// Failure is a hunk that could not be applied and why.
type Failure struct {
	Hunk hunk.Hunk
	Err  error
}

// Instance is a definition applied to the world: the hunks that succeeded,
// in application order with their captured old values, and the hunks that
// failed.
type Instance struct {
	def     *Definition
	applied []hunk.Hunk
	failed  []Failure
}

// Definition returns the definition the instance was built from.
func (i *Instance) Definition() *Definition {
	return i.def
}

// Name returns the diff name.
func (i *Instance) Name() string {
	return i.def.name
}

// Applied returns copies of the applied hunks in application order.
func (i *Instance) Applied() []hunk.Hunk {
	out := make([]hunk.Hunk, 0, len(i.applied))
	for _, h := range i.applied {
		out = append(out, h.Clone())
	}
	return out
}

// Failed returns the failed hunks in authoring order.
func (i *Instance) Failed() []Failure {
	return append([]Failure(nil), i.failed...)
}
