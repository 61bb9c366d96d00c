package hunk

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// LabelAttribute addresses a labeled sub-element inside a target.
const LabelAttribute = "label"

// Attribute is an authored key/value pair attached to a hunk.
type Attribute struct {
	Name  string
	Value string
}

// Hunk is one typed mutation of a target entity.
type Hunk struct {
	Target     Target
	Type       Type
	Payload    Payload
	Attributes []Attribute
	// Old is only meaningful between an apply and the matching revert.
	Old OldValue
}

// Attr returns the value of the named attribute.
func (h Hunk) Attr(name string) (string, bool) {
	for _, attr := range h.Attributes {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return "", false
}

// Label returns the non-blank label attribute.
func (h Hunk) Label() (string, bool) {
	value, ok := h.Attr(LabelAttribute)
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// Clone returns a copy that owns its attribute slice.
func (h Hunk) Clone() Hunk {
	cloned := h
	if h.Attributes != nil {
		cloned.Attributes = append([]Attribute(nil), h.Attributes...)
	}
	return cloned
}

// WithType returns a copy retyped to t, keeping payload, attributes, and Old.
func (h Hunk) WithType(t Type) Hunk {
	cloned := h.Clone()
	cloned.Type = t
	return cloned
}

// SameSlot reports whether h and other address the same field of the same
// target: equal target, type, and attribute set. Structural types, whose
// reverse is itself authored, also need an equal payload since each distinct
// payload is its own entry.
func (h Hunk) SameSlot(other Hunk) bool {
	if h.Target != other.Target || h.Type != other.Type {
		return false
	}
	if Structural(h.Type) && PayloadText(h.Payload) != PayloadText(other.Payload) {
		return false
	}
	return sameAttributes(h.Attributes, other.Attributes)
}

// Structural reports whether t adds or removes an entry rather than setting
// a field.
func Structural(t Type) bool {
	rev, ok := Describe(Reverse(t))
	return ok && rev.Authored()
}

func sameAttributes(a, b []Attribute) bool {
	if len(a) != len(b) {
		return false
	}
	byName := func(x, y Attribute) int {
		if c := cmp.Compare(x.Name, y.Name); c != 0 {
			return c
		}
		return cmp.Compare(x.Value, y.Value)
	}
	a = slices.SortedFunc(slices.Values(a), byName)
	b = slices.SortedFunc(slices.Values(b), byName)
	return slices.Equal(a, b)
}

// String renders the hunk for log lines.
func (h Hunk) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", h.Target.Name, h.Type.Key())
	if text := PayloadText(h.Payload); text != "" {
		fmt.Fprintf(&b, ": '%s'", text)
	}
	for _, attr := range h.Attributes {
		fmt.Fprintf(&b, " %s=%q", attr.Name, attr.Value)
	}
	return b.String()
}
