package hunk

import "strings"

// TargetKind identifies the entity kind a hunk mutates.
type TargetKind uint8

const (
	TargetNone TargetKind = iota
	TargetSystem
	TargetSpob
	TargetTech
	TargetFaction
)

var targetKindNames = [...]string{
	TargetNone:    "none",
	TargetSystem:  "system",
	TargetSpob:    "spob",
	TargetTech:    "tech",
	TargetFaction: "faction",
}

// String returns the document group name for the kind.
func (k TargetKind) String() string {
	if int(k) < len(targetKindNames) {
		return targetKindNames[k]
	}
	return "unknown"
}

// ParseTargetKind maps a document group name to its kind.
func ParseTargetKind(name string) (TargetKind, bool) {
	name = strings.TrimSpace(name)
	for kind, candidate := range targetKindNames {
		if TargetKind(kind) == TargetNone {
			continue
		}
		if candidate == name {
			return TargetKind(kind), true
		}
	}
	return TargetNone, false
}

// TargetKinds lists every addressable kind in document order.
func TargetKinds() []TargetKind {
	return []TargetKind{TargetSystem, TargetSpob, TargetTech, TargetFaction}
}

// Target references the entity a hunk mutates by kind and name.
type Target struct {
	Kind TargetKind
	Name string
}

// String renders the target as kind:name.
func (t Target) String() string {
	return t.Kind.String() + ":" + t.Name
}
