package hunk

import "testing"

func TestRegistryValidates(t *testing.T) {
	if err := Validate(); err != nil {
		t.Fatalf("registry invalid: %v", err)
	}
}

func TestEveryTypeDescribed(t *testing.T) {
	for _, typ := range Types() {
		d, ok := Describe(typ)
		if !ok {
			t.Fatalf("type %d is not described", typ)
		}
		if d.Type != typ {
			t.Fatalf("descriptor type = %d, want %d", d.Type, typ)
		}
	}
}

func TestReverseOfReverseForSiblings(t *testing.T) {
	pairs := [][2]Type{
		{TypeSpobAdd, TypeSpobRemove},
		{TypeJumpAdd, TypeJumpRemove},
		{TypeTechAdd, TypeTechRemove},
		{TypeFactionVisible, TypeFactionInvisible},
		{TypeAsteroidsAddType, TypeAsteroidsRemoveType},
	}
	for _, pair := range pairs {
		if got := Reverse(pair[0]); got != pair[1] {
			t.Fatalf("reverse(%s) = %s, want %s", pair[0], got, pair[1])
		}
		if got := Reverse(pair[1]); got != pair[0] {
			t.Fatalf("reverse(%s) = %s, want %s", pair[1], got, pair[0])
		}
	}
}

func TestMutationTypesRevertToDedicatedVariant(t *testing.T) {
	tests := []struct {
		forward Type
		revert  Type
	}{
		{TypeSystemPosX, TypeSystemPosXRevert},
		{TypeSpobFaction, TypeSpobFactionRevert},
		{TypeAsteroidsDensity, TypeAsteroidsDensityRevert},
		{TypeAsteroidsRemove, TypeAsteroidsRemoveRevert},
		{TypeFactionAlly, TypeFactionAllyRevert},
	}
	for _, tt := range tests {
		if got := Reverse(tt.forward); got != tt.revert {
			t.Fatalf("reverse(%s) = %s, want %s", tt.forward, got, tt.revert)
		}
		if tag := Tag(tt.revert); tag != "" {
			t.Fatalf("revert type %s has tag %q", tt.revert, tag)
		}
	}
}

func TestLookupIsScopedByTarget(t *testing.T) {
	sysPos, ok := Lookup(TargetSystem, "pos_x")
	if !ok {
		t.Fatal("expected system pos_x")
	}
	spobPos, ok := Lookup(TargetSpob, "pos_x")
	if !ok {
		t.Fatal("expected spob pos_x")
	}
	if sysPos.Type == spobPos.Type {
		t.Fatal("expected distinct types for shared tag")
	}
	if _, ok := Lookup(TargetTech, "pos_x"); ok {
		t.Fatal("unexpected tech pos_x")
	}
	if _, ok := Lookup(TargetSystem, "pos_x_revert"); ok {
		t.Fatal("revert-only types must not be authorable")
	}
}

func TestLabelledTypesAcceptOnlyLabel(t *testing.T) {
	d, ok := Describe(TypeAsteroidsRadius)
	if !ok {
		t.Fatal("missing descriptor")
	}
	if !d.RequiresLabel() {
		t.Fatal("expected label requirement")
	}
	if d.AllowsAttribute("name") {
		t.Fatal("unexpected attribute allowed")
	}
	plain, _ := Describe(TypeSystemPosX)
	if plain.RequiresLabel() {
		t.Fatal("system pos_x must not need a label")
	}
}

func TestTechTypesDoNotTouchUniverse(t *testing.T) {
	for _, d := range AuthoredFor(TargetTech) {
		if d.Universe {
			t.Fatalf("tech type %s marks universe changes", d.Key)
		}
	}
	jump, _ := Describe(TypeJumpAdd)
	if !jump.Universe {
		t.Fatal("jump add must mark universe changes")
	}
}

func TestDescribeRejectsOutOfRange(t *testing.T) {
	if _, ok := Describe(TypeNone); ok {
		t.Fatal("none must not be described")
	}
	if _, ok := Describe(typeCount); ok {
		t.Fatal("type count must not be described")
	}
	if got := Reverse(typeCount + 3); got != TypeNone {
		t.Fatalf("reverse = %s, want none", got)
	}
}
