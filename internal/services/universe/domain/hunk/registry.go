package hunk

import (
	"errors"
	"fmt"
	"slices"
)

// Descriptor is the registry entry for one hunk type.
type Descriptor struct {
	Type   Type
	Target TargetKind
	// Key is stable across releases and doubles as the translation key suffix.
	Key string
	// Name is the untranslated display name.
	Name string
	// Tag is the authoring element name; empty for revert-only types.
	Tag     string
	Payload PayloadKind
	Reverse Type
	// Attributes lists the attribute keys the type accepts.
	Attributes []string
	// Universe is set when applying the type can change derived global state.
	Universe bool
}

// Authored reports whether the type can appear in a diff document.
func (d Descriptor) Authored() bool {
	return d.Tag != ""
}

// AllowsAttribute reports whether name is a legal attribute key.
func (d Descriptor) AllowsAttribute(name string) bool {
	return slices.Contains(d.Attributes, name)
}

// RequiresLabel reports whether the type addresses a labeled sub-element.
func (d Descriptor) RequiresLabel() bool {
	return d.AllowsAttribute(LabelAttribute)
}

var (
	table = buildTable()
	byTag = indexTags(table)
)

// Describe returns the descriptor for t.
func Describe(t Type) (Descriptor, bool) {
	if t == TypeNone || t >= typeCount {
		return Descriptor{}, false
	}
	d := table[t]
	if d.Type != t {
		return Descriptor{}, false
	}
	return d, true
}

// Lookup resolves an authoring tag within a target kind.
func Lookup(kind TargetKind, tag string) (Descriptor, bool) {
	t, ok := byTag[kind][tag]
	if !ok {
		return Descriptor{}, false
	}
	return Describe(t)
}

// Reverse returns the type that undoes t, or TypeNone.
func Reverse(t Type) Type {
	d, ok := Describe(t)
	if !ok {
		return TypeNone
	}
	return d.Reverse
}

// Tag returns the authoring tag for t, empty for revert-only types.
func Tag(t Type) string {
	d, _ := Describe(t)
	return d.Tag
}

// Name returns the untranslated display name for t.
func Name(t Type) string {
	d, ok := Describe(t)
	if !ok {
		return "unknown"
	}
	return d.Name
}

// Types returns every registered type in declaration order.
func Types() []Type {
	out := make([]Type, 0, typeCount-1)
	for t := TypeNone + 1; t < typeCount; t++ {
		out = append(out, t)
	}
	return out
}

// AuthoredFor returns the authorable descriptors for kind in declaration order.
func AuthoredFor(kind TargetKind) []Descriptor {
	var out []Descriptor
	for _, t := range Types() {
		d := table[t]
		if d.Target == kind && d.Authored() {
			out = append(out, d)
		}
	}
	return out
}

// Validate checks the registry invariants: every type is described, every
// authored type has a reverse on the same target, tags are unique per target,
// and every revert-only type is the reverse of exactly one authored type.
func Validate() error {
	var errs []error
	reachedBy := make(map[Type][]Type)
	tags := make(map[TargetKind]map[string]Type)
	for _, t := range Types() {
		d := table[t]
		if d.Type != t {
			errs = append(errs, fmt.Errorf("type %d has no descriptor", t))
			continue
		}
		if d.Key == "" || d.Name == "" {
			errs = append(errs, fmt.Errorf("type %d has no key or name", t))
		}
		if !d.Authored() {
			if d.Reverse != TypeNone {
				errs = append(errs, fmt.Errorf("revert-only type %s must not have a reverse", d.Key))
			}
			continue
		}
		if tags[d.Target] == nil {
			tags[d.Target] = make(map[string]Type)
		}
		if other, exists := tags[d.Target][d.Tag]; exists {
			errs = append(errs, fmt.Errorf("tag %s.%s used by %s and %s", d.Target, d.Tag, table[other].Key, d.Key))
		}
		tags[d.Target][d.Tag] = t
		rev, ok := Describe(d.Reverse)
		if !ok {
			errs = append(errs, fmt.Errorf("type %s has no reverse", d.Key))
			continue
		}
		if rev.Target != d.Target {
			errs = append(errs, fmt.Errorf("type %s reverse %s targets %s", d.Key, rev.Key, rev.Target))
		}
		if !slices.Equal(rev.Attributes, d.Attributes) {
			errs = append(errs, fmt.Errorf("type %s reverse %s accepts different attributes", d.Key, rev.Key))
		}
		reachedBy[d.Reverse] = append(reachedBy[d.Reverse], t)
	}
	for _, t := range Types() {
		d := table[t]
		if d.Type != t || d.Authored() {
			continue
		}
		if n := len(reachedBy[t]); n != 1 {
			errs = append(errs, fmt.Errorf("revert-only type %s is reached by %d forward types, want 1", d.Key, n))
		}
	}
	return errors.Join(errs...)
}

func indexTags(descriptors [typeCount]Descriptor) map[TargetKind]map[string]Type {
	out := make(map[TargetKind]map[string]Type)
	for _, d := range descriptors {
		if !d.Authored() {
			continue
		}
		if out[d.Target] == nil {
			out[d.Target] = make(map[string]Type)
		}
		if _, exists := out[d.Target][d.Tag]; !exists {
			out[d.Target][d.Tag] = d.Type
		}
	}
	return out
}

func buildTable() [typeCount]Descriptor {
	const (
		sys  = TargetSystem
		spob = TargetSpob
		tech = TargetTech
		fct  = TargetFaction
	)
	entries := [][]Descriptor{
		siblings(TypeSpobAdd, TypeSpobRemove, sys, "spob_add", "add space object", "spob_remove", "remove space object", PayloadString),
		siblings(TypeVirtualSpobAdd, TypeVirtualSpobRemove, sys, "spob_virtual_add", "add virtual space object", "spob_virtual_remove", "remove virtual space object", PayloadString),
		siblings(TypeJumpAdd, TypeJumpRemove, sys, "jump_add", "add jump", "jump_remove", "remove jump", PayloadString),
		mutable(TypeSystemBackground, TypeSystemBackgroundRevert, sys, "background", "system background", PayloadString),
		mutable(TypeSystemFeatures, TypeSystemFeaturesRevert, sys, "features", "system features", PayloadString),
		mutable(TypeSystemDisplayName, TypeSystemDisplayNameRevert, sys, "displayname", "system display name", PayloadString),
		mutable(TypeSystemPosX, TypeSystemPosXRevert, sys, "pos_x", "system x position", PayloadFloat),
		mutable(TypeSystemPosY, TypeSystemPosYRevert, sys, "pos_y", "system y position", PayloadFloat),
		mutable(TypeSystemDust, TypeSystemDustRevert, sys, "dust", "system dust", PayloadInt),
		mutable(TypeSystemInterference, TypeSystemInterferenceRevert, sys, "interference", "system interference", PayloadFloat),
		mutable(TypeSystemNebulaDensity, TypeSystemNebulaDensityRevert, sys, "nebula_density", "system nebula density", PayloadFloat),
		mutable(TypeSystemNebulaVolatility, TypeSystemNebulaVolatilityRevert, sys, "nebula_volatility", "system nebula volatility", PayloadFloat),
		mutable(TypeSystemNebulaHue, TypeSystemNebulaHueRevert, sys, "nebula_hue", "system nebula hue", PayloadFloat),
		mutable(TypeSystemNoLanes, TypeSystemNoLanesRevert, sys, "nolanes", "system disable safe lanes", PayloadNone),
		siblings(TypeSystemTagAdd, TypeSystemTagRemove, sys, "tag_add", "add system tag", "tag_remove", "remove system tag", PayloadString),

		{
			authored(TypeAsteroidsAdd, sys, "asteroids_add", "add asteroid field", PayloadNone, TypeAsteroidsRemove, LabelAttribute),
			authored(TypeAsteroidsRemove, sys, "asteroids_remove", "remove asteroid field", PayloadNone, TypeAsteroidsRemoveRevert, LabelAttribute),
			revertOnly(TypeAsteroidsRemoveRevert, sys, "asteroids_remove", "remove asteroid field", PayloadNone, LabelAttribute),
		},
		mutable(TypeAsteroidsPosX, TypeAsteroidsPosXRevert, sys, "asteroids_pos_x", "asteroid field x position", PayloadFloat, LabelAttribute),
		mutable(TypeAsteroidsPosY, TypeAsteroidsPosYRevert, sys, "asteroids_pos_y", "asteroid field y position", PayloadFloat, LabelAttribute),
		mutable(TypeAsteroidsDensity, TypeAsteroidsDensityRevert, sys, "asteroids_density", "asteroid field density", PayloadFloat, LabelAttribute),
		mutable(TypeAsteroidsRadius, TypeAsteroidsRadiusRevert, sys, "asteroids_radius", "asteroid field radius", PayloadFloat, LabelAttribute),
		mutable(TypeAsteroidsMaxSpeed, TypeAsteroidsMaxSpeedRevert, sys, "asteroids_maxspeed", "asteroid field maximum speed", PayloadFloat, LabelAttribute),
		mutable(TypeAsteroidsMaxSpin, TypeAsteroidsMaxSpinRevert, sys, "asteroids_maxspin", "asteroid field maximum spin", PayloadFloat, LabelAttribute),
		mutable(TypeAsteroidsAccel, TypeAsteroidsAccelRevert, sys, "asteroids_accel", "asteroid field acceleration", PayloadFloat, LabelAttribute),
		siblings(TypeAsteroidsAddType, TypeAsteroidsRemoveType, sys, "asteroids_add_type", "add asteroid type", "asteroids_remove_type", "remove asteroid type", PayloadString, LabelAttribute),
		{
			authored(TypeExclusionAdd, sys, "exclusion_add", "add asteroid exclusion zone", PayloadNone, TypeExclusionRemove, LabelAttribute),
			authored(TypeExclusionRemove, sys, "exclusion_remove", "remove asteroid exclusion zone", PayloadNone, TypeExclusionRemoveRevert, LabelAttribute),
			revertOnly(TypeExclusionRemoveRevert, sys, "exclusion_remove", "remove asteroid exclusion zone", PayloadNone, LabelAttribute),
		},
		mutable(TypeExclusionPosX, TypeExclusionPosXRevert, sys, "exclusion_pos_x", "exclusion zone x position", PayloadFloat, LabelAttribute),
		mutable(TypeExclusionPosY, TypeExclusionPosYRevert, sys, "exclusion_pos_y", "exclusion zone y position", PayloadFloat, LabelAttribute),
		mutable(TypeExclusionRadius, TypeExclusionRadiusRevert, sys, "exclusion_radius", "exclusion zone radius", PayloadFloat, LabelAttribute),

		mutable(TypeSpobFaction, TypeSpobFactionRevert, spob, "faction", "space object faction", PayloadString),
		mutable(TypeSpobClass, TypeSpobClassRevert, spob, "class", "space object class", PayloadString),
		mutable(TypeSpobDisplayName, TypeSpobDisplayNameRevert, spob, "displayname", "space object display name", PayloadString),
		local(mutable(TypeSpobDescription, TypeSpobDescriptionRevert, spob, "description", "space object description", PayloadString)),
		local(mutable(TypeSpobBar, TypeSpobBarRevert, spob, "bar", "space object bar description", PayloadString)),
		mutable(TypeSpobGfxSpace, TypeSpobGfxSpaceRevert, spob, "gfx_space", "space object space graphic", PayloadString),
		mutable(TypeSpobGfxExterior, TypeSpobGfxExteriorRevert, spob, "gfx_exterior", "space object exterior graphic", PayloadString),
		local(mutable(TypeSpobLua, TypeSpobLuaRevert, spob, "lua", "space object script", PayloadString)),
		mutable(TypeSpobPresenceBase, TypeSpobPresenceBaseRevert, spob, "presence_base", "space object base presence", PayloadFloat),
		mutable(TypeSpobPresenceBonus, TypeSpobPresenceBonusRevert, spob, "presence_bonus", "space object bonus presence", PayloadFloat),
		mutable(TypeSpobPresenceRange, TypeSpobPresenceRangeRevert, spob, "presence_range", "space object presence range", PayloadInt),
		mutable(TypeSpobPosX, TypeSpobPosXRevert, spob, "pos_x", "space object x position", PayloadFloat),
		mutable(TypeSpobPosY, TypeSpobPosYRevert, spob, "pos_y", "space object y position", PayloadFloat),
		siblings(TypeSpobServiceAdd, TypeSpobServiceRemove, spob, "service_add", "add space object service", "service_remove", "remove space object service", PayloadString),
		siblings(TypeSpobTechAdd, TypeSpobTechRemove, spob, "tech_add", "add space object tech group", "tech_remove", "remove space object tech group", PayloadString),
		siblings(TypeSpobTagAdd, TypeSpobTagRemove, spob, "tag_add", "add space object tag", "tag_remove", "remove space object tag", PayloadString),
		siblings(TypeSpobNoMissionSpawnAdd, TypeSpobNoMissionSpawnRemove, spob, "nomissionspawn_add", "disable mission spawning", "nomissionspawn_remove", "enable mission spawning", PayloadNone),

		local(siblings(TypeTechAdd, TypeTechRemove, tech, "add", "add tech item", "remove", "remove tech item", PayloadString)),

		siblings(TypeFactionVisible, TypeFactionInvisible, fct, "visible", "make faction visible", "invisible", "make faction invisible", PayloadNone),
		mutable(TypeFactionAlly, TypeFactionAllyRevert, fct, "ally", "set faction ally", PayloadString),
		mutable(TypeFactionEnemy, TypeFactionEnemyRevert, fct, "enemy", "set faction enemy", PayloadString),
		mutable(TypeFactionNeutral, TypeFactionNeutralRevert, fct, "neutral", "set faction neutral", PayloadString),
	}

	var out [typeCount]Descriptor
	for _, group := range entries {
		for _, d := range group {
			out[d.Type] = d
		}
	}
	return out
}

func authored(t Type, target TargetKind, tag, name string, payload PayloadKind, reverse Type, attrs ...string) Descriptor {
	return Descriptor{
		Type:       t,
		Target:     target,
		Key:        target.String() + "." + tag,
		Name:       name,
		Tag:        tag,
		Payload:    payload,
		Reverse:    reverse,
		Attributes: attrs,
		Universe:   true,
	}
}

func revertOnly(t Type, target TargetKind, forwardTag, forwardName string, payload PayloadKind, attrs ...string) Descriptor {
	return Descriptor{
		Type:       t,
		Target:     target,
		Key:        target.String() + "." + forwardTag + "_revert",
		Name:       forwardName + " (revert)",
		Payload:    payload,
		Attributes: attrs,
		Universe:   true,
	}
}

// mutable describes a field write whose undo restores the captured value.
func mutable(t, revert Type, target TargetKind, tag, name string, payload PayloadKind, attrs ...string) []Descriptor {
	return []Descriptor{
		authored(t, target, tag, name, payload, revert, attrs...),
		revertOnly(revert, target, tag, name, payload, attrs...),
	}
}

// siblings describes a structural add/remove pair that undo each other.
func siblings(a, b Type, target TargetKind, tagA, nameA, tagB, nameB string, payload PayloadKind, attrs ...string) []Descriptor {
	return []Descriptor{
		authored(a, target, tagA, nameA, payload, b, attrs...),
		authored(b, target, tagB, nameB, payload, a, attrs...),
	}
}

// local clears the Universe flag for types that never touch derived state.
func local(group []Descriptor) []Descriptor {
	for i := range group {
		group[i].Universe = false
	}
	return group
}
