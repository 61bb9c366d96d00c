package patch

import (
	"github.com/louisbranch/starpatch/internal/services/universe/domain/hunk"
	"github.com/louisbranch/starpatch/internal/services/universe/domain/world"
)

// handlerEntry is the apply function for one hunk type. Target kind, payload
// kind, and label presence are checked by Apply before the entry runs.
type handlerEntry struct {
	apply func(*Dispatcher, *hunk.Hunk) error
}

// handlers maps every hunk type, forward and revert-only, to its entry.
var handlers = buildHandlers()

func buildHandlers() map[hunk.Type]handlerEntry {
	table := make(map[hunk.Type]handlerEntry)
	pair := func(forward, reverse hunk.Type, f, r handlerEntry) {
		table[forward] = f
		table[reverse] = r
	}

	// system
	pair(hunk.TypeSpobAdd, hunk.TypeSpobRemove,
		stringOp(Universe.AddSpob),
		stringOp(Universe.RemoveSpob))
	pair(hunk.TypeVirtualSpobAdd, hunk.TypeVirtualSpobRemove,
		stringOp(Universe.AddVirtualSpob),
		stringOp(Universe.RemoveVirtualSpob))
	pair(hunk.TypeJumpAdd, hunk.TypeJumpRemove,
		handlerEntry{apply: applyJumpAdd},
		handlerEntry{apply: applyJumpRemove})
	pair(hunk.TypeSystemTagAdd, hunk.TypeSystemTagRemove,
		stringOp(Universe.AddSystemTag),
		stringOp(Universe.RemoveSystemTag))

	f, r := scalar(systemField(func(s *world.System) *string { return &s.Background }), stringCodec)
	pair(hunk.TypeSystemBackground, hunk.TypeSystemBackgroundRevert, f, r)
	f, r = scalar(systemField(func(s *world.System) *string { return &s.Features }), stringCodec)
	pair(hunk.TypeSystemFeatures, hunk.TypeSystemFeaturesRevert, f, r)
	f, r = scalar(systemField(func(s *world.System) *string { return &s.DisplayName }), stringCodec)
	pair(hunk.TypeSystemDisplayName, hunk.TypeSystemDisplayNameRevert, f, r)
	f, r = scalar(systemField(func(s *world.System) *float64 { return &s.Pos.X }), floatCodec)
	pair(hunk.TypeSystemPosX, hunk.TypeSystemPosXRevert, f, r)
	f, r = scalar(systemField(func(s *world.System) *float64 { return &s.Pos.Y }), floatCodec)
	pair(hunk.TypeSystemPosY, hunk.TypeSystemPosYRevert, f, r)
	f, r = scalar(systemField(func(s *world.System) *int { return &s.Dust }), intCodec)
	pair(hunk.TypeSystemDust, hunk.TypeSystemDustRevert, f, r)
	f, r = scalar(systemField(func(s *world.System) *float64 { return &s.Interference }), floatCodec)
	pair(hunk.TypeSystemInterference, hunk.TypeSystemInterferenceRevert, f, r)
	f, r = scalar(systemField(func(s *world.System) *float64 { return &s.Nebula.Density }), floatCodec)
	pair(hunk.TypeSystemNebulaDensity, hunk.TypeSystemNebulaDensityRevert, f, r)
	f, r = scalar(systemField(func(s *world.System) *float64 { return &s.Nebula.Volatility }), floatCodec)
	pair(hunk.TypeSystemNebulaVolatility, hunk.TypeSystemNebulaVolatilityRevert, f, r)
	f, r = scalar(systemField(func(s *world.System) *float64 { return &s.Nebula.Hue }), floatCodec)
	pair(hunk.TypeSystemNebulaHue, hunk.TypeSystemNebulaHueRevert, f, r)
	f, r = scalar(systemField(func(s *world.System) *bool { return &s.NoLanes }), flagCodec)
	pair(hunk.TypeSystemNoLanes, hunk.TypeSystemNoLanesRevert, f, r)

	// asteroid fields and exclusion zones, addressed by label
	table[hunk.TypeAsteroidsAdd] = handlerEntry{apply: applyAsteroidsAdd}
	table[hunk.TypeAsteroidsRemove] = handlerEntry{apply: applyAsteroidsRemove}
	table[hunk.TypeAsteroidsRemoveRevert] = handlerEntry{apply: applyAsteroidsRestore}
	f, r = scalar(asteroidField(func(a *world.AsteroidField) *float64 { return &a.Pos.X }), floatCodec)
	pair(hunk.TypeAsteroidsPosX, hunk.TypeAsteroidsPosXRevert, f, r)
	f, r = scalar(asteroidField(func(a *world.AsteroidField) *float64 { return &a.Pos.Y }), floatCodec)
	pair(hunk.TypeAsteroidsPosY, hunk.TypeAsteroidsPosYRevert, f, r)
	f, r = scalar(asteroidField(func(a *world.AsteroidField) *float64 { return &a.Density }), floatCodec)
	pair(hunk.TypeAsteroidsDensity, hunk.TypeAsteroidsDensityRevert, f, r)
	f, r = scalar(asteroidField(func(a *world.AsteroidField) *float64 { return &a.Radius }), floatCodec)
	pair(hunk.TypeAsteroidsRadius, hunk.TypeAsteroidsRadiusRevert, f, r)
	f, r = scalar(asteroidField(func(a *world.AsteroidField) *float64 { return &a.MaxSpeed }), floatCodec)
	pair(hunk.TypeAsteroidsMaxSpeed, hunk.TypeAsteroidsMaxSpeedRevert, f, r)
	f, r = scalar(asteroidField(func(a *world.AsteroidField) *float64 { return &a.MaxSpin }), floatCodec)
	pair(hunk.TypeAsteroidsMaxSpin, hunk.TypeAsteroidsMaxSpinRevert, f, r)
	f, r = scalar(asteroidField(func(a *world.AsteroidField) *float64 { return &a.Accel }), floatCodec)
	pair(hunk.TypeAsteroidsAccel, hunk.TypeAsteroidsAccelRevert, f, r)
	pair(hunk.TypeAsteroidsAddType, hunk.TypeAsteroidsRemoveType,
		labeledOp(Universe.AddAsteroidType),
		labeledOp(Universe.RemoveAsteroidType))

	table[hunk.TypeExclusionAdd] = handlerEntry{apply: applyExclusionAdd}
	table[hunk.TypeExclusionRemove] = handlerEntry{apply: applyExclusionRemove}
	table[hunk.TypeExclusionRemoveRevert] = handlerEntry{apply: applyExclusionRestore}
	f, r = scalar(exclusionField(func(e *world.Exclusion) *float64 { return &e.Pos.X }), floatCodec)
	pair(hunk.TypeExclusionPosX, hunk.TypeExclusionPosXRevert, f, r)
	f, r = scalar(exclusionField(func(e *world.Exclusion) *float64 { return &e.Pos.Y }), floatCodec)
	pair(hunk.TypeExclusionPosY, hunk.TypeExclusionPosYRevert, f, r)
	f, r = scalar(exclusionField(func(e *world.Exclusion) *float64 { return &e.Radius }), floatCodec)
	pair(hunk.TypeExclusionRadius, hunk.TypeExclusionRadiusRevert, f, r)

	// spob
	table[hunk.TypeSpobFaction] = handlerEntry{apply: applySpobFaction}
	table[hunk.TypeSpobFactionRevert] = handlerEntry{apply: revertSpobFaction}
	f, r = scalar(spobField(func(s *world.Spob) *string { return &s.Class }), stringCodec)
	pair(hunk.TypeSpobClass, hunk.TypeSpobClassRevert, f, r)
	f, r = scalar(spobField(func(s *world.Spob) *string { return &s.DisplayName }), stringCodec)
	pair(hunk.TypeSpobDisplayName, hunk.TypeSpobDisplayNameRevert, f, r)
	f, r = scalar(spobField(func(s *world.Spob) *string { return &s.Description }), stringCodec)
	pair(hunk.TypeSpobDescription, hunk.TypeSpobDescriptionRevert, f, r)
	f, r = scalar(spobField(func(s *world.Spob) *string { return &s.Bar }), stringCodec)
	pair(hunk.TypeSpobBar, hunk.TypeSpobBarRevert, f, r)
	f, r = scalar(spobField(func(s *world.Spob) *string { return &s.GfxSpace }), stringCodec)
	pair(hunk.TypeSpobGfxSpace, hunk.TypeSpobGfxSpaceRevert, f, r)
	f, r = scalar(spobField(func(s *world.Spob) *string { return &s.GfxExterior }), stringCodec)
	pair(hunk.TypeSpobGfxExterior, hunk.TypeSpobGfxExteriorRevert, f, r)
	f, r = scalar(spobField(func(s *world.Spob) *string { return &s.Lua }), stringCodec)
	pair(hunk.TypeSpobLua, hunk.TypeSpobLuaRevert, f, r)
	f, r = scalar(spobField(func(s *world.Spob) *float64 { return &s.Presence.Base }), floatCodec)
	pair(hunk.TypeSpobPresenceBase, hunk.TypeSpobPresenceBaseRevert, f, r)
	f, r = scalar(spobField(func(s *world.Spob) *float64 { return &s.Presence.Bonus }), floatCodec)
	pair(hunk.TypeSpobPresenceBonus, hunk.TypeSpobPresenceBonusRevert, f, r)
	f, r = scalar(spobField(func(s *world.Spob) *int { return &s.Presence.Range }), intCodec)
	pair(hunk.TypeSpobPresenceRange, hunk.TypeSpobPresenceRangeRevert, f, r)
	f, r = scalar(spobField(func(s *world.Spob) *float64 { return &s.Pos.X }), floatCodec)
	pair(hunk.TypeSpobPosX, hunk.TypeSpobPosXRevert, f, r)
	f, r = scalar(spobField(func(s *world.Spob) *float64 { return &s.Pos.Y }), floatCodec)
	pair(hunk.TypeSpobPosY, hunk.TypeSpobPosYRevert, f, r)
	pair(hunk.TypeSpobServiceAdd, hunk.TypeSpobServiceRemove,
		stringOp(Universe.AddService),
		stringOp(Universe.RemoveService))
	pair(hunk.TypeSpobTechAdd, hunk.TypeSpobTechRemove,
		stringOp(Universe.AddSpobTech),
		stringOp(Universe.RemoveSpobTech))
	pair(hunk.TypeSpobTagAdd, hunk.TypeSpobTagRemove,
		stringOp(Universe.AddSpobTag),
		stringOp(Universe.RemoveSpobTag))
	pair(hunk.TypeSpobNoMissionSpawnAdd, hunk.TypeSpobNoMissionSpawnRemove,
		targetOp(func(u Universe, spob string) error { return u.SetNoMissionSpawn(spob, true) }),
		targetOp(func(u Universe, spob string) error { return u.SetNoMissionSpawn(spob, false) }))

	// tech
	pair(hunk.TypeTechAdd, hunk.TypeTechRemove,
		stringOp(Universe.AddTechItem),
		stringOp(Universe.RemoveTechItem))

	// faction
	pair(hunk.TypeFactionVisible, hunk.TypeFactionInvisible,
		targetOp(func(u Universe, faction string) error { return u.SetFactionVisible(faction, true) }),
		targetOp(func(u Universe, faction string) error { return u.SetFactionVisible(faction, false) }))
	pair(hunk.TypeFactionAlly, hunk.TypeFactionAllyRevert, realign(world.Ally), restoreAlignment())
	pair(hunk.TypeFactionEnemy, hunk.TypeFactionEnemyRevert, realign(world.Enemy), restoreAlignment())
	pair(hunk.TypeFactionNeutral, hunk.TypeFactionNeutralRevert, realign(world.Neutral), restoreAlignment())

	return table
}

// jumpChange records what a jump hunk did to the return link so its reverse
// touches only the links it owns.
type jumpChange struct {
	Added  bool
	Return bool
}

func applyJumpAdd(d *Dispatcher, h *hunk.Hunk) error {
	target, ok := decodeString(h.Payload)
	if !ok {
		return invalidPayload(h)
	}
	if prev, ok := hunk.CompoundOf[jumpChange](h.Old); ok && !prev.Added {
		_, err := d.universe.LinkJump(h.Target.Name, target, prev.Return)
		return err
	}
	created, err := d.universe.LinkJump(h.Target.Name, target, true)
	if err != nil {
		return err
	}
	h.Old = hunk.Compound[jumpChange]{Value: jumpChange{Added: true, Return: created}}
	return nil
}

func applyJumpRemove(d *Dispatcher, h *hunk.Hunk) error {
	target, ok := decodeString(h.Payload)
	if !ok {
		return invalidPayload(h)
	}
	if prev, ok := hunk.CompoundOf[jumpChange](h.Old); ok && prev.Added {
		_, err := d.universe.UnlinkJump(h.Target.Name, target, prev.Return)
		return err
	}
	removed, err := d.universe.UnlinkJump(h.Target.Name, target, true)
	if err != nil {
		return err
	}
	h.Old = hunk.Compound[jumpChange]{Value: jumpChange{Return: removed}}
	return nil
}

func applyAsteroidsAdd(d *Dispatcher, h *hunk.Hunk) error {
	label, _ := h.Label()
	return d.universe.AddAsteroidField(h.Target.Name, world.DefaultAsteroidField(label))
}

func applyAsteroidsRemove(d *Dispatcher, h *hunk.Hunk) error {
	label, _ := h.Label()
	removed, err := d.universe.RemoveAsteroidField(h.Target.Name, label)
	if err != nil {
		return err
	}
	removed.Field = removed.Field.Clone()
	h.Old = hunk.Compound[world.RemovedAsteroidField]{Value: removed}
	return nil
}

func applyAsteroidsRestore(d *Dispatcher, h *hunk.Hunk) error {
	removed, ok := hunk.CompoundOf[world.RemovedAsteroidField](h.Old)
	if !ok {
		return revertUnavailable(h)
	}
	return d.universe.RestoreAsteroidField(h.Target.Name, removed)
}

// defaultExclusionRadius is the radius of a freshly added exclusion zone.
const defaultExclusionRadius = 1000

func applyExclusionAdd(d *Dispatcher, h *hunk.Hunk) error {
	label, _ := h.Label()
	return d.universe.AddExclusion(h.Target.Name, world.Exclusion{Label: label, Radius: defaultExclusionRadius})
}

func applyExclusionRemove(d *Dispatcher, h *hunk.Hunk) error {
	label, _ := h.Label()
	removed, err := d.universe.RemoveExclusion(h.Target.Name, label)
	if err != nil {
		return err
	}
	h.Old = hunk.Compound[world.RemovedExclusion]{Value: removed}
	return nil
}

func applyExclusionRestore(d *Dispatcher, h *hunk.Hunk) error {
	removed, ok := hunk.CompoundOf[world.RemovedExclusion](h.Old)
	if !ok {
		return revertUnavailable(h)
	}
	return d.universe.RestoreExclusion(h.Target.Name, removed)
}

func applySpobFaction(d *Dispatcher, h *hunk.Hunk) error {
	faction, ok := decodeString(h.Payload)
	if !ok {
		return invalidPayload(h)
	}
	previous, err := d.universe.SetSpobFaction(h.Target.Name, faction)
	if err != nil {
		return err
	}
	h.Old = hunk.Scalar{Value: hunk.StringPayload(previous)}
	return nil
}

func revertSpobFaction(d *Dispatcher, h *hunk.Hunk) error {
	old, ok := hunk.ScalarOf(h.Old)
	if !ok {
		return revertUnavailable(h)
	}
	faction, ok := decodeString(old)
	if !ok {
		return revertUnavailable(h)
	}
	_, err := d.universe.SetSpobFaction(h.Target.Name, faction)
	return err
}

// realign sets the target faction's standing toward the payload faction and
// captures the previous standing.
func realign(alignment world.Alignment) handlerEntry {
	return handlerEntry{apply: func(d *Dispatcher, h *hunk.Hunk) error {
		other, ok := decodeString(h.Payload)
		if !ok {
			return invalidPayload(h)
		}
		previous, err := d.universe.SetAlignment(h.Target.Name, other, alignment)
		if err != nil {
			return err
		}
		h.Old = hunk.Scalar{Value: hunk.IntPayload(previous)}
		return nil
	}}
}

func restoreAlignment() handlerEntry {
	return handlerEntry{apply: func(d *Dispatcher, h *hunk.Hunk) error {
		other, ok := decodeString(h.Payload)
		if !ok {
			return invalidPayload(h)
		}
		old, ok := hunk.ScalarOf(h.Old)
		if !ok {
			return revertUnavailable(h)
		}
		previous, ok := old.(hunk.IntPayload)
		if !ok {
			return revertUnavailable(h)
		}
		_, err := d.universe.SetAlignment(h.Target.Name, other, world.Alignment(previous))
		return err
	}}
}
