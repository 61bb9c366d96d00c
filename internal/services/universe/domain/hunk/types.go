package hunk

// Type identifies a hunk action. Forward types carry an authoring tag;
// *Revert types exist only as registry reverses.
type Type uint16

const (
	TypeNone Type = iota

	// Target should be a system.
	TypeSpobAdd
	TypeSpobRemove
	TypeVirtualSpobAdd
	TypeVirtualSpobRemove
	TypeJumpAdd
	TypeJumpRemove
	TypeSystemBackground
	TypeSystemBackgroundRevert
	TypeSystemFeatures
	TypeSystemFeaturesRevert
	TypeSystemDisplayName
	TypeSystemDisplayNameRevert
	TypeSystemPosX
	TypeSystemPosXRevert
	TypeSystemPosY
	TypeSystemPosYRevert
	TypeSystemDust
	TypeSystemDustRevert
	TypeSystemInterference
	TypeSystemInterferenceRevert
	TypeSystemNebulaDensity
	TypeSystemNebulaDensityRevert
	TypeSystemNebulaVolatility
	TypeSystemNebulaVolatilityRevert
	TypeSystemNebulaHue
	TypeSystemNebulaHueRevert
	TypeSystemNoLanes
	TypeSystemNoLanesRevert
	TypeSystemTagAdd
	TypeSystemTagRemove

	// Target should be a system; addressed by the label attribute.
	TypeAsteroidsAdd
	TypeAsteroidsRemove
	TypeAsteroidsRemoveRevert
	TypeAsteroidsPosX
	TypeAsteroidsPosXRevert
	TypeAsteroidsPosY
	TypeAsteroidsPosYRevert
	TypeAsteroidsDensity
	TypeAsteroidsDensityRevert
	TypeAsteroidsRadius
	TypeAsteroidsRadiusRevert
	TypeAsteroidsMaxSpeed
	TypeAsteroidsMaxSpeedRevert
	TypeAsteroidsMaxSpin
	TypeAsteroidsMaxSpinRevert
	TypeAsteroidsAccel
	TypeAsteroidsAccelRevert
	TypeAsteroidsAddType
	TypeAsteroidsRemoveType
	TypeExclusionAdd
	TypeExclusionRemove
	TypeExclusionRemoveRevert
	TypeExclusionPosX
	TypeExclusionPosXRevert
	TypeExclusionPosY
	TypeExclusionPosYRevert
	TypeExclusionRadius
	TypeExclusionRadiusRevert

	// Target should be a spob.
	TypeSpobFaction
	TypeSpobFactionRevert
	TypeSpobClass
	TypeSpobClassRevert
	TypeSpobDisplayName
	TypeSpobDisplayNameRevert
	TypeSpobDescription
	TypeSpobDescriptionRevert
	TypeSpobBar
	TypeSpobBarRevert
	TypeSpobGfxSpace
	TypeSpobGfxSpaceRevert
	TypeSpobGfxExterior
	TypeSpobGfxExteriorRevert
	TypeSpobLua
	TypeSpobLuaRevert
	TypeSpobPresenceBase
	TypeSpobPresenceBaseRevert
	TypeSpobPresenceBonus
	TypeSpobPresenceBonusRevert
	TypeSpobPresenceRange
	TypeSpobPresenceRangeRevert
	TypeSpobPosX
	TypeSpobPosXRevert
	TypeSpobPosY
	TypeSpobPosYRevert
	TypeSpobServiceAdd
	TypeSpobServiceRemove
	TypeSpobTechAdd
	TypeSpobTechRemove
	TypeSpobTagAdd
	TypeSpobTagRemove
	TypeSpobNoMissionSpawnAdd
	TypeSpobNoMissionSpawnRemove

	// Target should be a tech group.
	TypeTechAdd
	TypeTechRemove

	// Target should be a faction.
	TypeFactionVisible
	TypeFactionInvisible
	TypeFactionAlly
	TypeFactionAllyRevert
	TypeFactionEnemy
	TypeFactionEnemyRevert
	TypeFactionNeutral
	TypeFactionNeutralRevert

	typeCount
)

// Key returns the stable registry key, e.g. "system.pos_x".
func (t Type) Key() string {
	if d, ok := Describe(t); ok {
		return d.Key
	}
	return "unknown"
}

// String implements fmt.Stringer.
func (t Type) String() string {
	return t.Key()
}
