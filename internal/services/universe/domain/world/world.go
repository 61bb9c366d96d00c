package world

import (
	"slices"
	"sort"
)

// Vec2 is a position in system or galaxy coordinates.
type Vec2 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Alignment is the pairwise standing between two factions.
type Alignment int8

const (
	Neutral Alignment = iota
	Ally
	Enemy
)

func (a Alignment) String() string {
	switch a {
	case Ally:
		return "ally"
	case Enemy:
		return "enemy"
	default:
		return "neutral"
	}
}

// Nebula describes a system's nebula.
type Nebula struct {
	Density    float64 `yaml:"density"`
	Volatility float64 `yaml:"volatility"`
	Hue        float64 `yaml:"hue"`
}

// Jump is one outgoing jump link.
type Jump struct {
	Target string
	dest   *System
}

// Dest returns the resolved destination; nil until jumps are rebuilt.
func (j Jump) Dest() *System {
	return j.dest
}

// Lane is a safe lane between two spobs of the same faction.
type Lane struct {
	Faction string
	A, B    string
}

// System is a star system.
type System struct {
	Name         string          `yaml:"name"`
	DisplayName  string          `yaml:"displayname"`
	Pos          Vec2            `yaml:"pos"`
	Background   string          `yaml:"background"`
	Features     string          `yaml:"features"`
	Dust         int             `yaml:"dust"`
	Interference float64         `yaml:"interference"`
	Nebula       Nebula          `yaml:"nebula"`
	NoLanes      bool            `yaml:"nolanes"`
	Tags         []string        `yaml:"tags"`
	Spobs        []string        `yaml:"spobs"`
	VirtualSpobs []string        `yaml:"virtual_spobs"`
	Asteroids    []AsteroidField `yaml:"asteroids"`
	Exclusions   []Exclusion     `yaml:"exclusions"`
	Jumps        []Jump          `yaml:"-"`

	presence map[string]float64
	lanes    []Lane
}

// HasJump reports whether the system links to target.
func (s *System) HasJump(target string) bool {
	return s.jumpIndex(target) >= 0
}

func (s *System) jumpIndex(target string) int {
	return slices.IndexFunc(s.Jumps, func(j Jump) bool { return j.Target == target })
}

// JumpTargets returns outgoing jump targets in link order.
func (s *System) JumpTargets() []string {
	out := make([]string, 0, len(s.Jumps))
	for _, j := range s.Jumps {
		out = append(out, j.Target)
	}
	return out
}

// HasSpob reports whether the named spob is in the system.
func (s *System) HasSpob(name string) bool {
	return slices.Contains(s.Spobs, name)
}

// AsteroidField returns the index of the labeled field.
func (s *System) AsteroidField(label string) (int, bool) {
	i := slices.IndexFunc(s.Asteroids, func(f AsteroidField) bool { return f.Label == label })
	return i, i >= 0
}

// Exclusion returns the index of the labeled exclusion zone.
func (s *System) Exclusion(label string) (int, bool) {
	i := slices.IndexFunc(s.Exclusions, func(e Exclusion) bool { return e.Label == label })
	return i, i >= 0
}

// Presence returns the aggregate presence of faction in the system.
func (s *System) Presence(faction string) float64 {
	return s.presence[faction]
}

// Presences returns a copy of the aggregate presence map.
func (s *System) Presences() map[string]float64 {
	out := make(map[string]float64, len(s.presence))
	for k, v := range s.presence {
		out[k] = v
	}
	return out
}

// Lanes returns the computed safe lanes.
func (s *System) Lanes() []Lane {
	return append([]Lane(nil), s.lanes...)
}

// SpobPresence is a spob's contribution to faction presence.
type SpobPresence struct {
	Base  float64 `yaml:"base"`
	Bonus float64 `yaml:"bonus"`
	Range int     `yaml:"range"`
}

// Spob is a space object: planet, station, or similar.
type Spob struct {
	Name           string       `yaml:"name"`
	DisplayName    string       `yaml:"displayname"`
	Class          string       `yaml:"class"`
	Faction        string       `yaml:"faction"`
	Presence       SpobPresence `yaml:"presence"`
	Description    string       `yaml:"description"`
	Bar            string       `yaml:"bar"`
	GfxSpace       string       `yaml:"gfx_space"`
	GfxExterior    string       `yaml:"gfx_exterior"`
	Lua            string       `yaml:"lua"`
	Pos            Vec2         `yaml:"pos"`
	Services       []string     `yaml:"services"`
	Tags           []string     `yaml:"tags"`
	Techs          []string     `yaml:"techs"`
	NoMissionSpawn bool         `yaml:"nomissionspawn"`

	// System is the owning system, empty while the spob is unplaced.
	System string `yaml:"-"`
}

// FactionPresence is a fixed presence contribution.
type FactionPresence struct {
	Faction string  `yaml:"faction"`
	Value   float64 `yaml:"value"`
}

// VirtualSpob is a presence source with no physical body.
type VirtualSpob struct {
	Name      string            `yaml:"name"`
	Presences []FactionPresence `yaml:"presences"`
}

// TechGroup is a named list of tech items.
type TechGroup struct {
	Name  string   `yaml:"name"`
	Items []string `yaml:"items"`
}

// Faction holds visibility and pairwise alignments.
type Faction struct {
	Name      string   `yaml:"name"`
	Invisible bool     `yaml:"invisible"`
	Allies    []string `yaml:"allies"`
	Enemies   []string `yaml:"enemies"`
}

// Alignment returns the standing toward other.
func (f *Faction) Alignment(other string) Alignment {
	switch {
	case slices.Contains(f.Allies, other):
		return Ally
	case slices.Contains(f.Enemies, other):
		return Enemy
	default:
		return Neutral
	}
}

func (f *Faction) setAlignment(other string, alignment Alignment) {
	f.Allies = removeString(f.Allies, other)
	f.Enemies = removeString(f.Enemies, other)
	switch alignment {
	case Ally:
		f.Allies = append(f.Allies, other)
	case Enemy:
		f.Enemies = append(f.Enemies, other)
	}
}

// AsteroidField is an anonymous field inside a system, addressed by label.
type AsteroidField struct {
	Label    string   `yaml:"label"`
	Pos      Vec2     `yaml:"pos"`
	Density  float64  `yaml:"density"`
	Radius   float64  `yaml:"radius"`
	MaxSpeed float64  `yaml:"maxspeed"`
	MaxSpin  float64  `yaml:"maxspin"`
	Accel    float64  `yaml:"accel"`
	Types    []string `yaml:"types"`
}

// DefaultAsteroidField returns a new field with stock parameters.
func DefaultAsteroidField(label string) AsteroidField {
	return AsteroidField{
		Label:    label,
		Density:  0.2,
		Radius:   2500,
		MaxSpeed: 20,
		MaxSpin:  0.3,
		Accel:    1,
	}
}

// Clone returns a copy that owns its type list.
func (f AsteroidField) Clone() AsteroidField {
	cloned := f
	if f.Types != nil {
		cloned.Types = append([]string(nil), f.Types...)
	}
	return cloned
}

// Exclusion is a zone where asteroids do not spawn.
type Exclusion struct {
	Label  string  `yaml:"label"`
	Pos    Vec2    `yaml:"pos"`
	Radius float64 `yaml:"radius"`
}

// RemovedAsteroidField is a removed field plus its former position.
type RemovedAsteroidField struct {
	Field AsteroidField
	Index int
}

// RemovedExclusion is a removed exclusion zone plus its former position.
type RemovedExclusion struct {
	Zone  Exclusion
	Index int
}

// Pilot is a live ship with navigation targets.
type Pilot struct {
	ID           int    `yaml:"id"`
	Name         string `yaml:"name"`
	System       string `yaml:"system"`
	NavSpob      string `yaml:"nav_spob"`
	NavJump      string `yaml:"nav_jump"`
	Hyperspacing bool   `yaml:"hyperspacing"`
	// HyperspaceAborted is set when a navigation reset cancelled a jump.
	HyperspaceAborted bool `yaml:"-"`
}

// World is the mutable universe.
type World struct {
	systems      map[string]*System
	systemOrder  []string
	spobs        map[string]*Spob
	virtualSpobs map[string]*VirtualSpob
	techs        map[string]*TechGroup
	factions     map[string]*Faction
	pilots       []*Pilot

	active        string
	graphics      []string
	graphicsLoads int
}

// New returns an empty world.
func New() *World {
	return &World{
		systems:      make(map[string]*System),
		spobs:        make(map[string]*Spob),
		virtualSpobs: make(map[string]*VirtualSpob),
		techs:        make(map[string]*TechGroup),
		factions:     make(map[string]*Faction),
	}
}

// System looks up a system by name.
func (w *World) System(name string) (*System, bool) {
	s, ok := w.systems[name]
	return s, ok
}

// Systems returns every system in definition order.
func (w *World) Systems() []*System {
	out := make([]*System, 0, len(w.systemOrder))
	for _, name := range w.systemOrder {
		out = append(out, w.systems[name])
	}
	return out
}

// Spob looks up a spob by name.
func (w *World) Spob(name string) (*Spob, bool) {
	s, ok := w.spobs[name]
	return s, ok
}

// VirtualSpob looks up a virtual spob by name.
func (w *World) VirtualSpob(name string) (*VirtualSpob, bool) {
	v, ok := w.virtualSpobs[name]
	return v, ok
}

// TechGroup looks up a tech group by name.
func (w *World) TechGroup(name string) (*TechGroup, bool) {
	g, ok := w.techs[name]
	return g, ok
}

// Faction looks up a faction by name.
func (w *World) Faction(name string) (*Faction, bool) {
	f, ok := w.factions[name]
	return f, ok
}

// Pilots returns the live pilots.
func (w *World) Pilots() []*Pilot {
	return append([]*Pilot(nil), w.pilots...)
}

// ActiveSystem returns the system graphics are loaded for.
func (w *World) ActiveSystem() string {
	return w.active
}

// SetActiveSystem selects the system graphics are loaded for.
func (w *World) SetActiveSystem(name string) {
	w.active = name
}

// LoadedGraphics returns the graphics paths loaded for the active system.
func (w *World) LoadedGraphics() []string {
	return append([]string(nil), w.graphics...)
}

// GraphicsLoads counts graphics reloads.
func (w *World) GraphicsLoads() int {
	return w.graphicsLoads
}

// SpobNames returns every spob name sorted.
func (w *World) SpobNames() []string {
	out := make([]string, 0, len(w.spobs))
	for name := range w.spobs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func removeString(values []string, target string) []string {
	out := slices.DeleteFunc(values, func(v string) bool { return v == target })
	if len(out) == 0 {
		return nil
	}
	return out
}

// deleteAt removes element i, returning nil once the slice is empty.
func deleteAt[T any](values []T, i int) []T {
	out := slices.Delete(values, i, i+1)
	if len(out) == 0 {
		return nil
	}
	return out
}
