package world

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

type seedDocument struct {
	Active       string        `yaml:"active"`
	Factions     []Faction     `yaml:"factions"`
	Techs        []TechGroup   `yaml:"techs"`
	VirtualSpobs []VirtualSpob `yaml:"virtual_spobs"`
	Spobs        []Spob        `yaml:"spobs"`
	Systems      []seedSystem  `yaml:"systems"`
	Pilots       []Pilot       `yaml:"pilots"`
}

type seedSystem struct {
	System `yaml:",inline"`
	Jumps  []string `yaml:"jumps"`
}

// Load builds a world from a YAML universe description and computes all
// derived state.
func Load(r io.Reader) (*World, error) {
	var doc seedDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode universe: %w", err)
	}

	w := New()
	for i := range doc.Factions {
		if err := w.DefineFaction(doc.Factions[i]); err != nil {
			return nil, err
		}
	}
	for i := range doc.Techs {
		if err := w.DefineTechGroup(doc.Techs[i]); err != nil {
			return nil, err
		}
	}
	for i := range doc.VirtualSpobs {
		if err := w.DefineVirtualSpob(doc.VirtualSpobs[i]); err != nil {
			return nil, err
		}
	}
	for i := range doc.Spobs {
		if err := w.DefineSpob(doc.Spobs[i]); err != nil {
			return nil, err
		}
	}
	for i := range doc.Systems {
		seed := doc.Systems[i]
		sys := seed.System
		for _, target := range seed.Jumps {
			sys.Jumps = append(sys.Jumps, Jump{Target: target})
		}
		if err := w.DefineSystem(sys); err != nil {
			return nil, err
		}
	}
	if err := w.alignFactions(); err != nil {
		return nil, err
	}
	for i := range doc.Pilots {
		w.AddPilot(doc.Pilots[i])
	}
	w.active = doc.Active

	w.RebuildJumps()
	w.RecomputePresence()
	w.RecomputeSafeLanes()
	w.ResetPilotNavigation()
	w.ReloadGraphics()
	return w, nil
}

// LoadFile reads a universe description from path.
func LoadFile(path string) (*World, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open universe: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// DefineFaction registers a faction.
func (w *World) DefineFaction(f Faction) error {
	if f.Name == "" {
		return fmt.Errorf("faction name is required")
	}
	if _, exists := w.factions[f.Name]; exists {
		return fmt.Errorf("duplicate faction %q", f.Name)
	}
	w.factions[f.Name] = &f
	return nil
}

// DefineTechGroup registers a tech group.
func (w *World) DefineTechGroup(g TechGroup) error {
	if g.Name == "" {
		return fmt.Errorf("tech group name is required")
	}
	if _, exists := w.techs[g.Name]; exists {
		return fmt.Errorf("duplicate tech group %q", g.Name)
	}
	w.techs[g.Name] = &g
	return nil
}

// DefineVirtualSpob registers a virtual spob.
func (w *World) DefineVirtualSpob(v VirtualSpob) error {
	if v.Name == "" {
		return fmt.Errorf("virtual spob name is required")
	}
	if _, exists := w.virtualSpobs[v.Name]; exists {
		return fmt.Errorf("duplicate virtual spob %q", v.Name)
	}
	w.virtualSpobs[v.Name] = &v
	return nil
}

// DefineSpob registers an unplaced spob.
func (w *World) DefineSpob(s Spob) error {
	if s.Name == "" {
		return fmt.Errorf("spob name is required")
	}
	if _, exists := w.spobs[s.Name]; exists {
		return fmt.Errorf("duplicate spob %q", s.Name)
	}
	if s.Faction != "" {
		if _, ok := w.factions[s.Faction]; !ok {
			return fmt.Errorf("spob %q: unknown faction %q", s.Name, s.Faction)
		}
	}
	s.System = ""
	w.spobs[s.Name] = &s
	return nil
}

// DefineSystem registers a system and places its listed spobs. Spobs and
// virtual spobs must already be defined.
func (w *World) DefineSystem(s System) error {
	if s.Name == "" {
		return fmt.Errorf("system name is required")
	}
	if _, exists := w.systems[s.Name]; exists {
		return fmt.Errorf("duplicate system %q", s.Name)
	}
	for _, name := range s.Spobs {
		spob, ok := w.spobs[name]
		if !ok {
			return fmt.Errorf("system %q: unknown spob %q", s.Name, name)
		}
		if spob.System != "" {
			return fmt.Errorf("system %q: spob %q already placed in %q", s.Name, name, spob.System)
		}
	}
	for _, name := range s.VirtualSpobs {
		if _, ok := w.virtualSpobs[name]; !ok {
			return fmt.Errorf("system %q: unknown virtual spob %q", s.Name, name)
		}
	}
	labels := make(map[string]bool, len(s.Asteroids))
	for i := range s.Asteroids {
		if labels[s.Asteroids[i].Label] {
			return fmt.Errorf("system %q: duplicate asteroid label %q", s.Name, s.Asteroids[i].Label)
		}
		labels[s.Asteroids[i].Label] = true
		s.Asteroids[i] = s.Asteroids[i].Clone()
	}
	for _, name := range s.Spobs {
		w.spobs[name].System = s.Name
	}
	s.Spobs = append([]string(nil), s.Spobs...)
	s.presence = make(map[string]float64)
	w.systems[s.Name] = &s
	w.systemOrder = append(w.systemOrder, s.Name)
	return nil
}

// AddPilot registers a live pilot.
func (w *World) AddPilot(p Pilot) *Pilot {
	pilot := p
	w.pilots = append(w.pilots, &pilot)
	return &pilot
}

// alignFactions makes seeded alignments symmetric. Conflicting declarations
// are rejected.
func (w *World) alignFactions() error {
	type pair struct{ a, b string }
	declared := make(map[pair]Alignment)
	declare := func(a, b string, alignment Alignment) error {
		if _, ok := w.factions[b]; !ok {
			return fmt.Errorf("faction %q: unknown faction %q", a, b)
		}
		key := pair{a, b}
		if a > b {
			key = pair{b, a}
		}
		if prev, ok := declared[key]; ok && prev != alignment {
			return fmt.Errorf("factions %q and %q are both %s and %s", a, b, prev, alignment)
		}
		declared[key] = alignment
		return nil
	}
	for _, f := range w.factions {
		for _, other := range f.Allies {
			if err := declare(f.Name, other, Ally); err != nil {
				return err
			}
		}
		for _, other := range f.Enemies {
			if err := declare(f.Name, other, Enemy); err != nil {
				return err
			}
		}
	}
	for _, f := range w.factions {
		f.Allies = nil
		f.Enemies = nil
	}
	keys := make([]pair, 0, len(declared))
	for key := range declared {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].a != keys[j].a {
			return keys[i].a < keys[j].a
		}
		return keys[i].b < keys[j].b
	})
	for _, key := range keys {
		if _, err := w.SetAlignment(key.a, key.b, declared[key]); err != nil {
			return err
		}
	}
	return nil
}
