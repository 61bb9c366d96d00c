package world

import (
	"slices"

	apperrors "github.com/louisbranch/starpatch/internal/platform/errors"
)

// Services a spob may offer.
var knownServices = []string{"land", "refuel", "bar", "missions", "commodity", "outfits", "shipyard", "blackmarket"}

func notFound(kind, name string) error {
	return apperrors.WithMetadata(apperrors.CodeTargetNotFound, kind+" not found", map[string]string{
		"kind": kind,
		"name": name,
	})
}

func precondition(message string, metadata map[string]string) error {
	return apperrors.WithMetadata(apperrors.CodeHunkPrecondition, message, metadata)
}

func (w *World) system(name string) (*System, error) {
	s, ok := w.systems[name]
	if !ok {
		return nil, notFound("system", name)
	}
	return s, nil
}

func (w *World) spob(name string) (*Spob, error) {
	s, ok := w.spobs[name]
	if !ok {
		return nil, notFound("spob", name)
	}
	return s, nil
}

func (w *World) faction(name string) (*Faction, error) {
	f, ok := w.factions[name]
	if !ok {
		return nil, notFound("faction", name)
	}
	return f, nil
}

// AddSpob places spob into system.
func (w *World) AddSpob(system, spob string) error {
	sys, err := w.system(system)
	if err != nil {
		return err
	}
	s, err := w.spob(spob)
	if err != nil {
		return err
	}
	if s.System != "" {
		return precondition("spob already placed", map[string]string{"spob": spob, "system": s.System})
	}
	sys.Spobs = append(sys.Spobs, spob)
	s.System = system
	return nil
}

// RemoveSpob detaches spob from system.
func (w *World) RemoveSpob(system, spob string) error {
	sys, err := w.system(system)
	if err != nil {
		return err
	}
	s, err := w.spob(spob)
	if err != nil {
		return err
	}
	if !sys.HasSpob(spob) {
		return precondition("spob not in system", map[string]string{"spob": spob, "system": system})
	}
	sys.Spobs = removeString(sys.Spobs, spob)
	s.System = ""
	return nil
}

// AddVirtualSpob attaches a virtual spob to system.
func (w *World) AddVirtualSpob(system, name string) error {
	sys, err := w.system(system)
	if err != nil {
		return err
	}
	if _, ok := w.virtualSpobs[name]; !ok {
		return notFound("virtual spob", name)
	}
	if slices.Contains(sys.VirtualSpobs, name) {
		return precondition("virtual spob already in system", map[string]string{"virtual_spob": name, "system": system})
	}
	sys.VirtualSpobs = append(sys.VirtualSpobs, name)
	return nil
}

// RemoveVirtualSpob detaches a virtual spob from system.
func (w *World) RemoveVirtualSpob(system, name string) error {
	sys, err := w.system(system)
	if err != nil {
		return err
	}
	if !slices.Contains(sys.VirtualSpobs, name) {
		return precondition("virtual spob not in system", map[string]string{"virtual_spob": name, "system": system})
	}
	sys.VirtualSpobs = removeString(sys.VirtualSpobs, name)
	return nil
}

// AddJump links system and target in both directions.
func (w *World) AddJump(system, target string) error {
	_, err := w.LinkJump(system, target, true)
	return err
}

// RemoveJump unlinks system and target in both directions.
func (w *World) RemoveJump(system, target string) error {
	_, err := w.UnlinkJump(system, target, true)
	return err
}

// LinkJump adds the jump from system to target. With back set it also adds
// the return link when target lacks one; created reports whether it did.
func (w *World) LinkJump(system, target string, back bool) (created bool, err error) {
	sys, err := w.system(system)
	if err != nil {
		return false, err
	}
	dst, err := w.system(target)
	if err != nil {
		return false, err
	}
	if system == target {
		return false, precondition("jump to self", map[string]string{"system": system})
	}
	if sys.HasJump(target) {
		return false, precondition("jump already exists", map[string]string{"system": system, "target": target})
	}
	sys.Jumps = append(sys.Jumps, Jump{Target: target, dest: dst})
	if back && !dst.HasJump(system) {
		dst.Jumps = append(dst.Jumps, Jump{Target: system, dest: sys})
		created = true
	}
	return created, nil
}

// UnlinkJump removes the jump from system to target. With back set it also
// removes the return link when present; removed reports whether it did.
func (w *World) UnlinkJump(system, target string, back bool) (removed bool, err error) {
	sys, err := w.system(system)
	if err != nil {
		return false, err
	}
	i := sys.jumpIndex(target)
	if i < 0 {
		return false, precondition("jump does not exist", map[string]string{"system": system, "target": target})
	}
	sys.Jumps = deleteAt(sys.Jumps, i)
	if !back {
		return false, nil
	}
	if dst, ok := w.systems[target]; ok {
		if j := dst.jumpIndex(system); j >= 0 {
			dst.Jumps = deleteAt(dst.Jumps, j)
			removed = true
		}
	}
	return removed, nil
}

// AddSystemTag tags a system.
func (w *World) AddSystemTag(system, tag string) error {
	sys, err := w.system(system)
	if err != nil {
		return err
	}
	return addUnique(&sys.Tags, tag, "system tag", system)
}

// RemoveSystemTag untags a system.
func (w *World) RemoveSystemTag(system, tag string) error {
	sys, err := w.system(system)
	if err != nil {
		return err
	}
	return removeExisting(&sys.Tags, tag, "system tag", system)
}

// AddSpobTag tags a spob.
func (w *World) AddSpobTag(spob, tag string) error {
	s, err := w.spob(spob)
	if err != nil {
		return err
	}
	return addUnique(&s.Tags, tag, "spob tag", spob)
}

// RemoveSpobTag untags a spob.
func (w *World) RemoveSpobTag(spob, tag string) error {
	s, err := w.spob(spob)
	if err != nil {
		return err
	}
	return removeExisting(&s.Tags, tag, "spob tag", spob)
}

// AddService enables a service on a spob.
func (w *World) AddService(spob, service string) error {
	s, err := w.spob(spob)
	if err != nil {
		return err
	}
	if !slices.Contains(knownServices, service) {
		return apperrors.WithMetadata(apperrors.CodePayloadInvalid, "unknown service", map[string]string{"service": service})
	}
	return addUnique(&s.Services, service, "service", spob)
}

// RemoveService disables a service on a spob.
func (w *World) RemoveService(spob, service string) error {
	s, err := w.spob(spob)
	if err != nil {
		return err
	}
	return removeExisting(&s.Services, service, "service", spob)
}

// AddSpobTech attaches a tech group name to a spob. The group itself is
// resolved lazily so it may be defined later.
func (w *World) AddSpobTech(spob, group string) error {
	s, err := w.spob(spob)
	if err != nil {
		return err
	}
	return addUnique(&s.Techs, group, "spob tech", spob)
}

// RemoveSpobTech detaches a tech group name from a spob.
func (w *World) RemoveSpobTech(spob, group string) error {
	s, err := w.spob(spob)
	if err != nil {
		return err
	}
	return removeExisting(&s.Techs, group, "spob tech", spob)
}

// SetNoMissionSpawn toggles mission spawning on a spob.
func (w *World) SetNoMissionSpawn(spob string, disabled bool) error {
	s, err := w.spob(spob)
	if err != nil {
		return err
	}
	if s.NoMissionSpawn == disabled {
		return precondition("mission spawn flag unchanged", map[string]string{"spob": spob})
	}
	s.NoMissionSpawn = disabled
	return nil
}

// SetSpobFaction changes a spob's owner. An empty faction clears ownership.
func (w *World) SetSpobFaction(spob, faction string) (string, error) {
	s, err := w.spob(spob)
	if err != nil {
		return "", err
	}
	if faction != "" {
		if _, err := w.faction(faction); err != nil {
			return "", err
		}
	}
	previous := s.Faction
	s.Faction = faction
	return previous, nil
}

// AddTechItem appends an item to a tech group.
func (w *World) AddTechItem(group, item string) error {
	g, ok := w.techs[group]
	if !ok {
		return notFound("tech", group)
	}
	return addUnique(&g.Items, item, "tech item", group)
}

// RemoveTechItem removes an item from a tech group.
func (w *World) RemoveTechItem(group, item string) error {
	g, ok := w.techs[group]
	if !ok {
		return notFound("tech", group)
	}
	return removeExisting(&g.Items, item, "tech item", group)
}

// SetFactionVisible changes faction visibility.
func (w *World) SetFactionVisible(faction string, visible bool) error {
	f, err := w.faction(faction)
	if err != nil {
		return err
	}
	if f.Invisible == !visible {
		return precondition("faction visibility unchanged", map[string]string{"faction": faction})
	}
	f.Invisible = !visible
	return nil
}

// SetAlignment sets the standing between a and b in both directions and
// returns the previous standing of a toward b.
func (w *World) SetAlignment(a, b string, alignment Alignment) (Alignment, error) {
	fa, err := w.faction(a)
	if err != nil {
		return Neutral, err
	}
	fb, err := w.faction(b)
	if err != nil {
		return Neutral, err
	}
	if a == b {
		return Neutral, precondition("faction aligned with itself", map[string]string{"faction": a})
	}
	previous := fa.Alignment(b)
	fa.setAlignment(b, alignment)
	fb.setAlignment(a, alignment)
	return previous, nil
}

// AddAsteroidField appends a labeled field to system.
func (w *World) AddAsteroidField(system string, field AsteroidField) error {
	sys, err := w.system(system)
	if err != nil {
		return err
	}
	if _, exists := sys.AsteroidField(field.Label); exists {
		return precondition("asteroid field label in use", map[string]string{"system": system, "label": field.Label})
	}
	sys.Asteroids = append(sys.Asteroids, field.Clone())
	return nil
}

// RemoveAsteroidField removes a labeled field and returns it with its index.
func (w *World) RemoveAsteroidField(system, label string) (RemovedAsteroidField, error) {
	sys, err := w.system(system)
	if err != nil {
		return RemovedAsteroidField{}, err
	}
	i, ok := sys.AsteroidField(label)
	if !ok {
		return RemovedAsteroidField{}, labelNotFound("asteroid field", system, label)
	}
	removed := RemovedAsteroidField{Field: sys.Asteroids[i], Index: i}
	sys.Asteroids = deleteAt(sys.Asteroids, i)
	return removed, nil
}

// RestoreAsteroidField reinserts a removed field at its former index.
func (w *World) RestoreAsteroidField(system string, removed RemovedAsteroidField) error {
	sys, err := w.system(system)
	if err != nil {
		return err
	}
	if _, exists := sys.AsteroidField(removed.Field.Label); exists {
		return precondition("asteroid field label in use", map[string]string{"system": system, "label": removed.Field.Label})
	}
	i := min(max(removed.Index, 0), len(sys.Asteroids))
	sys.Asteroids = slices.Insert(sys.Asteroids, i, removed.Field.Clone())
	return nil
}

// AsteroidFieldRef returns the labeled field for in-place edits.
func (w *World) AsteroidFieldRef(system, label string) (*AsteroidField, error) {
	sys, err := w.system(system)
	if err != nil {
		return nil, err
	}
	i, ok := sys.AsteroidField(label)
	if !ok {
		return nil, labelNotFound("asteroid field", system, label)
	}
	return &sys.Asteroids[i], nil
}

// AddAsteroidType adds an asteroid type to a labeled field.
func (w *World) AddAsteroidType(system, label, typ string) error {
	f, err := w.AsteroidFieldRef(system, label)
	if err != nil {
		return err
	}
	return addUnique(&f.Types, typ, "asteroid type", label)
}

// RemoveAsteroidType removes an asteroid type from a labeled field.
func (w *World) RemoveAsteroidType(system, label, typ string) error {
	f, err := w.AsteroidFieldRef(system, label)
	if err != nil {
		return err
	}
	return removeExisting(&f.Types, typ, "asteroid type", label)
}

// AddExclusion appends a labeled exclusion zone to system.
func (w *World) AddExclusion(system string, zone Exclusion) error {
	sys, err := w.system(system)
	if err != nil {
		return err
	}
	if _, exists := sys.Exclusion(zone.Label); exists {
		return precondition("exclusion label in use", map[string]string{"system": system, "label": zone.Label})
	}
	sys.Exclusions = append(sys.Exclusions, zone)
	return nil
}

// RemoveExclusion removes a labeled exclusion zone and returns it with its index.
func (w *World) RemoveExclusion(system, label string) (RemovedExclusion, error) {
	sys, err := w.system(system)
	if err != nil {
		return RemovedExclusion{}, err
	}
	i, ok := sys.Exclusion(label)
	if !ok {
		return RemovedExclusion{}, labelNotFound("exclusion", system, label)
	}
	removed := RemovedExclusion{Zone: sys.Exclusions[i], Index: i}
	sys.Exclusions = deleteAt(sys.Exclusions, i)
	return removed, nil
}

// RestoreExclusion reinserts a removed zone at its former index.
func (w *World) RestoreExclusion(system string, removed RemovedExclusion) error {
	sys, err := w.system(system)
	if err != nil {
		return err
	}
	if _, exists := sys.Exclusion(removed.Zone.Label); exists {
		return precondition("exclusion label in use", map[string]string{"system": system, "label": removed.Zone.Label})
	}
	i := min(max(removed.Index, 0), len(sys.Exclusions))
	sys.Exclusions = slices.Insert(sys.Exclusions, i, removed.Zone)
	return nil
}

// ExclusionRef returns the labeled zone for in-place edits.
func (w *World) ExclusionRef(system, label string) (*Exclusion, error) {
	sys, err := w.system(system)
	if err != nil {
		return nil, err
	}
	i, ok := sys.Exclusion(label)
	if !ok {
		return nil, labelNotFound("exclusion", system, label)
	}
	return &sys.Exclusions[i], nil
}

// SystemRef returns the named system or a not-found error.
func (w *World) SystemRef(name string) (*System, error) {
	return w.system(name)
}

// SpobRef returns the named spob or a not-found error.
func (w *World) SpobRef(name string) (*Spob, error) {
	return w.spob(name)
}

func labelNotFound(kind, system, label string) error {
	return apperrors.WithMetadata(apperrors.CodeLabelNotFound, kind+" label not found", map[string]string{
		"system": system,
		"label":  label,
	})
}

func addUnique(values *[]string, value, kind, owner string) error {
	if slices.Contains(*values, value) {
		return precondition(kind+" already present", map[string]string{"owner": owner, "value": value})
	}
	*values = append(*values, value)
	return nil
}

func removeExisting(values *[]string, value, kind, owner string) error {
	if !slices.Contains(*values, value) {
		return precondition(kind+" not present", map[string]string{"owner": owner, "value": value})
	}
	*values = removeString(*values, value)
	return nil
}
