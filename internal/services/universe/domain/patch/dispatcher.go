// Package patch dispatches hunks to world mutation primitives.
//
// Apply performs the mutation a hunk describes, capturing whatever Revert
// needs into the hunk's Old slot. Revert applies the registry's reverse type
// to the same hunk. Every registered hunk type must have a handler; New
// refuses to build a dispatcher otherwise.
package patch

import (
	"errors"
	"fmt"

	apperrors "github.com/louisbranch/starpatch/internal/platform/errors"
	"github.com/louisbranch/starpatch/internal/services/universe/domain/hunk"
	"github.com/louisbranch/starpatch/internal/services/universe/domain/world"
)

// ErrUniverseRequired is returned when New is called without a universe.
var ErrUniverseRequired = errors.New("patch: universe is required")

// Universe is the mutable world the dispatcher writes to.
type Universe interface {
	SystemRef(name string) (*world.System, error)
	SpobRef(name string) (*world.Spob, error)
	AsteroidFieldRef(system, label string) (*world.AsteroidField, error)
	ExclusionRef(system, label string) (*world.Exclusion, error)

	AddSpob(system, spob string) error
	RemoveSpob(system, spob string) error
	AddVirtualSpob(system, name string) error
	RemoveVirtualSpob(system, name string) error
	LinkJump(system, target string, back bool) (bool, error)
	UnlinkJump(system, target string, back bool) (bool, error)
	AddSystemTag(system, tag string) error
	RemoveSystemTag(system, tag string) error

	AddAsteroidField(system string, field world.AsteroidField) error
	RemoveAsteroidField(system, label string) (world.RemovedAsteroidField, error)
	RestoreAsteroidField(system string, removed world.RemovedAsteroidField) error
	AddAsteroidType(system, label, typ string) error
	RemoveAsteroidType(system, label, typ string) error
	AddExclusion(system string, zone world.Exclusion) error
	RemoveExclusion(system, label string) (world.RemovedExclusion, error)
	RestoreExclusion(system string, removed world.RemovedExclusion) error

	SetSpobFaction(spob, faction string) (string, error)
	AddService(spob, service string) error
	RemoveService(spob, service string) error
	AddSpobTech(spob, group string) error
	RemoveSpobTech(spob, group string) error
	AddSpobTag(spob, tag string) error
	RemoveSpobTag(spob, tag string) error
	SetNoMissionSpawn(spob string, disabled bool) error

	AddTechItem(group, item string) error
	RemoveTechItem(group, item string) error

	SetFactionVisible(faction string, visible bool) error
	SetAlignment(a, b string, alignment world.Alignment) (world.Alignment, error)
}

// ChangeNotifier is told when a successful mutation may have staled derived
// universe state.
type ChangeNotifier interface {
	MarkChanged()
}

// Dispatcher applies and reverts hunks against a Universe.
type Dispatcher struct {
	universe Universe
	notifier ChangeNotifier
	handlers map[hunk.Type]handlerEntry
}

// New builds a dispatcher. notifier may be nil.
func New(u Universe, notifier ChangeNotifier) (*Dispatcher, error) {
	if u == nil {
		return nil, ErrUniverseRequired
	}
	if err := verifyCoverage(handlers); err != nil {
		return nil, err
	}
	return &Dispatcher{universe: u, notifier: notifier, handlers: handlers}, nil
}

// Apply performs h against the universe, filling h.Old for mutation and
// compound-removal types. On failure the universe is left untouched.
func (d *Dispatcher) Apply(h *hunk.Hunk) error {
	if h == nil {
		return apperrors.New(apperrors.CodeHunkTypeUnknown, "hunk is required")
	}
	desc, ok := hunk.Describe(h.Type)
	if !ok {
		return apperrors.WithMetadata(apperrors.CodeHunkTypeUnknown, "unknown hunk type", map[string]string{
			"type": fmt.Sprint(uint16(h.Type)),
		})
	}
	entry, ok := d.handlers[h.Type]
	if !ok {
		return apperrors.WithMetadata(apperrors.CodeHunkTypeUnknown, "no handler for hunk type", map[string]string{"type": desc.Key})
	}
	if h.Target.Kind != desc.Target {
		return apperrors.WithMetadata(apperrors.CodeHunkTypeUnknown, "hunk type does not apply to target kind", map[string]string{
			"type":   desc.Key,
			"target": h.Target.Kind.String(),
		})
	}
	if got := payloadKind(h.Payload); got != desc.Payload {
		return apperrors.WithMetadata(apperrors.CodePayloadInvalid, "payload kind mismatch", map[string]string{
			"type": desc.Key,
			"want": desc.Payload.String(),
			"got":  got.String(),
		})
	}
	if desc.RequiresLabel() {
		if _, ok := h.Label(); !ok {
			return apperrors.WithMetadata(apperrors.CodeLabelRequired, "label attribute is required", map[string]string{
				"type":   desc.Key,
				"target": h.Target.Name,
			})
		}
	}
	if err := entry.apply(d, h); err != nil {
		return err
	}
	if desc.Universe && d.notifier != nil {
		d.notifier.MarkChanged()
	}
	return nil
}

// Revert undoes a previously applied h by applying its reverse type. The
// captured Old value is read from h; h itself is not modified.
func (d *Dispatcher) Revert(h *hunk.Hunk) error {
	if h == nil {
		return apperrors.New(apperrors.CodeHunkTypeUnknown, "hunk is required")
	}
	reverse := hunk.Reverse(h.Type)
	if reverse == hunk.TypeNone {
		return apperrors.WithMetadata(apperrors.CodeRevertUnavailable, "hunk type has no reverse", map[string]string{
			"type": h.Type.Key(),
		})
	}
	undo := h.WithType(reverse)
	return d.Apply(&undo)
}

func payloadKind(p hunk.Payload) hunk.PayloadKind {
	if p == nil {
		return hunk.PayloadNone
	}
	return p.Kind()
}

func verifyCoverage(table map[hunk.Type]handlerEntry) error {
	var errs []error
	for _, t := range hunk.Types() {
		if _, ok := table[t]; !ok {
			errs = append(errs, fmt.Errorf("hunk type %s has no handler", t.Key()))
		}
	}
	return errors.Join(errs...)
}
