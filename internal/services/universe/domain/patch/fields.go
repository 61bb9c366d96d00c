package patch

import (
	apperrors "github.com/louisbranch/starpatch/internal/platform/errors"
	"github.com/louisbranch/starpatch/internal/services/universe/domain/hunk"
	"github.com/louisbranch/starpatch/internal/services/universe/domain/world"
)

// codec converts between a field value and hunk payloads. decode reads the
// forward payload; restore reads a captured old value.
type codec[T any] struct {
	decode  func(hunk.Payload) (T, bool)
	encode  func(T) hunk.Payload
	restore func(hunk.Payload) (T, bool)
}

var stringCodec = codec[string]{
	decode:  decodeString,
	encode:  func(v string) hunk.Payload { return hunk.StringPayload(v) },
	restore: decodeString,
}

var intCodec = codec[int]{
	decode:  decodeInt,
	encode:  func(v int) hunk.Payload { return hunk.IntPayload(v) },
	restore: decodeInt,
}

var floatCodec = codec[float64]{
	decode:  decodeFloat,
	encode:  func(v float64) hunk.Payload { return hunk.FloatPayload(v) },
	restore: decodeFloat,
}

// flagCodec sets a boolean field; the forward hunk carries no payload.
var flagCodec = codec[bool]{
	decode: func(hunk.Payload) (bool, bool) { return true, true },
	encode: func(v bool) hunk.Payload {
		if v {
			return hunk.IntPayload(1)
		}
		return hunk.IntPayload(0)
	},
	restore: func(p hunk.Payload) (bool, bool) {
		v, ok := p.(hunk.IntPayload)
		return v != 0, ok
	},
}

func decodeString(p hunk.Payload) (string, bool) {
	v, ok := p.(hunk.StringPayload)
	return string(v), ok
}

func decodeInt(p hunk.Payload) (int, bool) {
	v, ok := p.(hunk.IntPayload)
	return int(v), ok
}

func decodeFloat(p hunk.Payload) (float64, bool) {
	v, ok := p.(hunk.FloatPayload)
	return float64(v), ok
}

// resolver locates the field a hunk writes.
type resolver[T any] func(Universe, *hunk.Hunk) (*T, error)

// scalar builds the forward and revert entries for a captured field write.
func scalar[T any](resolve resolver[T], c codec[T]) (forward, revert handlerEntry) {
	forward = handlerEntry{apply: func(d *Dispatcher, h *hunk.Hunk) error {
		value, ok := c.decode(h.Payload)
		if !ok {
			return invalidPayload(h)
		}
		field, err := resolve(d.universe, h)
		if err != nil {
			return err
		}
		h.Old = hunk.Scalar{Value: c.encode(*field)}
		*field = value
		return nil
	}}
	revert = handlerEntry{apply: func(d *Dispatcher, h *hunk.Hunk) error {
		old, ok := hunk.ScalarOf(h.Old)
		if !ok {
			return revertUnavailable(h)
		}
		value, ok := c.restore(old)
		if !ok {
			return revertUnavailable(h)
		}
		field, err := resolve(d.universe, h)
		if err != nil {
			return err
		}
		*field = value
		return nil
	}}
	return forward, revert
}

func systemField[T any](pick func(*world.System) *T) resolver[T] {
	return func(u Universe, h *hunk.Hunk) (*T, error) {
		sys, err := u.SystemRef(h.Target.Name)
		if err != nil {
			return nil, err
		}
		return pick(sys), nil
	}
}

func spobField[T any](pick func(*world.Spob) *T) resolver[T] {
	return func(u Universe, h *hunk.Hunk) (*T, error) {
		spob, err := u.SpobRef(h.Target.Name)
		if err != nil {
			return nil, err
		}
		return pick(spob), nil
	}
}

func asteroidField[T any](pick func(*world.AsteroidField) *T) resolver[T] {
	return func(u Universe, h *hunk.Hunk) (*T, error) {
		label, _ := h.Label()
		field, err := u.AsteroidFieldRef(h.Target.Name, label)
		if err != nil {
			return nil, err
		}
		return pick(field), nil
	}
}

func exclusionField[T any](pick func(*world.Exclusion) *T) resolver[T] {
	return func(u Universe, h *hunk.Hunk) (*T, error) {
		label, _ := h.Label()
		zone, err := u.ExclusionRef(h.Target.Name, label)
		if err != nil {
			return nil, err
		}
		return pick(zone), nil
	}
}

// stringOp builds an entry for a structural primitive keyed by the target
// name and a string payload.
func stringOp(op func(u Universe, target, value string) error) handlerEntry {
	return handlerEntry{apply: func(d *Dispatcher, h *hunk.Hunk) error {
		value, ok := decodeString(h.Payload)
		if !ok {
			return invalidPayload(h)
		}
		return op(d.universe, h.Target.Name, value)
	}}
}

// labeledOp is stringOp for primitives that also take the label attribute.
func labeledOp(op func(u Universe, target, label, value string) error) handlerEntry {
	return handlerEntry{apply: func(d *Dispatcher, h *hunk.Hunk) error {
		value, ok := decodeString(h.Payload)
		if !ok {
			return invalidPayload(h)
		}
		label, _ := h.Label()
		return op(d.universe, h.Target.Name, label, value)
	}}
}

// targetOp builds an entry for a primitive that only needs the target name.
func targetOp(op func(u Universe, target string) error) handlerEntry {
	return handlerEntry{apply: func(d *Dispatcher, h *hunk.Hunk) error {
		return op(d.universe, h.Target.Name)
	}}
}

func invalidPayload(h *hunk.Hunk) error {
	return apperrors.WithMetadata(apperrors.CodePayloadInvalid, "payload does not match hunk type", map[string]string{
		"type":    h.Type.Key(),
		"payload": hunk.PayloadText(h.Payload),
	})
}

func revertUnavailable(h *hunk.Hunk) error {
	return apperrors.WithMetadata(apperrors.CodeRevertUnavailable, "no captured value to restore", map[string]string{
		"type":   h.Type.Key(),
		"target": h.Target.Name,
	})
}
