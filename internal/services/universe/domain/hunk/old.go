package hunk

// OldValue is the state captured while a hunk is active. Scalar mutations
// capture a Scalar; removals of compound elements capture a Compound holding
// the entire removed value. A nil OldValue means nothing was captured.
type OldValue interface {
	oldValue()
}

// Scalar holds a captured field value.
type Scalar struct {
	Value Payload
}

// Compound holds an owned copy of a removed structured element.
type Compound[T any] struct {
	Value T
}

func (Scalar) oldValue()      {}
func (Compound[T]) oldValue() {}

// ScalarOf returns the captured scalar payload, if any.
func ScalarOf(old OldValue) (Payload, bool) {
	scalar, ok := old.(Scalar)
	if !ok || scalar.Value == nil {
		return nil, false
	}
	return scalar.Value, true
}

// CompoundOf returns the captured compound value of type T, if any.
func CompoundOf[T any](old OldValue) (T, bool) {
	compound, ok := old.(Compound[T])
	if !ok {
		var zero T
		return zero, false
	}
	return compound.Value, true
}
