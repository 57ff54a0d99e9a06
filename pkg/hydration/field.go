package hydration

import (
	"bytes"
	"encoding/json"
)

// State is the hydration state of a single Field
type State uint8

const (
	// Unset means no value, not even null, has ever been assigned
	Unset State = iota
	// Null means the field is known to be absent
	Null
	// Present means the field holds a real value
	Present
)

func (s State) String() string {
	switch s {
	case Null:
		return "null"
	case Present:
		return "present"
	default:
		return "unset"
	}
}

// Field wraps a hydrated value together with its State. The zero value is Unset.
type Field[T any] struct {
	state State
	value T
}

// Of returns a Field that is present and holds value
func Of[T any](value T) Field[T] {
	return Field[T]{state: Present, value: value}
}

// NullOf returns an explicitly null Field
func NullOf[T any]() Field[T] {
	return Field[T]{state: Null}
}

func (f Field[T]) State() State {
	return f.state
}

func (f Field[T]) IsUnset() bool {
	return f.state == Unset
}

func (f Field[T]) IsNull() bool {
	return f.state == Null
}

func (f Field[T]) IsPresent() bool {
	return f.state == Present
}

// Get returns the value and true if the field is present
func (f Field[T]) Get() (T, bool) {
	return f.value, f.state == Present
}

// Value returns the value, or the zero value of T if the field is not present
func (f Field[T]) Value() T {
	if f.state != Present {
		var zero T
		return zero
	}
	return f.value
}

// OrElse returns the value if present, otherwise fallback
func (f Field[T]) OrElse(fallback T) T {
	if f.state != Present {
		return fallback
	}
	return f.value
}

func (f *Field[T]) Set(value T) {
	f.state = Present
	f.value = value
}

func (f *Field[T]) SetNull() {
	var zero T
	f.state = Null
	f.value = zero
}

// Reset returns the field to Unset
func (f *Field[T]) Reset() {
	var zero T
	f.state = Unset
	f.value = zero
}

// IsZero reports whether the field is Unset so that omitzero drops it when marshalling
func (f Field[T]) IsZero() bool {
	return f.state == Unset
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if f.state != Present {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.SetNull()
		return nil
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}

	f.Set(value)
	return nil
}
