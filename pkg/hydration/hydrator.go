package hydration

// Entity is implemented by every type that takes part in hydration. Hydrate may be
// called again on an existing instance to merge a (partial) update into it.
type Entity interface {
	Hydrate(raw any) error
}

// Constructor creates a new, hydrated T from a raw value
type Constructor[T any] func(raw any) (*T, error)

// Hydrator applies a single raw value to the fields of one target. It is not safe
// for concurrent use, and neither is hydrating the same target from two goroutines.
type Hydrator struct {
	object  map[string]any
	present bool
	err     error
}

// From returns a Hydrator for raw. A nil raw value means that no keys are present
// at all and every primitive leaves its field untouched. A raw value that is not
// an object behaves like an object without keys.
func From(raw any) *Hydrator {
	h := &Hydrator{present: raw != nil}

	if object, ok := raw.(map[string]any); ok {
		h.object = object
	}

	return h
}

// Err returns the first error returned by a nested constructor, if any
func (h *Hydrator) Err() error {
	return h.err
}

// Fail records err as the hydration error unless one is already recorded. Entities
// use it to surface errors from their own post processing.
func (h *Hydrator) Fail(err error) {
	if h.err == nil {
		h.err = err
	}
}

// Has reports whether the raw value contains key
func (h *Hydrator) Has(key string) bool {
	_, ok := h.object[key]
	return ok
}

func (h *Hydrator) skip() bool {
	return !h.present || h.err != nil
}

func (h *Hydrator) lookup(key string) (any, bool) {
	value, ok := h.object[key]
	return value, ok
}

// Scalar copies the value of key into f.
//
// An unset field becomes null unless the key holds a non-null value that can be
// represented as a T. A field that is already null or present is only touched when
// the key exists: it is then overwritten, with null if the value is null. Values
// that can not be represented as a T are treated as if the key was missing.
func Scalar[T any](h *Hydrator, key string, f *Field[T]) {
	if h.skip() {
		return
	}

	raw, hasKey := h.lookup(key)

	if f.IsUnset() {
		if value, ok := convert[T](raw); hasKey && ok {
			f.Set(value)
		} else {
			f.SetNull()
		}
		return
	}

	if !hasKey {
		return
	}

	if raw == nil {
		f.SetNull()
		return
	}

	if value, ok := convert[T](raw); ok {
		f.Set(value)
	}
}

// One constructs a single nested entity from the value of key.
//
// An unset field becomes null unless the key holds a non-null value. A field that
// is already null or present is only replaced when the key holds a non-null value.
func One[T any](h *Hydrator, key string, f *Field[*T], construct Constructor[T]) {
	if h.skip() {
		return
	}

	raw, _ := h.lookup(key)

	if raw == nil {
		if f.IsUnset() {
			f.SetNull()
		}
		return
	}

	child, err := construct(raw)
	if err != nil {
		h.Fail(err)
		return
	}

	f.Set(child)
}

// Many constructs a new slice of nested entities, one per element of the array
// held by key. Only arrays count as values: anything else is treated as if the
// key was missing, so an unset field becomes null rather than an empty slice.
func Many[T any](h *Hydrator, key string, f *Field[[]*T], construct Constructor[T]) {
	if h.skip() {
		return
	}

	raw, _ := h.lookup(key)

	elements, ok := raw.([]any)
	if !ok {
		if f.IsUnset() {
			f.SetNull()
		}
		return
	}

	children, err := collect(elements, construct)
	if err != nil {
		h.Fail(err)
		return
	}

	f.Set(children)
}

// Collect constructs one entity per element of a raw array. It returns nil when
// raw is not an array.
func Collect[T any](raw any, construct Constructor[T]) ([]*T, error) {
	elements, ok := raw.([]any)
	if !ok {
		return nil, nil
	}

	return collect(elements, construct)
}

func collect[T any](elements []any, construct Constructor[T]) ([]*T, error) {
	children := make([]*T, 0, len(elements))

	for _, e := range elements {
		child, err := construct(e)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	return children, nil
}
