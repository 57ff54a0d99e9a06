// Package hydration populates typed entities from untyped JSON values.
//
// A raw value is the tree produced by decoding JSON into an any: objects are
// map[string]any, arrays are []any and scalars are strings, numbers, booleans or
// nil. Every hydrated field is a Field[T] that is either unset, explicitly null or
// present, and each entity applies one of three primitives per field:
//
//	func (o *Organization) Hydrate(raw any) error {
//		h := hydration.From(raw)
//		hydration.Scalar(h, "id", &o.ID)
//		hydration.Scalar(h, "name", &o.Name)
//		hydration.Many(h, "roles", &o.Roles, NewRole)
//		return h.Err()
//	}
//
// Keys missing from the raw value never erase a field that already holds a value
// or null, which makes it possible to call Hydrate again with a partial payload.
// The primitives never fail because of the shape of the input. The only errors
// are the ones returned by nested constructors, and they are available from
// Hydrator.Err.
//
// Hydration touches nothing but its target, so independent targets may be
// hydrated concurrently. Callers must serialize repeated hydration of the same
// target.
package hydration
