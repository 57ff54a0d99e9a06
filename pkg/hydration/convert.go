package hydration

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"time"
)

var (
	timeType   = reflect.TypeFor[time.Time]()
	numberType = reflect.TypeFor[json.Number]()
)

// convert copies a non-nil raw value into a T. Containers are always copied so
// that the result never shares memory with the raw tree. The second return value
// is false when the value can not be represented as a T.
func convert[T any](raw any) (T, bool) {
	var zero T

	if raw == nil {
		return zero, false
	}

	switch raw.(type) {
	case map[string]any, []any:
		if t, ok := clone(raw).(T); ok {
			return t, true
		}
	default:
		if t, ok := raw.(T); ok {
			return t, true
		}
	}

	v, ok := coerce(raw, reflect.TypeFor[T]())
	if !ok {
		return zero, false
	}

	return v.Interface().(T), true
}

func coerce(raw any, t reflect.Type) (reflect.Value, bool) {
	if raw == nil {
		return reflect.Value{}, false
	}

	if t == timeType {
		s, ok := raw.(string)
		if !ok {
			return reflect.Value{}, false
		}
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return reflect.Value{}, false
		}
		return reflect.ValueOf(ts), true
	}

	src := reflect.ValueOf(raw)

	switch t.Kind() {
	case reflect.String:
		if src.Kind() != reflect.String || src.Type() == numberType {
			return reflect.Value{}, false
		}
		return src.Convert(t), true

	case reflect.Bool:
		if src.Kind() != reflect.Bool {
			return reflect.Value{}, false
		}
		return src.Convert(t), true

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, ok := asInt(raw)
		out := reflect.New(t).Elem()
		if !ok || out.OverflowInt(i) {
			return reflect.Value{}, false
		}
		out.SetInt(i)
		return out, true

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, ok := asUint(raw)
		out := reflect.New(t).Elem()
		if !ok || out.OverflowUint(u) {
			return reflect.Value{}, false
		}
		out.SetUint(u)
		return out, true

	case reflect.Float32, reflect.Float64:
		f, ok := asFloat(raw)
		out := reflect.New(t).Elem()
		if !ok || out.OverflowFloat(f) {
			return reflect.Value{}, false
		}
		out.SetFloat(f)
		return out, true

	case reflect.Slice:
		elements, ok := raw.([]any)
		if !ok {
			return reflect.Value{}, false
		}
		out := reflect.MakeSlice(t, 0, len(elements))
		for _, e := range elements {
			// elements that do not fit the declared element type are dropped
			if v, ok := coerce(e, t.Elem()); ok {
				out = reflect.Append(out, v)
			}
		}
		return out, true

	case reflect.Map:
		object, ok := raw.(map[string]any)
		if !ok || t.Key().Kind() != reflect.String {
			return reflect.Value{}, false
		}
		out := reflect.MakeMapWithSize(t, len(object))
		for k, e := range object {
			if v, ok := coerce(e, t.Elem()); ok {
				out.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), v)
			}
		}
		return out, true

	case reflect.Interface:
		c := clone(raw)
		if !reflect.TypeOf(c).Implements(t) {
			return reflect.Value{}, false
		}
		out := reflect.New(t).Elem()
		out.Set(reflect.ValueOf(c))
		return out, true

	case reflect.Pointer:
		v, ok := coerce(raw, t.Elem())
		if !ok {
			return reflect.Value{}, false
		}
		out := reflect.New(t.Elem())
		out.Elem().Set(v)
		return out, true
	}

	return reflect.Value{}, false
}

func asInt(raw any) (int64, bool) {
	if n, ok := raw.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	}

	v := reflect.ValueOf(raw)

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	case reflect.Float32, reflect.Float64:
		return floatToInt(v.Float())
	}

	return 0, false
}

func asUint(raw any) (uint64, bool) {
	if n, ok := raw.(json.Number); ok {
		if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
			return u, true
		}
	}

	v := reflect.ValueOf(raw)

	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), true
	}

	i, ok := asInt(raw)
	if !ok || i < 0 {
		return 0, false
	}

	return uint64(i), true
}

func floatToInt(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func asFloat(raw any) (float64, bool) {
	if n, ok := raw.(json.Number); ok {
		f, err := n.Float64()
		return f, err == nil
	}

	v := reflect.ValueOf(raw)

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	}

	return 0, false
}

// clone returns a deep copy of maps and slices in a raw tree. Scalars are returned as is.
func clone(raw any) any {
	switch v := raw.(type) {
	case map[string]any:
		c := make(map[string]any, len(v))
		for k, e := range v {
			c[k] = clone(e)
		}
		return c
	case []any:
		c := make([]any, len(v))
		for i, e := range v {
			c[i] = clone(e)
		}
		return c
	default:
		return raw
	}
}
