package hydration

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestHydrateUnsetFields(t *testing.T) {
	is := is.New(t)

	p, err := newTestPerson(map[string]any{"id": "42", "name": "Alice"})
	is.NoErr(err)

	is.Equal(p.ID.Value(), "42")
	is.Equal(p.Name.Value(), "Alice")
	is.True(p.Age.IsNull())   // missing keys should turn unset fields into null
	is.True(p.Org.IsNull())   // missing nested entity should be null
	is.True(p.Extra.IsNull()) // missing passthrough should be null
}

func TestRehydrateKeepsFieldsMissingFromPayload(t *testing.T) {
	is := is.New(t)

	p, err := newTestPerson(map[string]any{"id": "42", "name": "Alice"})
	is.NoErr(err)

	err = p.Hydrate(map[string]any{"name": "Alice B."})
	is.NoErr(err)

	is.Equal(p.ID.Value(), "42")
	is.Equal(p.Name.Value(), "Alice B.")
}

func TestNilRawValueLeavesFieldsUnset(t *testing.T) {
	is := is.New(t)

	p, err := newTestPerson(nil)
	is.NoErr(err)

	is.True(p.ID.IsUnset())
	is.True(p.Tags.IsUnset())
	is.True(p.Org.IsUnset())
}

func TestNonObjectRawValueBehavesLikeEmptyObject(t *testing.T) {
	is := is.New(t)

	p, err := newTestPerson("not an object")
	is.NoErr(err)

	is.True(p.ID.IsNull())
	is.True(p.Org.IsNull())
}

func TestAbsentAndNullOnFreshField(t *testing.T) {
	is := is.New(t)

	var a, b Field[int]

	Scalar(From(map[string]any{"a": nil}), "a", &a)
	Scalar(From(map[string]any{}), "a", &b)

	is.True(a.IsNull())
	is.True(b.IsNull())
}

func TestAbsentAndNullOnPreseededField(t *testing.T) {
	is := is.New(t)

	a := Of(5)
	b := Of(5)

	Scalar(From(map[string]any{"a": nil}), "a", &a)
	Scalar(From(map[string]any{}), "a", &b)

	is.True(a.IsNull())    // explicit null should overwrite
	is.Equal(b.Value(), 5) // silence should preserve
}

func TestNullFieldIsOverwrittenByValue(t *testing.T) {
	is := is.New(t)

	f := NullOf[string]()
	Scalar(From(map[string]any{"a": "value"}), "a", &f)

	is.Equal(f.Value(), "value")
}

func TestTypeMismatchIsTreatedAsMissingKey(t *testing.T) {
	is := is.New(t)

	var unset Field[string]
	preseeded := Of("keep")

	raw := map[string]any{"a": 17.0}
	Scalar(From(raw), "a", &unset)
	Scalar(From(raw), "a", &preseeded)

	is.True(unset.IsNull())
	is.Equal(preseeded.Value(), "keep")
}

func TestSequencesAreCopied(t *testing.T) {
	is := is.New(t)

	tags := []any{"a", "b"}
	p, err := newTestPerson(map[string]any{"tags": tags})
	is.NoErr(err)

	is.Equal(p.Tags.Value(), []string{"a", "b"})

	p.Tags.Value()[0] = "changed"
	is.Equal(tags[0], "a") // hydrated sequence must not share memory with the input
}

func TestSequenceElementsOfWrongTypeAreDropped(t *testing.T) {
	is := is.New(t)

	var f Field[[]string]
	Scalar(From(map[string]any{"tags": []any{"a", 1.0, nil, "b"}}), "tags", &f)

	is.Equal(f.Value(), []string{"a", "b"})
}

func TestPassthroughIsDeepCopied(t *testing.T) {
	is := is.New(t)

	nested := map[string]any{"list": []any{"x"}}
	p, err := newTestPerson(map[string]any{"extra": nested})
	is.NoErr(err)

	extra, ok := p.Extra.Value().(map[string]any)
	is.True(ok) // passthrough should keep the structure

	extra["list"].([]any)[0] = "y"
	extra["added"] = true

	is.Equal(nested["list"].([]any)[0], "x")
	is.Equal(len(nested), 1)
}

func TestNumbersAreConverted(t *testing.T) {
	is := is.New(t)

	var fromFloat, fromNumber, fromInt, fractional Field[int]
	var ratio Field[float64]
	var small Field[uint8]

	raw := map[string]any{
		"float":      3.0,
		"number":     json.Number("4"),
		"int":        5,
		"fractional": 1.5,
		"ratio":      json.Number("0.25"),
		"small":      300.0,
	}

	h := From(raw)
	Scalar(h, "float", &fromFloat)
	Scalar(h, "number", &fromNumber)
	Scalar(h, "int", &fromInt)
	Scalar(h, "fractional", &fractional)
	Scalar(h, "ratio", &ratio)
	Scalar(h, "small", &small)

	is.Equal(fromFloat.Value(), 3)
	is.Equal(fromNumber.Value(), 4)
	is.Equal(fromInt.Value(), 5)
	is.True(fractional.IsNull()) // non integral numbers do not fit an int
	is.Equal(ratio.Value(), 0.25)
	is.True(small.IsNull()) // out of range
}

func TestNumbersAreNotConvertedToStrings(t *testing.T) {
	is := is.New(t)

	var f Field[string]
	Scalar(From(map[string]any{"a": json.Number("12")}), "a", &f)

	is.True(f.IsNull())
}

type roleName string

func TestNamedTypesAreConvertedByKind(t *testing.T) {
	is := is.New(t)

	var f Field[roleName]
	var names Field[[]roleName]

	h := From(map[string]any{"name": "Admin", "names": []any{"a", "b"}})
	Scalar(h, "name", &f)
	Scalar(h, "names", &names)

	is.Equal(f.Value(), roleName("Admin"))
	is.Equal(names.Value(), []roleName{"a", "b"})
}

func TestTimesAreParsed(t *testing.T) {
	is := is.New(t)

	var created, broken Field[time.Time]

	h := From(map[string]any{"created": "2024-03-01T12:00:00Z", "broken": "yesterday"})
	Scalar(h, "created", &created)
	Scalar(h, "broken", &broken)

	is.True(created.Value().Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))
	is.True(broken.IsNull())
}

func TestMapsAndPointersAreConverted(t *testing.T) {
	is := is.New(t)

	var labels Field[map[string]string]
	var nickname Field[*string]

	h := From(map[string]any{"labels": map[string]any{"a": "1", "b": 2.0}, "nickname": "al"})
	Scalar(h, "labels", &labels)
	Scalar(h, "nickname", &nickname)

	is.Equal(labels.Value(), map[string]string{"a": "1"})
	is.Equal(*nickname.Value(), "al")
}

func TestNestedEntityIsHydratedRecursively(t *testing.T) {
	is := is.New(t)

	raw := map[string]any{
		"org": map[string]any{
			"id":    "o1",
			"roles": []any{map[string]any{"id": 1.0, "name": "Admin"}},
		},
	}

	p, err := newTestPerson(raw)
	is.NoErr(err)

	org := p.Org.Value()
	is.True(org != nil) // nested entity should be constructed
	is.Equal(org.ID.Value(), "o1")

	roles := org.Roles.Value()
	is.Equal(len(roles), 1)
	is.Equal(roles[0].ID.Value(), 1)
	is.Equal(roles[0].Name.Value(), "Admin")
}

func TestNullDoesNotClearNestedEntity(t *testing.T) {
	is := is.New(t)

	p, err := newTestPerson(map[string]any{"org": map[string]any{"id": "o1"}})
	is.NoErr(err)

	err = p.Hydrate(map[string]any{"org": nil})
	is.NoErr(err)

	is.Equal(p.Org.Value().ID.Value(), "o1")
}

func TestNestedEntityIsReplacedByNewValue(t *testing.T) {
	is := is.New(t)

	p, err := newTestPerson(map[string]any{"org": map[string]any{"id": "o1"}})
	is.NoErr(err)
	first := p.Org.Value()

	err = p.Hydrate(map[string]any{"org": map[string]any{"id": "o2"}})
	is.NoErr(err)

	is.Equal(p.Org.Value().ID.Value(), "o2")
	is.Equal(first.ID.Value(), "o1") // previous instance should not be mutated
}

func TestMissingArrayOnUnsetFieldIsNull(t *testing.T) {
	is := is.New(t)

	var missing, notAnArray Field[[]*testRole]

	Many(From(map[string]any{}), "roles", &missing, newTestRole)
	Many(From(map[string]any{"roles": map[string]any{"id": 1.0}}), "roles", &notAnArray, newTestRole)

	is.True(missing.IsNull())
	is.True(notAnArray.IsNull())
}

func TestEmptyArrayIsNotNull(t *testing.T) {
	is := is.New(t)

	var f Field[[]*testRole]
	Many(From(map[string]any{"roles": []any{}}), "roles", &f, newTestRole)

	is.True(f.IsPresent())
	is.Equal(len(f.Value()), 0)
}

func TestNonArrayKeepsPreseededArray(t *testing.T) {
	is := is.New(t)

	preseeded := make([]*testRole, 0, 4)
	f := Of(preseeded)

	Many(From(map[string]any{"roles": "admin"}), "roles", &f, newTestRole)
	Many(From(map[string]any{}), "roles", &f, newTestRole)

	is.True(f.IsPresent())
	is.Equal(cap(f.Value()), 4) // the preseeded slice should still be in place
}

func TestEntityArrayIsFresh(t *testing.T) {
	is := is.New(t)

	source := []any{map[string]any{"id": 1.0}, map[string]any{"id": 2.0}}

	var f Field[[]*testRole]
	Many(From(map[string]any{"roles": source}), "roles", &f, newTestRole)

	roles := f.Value()
	is.Equal(len(roles), 2)
	is.Equal(roles[1].ID.Value(), 2) // order should be preserved

	roles[0] = nil

	is.Equal(len(source), 2)
	is.True(source[0] != nil)
}

func TestHydrationIsIdempotent(t *testing.T) {
	is := is.New(t)

	raw := map[string]any{
		"id":    "42",
		"tags":  []any{"a"},
		"extra": map[string]any{"k": "v"},
		"org":   map[string]any{"id": "o1", "roles": []any{map[string]any{"id": 1.0}}},
	}

	once, err := newTestPerson(raw)
	is.NoErr(err)

	twice, err := newTestPerson(raw)
	is.NoErr(err)
	is.NoErr(twice.Hydrate(raw))

	is.Equal(once, twice)
}

func TestConstructorErrorsPropagate(t *testing.T) {
	is := is.New(t)

	var child Field[*brokenEntity]
	var after Field[string]

	h := From(map[string]any{"child": map[string]any{}, "after": "value"})
	One(h, "child", &child, newBrokenEntity)
	Scalar(h, "after", &after)

	is.True(errors.Is(h.Err(), errBrokenEntity))
	is.True(child.IsUnset()) // failed field should be left untouched
	is.True(after.IsUnset()) // hydration should stop at the first error
}

func TestArrayConstructorErrorsPropagate(t *testing.T) {
	is := is.New(t)

	var children Field[[]*brokenEntity]

	h := From(map[string]any{"children": []any{map[string]any{}}})
	Many(h, "children", &children, newBrokenEntity)

	is.True(errors.Is(h.Err(), errBrokenEntity))
	is.True(children.IsUnset())
}

func TestFailKeepsFirstError(t *testing.T) {
	is := is.New(t)

	first := errors.New("first")

	h := From(map[string]any{})
	h.Fail(first)
	h.Fail(errors.New("second"))

	is.Equal(h.Err(), first)
}

func TestHas(t *testing.T) {
	is := is.New(t)

	h := From(map[string]any{"a": nil})

	is.True(h.Has("a"))
	is.True(!h.Has("b"))
}

func TestCollect(t *testing.T) {
	is := is.New(t)

	roles, err := Collect([]any{map[string]any{"id": 1.0}, nil}, newTestRole)
	is.NoErr(err)
	is.Equal(len(roles), 2)
	is.True(roles[1].ID.IsUnset()) // nil elements construct defaults only entities

	roles, err = Collect(map[string]any{}, newTestRole)
	is.NoErr(err)
	is.True(roles == nil)
}

func TestFromJSON(t *testing.T) {
	is := is.New(t)

	p, err := FromJSON([]byte(`{"id":"42","age":31,"org":{"id":"o1","roles":[]}}`), newTestPerson)
	is.NoErr(err)

	is.Equal(p.Age.Value(), 31)
	is.Equal(len(p.Org.Value().Roles.Value()), 0)
}

func TestDecodeKeepsLargeIntegers(t *testing.T) {
	is := is.New(t)

	raw, err := Decode(strings.NewReader(`{"id": 9007199254740993}`))
	is.NoErr(err)

	var id Field[int64]
	Scalar(From(raw), "id", &id)

	is.Equal(id.Value(), int64(9007199254740993))
}

func TestDecodeReportsInvalidJSON(t *testing.T) {
	is := is.New(t)

	_, err := Unmarshal([]byte("this is not my json"))
	is.True(err != nil)
}

func TestDecodeRejectsTrailingData(t *testing.T) {
	is := is.New(t)

	_, err := Unmarshal([]byte(`{"id":"x"} garbage`))
	is.True(errors.Is(err, ErrTrailingData))

	_, err = Unmarshal([]byte(`{"id":"x"}{"id":"y"}`))
	is.True(errors.Is(err, ErrTrailingData)) // a second document is trailing data too

	raw, err := Unmarshal([]byte("{\"id\":\"x\"}\n\t "))
	is.NoErr(err) // trailing whitespace is fine
	is.Equal(raw.(map[string]any)["id"], "x")
}

func TestLargeUnsignedIntegers(t *testing.T) {
	is := is.New(t)

	raw, err := Unmarshal([]byte(`{"max": 18446744073709551615, "over": 18446744073709551616, "negative": -1, "float": 4.0}`))
	is.NoErr(err)

	var largest, over, negative, float Field[uint64]
	h := From(raw)
	Scalar(h, "max", &largest)
	Scalar(h, "over", &over)
	Scalar(h, "negative", &negative)
	Scalar(h, "float", &float)

	is.Equal(largest.Value(), uint64(18446744073709551615))
	is.True(over.IsNull())     // out of range for uint64
	is.True(negative.IsNull()) // negative values do not fit unsigned fields
	is.Equal(float.Value(), uint64(4))
}

func TestSnapshotRoundTrip(t *testing.T) {
	is := is.New(t)

	p, err := newTestPerson(map[string]any{"id": "42", "org": map[string]any{"id": "o1"}})
	is.NoErr(err)

	raw, err := Snapshot(p)
	is.NoErr(err)

	copied, err := newTestPerson(raw)
	is.NoErr(err)

	is.Equal(p, copied)
}

func TestIndependentInstancesHydrateConcurrently(t *testing.T) {
	is := is.New(t)

	newRaw := func() map[string]any {
		return map[string]any{
			"id":    "42",
			"tags":  []any{"a", "b"},
			"extra": map[string]any{"list": []any{"x"}},
			"org": map[string]any{
				"id":    "org1",
				"roles": []any{map[string]any{"id": json.Number("1"), "name": "Admin"}},
			},
		}
	}

	raw := newRaw()

	const count int = 32
	people := make([]*testPerson, count)
	errs := make([]error, count)

	var wg sync.WaitGroup
	for i := range count {
		wg.Add(1)
		go func() {
			defer wg.Done()
			people[i], errs[i] = newTestPerson(raw)
			if errs[i] == nil {
				people[i].Tags.Value()[0] = "changed"
				people[i].Extra.Value().(map[string]any)["added"] = i
			}
		}()
	}
	wg.Wait()

	for i := range count {
		is.NoErr(errs[i])
		is.Equal(people[i].Org.Value().Roles.Value()[0].ID.Value(), 1)
	}

	is.True(reflect.DeepEqual(raw, newRaw())) // the shared raw value should be unchanged
}
