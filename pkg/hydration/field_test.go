package hydration

import (
	"encoding/json"
	"testing"

	"github.com/matryer/is"
)

func TestZeroFieldIsUnset(t *testing.T) {
	is := is.New(t)

	var f Field[string]

	is.True(f.IsUnset())
	is.Equal(f.State(), Unset)
	is.Equal(f.OrElse("fallback"), "fallback")

	_, ok := f.Get()
	is.True(!ok) // unset field should not report a value
}

func TestFieldTransitions(t *testing.T) {
	is := is.New(t)

	f := Of(5)
	is.True(f.IsPresent())
	is.Equal(f.Value(), 5)

	f.SetNull()
	is.True(f.IsNull())
	is.Equal(f.Value(), 0) // null field should return the zero value

	f.Set(7)
	is.Equal(f.OrElse(1), 7)

	f.Reset()
	is.True(f.IsUnset())
}

func TestStateString(t *testing.T) {
	is := is.New(t)
	is.Equal(Unset.String(), "unset")
	is.Equal(Null.String(), "null")
	is.Equal(Present.String(), "present")
}

func TestMarshalOmitsUnsetFields(t *testing.T) {
	is := is.New(t)

	r := testRole{ID: Of(1), Name: NullOf[string]()}
	b, err := json.Marshal(r)

	is.NoErr(err)
	is.Equal(string(b), `{"id":1,"name":null}`)

	b, err = json.Marshal(testRole{})
	is.NoErr(err)
	is.Equal(string(b), `{}`) // unset fields should be omitted
}

func TestUnmarshalField(t *testing.T) {
	is := is.New(t)

	r := testRole{}
	err := json.Unmarshal([]byte(`{"id":3,"name":null}`), &r)

	is.NoErr(err)
	is.Equal(r.ID.Value(), 3)
	is.True(r.Name.IsNull())
}

func TestUnmarshalFieldWithWrongTypeFails(t *testing.T) {
	is := is.New(t)

	r := testRole{}
	err := json.Unmarshal([]byte(`{"id":"three"}`), &r)

	is.True(err != nil) // encoding/json does not follow the hydration rules
}
