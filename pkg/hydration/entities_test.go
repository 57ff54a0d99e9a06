package hydration

import "errors"

type testRole struct {
	ID   Field[int]    `json:"id,omitzero"`
	Name Field[string] `json:"name,omitzero"`
}

func newTestRole(raw any) (*testRole, error) {
	r := &testRole{}
	return r, r.Hydrate(raw)
}

func (r *testRole) Hydrate(raw any) error {
	h := From(raw)
	Scalar(h, "id", &r.ID)
	Scalar(h, "name", &r.Name)
	return h.Err()
}

type testOrg struct {
	ID    Field[string]      `json:"id,omitzero"`
	Roles Field[[]*testRole] `json:"roles,omitzero"`
}

func newTestOrg(raw any) (*testOrg, error) {
	o := &testOrg{}
	return o, o.Hydrate(raw)
}

func (o *testOrg) Hydrate(raw any) error {
	h := From(raw)
	Scalar(h, "id", &o.ID)
	Many(h, "roles", &o.Roles, newTestRole)
	return h.Err()
}

type testPerson struct {
	ID    Field[string]   `json:"id,omitzero"`
	Name  Field[string]   `json:"name,omitzero"`
	Age   Field[int]      `json:"age,omitzero"`
	Tags  Field[[]string] `json:"tags,omitzero"`
	Extra Field[any]      `json:"extra,omitzero"`
	Org   Field[*testOrg] `json:"org,omitzero"`
}

func newTestPerson(raw any) (*testPerson, error) {
	p := &testPerson{}
	if err := p.Hydrate(raw); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *testPerson) Hydrate(raw any) error {
	h := From(raw)
	Scalar(h, "id", &p.ID)
	Scalar(h, "name", &p.Name)
	Scalar(h, "age", &p.Age)
	Scalar(h, "tags", &p.Tags)
	Scalar(h, "extra", &p.Extra)
	One(h, "org", &p.Org, newTestOrg)
	return h.Err()
}

var errBrokenEntity = errors.New("broken entity")

type brokenEntity struct{}

func newBrokenEntity(raw any) (*brokenEntity, error) {
	return nil, errBrokenEntity
}
