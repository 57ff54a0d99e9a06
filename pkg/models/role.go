package models

import (
	"slices"

	"github.com/diwise/entity-hydration/pkg/hydration"
)

type Role struct {
	ID   hydration.Field[int]    `json:"id,omitzero"`
	Name hydration.Field[string] `json:"name,omitzero"`
}

func NewRole(raw any) (*Role, error) {
	return hydrated(&Role{}, raw)
}

func (r *Role) Hydrate(raw any) error {
	h := hydration.From(raw)
	hydration.Scalar(h, "id", &r.ID)
	hydration.Scalar(h, "name", &r.Name)
	return h.Err()
}

// Permission grants an action on a kind of resource
type Permission struct {
	ID       hydration.Field[string] `json:"id,omitzero"`
	Action   hydration.Field[string] `json:"action,omitzero"`
	Resource hydration.Field[string] `json:"resource,omitzero"`
}

func NewPermission(raw any) (*Permission, error) {
	return hydrated(&Permission{}, raw)
}

func (p *Permission) Hydrate(raw any) error {
	h := hydration.From(raw)
	hydration.Scalar(h, "id", &p.ID)
	hydration.Scalar(h, "action", &p.Action)
	hydration.Scalar(h, "resource", &p.Resource)
	return h.Err()
}

// containsAnyRole reports if any of the roles has an id in ids
func containsAnyRole(roles []*Role, ids []int) bool {
	for _, r := range roles {
		if r == nil {
			continue
		}
		if id, ok := r.ID.Get(); ok && slices.Contains(ids, id) {
			return true
		}
	}
	return false
}
