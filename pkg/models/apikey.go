package models

import (
	"time"

	"github.com/diwise/entity-hydration/pkg/hydration"
)

type APIKey struct {
	ID        hydration.Field[string]    `json:"id,omitzero"`
	Name      hydration.Field[string]    `json:"name,omitzero"`
	Prefix    hydration.Field[string]    `json:"prefix,omitzero"`
	Scopes    hydration.Field[[]string]  `json:"scopes,omitzero"`
	CreatedAt hydration.Field[time.Time] `json:"createdAt,omitzero"`
	ExpiresAt hydration.Field[time.Time] `json:"expiresAt,omitzero"`

	scopes map[string]struct{}
}

func NewAPIKey(raw any) (*APIKey, error) {
	return hydrated(&APIKey{
		Scopes: hydration.Of([]string{}),
	}, raw)
}

func (k *APIKey) Hydrate(raw any) error {
	h := hydration.From(raw)
	hydration.Scalar(h, "id", &k.ID)
	hydration.Scalar(h, "name", &k.Name)
	hydration.Scalar(h, "prefix", &k.Prefix)
	hydration.Scalar(h, "scopes", &k.Scopes)
	hydration.Scalar(h, "createdAt", &k.CreatedAt)
	hydration.Scalar(h, "expiresAt", &k.ExpiresAt)

	if err := h.Err(); err != nil {
		return err
	}

	k.scopes = make(map[string]struct{})
	for _, s := range k.Scopes.Value() {
		k.scopes[s] = struct{}{}
	}

	return nil
}

func (k *APIKey) ResourceID() string {
	return k.ID.Value()
}

func (k *APIKey) HasScope(scope string) bool {
	_, ok := k.scopes[scope]
	return ok
}

// Expired reports if the key has an expiry before t. Keys without expiry never expire.
func (k *APIKey) Expired(t time.Time) bool {
	expiresAt, ok := k.ExpiresAt.Get()
	return ok && expiresAt.Before(t)
}
