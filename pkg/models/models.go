// Package models contains the domain entities of the application. Every entity
// is built with its NewX constructor from a raw json value and can later be
// refreshed with a partial payload through Hydrate.
package models

import "github.com/diwise/entity-hydration/pkg/hydration"

// Resource is an entity that can be stored and addressed by id
type Resource interface {
	hydration.Entity
	ResourceID() string
}

// hydrated applies raw to an entity with its defaults already in place
func hydrated[E hydration.Entity](e E, raw any) (E, error) {
	if err := e.Hydrate(raw); err != nil {
		var zero E
		return zero, err
	}
	return e, nil
}
