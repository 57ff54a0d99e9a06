package models

import (
	"testing"

	"github.com/diwise/entity-hydration/pkg/hydration"
	"github.com/matryer/is"
)

func TestProjectDefaults(t *testing.T) {
	is := is.New(t)

	p, err := NewProject(map[string]any{"id": "p1", "name": "Parking"})
	is.NoErr(err)

	is.Equal(p.Tags.Value(), []string{})
	is.Equal(p.Archived.Value(), false)
	is.True(p.Owner.IsNull())
	is.True(p.Environments.IsNull())
	is.Equal(p.ResourceID(), "p1")
}

func TestProjectEnvironments(t *testing.T) {
	is := is.New(t)

	p, err := hydration.FromJSON([]byte(projectJSON), NewProject)
	is.NoErr(err)

	is.Equal(p.Owner.Value().Name.Value(), "Alice")
	is.Equal(p.Tags.Value(), []string{"iot", "parking"})

	envs := p.Environments.Value()
	is.Equal(len(envs), 2)

	prod := envs[0]
	is.Equal(prod.Variables.Value(), map[string]string{"LOG_LEVEL": "info"})

	latest, ok := prod.LatestDeployment()
	is.True(ok)
	is.Equal(latest.Version.Value(), "1.1.0")

	_, ok = envs[1].LatestDeployment()
	is.True(!ok) // environment without deployments has no latest deployment
	is.Equal(len(envs[1].Variables.Value()), 0)
}

func TestArchiveProjectWithPartialUpdate(t *testing.T) {
	is := is.New(t)

	p, err := hydration.FromJSON([]byte(projectJSON), NewProject)
	is.NoErr(err)

	err = p.Hydrate(map[string]any{"archived": true})
	is.NoErr(err)

	is.True(p.Archived.Value())
	is.Equal(len(p.Environments.Value()), 2)
	is.Equal(p.Name.Value(), "Parking")
}

const projectJSON string = `{
	"id": "p1",
	"name": "Parking",
	"organizationId": "org1",
	"tags": ["iot", "parking"],
	"owner": {"id": "m1", "name": "Alice"},
	"environments": [
		{
			"id": "prod",
			"name": "Production",
			"variables": {"LOG_LEVEL": "info"},
			"deployments": [
				{"id": "d1", "version": "1.0.0", "deployedAt": "2024-01-01T10:00:00Z"},
				{"id": "d2", "version": "1.1.0", "deployedAt": "2024-02-01T10:00:00Z"},
				{"id": "d3", "version": "1.2.0-rc"}
			]
		},
		{"id": "test", "name": "Test"}
	]
}`
