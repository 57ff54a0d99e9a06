package models

import (
	"time"

	"github.com/diwise/entity-hydration/pkg/hydration"
)

type Project struct {
	ID             hydration.Field[string]         `json:"id,omitzero"`
	Name           hydration.Field[string]         `json:"name,omitzero"`
	Description    hydration.Field[string]         `json:"description,omitzero"`
	OrganizationID hydration.Field[string]         `json:"organizationId,omitzero"`
	Tags           hydration.Field[[]string]       `json:"tags,omitzero"`
	Owner          hydration.Field[*Member]        `json:"owner,omitzero"`
	Members        hydration.Field[[]*Member]      `json:"members,omitzero"`
	Environments   hydration.Field[[]*Environment] `json:"environments,omitzero"`
	Archived       hydration.Field[bool]           `json:"archived,omitzero"`
}

// NewProject creates a Project without tags that is not archived
func NewProject(raw any) (*Project, error) {
	return hydrated(&Project{
		Tags:     hydration.Of([]string{}),
		Archived: hydration.Of(false),
	}, raw)
}

func (p *Project) Hydrate(raw any) error {
	h := hydration.From(raw)
	hydration.Scalar(h, "id", &p.ID)
	hydration.Scalar(h, "name", &p.Name)
	hydration.Scalar(h, "description", &p.Description)
	hydration.Scalar(h, "organizationId", &p.OrganizationID)
	hydration.Scalar(h, "tags", &p.Tags)
	hydration.One(h, "owner", &p.Owner, NewMember)
	hydration.Many(h, "members", &p.Members, NewMember)
	hydration.Many(h, "environments", &p.Environments, NewEnvironment)
	hydration.Scalar(h, "archived", &p.Archived)
	return h.Err()
}

func (p *Project) ResourceID() string {
	return p.ID.Value()
}

type Environment struct {
	ID          hydration.Field[string]            `json:"id,omitzero"`
	Name        hydration.Field[string]            `json:"name,omitzero"`
	URL         hydration.Field[string]            `json:"url,omitzero"`
	Variables   hydration.Field[map[string]string] `json:"variables,omitzero"`
	Deployments hydration.Field[[]*Deployment]     `json:"deployments,omitzero"`

	latest *Deployment
}

func NewEnvironment(raw any) (*Environment, error) {
	return hydrated(&Environment{
		Variables: hydration.Of(map[string]string{}),
	}, raw)
}

func (e *Environment) Hydrate(raw any) error {
	h := hydration.From(raw)
	hydration.Scalar(h, "id", &e.ID)
	hydration.Scalar(h, "name", &e.Name)
	hydration.Scalar(h, "url", &e.URL)
	hydration.Scalar(h, "variables", &e.Variables)
	hydration.Many(h, "deployments", &e.Deployments, NewDeployment)

	if err := h.Err(); err != nil {
		return err
	}

	e.latest = nil
	for _, d := range e.Deployments.Value() {
		deployedAt, ok := d.DeployedAt.Get()
		if !ok {
			continue
		}
		if e.latest == nil || deployedAt.After(e.latest.DeployedAt.Value()) {
			e.latest = d
		}
	}

	return nil
}

// LatestDeployment returns the most recent deployment with a known deploy time
func (e *Environment) LatestDeployment() (*Deployment, bool) {
	return e.latest, e.latest != nil
}

type Deployment struct {
	ID         hydration.Field[string]    `json:"id,omitzero"`
	Version    hydration.Field[string]    `json:"version,omitzero"`
	Status     hydration.Field[string]    `json:"status,omitzero"`
	DeployedAt hydration.Field[time.Time] `json:"deployedAt,omitzero"`
}

func NewDeployment(raw any) (*Deployment, error) {
	return hydrated(&Deployment{}, raw)
}

func (d *Deployment) Hydrate(raw any) error {
	h := hydration.From(raw)
	hydration.Scalar(h, "id", &d.ID)
	hydration.Scalar(h, "version", &d.Version)
	hydration.Scalar(h, "status", &d.Status)
	hydration.Scalar(h, "deployedAt", &d.DeployedAt)
	return h.Err()
}
