package models

import (
	"time"

	"github.com/diwise/entity-hydration/pkg/hydration"
)

type Organization struct {
	ID          hydration.Field[string]                `json:"id,omitzero"`
	Name        hydration.Field[string]                `json:"name,omitzero"`
	Slug        hydration.Field[string]                `json:"slug,omitzero"`
	Roles       hydration.Field[[]*Role]               `json:"roles,omitzero"`
	Members     hydration.Field[[]*Member]             `json:"members,omitzero"`
	Permissions hydration.Field[[]*Permission]         `json:"permissions,omitzero"`
	Settings    hydration.Field[*OrganizationSettings] `json:"settings,omitzero"`

	roleIndex map[int]*Role
}

// NewOrganization creates an Organization with an empty list of roles
func NewOrganization(raw any) (*Organization, error) {
	return hydrated(&Organization{
		Roles: hydration.Of([]*Role{}),
	}, raw)
}

func (o *Organization) Hydrate(raw any) error {
	h := hydration.From(raw)
	hydration.Scalar(h, "id", &o.ID)
	hydration.Scalar(h, "name", &o.Name)
	hydration.Scalar(h, "slug", &o.Slug)
	hydration.Many(h, "roles", &o.Roles, NewRole)
	hydration.Many(h, "members", &o.Members, NewMember)
	hydration.Many(h, "permissions", &o.Permissions, NewPermission)
	hydration.One(h, "settings", &o.Settings, NewOrganizationSettings)

	if err := h.Err(); err != nil {
		return err
	}

	o.roleIndex = make(map[int]*Role)
	for _, r := range o.Roles.Value() {
		if id, ok := r.ID.Get(); ok {
			o.roleIndex[id] = r
		}
	}

	return nil
}

func (o *Organization) ResourceID() string {
	return o.ID.Value()
}

// Role returns the role with the given id, if the organization has it
func (o *Organization) Role(id int) (*Role, bool) {
	r, ok := o.roleIndex[id]
	return r, ok
}

// HasRole reports if the organization holds any of the given role ids
func (o *Organization) HasRole(ids ...int) bool {
	for _, id := range ids {
		if _, ok := o.roleIndex[id]; ok {
			return true
		}
	}
	return false
}

type OrganizationSettings struct {
	DefaultRole    hydration.Field[int]      `json:"defaultRole,omitzero"`
	AllowedDomains hydration.Field[[]string] `json:"allowedDomains,omitzero"`
	SSOEnabled     hydration.Field[bool]     `json:"ssoEnabled,omitzero"`
}

func NewOrganizationSettings(raw any) (*OrganizationSettings, error) {
	return hydrated(&OrganizationSettings{
		DefaultRole:    hydration.Of(RoleViewer),
		AllowedDomains: hydration.Of([]string{}),
		SSOEnabled:     hydration.Of(false),
	}, raw)
}

func (s *OrganizationSettings) Hydrate(raw any) error {
	h := hydration.From(raw)
	hydration.Scalar(h, "defaultRole", &s.DefaultRole)
	hydration.Scalar(h, "allowedDomains", &s.AllowedDomains)
	hydration.Scalar(h, "ssoEnabled", &s.SSOEnabled)
	return h.Err()
}

// Member is a user as seen from within one organization
type Member struct {
	ID     hydration.Field[string]  `json:"id,omitzero"`
	UserID hydration.Field[string]  `json:"userId,omitzero"`
	Name   hydration.Field[string]  `json:"name,omitzero"`
	Email  hydration.Field[string]  `json:"email,omitzero"`
	Roles  hydration.Field[[]*Role] `json:"roles,omitzero"`
}

func NewMember(raw any) (*Member, error) {
	return hydrated(&Member{
		Roles: hydration.Of([]*Role{}),
	}, raw)
}

func (m *Member) Hydrate(raw any) error {
	h := hydration.From(raw)
	hydration.Scalar(h, "id", &m.ID)
	hydration.Scalar(h, "userId", &m.UserID)
	hydration.Scalar(h, "name", &m.Name)
	hydration.Scalar(h, "email", &m.Email)
	hydration.Many(h, "roles", &m.Roles, NewRole)
	return h.Err()
}

func (m *Member) IsAdmin() bool {
	return containsAnyRole(m.Roles.Value(), administratorRoles)
}

type Invitation struct {
	ID             hydration.Field[string]    `json:"id,omitzero"`
	Email          hydration.Field[string]    `json:"email,omitzero"`
	OrganizationID hydration.Field[string]    `json:"organizationId,omitzero"`
	Role           hydration.Field[*Role]     `json:"role,omitzero"`
	Status         hydration.Field[string]    `json:"status,omitzero"`
	ExpiresAt      hydration.Field[time.Time] `json:"expiresAt,omitzero"`
}

// NewInvitation creates an Invitation that is pending unless told otherwise
func NewInvitation(raw any) (*Invitation, error) {
	return hydrated(&Invitation{
		Status: hydration.Of(InvitationPending),
	}, raw)
}

func (i *Invitation) Hydrate(raw any) error {
	h := hydration.From(raw)
	hydration.Scalar(h, "id", &i.ID)
	hydration.Scalar(h, "email", &i.Email)
	hydration.Scalar(h, "organizationId", &i.OrganizationID)
	hydration.One(h, "role", &i.Role, NewRole)
	hydration.Scalar(h, "status", &i.Status)
	hydration.Scalar(h, "expiresAt", &i.ExpiresAt)
	return h.Err()
}

func (i *Invitation) ResourceID() string {
	return i.ID.Value()
}

// Expired reports if the invitation has an expiry before t
func (i *Invitation) Expired(t time.Time) bool {
	expiresAt, ok := i.ExpiresAt.Get()
	return ok && expiresAt.Before(t)
}
