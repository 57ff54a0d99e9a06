package models

import (
	"strings"
	"time"

	"github.com/diwise/entity-hydration/pkg/hydration"
)

type User struct {
	ID                   hydration.Field[string]          `json:"id,omitzero"`
	Name                 hydration.Field[string]          `json:"name,omitzero"`
	Email                hydration.Field[string]          `json:"email,omitzero"`
	AvatarURL            hydration.Field[string]          `json:"avatarUrl,omitzero"`
	ActiveOrganizationID hydration.Field[string]          `json:"activeOrganizationId,omitzero"`
	Organizations        hydration.Field[[]*Organization] `json:"organizations,omitzero"`
	Profile              hydration.Field[*Profile]        `json:"profile,omitzero"`
	Preferences          hydration.Field[*Preferences]    `json:"preferences,omitzero"`
	CreatedAt            hydration.Field[time.Time]       `json:"createdAt,omitzero"`
	LastLoginAt          hydration.Field[time.Time]       `json:"lastLoginAt,omitzero"`

	isAdmin       bool
	organizations map[string]*Organization
}

// NewUser creates a User that belongs to no organizations until the raw value says otherwise
func NewUser(raw any) (*User, error) {
	return hydrated(&User{
		Organizations: hydration.Of([]*Organization{}),
	}, raw)
}

func (u *User) Hydrate(raw any) error {
	h := hydration.From(raw)
	hydration.Scalar(h, "id", &u.ID)
	hydration.Scalar(h, "name", &u.Name)
	hydration.Scalar(h, "email", &u.Email)
	hydration.Scalar(h, "avatarUrl", &u.AvatarURL)
	hydration.Scalar(h, "activeOrganizationId", &u.ActiveOrganizationID)
	hydration.Many(h, "organizations", &u.Organizations, NewOrganization)
	hydration.One(h, "profile", &u.Profile, NewProfile)
	hydration.One(h, "preferences", &u.Preferences, NewPreferences)
	hydration.Scalar(h, "createdAt", &u.CreatedAt)
	hydration.Scalar(h, "lastLoginAt", &u.LastLoginAt)

	if err := h.Err(); err != nil {
		return err
	}

	u.organizations = make(map[string]*Organization)
	for _, o := range u.Organizations.Value() {
		if id, ok := o.ID.Get(); ok {
			u.organizations[id] = o
		}
	}

	u.isAdmin = false
	if active, ok := u.ActiveOrganization(); ok {
		u.isAdmin = active.HasRole(administratorRoles...)
	}

	return nil
}

func (u *User) ResourceID() string {
	return u.ID.Value()
}

// IsAdmin reports if the user is an administrator of the active organization
func (u *User) IsAdmin() bool {
	return u.isAdmin
}

func (u *User) Organization(id string) (*Organization, bool) {
	o, ok := u.organizations[id]
	return o, ok
}

func (u *User) ActiveOrganization() (*Organization, bool) {
	id, ok := u.ActiveOrganizationID.Get()
	if !ok {
		return nil, false
	}
	return u.Organization(id)
}

type Profile struct {
	FirstName hydration.Field[string]   `json:"firstName,omitzero"`
	LastName  hydration.Field[string]   `json:"lastName,omitzero"`
	Title     hydration.Field[string]   `json:"title,omitzero"`
	Phone     hydration.Field[string]   `json:"phone,omitzero"`
	Address   hydration.Field[*Address] `json:"address,omitzero"`
}

func NewProfile(raw any) (*Profile, error) {
	return hydrated(&Profile{}, raw)
}

func (p *Profile) Hydrate(raw any) error {
	h := hydration.From(raw)
	hydration.Scalar(h, "firstName", &p.FirstName)
	hydration.Scalar(h, "lastName", &p.LastName)
	hydration.Scalar(h, "title", &p.Title)
	hydration.Scalar(h, "phone", &p.Phone)
	hydration.One(h, "address", &p.Address, NewAddress)
	return h.Err()
}

func (p *Profile) FullName() string {
	return strings.TrimSpace(p.FirstName.Value() + " " + p.LastName.Value())
}

type Preferences struct {
	Theme         hydration.Field[string] `json:"theme,omitzero"`
	Language      hydration.Field[string] `json:"language,omitzero"`
	Notifications hydration.Field[bool]   `json:"notifications,omitzero"`
}

func NewPreferences(raw any) (*Preferences, error) {
	return hydrated(&Preferences{
		Theme:         hydration.Of(ThemeLight),
		Notifications: hydration.Of(true),
	}, raw)
}

func (p *Preferences) Hydrate(raw any) error {
	h := hydration.From(raw)
	hydration.Scalar(h, "theme", &p.Theme)
	hydration.Scalar(h, "language", &p.Language)
	hydration.Scalar(h, "notifications", &p.Notifications)
	return h.Err()
}

type Address struct {
	Street     hydration.Field[string] `json:"street,omitzero"`
	City       hydration.Field[string] `json:"city,omitzero"`
	PostalCode hydration.Field[string] `json:"postalCode,omitzero"`
	Country    hydration.Field[string] `json:"country,omitzero"`
}

func NewAddress(raw any) (*Address, error) {
	return hydrated(&Address{}, raw)
}

func (a *Address) Hydrate(raw any) error {
	h := hydration.From(raw)
	hydration.Scalar(h, "street", &a.Street)
	hydration.Scalar(h, "city", &a.City)
	hydration.Scalar(h, "postalCode", &a.PostalCode)
	hydration.Scalar(h, "country", &a.Country)
	return h.Err()
}
