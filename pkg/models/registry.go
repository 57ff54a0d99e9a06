package models

import (
	"maps"
	"slices"
)

const (
	UsersKind         string = "users"
	OrganizationsKind string = "organizations"
	InvitationsKind   string = "invitations"
	ProjectsKind      string = "projects"
	APIKeysKind       string = "apikeys"
	DevicesKind       string = "devices"
	NotificationsKind string = "notifications"
	AuditEventsKind   string = "auditevents"
	SubscriptionsKind string = "subscriptions"
)

// Kind binds a resource collection name to the constructor of its entity
type Kind struct {
	Name string
	New  func(raw any) (Resource, error)
}

func resource[E Resource](construct func(raw any) (E, error)) func(raw any) (Resource, error) {
	return func(raw any) (Resource, error) {
		e, err := construct(raw)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
}

var kinds = map[string]Kind{
	UsersKind:         {Name: UsersKind, New: resource(NewUser)},
	OrganizationsKind: {Name: OrganizationsKind, New: resource(NewOrganization)},
	InvitationsKind:   {Name: InvitationsKind, New: resource(NewInvitation)},
	ProjectsKind:      {Name: ProjectsKind, New: resource(NewProject)},
	APIKeysKind:       {Name: APIKeysKind, New: resource(NewAPIKey)},
	DevicesKind:       {Name: DevicesKind, New: resource(NewDevice)},
	NotificationsKind: {Name: NotificationsKind, New: resource(NewNotification)},
	AuditEventsKind:   {Name: AuditEventsKind, New: resource(NewAuditEvent)},
	SubscriptionsKind: {Name: SubscriptionsKind, New: resource(NewSubscription)},
}

// LookupKind returns the kind registered under name
func LookupKind(name string) (Kind, bool) {
	k, ok := kinds[name]
	return k, ok
}

// Kinds returns the names of all registered kinds in sorted order
func Kinds() []string {
	return slices.Sorted(maps.Keys(kinds))
}
