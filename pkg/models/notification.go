package models

import (
	"time"

	"github.com/diwise/entity-hydration/pkg/hydration"
)

type Notification struct {
	ID        hydration.Field[string]    `json:"id,omitzero"`
	Title     hydration.Field[string]    `json:"title,omitzero"`
	Body      hydration.Field[string]    `json:"body,omitzero"`
	Read      hydration.Field[bool]      `json:"read,omitzero"`
	CreatedAt hydration.Field[time.Time] `json:"createdAt,omitzero"`
	Actor     hydration.Field[*Member]   `json:"actor,omitzero"`
}

// NewNotification creates an unread Notification
func NewNotification(raw any) (*Notification, error) {
	return hydrated(&Notification{
		Read: hydration.Of(false),
	}, raw)
}

func (n *Notification) Hydrate(raw any) error {
	h := hydration.From(raw)
	hydration.Scalar(h, "id", &n.ID)
	hydration.Scalar(h, "title", &n.Title)
	hydration.Scalar(h, "body", &n.Body)
	hydration.Scalar(h, "read", &n.Read)
	hydration.Scalar(h, "createdAt", &n.CreatedAt)
	hydration.One(h, "actor", &n.Actor, NewMember)
	return h.Err()
}

func (n *Notification) ResourceID() string {
	return n.ID.Value()
}

// AuditEvent records an action taken by a member. Metadata is kept as the raw structure it was sent with.
type AuditEvent struct {
	ID         hydration.Field[string]    `json:"id,omitzero"`
	Action     hydration.Field[string]    `json:"action,omitzero"`
	Actor      hydration.Field[*Member]   `json:"actor,omitzero"`
	Target     hydration.Field[string]    `json:"target,omitzero"`
	Metadata   hydration.Field[any]       `json:"metadata,omitzero"`
	OccurredAt hydration.Field[time.Time] `json:"occurredAt,omitzero"`
}

func NewAuditEvent(raw any) (*AuditEvent, error) {
	return hydrated(&AuditEvent{}, raw)
}

func (e *AuditEvent) Hydrate(raw any) error {
	h := hydration.From(raw)
	hydration.Scalar(h, "id", &e.ID)
	hydration.Scalar(h, "action", &e.Action)
	hydration.One(h, "actor", &e.Actor, NewMember)
	hydration.Scalar(h, "target", &e.Target)
	hydration.Scalar(h, "metadata", &e.Metadata)
	hydration.Scalar(h, "occurredAt", &e.OccurredAt)
	return h.Err()
}

func (e *AuditEvent) ResourceID() string {
	return e.ID.Value()
}
