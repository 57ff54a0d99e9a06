package models

import (
	"slices"
	"time"

	"github.com/diwise/entity-hydration/pkg/hydration"
)

type Plan struct {
	ID       hydration.Field[string]   `json:"id,omitzero"`
	Name     hydration.Field[string]   `json:"name,omitzero"`
	Seats    hydration.Field[int]      `json:"seats,omitzero"`
	Features hydration.Field[[]string] `json:"features,omitzero"`
}

func NewPlan(raw any) (*Plan, error) {
	return hydrated(&Plan{
		Features: hydration.Of([]string{}),
	}, raw)
}

func (p *Plan) Hydrate(raw any) error {
	h := hydration.From(raw)
	hydration.Scalar(h, "id", &p.ID)
	hydration.Scalar(h, "name", &p.Name)
	hydration.Scalar(h, "seats", &p.Seats)
	hydration.Scalar(h, "features", &p.Features)
	return h.Err()
}

func (p *Plan) HasFeature(feature string) bool {
	return slices.Contains(p.Features.Value(), feature)
}

type Subscription struct {
	ID             hydration.Field[string]    `json:"id,omitzero"`
	OrganizationID hydration.Field[string]    `json:"organizationId,omitzero"`
	Plan           hydration.Field[*Plan]     `json:"plan,omitzero"`
	Status         hydration.Field[string]    `json:"status,omitzero"`
	Seats          hydration.Field[int]       `json:"seats,omitzero"`
	RenewsAt       hydration.Field[time.Time] `json:"renewsAt,omitzero"`

	active bool
}

func NewSubscription(raw any) (*Subscription, error) {
	return hydrated(&Subscription{}, raw)
}

func (s *Subscription) Hydrate(raw any) error {
	h := hydration.From(raw)
	hydration.Scalar(h, "id", &s.ID)
	hydration.Scalar(h, "organizationId", &s.OrganizationID)
	hydration.One(h, "plan", &s.Plan, NewPlan)
	hydration.Scalar(h, "status", &s.Status)
	hydration.Scalar(h, "seats", &s.Seats)
	hydration.Scalar(h, "renewsAt", &s.RenewsAt)

	if err := h.Err(); err != nil {
		return err
	}

	status := s.Status.Value()
	s.active = status == SubscriptionActive || status == SubscriptionTrialing

	return nil
}

func (s *Subscription) ResourceID() string {
	return s.ID.Value()
}

func (s *Subscription) IsActive() bool {
	return s.active
}

// AvailableSeats returns the seats of the subscription, falling back to the seats of its plan
func (s *Subscription) AvailableSeats() int {
	if seats, ok := s.Seats.Get(); ok {
		return seats
	}
	if plan, ok := s.Plan.Get(); ok {
		return plan.Seats.Value()
	}
	return 0
}
