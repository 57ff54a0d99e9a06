package models

import (
	"time"

	"github.com/diwise/entity-hydration/pkg/hydration"
)

type Device struct {
	ID       hydration.Field[string]    `json:"id,omitzero"`
	Name     hydration.Field[string]    `json:"name,omitzero"`
	Kind     hydration.Field[string]    `json:"kind,omitzero"`
	Location hydration.Field[*Location] `json:"location,omitzero"`
	Tags     hydration.Field[[]string]  `json:"tags,omitzero"`
	Sensors  hydration.Field[[]*Sensor] `json:"sensors,omitzero"`
	Online   hydration.Field[bool]      `json:"online,omitzero"`

	sensors map[string]*Sensor
}

func NewDevice(raw any) (*Device, error) {
	return hydrated(&Device{
		Tags:    hydration.Of([]string{}),
		Sensors: hydration.Of([]*Sensor{}),
		Online:  hydration.Of(false),
	}, raw)
}

func (d *Device) Hydrate(raw any) error {
	h := hydration.From(raw)
	hydration.Scalar(h, "id", &d.ID)
	hydration.Scalar(h, "name", &d.Name)
	hydration.Scalar(h, "kind", &d.Kind)
	hydration.One(h, "location", &d.Location, NewLocation)
	hydration.Scalar(h, "tags", &d.Tags)
	hydration.Many(h, "sensors", &d.Sensors, NewSensor)
	hydration.Scalar(h, "online", &d.Online)

	if err := h.Err(); err != nil {
		return err
	}

	d.sensors = make(map[string]*Sensor)
	for _, s := range d.Sensors.Value() {
		if id, ok := s.ID.Get(); ok {
			d.sensors[id] = s
		}
	}

	return nil
}

func (d *Device) ResourceID() string {
	return d.ID.Value()
}

func (d *Device) Sensor(id string) (*Sensor, bool) {
	s, ok := d.sensors[id]
	return s, ok
}

type Location struct {
	Latitude  hydration.Field[float64]  `json:"latitude,omitzero"`
	Longitude hydration.Field[float64]  `json:"longitude,omitzero"`
	Address   hydration.Field[*Address] `json:"address,omitzero"`
}

func NewLocation(raw any) (*Location, error) {
	return hydrated(&Location{}, raw)
}

func (l *Location) Hydrate(raw any) error {
	h := hydration.From(raw)
	hydration.Scalar(h, "latitude", &l.Latitude)
	hydration.Scalar(h, "longitude", &l.Longitude)
	hydration.One(h, "address", &l.Address, NewAddress)
	return h.Err()
}

type Sensor struct {
	ID           hydration.Field[string]         `json:"id,omitzero"`
	Kind         hydration.Field[string]         `json:"kind,omitzero"`
	Unit         hydration.Field[string]         `json:"unit,omitzero"`
	Measurements hydration.Field[[]*Measurement] `json:"measurements,omitzero"`

	latest *Measurement
}

func NewSensor(raw any) (*Sensor, error) {
	return hydrated(&Sensor{}, raw)
}

func (s *Sensor) Hydrate(raw any) error {
	h := hydration.From(raw)
	hydration.Scalar(h, "id", &s.ID)
	hydration.Scalar(h, "kind", &s.Kind)
	hydration.Scalar(h, "unit", &s.Unit)
	hydration.Many(h, "measurements", &s.Measurements, NewMeasurement)

	if err := h.Err(); err != nil {
		return err
	}

	s.latest = nil
	for _, m := range s.Measurements.Value() {
		observedAt, ok := m.ObservedAt.Get()
		if !ok {
			continue
		}
		if s.latest == nil || observedAt.After(s.latest.ObservedAt.Value()) {
			s.latest = m
		}
	}

	return nil
}

// Latest returns the most recently observed measurement
func (s *Sensor) Latest() (*Measurement, bool) {
	return s.latest, s.latest != nil
}

type Measurement struct {
	Value      hydration.Field[float64]   `json:"value,omitzero"`
	Unit       hydration.Field[string]    `json:"unit,omitzero"`
	ObservedAt hydration.Field[time.Time] `json:"observedAt,omitzero"`
}

func NewMeasurement(raw any) (*Measurement, error) {
	return hydrated(&Measurement{}, raw)
}

func (m *Measurement) Hydrate(raw any) error {
	h := hydration.From(raw)
	hydration.Scalar(h, "value", &m.Value)
	hydration.Scalar(h, "unit", &m.Unit)
	hydration.Scalar(h, "observedAt", &m.ObservedAt)
	return h.Err()
}
