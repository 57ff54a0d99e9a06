package entities

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/diwise/entity-hydration/internal/pkg/application/events"
	"github.com/diwise/entity-hydration/internal/pkg/infrastructure/storage"
	"github.com/diwise/entity-hydration/pkg/hydration"
	"github.com/diwise/entity-hydration/pkg/models"
	"github.com/diwise/entity-hydration/pkg/validation"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("entity-hydration/entities")

type EntityHydrator interface {
	Hydrate(ctx context.Context, kind string, raw any) (models.Resource, error)
}

type EntityCreator interface {
	Create(ctx context.Context, kind string, raw any) (models.Resource, error)
}

type EntityRetriever interface {
	Retrieve(ctx context.Context, kind, id string) (models.Resource, error)
}

type EntityMerger interface {
	Merge(ctx context.Context, kind, id string, raw any) (models.Resource, error)
}

type EntityQuerier interface {
	Query(ctx context.Context, kind string) ([]models.Resource, error)
}

type EntityDeleter interface {
	Delete(ctx context.Context, kind, id string) error
}

type App interface {
	EntityHydrator
	EntityCreator
	EntityRetriever
	EntityMerger
	EntityQuerier
	EntityDeleter

	Kinds() []string
}

type kindInfo struct {
	models.Kind
	validate bool
	readOnly bool
}

type app struct {
	kinds     map[string]kindInfo
	order     []string
	store     storage.Storage
	validator validation.Validator
	notifier  events.Notifier

	// serializes read-modify-write cycles against the storage
	mu sync.Mutex
}

type Option func(*app)

// WithNotifier posts a notification for every created, merged or deleted entity
func WithNotifier(n events.Notifier) Option {
	return func(a *app) {
		a.notifier = n
	}
}

// New creates an App exposing the kinds named in cfg. A nil validator is only
// allowed when no kind asks for validation.
func New(ctx context.Context, cfg Config, store storage.Storage, validator validation.Validator, options ...Option) (App, error) {
	a := &app{
		kinds:     make(map[string]kindInfo),
		store:     store,
		validator: validator,
	}

	for _, option := range options {
		option(a)
	}

	for _, k := range cfg.Kinds {
		kind, ok := models.LookupKind(k.Name)
		if !ok {
			return nil, NewUnknownKindError(k.Name)
		}

		if k.Validate && validator == nil {
			return nil, fmt.Errorf("kind %s requires validation but no validator was supplied", k.Name)
		}

		if _, exists := a.kinds[k.Name]; !exists {
			a.order = append(a.order, k.Name)
		}

		a.kinds[k.Name] = kindInfo{Kind: kind, validate: k.Validate, readOnly: k.ReadOnly}
	}

	logging.GetFromContext(ctx).Info("entity application created", "kinds", a.order)

	return a, nil
}

func (a *app) Kinds() []string {
	return append([]string{}, a.order...)
}

func (a *app) lookup(kind string) (kindInfo, error) {
	k, ok := a.kinds[kind]
	if !ok {
		return kindInfo{}, NewUnknownKindError(kind)
	}
	return k, nil
}

func (a *app) writable(kind string) (kindInfo, error) {
	k, err := a.lookup(kind)
	if err != nil {
		return k, err
	}

	if k.readOnly {
		return k, NewNotAllowedError(fmt.Sprintf("kind %s is read only", kind))
	}

	return k, nil
}

// Hydrate builds an entity from raw without storing it
func (a *app) Hydrate(ctx context.Context, kind string, raw any) (models.Resource, error) {
	var err error

	ctx, span := tracer.Start(ctx, "hydrate", trace.WithAttributes(attribute.String("kind", kind)))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	k, err := a.lookup(kind)
	if err != nil {
		return nil, err
	}

	e, err := k.New(raw)
	if err != nil {
		err = NewBadRequestError(fmt.Sprintf("failed to hydrate %s: %s", kind, err.Error()))
		return nil, err
	}

	err = a.validate(ctx, k, e)
	if err != nil {
		return nil, err
	}

	return e, nil
}

func (a *app) Create(ctx context.Context, kind string, raw any) (models.Resource, error) {
	var err error

	ctx, span := tracer.Start(ctx, "create-entity", trace.WithAttributes(attribute.String("kind", kind)))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	k, err := a.writable(kind)
	if err != nil {
		return nil, err
	}

	if _, ok := raw.(map[string]any); !ok {
		err = NewBadRequestError("request body must be a json object")
		return nil, err
	}

	e, err := k.New(raw)
	if err != nil {
		err = NewBadRequestError(fmt.Sprintf("failed to hydrate %s: %s", kind, err.Error()))
		return nil, err
	}

	if e.ResourceID() == "" {
		// every field has been hydrated once already, so this only touches the id
		err = e.Hydrate(map[string]any{"id": uuid.NewString()})
		if err != nil {
			return nil, err
		}
	}

	err = a.validate(ctx, k, e)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	_, err = a.store.Load(ctx, kind, e.ResourceID())
	if err == nil {
		err = NewAlreadyExistsError(fmt.Sprintf("%s/%s already exists", kind, e.ResourceID()))
		return nil, err
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	err = a.save(ctx, kind, e)
	if err != nil {
		return nil, err
	}

	logging.GetFromContext(ctx).Info("entity created", "kind", kind, "id", e.ResourceID())

	if a.notifier != nil {
		a.notifier.EntityCreated(ctx, kind, e.ResourceID(), e)
	}

	return e, nil
}

func (a *app) Retrieve(ctx context.Context, kind, id string) (models.Resource, error) {
	var err error

	ctx, span := tracer.Start(ctx, "retrieve-entity", trace.WithAttributes(attribute.String("kind", kind), attribute.String("id", id)))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	k, err := a.lookup(kind)
	if err != nil {
		return nil, err
	}

	e, err := a.load(ctx, k, id)
	return e, err
}

// Merge re-hydrates a stored entity with a partial payload. Fields that the
// payload does not mention keep their stored values.
func (a *app) Merge(ctx context.Context, kind, id string, raw any) (models.Resource, error) {
	var err error

	ctx, span := tracer.Start(ctx, "merge-entity", trace.WithAttributes(attribute.String("kind", kind), attribute.String("id", id)))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	k, err := a.writable(kind)
	if err != nil {
		return nil, err
	}

	if _, ok := raw.(map[string]any); !ok {
		err = NewBadRequestError("request body must be a json object")
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	e, err := a.load(ctx, k, id)
	if err != nil {
		return nil, err
	}

	err = e.Hydrate(raw)
	if err != nil {
		err = NewBadRequestError(fmt.Sprintf("failed to merge %s/%s: %s", kind, id, err.Error()))
		return nil, err
	}

	if e.ResourceID() != id {
		err = NewBadRequestError("the id of an entity can not be changed")
		return nil, err
	}

	err = a.validate(ctx, k, e)
	if err != nil {
		return nil, err
	}

	err = a.save(ctx, kind, e)
	if err != nil {
		return nil, err
	}

	logging.GetFromContext(ctx).Info("entity merged", "kind", kind, "id", id)

	if a.notifier != nil {
		a.notifier.EntityMerged(ctx, kind, id, e)
	}

	return e, nil
}

func (a *app) Query(ctx context.Context, kind string) ([]models.Resource, error) {
	var err error

	ctx, span := tracer.Start(ctx, "query-entities", trace.WithAttributes(attribute.String("kind", kind)))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	k, err := a.lookup(kind)
	if err != nil {
		return nil, err
	}

	bodies, err := a.store.List(ctx, kind)
	if err != nil {
		return nil, err
	}

	result := make([]models.Resource, 0, len(bodies))

	for _, body := range bodies {
		var e models.Resource
		e, err = rebuild(k, body)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}

	return result, nil
}

func (a *app) Delete(ctx context.Context, kind, id string) error {
	var err error

	ctx, span := tracer.Start(ctx, "delete-entity", trace.WithAttributes(attribute.String("kind", kind), attribute.String("id", id)))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	_, err = a.writable(kind)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	err = a.store.Delete(ctx, kind, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			err = NewNotFoundError(fmt.Sprintf("%s/%s not found", kind, id))
		}
		return err
	}

	logging.GetFromContext(ctx).Info("entity deleted", "kind", kind, "id", id)

	if a.notifier != nil {
		a.notifier.EntityDeleted(ctx, kind, id)
	}

	return nil
}

func (a *app) validate(ctx context.Context, k kindInfo, e models.Resource) error {
	if !k.validate {
		return nil
	}

	violations, err := a.validator.Validate(ctx, k.Name, e)
	if err != nil {
		return fmt.Errorf("failed to validate %s: %w", k.Name, err)
	}

	if len(violations) > 0 {
		return ValidationError{Violations: validation.Messages(violations)}
	}

	return nil
}

func (a *app) load(ctx context.Context, k kindInfo, id string) (models.Resource, error) {
	body, err := a.store.Load(ctx, k.Name, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, NewNotFoundError(fmt.Sprintf("%s/%s not found", k.Name, id))
		}
		return nil, err
	}

	return rebuild(k, body)
}

func (a *app) save(ctx context.Context, kind string, e models.Resource) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", kind, err)
	}

	return a.store.Save(ctx, kind, e.ResourceID(), body)
}

func rebuild(k kindInfo, body []byte) (models.Resource, error) {
	raw, err := hydration.Unmarshal(body)
	if err != nil {
		return nil, err
	}

	e, err := k.New(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild %s from storage: %w", k.Name, err)
	}

	return e, nil
}
