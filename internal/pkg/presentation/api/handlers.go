package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/diwise/entity-hydration/internal/pkg/application/entities"
	"github.com/diwise/entity-hydration/internal/pkg/presentation/api/auth"
	"github.com/diwise/entity-hydration/internal/pkg/presentation/api/problems"
	"github.com/diwise/entity-hydration/pkg/hydration"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("entity-hydration/api")

const maxBodySize int64 = 4 << 20

const messageToSendToNonAuthenticatedClients string = "not found"

// NewRetrieveKindsHandler lists the kinds exposed by the application
func NewRetrieveKindsHandler(app entities.App) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, app.Kinds())
	})
}

// NewHydrateEntityHandler hydrates the request body and returns the resulting
// entity without storing it
func NewHydrateEntityHandler(app entities.EntityHydrator, authenticator auth.Enticator) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		kind := urlParam(r, "kind")

		ctx, span := tracer.Start(r.Context(), "hydrate-entity", trace.WithAttributes(attribute.String(TraceAttributeKind, kind)))
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		labeler, _ := otelhttp.LabelerFromContext(ctx)
		defer func() { addLabelIfError(err, labeler) }()

		log := logging.GetFromContext(ctx)

		err = authenticator.CheckAccess(ctx, r, kind)
		if err != nil {
			log.Warn("access not granted", "err", err.Error())
			problems.NewNotFound(messageToSendToNonAuthenticatedClients, traceID(ctx)).WriteResponse(w)
			return
		}

		raw, err := hydration.Decode(http.MaxBytesReader(w, r.Body, maxBodySize))
		if err != nil {
			problems.NewBadRequestData(err.Error(), traceID(ctx)).WriteResponse(w)
			return
		}

		entity, err := app.Hydrate(ctx, kind, raw)
		if err != nil {
			log.Info("hydration failed", "kind", kind, "err", err.Error())
			reportError(w, err, traceID(ctx))
			return
		}

		writeJSON(w, http.StatusOK, entity)
	})
}

// NewCreateEntityHandler handles incoming POST requests for entities of a kind
func NewCreateEntityHandler(app entities.EntityCreator, authenticator auth.Enticator) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		kind := urlParam(r, "kind")

		ctx, span := tracer.Start(r.Context(), "create-entity", trace.WithAttributes(attribute.String(TraceAttributeKind, kind)))
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		labeler, _ := otelhttp.LabelerFromContext(ctx)
		defer func() { addLabelIfError(err, labeler) }()

		log := logging.GetFromContext(ctx)

		err = authenticator.CheckAccess(ctx, r, kind)
		if err != nil {
			log.Warn("access not granted", "err", err.Error())
			problems.NewNotFound(messageToSendToNonAuthenticatedClients, traceID(ctx)).WriteResponse(w)
			return
		}

		raw, err := hydration.Decode(http.MaxBytesReader(w, r.Body, maxBodySize))
		if err != nil {
			problems.NewBadRequestData(err.Error(), traceID(ctx)).WriteResponse(w)
			return
		}

		entity, err := app.Create(ctx, kind, raw)
		if err != nil {
			log.Error("create entity failed", "kind", kind, "err", err.Error())
			reportError(w, err, traceID(ctx))
			return
		}

		w.Header().Add("Location", fmt.Sprintf("/api/v1/%s/%s", kind, url.PathEscape(entity.ResourceID())))
		writeJSON(w, http.StatusCreated, entity)
	})
}

// NewQueryEntitiesHandler returns every stored entity of a kind
func NewQueryEntitiesHandler(app entities.EntityQuerier, authenticator auth.Enticator) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		kind := urlParam(r, "kind")

		ctx, span := tracer.Start(r.Context(), "query-entities", trace.WithAttributes(attribute.String(TraceAttributeKind, kind)))
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		log := logging.GetFromContext(ctx)

		err = authenticator.CheckAccess(ctx, r, kind)
		if err != nil {
			log.Warn("access not granted", "err", err.Error())
			problems.NewNotFound(messageToSendToNonAuthenticatedClients, traceID(ctx)).WriteResponse(w)
			return
		}

		result, err := app.Query(ctx, kind)
		if err != nil {
			log.Error("query entities failed", "kind", kind, "err", err.Error())
			reportError(w, err, traceID(ctx))
			return
		}

		writeJSON(w, http.StatusOK, result)
	})
}

func NewRetrieveEntityHandler(app entities.EntityRetriever, authenticator auth.Enticator) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		kind := urlParam(r, "kind")
		entityID := urlParam(r, "id")

		ctx, span := tracer.Start(r.Context(), "retrieve-entity",
			trace.WithAttributes(
				attribute.String(TraceAttributeKind, kind),
				attribute.String(TraceAttributeEntityID, entityID),
			),
		)
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		log := logging.GetFromContext(ctx)

		err = authenticator.CheckAccess(ctx, r, kind)
		if err != nil {
			log.Warn("access not granted", "err", err.Error())
			problems.NewNotFound(messageToSendToNonAuthenticatedClients, traceID(ctx)).WriteResponse(w)
			return
		}

		entity, err := app.Retrieve(ctx, kind, entityID)
		if err != nil {
			log.Info("failed to retrieve entity", "kind", kind, "id", entityID, "err", err.Error())
			reportError(w, err, traceID(ctx))
			return
		}

		writeJSON(w, http.StatusOK, entity)
	})
}

// NewMergeEntityHandler merges a partial payload into a stored entity
func NewMergeEntityHandler(app entities.EntityMerger, authenticator auth.Enticator) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		kind := urlParam(r, "kind")
		entityID := urlParam(r, "id")

		ctx, span := tracer.Start(r.Context(), "merge-entity",
			trace.WithAttributes(
				attribute.String(TraceAttributeKind, kind),
				attribute.String(TraceAttributeEntityID, entityID),
			),
		)
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		labeler, _ := otelhttp.LabelerFromContext(ctx)
		defer func() { addLabelIfError(err, labeler) }()

		log := logging.GetFromContext(ctx)

		err = authenticator.CheckAccess(ctx, r, kind)
		if err != nil {
			log.Warn("access not granted", "err", err.Error())
			problems.NewNotFound(messageToSendToNonAuthenticatedClients, traceID(ctx)).WriteResponse(w)
			return
		}

		raw, err := hydration.Decode(http.MaxBytesReader(w, r.Body, maxBodySize))
		if err != nil {
			problems.NewBadRequestData(err.Error(), traceID(ctx)).WriteResponse(w)
			return
		}

		entity, err := app.Merge(ctx, kind, entityID, raw)
		if err != nil {
			log.Error("merge entity failed", "kind", kind, "id", entityID, "err", err.Error())
			reportError(w, err, traceID(ctx))
			return
		}

		writeJSON(w, http.StatusOK, entity)
	})
}

func NewDeleteEntityHandler(app entities.EntityDeleter, authenticator auth.Enticator) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		kind := urlParam(r, "kind")
		entityID := urlParam(r, "id")

		ctx, span := tracer.Start(r.Context(), "delete-entity",
			trace.WithAttributes(
				attribute.String(TraceAttributeKind, kind),
				attribute.String(TraceAttributeEntityID, entityID),
			),
		)
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		log := logging.GetFromContext(ctx)

		err = authenticator.CheckAccess(ctx, r, kind)
		if err != nil {
			log.Warn("access not granted", "err", err.Error())
			problems.NewNotFound(messageToSendToNonAuthenticatedClients, traceID(ctx)).WriteResponse(w)
			return
		}

		err = app.Delete(ctx, kind, entityID)
		if err != nil {
			log.Error("delete entity failed", "kind", kind, "id", entityID, "err", err.Error())
			reportError(w, err, traceID(ctx))
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})
}

func urlParam(r *http.Request, name string) string {
	value, err := url.PathUnescape(chi.URLParam(r, name))
	if err != nil {
		return chi.URLParam(r, name)
	}
	return value
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	b, err := json.Marshal(body)
	if err != nil {
		problems.NewInternalError(err.Error(), "").WriteResponse(w)
		return
	}

	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(b)
}

func reportError(w http.ResponseWriter, err error, traceID string) {
	var verr entities.ValidationError

	switch {
	case errors.As(err, &verr):
		problems.NewValidationFailed(verr.Violations, traceID).WriteResponse(w)
	case errors.Is(err, entities.ErrAlreadyExists):
		problems.NewAlreadyExists(err.Error(), traceID).WriteResponse(w)
	case errors.Is(err, entities.ErrBadRequest):
		problems.NewBadRequestData(err.Error(), traceID).WriteResponse(w)
	case errors.Is(err, entities.ErrNotAllowed):
		problems.NewNotAllowed(err.Error(), traceID).WriteResponse(w)
	case errors.Is(err, entities.ErrNotFound):
		problems.NewNotFound(err.Error(), traceID).WriteResponse(w)
	case errors.Is(err, entities.ErrUnknownKind):
		problems.NewUnknownKind(err.Error(), traceID).WriteResponse(w)
	default:
		problems.NewInternalError(err.Error(), traceID).WriteResponse(w)
	}
}

func addLabelIfError(err error, labeler *otelhttp.Labeler) {
	if err != nil && labeler != nil {
		labeler.Add(attribute.Bool("error", true))
	}
}
