package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/diwise/entity-hydration/internal/pkg/application/entities"
	"github.com/diwise/entity-hydration/internal/pkg/presentation/api/auth"
	"github.com/diwise/entity-hydration/internal/pkg/presentation/api/problems"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
)

const (
	TraceAttributeKind     string = "kind"
	TraceAttributeEntityID string = "entity-id"
)

// RegisterHandlers mounts the hydration api under /api/v1 on r
func RegisterHandlers(ctx context.Context, r chi.Router, policies io.Reader, app entities.App) error {

	authenticator, err := auth.NewAuthenticator(ctx, policies)
	if err != nil {
		return fmt.Errorf("failed to create api authenticator: %w", err)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(
			Logger(logging.GetFromContext(ctx)),
			RequiredContentTypes([]string{"application/json", "application/merge-patch+json"}),
		)

		r.Get("/kinds", NewRetrieveKindsHandler(app))
		r.Post("/hydrate/{kind}", NewHydrateEntityHandler(app, authenticator))

		r.Route("/{kind}", func(r chi.Router) {
			r.Get("/", NewQueryEntitiesHandler(app, authenticator))
			r.Post("/", NewCreateEntityHandler(app, authenticator))

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", NewRetrieveEntityHandler(app, authenticator))
				r.Patch("/", NewMergeEntityHandler(app, authenticator))
				r.Delete("/", NewDeleteEntityHandler(app, authenticator))
			})
		})
	})

	return nil
}

// Logger stores a logger tagged with the current trace id in the request context
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			_, ctx, _ = o11y.AddTraceIDToLoggerAndStoreInContext(
				trace.SpanFromContext(ctx),
				logger,
				ctx)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequiredContentTypes rejects requests with a body of any other content type
func RequiredContentTypes(validTypes []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			contentType := r.Header.Get("Content-Type")
			isValidContentType := true

			if len(contentType) > 0 {
				isValidContentType = false

				for _, t := range validTypes {
					if strings.HasPrefix(contentType, t) {
						isValidContentType = true
						break
					}
				}
			}

			if isValidContentType {
				next.ServeHTTP(w, r)
			} else {
				problems.NewUnsupportedMediaType(
					fmt.Sprintf("content type %s is not supported", contentType),
					traceID(r.Context()),
				).WriteResponse(w)
			}
		})
	}
}

func traceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
