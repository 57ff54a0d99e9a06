package problems

import (
	"encoding/json"
	"net/http"
)

// ProblemDetails stores details about a certain problem according to RFC7807
// See https://tools.ietf.org/html/rfc7807
type ProblemDetails interface {
	ContentType() string
	Type() string
	Title() string
	Detail() string
	ResponseCode() int
	MarshalJSON() ([]byte, error)
	WriteResponse(w http.ResponseWriter)
}

const (
	// ProblemReportContentType as required by https://tools.ietf.org/html/rfc7807
	ProblemReportContentType string = "application/problem+json"

	typePrefix string = "https://diwise.io/entity-hydration/problems/"
)

type problem struct {
	typ        string
	title      string
	detail     string
	code       int
	traceID    string
	violations []string
}

func newProblem(name, title, detail string, code int, traceID string) *problem {
	return &problem{
		typ:     typePrefix + name,
		title:   title,
		detail:  detail,
		code:    code,
		traceID: traceID,
	}
}

func NewAlreadyExists(detail, traceID string) ProblemDetails {
	return newProblem("AlreadyExists", "Already Exists", detail, http.StatusConflict, traceID)
}

func NewBadRequestData(detail, traceID string) ProblemDetails {
	return newProblem("BadRequestData", "Bad Request Data", detail, http.StatusBadRequest, traceID)
}

func NewInternalError(detail, traceID string) ProblemDetails {
	return newProblem("InternalError", "Internal Error", detail, http.StatusInternalServerError, traceID)
}

func NewNotAllowed(detail, traceID string) ProblemDetails {
	return newProblem("OperationNotAllowed", "Operation Not Allowed", detail, http.StatusMethodNotAllowed, traceID)
}

func NewNotFound(detail, traceID string) ProblemDetails {
	return newProblem("ResourceNotFound", "Not Found", detail, http.StatusNotFound, traceID)
}

func NewUnauthorizedRequest(detail, traceID string) ProblemDetails {
	return newProblem("UnauthorizedRequest", "Unauthorized Request", detail, http.StatusUnauthorized, traceID)
}

func NewUnknownKind(detail, traceID string) ProblemDetails {
	return newProblem("UnknownKind", "Unknown Kind", detail, http.StatusNotFound, traceID)
}

func NewUnsupportedMediaType(detail, traceID string) ProblemDetails {
	return newProblem("UnsupportedMediaType", "Unsupported Media Type", detail, http.StatusUnsupportedMediaType, traceID)
}

// NewValidationFailed reports an entity that was hydrated but rejected by the
// validation policies. Every violation is listed in the report.
func NewValidationFailed(violations []string, traceID string) ProblemDetails {
	p := newProblem("ValidationFailed", "Validation Failed", "the entity violates one or more policies", http.StatusUnprocessableEntity, traceID)
	p.violations = violations
	return p
}

func (p *problem) ContentType() string {
	return ProblemReportContentType
}

func (p *problem) Type() string   { return p.typ }
func (p *problem) Title() string  { return p.title }
func (p *problem) Detail() string { return p.detail }

// ResponseCode returns the HTTP response code to be used when returning a specific problem
func (p *problem) ResponseCode() int {
	if p.code != 0 {
		return p.code
	}

	return http.StatusBadRequest
}

func (p *problem) MarshalJSON() ([]byte, error) {
	var traceID *string

	if p.traceID != "" {
		traceID = &p.traceID
	}

	return json.Marshal(struct {
		Type       string   `json:"type"`
		Title      string   `json:"title"`
		Detail     string   `json:"detail"`
		Status     int      `json:"status"`
		TraceID    *string  `json:"traceID,omitempty"`
		Violations []string `json:"violations,omitempty"`
	}{
		Type:       p.typ,
		Title:      p.title,
		Detail:     p.detail,
		Status:     p.ResponseCode(),
		TraceID:    traceID,
		Violations: p.violations,
	})
}

// WriteResponse writes the contents of this instance to a http.ResponseWriter
func (p *problem) WriteResponse(w http.ResponseWriter) {
	w.Header().Add("Content-Type", p.ContentType())
	w.Header().Add("Content-Language", "en")
	w.WriteHeader(p.ResponseCode())

	pdbytes, err := json.MarshalIndent(p, "", "  ")
	if err == nil {
		w.Write(pdbytes)
	}
}
