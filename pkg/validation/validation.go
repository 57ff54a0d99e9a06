// Package validation adds an optional strictness pass on top of hydrated entities.
// Hydration itself never rejects input, validators decide afterwards if an entity
// is acceptable.
package validation

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/diwise/entity-hydration/pkg/hydration"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/open-policy-agent/opa/rego"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("entity-hydration/validation")

//go:embed default.rego
var defaultPolicies string

// DefaultPolicies returns the built in validation policies
func DefaultPolicies() io.Reader {
	return strings.NewReader(defaultPolicies)
}

type Violation struct {
	Message string `json:"message"`
}

type Validator interface {
	Validate(ctx context.Context, kind string, entity any) ([]Violation, error)
}

type policyValidator struct {
	preparedQuery rego.PreparedEvalQuery
}

// NewPolicyValidator prepares a rego query against the violations set defined in
// package hydration.validation of the supplied policies
func NewPolicyValidator(ctx context.Context, policies io.Reader) (Validator, error) {
	module, err := io.ReadAll(policies)
	if err != nil {
		return nil, fmt.Errorf("unable to read validation policies: %w", err)
	}

	v := &policyValidator{}

	v.preparedQuery, err = rego.New(
		rego.Query("x = data.hydration.validation.violations"),
		rego.Module("validation.rego", string(module)),
	).PrepareForEval(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to prepare validation policies: %w", err)
	}

	return v, nil
}

func (v *policyValidator) Validate(ctx context.Context, kind string, entity any) ([]Violation, error) {
	var err error

	ctx, span := tracer.Start(ctx, "validate-entity", trace.WithAttributes(attribute.String("kind", kind)))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	snapshot, err := hydration.Snapshot(entity)
	if err != nil {
		return nil, err
	}

	input := map[string]any{
		"kind":   kind,
		"entity": snapshot,
	}

	results, err := v.preparedQuery.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		err = fmt.Errorf("opa eval failed: %w", err)
		return nil, err
	}

	if len(results) == 0 {
		return []Violation{}, nil
	}

	messages, ok := results[0].Bindings["x"].([]any)
	if !ok {
		err = errors.New("opa error: unexpected result type")
		return nil, err
	}

	violations := make([]Violation, 0, len(messages))
	for _, m := range messages {
		violations = append(violations, Violation{Message: fmt.Sprintf("%v", m)})
	}

	sort.Slice(violations, func(i, j int) bool {
		return violations[i].Message < violations[j].Message
	})

	return violations, nil
}

// Messages returns the messages of a list of violations
func Messages(violations []Violation) []string {
	messages := make([]string, 0, len(violations))
	for _, v := range violations {
		messages = append(messages, v.Message)
	}
	return messages
}
