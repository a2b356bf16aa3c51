package policyrego

import (
	"context"
	"errors"
	"fmt"

	"palisade/internal/domain"

	"github.com/open-policy-agent/opa/rego"
)

const defaultQuery = "data.palisade.authz.allow"

// Engine authorizes routes against an operator-supplied rego bundle,
// prepared once at startup. An undefined or non-true result is a deny.
type Engine struct {
	query rego.PreparedEvalQuery
}

// Input is what the bundle sees for each request.
type Input struct {
	Subject string   `json:"subject"`
	Roles   []string `json:"roles"`
	Method  string   `json:"method"`
	Path    string   `json:"path"`
}

func NewEngineFromBundlePath(ctx context.Context, bundlePath string) (*Engine, error) {
	if bundlePath == "" {
		return nil, errors.New("policy bundle path is required")
	}
	prepared, err := rego.New(
		rego.Query(defaultQuery),
		rego.StrictBuiltinErrors(true),
		rego.Load([]string{bundlePath}, nil),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare policy bundle: %w", err)
	}
	return &Engine{query: prepared}, nil
}

func (e *Engine) Authorize(ctx context.Context, principal domain.Principal, access domain.RouteAccess) error {
	if e == nil {
		return errors.New("policy engine is nil")
	}
	input := Input{
		Subject: principal.Subject,
		Roles:   principal.Roles,
		Method:  access.Method,
		Path:    access.Path,
	}
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return fmt.Errorf("evaluate route policy: %w", err)
	}
	if allowed(results) {
		return nil
	}
	if principal.Anonymous() {
		return domain.ErrUnauthenticated
	}
	return domain.ErrForbidden
}

func allowed(results rego.ResultSet) bool {
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false
	}
	verdict, ok := results[0].Expressions[0].Value.(bool)
	return ok && verdict
}
