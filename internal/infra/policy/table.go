package policy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"

	"palisade/internal/domain"
)

// Table is the startup-frozen route policy: every route the server will
// register, with the roles each one requires. Construction fails on any
// ambiguity; after that the table never changes.
type Table struct {
	entries []domain.RoutePolicy
}

func NewTable(entries []domain.RoutePolicy) (*Table, error) {
	for i, entry := range entries {
		if err := validateEntry(entry); err != nil {
			return nil, fmt.Errorf("route policy entry %d: %w", i, err)
		}
	}
	for i := range entries {
		for j := i + 1; j < len(entries); j++ {
			a, b := entries[i], entries[j]
			if a.Method != b.Method {
				continue
			}
			if a.Pattern == b.Pattern {
				return nil, fmt.Errorf("duplicate route policy for %s %s", a.Method, a.Pattern)
			}
			if patternsOverlap(a.Pattern, b.Pattern) && !roleSetsEqual(a.RequiredRoles, b.RequiredRoles) {
				return nil, fmt.Errorf("ambiguous route policies: %s %s and %s %s overlap with different role requirements",
					a.Method, a.Pattern, b.Method, b.Pattern)
			}
		}
	}
	return &Table{entries: entries}, nil
}

// Load reads a JSON array of route policy entries.
func Load(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route policy: %w", err)
	}
	var entries []domain.RoutePolicy
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse route policy: %w", err)
	}
	return NewTable(entries)
}

// Default is the built-in table for the surrounding shop application:
// login and catalog reads are public, cart and orders need USER, catalog
// writes need ADMIN.
func Default() []domain.RoutePolicy {
	return []domain.RoutePolicy{
		{Method: http.MethodGet, Pattern: "/healthz"},
		{Method: http.MethodPost, Pattern: "/auth/login"},
		{Method: http.MethodGet, Pattern: "/v1/catalog"},
		{Method: http.MethodGet, Pattern: "/v1/me", RequiredRoles: []string{"USER", "ADMIN"}},
		{Method: http.MethodGet, Pattern: "/v1/orders", RequiredRoles: []string{"USER"}},
		{Method: http.MethodPost, Pattern: "/v1/cart", RequiredRoles: []string{"USER"}},
		{Method: http.MethodPost, Pattern: "/v1/catalog", RequiredRoles: []string{"ADMIN"}},
		{Method: http.MethodDelete, Pattern: "/v1/catalog/:sku", RequiredRoles: []string{"ADMIN"}},
	}
}

func (t *Table) Entries() []domain.RoutePolicy {
	out := make([]domain.RoutePolicy, len(t.entries))
	copy(out, t.entries)
	return out
}

func validateEntry(entry domain.RoutePolicy) error {
	switch entry.Method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return fmt.Errorf("unsupported method %q", entry.Method)
	}
	if !strings.HasPrefix(entry.Pattern, "/") {
		return fmt.Errorf("pattern %q must start with /", entry.Pattern)
	}
	for _, role := range entry.RequiredRoles {
		if strings.TrimSpace(role) == "" {
			return fmt.Errorf("pattern %q has an empty role", entry.Pattern)
		}
	}
	return nil
}

// patternsOverlap reports whether some concrete path could match both
// patterns. Segments are compatible when they are equal literals or
// either side is a :param placeholder.
func patternsOverlap(a, b string) bool {
	as := strings.Split(strings.Trim(a, "/"), "/")
	bs := strings.Split(strings.Trim(b, "/"), "/")
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if strings.HasPrefix(as[i], ":") || strings.HasPrefix(bs[i], ":") {
			continue
		}
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func roleSetsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
