package http

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"palisade/internal/config"
	"palisade/internal/infra/policyrego"

	"github.com/gin-gonic/gin"
)

const testAuthzBundle = `package palisade.authz

import rego.v1

default allow := false

allow if {
	input.method == "POST"
	input.path == "/auth/login"
}

allow if {
	input.method == "GET"
	input.path == "/v1/catalog"
}

allow if {
	input.subject != ""
	"ADMIN" in input.roles
}
`

func TestRegoModeEndToEnd(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "authz.rego"), []byte(testAuthzBundle), 0o600); err != nil {
		t.Fatalf("write bundle: %v", err)
	}
	engine, err := policyrego.NewEngineFromBundlePath(context.Background(), dir)
	if err != nil {
		t.Fatalf("prepare engine: %v", err)
	}

	server, codec := newTestServer(t, func(deps *ServerDeps, _ *config.Config) {
		deps.Authorizer = engine
		deps.RegoMode = true
	})

	// The bundle must open the login route itself; there is no implicit
	// exemption for it in rego mode.
	if got := loginToken(t, server, "alice", "correct"); got == "" {
		t.Fatalf("login should still work in rego mode")
	}

	// The bundle opens catalog reads to anonymous callers.
	if rec := doJSON(t, server, http.MethodGet, "/v1/catalog", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("anonymous catalog read: expected 200, got %d", rec.Code)
	}

	// It grants nothing else to anonymous callers.
	if rec := doJSON(t, server, http.MethodGet, "/v1/orders", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous orders read: expected 401, got %d", rec.Code)
	}

	userToken, err := codec.Mint("alice", []string{"USER"}, time.Now())
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if rec := doJSON(t, server, http.MethodGet, "/v1/orders", userToken, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("USER under admin-only bundle: expected 403, got %d", rec.Code)
	}

	adminToken, err := codec.Mint("root", []string{"ADMIN"}, time.Now())
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if rec := doJSON(t, server, http.MethodGet, "/v1/orders", adminToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("ADMIN: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestRegoModeStartupRequiresBundle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.Config{
		SigningKey: string(testSigningKey),
		TokenTTL:   "10h",
		AuthzMode:  config.AuthzModeRego,
	}
	server := NewServer(cfg, nil)
	if server.InitErr() == nil {
		t.Fatalf("rego mode without a bundle must abort startup")
	}
}

func TestTableModeStartupFromConfig(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.Config{
		SigningKey: string(testSigningKey),
		TokenTTL:   "10h",
	}
	server := NewServer(cfg, nil)
	if server.InitErr() != nil {
		t.Fatalf("default startup should compose: %v", server.InitErr())
	}
	// Without a credential store the login path must degrade to 503,
	// never to a credential verdict.
	rec := doJSON(t, server, http.MethodPost, "/auth/login", "", loginRequest{Identifier: "alice", Secret: "x"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 in no-db mode, got %d (%s)", rec.Code, rec.Body.String())
	}
}
