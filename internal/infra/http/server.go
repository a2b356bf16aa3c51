package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"palisade/internal/config"
	"palisade/internal/domain"
	"palisade/internal/infra/auth/rbac"
	"palisade/internal/infra/db"
	"palisade/internal/infra/logging"
	"palisade/internal/infra/policy"
	"palisade/internal/infra/policyrego"
	"palisade/internal/infra/ratelimit"
	"palisade/internal/infra/secret"
	"palisade/internal/infra/token"
	"palisade/internal/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server wires the authentication pipeline in front of every route it
// registers. All configuration it reads is fixed before routes() runs;
// nothing here mutates during request handling.
type Server struct {
	cfg config.Config
	r   *gin.Engine
	log *zap.Logger

	store *db.Store
	login *usecase.LoginService
	codec domain.TokenCodec

	authorizer domain.Authorizer
	table      *policy.Table
	regoMode   bool

	rateLimiter     domain.RateLimiter
	loginRateLimit  int
	loginRateWindow time.Duration

	initErr error
}

func NewServer(cfg config.Config, store *db.Store) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{cfg: cfg, store: store, r: r}
	s.initDeps()
	if s.initErr == nil {
		s.r.Use(requestID(), requestLogger(s.log))
		s.routes()
	}
	return s
}

// ServerDeps lets tests and alternative wiring inject every component
// the request path touches.
type ServerDeps struct {
	Login       *usecase.LoginService
	Codec       domain.TokenCodec
	Authorizer  domain.Authorizer
	Policies    []domain.RoutePolicy
	RegoMode    bool
	RateLimiter domain.RateLimiter
	Logger      *zap.Logger
}

func NewServerWithDeps(cfg config.Config, deps ServerDeps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		cfg:         cfg,
		r:           r,
		log:         deps.Logger,
		login:       deps.Login,
		codec:       deps.Codec,
		authorizer:  deps.Authorizer,
		regoMode:    deps.RegoMode,
		rateLimiter: deps.RateLimiter,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.authorizer == nil {
		s.authorizer = rbac.NewAuthorizer()
	}
	entries := deps.Policies
	if entries == nil {
		entries = policy.Default()
	}
	table, err := policy.NewTable(entries)
	if err != nil {
		s.initErr = err
		return s
	}
	s.table = table
	s.loginRateLimit = cfg.LoginRateLimit
	s.loginRateWindow = cfg.LoginRateWindow()
	s.r.Use(requestID(), requestLogger(s.log))
	s.routes()
	return s
}

func (s *Server) initDeps() {
	log, err := logging.New(s.cfg.LogLevel)
	if err != nil {
		log = zap.NewNop()
	}
	s.log = log

	key, err := s.cfg.SigningKeyBytes()
	if err != nil {
		s.initErr = fmt.Errorf("signing key: %w", err)
		return
	}
	codec, err := token.NewCodec(key, s.cfg.TokenTTLDuration(), s.cfg.TokenIssuer)
	if err != nil {
		s.initErr = fmt.Errorf("token codec: %w", err)
		return
	}
	s.codec = codec

	store := s.store
	if store == nil {
		store = &db.Store{}
	}
	s.login = &usecase.LoginService{
		Store:    db.NewPrincipalRepository(store.DB),
		Codec:    codec,
		Verifier: secret.BcryptVerifier{},
		Timeout:  s.cfg.StoreTimeout(),
	}

	if err := s.initAuthz(); err != nil {
		s.initErr = err
		return
	}
	if err := s.initTable(); err != nil {
		s.initErr = err
		return
	}
	s.initRateLimit()
}

func (s *Server) initAuthz() error {
	switch s.cfg.AuthzMode {
	case "", config.AuthzModeTable:
		s.authorizer = rbac.NewAuthorizer()
	case config.AuthzModeRego:
		engine, err := policyrego.NewEngineFromBundlePath(context.Background(), s.cfg.PolicyBundlePath)
		if err != nil {
			return fmt.Errorf("rego authz: %w", err)
		}
		s.authorizer = engine
		s.regoMode = true
	default:
		return fmt.Errorf("unsupported authz mode %q", s.cfg.AuthzMode)
	}
	return nil
}

func (s *Server) initTable() error {
	if s.cfg.RoutePolicyPath != "" {
		table, err := policy.Load(s.cfg.RoutePolicyPath)
		if err != nil {
			return err
		}
		s.table = table
		return nil
	}
	table, err := policy.NewTable(policy.Default())
	if err != nil {
		return err
	}
	s.table = table
	return nil
}

func (s *Server) initRateLimit() {
	s.loginRateLimit = s.cfg.LoginRateLimit
	s.loginRateWindow = s.cfg.LoginRateWindow()
	if s.loginRateLimit <= 0 {
		return
	}
	if s.cfg.RedisAddr != "" {
		if limiter, err := ratelimit.NewRedisLimiter(s.cfg.RedisAddr, s.cfg.RedisPassword, s.cfg.RedisDB, nil); err == nil {
			s.rateLimiter = limiter
			return
		}
	}
	s.rateLimiter = ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{
		MaxKeys: s.cfg.RateLimitMaxKeys,
	})
}

// routes composes the per-route enforcement chain once. Every entry of
// the policy table gets the access filter first; the handler table is
// closed, so a policy entry with no handler aborts startup instead of
// silently serving nothing.
func (s *Server) routes() {
	handlers := map[string]gin.HandlerFunc{
		"GET /healthz":            s.handleHealthz,
		"POST /auth/login":        s.handleLogin,
		"GET /v1/catalog":         s.handleCatalogList,
		"GET /v1/me":              s.handleWhoAmI,
		"GET /v1/orders":          s.handleOrdersList,
		"POST /v1/cart":           s.handleCartAdd,
		"POST /v1/catalog":        s.handleCatalogCreate,
		"DELETE /v1/catalog/:sku": s.handleCatalogDelete,
	}
	for _, entry := range s.table.Entries() {
		key := entry.Method + " " + entry.Pattern
		handler, ok := handlers[key]
		if !ok {
			s.initErr = fmt.Errorf("route policy names unknown route %s", key)
			return
		}
		s.r.Handle(entry.Method, entry.Pattern, s.accessFilter(entry), handler)
	}
	s.r.NoRoute(s.handleNoRoute)
}

func (s *Server) Run() error {
	if s.initErr != nil {
		return s.initErr
	}
	return s.r.Run(s.cfg.HTTPAddr)
}

// Handler exposes the composed engine for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.r
}

// InitErr reports why startup composition failed, if it did.
func (s *Server) InitErr() error {
	return s.initErr
}
