package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/classify/internal/services"
	"github.com/desertthunder/classify/internal/shared"
)

// Deps are the upstream clients the router proxies to.
//
// A nil client leaves its routes registered but answering 503.
type Deps struct {
	Catalog   services.Catalog
	Tokens    services.TokenExchanger
	Describer services.Describer
	Tagger    services.Tagger
	Clusterer services.Clusterer
}

// group is a handler together with the upstream it depends on.
type group struct {
	name       string
	configured bool
	handler    Handler
}

func groups(cfg shared.ServerConfig, deps Deps, logger *log.Logger) []group {
	return []group{
		{"Status", true, StatusHandler{}},
		{"Spotify authentication", deps.Tokens != nil, NewAuthHandler(deps.Tokens, cfg.FrontendURL, cfg.SecureCookies, logger.With("handler", "auth"))},
		{"Spotify catalog", deps.Catalog != nil, NewCatalogHandler(deps.Catalog, logger.With("handler", "catalog"))},
		{"Last.fm", deps.Tagger != nil, NewTagHandler(deps.Tagger, logger.With("handler", "tags"))},
		{"OpenAI", deps.Describer != nil, NewDescriptionHandler(deps.Describer, logger.With("handler", "describe"))},
		{"Clustering", deps.Clusterer != nil, NewClusterHandler(deps.Clusterer, logger.With("handler", "cluster"))},
	}
}

// New builds the application router: request IDs, panic recovery, request logging and CORS
// wrap every request, and protected routes additionally require a bearer token.
func New(cfg shared.ServerConfig, deps Deps, logger *log.Logger) *BasicRouter {
	router := NewBasicRouter(RequireBearer)
	router.Use(
		WithRequestID,
		RecoverPanic(logger),
		LogRequests(logger),
		CORS(cfg.AllowedOrigins),
	)

	for _, g := range groups(cfg, deps, logger) {
		if g.configured {
			router.Mount(g.handler)
			continue
		}
		logger.Warn("upstream not configured, routes will answer 503", "service", g.name)
		router.Mount(unavailableHandler{name: g.name, routes: g.handler.Routes()})
	}

	return router
}

// unavailableHandler stands in for a handler whose upstream client is not configured.
type unavailableHandler struct {
	name   string
	routes []Route
}

func (u unavailableHandler) Routes() []Route {
	out := make([]Route, len(u.routes))
	for i, r := range u.routes {
		r.Summary += " (not configured)"
		r.Handler = u
		out[i] = r
	}
	return out
}

func (u unavailableHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusServiceUnavailable, u.name+" is not configured")
}

// StatusHandler serves the welcome and health endpoints.
type StatusHandler struct{}

func (StatusHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Path: "/", Summary: "welcome message", Handler: http.HandlerFunc(welcome)},
		{Method: http.MethodGet, Path: "/health", Summary: "liveness probe", Handler: http.HandlerFunc(health)},
	}
}

func welcome(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "Welcome to the Classify Backend!")
}

func health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
