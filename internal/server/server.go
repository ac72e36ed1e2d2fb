package server

import (
	"net/http"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// It has the same shape as alice.Constructor so chains convert without adapters.
type Middleware func(http.Handler) http.Handler

// Route describes one registered endpoint.
type Route struct {
	Method    string
	Path      string
	Protected bool   // requires a bearer token
	Summary   string // one-line description for the route table
	Handler   http.Handler
}

// Pattern returns the [http.ServeMux] pattern for the route.
func (r Route) Pattern() string {
	if r.Path == "/" {
		return r.Method + " /{$}"
	}
	return r.Method + " " + r.Path
}

// Handler groups related endpoints (auth, catalog, tags, ...) behind one constructor.
type Handler interface {
	Routes() []Route // Routes returns the endpoints this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                                       // Use adds middleware wrapping every request
	Handle(method, path string, handler http.Handler, mw ...Middleware) // Handle registers a handler with route-level middleware
	Mount(handler Handler)                                              // Mount registers every route of a Handler
	Routes() []Route                                                    // Routes lists registered endpoints in registration order
	ServeHTTP(w http.ResponseWriter, r *http.Request)                   // ServeHTTP implements http.Handler for the entire router
}
