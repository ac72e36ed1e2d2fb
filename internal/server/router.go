package server

import (
	"net/http"
	"sync"

	"github.com/justinas/alice"
)

// BasicRouter is a simple HTTP router implementing the [Router] interface.
//
// Uses [http.ServeMux] method patterns internally, so unmatched methods get 405 from the mux.
// Global middleware wraps the whole mux and must be added before the first request.
type BasicRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware
	auth        Middleware
	routes      []Route

	once    sync.Once
	handler http.Handler
}

// NewBasicRouter creates a new [BasicRouter] instance.
//
// auth wraps routes marked Protected; nil leaves them unguarded.
func NewBasicRouter(auth Middleware) *BasicRouter {
	return &BasicRouter{
		mux:         http.NewServeMux(),
		middlewares: []Middleware{},
		auth:        auth,
	}
}

// Use adds [Middleware] to the global stack, applied in the order it's added.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers a handler for the specified HTTP method and path, wrapped with mw.
func (r *BasicRouter) Handle(method, path string, handler http.Handler, mw ...Middleware) {
	r.register(Route{Method: method, Path: path, Handler: handler}, mw...)
}

// Mount registers every route returned by [Handler.Routes].
func (r *BasicRouter) Mount(handler Handler) {
	for _, route := range handler.Routes() {
		var mw []Middleware
		if route.Protected && r.auth != nil {
			mw = append(mw, r.auth)
		}
		r.register(route, mw...)
	}
}

func (r *BasicRouter) register(route Route, mw ...Middleware) {
	r.mux.Handle(route.Pattern(), chain(mw...).Then(route.Handler))
	route.Handler = nil
	r.routes = append(r.routes, route)
}

// Routes lists registered endpoints in registration order.
func (r *BasicRouter) Routes() []Route {
	out := make([]Route, len(r.routes))
	copy(out, r.routes)
	return out
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.once.Do(func() { r.handler = r.Apply(r.mux) })
	r.handler.ServeHTTP(w, req)
}

// Apply wraps a handler with all global middleware; the first added runs outermost.
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	return chain(r.middlewares...).Then(handler)
}

func chain(mw ...Middleware) alice.Chain {
	constructors := make([]alice.Constructor, len(mw))
	for i, m := range mw {
		constructors[i] = alice.Constructor(m)
	}
	return alice.New(constructors...)
}
