// Package router is a thin layer over http.ServeMux: Go 1.22 method
// patterns plus middleware chains, which is all the API needs.
package router

import (
	"net/http"
	"strings"
)

// Middleware wraps a handler with cross-cutting behavior.
type Middleware func(http.Handler) http.Handler

// Router registers method-qualified patterns on a shared ServeMux and
// threads a middleware chain through every registration.
type Router struct {
	mux   *http.ServeMux
	chain []Middleware
}

// New returns a Router whose chain runs on every route it registers.
func New(chain ...Middleware) *Router {
	return &Router{mux: http.NewServeMux(), chain: chain}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) Get(pattern string, h http.HandlerFunc, mw ...Middleware) {
	r.Handle(http.MethodGet, pattern, h, mw...)
}

func (r *Router) Post(pattern string, h http.HandlerFunc, mw ...Middleware) {
	r.Handle(http.MethodPost, pattern, h, mw...)
}

func (r *Router) Put(pattern string, h http.HandlerFunc, mw ...Middleware) {
	r.Handle(http.MethodPut, pattern, h, mw...)
}

func (r *Router) Delete(pattern string, h http.HandlerFunc, mw ...Middleware) {
	r.Handle(http.MethodDelete, pattern, h, mw...)
}

// Handle registers h for the given method and pattern, wrapped in the
// router's chain followed by any route-specific middleware.
func (r *Router) Handle(method, pattern string, h http.Handler, mw ...Middleware) {
	r.mux.Handle(method+" "+pattern, r.wrap(h, mw))
}

// wrap nests the handler inside the combined chain so middleware run in
// registration order: the first registered sees the request first.
func (r *Router) wrap(h http.Handler, mw []Middleware) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	for i := len(r.chain) - 1; i >= 0; i-- {
		h = r.chain[i](h)
	}
	return h
}

// Group returns a Router on the same mux whose chain extends this one.
// Registrations on the group do not affect the parent.
func (r *Router) Group(mw ...Middleware) *Router {
	chain := make([]Middleware, 0, len(r.chain)+len(mw))
	chain = append(chain, r.chain...)
	chain = append(chain, mw...)
	return &Router{mux: r.mux, chain: chain}
}

// Static serves the files under dir at prefix, for GET only.
func (r *Router) Static(prefix, dir string) {
	prefix = strings.TrimSuffix(prefix, "/")
	h := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	r.mux.Handle("GET "+prefix+"/{file...}", r.wrap(h, nil))
}
