package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/julienschmidt/httprouter"
)

// Handler is the signature of every route handled by the engine.
// Handlers return a Response rather than writing to the ResponseWriter directly.
type Handler func(r *http.Request, ps httprouter.Params) Response

// Response is written to the client once the handler returns.
type Response interface {
	write(w http.ResponseWriter, r *http.Request)
}

// Authenticator can be used to pass an authenticator implementation to other handlers.
type Authenticator interface {
	WithAuth(Handler) Handler
}

type noopAuthenticator struct{}

func (noopAuthenticator) WithAuth(fn Handler) Handler { return fn }

type Router struct {
	router *httprouter.Router
	Authenticator
}

// NewRouter allocates a router. The notFound handler is optional.
func NewRouter(notFound http.Handler) *Router {
	r := &Router{router: httprouter.New(), Authenticator: noopAuthenticator{}}
	if notFound != nil {
		r.router.NotFound = notFound
	}
	return r
}

// Serve wires up the stdlib http server to the engine.
func (r *Router) Serve(addr string) Proc {
	return func(ctx context.Context) error {
		svr := &http.Server{Handler: r, Addr: addr}
		go func() {
			<-ctx.Done()
			slog.Warn("gracefully shutting down http server...")
			svr.Shutdown(context.Background())
		}()
		if err := svr.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		slog.Info("the http server has shut down")
		return ctx.Err()
	}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, rr *http.Request) { r.router.ServeHTTP(w, rr) }

// Handle registers a handler for the given method and httprouter path.
func (r *Router) Handle(method, path string, fn Handler) {
	r.router.Handle(method, path, func(w http.ResponseWriter, rr *http.Request, ps httprouter.Params) {
		Handle(w, rr, ps, fn)
	})
}

// HandleFunc registers a plain http.HandlerFunc, e.g. for health probes and static files.
func (r *Router) HandleFunc(method, path string, fn http.HandlerFunc) {
	r.router.HandlerFunc(method, path, fn)
}

// Handle invokes a Handler and writes its response. Exported for tests.
func Handle(w http.ResponseWriter, r *http.Request, ps httprouter.Params, fn Handler) {
	start := time.Now()
	ww := &responseWrapper{ResponseWriter: w, status: 200}

	resp := fn(r, ps)
	if resp != nil {
		resp.write(ww, r)
	}
	slog.Info("http request", "url", r.URL.Path, "method", r.Method, "userAgent", r.UserAgent(), "latencyMS", time.Since(start).Milliseconds(), "status", ww.status)
}

type responseWrapper struct {
	http.ResponseWriter
	status int
}

func (w *responseWrapper) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

type jsonResponse struct {
	status int
	value  any
}

// JSON encodes the value as the response body.
func JSON(v any) Response { return &jsonResponse{status: http.StatusOK, value: v} }

func (j *jsonResponse) write(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(j.status)
	json.NewEncoder(w).Encode(j.value)
}

type componentResponse struct {
	templ.Component
}

// Component renders a templ component as an html response.
func Component(c templ.Component) Response { return &componentResponse{Component: c} }

func (c *componentResponse) write(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("rendering component", "error", err, "url", r.URL.Path)
	}
}

type redirectResponse struct {
	url    string
	status int
}

func Redirect(url string, status int) Response { return &redirectResponse{url: url, status: status} }

func (rr *redirectResponse) write(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, rr.url, rr.status)
}

type cookieResponse struct {
	cookie *http.Cookie
	next   Response
}

// WithCookie sets a cookie before writing the wrapped response.
func WithCookie(c *http.Cookie, next Response) Response { return &cookieResponse{cookie: c, next: next} }

func (c *cookieResponse) write(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, c.cookie)
	c.next.write(w, r)
}
