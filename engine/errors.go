package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
)

type httpError struct {
	StatusCode int    `json:"status"`
	Message    string `json:"message"`
}

func (h *httpError) Error() string { return h.Message }

func (h *httpError) write(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(h.StatusCode)
		json.NewEncoder(w).Encode(h)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(h.StatusCode)
	renderError(h).Render(r.Context(), w)
}

// Errorf logs the given message while returning a generic 500 error to the client.
func Errorf(format string, args ...any) Response {
	slog.Error(fmt.Sprintf(format, args...))
	return &httpError{StatusCode: 500, Message: "Internal error - please try again later"}
}

// ClientErrorf returns an error that is safe to show to the client.
func ClientErrorf(status int, format string, args ...any) Response {
	return &httpError{StatusCode: status, Message: fmt.Sprintf(format, args...)}
}

func renderError(e *httpError) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div class="error-page"><h1>%d</h1><p>%s</p></div>`,
			e.StatusCode, templ.EscapeString(e.Message))
		return err
	})
}
