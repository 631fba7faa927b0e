// Package respond writes the uniform JSON envelope used by every route.
package respond

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dioscarr/Topapi/internal/apperr"
	"github.com/dioscarr/Topapi/internal/pagination"
)

const internalMessage = "Internal server error"

type Envelope struct {
	Success    bool             `json:"success"`
	Data       any              `json:"data"`
	Message    string           `json:"message,omitempty"`
	Pagination *pagination.Info `json:"pagination,omitempty"`
}

type ErrorBody struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

type ErrorEnvelope struct {
	Success   bool      `json:"success"`
	Error     ErrorBody `json:"error"`
	Timestamp string    `json:"timestamp"`
}

type modeKey struct{}

// WithMode marks requests as served in development mode, which exposes error causes.
func WithMode(development bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), modeKey{}, development)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func development(ctx context.Context) bool {
	dev, _ := ctx.Value(modeKey{}).(bool)
	return dev
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func OK(w http.ResponseWriter, data any, message string) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data, Message: message})
}

func Created(w http.ResponseWriter, data any, message string) {
	JSON(w, http.StatusCreated, Envelope{Success: true, Data: data, Message: message})
}

// Page writes a list response. A nil slice is still rendered as an empty array by callers
// passing a non-nil empty slice.
func Page(w http.ResponseWriter, data any, info pagination.Info) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data, Pagination: &info})
}

// Error writes the failure envelope. 500-class messages are replaced with a generic one.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	ae := apperr.From(err)
	status := ae.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}

	body := ErrorBody{Message: ae.Message, Details: ae.Details}
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"kind", ae.Kind,
			"error", ae.Error(),
		)
		body.Message = internalMessage
	}
	if development(r.Context()) {
		body.Stack = ae.Error()
	}

	JSON(w, status, ErrorEnvelope{
		Success:   false,
		Error:     body,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}
