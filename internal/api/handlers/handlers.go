// Package handlers implements the HTTP resources. Every handler follows the same pipeline:
// decode, validate, authorize, one store or auth-service call, envelope.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dioscarr/Topapi/internal/apperr"
	"github.com/dioscarr/Topapi/internal/auth"
	"github.com/dioscarr/Topapi/internal/store"
	"github.com/dioscarr/Topapi/internal/validation"
)

const dbFailure = "Database operation failed"

// decodeBody reads a JSON object. An empty body decodes to an empty map.
func decodeBody(r *http.Request) (map[string]any, error) {
	var body map[string]any
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, apperr.BadRequest("Request body too large")
		}
		return nil, apperr.BadRequest("Request body must be a JSON object").Wrap(err)
	}
	if body == nil {
		body = map[string]any{}
	}
	return body, nil
}

// validated runs schema checks and returns the normalized input.
func validated(r *http.Request, schema validation.Schema, opts validation.NormalizeOptions) (map[string]any, error) {
	body, err := decodeBody(r)
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(body).Err(); err != nil {
		return nil, err
	}
	return validation.Normalize(body, opts), nil
}

// validatedPatch is validated for partial updates, which must set at least one field.
func validatedPatch(r *http.Request, schema validation.Schema, opts validation.NormalizeOptions) (map[string]any, error) {
	body, err := decodeBody(r)
	if err != nil {
		return nil, err
	}
	v := schema.Validate(body)
	if len(v) == 0 && !schema.HasAny(body) {
		v = append(v, validation.Violation{Field: "body", Rule: "min_fields", Message: "at least one field must be provided"})
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	return validation.Normalize(body, opts), nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if !validation.IsUUID(raw) {
		return uuid.Nil, validation.Violations{{Field: name, Rule: "uuid", Message: name + " must be a valid UUID"}}.Err()
	}
	return uuid.MustParse(raw), nil
}

// queryUUID parses an optional UUID filter.
func queryUUID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	if !validation.IsUUID(raw) {
		return nil, validation.Violations{{Field: name, Rule: "uuid", Message: name + " must be a valid UUID"}}.Err()
	}
	id := uuid.MustParse(raw)
	return &id, nil
}

func queryString(r *http.Request, name string) string {
	return strings.TrimSpace(r.URL.Query().Get(name))
}

func principal(r *http.Request) (auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return auth.Principal{}, apperr.Unauthenticated("Authentication required")
	}
	return p, nil
}

func principalUUID(p auth.Principal) *uuid.UUID {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return nil
	}
	return &id
}

// storeError classifies a record-store failure for a mutation or list.
func storeError(err error, notFound string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound(notFound).Wrap(err)
	case errors.Is(err, store.ErrConflict):
		return apperr.Conflict("Record already exists").Wrap(err)
	default:
		return apperr.DependencyFailure(dbFailure, err)
	}
}

// lookupError treats every failed single-record read as a missing record.
func lookupError(r *http.Request, err error, notFound string) error {
	if !errors.Is(err, store.ErrNotFound) {
		slog.Warn("record lookup failed", "path", r.URL.Path, "error", err)
	}
	return apperr.NotFound(notFound).Wrap(err)
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
