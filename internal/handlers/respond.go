// Package handlers exposes the JSON REST API. Every handler reads the acting
// user from the request context; records of other users answer 404.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/diewo77/go-freelance/auth"
	"github.com/diewo77/go-freelance/gate"
	"github.com/diewo77/go-freelance/httpx"
	"github.com/diewo77/go-freelance/i18n"
	"github.com/diewo77/go-freelance/internal/billing"
	"github.com/diewo77/go-freelance/internal/receipts"
	"github.com/diewo77/go-freelance/internal/store"
)

const defaultPageSize = 50

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *billing.ValidationError
	switch {
	case errors.As(err, &ve):
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", i18n.TranslateAll(i18n.LangFrom(r.Context()), ve.Violations))
	case errors.Is(err, billing.ErrInvalidTransition):
		var te *billing.TransitionError
		var details any
		if errors.As(err, &te) {
			details = map[string]any{"from": te.From, "to": te.To, "allowed": billing.AllowedTransitions(te.From)}
		}
		httpx.JSONError(w, http.StatusConflict, "invalid_transition", details)
	case errors.Is(err, billing.ErrNotFound), errors.Is(err, receipts.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.Is(err, gate.ErrUnauthorized):
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

func currentUser(r *http.Request) uuid.UUID {
	uid, _ := auth.UserIDFromContext(r.Context())
	return uid
}

// pathID parses a uuid path parameter, answering 404 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return uuid.Nil, false
	}
	return id, true
}

// decode reads the JSON body, answering 400 on malformed input.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

// queryUUID parses an optional uuid query parameter. A malformed value adds
// a violation.
func queryUUID(r *http.Request, name string, bad map[string]string) *uuid.UUID {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		bad[name] = "invalid_uuid"
		return nil
	}
	return &id
}

// pageParams reads ?page=&limit= with the same bounds as the store.
func pageParams(r *http.Request) store.Page {
	limit := defaultPageSize
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= store.MaxPageSize {
			limit = n
		}
	}
	offset := 0
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			offset = (n - 1) * limit
		}
	}
	return store.Page{Limit: limit, Offset: offset}
}

func writeList[T any](w http.ResponseWriter, items []T, total int64, page store.Page) {
	if items == nil {
		items = []T{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": total, "limit": page.Limit, "offset": page.Offset})
}

// authorize runs the gate and writes the error response when it denies.
func authorize(w http.ResponseWriter, r *http.Request, g *gate.Gate[uuid.UUID], action gate.Action, resourceType string, resource any) bool {
	if g == nil {
		return true
	}
	if err := g.Authorize(r.Context(), currentUser(r), action, resourceType, resource); err != nil {
		writeError(w, r, err)
		return false
	}
	return true
}
