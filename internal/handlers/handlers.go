package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"gorm.io/gorm"

	"foodgram/internal/admin"
	"foodgram/internal/engagement"
	applog "foodgram/internal/log"
	"foodgram/internal/recipes"
	"foodgram/internal/shopping"
	"foodgram/internal/validation"
)

var (
	recipeWriter *recipes.Writer
	memberships  *engagement.Manager
	shoppingList *shopping.Aggregator
	adminQueries *admin.Service
)

func configureServices(db *gorm.DB, images recipes.ImageStore) {
	if db == nil {
		recipeWriter, memberships, shoppingList, adminQueries = nil, nil, nil, nil
		return
	}
	recipeWriter = recipes.NewWriter(db, images)
	memberships = engagement.NewManager(db)
	shoppingList = shopping.NewAggregator(db)
	adminQueries = admin.NewService(db)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

// writeJSONError writes the non-field error body {"errors": message}.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"errors": message})
}

func writeFieldErrors(w http.ResponseWriter, errs validation.FieldErrors) {
	writeJSON(w, http.StatusBadRequest, errs)
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	return decoder.Decode(dst)
}

func invalidPayload(w http.ResponseWriter, r *http.Request, err error) {
	applog.Debug(r.Context(), "invalid request payload", "path", r.URL.Path, "error", err)
	writeFieldErrors(w, validation.FieldErrors{"non_field_errors": {"invalid request payload"}})
}

// requireDatabase writes 503 and returns false when the handlers have not
// been configured with a database.
func requireDatabase(w http.ResponseWriter, r *http.Request) bool {
	if database == nil || recipeWriter == nil {
		applog.Debug(r.Context(), "request without database", "path", r.URL.Path)
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return false
	}
	return true
}

func internalError(w http.ResponseWriter, r *http.Request, msg string, err error, kv ...any) {
	applog.Error(r.Context(), msg, append([]any{"error", err}, kv...)...)
	writeJSONError(w, http.StatusInternalServerError, "internal server error")
}

func notFound(w http.ResponseWriter) {
	writeJSONError(w, http.StatusNotFound, "not found")
}

// pathID parses the chi URL parameter key as a positive id.
func pathID(r *http.Request, key string) (uint, bool) {
	value, err := strconv.ParseUint(strings.TrimSpace(chi.URLParam(r, key)), 10, 64)
	if err != nil || value == 0 {
		applog.Debug(r.Context(), "invalid path identifier", "key", key, "value", chi.URLParam(r, key))
		return 0, false
	}
	return uint(value), true
}

// noLimit is returned by queryLimit when the parameter is absent.
const noLimit = -1

// queryLimit parses a non-negative integer query parameter. An absent
// parameter yields noLimit so that an explicit 0 stays distinguishable.
func queryLimit(r *http.Request, key string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return noLimit, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return noLimit, errors.New("must be a non-negative integer")
	}
	return value, nil
}
