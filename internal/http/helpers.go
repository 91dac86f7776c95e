package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	menuscmd "github.com/goliatone/go-cms-nav/internal/commands/menus"
	"github.com/goliatone/go-cms-nav/internal/pages"
	"github.com/goliatone/go-cms-nav/internal/permissions"
	"github.com/goliatone/go-cms-nav/internal/sites"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// errorRule maps a class of domain errors onto a status and error code.
type errorRule struct {
	status  int
	code    string
	matches func(error) bool
}

func sentinels(targets ...error) func(error) bool {
	return func(err error) bool {
		for _, target := range targets {
			if errors.Is(err, target) {
				return true
			}
		}
		return false
	}
}

var errorRules = []errorRule{
	{http.StatusNotFound, "not_found", sentinels(pages.ErrPageNotFound, pages.ErrParentNotFound, sites.ErrSiteNotFound)},
	{http.StatusForbidden, "forbidden", sentinels(permissions.ErrPermissionDenied)},
	{http.StatusConflict, "conflict", sentinels(pages.ErrPageParentCycle, pages.ErrParentSiteMismatch)},
	{http.StatusServiceUnavailable, "cache_disabled", sentinels(menuscmd.ErrCacheDisabled)},
	{http.StatusBadRequest, "bad_request", func(err error) bool {
		return goerrors.IsCategory(err, goerrors.CategoryValidation)
	}},
}

// mapError picks the first matching rule; anything else is a 500.
func mapError(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: "unknown_error"}
	}
	for _, rule := range errorRules {
		if rule.matches(err) {
			return rule.status, errorResponse{Error: rule.code, Message: err.Error()}
		}
	}
	return http.StatusInternalServerError, errorResponse{Error: "internal_error", Message: err.Error()}
}

// adminPath joins route segments under base, always rooted and without a
// trailing slash.
func adminPath(base string, segments ...string) string {
	parts := append([]string{"/", strings.TrimSpace(base)}, segments...)
	return path.Join(parts...)
}

func decodeJSON(r *http.Request, target any) error {
	if r.Body == nil {
		return io.EOF
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, payload := mapError(err)
	writeJSON(w, status, payload)
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: message})
}

func unavailable(w http.ResponseWriter) {
	writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
}

// pathID parses the {id} wildcard; it writes the 400 itself on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(r.PathValue(name)))
	if err != nil {
		badRequest(w, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func requirePermission(w http.ResponseWriter, r *http.Request, permission string) bool {
	if err := permissions.Require(r.Context(), permission); err != nil {
		writeError(w, err)
		return false
	}
	return true
}
