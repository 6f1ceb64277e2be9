package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	santhosh "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/atvirokodosprendimai/actionlog/internal/core/callctx"
	"github.com/atvirokodosprendimai/actionlog/internal/core/domain"
	"github.com/go-chi/chi/v5"
)

// decode reads and schema-validates the request body into out. On failure it
// writes the error response and returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, schema *santhosh.Schema, out any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := validateBody(schema, raw, out); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// runAsync dispatches the mutation through the job runner when the request
// asks for async execution and responds with the scheduled event's id. The
// return value reports whether the request was handled here.
func (h *Handler) runAsync(w http.ResponseWriter, r *http.Request, eventType, description string, job func(ctx context.Context) error) bool {
	if r.URL.Query().Get("async") != "true" {
		return false
	}

	scheduledID, err := h.jobs.Submit(r.Context(), eventType, description, job)
	if err != nil {
		handleDomainError(w, err)
		return true
	}
	writeJSON(w, http.StatusAccepted, map[string]int64{"scheduled_id": scheduledID})
	return true
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func parseEventFilter(w http.ResponseWriter, r *http.Request) (domain.EventFilter, bool) {
	q := r.URL.Query()
	filter := domain.EventFilter{
		Type:  q.Get("type"),
		State: domain.EventState(q.Get("state")),
	}

	for _, field := range []struct {
		name string
		dst  *int64
	}{
		{"account_id", &filter.AccountID},
		{"domain_id", &filter.DomainID},
		{"start_id", &filter.StartID},
		{"after_id", &filter.AfterID},
	} {
		raw := q.Get(field.name)
		if raw == "" {
			continue
		}
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, field.name+" must be a non-negative integer")
			return domain.EventFilter{}, false
		}
		*field.dst = parsed
	}

	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return domain.EventFilter{}, false
		}
		filter.Limit = parsed
	}

	return filter, true
}

func toEventResponse(e domain.ActionEvent) eventResponse {
	return eventResponse{
		ID:          e.ID,
		UUID:        e.UUID,
		UserID:      e.UserID,
		AccountID:   e.AccountID,
		DomainID:    e.DomainID,
		Type:        e.Type,
		State:       string(e.State),
		Level:       e.Level,
		Description: e.Description,
		StartID:     e.StartID,
		CreatedAt:   e.CreatedAt.UTC().Format(timeFormat),
	}
}

func toDomainResponse(d domain.Domain) domainResponse {
	return domainResponse{
		ID:        d.ID,
		UUID:      d.UUID,
		Name:      d.Name,
		Path:      d.Path,
		CreatedAt: d.CreatedAt.UTC().Format(timeFormat),
	}
}

func toAccountResponse(a domain.Account) accountResponse {
	return accountResponse{
		ID:        a.ID,
		UUID:      a.UUID,
		Name:      a.Name,
		DomainID:  a.DomainID,
		CreatedAt: a.CreatedAt.UTC().Format(timeFormat),
	}
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		UUID:      u.UUID,
		Name:      u.Name,
		AccountID: u.AccountID,
		CreatedAt: u.CreatedAt.UTC().Format(timeFormat),
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidPath),
		errors.Is(err, domain.ErrInvalidEventType),
		errors.Is(err, domain.ErrInvalidEventState):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, callctx.ErrNoActiveContext):
		writeError(w, http.StatusInternalServerError, "internal server error")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func openapiSpec() map[string]any {
	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "actionlog",
			"version": "1.0.0",
		},
		"paths": map[string]any{
			"/v1/events": map[string]any{
				"post": map[string]any{"summary": "Record action event"},
				"get":  map[string]any{"summary": "List action events"},
			},
			"/v1/events/{id}": map[string]any{
				"get": map[string]any{"summary": "Get action event"},
			},
			"/v1/events/{id}/timeline": map[string]any{
				"get": map[string]any{"summary": "Get the lifecycle chain of an action event"},
			},
			"/v1/domains": map[string]any{
				"post": map[string]any{"summary": "Create domain"},
			},
			"/v1/domains/{id}": map[string]any{
				"put":    map[string]any{"summary": "Rename domain"},
				"delete": map[string]any{"summary": "Remove domain"},
			},
			"/v1/accounts": map[string]any{
				"post": map[string]any{"summary": "Create account"},
			},
			"/v1/accounts/{id}": map[string]any{
				"put":    map[string]any{"summary": "Rename account"},
				"delete": map[string]any{"summary": "Remove account"},
			},
			"/v1/users": map[string]any{
				"post": map[string]any{"summary": "Create user"},
			},
			"/v1/users/{id}": map[string]any{
				"put":    map[string]any{"summary": "Rename user"},
				"delete": map[string]any{"summary": "Remove user"},
			},
		},
	}
}
