package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/atvirokodosprendimai/actionlog/internal/core/callctx"
	"github.com/atvirokodosprendimai/actionlog/internal/core/domain"
	"github.com/atvirokodosprendimai/actionlog/internal/core/usecase"
	"github.com/go-chi/chi/v5"
)

const (
	timeFormat      = "2006-01-02T15:04:05.999999999Z07:00"
	maxJSONBodySize = 1 << 20
)

type Handler struct {
	recorder  *usecase.Recorder
	directory *usecase.DirectoryService
	queries   *usecase.EventQueryService
	auth      *usecase.AuthService
	jobs      *usecase.JobRunner
	schemas   *requestSchemas
	logger    *slog.Logger
}

func NewHandler(recorder *usecase.Recorder, directory *usecase.DirectoryService, queries *usecase.EventQueryService, auth *usecase.AuthService, jobs *usecase.JobRunner, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		recorder:  recorder,
		directory: directory,
		queries:   queries,
		auth:      auth,
		jobs:      jobs,
		schemas:   compileRequestSchemas(),
		logger:    logger,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", h.healthz)
	r.Get("/openapi.json", h.openapi)

	r.Group(func(pr chi.Router) {
		pr.Use(h.requireAPIKey)

		pr.Post("/v1/events", h.recordEvent)
		pr.Get("/v1/events", h.listEvents)
		pr.Get("/v1/events/{id}", h.getEvent)
		pr.Get("/v1/events/{id}/timeline", h.eventTimeline)

		pr.Post("/v1/domains", h.createDomain)
		pr.Put("/v1/domains/{id}", h.renameDomain)
		pr.Delete("/v1/domains/{id}", h.removeDomain)

		pr.Post("/v1/accounts", h.createAccount)
		pr.Put("/v1/accounts/{id}", h.renameAccount)
		pr.Delete("/v1/accounts/{id}", h.removeAccount)

		pr.Post("/v1/users", h.createUser)
		pr.Put("/v1/users/{id}", h.renameUser)
		pr.Delete("/v1/users/{id}", h.removeUser)
	})

	return r
}

type recordEventRequest struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Level       string `json:"level"`
	StartID     int64  `json:"start_id"`
	EntityType  string `json:"entity_type"`
	EntityUUID  string `json:"entity_uuid"`
}

type createDomainRequest struct {
	Name     string `json:"name"`
	ParentID int64  `json:"parent_id"`
}

type createAccountRequest struct {
	Name     string `json:"name"`
	DomainID int64  `json:"domain_id"`
}

type createUserRequest struct {
	Name      string `json:"name"`
	AccountID int64  `json:"account_id"`
}

type renameRequest struct {
	Name string `json:"name"`
}

type eventResponse struct {
	ID          int64  `json:"id"`
	UUID        string `json:"uuid"`
	UserID      int64  `json:"user_id"`
	AccountID   int64  `json:"account_id"`
	DomainID    int64  `json:"domain_id"`
	Type        string `json:"type"`
	State       string `json:"state"`
	Level       string `json:"level,omitempty"`
	Description string `json:"description"`
	StartID     int64  `json:"start_id,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type domainResponse struct {
	ID        int64  `json:"id"`
	UUID      string `json:"uuid"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	CreatedAt string `json:"created_at"`
}

type accountResponse struct {
	ID        int64  `json:"id"`
	UUID      string `json:"uuid"`
	Name      string `json:"name"`
	DomainID  int64  `json:"domain_id"`
	CreatedAt string `json:"created_at"`
}

type userResponse struct {
	ID        int64  `json:"id"`
	UUID      string `json:"uuid"`
	Name      string `json:"name"`
	AccountID int64  `json:"account_id"`
	CreatedAt string `json:"created_at"`
}

func (h *Handler) recordEvent(w http.ResponseWriter, r *http.Request) {
	var req recordEventRequest
	if !h.decode(w, r, h.schemas.recordEvent, &req) {
		return
	}

	cc, err := callctx.Current(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	if req.EntityType != "" {
		cc.PutParameter(callctx.ParamEntityType, req.EntityType)
	}
	if req.EntityUUID != "" {
		cc.PutParameter(callctx.ParamEntityUUID, req.EntityUUID)
	}

	level := req.Level
	if level == "" {
		level = "INFO"
	}

	id, err := h.recorder.RecordCompletedAsync(r.Context(), cc.UserID(), cc.AccountID(), level, req.Type, req.Description, req.StartID)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseEventFilter(w, r)
	if !ok {
		return
	}

	events, err := h.queries.List(r.Context(), filter)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toEventResponse(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": out})
}

func (h *Handler) getEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	event, err := h.queries.Get(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(event))
}

func (h *Handler) eventTimeline(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	timeline, err := h.queries.Timeline(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	out := make([]eventResponse, 0, len(timeline))
	for _, e := range timeline {
		out = append(out, toEventResponse(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"timeline": out})
}

func (h *Handler) createDomain(w http.ResponseWriter, r *http.Request) {
	var req createDomainRequest
	if !h.decode(w, r, h.schemas.createDomain, &req) {
		return
	}

	if h.runAsync(w, r, domain.EventDomainCreate, "creating domain "+req.Name, func(ctx context.Context) error {
		_, err := h.directory.CreateDomain(ctx, req.Name, req.ParentID)
		return err
	}) {
		return
	}

	created, err := h.directory.CreateDomain(r.Context(), req.Name, req.ParentID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDomainResponse(created))
}

func (h *Handler) renameDomain(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req renameRequest
	if !h.decode(w, r, h.schemas.rename, &req) {
		return
	}

	if h.runAsync(w, r, domain.EventDomainUpdate, "updating domain", func(ctx context.Context) error {
		_, err := h.directory.RenameDomain(ctx, id, req.Name)
		return err
	}) {
		return
	}

	renamed, err := h.directory.RenameDomain(r.Context(), id, req.Name)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDomainResponse(renamed))
}

func (h *Handler) removeDomain(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if h.runAsync(w, r, domain.EventDomainDelete, "deleting domain", func(ctx context.Context) error {
		_, err := h.directory.RemoveDomain(ctx, id)
		return err
	}) {
		return
	}

	removed, err := h.directory.RemoveDomain(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if !h.decode(w, r, h.schemas.createAccount, &req) {
		return
	}

	if h.runAsync(w, r, domain.EventAccountCreate, "creating account "+req.Name, func(ctx context.Context) error {
		_, err := h.directory.CreateAccount(ctx, req.Name, req.DomainID)
		return err
	}) {
		return
	}

	created, err := h.directory.CreateAccount(r.Context(), req.Name, req.DomainID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountResponse(created))
}

func (h *Handler) renameAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req renameRequest
	if !h.decode(w, r, h.schemas.rename, &req) {
		return
	}

	if h.runAsync(w, r, domain.EventAccountUpdate, "updating account", func(ctx context.Context) error {
		_, err := h.directory.RenameAccount(ctx, id, req.Name)
		return err
	}) {
		return
	}

	renamed, err := h.directory.RenameAccount(r.Context(), id, req.Name)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(renamed))
}

func (h *Handler) removeAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if h.runAsync(w, r, domain.EventAccountDelete, "deleting account", func(ctx context.Context) error {
		_, err := h.directory.RemoveAccount(ctx, id)
		return err
	}) {
		return
	}

	removed, err := h.directory.RemoveAccount(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !h.decode(w, r, h.schemas.createUser, &req) {
		return
	}

	if h.runAsync(w, r, domain.EventUserCreate, "creating user "+req.Name, func(ctx context.Context) error {
		_, err := h.directory.CreateUser(ctx, req.Name, req.AccountID)
		return err
	}) {
		return
	}

	created, err := h.directory.CreateUser(r.Context(), req.Name, req.AccountID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(created))
}

func (h *Handler) renameUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req renameRequest
	if !h.decode(w, r, h.schemas.rename, &req) {
		return
	}

	if h.runAsync(w, r, domain.EventUserUpdate, "updating user", func(ctx context.Context) error {
		_, err := h.directory.RenameUser(ctx, id, req.Name)
		return err
	}) {
		return
	}

	renamed, err := h.directory.RenameUser(r.Context(), id, req.Name)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(renamed))
}

func (h *Handler) removeUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if h.runAsync(w, r, domain.EventUserDelete, "deleting user", func(ctx context.Context) error {
		_, err := h.directory.RemoveUser(ctx, id)
		return err
	}) {
		return
	}

	removed, err := h.directory.RemoveUser(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) openapi(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, openapiSpec())
}

func (h *Handler) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.Header.Get("X-API-Key"))
		if token == "" {
			auth := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
				token = strings.TrimSpace(auth[7:])
			}
		}

		apiKey, err := h.auth.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, usecase.ErrUnauthorized) {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		cc := callctx.New(apiKey.UserID, apiKey.AccountID)
		next.ServeHTTP(w, r.WithContext(callctx.With(r.Context(), cc)))
	})
}
