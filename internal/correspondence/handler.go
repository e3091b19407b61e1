package correspondence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/oficiohq/oficio/pkg/handlers"
	"github.com/oficiohq/oficio/pkg/pagination"
	"github.com/oficiohq/oficio/pkg/routes"
)

// Handler provides HTTP endpoints for correspondence operations.
type Handler struct {
	sys        System
	tracker    *Tracker
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "correspondence"),
		pagination: pagination,
	}
}

// WithTracker attaches the ownership projection served by the history endpoint.
func (h *Handler) WithTracker(t *Tracker) *Handler {
	h.tracker = t
	return h
}

// Routes returns the route group definition for correspondence endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/correspondence",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "GET", Pattern: "/{id}/status", Handler: h.Status},
			{Method: "GET", Pattern: "/{id}/history", Handler: h.History},
			{Method: "POST", Pattern: "", Handler: h.Create},
			{Method: "POST", Pattern: "/search", Handler: h.Search},
			{Method: "POST", Pattern: "/{id}/assign", Handler: h.Assign},
			{Method: "POST", Pattern: "/{id}/reassign", Handler: h.Reassign},
			{Method: "POST", Pattern: "/{id}/start-drafting", Handler: h.StartDrafting},
			{Method: "POST", Pattern: "/{id}/submit-for-review", Handler: h.SubmitForReview},
			{Method: "POST", Pattern: "/{id}/request-changes", Handler: h.RequestChanges},
			{Method: "POST", Pattern: "/{id}/approve-review", Handler: h.ApproveReview},
			{Method: "POST", Pattern: "/{id}/reject", Handler: h.Reject},
			{Method: "POST", Pattern: "/{id}/final-approve", Handler: h.FinalApprove},
			{Method: "POST", Pattern: "/{id}/archive", Handler: h.Archive},
		},
	}
}

// List returns a page of records filtered by query parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q, err := ParseSearchQuery(r.URL.Query())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	result, err := h.sys.Search(r.Context(), q)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Search accepts a JSON SearchQuery and returns matching records.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var q SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	result, err := h.sys.Search(r.Context(), q)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single record by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	rec, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, rec)
}

// Create registers a new inbound record.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd CreateCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		err = fmt.Errorf("%w: %v", ErrValidation, err)
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	rec, err := h.sys.Create(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, rec)
}

// Status returns the derived SLA view of a record.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	status, err := h.sys.Status(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, status)
}

// History returns the record's current ownership and ordered audit trail.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if h.tracker != nil {
		own, err := h.tracker.Ownership(r.Context(), id)
		if err != nil {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}
		handlers.RespondJSON(w, http.StatusOK, own)
		return
	}

	history, err := h.sys.History(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, history)
}

// Assign sets the first owner and moves the record to assigned.
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	h.assignAction(w, r, h.sys.Assign)
}

// Reassign changes the owner without changing the stage.
func (h *Handler) Reassign(w http.ResponseWriter, r *http.Request) {
	h.assignAction(w, r, h.sys.Reassign)
}

// StartDrafting moves an assigned record into drafting.
func (h *Handler) StartDrafting(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.sys.StartDrafting)
}

// SubmitForReview moves a draft into review.
func (h *Handler) SubmitForReview(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var cmd SubmitCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		err = fmt.Errorf("%w: %v", ErrValidation, err)
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	rec, err := h.sys.SubmitForReview(r.Context(), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, rec)
}

// RequestChanges sends a record under review back to drafting.
func (h *Handler) RequestChanges(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.sys.RequestChanges)
}

// ApproveReview moves a reviewed record into approval.
func (h *Handler) ApproveReview(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.sys.ApproveReview)
}

// Reject sends a record awaiting approval back to drafting.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.sys.Reject)
}

// FinalApprove marks the record sent and stamps its response instant.
func (h *Handler) FinalApprove(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.sys.FinalApprove)
}

// Archive closes out a sent or expired record.
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.sys.Archive)
}

func (h *Handler) action(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, id uuid.UUID, cmd ActionCommand) (*Record, error),
) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var cmd ActionCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		err = fmt.Errorf("%w: %v", ErrValidation, err)
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	rec, err := fn(r.Context(), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, rec)
}

func (h *Handler) assignAction(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, id uuid.UUID, cmd AssignCommand) (*Record, error),
) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var cmd AssignCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		err = fmt.Errorf("%w: %v", ErrValidation, err)
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	rec, err := fn(r.Context(), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, rec)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		err = fmt.Errorf("%w: malformed record id", ErrInvalidQuery)
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return uuid.Nil, false
	}
	return id, true
}
