package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/oficiohq/oficio/pkg/handlers"
	"github.com/oficiohq/oficio/pkg/routes"
)

// Handler provides HTTP endpoints for catalog operations.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "catalog"),
	}
}

// Routes returns the route group definition for catalog endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/catalog",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/entities", Handler: h.ListEntities},
			{Method: "GET", Pattern: "/entities/{id}", Handler: h.FindEntity},
			{Method: "POST", Pattern: "/entities", Handler: h.CreateEntity},
			{Method: "GET", Pattern: "/request-types", Handler: h.ListRequestTypes},
			{Method: "GET", Pattern: "/request-types/{id}", Handler: h.FindRequestType},
			{Method: "POST", Pattern: "/request-types", Handler: h.CreateRequestType},
		},
	}
}

func (h *Handler) ListEntities(w http.ResponseWriter, r *http.Request) {
	entities, err := h.sys.ListEntities(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, entities)
}

func (h *Handler) FindEntity(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("malformed id: %q", r.PathValue("id")))
		return
	}

	e, err := h.sys.FindEntity(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, e)
}

func (h *Handler) CreateEntity(w http.ResponseWriter, r *http.Request) {
	var cmd CreateEntityCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		err = fmt.Errorf("%w: %v", ErrValidation, err)
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	e, err := h.sys.CreateEntity(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusCreated, e)
}

func (h *Handler) ListRequestTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.sys.ListRequestTypes(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, types)
}

func (h *Handler) FindRequestType(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("malformed id: %q", r.PathValue("id")))
		return
	}

	rt, err := h.sys.FindRequestType(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, rt)
}

func (h *Handler) CreateRequestType(w http.ResponseWriter, r *http.Request) {
	var cmd CreateRequestTypeCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		err = fmt.Errorf("%w: %v", ErrValidation, err)
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	rt, err := h.sys.CreateRequestType(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusCreated, rt)
}
