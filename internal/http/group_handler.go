package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/studio-scheduler/internal/application"
	"github.com/example/studio-scheduler/internal/persistence"
)

type groupService interface {
	CreateGroup(ctx context.Context, principal application.Principal, input application.GroupInput) (persistence.Group, error)
	GetGroup(ctx context.Context, principal application.Principal, groupID string) (persistence.Group, error)
	ListGroups(ctx context.Context, principal application.Principal) ([]persistence.Group, error)
	DeleteGroup(ctx context.Context, principal application.Principal, groupID string) error
}

type groupSeriesLister interface {
	ListSeriesForGroup(ctx context.Context, principal application.Principal, groupID string) ([]persistence.Series, error)
}

type GroupHandler struct {
	service   groupService
	series    groupSeriesLister
	responder responder
	logger    *slog.Logger
}

func NewGroupHandler(service groupService, series groupSeriesLister, logger *slog.Logger) *GroupHandler {
	base := defaultLogger(logger)
	return &GroupHandler{service: service, series: series, responder: newResponder(base), logger: base}
}

func (h *GroupHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "GroupHandler", operation, attrs...)
}

func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}

	groups, err := h.service.ListGroups(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]groupDTO, len(groups))
	for i, group := range groups {
		dtos[i] = toGroupDTO(group)
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, dtos)
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}

	var req groupWriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode group request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	group, err := h.service.CreateGroup(r.Context(), principal, application.GroupInput{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	})
	if err != nil {
		h.log(r.Context(), "Create").ErrorContext(r.Context(), "failed to create group", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Create", "group_id", group.ID).InfoContext(r.Context(), "group created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toGroupDTO(group))
}

func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}
	groupID, ok := GroupIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}

	group, err := h.service.GetGroup(r.Context(), principal, groupID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toGroupDTO(group))
}

// ListSeries returns the recurring templates belonging to the group in the
// request path.
func (h *GroupHandler) ListSeries(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.series == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}
	groupID, ok := GroupIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}

	list, err := h.series.ListSeriesForGroup(r.Context(), principal, groupID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]seriesDTO, len(list))
	for i, series := range list {
		dtos[i] = toSeriesDTO(series)
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, dtos)
}

func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}
	groupID, ok := GroupIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}

	if err := h.service.DeleteGroup(r.Context(), principal, groupID); err != nil {
		h.log(r.Context(), "Delete", "group_id", groupID).ErrorContext(r.Context(), "failed to delete group", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Delete", "group_id", groupID).InfoContext(r.Context(), "group deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type groupWriteRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type groupDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

func toGroupDTO(group persistence.Group) groupDTO {
	return groupDTO{
		ID:          group.ID,
		Name:        group.Name,
		Description: group.Description,
	}
}
