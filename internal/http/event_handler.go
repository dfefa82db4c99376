package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/studio-scheduler/internal/application"
	"github.com/example/studio-scheduler/internal/persistence"
)

type eventService interface {
	CreateEvent(ctx context.Context, principal application.Principal, input application.EventInput) (persistence.Event, error)
	UpdateEvent(ctx context.Context, principal application.Principal, eventID string, input application.EventInput) (persistence.Event, error)
	CancelEvent(ctx context.Context, principal application.Principal, eventID string) (persistence.Event, error)
	DeleteEvent(ctx context.Context, principal application.Principal, eventID string) error
	GetEvent(ctx context.Context, principal application.Principal, eventID string) (persistence.EventDetail, error)
	ListEvents(ctx context.Context, principal application.Principal, params application.ListEventsParams) (application.ListEventsResult, error)
}

type EventHandler struct {
	service   eventService
	responder responder
	logger    *slog.Logger
}

func NewEventHandler(service eventService, logger *slog.Logger) *EventHandler {
	base := defaultLogger(logger)
	return &EventHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *EventHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "EventHandler", operation, attrs...)
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}

	query := r.URL.Query()
	params := application.ListEventsParams{
		GroupID:   optionalQuery(query.Get("group_id")),
		TrainerID: optionalQuery(query.Get("trainer_id")),
		RoomID:    optionalQuery(query.Get("room_id")),
		SeriesID:  optionalQuery(query.Get("series_id")),
		DateFrom:  optionalQuery(query.Get("from")),
		DateTo:    optionalQuery(query.Get("to")),
	}
	for _, status := range query["status"] {
		switch persistence.EventStatus(status) {
		case persistence.EventScheduled, persistence.EventCompleted, persistence.EventCancelled:
			params.Statuses = append(params.Statuses, persistence.EventStatus(status))
		default:
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
			return
		}
	}

	result, err := h.service.ListEvents(r.Context(), principal, params)
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "failed to list events", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	events := make([]eventDTO, len(result.Events))
	for i, detail := range result.Events {
		events[i] = toEventDTO(detail)
	}
	warnings := make([]warningDTO, len(result.Warnings))
	for i, warning := range result.Warnings {
		warnings[i] = warningDTO{
			EventID:      warning.EventID,
			OtherEventID: warning.OtherEventID,
			RoomID:       warning.RoomID,
			Date:         warning.Date,
		}
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, eventListResponse{
		Events:   events,
		Warnings: warnings,
	})
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}

	var req eventWriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode event request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	event, err := h.service.CreateEvent(r.Context(), principal, req.toInput())
	if err != nil {
		h.log(r.Context(), "Create").ErrorContext(r.Context(), "failed to create event", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Create", "event_id", event.ID).InfoContext(r.Context(), "event created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toEventDTO(persistence.EventDetail{Event: event}))
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}
	eventID, ok := EventIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}

	detail, err := h.service.GetEvent(r.Context(), principal, eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEventDTO(detail))
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}
	eventID, ok := EventIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}

	var req eventWriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode event request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	event, err := h.service.UpdateEvent(r.Context(), principal, eventID, req.toInput())
	if err != nil {
		h.log(r.Context(), "Update", "event_id", eventID).ErrorContext(r.Context(), "failed to update event", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Update", "event_id", eventID).InfoContext(r.Context(), "event updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEventDTO(persistence.EventDetail{Event: event}))
}

func (h *EventHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}
	eventID, ok := EventIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}

	event, err := h.service.CancelEvent(r.Context(), principal, eventID)
	if err != nil {
		h.log(r.Context(), "Cancel", "event_id", eventID).ErrorContext(r.Context(), "failed to cancel event", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Cancel", "event_id", eventID).InfoContext(r.Context(), "event cancelled")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEventDTO(persistence.EventDetail{Event: event}))
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}
	eventID, ok := EventIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}

	if err := h.service.DeleteEvent(r.Context(), principal, eventID); err != nil {
		h.log(r.Context(), "Delete", "event_id", eventID).ErrorContext(r.Context(), "failed to delete event", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Delete", "event_id", eventID).InfoContext(r.Context(), "event deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type eventWriteRequest struct {
	Date        string  `json:"date"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	GroupID     string  `json:"group_id"`
	TrainerID   string  `json:"trainer_id"`
	RoomID      *string `json:"room_id"`
	Description *string `json:"description"`
}

func (req eventWriteRequest) toInput() application.EventInput {
	return application.EventInput{
		Date:        strings.TrimSpace(req.Date),
		StartTime:   strings.TrimSpace(req.StartTime),
		EndTime:     strings.TrimSpace(req.EndTime),
		GroupID:     strings.TrimSpace(req.GroupID),
		TrainerID:   strings.TrimSpace(req.TrainerID),
		RoomID:      req.RoomID,
		Description: req.Description,
	}
}

type eventDTO struct {
	ID                  string  `json:"id"`
	Date                string  `json:"date"`
	StartTime           string  `json:"start_time"`
	EndTime             string  `json:"end_time"`
	Status              string  `json:"status"`
	GroupID             string  `json:"group_id"`
	GroupName           string  `json:"group_name,omitempty"`
	TrainerID           string  `json:"trainer_id"`
	TrainerName         string  `json:"trainer_name,omitempty"`
	RoomID              *string `json:"room_id"`
	RoomName            *string `json:"room_name,omitempty"`
	SeriesID            *string `json:"series_id"`
	IsSubstitution      bool    `json:"is_substitution"`
	OriginalTrainerID   *string `json:"original_trainer_id,omitempty"`
	OriginalTrainerName *string `json:"original_trainer_name,omitempty"`
	SubstitutedAt       *string `json:"substituted_at,omitempty"`
	Description         *string `json:"description,omitempty"`
}

type warningDTO struct {
	EventID      string `json:"event_id"`
	OtherEventID string `json:"other_event_id"`
	RoomID       string `json:"room_id"`
	Date         string `json:"date"`
}

type eventListResponse struct {
	Events   []eventDTO   `json:"events"`
	Warnings []warningDTO `json:"warnings"`
}

func toEventDTO(detail persistence.EventDetail) eventDTO {
	dto := eventDTO{
		ID:                  detail.ID,
		Date:                detail.Date,
		StartTime:           detail.StartTime,
		EndTime:             detail.EndTime,
		Status:              string(detail.Status),
		GroupID:             detail.GroupID,
		GroupName:           detail.GroupName,
		TrainerID:           detail.TrainerID,
		TrainerName:         detail.TrainerName,
		RoomID:              detail.RoomID,
		RoomName:            detail.RoomName,
		SeriesID:            detail.SeriesID,
		IsSubstitution:      detail.IsSubstitution,
		OriginalTrainerID:   detail.OriginalTrainerID,
		OriginalTrainerName: detail.OriginalTrainerName,
		Description:         detail.Description,
	}
	if detail.SubstitutedAt != nil {
		formatted := detail.SubstitutedAt.UTC().Format(time.RFC3339Nano)
		dto.SubstitutedAt = &formatted
	}
	return dto
}

func optionalQuery(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
