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

type seriesService interface {
	CreateSeries(ctx context.Context, principal application.Principal, input application.SeriesInput) (application.CreateSeriesResult, error)
	UpdateSeries(ctx context.Context, principal application.Principal, seriesID string, input application.SeriesUpdateInput, asOf string) (application.UpdateSeriesResult, error)
	DeleteSeries(ctx context.Context, principal application.Principal, seriesID string, asOf string) (application.DeleteSeriesResult, error)
	GetSeries(ctx context.Context, principal application.Principal, seriesID string) (persistence.Series, error)
}

type SeriesHandler struct {
	service   seriesService
	now       func() string
	responder responder
	logger    *slog.Logger
}

// NewSeriesHandler wires the series endpoints. today supplies the default
// as_of date when a request omits one.
func NewSeriesHandler(service seriesService, today func() string, logger *slog.Logger) *SeriesHandler {
	base := defaultLogger(logger)
	if today == nil {
		today = func() string { return "" }
	}
	return &SeriesHandler{service: service, now: today, responder: newResponder(base), logger: base}
}

func (h *SeriesHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SeriesHandler", operation, attrs...)
}

func (h *SeriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}

	var req seriesCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode series request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	result, err := h.service.CreateSeries(r.Context(), principal, application.SeriesInput{
		GroupID:     strings.TrimSpace(req.GroupID),
		TrainerID:   strings.TrimSpace(req.TrainerID),
		RoomID:      req.RoomID,
		Weekdays:    req.Weekdays,
		StartTime:   strings.TrimSpace(req.StartTime),
		EndTime:     strings.TrimSpace(req.EndTime),
		StartDate:   strings.TrimSpace(req.StartDate),
		EndDate:     req.EndDate,
		Description: req.Description,
	})
	if err != nil {
		h.log(r.Context(), "Create").ErrorContext(r.Context(), "failed to create series", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Create", "series_id", result.Series.ID).InfoContext(r.Context(), "series created", "generated_count", result.GeneratedCount)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, seriesCreateResponse{
		Series:         toSeriesDTO(result.Series),
		GeneratedCount: result.GeneratedCount,
	})
}

func (h *SeriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}
	seriesID, ok := SeriesIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}

	series, err := h.service.GetSeries(r.Context(), principal, seriesID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSeriesDTO(series))
}

func (h *SeriesHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}
	seriesID, ok := SeriesIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}

	var req seriesUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode series request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	asOf := h.resolveAsOf(r)
	result, err := h.service.UpdateSeries(r.Context(), principal, seriesID, application.SeriesUpdateInput{
		TrainerID:   req.TrainerID,
		RoomID:      req.RoomID,
		ClearRoom:   req.ClearRoom,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Description: req.Description,
	}, asOf)
	if err != nil {
		h.log(r.Context(), "Update", "series_id", seriesID).ErrorContext(r.Context(), "failed to update series", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Update", "series_id", seriesID).InfoContext(r.Context(), "series updated", "propagated_count", result.PropagatedCount)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, seriesUpdateResponse{
		Series:          toSeriesDTO(result.Series),
		PropagatedCount: result.PropagatedCount,
	})
}

func (h *SeriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}
	seriesID, ok := SeriesIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}

	asOf := h.resolveAsOf(r)
	result, err := h.service.DeleteSeries(r.Context(), principal, seriesID, asOf)
	if err != nil {
		h.log(r.Context(), "Delete", "series_id", seriesID).ErrorContext(r.Context(), "failed to delete series", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Delete", "series_id", seriesID).InfoContext(r.Context(), "series deleted", "removed_count", result.RemovedCount)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, seriesDeleteResponse{RemovedCount: result.RemovedCount})
}

func (h *SeriesHandler) resolveAsOf(r *http.Request) string {
	if asOf := strings.TrimSpace(r.URL.Query().Get("as_of")); asOf != "" {
		return asOf
	}
	return h.now()
}

type seriesCreateRequest struct {
	GroupID     string  `json:"group_id"`
	TrainerID   string  `json:"trainer_id"`
	RoomID      *string `json:"room_id"`
	Weekdays    []int   `json:"weekdays"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	StartDate   string  `json:"start_date"`
	EndDate     *string `json:"end_date"`
	Description *string `json:"description"`
}

type seriesUpdateRequest struct {
	TrainerID   *string `json:"trainer_id"`
	RoomID      *string `json:"room_id"`
	ClearRoom   bool    `json:"clear_room"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	Description *string `json:"description"`
}

type seriesDTO struct {
	ID          string  `json:"id"`
	GroupID     string  `json:"group_id"`
	TrainerID   string  `json:"trainer_id"`
	RoomID      *string `json:"room_id"`
	Weekdays    []int   `json:"weekdays"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	StartDate   string  `json:"start_date"`
	EndDate     *string `json:"end_date"`
	Description *string `json:"description,omitempty"`
}

type seriesCreateResponse struct {
	Series         seriesDTO `json:"series"`
	GeneratedCount int       `json:"generated_count"`
}

type seriesUpdateResponse struct {
	Series          seriesDTO `json:"series"`
	PropagatedCount int64     `json:"propagated_count"`
}

type seriesDeleteResponse struct {
	RemovedCount int64 `json:"removed_count"`
}

func toSeriesDTO(series persistence.Series) seriesDTO {
	weekdays := make([]int, len(series.Weekdays))
	for i, day := range series.Weekdays {
		weekdays[i] = int(day)
	}
	return seriesDTO{
		ID:          series.ID,
		GroupID:     series.GroupID,
		TrainerID:   series.TrainerID,
		RoomID:      series.RoomID,
		Weekdays:    weekdays,
		StartTime:   series.StartTime,
		EndTime:     series.EndTime,
		StartDate:   series.StartDate,
		EndDate:     series.EndDate,
		Description: series.Description,
	}
}
