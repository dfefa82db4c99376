package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/studio-scheduler/internal/application"
)

type substitutionService interface {
	Substitute(ctx context.Context, principal application.Principal, input application.SubstitutionInput) (application.SubstitutionResult, error)
}

type SubstitutionHandler struct {
	service   substitutionService
	responder responder
	logger    *slog.Logger
}

func NewSubstitutionHandler(service substitutionService, logger *slog.Logger) *SubstitutionHandler {
	base := defaultLogger(logger)
	return &SubstitutionHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SubstitutionHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SubstitutionHandler", operation, attrs...)
}

func (h *SubstitutionHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}

	var req substitutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode substitution request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	result, err := h.service.Substitute(r.Context(), principal, application.SubstitutionInput{
		AbsentTrainerID:     strings.TrimSpace(req.AbsentTrainerID),
		SubstituteTrainerID: strings.TrimSpace(req.SubstituteTrainerID),
		DateFrom:            strings.TrimSpace(req.DateFrom),
		DateTo:              strings.TrimSpace(req.DateTo),
	})
	if err != nil {
		h.log(r.Context(), "Create").ErrorContext(r.Context(), "substitution rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	message := "代行の割り当てが完了しました。"
	if result.UpdatedCount == 0 {
		message = "指定期間に対象のクラスはありませんでした。"
	}

	events := make([]eventDTO, len(result.UpdatedEvents))
	for i, detail := range result.UpdatedEvents {
		events[i] = toEventDTO(detail)
	}

	h.log(r.Context(), "Create", "updated_count", result.UpdatedCount).InfoContext(r.Context(), "substitution applied")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, substitutionResponse{
		UpdatedCount:          result.UpdatedCount,
		AbsentTrainerName:     result.AbsentTrainerName,
		SubstituteTrainerName: result.SubstituteTrainerName,
		Events:                events,
		Message:               message,
	})
}

type substitutionRequest struct {
	AbsentTrainerID     string `json:"absent_trainer_id"`
	SubstituteTrainerID string `json:"substitute_trainer_id"`
	DateFrom            string `json:"date_from"`
	DateTo              string `json:"date_to"`
}

type substitutionResponse struct {
	UpdatedCount          int64      `json:"updated_count"`
	AbsentTrainerName     string     `json:"absent_trainer_name"`
	SubstituteTrainerName string     `json:"substitute_trainer_name"`
	Events                []eventDTO `json:"events"`
	Message               string     `json:"message"`
}
