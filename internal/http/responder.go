package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/studio-scheduler/internal/application"
)

var (
	errBadRequestBody      = errors.New("無効なリクエスト形式です。")
	errMissingSessionToken = errors.New("認証トークンを指定してください")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "この操作を実行する権限がありません。",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "指定されたリソースが見つかりません。"})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: "同じ値のリソースが既に存在します。"})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "入力内容に誤りがあります。",
				Errors:  localizeValidationErrors(vErr),
			})
			return
		}

		var cErr *application.ConflictError
		if errors.As(err, &cErr) {
			r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
				ErrorCode: "ROOM_CONFLICT",
				Message:   "指定された時間帯には同じスタジオで別のクラスが予定されています。",
				Conflict: &conflictResponse{
					RoomID:    cErr.RoomID,
					Date:      cErr.Date,
					EventID:   cErr.BlockingID,
					StartTime: cErr.BlockingStart,
					EndTime:   cErr.BlockingEnd,
					Status:    cErr.BlockingStatus,
				},
			})
			return
		}

		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "サーバー内部でエラーが発生しました。"})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "リクエスト内容が正しくありません。"
	case http.StatusUnauthorized:
		return "認証が必要です。"
	case http.StatusForbidden:
		return "この操作を実行する権限がありません。"
	case http.StatusNotFound:
		return "指定されたリソースが見つかりません。"
	case http.StatusConflict:
		return "要求はリソースの現在の状態と競合しています。"
	case http.StatusUnprocessableEntity:
		return "入力内容に誤りがあります。"
	default:
		return "サーバー内部でエラーが発生しました。"
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "date must use the YYYY-MM-DD format":
		return "日付は YYYY-MM-DD 形式で指定してください。"
	case "start time must use the HH:MM format":
		return "開始時刻は HH:MM 形式で指定してください。"
	case "end time must use the HH:MM format":
		return "終了時刻は HH:MM 形式で指定してください。"
	case "end time must come after start time":
		return "終了時刻は開始時刻より後である必要があります。"
	case "group is required":
		return "クラスグループは必須です。"
	case "trainer is required":
		return "トレーナーは必須です。"
	case "group does not exist":
		return "指定されたクラスグループは存在しません。"
	case "trainer does not exist":
		return "指定されたトレーナーは存在しません。"
	case "room does not exist":
		return "指定されたスタジオは存在しません。"
	case "only scheduled events can be edited":
		return "予定状態のクラスのみ編集できます。"
	case "completed events cannot be cancelled":
		return "終了したクラスは中止できません。"
	case "absent trainer is required":
		return "不在のトレーナーは必須です。"
	case "substitute trainer is required":
		return "代行トレーナーは必須です。"
	case "substitute must differ from the absent trainer":
		return "代行トレーナーは不在のトレーナーと別の人を指定してください。"
	case "substitute account is disabled":
		return "代行トレーナーのアカウントは無効化されています。"
	case "window end must not precede its start":
		return "期間の終了日は開始日以降を指定してください。"
	case "at least one weekday is required":
		return "曜日を 1 つ以上指定してください。"
	case "weekdays must be between 0 (Sunday) and 6 (Saturday)":
		return "曜日は 0 (日曜) から 6 (土曜) の範囲で指定してください。"
	case "end date must not precede the start date":
		return "終了日は開始日以降を指定してください。"
	case "name is required":
		return "名称は必須です。"
	case "capacity must not be negative":
		return "収容人数は 0 以上で指定してください。"
	case "email is required":
		return "メールアドレスは必須です。"
	case "email address is malformed":
		return "メールアドレスの形式が不正です。"
	case "display name is required":
		return "表示名は必須です。"
	case "role must be admin or trainer":
		return "ロールは admin または trainer を指定してください。"
	case "password must be at least 8 characters":
		return "パスワードは 8 文字以上で指定してください。"
	default:
		return message
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
	Conflict  *conflictResponse `json:"conflict,omitempty"`
}

type conflictResponse struct {
	RoomID    string `json:"room_id"`
	Date      string `json:"date"`
	EventID   string `json:"event_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status,omitempty"`
}
