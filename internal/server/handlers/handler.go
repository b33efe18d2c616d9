package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"ap-story-web/internal/app"
	"ap-story-web/internal/config"
	"ap-story-web/internal/domain"
	"ap-story-web/internal/persistence"

	"github.com/shouni/gcp-kit/tasks"
)

// Handler はストーリーAPIのHTTPハンドラー群です。
// 生成はCloud Tasks経由の非同期実行で、ここでは受付と照会のみを行います。
type Handler struct {
	cfg          *config.Config
	taskEnqueuer *tasks.Enqueuer[domain.StoryTaskPayload]
	repository   persistence.StoryRepository
	rio          *app.RemoteIO
}

func NewHandler(
	cfg *config.Config,
	taskEnqueuer *tasks.Enqueuer[domain.StoryTaskPayload],
	repository persistence.StoryRepository,
	rio *app.RemoteIO,
) *Handler {
	return &Handler{
		cfg:          cfg,
		taskEnqueuer: taskEnqueuer,
		repository:   repository,
		rio:          rio,
	}
}

// Healthz は死活監視用のエンドポイントです。
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response body", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError はドメインエラーの種別をHTTPステータスに対応付けます。
// バリデーションエラーは 400、それ以外は 500 として扱います。
func writeDomainError(w http.ResponseWriter, err error) {
	if domain.IsValidation(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
