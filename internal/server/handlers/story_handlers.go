package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ap-story-web/internal/config"
	"ap-story-web/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// storyCreateRequest はストーリー生成APIのリクエストボディです。
type storyCreateRequest struct {
	UserInput      string   `json:"user_input,omitempty"`
	TextPrompt     string   `json:"text_prompt,omitempty"`
	Notes          string   `json:"notes,omitempty"`
	URLs           []string `json:"urls,omitempty"`
	Attachments    []string `json:"attachments,omitempty"`
	PromptKeywords []string `json:"prompt_keywords,omitempty"`
	Mode           string   `json:"mode"`
	TemplateKey    string   `json:"template_key,omitempty"`
	SlideCount     int      `json:"slide_count,omitempty"`
	Category       string   `json:"category,omitempty"`
	ImageSource    string   `json:"image_source,omitempty"`
	VoiceEngine    string   `json:"voice_engine,omitempty"`
}

func (r storyCreateRequest) hasInput() bool {
	return strings.TrimSpace(r.UserInput) != "" ||
		strings.TrimSpace(r.TextPrompt) != "" ||
		len(r.URLs) > 0 ||
		len(r.Attachments) > 0
}

// CreateStory はストーリー生成リクエストを受け付け、タスクをエンキューします。
// 生成自体はワーカーが非同期に行うため、202と事前採番のIDを返します。
func (h *Handler) CreateStory(w http.ResponseWriter, r *http.Request) {
	var req storyCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.WarnContext(r.Context(), "failed to decode story request", "error", err)
		writeDomainError(w, domain.NewValidationWrap("invalid request body", err))
		return
	}

	if !req.hasInput() {
		writeDomainError(w, domain.NewValidation("at least one of user_input, text_prompt, urls or attachments is required"))
		return
	}

	storyID := uuid.New()
	payload := domain.StoryTaskPayload{
		StoryID:        storyID.String(),
		UserInput:      req.UserInput,
		TextPrompt:     req.TextPrompt,
		Notes:          req.Notes,
		URLs:           req.URLs,
		Attachments:    req.Attachments,
		PromptKeywords: req.PromptKeywords,
		Mode:           req.Mode,
		TemplateKey:    req.TemplateKey,
		SlideCount:     req.SlideCount,
		Category:       req.Category,
		ImageSource:    req.ImageSource,
		VoiceEngine:    req.VoiceEngine,
	}

	if err := h.taskEnqueuer.Enqueue(r.Context(), payload); err != nil {
		slog.ErrorContext(r.Context(), "failed to enqueue story task", "story_id", storyID.String(), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to schedule story generation")
		return
	}

	statusURL, _ := url.JoinPath(h.cfg.ServiceURL, "stories", storyID.String())
	writeJSON(w, http.StatusAccepted, map[string]string{
		"story_id":   storyID.String(),
		"status":     "queued",
		"status_url": statusURL,
	})
}

// storyResponse はストーリー照会APIのレスポンスです。
type storyResponse struct {
	ID            string              `json:"id"`
	Mode          string              `json:"mode"`
	Category      string              `json:"category"`
	InputLanguage string              `json:"input_language"`
	SlideCount    int                 `json:"slide_count"`
	TemplateKey   string              `json:"template_key"`
	Slides        []slideResponse     `json:"slides"`
	ImageAssets   []domain.ImageAsset `json:"image_assets"`
	VoiceAssets   []domain.VoiceAsset `json:"voice_assets"`
	CanURL        string              `json:"canurl,omitempty"`
	CanURL1       string              `json:"canurl1,omitempty"`
	PreviewURL    string              `json:"preview_url,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

type slideResponse struct {
	PlaceholderID string `json:"placeholder_id"`
	Text          string `json:"text"`
	ImageURL      string `json:"image_url,omitempty"`
	AltText       string `json:"alt_text,omitempty"`
}

// GetStory はIDまたは正規URLスラッグでストーリーを照会します。
func (h *Handler) GetStory(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "id")

	var (
		record *domain.StoryRecord
		err    error
	)
	if storyID, parseErr := uuid.Parse(key); parseErr == nil {
		record, err = h.repository.Get(r.Context(), storyID)
	} else {
		record, err = h.repository.GetBySlug(r.Context(), key)
	}

	if errors.Is(err, domain.ErrStoryNotFound) {
		writeError(w, http.StatusNotFound, "story not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to load story", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load story")
		return
	}

	writeJSON(w, http.StatusOK, h.toStoryResponse(r, record))
}

func (h *Handler) toStoryResponse(r *http.Request, record *domain.StoryRecord) storyResponse {
	slides := make([]slideResponse, 0, len(record.SlideDeck.Slides))
	for _, slide := range record.SlideDeck.Slides {
		slides = append(slides, slideResponse{
			PlaceholderID: slide.PlaceholderID,
			Text:          slide.Text,
			ImageURL:      slide.ImageURL,
			AltText:       slide.AltText,
		})
	}

	return storyResponse{
		ID:            record.ID.String(),
		Mode:          string(record.Mode),
		Category:      record.Category,
		InputLanguage: record.InputLanguage,
		SlideCount:    record.SlideCount,
		TemplateKey:   record.TemplateKey,
		Slides:        slides,
		ImageAssets:   record.ImageAssets,
		VoiceAssets:   record.VoiceAssets,
		CanURL:        record.CanURL,
		CanURL1:       record.CanURL1,
		PreviewURL:    h.previewURL(r, record),
		CreatedAt:     record.CreatedAt,
	}
}

// previewURL はレンダリング済みHTMLの閲覧URLを返します。
// CDNが設定されていればその配信URL、無ければ期限付きの署名URLを発行します。
func (h *Handler) previewURL(r *http.Request, record *domain.StoryRecord) string {
	key := fmt.Sprintf("%s/html/%s.html", strings.Trim(h.cfg.BaseOutputDir, "/"), record.ID)

	if h.cfg.CDNBaseURL != "" {
		return strings.TrimRight(h.cfg.CDNBaseURL, "/") + "/" + key
	}
	if h.rio == nil || h.rio.Signer == nil {
		return ""
	}

	objectURL := fmt.Sprintf("gs://%s/%s", h.cfg.GCSBucket, key)
	signed, err := h.rio.Signer.GenerateSignedURL(r.Context(), objectURL, http.MethodGet, config.SignedURLExpiration)
	if err != nil {
		slog.WarnContext(r.Context(), "failed to sign preview URL", "story_id", record.ID.String(), "error", err)
		return ""
	}
	return signed
}
