package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ap-story-web/internal/config"
	"ap-story-web/internal/domain"
)

type fakeRepository struct {
	byID   map[uuid.UUID]*domain.StoryRecord
	bySlug map[string]*domain.StoryRecord
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		byID:   map[uuid.UUID]*domain.StoryRecord{},
		bySlug: map[string]*domain.StoryRecord{},
	}
}

func (r *fakeRepository) Save(_ context.Context, record *domain.StoryRecord) error {
	r.byID[record.ID] = record
	return nil
}

func (r *fakeRepository) Get(_ context.Context, storyID uuid.UUID) (*domain.StoryRecord, error) {
	if record, ok := r.byID[storyID]; ok {
		return record, nil
	}
	return nil, domain.ErrStoryNotFound
}

func (r *fakeRepository) GetBySlug(_ context.Context, slug string) (*domain.StoryRecord, error) {
	if record, ok := r.bySlug[slug]; ok {
		return record, nil
	}
	return nil, domain.ErrStoryNotFound
}

func testConfig() *config.Config {
	return &config.Config{
		ServiceURL:    "https://story.example.com",
		CDNBaseURL:    "https://cdn.example.com",
		BaseOutputDir: "output",
		GCSBucket:     "story-bucket",
	}
}

func getStoryRequest(key string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/stories/"+key, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", key)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestHealthz(t *testing.T) {
	handler := NewHandler(testConfig(), nil, newFakeRepository(), nil)

	recorder := httptest.NewRecorder()
	handler.Healthz(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"status": "ok"}`, recorder.Body.String())
}

func TestCreateStory_InvalidBody(t *testing.T) {
	handler := NewHandler(testConfig(), nil, newFakeRepository(), nil)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/stories", strings.NewReader("{not json"))
	handler.CreateStory(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "invalid request body")
}

func TestCreateStory_MissingInput(t *testing.T) {
	handler := NewHandler(testConfig(), nil, newFakeRepository(), nil)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/stories", strings.NewReader(`{"mode": "news"}`))
	handler.CreateStory(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "at least one of")
}

func TestGetStory_ByID(t *testing.T) {
	repository := newFakeRepository()
	record := &domain.StoryRecord{
		ID:            uuid.New(),
		Mode:          domain.ModeNews,
		Category:      "Science",
		InputLanguage: "en",
		SlideCount:    5,
		SlideDeck: domain.SlideDeck{Slides: []domain.SlideBlock{
			{PlaceholderID: "section_1", Text: "Cover"},
			{PlaceholderID: "section_2", Text: "Middle"},
		}},
		CanURL:    "https://stories.example.com/cover-abc-story",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repository.Save(context.Background(), record))

	handler := NewHandler(testConfig(), nil, repository, nil)

	recorder := httptest.NewRecorder()
	handler.GetStory(recorder, getStoryRequest(record.ID.String()))

	require.Equal(t, http.StatusOK, recorder.Code)

	var body storyResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, record.ID.String(), body.ID)
	assert.Equal(t, "news", body.Mode)
	require.Len(t, body.Slides, 2)
	assert.Equal(t, "Cover", body.Slides[0].Text)
	assert.Equal(t, "https://cdn.example.com/output/html/"+record.ID.String()+".html", body.PreviewURL)
}

func TestGetStory_BySlug(t *testing.T) {
	repository := newFakeRepository()
	record := &domain.StoryRecord{ID: uuid.New(), Mode: domain.ModeCurious}
	repository.bySlug["how-kites-took-flight-ab12cd34ef-story"] = record

	handler := NewHandler(testConfig(), nil, repository, nil)

	recorder := httptest.NewRecorder()
	handler.GetStory(recorder, getStoryRequest("how-kites-took-flight-ab12cd34ef-story"))

	require.Equal(t, http.StatusOK, recorder.Code)

	var body storyResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, record.ID.String(), body.ID)
}

func TestGetStory_NotFound(t *testing.T) {
	handler := NewHandler(testConfig(), nil, newFakeRepository(), nil)

	recorder := httptest.NewRecorder()
	handler.GetStory(recorder, getStoryRequest(uuid.NewString()))

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestPreviewURL_NoCDNAndNoSignerIsEmpty(t *testing.T) {
	cfg := testConfig()
	cfg.CDNBaseURL = ""
	handler := NewHandler(cfg, nil, newFakeRepository(), nil)

	record := &domain.StoryRecord{ID: uuid.New()}
	url := handler.previewURL(httptest.NewRequest(http.MethodGet, "/", nil), record)

	assert.Empty(t, url)
}
