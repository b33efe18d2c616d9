package pipeline

import (
	"context"
	"log/slog"
	"time"

	"ap-story-web/internal/adapters"
	"ap-story-web/internal/analysis"
	"ap-story-web/internal/config"
	"ap-story-web/internal/docintel"
	"ap-story-web/internal/domain"
	"ap-story-web/internal/images"
	"ap-story-web/internal/ingestion"
	"ap-story-web/internal/intake"
	"ap-story-web/internal/narrative"
	"ap-story-web/internal/persistence"
	"ap-story-web/internal/prompts"
	"ap-story-web/internal/render"
	"ap-story-web/internal/voice"
)

// defaultVoiceProvider はリクエストで音声エンジン未指定時に使うプロバイダIDです。
const defaultVoiceProvider = "azure_basic"

// Stages はストーリー生成の各段の実装をまとめたものです。
// ビルダーが組み立てて StoryPipeline に注入します。
type Stages struct {
	Intake     *intake.Builder
	Language   *intake.LanguageDetector
	Ingestion  *ingestion.Aggregator
	DocIntel   *docintel.Pipeline
	Analysis   *analysis.Facade
	Prompts    *prompts.Selector
	Narratives *narrative.Router
	Images     *images.Pipeline
	Voices     *voice.Pipeline
	Repository persistence.StoryRepository
	Renderer   *render.Renderer
	Uploader   *render.HTMLUploader
}

// StoryPipeline は入力の正規化からHTML公開までのストーリー生成全体を統括します。
//
// 前半の段 (取り込み・言語判定・抽出・解析・ナラティブ生成) は失敗すると
// パイプライン全体が失敗します。後半の段 (画像・音声・永続化・レンダリング) は
// ベストエフォートで、失敗してもストーリー自体は成立させます。
type StoryPipeline struct {
	cfg      *config.Config
	stages   Stages
	notifier adapters.SlackNotifier
}

func NewStoryPipeline(cfg *config.Config, stages Stages, notifier adapters.SlackNotifier) *StoryPipeline {
	return &StoryPipeline{
		cfg:      cfg,
		stages:   stages,
		notifier: notifier,
	}
}

// Execute は非同期ワーカーから呼ばれるエントリポイントです。
func (p *StoryPipeline) Execute(ctx context.Context, raw domain.StoryTaskPayload) error {
	_, err := p.CreateStory(ctx, raw)
	return err
}

// CreateStory はタスクペイロード1件からストーリーを生成し、最終集約を返します。
// 1件あたりの実行時間は設定のタイムアウトで打ち切ります。
func (p *StoryPipeline) CreateStory(ctx context.Context, raw domain.StoryTaskPayload) (*domain.StoryRecord, error) {
	timeout := p.cfg.StoryTimeout
	if timeout <= 0 {
		timeout = config.DefaultStoryTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	exec := &storyExecution{
		pipeline:  p,
		raw:       raw,
		startTime: time.Now(),
	}
	return exec.run(ctx)
}

// renderAndUpload はストーリーHTMLを組み立ててGCSへ公開し、公開URLを返します。
// ベストエフォートの段なので、失敗時は警告ログのみで空文字を返します。
func (p *StoryPipeline) renderAndUpload(ctx context.Context, record *domain.StoryRecord, payload domain.IntakePayload) string {
	if p.stages.Renderer == nil || p.stages.Uploader == nil {
		return ""
	}

	html, err := p.stages.Renderer.Render(ctx, record, record.TemplateKey, payload.ImageSource)
	if err != nil {
		slog.WarnContext(ctx, "Story HTML rendering failed, skipping publish",
			"story_id", record.ID.String(), "error", err)
		return ""
	}

	publicURL, err := p.stages.Uploader.Upload(ctx, html, record.ID)
	if err != nil {
		slog.WarnContext(ctx, "Story HTML upload failed",
			"story_id", record.ID.String(), "error", err)
		return ""
	}

	slog.Info("Story HTML published", "story_id", record.ID.String(), "public_url", publicURL)
	return publicURL
}
