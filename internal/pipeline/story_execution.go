package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ap-story-web/internal/domain"
	"ap-story-web/internal/prompts"
)

// storyExecution は一回のリクエスト実行に関する状態 (開始時刻や解決済みタイトルなど) を保持します。
type storyExecution struct {
	pipeline      *StoryPipeline
	raw           domain.StoryTaskPayload
	startTime     time.Time
	payload       domain.IntakePayload
	resolvedTitle string
}

// run は各生成フェーズを順番に実行し、結果を通知します。
func (e *storyExecution) run(ctx context.Context) (record *domain.StoryRecord, err error) {
	// 失敗時の通知を defer 文で一括管理します。
	defer func() {
		if err != nil {
			e.pipeline.notifyError(ctx, e.raw, err, e.resolvedTitle)
		}
	}()

	slog.Info("Story pipeline started",
		"story_id", e.raw.StoryID,
		"mode", e.raw.Mode,
		"slide_count", e.raw.SlideCount,
	)

	// --- Phase 1: Intake ---
	e.payload, err = e.pipeline.stages.Intake.BuildPayload(e.raw)
	if err != nil {
		return nil, fmt.Errorf("intake step failed: %w", err)
	}

	language := e.pipeline.stages.Language.Detect(e.payload)
	jobRequest := e.pipeline.stages.Ingestion.Aggregate(e.payload, language)

	// --- Phase 2: Document Intelligence ---
	insights, err := e.pipeline.stages.DocIntel.Run(ctx, jobRequest)
	if err != nil {
		return nil, fmt.Errorf("document intelligence step failed: %w", err)
	}

	report := e.pipeline.stages.Analysis.Analyze(insights)
	e.pipeline.stages.Analysis.Apply(insights, report)

	// --- Phase 3: Narrative ---
	rendered := e.pipeline.stages.Prompts.Select(
		e.payload.Mode, e.promptCategory(), language.LanguageCode, report, e.payload.PromptKeywords)

	generator, err := e.pipeline.stages.Narratives.Route(e.payload.Mode)
	if err != nil {
		return nil, fmt.Errorf("narrative routing failed: %w", err)
	}
	narrativeResp, err := generator.Generate(ctx, rendered, insights, e.payload.SlideCount)
	if err != nil {
		return nil, fmt.Errorf("narrative step failed: %w", err)
	}
	e.resolvedTitle = coverText(narrativeResp.SlideDeck)

	// --- Phase 4: Assets (best effort) ---
	imageAssets := e.pipeline.stages.Images.Process(ctx, narrativeResp.SlideDeck, e.payload, insights.ArticleImages)
	imageAssets = alignAssets(ctx, imageAssets, narrativeResp.SlideDeck)

	providerID := e.payload.VoiceEngine
	if providerID == "" {
		providerID = defaultVoiceProvider
	}
	voiceAssets := e.pipeline.stages.Voices.Synthesize(ctx, narrativeResp.SlideDeck, language, providerID)

	// --- Phase 5: Record assembly ---
	record = e.buildRecord(language, insights, rendered, narrativeResp, imageAssets, voiceAssets)

	if saveErr := e.pipeline.stages.Repository.Save(ctx, record); saveErr != nil {
		slog.WarnContext(ctx, "Story persistence failed, continuing without save",
			"story_id", record.ID.String(), "error", saveErr)
	}

	// --- Phase 6: Publish (best effort) ---
	publicURL := e.pipeline.renderAndUpload(ctx, record, e.payload)

	// 成功時の共通通知処理を行います。
	notificationReq, notifyURL, storageURI := e.buildStoryNotification(record, publicURL)
	if notifyErr := e.pipeline.notifier.Notify(ctx, notifyURL, storageURI, *notificationReq); notifyErr != nil {
		slog.ErrorContext(ctx, "Notification failed", "error", notifyErr)
		// 通知処理自体の失敗は、パイプライン全体の成否には影響させません。
	}

	slog.Info("Story pipeline finished",
		"story_id", record.ID.String(),
		"slides", len(record.SlideDeck.Slides),
		"images", len(record.ImageAssets),
		"voices", len(record.VoiceAssets),
		"duration", time.Since(e.startTime).String(),
	)
	return record, nil
}

// buildRecord は全フェーズの結果を最終集約 StoryRecord にまとめます。
func (e *storyExecution) buildRecord(
	language domain.LanguageMetadata,
	insights *domain.DocInsights,
	rendered prompts.RenderedPrompt,
	narrativeResp *domain.NarrativeResponse,
	imageAssets []domain.ImageAsset,
	voiceAssets []domain.VoiceAsset,
) *domain.StoryRecord {
	storyID := e.resolveStoryID()
	canurl, canurl1 := BuildCanonicalURLs(e.pipeline.cfg.StoryBaseURL, e.payload.Mode, e.resolvedTitle, storyID)

	record := &domain.StoryRecord{
		ID:            storyID,
		Mode:          e.payload.Mode,
		Category:      e.recordCategory(narrativeResp.Mode),
		InputLanguage: language.LanguageCode,
		SlideCount:    e.payload.SlideCount,
		TemplateKey:   e.payload.TemplateKey,
		DocInsights:   insights,
		SlideDeck:     narrativeResp.SlideDeck,
		NarrativeRaw:  narrativeResp.RawOutput,
		ImageAssets:   imageAssets,
		VoiceAssets:   voiceAssets,
		CanURL:        canurl,
		CanURL1:       canurl1,
		CreatedAt:     time.Now().UTC(),
	}

	// 後から監査できるよう、使用したユーザープロンプトをモード別の欄に残します。
	if e.payload.Mode == domain.ModeNews {
		record.PromptNews = rendered.User
	} else {
		record.PromptCurious = rendered.User
	}
	return record
}

// resolveStoryID はAPI層で事前採番されたIDを優先し、不正・未指定なら新規採番します。
func (e *storyExecution) resolveStoryID() uuid.UUID {
	if id, err := uuid.Parse(e.raw.StoryID); err == nil {
		return id
	}
	return uuid.New()
}

// promptCategory はプロンプト選択に使うカテゴリです。未指定時はモード既定に落とします。
func (e *storyExecution) promptCategory() string {
	if e.payload.Category != "" {
		return e.payload.Category
	}
	if e.payload.Mode == domain.ModeNews {
		return "News"
	}
	return "Art"
}

// recordCategory は保存用カテゴリです。未指定時は生成モード名を使います。
func (e *storyExecution) recordCategory(mode domain.Mode) string {
	if e.payload.Category != "" {
		return e.payload.Category
	}
	return titleCase(string(mode))
}

func coverText(deck domain.SlideDeck) string {
	if len(deck.Slides) > 0 {
		return deck.Slides[0].Text
	}
	return ""
}
