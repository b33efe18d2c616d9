package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"unicode"

	"ap-story-web/internal/domain"
)

const (
	defaultErrorTitle   = "ストーリー生成エラー"
	errorReportCategory = "error-report"
	storyOutputCategory = "story-output"
)

// notifyError はエラー発生時に SlackAdapter を通じて通知を行います。
func (p *StoryPipeline) notifyError(ctx context.Context, raw domain.StoryTaskPayload, opErr error, titleHint string) {
	reqTitle := defaultErrorTitle
	if titleHint != "" {
		reqTitle = titleHint
	}

	req := domain.NotificationRequest{
		SourceURL:      sourceHint(raw),
		OutputCategory: errorReportCategory,
		TargetTitle:    reqTitle,
		ExecutionMode:  raw.Mode,
	}

	if err := p.notifier.NotifyError(ctx, opErr, req); err != nil {
		slog.ErrorContext(ctx, "Failed to send error notification", "error", err)
	}
}

// buildStoryNotification はストーリー生成の結果に基づいてSlack通知用リクエストを構築します。
func (e *storyExecution) buildStoryNotification(record *domain.StoryRecord, publicURL string) (*domain.NotificationRequest, string, string) {
	cfg := e.pipeline.cfg
	storageURI := fmt.Sprintf("gs://%s/%s/html/%s.html",
		cfg.GCSBucket, strings.Trim(cfg.BaseOutputDir, "/"), record.ID)

	if publicURL == "" {
		publicURL, _ = url.JoinPath(cfg.StoryBaseURL, record.ID.String())
	}

	title := e.resolvedTitle
	if title == "" {
		title = "Story " + record.ID.String()
	}

	return &domain.NotificationRequest{
		SourceURL:      sourceHint(e.raw),
		OutputCategory: storyOutputCategory,
		TargetTitle:    title,
		ExecutionMode:  string(record.Mode) + " / " + record.TemplateKey,
	}, publicURL, storageURI
}

// sourceHint は通知に載せる入力ソースの表記です。URLがあれば先頭を使います。
func sourceHint(raw domain.StoryTaskPayload) string {
	if len(raw.URLs) > 0 {
		return raw.URLs[0]
	}
	if len(raw.Attachments) > 0 {
		return raw.Attachments[0]
	}
	if strings.TrimSpace(raw.TextPrompt) != "" || strings.TrimSpace(raw.UserInput) != "" {
		return "text-input"
	}
	return domain.CategoryNotAvailable
}

// alignAssets は画像アセット数をスライド数に揃える防御境界です。
// 画像パイプラインは位置対応済みのリストを返しますが、万一ずれていた場合に
// 末尾を切り詰め、欠けた位置をスライドIDだけ持つ空アセットで埋めます。
// 空アセットはレンダリング時に既定画像へフォールバックします。
func alignAssets(ctx context.Context, assets []domain.ImageAsset, deck domain.SlideDeck) []domain.ImageAsset {
	slideCount := len(deck.Slides)
	if len(assets) == 0 || len(assets) == slideCount {
		return assets
	}
	if len(assets) > slideCount {
		return assets[:slideCount]
	}

	slog.WarnContext(ctx, "Image asset count mismatch, padding with placeholders",
		"assets", len(assets), "slides", slideCount)
	padded := make([]domain.ImageAsset, slideCount)
	copy(padded, assets)
	for i := len(assets); i < slideCount; i++ {
		padded[i] = domain.ImageAsset{PlaceholderID: deck.Slides[i].PlaceholderID}
	}
	return padded
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
