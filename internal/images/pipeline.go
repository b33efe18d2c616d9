package images

import (
	"context"
	"log/slog"

	"ap-story-web/internal/domain"
)

// ImageContent は保存前の画像1枚をメモリ上で表します。
type ImageContent struct {
	PlaceholderID string
	Content       []byte
	Filename      string
	Description   string
	PreStoredKey  string // 既にストレージにあるオブジェクトのキー。空でなければ再アップロードしません
}

// Provider は画像の取得元ごとの戦略です。
type Provider interface {
	// Source はプロバイダの識別タグです。ImageAsset.Source に記録されます。
	Source() string
	// Supports はこのプロバイダがペイロードを処理できるかを返します。
	Supports(payload domain.IntakePayload, articleImages []string) bool
	// Generate はスライドに対応する画像コンテンツを返します。
	Generate(ctx context.Context, deck domain.SlideDeck, payload domain.IntakePayload, articleImages []string) ([]ImageContent, error)
}

// Storage は画像コンテンツを永続化し、メタデータを返します。
type Storage interface {
	Store(ctx context.Context, content ImageContent, source string) (domain.ImageAsset, error)
}

// Pipeline はプロバイダ選択とストレージ保存を合成した画像パイプラインです。
// プロバイダリストは先勝ちで評価されます。
type Pipeline struct {
	providers []Provider
	storage   Storage
}

func NewPipeline(storage Storage, providers ...Provider) *Pipeline {
	return &Pipeline{providers: providers, storage: storage}
}

// Process はスライドデッキの画像アセットを生成します。エラーを返しません。
// 戻り値は常にスライドと同数で、assets[i] ↔ slides[i] の位置対応を保ちます。
// 生成・保存に失敗したスライドの位置は空アセットのまま残し、レンダラーが既定画像で補います。
// 1枚も保存できなかった場合のみ nil を返します。
func (p *Pipeline) Process(ctx context.Context, deck domain.SlideDeck, payload domain.IntakePayload, articleImages []string) []domain.ImageAsset {
	provider := p.selectProvider(payload, articleImages)
	if provider == nil {
		slog.InfoContext(ctx, "no image provider matched, skipping illustration",
			"image_source", string(payload.ImageSource), "mode", string(payload.Mode))
		return nil
	}

	contents, err := provider.Generate(ctx, deck, payload, articleImages)
	if err != nil {
		slog.WarnContext(ctx, "image provider failed, continuing without images",
			"provider", provider.Source(), "error", err)
		return nil
	}

	assets := make([]domain.ImageAsset, len(deck.Slides))
	slideIndex := make(map[string]int, len(deck.Slides))
	for i, slide := range deck.Slides {
		slideIndex[slide.PlaceholderID] = i
		assets[i] = domain.ImageAsset{PlaceholderID: slide.PlaceholderID}
	}

	stored := 0
	for _, content := range contents {
		i, ok := slideIndex[content.PlaceholderID]
		if !ok {
			slog.WarnContext(ctx, "image content references unknown slide, dropping",
				"placeholder", content.PlaceholderID)
			continue
		}
		asset, err := p.storage.Store(ctx, content, provider.Source())
		if err != nil {
			slog.WarnContext(ctx, "image storage failed, leaving slide placeholder empty",
				"placeholder", content.PlaceholderID, "error", err)
			continue
		}
		asset.PlaceholderID = content.PlaceholderID
		assets[i] = asset
		stored++
	}

	if stored == 0 {
		slog.WarnContext(ctx, "no slide image could be stored, continuing without images",
			"provider", provider.Source())
		return nil
	}

	slog.InfoContext(ctx, "image pipeline completed",
		"provider", provider.Source(), "slides", len(deck.Slides), "stored", stored)
	return assets
}

func (p *Pipeline) selectProvider(payload domain.IntakePayload, articleImages []string) Provider {
	for _, provider := range p.providers {
		if provider.Supports(payload, articleImages) {
			return provider
		}
	}
	return nil
}
