package voice

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"ap-story-web/internal/domain"
)

// GenerationResult は保存前の合成音声です。
type GenerationResult struct {
	Audio    []byte
	Format   string // 拡張子 ("mp3" 等)
	VoiceID  string
	Provider string
}

// Provider は音声合成エンジンごとの戦略です。
type Provider interface {
	Name() string
	// Supports は要求されたプロバイダIDがこのプロバイダに一致するかを返します。
	Supports(providerID string) bool
	Synthesize(ctx context.Context, text, language string) (GenerationResult, error)
}

// Storage は音声コンテンツを永続化します。
type Storage interface {
	Store(ctx context.Context, audio GenerationResult) (domain.VoiceAsset, error)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Pipeline はスライドごとのナレーション音声を合成します。
//
// 戻り値は常にスライド数と同じ長さです。合成に失敗したスライドや本文が
// 空のスライドにもプレースホルダーを置き、レンダラーが位置でアクセスしても
// インデックスがずれないことを保証します。
type Pipeline struct {
	providers []Provider
	storage   Storage
}

func NewPipeline(storage Storage, providers ...Provider) *Pipeline {
	return &Pipeline{providers: providers, storage: storage}
}

// Synthesize は要求されたプロバイダでデッキ全体のナレーションを生成します。
// どのプロバイダにも一致しない場合は空リストを返します (致命的ではありません)。
func (p *Pipeline) Synthesize(ctx context.Context, deck domain.SlideDeck, language domain.LanguageMetadata, providerID string) []domain.VoiceAsset {
	provider := p.resolveProvider(providerID)
	if provider == nil {
		slog.InfoContext(ctx, "no voice provider matched, skipping narration", "provider_id", providerID)
		return nil
	}

	assets := make([]domain.VoiceAsset, 0, len(deck.Slides))
	for i, slide := range deck.Slides {
		text := strings.TrimSpace(slide.Text)
		if text == "" {
			text = fmt.Sprintf("Slide %d", i+1)
		}

		result, err := provider.Synthesize(ctx, text, language.LanguageCode)
		if err != nil {
			slog.WarnContext(ctx, "voice synthesis failed, inserting placeholder",
				"provider", provider.Name(), "slide", i, "error", err)
			assets = append(assets, placeholderAsset(provider.Name()))
			continue
		}

		asset, err := p.storage.Store(ctx, result)
		if err != nil {
			slog.WarnContext(ctx, "voice storage failed, inserting placeholder",
				"provider", provider.Name(), "slide", i, "error", err)
			assets = append(assets, placeholderAsset(provider.Name()))
			continue
		}
		assets = append(assets, asset)
	}

	slog.InfoContext(ctx, "voice pipeline completed",
		"provider", provider.Name(), "slides", len(deck.Slides), "assets", len(assets))
	return assets
}

func (p *Pipeline) resolveProvider(providerID string) Provider {
	for _, provider := range p.providers {
		if provider.Supports(providerID) {
			return provider
		}
	}
	return nil
}

func placeholderAsset(providerName string) domain.VoiceAsset {
	return domain.VoiceAsset{
		Provider:    providerName,
		Placeholder: true,
	}
}
