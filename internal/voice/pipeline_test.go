package voice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ap-story-web/internal/domain"
)

type stubVoiceProvider struct {
	name      string
	accepts   string
	failTexts map[string]bool
	requests  []string
}

func (p *stubVoiceProvider) Name() string { return p.name }

func (p *stubVoiceProvider) Supports(providerID string) bool { return providerID == p.accepts }

func (p *stubVoiceProvider) Synthesize(_ context.Context, text, _ string) (GenerationResult, error) {
	p.requests = append(p.requests, text)
	if p.failTexts[text] {
		return GenerationResult{}, errors.New("synthesis rejected")
	}
	return GenerationResult{Audio: []byte{1, 2}, Format: "mp3", VoiceID: "v1", Provider: p.name}, nil
}

type stubVoiceStorage struct {
	err error
}

func (s *stubVoiceStorage) Store(_ context.Context, result GenerationResult) (domain.VoiceAsset, error) {
	if s.err != nil {
		return domain.VoiceAsset{}, s.err
	}
	return domain.VoiceAsset{Provider: result.Provider, VoiceID: result.VoiceID, AudioURL: "https://cdn.example.com/audio.mp3"}, nil
}

func narratedDeck(texts ...string) domain.SlideDeck {
	deck := domain.SlideDeck{}
	for _, text := range texts {
		deck.Slides = append(deck.Slides, domain.SlideBlock{Text: text})
	}
	return deck
}

func TestSynthesize_OneAssetPerSlide(t *testing.T) {
	provider := &stubVoiceProvider{name: "azure", accepts: "azure_basic"}
	pipeline := NewPipeline(&stubVoiceStorage{}, provider)

	assets := pipeline.Synthesize(context.Background(), narratedDeck("intro", "details", "outro"),
		domain.LanguageMetadata{LanguageCode: "en"}, "azure_basic")

	require.Len(t, assets, 3)
	for _, asset := range assets {
		assert.False(t, asset.Placeholder)
		assert.NotEmpty(t, asset.AudioURL)
	}
}

func TestSynthesize_FailedSlideGetsPlaceholder(t *testing.T) {
	provider := &stubVoiceProvider{
		name:      "azure",
		accepts:   "azure_basic",
		failTexts: map[string]bool{"details": true},
	}
	pipeline := NewPipeline(&stubVoiceStorage{}, provider)

	assets := pipeline.Synthesize(context.Background(), narratedDeck("intro", "details", "outro"),
		domain.LanguageMetadata{LanguageCode: "en"}, "azure_basic")

	require.Len(t, assets, 3)
	assert.False(t, assets[0].Placeholder)
	assert.True(t, assets[1].Placeholder)
	assert.False(t, assets[2].Placeholder)
}

func TestSynthesize_EmptySlideTextReplacedBeforeSynthesis(t *testing.T) {
	provider := &stubVoiceProvider{name: "azure", accepts: "azure_basic"}
	pipeline := NewPipeline(&stubVoiceStorage{}, provider)

	pipeline.Synthesize(context.Background(), narratedDeck("intro", "  "),
		domain.LanguageMetadata{LanguageCode: "en"}, "azure_basic")

	require.Len(t, provider.requests, 2)
	assert.Equal(t, "Slide 2", provider.requests[1])
}

func TestSynthesize_NoMatchingProviderReturnsNil(t *testing.T) {
	provider := &stubVoiceProvider{name: "azure", accepts: "azure_basic"}
	pipeline := NewPipeline(&stubVoiceStorage{}, provider)

	assets := pipeline.Synthesize(context.Background(), narratedDeck("intro"),
		domain.LanguageMetadata{LanguageCode: "en"}, "elevenlabs")

	assert.Nil(t, assets)
}

func TestSynthesize_StorageFailureGetsPlaceholder(t *testing.T) {
	provider := &stubVoiceProvider{name: "azure", accepts: "azure_basic"}
	pipeline := NewPipeline(&stubVoiceStorage{err: errors.New("bucket unavailable")}, provider)

	assets := pipeline.Synthesize(context.Background(), narratedDeck("intro"),
		domain.LanguageMetadata{LanguageCode: "en"}, "azure_basic")

	require.Len(t, assets, 1)
	assert.True(t, assets[0].Placeholder)
}
