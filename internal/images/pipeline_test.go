package images

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ap-story-web/internal/domain"
)

type stubProvider struct {
	source   string
	supports bool
	contents []ImageContent
	err      error
}

func (p *stubProvider) Source() string { return p.source }

func (p *stubProvider) Supports(domain.IntakePayload, []string) bool { return p.supports }

func (p *stubProvider) Generate(context.Context, domain.SlideDeck, domain.IntakePayload, []string) ([]ImageContent, error) {
	return p.contents, p.err
}

type stubStorage struct {
	failOn string
	stored []string
}

func (s *stubStorage) Store(_ context.Context, content ImageContent, source string) (domain.ImageAsset, error) {
	if content.PlaceholderID == s.failOn {
		return domain.ImageAsset{}, errors.New("upload failed")
	}
	s.stored = append(s.stored, content.PlaceholderID)
	return domain.ImageAsset{Source: source, OriginalObjectKey: content.PlaceholderID}, nil
}

func twoSlideDeck() domain.SlideDeck {
	return domain.SlideDeck{Slides: []domain.SlideBlock{
		{PlaceholderID: "cover", Text: "Title"},
		{PlaceholderID: "slide_1", Text: "Body"},
	}}
}

func TestProcess_FirstSupportingProviderWins(t *testing.T) {
	skipped := &stubProvider{source: "ai", supports: false}
	chosen := &stubProvider{source: "pexels", supports: true, contents: []ImageContent{
		{PlaceholderID: "cover", Content: []byte{1}},
		{PlaceholderID: "slide_1", Content: []byte{2}},
	}}
	storage := &stubStorage{}
	pipeline := NewPipeline(storage, skipped, chosen)

	assets := pipeline.Process(context.Background(), twoSlideDeck(), domain.IntakePayload{}, nil)

	require.Len(t, assets, 2)
	assert.Equal(t, "pexels", assets[0].Source)
	assert.Equal(t, "cover", assets[0].PlaceholderID)
	assert.Equal(t, "slide_1", assets[1].PlaceholderID)
	assert.Equal(t, []string{"cover", "slide_1"}, storage.stored)
}

func TestProcess_NoProviderMatchedReturnsNil(t *testing.T) {
	pipeline := NewPipeline(&stubStorage{}, &stubProvider{source: "ai", supports: false})

	assets := pipeline.Process(context.Background(), twoSlideDeck(), domain.IntakePayload{}, nil)

	assert.Nil(t, assets)
}

func TestProcess_ProviderErrorSwallowed(t *testing.T) {
	failing := &stubProvider{source: "ai", supports: true, err: errors.New("quota exceeded")}
	pipeline := NewPipeline(&stubStorage{}, failing)

	assets := pipeline.Process(context.Background(), twoSlideDeck(), domain.IntakePayload{}, nil)

	assert.Nil(t, assets)
}

func TestProcess_StorageFailureKeepsSlideAlignment(t *testing.T) {
	provider := &stubProvider{source: "ai", supports: true, contents: []ImageContent{
		{PlaceholderID: "cover", Content: []byte{1}},
		{PlaceholderID: "slide_1", Content: []byte{2}},
	}}
	storage := &stubStorage{failOn: "cover"}
	pipeline := NewPipeline(storage, provider)

	assets := pipeline.Process(context.Background(), twoSlideDeck(), domain.IntakePayload{}, nil)

	// カバーの保存に失敗しても slide_1 のアセットが繰り上がってはいけません
	require.Len(t, assets, 2)
	assert.True(t, assets[0].Empty())
	assert.Equal(t, "cover", assets[0].PlaceholderID)
	assert.Equal(t, "slide_1", assets[1].OriginalObjectKey)
	assert.Equal(t, "slide_1", assets[1].PlaceholderID)
}

func TestProcess_ProviderSkippedSlideStaysEmpty(t *testing.T) {
	provider := &stubProvider{source: "ai", supports: true, contents: []ImageContent{
		{PlaceholderID: "slide_1", Content: []byte{2}},
	}}
	storage := &stubStorage{}
	pipeline := NewPipeline(storage, provider)

	assets := pipeline.Process(context.Background(), twoSlideDeck(), domain.IntakePayload{}, nil)

	require.Len(t, assets, 2)
	assert.True(t, assets[0].Empty())
	assert.Equal(t, "slide_1", assets[1].OriginalObjectKey)
}

func TestProcess_AllStorageFailedReturnsNil(t *testing.T) {
	provider := &stubProvider{source: "ai", supports: true, contents: []ImageContent{
		{PlaceholderID: "cover", Content: []byte{1}},
	}}
	storage := &stubStorage{failOn: "cover"}
	pipeline := NewPipeline(storage, provider)

	assets := pipeline.Process(context.Background(), twoSlideDeck(), domain.IntakePayload{}, nil)

	assert.Nil(t, assets)
}
