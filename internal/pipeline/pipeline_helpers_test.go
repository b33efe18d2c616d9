package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"ap-story-web/internal/domain"
)

func TestAlignAssets(t *testing.T) {
	ctx := context.Background()
	asset := func(key string) domain.ImageAsset {
		return domain.ImageAsset{OriginalObjectKey: key}
	}
	deck := func(placeholders ...string) domain.SlideDeck {
		var slides []domain.SlideBlock
		for _, id := range placeholders {
			slides = append(slides, domain.SlideBlock{PlaceholderID: id})
		}
		return domain.SlideDeck{Slides: slides}
	}

	t.Run("matching count passes through", func(t *testing.T) {
		assets := []domain.ImageAsset{asset("a"), asset("b")}
		assert.Equal(t, assets, alignAssets(ctx, assets, deck("cover", "slide_1")))
	})

	t.Run("empty stays empty", func(t *testing.T) {
		assert.Empty(t, alignAssets(ctx, nil, deck("cover", "slide_1", "slide_2", "slide_3")))
	})

	t.Run("excess is truncated", func(t *testing.T) {
		assets := []domain.ImageAsset{asset("a"), asset("b"), asset("c")}
		aligned := alignAssets(ctx, assets, deck("cover", "slide_1"))
		assert.Len(t, aligned, 2)
		assert.Equal(t, "b", aligned[1].OriginalObjectKey)
	})

	t.Run("shortfall padded with empty slide assets", func(t *testing.T) {
		assets := []domain.ImageAsset{asset("a")}
		aligned := alignAssets(ctx, assets, deck("cover", "slide_1", "slide_2"))
		assert.Len(t, aligned, 3)
		assert.Equal(t, "a", aligned[0].OriginalObjectKey)
		assert.True(t, aligned[1].Empty())
		assert.Equal(t, "slide_1", aligned[1].PlaceholderID)
		assert.True(t, aligned[2].Empty())
		assert.Equal(t, "slide_2", aligned[2].PlaceholderID)
	})
}

func TestSourceHint(t *testing.T) {
	cases := []struct {
		name     string
		raw      domain.StoryTaskPayload
		expected string
	}{
		{"url wins", domain.StoryTaskPayload{URLs: []string{"https://example.com/a"}, TextPrompt: "x"}, "https://example.com/a"},
		{"attachment next", domain.StoryTaskPayload{Attachments: []string{"gs://bucket/doc.pdf"}}, "gs://bucket/doc.pdf"},
		{"text prompt", domain.StoryTaskPayload{TextPrompt: "some topic"}, "text-input"},
		{"unified input", domain.StoryTaskPayload{UserInput: "some topic"}, "text-input"},
		{"nothing", domain.StoryTaskPayload{}, domain.CategoryNotAvailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, sourceHint(tc.raw))
		})
	}
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "News", titleCase("news"))
	assert.Equal(t, "Curious", titleCase("curious"))
	assert.Equal(t, "", titleCase(""))
}
