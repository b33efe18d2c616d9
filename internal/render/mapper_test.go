package render

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"ap-story-web/internal/domain"
)

func sampleRecord() *domain.StoryRecord {
	return &domain.StoryRecord{
		ID:            uuid.New(),
		Mode:          domain.ModeNews,
		Category:      "Science",
		InputLanguage: "en",
		SlideCount:    5,
		SlideDeck: domain.SlideDeck{
			Slides: []domain.SlideBlock{
				{PlaceholderID: "section_1", Text: "Rocket reaches orbit"},
				{PlaceholderID: "section_2", Text: "The crew celebrates"},
				{PlaceholderID: "section_3", Text: "Docking is planned for tomorrow"},
			},
		},
		VoiceAssets: []domain.VoiceAsset{
			{AudioURL: "https://cdn.example.com/a0.mp3"},
			{AudioURL: "https://cdn.example.com/a1.mp3"},
			{AudioURL: "https://cdn.example.com/a2.mp3"},
		},
		CanURL:    "https://stories.example.com/rocket-abc-story",
		CanURL1:   "https://stories.example.com/rocket-abc-story.html",
		CreatedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func TestMap_CorePlaceholders(t *testing.T) {
	mapper := NewPlaceholderMapper("https://cdn.example.com", "story-bucket", nil)

	placeholders := mapper.Map(context.Background(), sampleRecord(), "")

	assert.Equal(t, "Rocket reaches orbit", placeholders["storytitle"])
	assert.Equal(t, "Rocket reaches orbit | Suvichaar", placeholders["pagetitle"])
	assert.Equal(t, "Rocket reaches orbit", placeholders["s1paragraph1"])
	assert.Equal(t, "The crew celebrates", placeholders["s2paragraph1"])
	assert.Equal(t, "Science", placeholders["category"])
	assert.Equal(t, "News", placeholders["contenttype"])
	assert.Equal(t, "en-US", placeholders["lang"])
	assert.Equal(t, "https://stories.example.com/rocket-abc-story", placeholders["canurl"])
	assert.Equal(t, "https://stories.example.com/rocket-abc-story.html", placeholders["canurl1"])
	assert.Equal(t, "2026-03-14T09:30:00.000000Z", placeholders["publishedtime"])
	assert.Equal(t, "https://cdn.example.com/a1.mp3", placeholders["s2audio_url"])
}

func TestMap_NewsModeWithoutImageSourceUsesDefaults(t *testing.T) {
	mapper := NewPlaceholderMapper("https://cdn.example.com", "story-bucket", nil)

	record := sampleRecord()
	record.ImageAssets = []domain.ImageAsset{{OriginalObjectKey: "stories/images/x.jpg"}}

	placeholders := mapper.Map(context.Background(), record, "")

	assert.Equal(t, DefaultCoverImage, placeholders["potraitcoverurl"])
	assert.Equal(t, DefaultBackgroundImage, placeholders["s2image1"])
}

func TestMap_ExplicitImageSourceUsesAssets(t *testing.T) {
	mapper := NewPlaceholderMapper("https://cdn.example.com", "story-bucket", nil)

	record := sampleRecord()
	record.ImageAssets = []domain.ImageAsset{
		{OriginalObjectKey: "stories/images/cover.jpg"},
		{OriginalObjectKey: "stories/images/s1.jpg"},
	}

	placeholders := mapper.Map(context.Background(), record, domain.ImageSourcePexels)

	assert.NotEqual(t, DefaultCoverImage, placeholders["potraitcoverurl"])
	assert.Contains(t, placeholders["potraitcoverurl"], "https://cdn.example.com/")
	// 3枚目以降はアセットが無いので既定背景
	assert.Equal(t, DefaultBackgroundImage, placeholders["s3image1"])
}

func TestMap_EmptyCoverAssetDoesNotShiftSlideImages(t *testing.T) {
	mapper := NewPlaceholderMapper("https://cdn.example.com", "story-bucket", nil)

	record := sampleRecord()
	// カバーの保存失敗は空アセットとして位置を保持したまま届きます
	record.ImageAssets = []domain.ImageAsset{
		{PlaceholderID: "section_1"},
		{PlaceholderID: "section_2", OriginalObjectKey: "stories/images/s2.jpg"},
		{PlaceholderID: "section_3", OriginalObjectKey: "stories/images/s3.jpg"},
	}

	placeholders := mapper.Map(context.Background(), record, domain.ImageSourcePexels)

	// カバーは既定画像、2枚目のアセットがカバーに繰り上がってはいけません
	assert.Equal(t, DefaultCoverImage, placeholders["potraitcoverurl"])
	assert.Equal(t, DefaultCoverImage, placeholders["image0"])
	assert.Equal(t, DefaultBackgroundImage, placeholders["s1image1"])
	assert.Contains(t, placeholders["s2image1"], "https://cdn.example.com/")
	assert.NotEqual(t, DefaultBackgroundImage, placeholders["s2image1"])
}

func TestMap_MetaFallbacksWithoutModel(t *testing.T) {
	mapper := NewPlaceholderMapper("https://cdn.example.com", "story-bucket", nil)

	placeholders := mapper.Map(context.Background(), sampleRecord(), "")

	assert.Equal(t, "Rocket reaches orbit", placeholders["metadescription"])
	assert.Equal(t, "Science, en, web story, news", placeholders["metakeywords"])
}

func TestNormalizeLang(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{"", "en-US"},
		{"en", "en-US"},
		{"hi", "hi-IN"},
		{"ta-LK", "ta-LK"},
		{"bn", "bn-IN"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expected, normalizeLang(tc.input))
	}
}

func TestTruncateWithEllipsis(t *testing.T) {
	assert.Equal(t, "short", truncateWithEllipsis("short", 10))

	long := truncateWithEllipsis("abcdefghijkl", 10)
	assert.Equal(t, "abcdefg...", long)
	assert.Len(t, long, 10)
}
