package render

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ap-story-web/internal/domain"
)

func TestReplacePlaceholders(t *testing.T) {
	template := `<title>{{pagetitle}}</title><link href="{{canurl|safe}}"><p>{{storytitle}}</p>`
	data := map[string]string{
		"pagetitle":  "My Story | Suvichaar",
		"canurl":     "https://stories.example.com/my-story",
		"storytitle": "**My Story**",
	}

	result := replacePlaceholders(template, data)

	assert.Contains(t, result, "<title>My Story | Suvichaar</title>")
	assert.Contains(t, result, `href="https://stories.example.com/my-story"`)
	// マークダウンは置換時に除去される
	assert.Contains(t, result, "<p>My Story</p>")
	assert.NotContains(t, result, "{{")
}

func TestCleanupURLs(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{"braced url", `{https://example.com/a}`, `https://example.com/a`},
		{"trailing brace", `see https://example.com/a} now`, `see https://example.com/a now`},
		{"attribute brace", `href="{https://example.com/a}"`, `href="https://example.com/a"`},
		{"json value brace", `"canonical": "{https://example.com/a}"`, `"canonical": "https://example.com/a"`},
		{"untouched html", `<p>plain</p>`, `<p>plain</p>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, cleanupURLs(tc.input))
		})
	}
}

func TestGenerateMiddleSlides(t *testing.T) {
	renderer := &Renderer{}

	record := &domain.StoryRecord{
		Mode:       domain.ModeNews,
		SlideCount: 4, // カバー + 中間2 + CTA
		SlideDeck: domain.SlideDeck{
			Slides: []domain.SlideBlock{
				{Text: "Cover headline"},
				{Text: "First middle"},
				{Text: "Second middle"},
				{Text: "Overflow middle"},
			},
		},
		VoiceAssets: []domain.VoiceAsset{
			{AudioURL: "https://cdn.example.com/a0.mp3"},
			{AudioURL: "https://cdn.example.com/a1.mp3"},
			{AudioURL: "https://cdn.example.com/a2.mp3"},
		},
	}

	html := renderer.generateMiddleSlides(record, "test-news-1", map[string]string{
		"s2image1": "https://cdn.example.com/s2.jpg",
	})

	assert.Equal(t, 2, strings.Count(html, "<amp-story-page"))
	assert.Contains(t, html, `id="slide-1"`)
	assert.Contains(t, html, `id="slide-2"`)
	assert.Contains(t, html, "First middle")
	assert.Contains(t, html, "Second middle")
	assert.NotContains(t, html, "Overflow middle")
	assert.NotContains(t, html, "Cover headline")
	assert.Contains(t, html, "https://cdn.example.com/s2.jpg")
	assert.Contains(t, html, "https://cdn.example.com/a1.mp3")
}

func TestGenerateMiddleSlides_NoMiddles(t *testing.T) {
	renderer := &Renderer{}

	record := &domain.StoryRecord{
		SlideCount: 2,
		SlideDeck:  domain.SlideDeck{Slides: []domain.SlideBlock{{Text: "Cover"}, {Text: "Middle"}}},
	}

	assert.Empty(t, renderer.generateMiddleSlides(record, "test-news-1", nil))
}

func TestRender_EndToEndWithLocalTemplate(t *testing.T) {
	dir := t.TempDir()
	template := `<html><head><title>{{pagetitle}}</title></head>
<body>
<amp-story standalone title="{{storytitle}}" poster-portrait-src="{{potraitcoverurl}}">
<amp-story-page id="cover"><h1>{{storytitle}}</h1></amp-story-page>
` + slideInsertionMarker + `
<amp-story-page id="cta"><p>{{category}}</p></amp-story-page>
</amp-story>
</body></html>`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test-news-1.html"), []byte(template), 0o644))

	loader := NewTemplateLoader(dir, nil, nil)
	mapper := NewPlaceholderMapper("https://cdn.example.com", "story-bucket", nil)
	renderer := NewRenderer(loader, mapper)

	record := sampleRecord()
	html, err := renderer.Render(context.Background(), record, "test-news-1", "")
	require.NoError(t, err)

	assert.Contains(t, html, "<title>Rocket reaches orbit | Suvichaar</title>")
	assert.Contains(t, html, DefaultCoverImage)
	assert.NotContains(t, html, slideInsertionMarker)
	assert.NotContains(t, html, "{{")
	assert.Contains(t, html, "The crew celebrates")
}

func TestGeneratorFor(t *testing.T) {
	assert.NotNil(t, GeneratorFor("test-news-2"))
	assert.NotNil(t, GeneratorFor("unknown-template"))
	assert.NotNil(t, GeneratorFor("gs://bucket/templates/test-news-1.html"))
}

func TestBaseTemplateName(t *testing.T) {
	assert.Equal(t, "test-news-1", baseTemplateName("test-news-1"))
	assert.Equal(t, "test-news-1", baseTemplateName("templates/test-news-1.html"))
	assert.Equal(t, "test-news-2", baseTemplateName("gs://bucket/a/test-news-2.html"))
}

func TestGenerateSlide_EscapesParagraph(t *testing.T) {
	generator := GeneratorFor("test-news-1")

	html := generator.GenerateSlide(SlideParams{
		SlideID:   "slide-1",
		Paragraph: `Tom & Jerry <script>`,
	})

	assert.Contains(t, html, "Tom &amp; Jerry &lt;script&gt;")
	assert.Contains(t, html, DefaultBackgroundImage)
}
