package docintel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSummary(t *testing.T) {
	t.Run("joins the first sentences", func(t *testing.T) {
		text := "First sentence here. Second sentence follows. Third one closes. Fourth is ignored."
		summary := buildSummary(text)
		assert.Equal(t, "First sentence here. Second sentence follows. Third one closes.", summary)
	})

	t.Run("no sentence boundary falls back to prefix", func(t *testing.T) {
		text := "word " // 文末記号なしの短いテキスト
		assert.Equal(t, "word", buildSummary(text))
	})

	t.Run("respects length budget", func(t *testing.T) {
		summary := buildSummary("First sentence here. Second sentence follows.")
		assert.LessOrEqual(t, len([]rune(summary)), 300)
	})
}

func TestSplitSentences(t *testing.T) {
	sentences := splitSentences("One. Two! Three? अंत। Done")
	assert.Equal(t, []string{"One.", "Two!", "Three?", "अंत।", "Done"}, sentences)
}

func TestCollectImages(t *testing.T) {
	html := `<p>text</p>
<img src="https://example.com/a.jpg">
<img src="https://example.com/a.jpg">
<img src='https://example.com/b.png' alt="x">
<img src="/relative/c.jpg">`

	images := collectImages(html, "https://example.com/top.jpg")

	assert.Equal(t, []string{
		"https://example.com/top.jpg",
		"https://example.com/a.jpg",
		"https://example.com/b.png",
	}, images)
}

func TestToSemanticChunks(t *testing.T) {
	extractor := NewURLContentExtractor(NewContentValidator())

	t.Run("single chunk with metadata", func(t *testing.T) {
		chunks := extractor.ToSemanticChunks(&ArticleExtraction{
			Title:   "Solar Storm",
			Text:    "The storm disrupted satellites.",
			Summary: "The storm disrupted satellites.",
		}, "https://news.example.com/solar-storm")

		require.Len(t, chunks, 1)
		assert.Equal(t, "url:https://news.example.com/solar-storm", chunks[0].ID)
		assert.Equal(t, "https://news.example.com/solar-storm", chunks[0].SourceID)
		assert.Equal(t, "Solar Storm", chunks[0].Metadata["title"])
	})

	t.Run("empty text yields no chunks", func(t *testing.T) {
		assert.Empty(t, extractor.ToSemanticChunks(&ArticleExtraction{}, "https://example.com"))
	})
}
