package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ap-story-web/internal/domain"
)

func newTestBuilder() *Builder {
	return NewBuilder(2, 7, 5)
}

func TestBuildPayload_TextOnly(t *testing.T) {
	builder := newTestBuilder()

	payload, err := builder.BuildPayload(domain.StoryTaskPayload{
		TextPrompt: "  The history of tea ceremonies  ",
		Mode:       "curious",
	})
	require.NoError(t, err)

	assert.Equal(t, "The history of tea ceremonies", payload.TextPrompt)
	assert.Equal(t, domain.ModeCurious, payload.Mode)
	assert.Equal(t, 5, payload.SlideCount)
	assert.Empty(t, payload.URLs)
}

func TestBuildPayload_UserInputURLMergesIntoURLs(t *testing.T) {
	builder := newTestBuilder()

	payload, err := builder.BuildPayload(domain.StoryTaskPayload{
		UserInput: "https://example.com/news/article-1",
		Mode:      "news",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.com/news/article-1"}, payload.URLs)
	assert.Empty(t, payload.TextPrompt)
}

func TestBuildPayload_MixedInputKeepsRemainderAsNotes(t *testing.T) {
	builder := newTestBuilder()

	payload, err := builder.BuildPayload(domain.StoryTaskPayload{
		UserInput: "Summarize this https://example.com/a please",
		Mode:      "news",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.com/a"}, payload.URLs)
	assert.Equal(t, "Summarize this please", payload.Notes)
}

func TestBuildPayload_NoUsableInput(t *testing.T) {
	builder := newTestBuilder()

	_, err := builder.BuildPayload(domain.StoryTaskPayload{Mode: "news"})
	require.Error(t, err)
}

func TestBuildPayload_SlideCountClamping(t *testing.T) {
	builder := newTestBuilder()

	cases := []struct {
		name     string
		input    int
		expected int
	}{
		{"zero falls back to default", 0, 5},
		{"below minimum", 1, 2},
		{"above maximum", 20, 7},
		{"within range", 6, 6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload, err := builder.BuildPayload(domain.StoryTaskPayload{
				TextPrompt: "topic",
				Mode:       "curious",
				SlideCount: tc.input,
			})
			require.NoError(t, err)
			assert.Equal(t, tc.expected, payload.SlideCount)
		})
	}
}

func TestBuildPayload_CommaSeparatedKeywords(t *testing.T) {
	builder := newTestBuilder()

	payload, err := builder.BuildPayload(domain.StoryTaskPayload{
		TextPrompt:     "topic",
		Mode:           "curious",
		PromptKeywords: []string{"space, rockets", " mars "},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"space", "rockets", "mars"}, payload.PromptKeywords)
}

func TestDetect_Classification(t *testing.T) {
	detector := NewSmartInputDetector()

	t.Run("plain text", func(t *testing.T) {
		detected := detector.Detect("Explain photosynthesis")
		assert.Equal(t, KindText, detected.Kind)
		assert.Equal(t, "Explain photosynthesis", detected.Text)
	})

	t.Run("bare domain is normalized to https", func(t *testing.T) {
		detected := detector.Detect("www.example.com/story")
		assert.Equal(t, KindURL, detected.Kind)
		assert.Equal(t, []string{"https://www.example.com/story"}, detected.URLs)
	})

	t.Run("file reference", func(t *testing.T) {
		detected := detector.Detect("/tmp/report.pdf")
		assert.Equal(t, KindFile, detected.Kind)
		assert.Equal(t, "/tmp/report.pdf", detected.FilePath)
	})

	t.Run("mixed input", func(t *testing.T) {
		detected := detector.Detect("read https://example.com/x now")
		assert.Equal(t, KindMixed, detected.Kind)
		assert.Equal(t, "read now", detected.Text)
	})
}
