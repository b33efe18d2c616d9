package docintel

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_ShortBodyAlwaysRejected(t *testing.T) {
	validator := NewContentValidator()

	result := validator.Validate(
		"https://news.example.com/solar-storm-hits-satellites-today",
		"Solar storm hits satellites",
		"too short",
	)

	assert.False(t, result.Accepted)
	assert.Equal(t, "extracted text shorter than minimum length", result.Reason)
}

func TestValidate_FewKeywordsAcceptedLeniently(t *testing.T) {
	validator := NewContentValidator()

	// パスからは "launch" の1語しか取れないので厳密検証はスキップされる
	result := validator.Validate(
		"https://example.com/2024/01/launch",
		"Completely unrelated title",
		strings.Repeat("unrelated body text about cooking recipes. ", 10),
	)

	assert.True(t, result.Accepted)
	assert.Equal(t, "too few url keywords for strict validation", result.Reason)
}

func TestValidate_MatchingContentAccepted(t *testing.T) {
	validator := NewContentValidator()

	body := strings.Repeat("The solar storm disrupted several satellites in orbit yesterday. ", 5)
	result := validator.Validate(
		"https://news.example.com/solar-storm-disrupts-satellites-orbit",
		"Solar storm disrupts satellites",
		body,
	)

	assert.True(t, result.Accepted)
	assert.GreaterOrEqual(t, result.UniqueMatches, 2)
}

func TestValidate_MismatchedContentRejected(t *testing.T) {
	validator := NewContentValidator()

	body := strings.Repeat("A new pasta recipe that takes only fifteen minutes to prepare. ", 5)
	result := validator.Validate(
		"https://news.example.com/solar-storm-disrupts-satellites-orbit",
		"Quick weeknight pasta",
		body,
	)

	assert.False(t, result.Accepted)
	assert.Equal(t, "content does not match url topic keywords", result.Reason)
}

func TestExtractURLKeywords(t *testing.T) {
	t.Run("stop words and host labels dropped", func(t *testing.T) {
		keywords := extractURLKeywords("https://example.com/news/example-election-results-2024")
		assert.Contains(t, keywords, "election")
		assert.Contains(t, keywords, "results")
		assert.NotContains(t, keywords, "news")
		assert.NotContains(t, keywords, "example")
		assert.NotContains(t, keywords, "2024")
	})

	t.Run("short tokens dropped", func(t *testing.T) {
		keywords := extractURLKeywords("https://example.com/the-big-announcement")
		assert.Equal(t, []string{"announcement"}, keywords)
	})

	t.Run("longest keywords kept under the cap", func(t *testing.T) {
		keywords := extractURLKeywords("https://example.com/alpha-bravo-charlie-deltaa-echoo-foxtrot-golff-hotel-india-juliet-kiloo-limaa")
		assert.Len(t, keywords, 10)
	})

	t.Run("invalid url yields nothing", func(t *testing.T) {
		assert.Empty(t, extractURLKeywords("://not-a-url"))
	})
}
