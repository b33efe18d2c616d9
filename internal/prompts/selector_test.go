package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ap-story-web/internal/analysis"
	"ap-story-web/internal/domain"
)

func TestSelect_CategorySpecificTemplate(t *testing.T) {
	selector := NewSelector()

	rendered := selector.Select(domain.ModeNews, "Sports", "en", analysis.Report{}, nil)

	assert.Contains(t, rendered.User, "sports article")
	assert.Equal(t, "news", rendered.Metadata["mode"])
	assert.Equal(t, "Sports", rendered.Metadata["category"])
	assert.Equal(t, "en", rendered.Metadata["language"])
}

func TestSelect_UnknownCategoryFallsBackToModeDefault(t *testing.T) {
	selector := NewSelector()

	rendered := selector.Select(domain.ModeNews, "gardening", "hi", analysis.Report{}, nil)

	assert.Contains(t, rendered.User, "news article")
	assert.Contains(t, rendered.System, "Polaris")
}

func TestSelect_KeywordsAndRecommendationsAppended(t *testing.T) {
	selector := NewSelector()

	report := analysis.Report{RecommendedPrompts: []string{"Focus on NASA"}}
	rendered := selector.Select(domain.ModeCurious, "", "en", report, []string{"orbits", "gravity"})

	assert.Contains(t, rendered.User, "Emphasize these angles: orbits, gravity.")
	assert.Contains(t, rendered.User, "Focus on NASA.")
}
