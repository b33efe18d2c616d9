package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ap-story-web/internal/domain"
)

func TestAggregate_URLsTakePriorityOverTextPrompt(t *testing.T) {
	aggregator := NewAggregator()

	request := aggregator.Aggregate(domain.IntakePayload{
		TextPrompt: "This prompt should be dropped",
		Notes:      "focus on the economic impact",
		URLs:       []string{"https://example.com/a", "https://example.com/b"},
	}, domain.LanguageMetadata{})

	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, request.URLList)
	assert.Equal(t, "[Additional Context]: focus on the economic impact", request.TextInput)
	assert.NotContains(t, request.TextInput, "This prompt should be dropped")
}

func TestAggregate_TextOnlyJoinsPromptAndNotes(t *testing.T) {
	aggregator := NewAggregator()

	request := aggregator.Aggregate(domain.IntakePayload{
		TextPrompt: "The story of the transistor",
		Notes:      "keep it beginner friendly",
	}, domain.LanguageMetadata{})

	assert.Equal(t, "The story of the transistor\n\nkeep it beginner friendly", request.TextInput)
	assert.Empty(t, request.URLList)
}

func TestAggregate_KeywordsAndPreviewAppended(t *testing.T) {
	aggregator := NewAggregator()

	request := aggregator.Aggregate(domain.IntakePayload{
		TextPrompt:     "quantum computing",
		PromptKeywords: []string{"qubits", "error correction"},
	}, domain.LanguageMetadata{SourceTextPreview: "quantum computing"})

	assert.Equal(t, "quantum computing\n\nqubits error correction\n\nquantum computing", request.TextInput)
	assert.Equal(t, []string{"qubits", "error correction"}, request.FocusKeywords)
}

func TestAggregate_AttachmentsGetStableIDs(t *testing.T) {
	aggregator := NewAggregator()

	request := aggregator.Aggregate(domain.IntakePayload{
		TextPrompt:  "topic",
		Attachments: []string{"gs://bucket/a.pdf", "/tmp/b.png"},
	}, domain.LanguageMetadata{})

	assert.Len(t, request.Attachments, 2)
	assert.Equal(t, "attachment-1", request.Attachments[0].ID)
	assert.Equal(t, "gs://bucket/a.pdf", request.Attachments[0].URI)
	assert.Equal(t, "attachment-2", request.Attachments[1].ID)
	assert.Equal(t, "/tmp/b.png", request.Attachments[1].URI)
}

func TestAggregate_DoesNotAliasPayloadSlices(t *testing.T) {
	aggregator := NewAggregator()

	urls := []string{"https://example.com/a"}
	request := aggregator.Aggregate(domain.IntakePayload{URLs: urls}, domain.LanguageMetadata{})

	urls[0] = "https://example.com/mutated"
	assert.Equal(t, "https://example.com/a", request.URLList[0])
}
