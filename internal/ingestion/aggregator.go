package ingestion

import (
	"fmt"
	"strings"

	"ap-story-web/internal/domain"
)

const textJoiner = "\n\n"

// Aggregator は IntakePayload と言語メタデータを StructuredJobRequest へ集約します。
// ここを通過した後のステージは IntakePayload の生フィールドに触れません。
type Aggregator struct{}

// NewAggregator は Aggregator を生成します。
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Aggregate はテキスト入力・URL・添付・キーワードを1つの構造化リクエストにまとめます。
//
// URL優先ルール: URL がある場合、text_prompt は捨てて URL 本文を一次ソースとします。
// その際 notes は "[Additional Context]:" を付けた補足指示として残します。
// キーワードと言語検出プレビューは常に付加されます。
func (a *Aggregator) Aggregate(payload domain.IntakePayload, language domain.LanguageMetadata) domain.StructuredJobRequest {
	segments := collectTextSegments(payload, language)

	return domain.StructuredJobRequest{
		TextInput:     strings.Join(segments, textJoiner),
		URLList:       append([]string(nil), payload.URLs...),
		Attachments:   normalizeAttachments(payload.Attachments),
		FocusKeywords: append([]string(nil), payload.PromptKeywords...),
	}
}

func collectTextSegments(payload domain.IntakePayload, language domain.LanguageMetadata) []string {
	var segments []string

	if len(payload.URLs) > 0 {
		if notes := strings.TrimSpace(payload.Notes); notes != "" {
			segments = append(segments, "[Additional Context]: "+notes)
		}
	} else {
		if prompt := strings.TrimSpace(payload.TextPrompt); prompt != "" {
			segments = append(segments, prompt)
		}
		if notes := strings.TrimSpace(payload.Notes); notes != "" {
			segments = append(segments, notes)
		}
	}

	if len(payload.PromptKeywords) > 0 {
		segments = append(segments, strings.Join(payload.PromptKeywords, " "))
	}

	if preview := strings.TrimSpace(language.SourceTextPreview); preview != "" {
		segments = append(segments, preview)
	}

	return segments
}

func normalizeAttachments(attachments []string) []domain.AttachmentDescriptor {
	descriptors := make([]domain.AttachmentDescriptor, 0, len(attachments))
	for i, uri := range attachments {
		descriptors = append(descriptors, domain.AttachmentDescriptor{
			ID:       fmt.Sprintf("attachment-%d", i+1),
			URI:      uri,
			Metadata: map[string]string{},
		})
	}
	return descriptors
}
