package intake

import (
	"strings"

	"ap-story-web/internal/domain"
)

// Builder は生のフォーム入力・タスクペイロードを正規化済みの IntakePayload に変換します。
// スライド数の境界値は設定から注入します。
type Builder struct {
	detector      *SmartInputDetector
	minSlides     int
	maxSlides     int
	defaultSlides int
}

// NewBuilder は Builder を生成します。
func NewBuilder(minSlides, maxSlides, defaultSlides int) *Builder {
	return &Builder{
		detector:      NewSmartInputDetector(),
		minSlides:     minSlides,
		maxSlides:     maxSlides,
		defaultSlides: defaultSlides,
	}
}

// BuildPayload はタスクペイロードを検証・正規化し、不変の IntakePayload を組み立てます。
// 統合入力欄 (UserInput) がある場合は先に分類し、明示フィールドへマージします。
func (b *Builder) BuildPayload(raw domain.StoryTaskPayload) (domain.IntakePayload, error) {
	textPrompt := strings.TrimSpace(raw.TextPrompt)
	notes := strings.TrimSpace(raw.Notes)
	urls := append([]string(nil), raw.URLs...)
	attachments := append([]string(nil), raw.Attachments...)

	if userInput := strings.TrimSpace(raw.UserInput); userInput != "" {
		detected := b.detector.Detect(userInput)
		switch detected.Kind {
		case KindURL:
			urls = append(urls, detected.URLs...)
		case KindText:
			if textPrompt == "" {
				textPrompt = detected.Text
			}
		case KindMixed:
			urls = append(urls, detected.URLs...)
			// 残余テキストは補足指示として扱います
			if detected.Text != "" {
				notes = detected.Text
			}
		case KindFile:
			attachments = append(attachments, detected.FilePath)
		}
	}

	payload := domain.IntakePayload{
		TextPrompt:     textPrompt,
		Notes:          notes,
		URLs:           normalizeURLList(urls),
		Attachments:    normalizeStrings(attachments),
		PromptKeywords: normalizeStrings(raw.PromptKeywords),
		Mode:           domain.ParseMode(raw.Mode),
		TemplateKey:    strings.TrimSpace(raw.TemplateKey),
		SlideCount:     b.clampSlideCount(raw.SlideCount),
		Category:       strings.TrimSpace(raw.Category),
		ImageSource:    domain.ImageSource(strings.TrimSpace(raw.ImageSource)),
		VoiceEngine:    strings.TrimSpace(raw.VoiceEngine),
	}

	if payload.TextPrompt == "" && len(payload.URLs) == 0 && len(payload.Attachments) == 0 {
		return domain.IntakePayload{}, domain.NewValidation("intake payload has no usable input (text, urls, attachments)")
	}

	return payload, nil
}

func (b *Builder) clampSlideCount(n int) int {
	if n <= 0 {
		n = b.defaultSlides
	}
	if n < b.minSlides {
		return b.minSlides
	}
	if n > b.maxSlides {
		return b.maxSlides
	}
	return n
}

// normalizeStrings はカンマ区切り文字列を展開し、空要素を除去します。
func normalizeStrings(values []string) []string {
	var normalized []string
	for _, value := range values {
		for _, piece := range strings.Split(value, ",") {
			piece = strings.TrimSpace(piece)
			if piece != "" {
				normalized = append(normalized, piece)
			}
		}
	}
	return normalized
}

// normalizeURLList は http(s) として妥当な URL だけを残します。不正な候補は黙って捨てます。
func normalizeURLList(values []string) []string {
	seen := make(map[string]struct{})
	var normalized []string
	for _, value := range normalizeStrings(values) {
		candidate, ok := normalizeURL(value)
		if !ok {
			continue
		}
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}
		normalized = append(normalized, candidate)
	}
	return normalized
}
