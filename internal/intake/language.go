package intake

import (
	"regexp"
	"strings"

	"github.com/pemistahl/lingua-go"

	"ap-story-web/internal/domain"
)

const (
	defaultLanguage = "en"
	// explicitRequestConfidence 明示的な言語指定に与える信頼度
	explicitRequestConfidence = 0.95
	previewMaxLength          = 200
)

// languagePatterns は「in hindi」「hindi mein」のような明示的な言語指定を検出するパターンです。
// 統計的検出より常に優先されます。スライス順が判定順になります。
var languagePatterns = []struct {
	code     string
	patterns []*regexp.Regexp
}{
	{"hi", compilePatterns(
		`\bin\s+hindi\b`, `in\s+हिंदी`, `हिंदी\s+में`, `\bhindi\s+mein\b`,
		`\bhindi\s+me\b`, `हिंदी\s+मैं`, `\bhindi\s+me\s+batao\b`, `\bhindi\s+me\s+likho\b`,
	)},
	{"en", compilePatterns(
		`\bin\s+english\b`, `in\s+अंग्रेजी`, `\benglish\s+mein\b`,
		`\benglish\s+me\b`, `\benglish\s+me\s+batao\b`,
	)},
	{"mr", compilePatterns(
		`\bin\s+marathi\b`, `in\s+मराठी`, `\bmarathi\s+mein\b`, `\bmarathi\s+me\b`, `मराठी\s+मध्ये`,
	)},
	{"gu", compilePatterns(`\bin\s+gujarati\b`, `in\s+ગુજરાતી`, `\bgujarati\s+mein\b`, `\bgujarati\s+me\b`)},
	{"ta", compilePatterns(`\bin\s+tamil\b`, `in\s+தமிழ்`, `\btamil\s+mein\b`, `\btamil\s+me\b`)},
	{"te", compilePatterns(`\bin\s+telugu\b`, `in\s+తెలుగు`, `\btelugu\s+mein\b`, `\btelugu\s+me\b`)},
	{"kn", compilePatterns(`\bin\s+kannada\b`, `in\s+ಕನ್ನಡ`, `\bkannada\s+mein\b`, `\bkannada\s+me\b`)},
	{"bn", compilePatterns(`\bin\s+bengali\b`, `in\s+বাংলা`, `\bbengali\s+mein\b`, `\bbengali\s+me\b`)},
	{"pa", compilePatterns(`\bin\s+punjabi\b`, `in\s+ਪੰਜਾਬੀ`, `\bpunjabi\s+mein\b`, `\bpunjabi\s+me\b`)},
	{"ur", compilePatterns(`\bin\s+urdu\b`, `in\s+اردو`, `\burdu\s+mein\b`, `\burdu\s+me\b`)},
	{"or", compilePatterns(`\bin\s+odia\b`, `in\s+ଓଡ଼ିଆ`, `\bodia\s+mein\b`, `\bodia\s+me\b`)},
	{"ml", compilePatterns(`\bin\s+malayalam\b`, `in\s+മലയാളം`, `\bmalayalam\s+mein\b`, `\bmalayalam\s+me\b`)},
}

func compilePatterns(exprs ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		compiled = append(compiled, regexp.MustCompile(expr))
	}
	return compiled
}

// DetectLanguageRequest は明示的な言語指定を検出し、ISO 639-1 コードを返します。
// 見つからない場合は空文字列を返します。
func DetectLanguageRequest(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return ""
	}
	for _, entry := range languagePatterns {
		for _, pattern := range entry.patterns {
			if pattern.MatchString(text) {
				return entry.code
			}
		}
	}
	return ""
}

// LanguageDetector はリクエスト入力からコンテンツ言語を一度だけ判定します。
// 明示的な言語指定が最優先で、次に統計的検出、どちらも空なら既定値 "en" を返します。
type LanguageDetector struct {
	detector lingua.LanguageDetector
}

// NewLanguageDetector は対応言語を絞った統計的検出器を初期化します。
// カンナダ語・オディア語・マラヤーラム語は統計的検出の対象外で、明示指定のみ対応します。
func NewLanguageDetector() *LanguageDetector {
	languages := []lingua.Language{
		lingua.English,
		lingua.Hindi,
		lingua.Marathi,
		lingua.Gujarati,
		lingua.Tamil,
		lingua.Telugu,
		lingua.Bengali,
		lingua.Punjabi,
		lingua.Urdu,
	}
	return &LanguageDetector{
		detector: lingua.NewLanguageDetectorBuilder().FromLanguages(languages...).Build(),
	}
}

// Detect は IntakePayload の全テキストを集約して言語メタデータを生成します。
func (d *LanguageDetector) Detect(payload domain.IntakePayload) domain.LanguageMetadata {
	aggregated := aggregateText(payload)

	if code := explicitLanguage(payload); code != "" {
		return domain.LanguageMetadata{
			LanguageCode:      code,
			Confidence:        explicitRequestConfidence,
			SourceTextPreview: preview(aggregated),
		}
	}

	if strings.TrimSpace(aggregated) == "" {
		return domain.LanguageMetadata{LanguageCode: defaultLanguage, Confidence: 0.0}
	}

	language, ok := d.detector.DetectLanguageOf(aggregated)
	if !ok {
		return domain.LanguageMetadata{
			LanguageCode:      defaultLanguage,
			Confidence:        0.0,
			SourceTextPreview: preview(aggregated),
		}
	}

	confidence := d.detector.ComputeLanguageConfidence(aggregated, language)
	return domain.LanguageMetadata{
		LanguageCode:      strings.ToLower(language.IsoCode639_1().String()),
		Confidence:        confidence,
		SourceTextPreview: preview(aggregated),
	}
}

func explicitLanguage(payload domain.IntakePayload) string {
	if code := DetectLanguageRequest(payload.TextPrompt); code != "" {
		return code
	}
	return DetectLanguageRequest(payload.Notes)
}

func aggregateText(payload domain.IntakePayload) string {
	var segments []string
	if payload.TextPrompt != "" {
		segments = append(segments, payload.TextPrompt)
	}
	if payload.Notes != "" {
		segments = append(segments, payload.Notes)
	}
	if len(payload.PromptKeywords) > 0 {
		segments = append(segments, strings.Join(payload.PromptKeywords, " "))
	}
	if len(payload.URLs) > 0 {
		segments = append(segments, strings.Join(payload.URLs, " "))
	}
	return strings.Join(segments, " \n ")
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) > previewMaxLength {
		return string(runes[:previewMaxLength])
	}
	return text
}
