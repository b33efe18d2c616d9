package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"ap-story-web/internal/domain"
	"ap-story-web/internal/prompts"
)

// genericAlt は alt が欠落したスライドに使う汎用の画像プロンプトです。
const genericAlt = "Flat vector illustration of the slide's idea; clean geometric shapes, " +
	"smooth gradients, harmonious palette; inclusive, family-friendly; " +
	"no text/logos/watermarks; no real-person likeness."

// defaultMiddleCount slide_count 未指定時の中間スライド数
const defaultMiddleCount = 6

// curiousSourceLimit LLMに渡すソーステキストの上限文字数
const curiousSourceLimit = 3000

// langScriptMap は言語コードから文字体系の説明を引きます。プロンプトの言語指示に使います。
var langScriptMap = map[string]string{
	"hi": "Devanagari script (हिंदी)",
	"mr": "Devanagari script (मराठी)",
	"gu": "Gujarati script (ગુજરાતી)",
	"ta": "Tamil script (தமிழ்)",
	"te": "Telugu script (తెలుగు)",
	"kn": "Kannada script (ಕನ್ನಡ)",
	"bn": "Bengali script (বাংলা)",
	"pa": "Gurmukhi script (ਪੰਜਾਬੀ)",
	"ur": "Urdu script (اردو)",
	"or": "Odia script (ଓଡ଼ିଆ)",
	"ml": "Malayalam script (മലയാളം)",
}

// CuriousGenerator は教育・解説向けのストーリーを単一の構造化JSON生成で作ります。
//
// LLMに storytitle・s{i}paragraph1・s{i}alt1 を一括で出力させ、欠落フィールドは
// 決定的なフォールバックで必ず埋めます。本文はターゲット言語、alt は常に英語です。
type CuriousGenerator struct {
	model       LanguageModel
	templateKey string
}

// NewCuriousGenerator は CuriousGenerator を生成します。
func NewCuriousGenerator(model LanguageModel, templateKey string) *CuriousGenerator {
	if templateKey == "" {
		templateKey = "curious_default"
	}
	return &CuriousGenerator{model: model, templateKey: templateKey}
}

func (g *CuriousGenerator) Mode() domain.Mode {
	return domain.ModeCurious
}

// Generate は構造化JSONを生成し、カバー + 中間スライドのデッキを組み立てます。
// スライド総数には CTA 分も含まれるため、中間スライド数は max(1, slideCount-2) です。
func (g *CuriousGenerator) Generate(ctx context.Context, prompt prompts.RenderedPrompt, insights *domain.DocInsights, slideCount int) (*domain.NarrativeResponse, error) {
	sourceText := extractSourceText(insights)
	targetLang := baseLanguage(prompt.Metadata["language"])
	if targetLang == "" {
		targetLang = "en"
	}

	middleCount := defaultMiddleCount
	if slideCount > 0 {
		middleCount = slideCount - 2
		if middleCount < 1 {
			middleCount = 1
		}
	}
	slog.InfoContext(ctx, "generating curious narrative",
		"slide_count", slideCount, "middle_count", middleCount, "language", targetLang)

	result, err := g.generateStructuredJSON(ctx, sourceText, targetLang, middleCount)
	if err != nil {
		return nil, err
	}
	deck := g.buildSlideDeck(result, middleCount, targetLang)

	rawOutput, _ := json.Marshal(result)
	return &domain.NarrativeResponse{
		Mode:           domain.ModeCurious,
		SlideDeck:      deck,
		RawOutput:      string(rawOutput),
		ReasoningTrace: string(rawOutput),
	}, nil
}

// generateStructuredJSON はLLMに構造化JSONを生成させます。
// 補完呼び出し自体の失敗はモデルが利用不能ということなので、そのままエラーを返します。
// 応答が壊れたJSONだった場合のみ、決定的なフォールバックで復旧します。
func (g *CuriousGenerator) generateStructuredJSON(ctx context.Context, sourceText, targetLang string, middleCount int) (map[string]any, error) {
	systemPrompt := buildCuriousSystemPrompt(targetLang, middleCount)
	userPrompt := fmt.Sprintf(
		"SOURCE INPUT:\n%s\n\nReturn only the JSON object described above. No markdown, no code fences, just valid JSON. Include EXACTLY %d slides.",
		TruncateRunes(sourceText, curiousSourceLimit), middleCount)

	rawOutput, err := g.model.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("curious narrative completion failed: %w", err)
	}

	result := parseJSONObject(rawOutput)
	if result == nil {
		slog.WarnContext(ctx, "json parsing failed for curious narrative",
			"raw_preview", TruncateRunes(rawOutput, 500))
		title := TruncateRunes(sourceText, 80)
		if strings.TrimSpace(title) == "" {
			title = "Educational Story"
		}
		result = map[string]any{
			"language":   targetLang,
			"storytitle": title,
		}
	}

	g.backfill(ctx, result, targetLang, middleCount)
	return result, nil
}

// backfill は欠落フィールドの補完・マークダウン除去・altの英語化を行います。
// スライドが存在する限り、どのフィールドも空のままにはなりません。
func (g *CuriousGenerator) backfill(ctx context.Context, result map[string]any, targetLang string, middleCount int) {
	setDefault(result, "language", targetLang)
	setDefault(result, "storytitle", "")
	setDefault(result, "s0alt1", "")
	for i := 1; i <= middleCount; i++ {
		setDefault(result, fmt.Sprintf("s%dparagraph1", i), "")
		setDefault(result, fmt.Sprintf("s%dalt1", i), "")
	}

	// マークダウン除去は本文のみ。alt は画像プロンプトとして文字どおり保持します。
	result["storytitle"] = CleanMarkdown(stringField(result, "storytitle"))
	for i := 1; i <= middleCount; i++ {
		key := fmt.Sprintf("s%dparagraph1", i)
		result[key] = CleanMarkdown(stringField(result, key))
	}

	if strings.TrimSpace(stringField(result, "storytitle")) == "" {
		firstSlide := strings.Trim(TruncateRunes(stringField(result, "s1paragraph1"), 60), " .,-")
		if firstSlide == "" {
			firstSlide = "Educational Story"
		}
		result["storytitle"] = firstSlide
	}
	if strings.TrimSpace(stringField(result, "s1paragraph1")) == "" {
		result["s1paragraph1"] = TruncateRunes(stringField(result, "storytitle"), 500)
	}

	if strings.TrimSpace(stringField(result, "s0alt1")) == "" {
		result["s0alt1"] = g.coverAlt(ctx, stringField(result, "storytitle"), targetLang)
	}
	for i := 1; i <= middleCount; i++ {
		key := fmt.Sprintf("s%dalt1", i)
		if strings.TrimSpace(stringField(result, key)) != "" {
			continue
		}
		seed := strings.TrimSpace(stringField(result, fmt.Sprintf("s%dparagraph1", i)))
		if seed == "" {
			seed = strings.TrimSpace(stringField(result, "storytitle"))
		}
		result[key] = g.slideAlt(ctx, seed, targetLang)
	}
}

// coverAlt はカバー画像プロンプトを組み立てます。タイトルが英語以外の場合は
// 画像プロンプト用の英語説明へLLMで変換します (本文のタイトルは元言語のまま)。
func (g *CuriousGenerator) coverAlt(ctx context.Context, title, targetLang string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Educational Story"
	}

	if targetLang == "en" {
		return fmt.Sprintf("Cover for the story titled '%s': welcoming, abstract, educational motif. %s", title, genericAlt)
	}

	description := g.convertToEnglish(ctx,
		"You are a translator. Convert story titles to English descriptions for image generation.",
		fmt.Sprintf("Convert this story title to a brief English description for an image prompt (max 50 words).\nTitle: %s\nOriginal Language: %s\n\nReturn only the English description that captures the visual essence of the story, no quotes or labels.", title, targetLang))
	if description != "" {
		return fmt.Sprintf("Cover illustration for story about %s: welcoming, abstract, educational motif. %s", description, genericAlt)
	}
	return "Educational story cover illustration, welcoming, abstract, positive theme. " + genericAlt
}

func (g *CuriousGenerator) slideAlt(ctx context.Context, seed, targetLang string) string {
	if seed == "" {
		return genericAlt
	}
	if targetLang == "en" {
		return seed + ". " + genericAlt
	}

	description := g.convertToEnglish(ctx,
		"You are a translator. Convert story content to English descriptions for image generation.",
		fmt.Sprintf("Convert this story content to a brief English description for an image prompt (max 30 words).\nContent: %s\nOriginal Language: %s\n\nReturn only the English description that captures the visual essence, no quotes or labels.", TruncateRunes(seed, 200), targetLang))
	if description != "" {
		return description + ". " + genericAlt
	}
	return genericAlt
}

// convertToEnglish は変換結果が短すぎる場合も失敗扱いにして空文字列を返します。
func (g *CuriousGenerator) convertToEnglish(ctx context.Context, systemPrompt, userPrompt string) string {
	response, err := g.model.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		slog.WarnContext(ctx, "failed to convert content to english for image prompt", "error", err)
		return ""
	}
	response = strings.Trim(strings.TrimSpace(response), `"'`)
	if len(response) <= 10 {
		return ""
	}
	return response
}

// buildSlideDeck はJSONからデッキを構築します。最終的なスライド数は必ず middleCount+1 です。
func (g *CuriousGenerator) buildSlideDeck(result map[string]any, middleCount int, targetLang string) domain.SlideDeck {
	storytitle := stringField(result, "storytitle")
	if storytitle == "" {
		storytitle = "Educational Story"
	}

	slides := []domain.SlideBlock{
		{
			PlaceholderID: "cover",
			Text:          TruncateRunes(storytitle, 180),
			AltText:       stringField(result, "s0alt1"),
		},
	}

	for i := 1; i <= middleCount; i++ {
		paragraph := strings.TrimSpace(stringField(result, fmt.Sprintf("s%dparagraph1", i)))
		if paragraph == "" {
			paragraph = fmt.Sprintf("Slide %d content", i)
		}
		slides = append(slides, domain.SlideBlock{
			PlaceholderID: fmt.Sprintf("slide_%d", i),
			Text:          paragraph,
			AltText:       stringField(result, fmt.Sprintf("s%dalt1", i)),
		})
	}

	expected := middleCount + 1
	if len(slides) > expected {
		slides = slides[:expected]
	}
	for len(slides) < expected {
		slides = append(slides, domain.SlideBlock{
			PlaceholderID: fmt.Sprintf("slide_%d", len(slides)),
			AltText:       genericAlt,
		})
	}

	language := stringField(result, "language")
	if language == "" {
		language = targetLang
	}
	return domain.SlideDeck{
		TemplateKey:  g.templateKey,
		LanguageCode: language,
		Slides:       slides,
	}
}

func buildCuriousSystemPrompt(targetLang string, middleCount int) string {
	scriptInfo, ok := langScriptMap[targetLang]
	if !ok {
		scriptInfo = targetLang + " language"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `You are a multilingual teaching assistant.

INPUT:
- You will receive a topic or content to explain.

MANDATORY LANGUAGE REQUIREMENTS:
- Target language code = "%[1]s".
- Story content (storytitle, s1paragraph1, s2paragraph1, etc.) MUST be written in %[1]s language.
- If target_lang is "hi", "mr", "gu", "ta", "te", "kn", "bn", "pa", "or", "ml", or "ur", use the appropriate native script (%[2]s).
- Image prompts (s0alt1, s1alt1, s2alt1, etc.) MUST ALWAYS be in ENGLISH ONLY, regardless of story language.
- IMPORTANT: Do NOT use markdown formatting (no **, no *, no #). Use plain text only.
- Generate EXACTLY %[3]d slides (s1paragraph1 through s%[3]dparagraph1).

Your job:
1) Extract a short and catchy title -> storytitle (<= 80 characters, plain text only, in %[1]s language).
2) Summarise the content into EXACTLY %[3]d slides (s1paragraph1..s%[3]dparagraph1), each within character limits:
   - All story content must be in %[1]s language (%[2]s).
   - s1paragraph1: <= 500 characters
   - s2paragraph1: <= 450 characters
   - s3paragraph1: <= 400 characters
   - s4paragraph1: <= 350 characters
   - s5paragraph1: <= 300 characters
   - s6paragraph1: <= 250 characters
   - Additional slides: <= 250 characters each
3) For each slide, write an image generation prompt in ENGLISH ONLY:
   - Cover slide: s0alt1 (for the story title/cover) - MUST be in English
   - Middle slides: s1alt1..s%[3]dalt1 (one for each content slide) - MUST be in English
   - Image prompts must be in ENGLISH, even if story content is in %[1]s
   - Bright colors, clean lines, no text/captions/logos
   - Flat vector illustration style
   - Family-friendly and inclusive
4) Keep content factual, educational, and accessible.

SAFETY & POSITIVITY RULES:
- If input includes unsafe themes, reinterpret to safe, inclusive, family-friendly content.
- No markdown formatting - plain text only.
- Image prompts must be safe, no real-person likeness, no text in images.

CRITICAL: Respond strictly in this JSON format:
- Keys: Always in English
- Story content values (storytitle, s1paragraph1, etc.): In %[1]s language (%[2]s)
- Image prompt values (s0alt1, s1alt1, etc.): ALWAYS in English only

Include EXACTLY %[3]d slides:

{
  "language": "%[1]s",
  "storytitle": "...",
  "s0alt1": "...",
`, targetLang, scriptInfo, middleCount)

	for i := 1; i <= middleCount; i++ {
		fmt.Fprintf(&b, "  \"s%dparagraph1\": \"...\",\n", i)
	}
	for i := 1; i <= middleCount; i++ {
		fmt.Fprintf(&b, "  \"s%dalt1\": \"...\"", i)
		if i < middleCount {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}

func extractSourceText(insights *domain.DocInsights) string {
	var parts []string
	for _, chunk := range insights.SemanticChunks {
		if text := strings.TrimSpace(chunk.Text); text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return "No content provided."
	}
	return strings.Join(parts, "\n\n")
}

func baseLanguage(code string) string {
	if i := strings.IndexByte(code, '-'); i >= 0 {
		return code[:i]
	}
	return code
}

func setDefault(m map[string]any, key string, value any) {
	if _, ok := m[key]; !ok {
		m[key] = value
	}
}
