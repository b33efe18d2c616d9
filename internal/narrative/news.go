package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"ap-story-web/internal/domain"
	"ap-story-web/internal/prompts"
)

// slideCharLimits はスライド位置ごとのナレーション文字数上限です。
// キーは1始まりのスライド番号 (1 = カバー) で、未定義の位置は defaultCharLimit です。
var slideCharLimits = map[int]int{
	1: 80,
	2: 500,
	3: 450,
	4: 250,
	5: 200,
}

const defaultCharLimit = 200

// newsArticleLimit LLMに渡す記事本文の上限文字数
const newsArticleLimit = 3000

// defaultNewsMiddleCount slide_count 未指定時の中間スライド数
const defaultNewsMiddleCount = 5

// langNameMap は言語コードからプロンプトで使う言語名を引きます。未知のコードは英語扱いです。
var langNameMap = map[string]string{
	"hi": "Hindi",
	"mr": "Marathi",
	"gu": "Gujarati",
	"ta": "Tamil",
	"te": "Telugu",
	"kn": "Kannada",
	"bn": "Bengali",
	"pa": "Punjabi",
	"ur": "Urdu",
	"or": "Odia",
	"ml": "Malayalam",
}

// scriptInfoByName は言語名から文字体系の説明を引きます。
var scriptInfoByName = map[string]string{
	"Hindi":     "Devanagari script (हिंदी)",
	"Marathi":   "Devanagari script (मराठी)",
	"Gujarati":  "Gujarati script (ગુજરાતી)",
	"Tamil":     "Tamil script (தமிழ்)",
	"Telugu":    "Telugu script (తెలుగు)",
	"Kannada":   "Kannada script (ಕನ್ನಡ)",
	"Bengali":   "Bengali script (বাংলা)",
	"Punjabi":   "Gurmukhi script (ਪੰਜਾਬੀ)",
	"Urdu":      "Urdu script (اردو)",
	"Odia":      "Odia script (ଓଡ଼ିଆ)",
	"Malayalam": "Malayalam script (മലയാളം)",
}

// guidanceMap はストーリー内の絶対スライド位置ごとの修辞的な指針です。
// 位置2が事実の核心、以降コンテキスト → 証拠 → 反応 → 影響 → 残る論点と進みます。
var guidanceMap = map[int]string{
	2: "detail the core development with precise names, locations, and the headline claim.",
	3: "explain earlier context, build-up, or precedent events that shaped the story.",
	4: "highlight supporting evidence: quotes, data points, documents, or eyewitness accounts.",
	5: "capture reactions from officials, experts, or the public and note immediate fallout.",
	6: "examine broader implications such as geopolitical, economic, or social impact.",
	7: "surface remaining questions, unresolved angles, or investigative threads still open.",
}

const genericGuidance = "add further factual detail, supporting evidence, or expert insight while staying concise."

// newsSlide はスライド構造フェーズの1エントリです。
type newsSlide struct {
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	Caption     string `json:"caption"`
	ImagePrompt string `json:"image_prompt"`
}

// NewsGenerator はニュース記事から三段階 (分類 → スライド構造 → ナレーション) で
// ストーリーを生成します。
type NewsGenerator struct {
	model       LanguageModel
	templateKey string
}

// NewNewsGenerator は NewsGenerator を生成します。
func NewNewsGenerator(model LanguageModel, templateKey string) *NewsGenerator {
	if templateKey == "" {
		templateKey = "news_default"
	}
	return &NewsGenerator{model: model, templateKey: templateKey}
}

func (g *NewsGenerator) Mode() domain.Mode {
	return domain.ModeNews
}

// Generate はニュースナラティブを生成します。個別のLLM呼び出しの失敗はローカルな
// フォールバックで吸収し、ここからエラーを返すのは使用可能なソースが皆無の場合だけです。
func (g *NewsGenerator) Generate(ctx context.Context, prompt prompts.RenderedPrompt, insights *domain.DocInsights, slideCount int) (*domain.NarrativeResponse, error) {
	articleText := extractArticleText(insights)
	articleText = filterPositiveContent(ctx, articleText)
	articleText += urlTopicContext(ctx, insights)

	language := prompt.Metadata["language"]
	contentLanguage := "English"
	if name, ok := langNameMap[baseLanguage(language)]; ok {
		contentLanguage = name
	}

	category := prompt.Metadata["category"]
	subcategory := ""
	emotion := ""
	if category == "" || subcategory == "" || emotion == "" {
		detectedCategory, detectedSubcategory, detectedEmotion := g.classify(ctx, articleText)
		if category == "" {
			category = detectedCategory
		}
		subcategory = detectedSubcategory
		emotion = detectedEmotion
	}

	middleCount := defaultNewsMiddleCount
	if slideCount > 0 {
		middleCount = slideCount - 2
		if middleCount < 1 {
			middleCount = 1
		}
	}

	structure := g.generateSlideStructure(ctx, articleText, category, subcategory, emotion, contentLanguage, middleCount)
	storytitle := g.generateStorytitle(ctx, articleText, contentLanguage)

	narrations := make([]string, 0, middleCount+1)
	altTexts := make([]string, 0, middleCount+1)

	cover := strings.TrimSpace(CleanMarkdown(storytitle))
	if cover == "" {
		cover = fallbackHeadline(articleText)
	}
	narrations = append(narrations, cover)
	altTexts = append(altTexts, "")

	for idx, slide := range structure {
		if idx >= middleCount {
			break
		}
		slideIndex := idx + 2
		limit, ok := slideCharLimits[slideIndex]
		if !ok {
			limit = defaultCharLimit
		}
		narration := g.generateSlideNarration(ctx, slide, contentLanguage, limit)
		narrations = append(narrations, CleanMarkdown(narration))
		altTexts = append(altTexts, strings.TrimSpace(slide.ImagePrompt))
	}

	deck := buildNewsSlideDeck(narrations, altTexts, g.templateKey, language)

	return &domain.NarrativeResponse{
		Mode:      domain.ModeNews,
		SlideDeck: deck,
		RawOutput: fmt.Sprintf("Generated %d slides", len(deck.Slides)),
		Headlines: []string{storytitle},
	}, nil
}

// classify は記事のカテゴリ・サブカテゴリ・感情をJSONで分類します。
// パース失敗時は ("News", "General", "Neutral") に落とします。
func (g *NewsGenerator) classify(ctx context.Context, articleText string) (string, string, string) {
	if len(strings.TrimSpace(articleText)) < 50 {
		return "News", "General", "Neutral"
	}

	userPrompt := fmt.Sprintf(`You are an expert news analyst.

Analyze the following news article and return:

1. category
2. subcategory
3. emotion

Article:
"""%s"""

Return ONLY as JSON:
{
  "category": "...",
  "subcategory": "...",
  "emotion": "..."
}`, TruncateRunes(articleText, newsArticleLimit))

	response, err := g.model.Complete(ctx,
		"Classify the news into category, subcategory, and emotion. Return only valid JSON.", userPrompt)
	if err != nil {
		slog.WarnContext(ctx, "category classification failed", "error", err)
		return "News", "General", "Neutral"
	}

	parsed := parseJSONObject(response)
	category := stringField(parsed, "category")
	subcategory := stringField(parsed, "subcategory")
	emotion := stringField(parsed, "emotion")
	if category == "" || subcategory == "" || emotion == "" {
		return "News", "General", "Neutral"
	}
	return category, subcategory, emotion
}

// generateSlideStructure は中間スライドの {title, summary, image_prompt} リストを生成します。
// JSON失敗時は記事を文単位で均等分割するフォールバックを使います。
func (g *NewsGenerator) generateSlideStructure(ctx context.Context, articleText, category, subcategory, emotion, contentLanguage string, middleCount int) []newsSlide {
	var guidanceLines []string
	for storySlide := 2; storySlide < middleCount+2; storySlide++ {
		description, ok := guidanceMap[storySlide]
		if !ok {
			description = genericGuidance
		}
		guidanceLines = append(guidanceLines,
			fmt.Sprintf("- Content Slide %d (<= 200 characters): %s", storySlide-1, description))
	}

	var languageClause string
	if contentLanguage == "Hindi" {
		languageClause = "Write slide titles and summaries in Hindi (Devanagari script). " +
			"IMPORTANT: image_prompt field MUST be in ENGLISH ONLY for image generation, even though other fields are in Hindi."
	} else {
		languageClause = "Write all slide titles and prompts in English, even if the article text is in another language. " +
			"IMPORTANT: image_prompt field MUST be in ENGLISH ONLY for image generation."
	}

	systemPrompt := fmt.Sprintf(`Create an engaging Google Web Story based on the news article provided below.

Objectives:
- Extract the key highlights, timelines, verified facts, and impactful quotes.
- Summarize the complete story visually across %d slides.
- Keep the tone informative, balanced, and visually compelling.
- Provide slide-wise captions and background image suggestions that align with each phase of the story.
- Maintain chronological flow: introduction, build-up, evidence, reactions, implications, outlook.
- Avoid repetition; each slide must surface fresh details pulled from different portions of the article.
- IMPORTANT: Do NOT use markdown formatting (no **, no *, no #). Use plain text only.

Language requirements:
- %s
- Slide titles and summaries must be written in %s.
- image_prompt field MUST ALWAYS be in English (for image generation).

Return JSON strictly in this format (NO markdown, NO code fences):
{
  "slides": [
    {
      "title": "<concise slide caption (<= 90 characters, plain text only)>",
      "summary": "<two or three sentences covering the facts for narration, plain text only>",
      "image_prompt": "<background or visual suggestion relevant to this slide>"
    }
  ]
}`, middleCount, languageClause, contentLanguage)

	userPrompt := fmt.Sprintf(`Category: %s
Subcategory: %s
Emotion: %s

Article:
"""%s"""

Guidance:
%s`, orDefault(category, "News"), orDefault(subcategory, "General"), orDefault(emotion, "Neutral"),
		TruncateRunes(articleText, newsArticleLimit), strings.Join(guidanceLines, "\n"))

	response, err := g.model.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		slog.WarnContext(ctx, "slide structure generation failed", "error", err)
		return fallbackSlideStructure(articleText, middleCount)
	}

	parsed := parseJSONObject(response)
	if parsed == nil {
		return fallbackSlideStructure(articleText, middleCount)
	}
	raw, err := json.Marshal(parsed["slides"])
	if err != nil {
		return fallbackSlideStructure(articleText, middleCount)
	}
	var slides []newsSlide
	if err := json.Unmarshal(raw, &slides); err != nil || len(slides) == 0 {
		return fallbackSlideStructure(articleText, middleCount)
	}
	return slides
}

// fallbackSlideStructure は記事を文単位で middleCount 個のグループに素朴に分割します。
func fallbackSlideStructure(articleText string, middleCount int) []newsSlide {
	sentences := strings.Split(articleText, ". ")
	sentencesPerSlide := len(sentences) / middleCount
	if sentencesPerSlide < 1 {
		sentencesPerSlide = 1
	}

	var slides []newsSlide
	for i := 0; i < middleCount; i++ {
		start := i * sentencesPerSlide
		if start >= len(sentences) {
			break
		}
		end := start + sentencesPerSlide
		if end > len(sentences) {
			end = len(sentences)
		}
		text := strings.Join(sentences[start:end], ". ")
		if text == "" {
			continue
		}
		slides = append(slides, newsSlide{
			Title:       TruncateRunes(text, 90),
			Summary:     TruncateRunes(text, 300),
			ImagePrompt: "News story background",
		})
	}
	return slides
}

// generateStorytitle はカバースライドのナレーションを生成します。
func (g *NewsGenerator) generateStorytitle(ctx context.Context, articleText, contentLanguage string) string {
	headline := fallbackHeadline(articleText)
	limit := slideCharLimits[1]

	var titlePrompt string
	if contentLanguage == "English" {
		titlePrompt = fmt.Sprintf(
			"Generate headline intro narration in English for: %s. "+
				"Maximum %d characters. Avoid greetings. Respond in English only, translating the source if necessary. "+
				"Do NOT use markdown formatting (no **, no *, no #). Use plain text only.",
			headline, limit)
	} else {
		scriptInfo, ok := scriptInfoByName[contentLanguage]
		if !ok {
			scriptInfo = contentLanguage
		}
		titlePrompt = fmt.Sprintf(
			"Generate news headline narration in %s for the story: %s. "+
				"Maximum %d characters. Avoid greetings. Respond in %s language using %s only. "+
				"Do NOT use markdown formatting (no **, no *, no #). Use plain text only.",
			contentLanguage, headline, limit, contentLanguage, scriptInfo)
	}

	response, err := g.model.Complete(ctx,
		"You are a news presenter generating opening lines. Always respond with plain text only, no markdown.", titlePrompt)
	if err != nil {
		slog.WarnContext(ctx, "storytitle generation failed, using fallback", "error", err)
		return TruncateRunes(headline, limit)
	}

	storytitle := ShortenWordBoundary(CleanMarkdown(response), limit)
	if strings.TrimSpace(storytitle) == "" {
		return TruncateRunes(headline, limit)
	}
	return strings.TrimSpace(storytitle)
}

// generateSlideNarration はスライド1枚分のナレーションを Polaris の声色で生成します。
// 失敗時は構造の summary をそのまま切り詰めて使います。
func (g *NewsGenerator) generateSlideNarration(ctx context.Context, slide newsSlide, contentLanguage string, targetLimit int) string {
	caption := strings.TrimSpace(slide.Title)
	summaryBrief := strings.TrimSpace(slide.Summary)
	if summaryBrief == "" {
		summaryBrief = strings.TrimSpace(slide.Caption)
	}
	if summaryBrief == "" {
		summaryBrief = caption
	}
	if summaryBrief == "" {
		summaryBrief = "Provide factual narration for this segment."
	}

	var scriptLanguage, languageRequirement string
	if contentLanguage == "English" {
		scriptLanguage = "English"
		languageRequirement = "Deliver the narration strictly in English. Do not include words from other languages or transliteration."
	} else {
		scriptInfo, ok := scriptInfoByName[contentLanguage]
		if !ok {
			scriptInfo = contentLanguage
		}
		scriptLanguage = fmt.Sprintf("%s (use %s)", contentLanguage, scriptInfo)
		languageRequirement = fmt.Sprintf(
			"Deliver the narration strictly in %s language using %s. Do not use English or transliteration.",
			contentLanguage, scriptInfo)
	}

	imagePrompt := strings.TrimSpace(slide.ImagePrompt)
	if imagePrompt == "" {
		imagePrompt = "Use a neutral newsroom-inspired background."
	}

	narrationPrompt := fmt.Sprintf(`Write a narration in %s (max %d characters),
in the voice of Polaris (factual, vivid, and neutral). %s

IMPORTANT: Do NOT use markdown formatting (no **, no *, no #). Use plain text only.

Key points to cover:
%s

Visual inspiration:
%s

Character sketch:
Polaris is a sincere and articulate %s news anchor. They present facts clearly, concisely, and warmly, connecting deeply with their audience.`,
		scriptLanguage, targetLimit, languageRequirement, summaryBrief, imagePrompt, contentLanguage)

	response, err := g.model.Complete(ctx,
		"You write concise narrations for web story slides. Always respond with plain text only, no markdown formatting.", narrationPrompt)
	if err != nil {
		slog.WarnContext(ctx, "slide narration failed, using summary fallback", "error", err)
		return TruncateRunes(summaryBrief, targetLimit)
	}

	narration := ShortenWordBoundary(CleanMarkdown(response), targetLimit)
	if narration == "" {
		return TruncateRunes(summaryBrief, targetLimit)
	}
	return narration
}

// buildNewsSlideDeck はナレーション列からデッキを構築します。
// 空のセクションは除外し、カバーは決して空にしません。
func buildNewsSlideDeck(narrations, altTexts []string, templateKey, languageCode string) domain.SlideDeck {
	var filtered []domain.SlideBlock
	for i, narration := range narrations {
		narration = strings.TrimSpace(narration)
		if narration == "" {
			continue
		}
		alt := ""
		if i < len(altTexts) {
			alt = altTexts[i]
		}
		filtered = append(filtered, domain.SlideBlock{Text: narration, AltText: alt})
	}

	if len(filtered) == 0 {
		filtered = []domain.SlideBlock{{Text: "Breaking News Story"}}
	}

	for i := range filtered {
		filtered[i].PlaceholderID = fmt.Sprintf("section_%d", i+1)
	}

	return domain.SlideDeck{
		TemplateKey:  templateKey,
		LanguageCode: languageCode,
		Slides:       filtered,
	}
}

// urlTopicContext は最初のチャンクのソースURLからキーワードを抜き、生成トピックを
// URLの示す話題に固定する追加指示を作ります。抽出ライブラリが別記事を返しても、
// 少なくとも生成はURLの話題に寄せます。
func urlTopicContext(ctx context.Context, insights *domain.DocInsights) string {
	if len(insights.SemanticChunks) == 0 {
		return ""
	}
	sourceURL := insights.SemanticChunks[0].SourceID
	if !strings.HasPrefix(sourceURL, "http://") && !strings.HasPrefix(sourceURL, "https://") {
		return ""
	}

	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return ""
	}

	skipWords := map[string]struct{}{
		"article": {}, "news": {}, "sports": {}, "cricket": {}, "football": {},
		"cities": {}, "entertainment": {}, "technology": {}, "business": {},
		"politics": {}, "world": {},
	}

	var pathParts []string
	for _, part := range strings.Split(parsed.Path, "/") {
		if len(part) > 3 {
			pathParts = append(pathParts, part)
		}
	}
	if len(pathParts) > 3 {
		pathParts = pathParts[len(pathParts)-3:]
	}

	seen := map[string]struct{}{}
	var keywords []string
	for _, part := range pathParts {
		for _, word := range strings.Split(part, "-") {
			word = strings.ToLower(word)
			if len(word) <= 3 {
				continue
			}
			if _, skip := skipWords[word]; skip {
				continue
			}
			if _, dup := seen[word]; dup {
				continue
			}
			seen[word] = struct{}{}
			keywords = append(keywords, word)
			if len(keywords) >= 5 {
				break
			}
		}
	}
	if len(keywords) == 0 {
		return ""
	}

	slog.InfoContext(ctx, "added url topic context", "keywords", keywords)
	return fmt.Sprintf(
		"\n\nCRITICAL INSTRUCTION: The article URL contains these keywords: %s. "+
			"The generated story MUST be about this topic. The URL is: %s. "+
			"Ensure the story title and content match the URL topic.",
		strings.Join(keywords, ", "), sourceURL)
}

func extractArticleText(insights *domain.DocInsights) string {
	var parts []string
	for _, chunk := range insights.SemanticChunks {
		if text := strings.TrimSpace(chunk.Text); text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return "No article content available."
	}
	return strings.Join(parts, "\n\n")
}

func fallbackHeadline(articleText string) string {
	headline := strings.TrimSpace(strings.SplitN(articleText, "\n", 2)[0])
	headline = strings.ReplaceAll(headline, `"`, "")
	if headline == "" {
		headline = strings.TrimSpace(TruncateRunes(articleText, 100))
	}
	if headline == "" {
		headline = "Breaking News Story"
	}
	return headline
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

var newsSentenceSplitRe = regexp.MustCompile(`[.!?।॥|]\s+`)
