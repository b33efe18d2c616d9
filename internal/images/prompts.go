package images

import (
	"fmt"
	"regexp"
	"strings"
)

// 安全なフォールバックプロンプト群。スライドindexの剰余で選ぶことで、
// 全スライドがフォールバックに落ちても互いに異なる画像になります。
var simpleSafePrompts = []string{
	"abstract geometric shapes in blue and white",
	"modern minimalist design with soft colors",
	"professional business illustration",
	"clean abstract composition with warm tones",
	"contemporary design elements in neutral colors",
	"simple geometric patterns in pastel colors",
	"minimalist abstract art with professional aesthetic",
	"modern design with clean lines and soft lighting",
	"abstract composition with vibrant but safe colors",
	"professional graphic design with geometric elements",
	"contemporary illustration with positive energy",
	"clean modern aesthetic with balanced composition",
	"abstract visual design with professional quality",
	"minimalist art with contemporary style",
	"simple geometric design with harmonious colors",
}

var variationModifiers = []string{
	"with blue color scheme",
	"with warm lighting",
	"with modern design elements",
	"with professional atmosphere",
	"with clean minimalist style",
	"with contemporary aesthetics",
	"with vibrant colors",
	"with soft natural lighting",
}

var slideVariations = []string{
	"with blue and white color scheme",
	"with warm orange and yellow tones",
	"with green and teal accents",
	"with purple and blue gradient",
	"with red and orange highlights",
	"with cool gray and blue palette",
	"with vibrant multicolor design",
	"with soft pastel colors",
	"with bold primary colors",
	"with elegant monochrome style",
}

var positivePromptKeywords = map[string]struct{}{}

var positivePromptWords = []string{
	"technology", "innovation", "development", "progress", "growth", "success",
	"achievement", "discovery", "research", "science", "education", "learning",
	"knowledge", "information", "news", "media", "journalism", "reporting",
	"story", "article", "update", "announcement", "event", "meeting",
	"conference", "launch", "release", "product", "service", "business",
	"economy", "market", "trade", "investment", "finance", "health",
	"wellness", "sports", "entertainment", "culture", "art", "music",
	"travel", "food", "nature", "environment", "city", "country",
	"world", "global", "local", "community", "people", "team",
	"organization", "company", "industry", "project", "program",
	"initiative", "improvement", "advancement", "breakthrough",
	"celebration", "award", "recognition", "support", "cooperation",
	"collaboration", "partnership", "agreement", "peace", "harmony",
}

var safeTerms = []string{
	"news", "story", "article", "report", "update", "information",
	"education", "learning", "knowledge", "science", "technology",
	"business", "economy", "sports", "culture", "art", "history",
	"health", "environment", "innovation", "development", "progress",
}

// negativePromptTerms は画像生成プロンプトから除去すべき語と句です。
// コンテンツポリシー違反を誘発しやすい暴力・破壊・否定的表現を広く網羅します。
var negativePromptTerms = []string{
	"violence", "attack", "death", "kill", "murder", "crime", "war", "conflict",
	"disaster", "tragedy", "accident", "injury", "harm", "danger", "threat",
	"fear", "panic", "chaos", "destruction", "damage", "loss", "failure",
	"protest", "riot", "strike", "dispute", "scandal", "corruption", "fraud",
	"theft", "robbery", "assault", "abuse", "discrimination", "hate", "anger",
	"rage", "fury", "outrage", "controversy", "blame", "guilt", "shame",
	"horrible", "terrible", "awful", "evil", "violent", "aggressive", "hostile",
	"dangerous", "harmful", "toxic", "deadly", "fatal", "lethal", "destructive",
	"depressing", "hopeless", "despair", "grief", "sorrow", "pain", "suffering",
	"torture", "oppression", "injustice", "racism", "hatred", "extremism",
	"terrorism", "defeating", "defeat", "striking", "battlefield", "battle",
	"fighting", "fight", "combat", "weapon", "weapons", "bow", "arrow", "arrows",
	"sword", "swords", "spear", "spears", "dagger", "knife", "blade", "blades",
	"shooting", "aiming", "firing", "attacking", "hitting", "punching",
	"kicking", "hurting", "wounding", "injuring", "killing", "killed",
	"murdering", "murdered", "destroying", "destroyed", "crushing", "crushed",
	"exploding", "exploded", "burning", "burned", "fire", "flames", "smoke",
	"blood", "bloody", "gore", "gory", "action pose", "action stance",
	"combat pose", "fighting stance", "epic battle", "war scene", "battle scene",
	"conflict scene", "being struck", "falling backward", "multiple faces",
	"fierce expressions", "dark tones",
}

var (
	negativePromptRe = regexp.MustCompile(`(?i)\b(` + strings.Join(negativePromptTerms, "|") + `)\b`)
	promptWordRe     = regexp.MustCompile(`\b[a-zA-Z]+\b`)
	promptSpaceRe    = regexp.MustCompile(`\s+`)
)

func init() {
	for _, word := range positivePromptWords {
		positivePromptKeywords[word] = struct{}{}
	}
}

// ネガティブ概念をポジティブな視覚表現に置き換える対応表です。
// 単なる削除ではなく置換にすることで、プロンプトの文脈を保ちます。
var positiveConversions = [][2]string{
	{"problem", "solution approach"},
	{"issue", "resolution process"},
	{"challenge", "overcoming obstacle"},
	{"difficulty", "learning journey"},
	{"obstacle", "pathway forward"},
	{"conflict", "dialogue and understanding"},
	{"dispute", "collaborative discussion"},
	{"disagreement", "diverse perspectives"},
	{"tension", "balanced approach"},
	{"crisis", "effective response"},
	{"emergency", "preparedness and action"},
	{"disaster", "recovery and resilience"},
	{"catastrophe", "rebuilding efforts"},
	{"failure", "learning opportunity"},
	{"mistake", "improvement process"},
	{"error", "correction and refinement"},
	{"defeat", "resilience and comeback"},
	{"loss", "transformation and renewal"},
	{"decline", "renewal and growth"},
	{"threat", "preparedness and protection"},
	{"danger", "safety measures"},
	{"risk", "careful planning"},
	{"hazard", "preventive action"},
	{"fear", "courage and action"},
	{"worry", "preparation and care"},
	{"anxiety", "mindfulness and calm"},
	{"stress", "balance and resilience"},
	{"criticism", "constructive feedback"},
	{"blame", "accountability and improvement"},
	{"attack", "constructive dialogue"},
}

// ExtractPositiveKeywords はテキストから安全なキーワードだけを最大5件抽出します。
func ExtractPositiveKeywords(text string) []string {
	if text == "" {
		return nil
	}
	seen := map[string]struct{}{}
	var keywords []string
	for _, word := range promptWordRe.FindAllString(strings.ToLower(text), -1) {
		if _, ok := positivePromptKeywords[word]; !ok {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
		if len(keywords) == 5 {
			break
		}
	}
	return keywords
}

// SanitizePrompt はプロンプトからネガティブな語句を除去し、安全な形に整えます。
// 除去しすぎた場合はスライドindexに応じた汎用安全プロンプトに切り替えます。
func SanitizePrompt(text string, slideIndex int) string {
	if text == "" {
		return "professional news illustration"
	}

	keywords := ExtractPositiveKeywords(text)

	sanitized := negativePromptRe.ReplaceAllString(text, "")
	sanitized = strings.TrimSpace(promptSpaceRe.ReplaceAllString(sanitized, " "))

	if len(keywords) > 0 {
		return strings.Join(keywords, ", ") + ", professional news illustration, positive, informative, clean, modern"
	}

	if sanitized == "" || len(sanitized) < len(text)*3/10 {
		return GenerateSafeNewsPrompt(slideIndex)
	}

	if len(sanitized) > 100 {
		sanitized = sanitized[:100]
	}
	return sanitized + ", professional news illustration, positive, informative, clean, modern"
}

// GenerateSafeNewsPrompt は完全に汎用な安全プロンプトを返します。
// 縮退の最終段で使われ、トピックは一切含みません。
func GenerateSafeNewsPrompt(slideIndex int) string {
	if slideIndex < 0 {
		slideIndex = 0
	}
	base := simpleSafePrompts[slideIndex%len(simpleSafePrompts)]
	variation := variationModifiers[slideIndex%len(variationModifiers)]
	return fmt.Sprintf("%s, %s, professional, clean, modern, positive, informative, high quality", base, variation)
}

// GenerateContentRelatedSafePrompt は元のトピックに関連しつつ安全なプロンプトを返します。
// simpler=true でさらに短く単純な版になります。
func GenerateContentRelatedSafePrompt(topic, originalPrompt string, simpler bool) string {
	var safeKeyword string
	topicLower := strings.ToLower(topic)
	for _, term := range safeTerms {
		if strings.Contains(topicLower, term) {
			safeKeyword = term
			break
		}
	}
	if safeKeyword == "" && originalPrompt != "" {
		words := promptWordRe.FindAllString(strings.ToLower(originalPrompt), 3)
		for _, word := range words {
			if len(word) < 4 {
				continue
			}
			for _, term := range safeTerms {
				if word == term {
					safeKeyword = term
					break
				}
			}
			if safeKeyword != "" {
				break
			}
		}
	}

	var base string
	switch {
	case simpler && safeKeyword != "":
		base = fmt.Sprintf("professional %s themed illustration, clean, modern, uplifting", safeKeyword)
	case simpler:
		base = "professional news themed illustration, clean, modern, uplifting"
	case safeKeyword != "":
		base = fmt.Sprintf("professional %s themed editorial illustration, informative, uplifting, clean design, modern aesthetic, warm colors", safeKeyword)
	default:
		base = "professional news themed editorial illustration, informative, uplifting, clean design, modern aesthetic"
	}

	return base + ", family-friendly, calm, optimistic mood, professional quality, clean composition"
}

// SanitizeRevisedPrompt はAPIエラー応答に含まれる修正プロンプトを再試行用に安全化します。
// 変換 → 除去 → 置換の順で処理し、それでも危険語が残る場合は固定の安全プロンプトを返します。
func SanitizeRevisedPrompt(revised string) string {
	const maxLength = 200

	sanitized := convertNegativeToPositive(revised)
	sanitized = negativePromptRe.ReplaceAllString(sanitized, "")
	sanitized = strings.TrimSpace(promptSpaceRe.ReplaceAllString(sanitized, " "))

	lower := strings.ToLower(sanitized)
	for _, word := range []string{"violence", "attack", "strike", "defeat", "battle", "combat", "weapon", "fighting", "war"} {
		if strings.Contains(lower, word) {
			return "peaceful illustration, heroic stance, bright colors, clean lines, family-friendly"
		}
	}

	if len(sanitized) > maxLength {
		truncated := sanitized[:maxLength]
		lastBreak := strings.LastIndexAny(truncated, ",.")
		if lastBreak > maxLength*7/10 {
			sanitized = truncated[:lastBreak+1]
		} else {
			sanitized = truncated
		}
	}
	return sanitized
}

func convertNegativeToPositive(text string) string {
	converted := strings.ToLower(text)
	for _, pair := range positiveConversions {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(pair[0]) + `\b`)
		converted = re.ReplaceAllString(converted, pair[1])
	}
	return converted
}

// buildNewsSlidePrompt はニュースモードのスライド用プロンプトを組み立てます。
func buildNewsSlidePrompt(text string, slideIndex int, isCover bool) string {
	safeText := SanitizePrompt(text, slideIndex)
	variation := slideVariations[slideIndex%len(slideVariations)]
	if isCover {
		return fmt.Sprintf("%s, professional news cover illustration, %s, positive, informative, clean, modern, unique design", safeText, variation)
	}
	return fmt.Sprintf("%s, professional news illustration for slide %d, %s, positive, informative, clean, modern, unique design", safeText, slideIndex+1, variation)
}

// buildCuriousSlidePrompt は教育ストーリー用のフラットベクター調プロンプトを組み立てます。
func buildCuriousSlidePrompt(text string, isCover bool) string {
	if text == "" {
		if isCover {
			text = "Learning"
		} else {
			text = "Visual concept"
		}
	}
	const style = "flat vector illustration, clean geometric shapes, smooth gradients, harmonious palette; inclusive, family-friendly; no text/logos/watermarks; no real-person likeness"
	if isCover {
		return fmt.Sprintf("Cover for educational story: %s. %s", text, style)
	}
	return fmt.Sprintf("%s. %s", text, style)
}
