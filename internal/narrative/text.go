package narrative

import (
	"regexp"
	"strings"
)

var (
	boldRe       = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe     = regexp.MustCompile(`\*([^*]+)\*`)
	headerRe     = regexp.MustCompile(`#+\s*`)
	inlineCodeRe = regexp.MustCompile("`([^`]+)`")
	linkRe       = regexp.MustCompile(`\[([^\]]+)\]\([^\)]+\)`)
	separatorRe  = regexp.MustCompile(`(?m)^---+$`)
	spaceRunRe   = regexp.MustCompile(`\s+`)
)

// CleanMarkdown はLLM出力からマークダウン装飾を除去し、プレーンテキストに整えます。
// 画像プロンプト (alt) には適用しないこと。alt はそのまま画像生成に渡します。
func CleanMarkdown(text string) string {
	if text == "" {
		return ""
	}
	text = boldRe.ReplaceAllString(text, "$1")
	text = italicRe.ReplaceAllString(text, "$1")
	text = headerRe.ReplaceAllString(text, "")
	text = inlineCodeRe.ReplaceAllString(text, "$1")
	text = linkRe.ReplaceAllString(text, "$1")
	text = separatorRe.ReplaceAllString(text, "")
	text = spaceRunRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// ShortenWordBoundary はテキストを単語境界で limit 文字以内に収め、
// 切り詰めた場合は末尾に "…" を付けます。文字途中のハードカットは行いません。
func ShortenWordBoundary(text string, limit int) string {
	text = strings.TrimSpace(spaceRunRe.ReplaceAllString(text, " "))
	if len([]rune(text)) <= limit {
		return text
	}

	const ellipsis = "…"
	budget := limit - len([]rune(ellipsis))
	if budget <= 0 {
		return ellipsis
	}

	words := strings.Fields(text)
	var builder strings.Builder
	length := 0
	for _, word := range words {
		wordLen := len([]rune(word))
		next := length + wordLen
		if length > 0 {
			next++
		}
		if next > budget {
			break
		}
		if length > 0 {
			builder.WriteByte(' ')
		}
		builder.WriteString(word)
		length = next
	}

	if builder.Len() == 0 {
		return ellipsis
	}
	return builder.String() + ellipsis
}

// TruncateRunes はルーン単位の先頭切り出しです。
func TruncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return text
}
