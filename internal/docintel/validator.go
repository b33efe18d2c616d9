package docintel

import (
	"net/url"
	"sort"
	"strings"
	"unicode"
)

// minContentLength これより短い抽出本文は常に抽出失敗として扱います。
const minContentLength = 50

// contentWindow キーワード照合に使う本文の先頭文字数
const contentWindow = 2000

// maxURLKeywords URLキーワード集合の上限
const maxURLKeywords = 10

// minMatchRatio 一致率がこれを下回る抽出は棄却します。
const minMatchRatio = 0.10

// pathStopWords はURLパスに頻出する、トピックを示さない一般語です。
var pathStopWords = map[string]struct{}{
	"article": {}, "articles": {}, "news": {}, "story": {}, "stories": {},
	"index": {}, "html": {}, "sports": {}, "sport": {}, "technology": {},
	"tech": {}, "business": {}, "entertainment": {}, "politics": {},
	"world": {}, "national": {}, "latest": {}, "breaking": {}, "update": {},
	"updates": {}, "video": {}, "videos": {}, "photos": {}, "live": {},
	"page": {}, "category": {}, "archive": {}, "edition": {}, "online": {},
	"content": {}, "detail": {}, "view": {},
}

// ContentValidator は抽出本文がURLパスの示すトピックと一致しているか検証します。
//
// 抽出ライブラリはキャッシュや競合により別記事の本文を返すことがあります。
// URLパスのキーワードと本文の重なりを測ることで、明らかに無関係な抽出結果を
// 下流の生成に流す前に棄却します。トピック固有の知識には依存しません。
type ContentValidator struct{}

// NewContentValidator は ContentValidator を生成します。
func NewContentValidator() *ContentValidator {
	return &ContentValidator{}
}

// ValidationResult は1件のURL検証の判定内容です。
type ValidationResult struct {
	Accepted      bool
	Reason        string
	URLKeywords   []string
	UniqueMatches int
	MatchRatio    float64
}

// Validate はタイトルと本文がURLのトピックと整合するか判定します。
//
// URLキーワードが3個未満の場合は判定材料が足りないため常に受理します。
// トリム後の本文が50文字未満の場合はキーワードの重なりに関わらず棄却します。
func (v *ContentValidator) Validate(rawURL, title, body string) ValidationResult {
	if len(strings.TrimSpace(body)) < minContentLength {
		return ValidationResult{Accepted: false, Reason: "extracted text shorter than minimum length"}
	}

	keywords := extractURLKeywords(rawURL)
	if len(keywords) < 3 {
		return ValidationResult{Accepted: true, Reason: "too few url keywords for strict validation", URLKeywords: keywords}
	}

	content := strings.ToLower(title + " " + truncateRunes(body, contentWindow))

	unique := 0
	for _, keyword := range keywords {
		if strings.Contains(content, keyword) {
			unique++
		}
	}

	ratio := float64(unique) / float64(len(keywords))
	required := len(keywords) / 3
	if required > 3 {
		required = 3
	}
	if required < 2 {
		required = 2
	}

	result := ValidationResult{
		URLKeywords:   keywords,
		UniqueMatches: unique,
		MatchRatio:    ratio,
	}
	if ratio < minMatchRatio || unique < required {
		result.Reason = "content does not match url topic keywords"
		return result
	}

	result.Accepted = true
	return result
}

// extractURLKeywords はURLパスからトピックを示すキーワード集合を作ります。
// パスセグメントを "-" で分解し、短いトークン・数値・一般語・ドメイン語を捨て、
// 残りから最長の10語 (重複なし) を返します。
func extractURLKeywords(rawURL string) []string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}

	hostWords := map[string]struct{}{}
	for _, label := range strings.Split(parsed.Hostname(), ".") {
		hostWords[strings.ToLower(label)] = struct{}{}
	}

	seen := map[string]struct{}{}
	var keywords []string
	for _, segment := range strings.Split(parsed.Path, "/") {
		for _, token := range strings.Split(segment, "-") {
			token = strings.ToLower(strings.TrimSpace(token))
			if len(token) <= 3 || isNumeric(token) {
				continue
			}
			if _, stop := pathStopWords[token]; stop {
				continue
			}
			if _, host := hostWords[token]; host {
				continue
			}
			if _, dup := seen[token]; dup {
				continue
			}
			seen[token] = struct{}{}
			keywords = append(keywords, token)
		}
	}

	// 長いトークンほどトピックを特定する力が強い
	sort.SliceStable(keywords, func(i, j int) bool {
		return len(keywords[i]) > len(keywords[j])
	})
	if len(keywords) > maxURLKeywords {
		keywords = keywords[:maxURLKeywords]
	}
	return keywords
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return s
}
