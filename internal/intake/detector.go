package intake

import (
	"net/url"
	"regexp"
	"strings"
)

// InputKind は統合入力欄の解釈結果の種別です。
type InputKind string

const (
	KindURL   InputKind = "url"
	KindText  InputKind = "text"
	KindFile  InputKind = "file"
	KindMixed InputKind = "mixed"
)

// DetectedInput は統合入力欄から抽出した構成要素です。
type DetectedInput struct {
	Kind     InputKind
	URLs     []string
	Text     string
	FilePath string
}

var urlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`https?://\S+`),
	regexp.MustCompile(`www\.\S+`),
	regexp.MustCompile(`[a-zA-Z0-9-]+\.[a-zA-Z]{2,}\S*`),
}

var fileExtensions = []string{".pdf", ".jpg", ".jpeg", ".png", ".docx", ".txt", ".doc"}

// SmartInputDetector は ChatGPT 形式の統合入力欄を URL・テキスト・ファイル参照に分類します。
type SmartInputDetector struct{}

// NewSmartInputDetector は SmartInputDetector を生成します。
func NewSmartInputDetector() *SmartInputDetector {
	return &SmartInputDetector{}
}

// Detect は入力を分類し、構成要素を抽出します。
// URL とテキストが混在する場合は KindMixed を返し、残余テキストを Text に入れます。
func (d *SmartInputDetector) Detect(userInput string) DetectedInput {
	userInput = strings.TrimSpace(userInput)
	if userInput == "" {
		return DetectedInput{Kind: KindText}
	}

	// ファイル参照の判定を先に行います。"/tmp/report.pdf" のようなパスは
	// ドメイン形式の URL パターンにも一致してしまうためです。
	if isFileReference(userInput) {
		return DetectedInput{Kind: KindFile, FilePath: userInput}
	}

	if urls := extractURLs(userInput); len(urls) > 0 {
		remaining := removeURLs(userInput)
		if remaining != "" {
			return DetectedInput{Kind: KindMixed, URLs: urls, Text: remaining}
		}
		return DetectedInput{Kind: KindURL, URLs: urls}
	}

	return DetectedInput{Kind: KindText, Text: userInput}
}

// extractURLs はテキスト中の URL をすべて抽出し、プロトコルを補完した上で検証します。
// 重複は最初の出現を優先して除去します。
func extractURLs(text string) []string {
	var candidates []string
	for _, pattern := range urlPatterns {
		candidates = append(candidates, pattern.FindAllString(text, -1)...)
	}

	seen := make(map[string]struct{})
	var validated []string
	for _, candidate := range candidates {
		normalized, ok := normalizeURL(candidate)
		if !ok {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		validated = append(validated, normalized)
	}
	return validated
}

// normalizeURL はプロトコル省略形 ("www.example.com" や "example.com/article") を
// https:// に補完し、http(s) の URL として妥当か検証します。
func normalizeURL(raw string) (string, bool) {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		if strings.HasPrefix(raw, "file://") || !strings.Contains(raw, ".") {
			return "", false
		}
		raw = "https://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", false
	}
	return raw, true
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func removeURLs(text string) string {
	for _, pattern := range urlPatterns {
		text = pattern.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// isFileReference は入力が単一のファイルパス・ファイルURIかどうか判定します。
func isFileReference(text string) bool {
	lower := strings.ToLower(text)
	hasExt := false
	for _, ext := range fileExtensions {
		if strings.HasSuffix(lower, ext) {
			hasExt = true
			break
		}
	}
	if !hasExt {
		return false
	}

	if strings.HasPrefix(text, "file://") || strings.HasPrefix(text, "s3://") ||
		strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		return true
	}
	return strings.ContainsAny(text, `/\`)
}
