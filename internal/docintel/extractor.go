package docintel

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"ap-story-web/internal/domain"
)

const (
	extractionTimeout = 30 * time.Second
	summaryMaxLength  = 300
	maxArticleImages  = 10
)

// ArticleExtraction はURL1件からの抽出結果です。
type ArticleExtraction struct {
	Title       string
	Text        string
	Summary     string
	TopImageURL string
	Images      []string
}

// URLContentExtractor はURLから記事本文と画像を抽出します。
// 抽出後に ContentValidator でトピック整合性を検証し、棄却された抽出は失敗と同じ扱いにします。
type URLContentExtractor struct {
	validator *ContentValidator
}

// NewURLContentExtractor は URLContentExtractor を生成します。
func NewURLContentExtractor(validator *ContentValidator) *URLContentExtractor {
	return &URLContentExtractor{validator: validator}
}

// Extract は記事を取得・解析し、検証済みの抽出結果を返します。
// 取得失敗・解析失敗・検証棄却はすべてエラーとして返し、呼び出し側でスキップさせます。
func (e *URLContentExtractor) Extract(ctx context.Context, rawURL string) (*ArticleExtraction, error) {
	article, err := readability.FromURL(rawURL, extractionTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to extract article from %s: %w", rawURL, err)
	}

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = "Untitled Article"
	}
	text := strings.TrimSpace(article.TextContent)

	if result := e.validator.Validate(rawURL, title, text); !result.Accepted {
		slog.WarnContext(ctx, "rejecting extracted content",
			"url", rawURL,
			"reason", result.Reason,
			"unique_matches", result.UniqueMatches,
			"match_ratio", result.MatchRatio,
		)
		return nil, fmt.Errorf("extracted content rejected for %s: %s", rawURL, result.Reason)
	}

	images := collectImages(article.Content, article.Image)

	extraction := &ArticleExtraction{
		Title:       title,
		Text:        text,
		Summary:     buildSummary(text),
		TopImageURL: article.Image,
		Images:      images,
	}

	slog.InfoContext(ctx, "extracted article",
		"url", rawURL,
		"title", truncateRunes(title, 50),
		"text_length", len(text),
		"images", len(images),
	)
	return extraction, nil
}

// ToSemanticChunks は抽出結果をセマンティックチャンクへ変換します。
func (e *URLContentExtractor) ToSemanticChunks(result *ArticleExtraction, rawURL string) []domain.SemanticChunk {
	if result.Text == "" {
		return nil
	}
	return []domain.SemanticChunk{
		{
			ID:       "url:" + rawURL,
			Text:     result.Text,
			SourceID: rawURL,
			Metadata: map[string]string{
				"title":   result.Title,
				"summary": result.Summary,
				"source":  "url_extraction",
			},
		},
	}
}

var sentenceEndRe = regexp.MustCompile(`([.!?।])\s+`)

// buildSummary は本文の先頭文から最大300文字の要約を組み立てます。
// 文境界で切れない場合は先頭300文字をそのまま使います。
func buildSummary(text string) string {
	sentences := splitSentences(text)
	var parts []string
	total := 0
	for i, sentence := range sentences {
		if i >= 3 {
			break
		}
		next := total + len([]rune(sentence))
		if len(parts) > 0 {
			next++
		}
		if next > summaryMaxLength {
			break
		}
		parts = append(parts, sentence)
		total = next
	}
	if len(parts) == 0 {
		return strings.TrimSpace(truncateRunes(text, summaryMaxLength))
	}
	return strings.Join(parts, " ")
}

func splitSentences(text string) []string {
	marked := sentenceEndRe.ReplaceAllString(text, "$1\x00")
	var sentences []string
	for _, piece := range strings.Split(marked, "\x00") {
		piece = strings.TrimSpace(piece)
		if piece != "" {
			sentences = append(sentences, piece)
		}
	}
	return sentences
}

var imgSrcRe = regexp.MustCompile(`<img[^>]+src=["']([^"']+)["']`)

// collectImages は記事HTMLから画像URLを集めます。トップ画像を先頭に置き、最大10件です。
func collectImages(contentHTML, topImage string) []string {
	seen := map[string]struct{}{}
	var images []string

	appendImage := func(src string) {
		src = strings.TrimSpace(src)
		if src == "" || !strings.HasPrefix(src, "http") {
			return
		}
		if _, dup := seen[src]; dup {
			return
		}
		seen[src] = struct{}{}
		images = append(images, src)
	}

	appendImage(topImage)
	for _, match := range imgSrcRe.FindAllStringSubmatch(contentHTML, -1) {
		if len(images) >= maxArticleImages {
			break
		}
		appendImage(match[1])
	}
	return images
}
