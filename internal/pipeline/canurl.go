package pipeline

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"ap-story-web/internal/domain"
)

// canonicalSuffixTag はスラッグの末尾に付与する固定タグです。
const canonicalSuffixTag = "story"

// canonicalIDLength はスラッグの一意性を担保するnano-IDの長さです。
const canonicalIDLength = 10

var (
	slugInvalidRe  = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaceRe    = regexp.MustCompile(`[\s_]+`)
	slugCollapseRe = regexp.MustCompile(`-{2,}`)
)

// Slugify はタイトルをURL用スラッグに変換します。
// 小文字化し、ハイフン以外の記号を落とし、空白をハイフンに寄せます。
func Slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugInvalidRe.ReplaceAllString(slug, "")
	slug = slugSpaceRe.ReplaceAllString(slug, "-")
	slug = slugCollapseRe.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// BuildCanonicalURLs はストーリーの正規URLペアを構築します。
// 1つ目は拡張子なし、2つ目は静的ホスティング用の .html 付きです。
// News/Curious はタイトル由来のスラッグとnano-IDを使い、
// スラッグが作れない場合はUUIDベースのURLに黙ってフォールバックします。
func BuildCanonicalURLs(baseURL string, mode domain.Mode, title string, storyID uuid.UUID) (string, string) {
	if baseURL == "" {
		return "", ""
	}
	base := strings.TrimRight(baseURL, "/")

	if mode == domain.ModeNews || mode == domain.ModeCurious {
		if slug := Slugify(title); slug != "" {
			if id, err := gonanoid.New(canonicalIDLength); err == nil {
				canurl := base + "/" + slug + "-" + id + "-" + canonicalSuffixTag
				return canurl, canurl + ".html"
			}
		}
	}

	canurl := base + "/" + storyID.String()
	return canurl, canurl + ".html"
}
