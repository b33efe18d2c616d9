package render

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ap-story-web/internal/domain"
	"ap-story-web/internal/images"
	"ap-story-web/internal/narrative"
)

const (
	organizationName   = "Suvichaar"
	brandLogoBase      = "https://media.suvichaar.org/filters:resize"
	publisherLogoURL   = "https://media.suvichaar.org/media/designasset/brandasset/icons/quaternary/whitequaternaryicon.png"
	metaDescMaxLength  = 160
	metaKeywordsMaxLen = 200
)

// PlaceholderMapper はStoryRecordをテンプレートのプレースホルダー辞書に変換します。
// LLMが設定されていればSEO用のメタ説明文とキーワードを生成し、失敗時は
// スライド本文からの単純抽出にフォールバックします。
type PlaceholderMapper struct {
	cdnBase string
	bucket  string
	model   narrative.LanguageModel // nil 可
}

func NewPlaceholderMapper(cdnBase, bucket string, model narrative.LanguageModel) *PlaceholderMapper {
	return &PlaceholderMapper{cdnBase: cdnBase, bucket: bucket, model: model}
}

// Map はレコードの内容をプレースホルダーに展開します。
func (m *PlaceholderMapper) Map(ctx context.Context, record *domain.StoryRecord, imageSource domain.ImageSource) map[string]string {
	placeholders := map[string]string{}

	storytitle := ""
	if len(record.SlideDeck.Slides) > 0 {
		storytitle = record.SlideDeck.Slides[0].Text
	}
	if storytitle == "" {
		placeholders["storytitle"] = "Web Story"
		placeholders["pagetitle"] = organizationName + " Story"
	} else {
		placeholders["storytitle"] = truncate(storytitle, 180)
		placeholders["pagetitle"] = storytitle + " | " + organizationName
	}

	for i, slide := range record.SlideDeck.Slides {
		placeholders[fmt.Sprintf("s%dparagraph1", i+1)] = slide.Text
	}

	m.mapImages(record, imageSource, placeholders)
	m.mapAudio(record, placeholders)

	placeholders["metadescription"] = m.metaDescription(ctx, record)
	placeholders["metakeywords"] = m.metaKeywords(ctx, record)

	category := record.Category
	if category == "" {
		category = "News"
	}
	placeholders["category"] = category
	placeholders["lang"] = normalizeLang(record.InputLanguage)
	if record.Mode == domain.ModeNews {
		placeholders["contenttype"] = "News"
	} else {
		placeholders["contenttype"] = "Article"
	}

	placeholders["canurl"] = record.CanURL
	placeholders["canurl1"] = record.CanURL1

	isoTime := record.CreatedAt.UTC().Format("2006-01-02T15:04:05.000000Z")
	placeholders["publishedtime"] = isoTime
	placeholders["modifiedtime"] = isoTime

	for _, size := range []string{"32x32", "192x192", "180x180", "144x144", "96x96"} {
		placeholders["sitelogo"+size] = fmt.Sprintf("%s/%s/media/brandasset/suvichaariconblack.png", brandLogoBase, size)
	}
	placeholders["organization"] = organizationName
	placeholders["publisher"] = organizationName
	placeholders["publisherlogosrc"] = publisherLogoURL
	placeholders["user"] = organizationName + " Team"
	placeholders["userprofileurl"] = "https://suvichaar.org"
	placeholders["prevstorytitle"] = ""
	placeholders["prevstorylink"] = ""
	placeholders["nextstorytitle"] = ""
	placeholders["nextstorylink"] = ""

	// カバーとCTAが壊れないよう、常に値が入っていることを保証します
	if placeholders["potraitcoverurl"] == "" {
		placeholders["potraitcoverurl"] = DefaultCoverImage
		placeholders["portraitcoverurl"] = DefaultCoverImage
	}

	return placeholders
}

// mapImages はカバー画像とスライド背景のプレースホルダーを設定します。
// ニュースモードで画像ソース未指定なら全スライドに既定画像を使います。
func (m *PlaceholderMapper) mapImages(record *domain.StoryRecord, imageSource domain.ImageSource, placeholders map[string]string) {
	newsDefault := record.Mode == domain.ModeNews && imageSource == ""

	if newsDefault || len(record.ImageAssets) == 0 {
		placeholders["image0"] = DefaultCoverImage
		placeholders["potraitcoverurl"] = DefaultCoverImage
		placeholders["portraitcoverurl"] = DefaultCoverImage
		placeholders["msthumbnailcoverurl"] = DefaultCoverImage
		for i := range record.SlideDeck.Slides {
			placeholders[fmt.Sprintf("s%dimage1", i+1)] = DefaultBackgroundImage
		}
		return
	}

	// assets[i] ↔ slides[i] の対応を崩さないよう、空アセットは位置ごとに既定画像へ落とします
	cover := record.ImageAssets[0]
	coverURL := DefaultCoverImage
	thumbURL := DefaultCoverImage
	if !cover.Empty() {
		coverURL = m.assetURL(cover, 720, 1280)
		thumbURL = m.assetURL(cover, 300, 300)
	}
	placeholders["image0"] = coverURL
	placeholders["potraitcoverurl"] = coverURL
	placeholders["portraitcoverurl"] = coverURL
	placeholders["msthumbnailcoverurl"] = thumbURL

	for i := range record.SlideDeck.Slides {
		key := fmt.Sprintf("s%dimage1", i+1)
		if i < len(record.ImageAssets) && !record.ImageAssets[i].Empty() {
			placeholders[key] = m.assetURL(record.ImageAssets[i], 720, 1280)
		} else {
			placeholders[key] = DefaultBackgroundImage
		}
	}
}

func (m *PlaceholderMapper) mapAudio(record *domain.StoryRecord, placeholders map[string]string) {
	placeholders["storytitle_audiourl"] = audioURL(record.VoiceAssets, 0)
	for i := range record.SlideDeck.Slides {
		url := audioURL(record.VoiceAssets, i)
		placeholders[fmt.Sprintf("s%daudio_url", i+1)] = url
		placeholders[fmt.Sprintf("s%daudio1", i+1)] = url
	}
}

// assetURL はアセットからポートレート解像度のCDN URLを導出します。
// オブジェクトキーがあれば符号化テンプレートで任意寸法を生成し、
// 無ければ保存済みの変種URL、それも無ければ既定画像を返します。
func (m *PlaceholderMapper) assetURL(asset domain.ImageAsset, width, height int) string {
	if asset.OriginalObjectKey != "" {
		return images.EncodeResizeURL(m.cdnBase, m.bucket, asset.OriginalObjectKey, width, height)
	}
	if len(asset.ResizedVariants) > 0 {
		return asset.ResizedVariants[0]
	}
	return DefaultCoverImage
}

func (m *PlaceholderMapper) metaDescription(ctx context.Context, record *domain.StoryRecord) string {
	if m.model != nil && len(record.SlideDeck.Slides) > 0 {
		prompt := fmt.Sprintf(`Generate a short SEO-friendly meta description (max 160 characters) for a web story.

Title: %s
Content:
%s

Language: %s

Requirements:
- Maximum 160 characters
- Engaging and informative
- Include key topics
- Write in %[3]s language
- No quotes or special formatting
- Just the description text, nothing else

Meta Description:`,
			placeholderTitle(record), slideDigest(record), baseLang(record.InputLanguage))

		generated, err := m.model.Complete(ctx,
			"You are an expert SEO assistant. Generate concise, engaging meta descriptions for web stories. "+
				"Always respond with just the meta description text, no quotes or labels.", prompt)
		if err != nil {
			slog.WarnContext(ctx, "meta description generation failed, using fallback", "error", err)
		} else if cleaned := cleanMetaResponse(generated, "Meta Description:", "Description:"); len(cleaned) > 20 {
			return truncateWithEllipsis(cleaned, metaDescMaxLength)
		}
	}

	if len(record.SlideDeck.Slides) > 0 && record.SlideDeck.Slides[0].Text != "" {
		return truncateWithEllipsis(record.SlideDeck.Slides[0].Text, metaDescMaxLength)
	}
	category := record.Category
	if category == "" {
		category = "story"
	}
	return fmt.Sprintf("Explore this %s on %s.", category, organizationName)
}

func (m *PlaceholderMapper) metaKeywords(ctx context.Context, record *domain.StoryRecord) string {
	if m.model != nil && len(record.SlideDeck.Slides) > 0 {
		prompt := fmt.Sprintf(`Generate 8-12 relevant SEO keywords (comma-separated) for a web story.

Title: %s
Category: %s
Content:
%s

Language: %s

Requirements:
- 8-12 keywords
- Comma-separated
- Relevant to the content
- Include category and topic keywords
- Write in %[4]s language
- Just the keywords, nothing else

Keywords:`,
			placeholderTitle(record), record.Category, slideDigest(record), baseLang(record.InputLanguage))

		generated, err := m.model.Complete(ctx,
			"You are an expert SEO assistant. Generate relevant keywords for web stories. "+
				"Always respond with just comma-separated keywords, no quotes or labels.", prompt)
		if err != nil {
			slog.WarnContext(ctx, "meta keywords generation failed, using fallback", "error", err)
		} else if cleaned := cleanMetaResponse(generated, "Meta Keywords:", "Keywords:"); len(cleaned) > 5 {
			if len(cleaned) > metaKeywordsMaxLen {
				if cut := strings.LastIndex(cleaned[:metaKeywordsMaxLen], ","); cut > 0 {
					cleaned = cleaned[:cut]
				} else {
					cleaned = cleaned[:metaKeywordsMaxLen]
				}
			}
			return cleaned
		}
	}

	keywords := []string{}
	if record.Category != "" {
		keywords = append(keywords, record.Category)
	} else {
		keywords = append(keywords, "story")
	}
	if record.InputLanguage != "" {
		keywords = append(keywords, record.InputLanguage)
	}
	keywords = append(keywords, "web story")
	if record.Mode == domain.ModeNews {
		keywords = append(keywords, "news")
	} else {
		keywords = append(keywords, "education", "curious")
	}
	return strings.Join(keywords, ", ")
}

func placeholderTitle(record *domain.StoryRecord) string {
	if len(record.SlideDeck.Slides) > 0 && record.SlideDeck.Slides[0].Text != "" {
		return record.SlideDeck.Slides[0].Text
	}
	return "Web Story"
}

// slideDigest は先頭5スライドの本文をLLMコンテキスト用に束ねます。
func slideDigest(record *domain.StoryRecord) string {
	var lines []string
	for i, slide := range record.SlideDeck.Slides {
		if i == 5 {
			break
		}
		if slide.Text == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("Slide %d: %s", i+1, truncate(slide.Text, 200)))
	}
	if len(lines) == 0 {
		return "No content available"
	}
	return strings.Join(lines, "\n")
}

func cleanMetaResponse(raw string, prefixes ...string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.Trim(cleaned, `"'`)
	for _, prefix := range prefixes {
		if strings.HasPrefix(cleaned, prefix) {
			cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, prefix))
		}
	}
	return strings.TrimSpace(strings.TrimPrefix(cleaned, ":"))
}

func normalizeLang(lang string) string {
	switch {
	case lang == "" || strings.HasPrefix(lang, "en"):
		return "en-US"
	case strings.HasPrefix(lang, "hi"):
		return "hi-IN"
	case strings.Contains(lang, "-"):
		return lang
	default:
		return lang + "-IN"
	}
}

func baseLang(lang string) string {
	if i := strings.Index(lang, "-"); i >= 0 {
		return lang[:i]
	}
	if lang == "" {
		return "en"
	}
	return lang
}

func audioURL(assets []domain.VoiceAsset, index int) string {
	if index < len(assets) {
		return assets[index].AudioURL
	}
	return ""
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return text
}

func truncateWithEllipsis(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-3]) + "..."
}
