package images

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"ap-story-web/internal/domain"
)

// NewsDefaultProvider はニュースモードで画像ソース未指定のときにマッチします。
// 画像は返しません。レンダラーがテンプレートの既定背景を使います。
// 記事画像プロバイダより先に置くことで、ニュースの既定挙動を優先させます。
type NewsDefaultProvider struct{}

func (NewsDefaultProvider) Source() string { return "news_default" }

func (NewsDefaultProvider) Supports(payload domain.IntakePayload, _ []string) bool {
	return payload.Mode == domain.ModeNews && payload.ImageSource == ""
}

func (NewsDefaultProvider) Generate(_ context.Context, _ domain.SlideDeck, _ domain.IntakePayload, _ []string) ([]ImageContent, error) {
	return nil, nil
}

// ArticleImageProvider は抽出元記事に含まれていた画像をスライドに再利用します。
// 記事画像が存在する限りマッチするため、プロバイダリストの末尾近くに置きます。
type ArticleImageProvider struct {
	httpClient httpDoer
}

func NewArticleImageProvider(httpClient httpDoer) *ArticleImageProvider {
	return &ArticleImageProvider{httpClient: httpClient}
}

func (a *ArticleImageProvider) Source() string { return "article" }

func (a *ArticleImageProvider) Supports(_ domain.IntakePayload, articleImages []string) bool {
	return len(articleImages) > 0
}

func (a *ArticleImageProvider) Generate(ctx context.Context, deck domain.SlideDeck, _ domain.IntakePayload, articleImages []string) ([]ImageContent, error) {
	if len(articleImages) == 0 {
		return nil, nil
	}

	var contents []ImageContent
	for i, slide := range deck.Slides {
		if slide.ImageURL != "" {
			continue
		}
		imageURL := articleImages[i%len(articleImages)]
		data, err := a.download(ctx, imageURL)
		if err != nil {
			slog.WarnContext(ctx, "article image download failed, skipping slide",
				"placeholder", slide.PlaceholderID, "url", imageURL, "error", err)
			continue
		}
		contents = append(contents, ImageContent{
			PlaceholderID: slide.PlaceholderID,
			Content:       data,
			Filename:      articleImageFilename(slide.PlaceholderID, imageURL),
			Description:   "Image from source article",
		})
	}
	return contents, nil
}

func (a *ArticleImageProvider) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("article image download returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func articleImageFilename(placeholderID, rawURL string) string {
	ext := strings.ToLower(path.Ext(rawURL))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp", ".gif":
		return placeholderID + ext
	default:
		return placeholderID + ".jpg"
	}
}
