package render

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shouni/go-remote-io/pkg/remoteio"

	"ap-story-web/internal/domain"
	"ap-story-web/internal/narrative"
)

const slideInsertionMarker = "<!--INSERT_SLIDES_HERE-->"

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TemplateLoader はHTMLテンプレートをファイル・URL・GCSから読み込みます。
type TemplateLoader struct {
	templateDir string
	httpClient  httpDoer
	reader      remoteio.InputReader // gs:// 用。nil 可
}

func NewTemplateLoader(templateDir string, httpClient httpDoer, reader remoteio.InputReader) *TemplateLoader {
	return &TemplateLoader{templateDir: templateDir, httpClient: httpClient, reader: reader}
}

// Load はテンプレートキーの形式に応じた読み込み元を選びます。
// ローカルではモード別ディレクトリ ({mode}_template) を先に探し、
// 無ければ news_template にフォールバックします。
func (l *TemplateLoader) Load(ctx context.Context, templateKey string, mode domain.Mode) (string, error) {
	switch {
	case strings.HasPrefix(templateKey, "http://"), strings.HasPrefix(templateKey, "https://"):
		return l.loadFromURL(ctx, templateKey)
	case strings.HasPrefix(templateKey, "gs://"):
		return l.loadFromRemote(ctx, templateKey)
	default:
		return l.loadFromFile(templateKey, mode)
	}
}

func (l *TemplateLoader) loadFromFile(templateKey string, mode domain.Mode) (string, error) {
	name := baseTemplateName(templateKey)

	modeDir := filepath.Join(l.templateDir, string(mode)+"_template")
	if _, err := os.Stat(modeDir); err != nil {
		modeDir = filepath.Join(l.templateDir, "news_template")
		if _, err := os.Stat(modeDir); err != nil {
			modeDir = l.templateDir
		}
	}

	templatePath := filepath.Join(modeDir, name+".html")
	data, err := os.ReadFile(templatePath)
	if err != nil {
		return "", fmt.Errorf("template %s not found: %w", templatePath, err)
	}
	return string(data), nil
}

func (l *TemplateLoader) loadFromURL(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch template from %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("template fetch returned status %d for %s", resp.StatusCode, rawURL)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (l *TemplateLoader) loadFromRemote(ctx context.Context, objectURL string) (string, error) {
	if l.reader == nil {
		return "", fmt.Errorf("remote template %s requested but no reader configured", objectURL)
	}
	rc, err := l.reader.Open(ctx, objectURL)
	if err != nil {
		return "", fmt.Errorf("failed to open remote template %s: %w", objectURL, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Renderer はStoryRecordからAMPストーリーHTMLを組み立てます。
//
// テンプレートはカバーとCTAを持ち、中間スライドは挿入マーカー位置に
// 動的に生成して差し込みます。ベストエフォートの段なので、失敗しても
// ストーリー生成自体は成功扱いのままです。
type Renderer struct {
	loader *TemplateLoader
	mapper *PlaceholderMapper
}

func NewRenderer(loader *TemplateLoader, mapper *PlaceholderMapper) *Renderer {
	return &Renderer{loader: loader, mapper: mapper}
}

func (r *Renderer) Render(ctx context.Context, record *domain.StoryRecord, templateKey string, imageSource domain.ImageSource) (string, error) {
	templateHTML, err := r.loader.Load(ctx, templateKey, record.Mode)
	if err != nil {
		return "", err
	}

	placeholders := r.mapper.Map(ctx, record, imageSource)
	filled := replacePlaceholders(templateHTML, placeholders)

	slidesHTML := r.generateMiddleSlides(record, templateKey, placeholders)
	filled = strings.Replace(filled, slideInsertionMarker, slidesHTML, 1)

	filled = cleanupURLs(filled)

	// カバーとCTAの画像だけは未置換のまま残さないことを保証します
	if strings.Contains(filled, "{{potraitcoverurl}}") {
		slog.WarnContext(ctx, "cover image placeholder survived replacement, forcing default")
		filled = strings.ReplaceAll(filled, "{{potraitcoverurl}}", DefaultCoverImage)
		filled = strings.ReplaceAll(filled, "{{portraitcoverurl}}", DefaultCoverImage)
	}

	return filled, nil
}

// generateMiddleSlides はカバーとCTAを除いた中間スライドのHTMLを生成します。
// slides[0] はテンプレートのカバーが使うためスキップします。
func (r *Renderer) generateMiddleSlides(record *domain.StoryRecord, templateKey string, placeholders map[string]string) string {
	middleCount := record.SlideCount - 2
	if middleCount < 0 {
		middleCount = 0
	}
	if len(record.SlideDeck.Slides) <= 1 || middleCount == 0 {
		return ""
	}

	middles := record.SlideDeck.Slides[1:]
	if len(middles) > middleCount {
		middles = middles[:middleCount]
	}

	generator := GeneratorFor(templateKey)
	var sections []string
	for i, slide := range middles {
		slideNumber := i + 2 // カバーが1なので中間は2から

		imageURL := placeholders[fmt.Sprintf("s%dimage1", slideNumber)]
		if imageURL == "" {
			imageURL = DefaultBackgroundImage
		}
		audio := audioURL(record.VoiceAssets, slideNumber-1)

		sections = append(sections, generator.GenerateSlide(SlideParams{
			SlideID:            fmt.Sprintf("slide-%d", i+1),
			Paragraph:          narrative.CleanMarkdown(slide.Text),
			AudioURL:           audio,
			BackgroundImageURL: imageURL,
		}))
	}
	return strings.Join(sections, "\n")
}

func replacePlaceholders(template string, data map[string]string) string {
	for key, value := range data {
		cleaned := narrative.CleanMarkdown(value)
		template = strings.ReplaceAll(template, "{{"+key+"}}", cleaned)
		template = strings.ReplaceAll(template, "{{"+key+"|safe}}", cleaned)
	}
	return template
}

var (
	bracedURLRe     = regexp.MustCompile(`\{(\s*https?://[^\s"'<>}]+)\}`)
	trailingBraceRe = regexp.MustCompile(`(\s*https?://[^\s"'<>}]+)\}`)
	leadingBraceRe  = regexp.MustCompile(`\{(\s*https?://[^\s"'<>}]+)`)
	attrBraceRe     = regexp.MustCompile(`(href|src|content|url|poster-portrait-src|publisher-logo-src)="\{([^"]+)\}"`)
	jsonBraceRe     = regexp.MustCompile(`"\{([^"]+)\}"`)
)

// cleanupURLs はテンプレート置換後に残った波括弧をURL周辺から除去します。
func cleanupURLs(html string) string {
	html = bracedURLRe.ReplaceAllString(html, "$1")
	html = trailingBraceRe.ReplaceAllString(html, "$1")
	html = leadingBraceRe.ReplaceAllString(html, "$1")
	html = attrBraceRe.ReplaceAllString(html, `$1="$2"`)
	html = jsonBraceRe.ReplaceAllString(html, `"$1"`)
	return html
}

// HTMLUploader はレンダリング済みHTMLをGCSへ保存し、CDN URLを返します。
type HTMLUploader struct {
	writer  remoteio.OutputWriter
	bucket  string
	baseDir string
	cdnBase string
}

func NewHTMLUploader(writer remoteio.OutputWriter, bucket, baseDir, cdnBase string) *HTMLUploader {
	return &HTMLUploader{
		writer:  writer,
		bucket:  bucket,
		baseDir: strings.Trim(baseDir, "/"),
		cdnBase: strings.TrimRight(cdnBase, "/"),
	}
}

func (u *HTMLUploader) Upload(ctx context.Context, htmlContent string, storyID uuid.UUID) (string, error) {
	key := strings.TrimLeft(fmt.Sprintf("%s/html/%s.html", u.baseDir, storyID), "/")
	objectURL := fmt.Sprintf("gs://%s/%s", u.bucket, key)
	if err := u.writer.Write(ctx, objectURL, strings.NewReader(htmlContent), "text/html; charset=utf-8"); err != nil {
		return "", fmt.Errorf("failed to upload story html: %w", err)
	}
	return u.cdnBase + "/" + key, nil
}
