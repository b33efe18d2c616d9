package docintel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ap-story-web/internal/domain"
)

// maxForwardedImages DocInsights に引き渡す記事画像の上限 (トップ画像 + 5件)
const maxForwardedImages = 5

// Pipeline はOCRアダプタ・パーサアダプタ・URL抽出器を束ね、DocInsights を構築します。
type Pipeline struct {
	ocrAdapters    []OCRAdapter
	parserAdapters []ParserAdapter
	urlExtractor   *URLContentExtractor
}

// NewPipeline は Pipeline を生成します。urlExtractor は nil 可です。
func NewPipeline(ocrAdapters []OCRAdapter, parserAdapters []ParserAdapter, urlExtractor *URLContentExtractor) *Pipeline {
	return &Pipeline{
		ocrAdapters:    ocrAdapters,
		parserAdapters: parserAdapters,
		urlExtractor:   urlExtractor,
	}
}

// Run は構造化リクエストを処理し、DocInsights を返します。
//
// URLは1件ずつ処理し、抽出失敗・検証棄却はログに残してスキップします。
// ただしURLリストが空でないのにURL由来のチャンクがゼロ件に終わった場合は、
// ソースのない記事を生成するよりリクエスト全体を失敗させる方が安全なので
// ContentIntegrityError を返します。
func (p *Pipeline) Run(ctx context.Context, jobRequest domain.StructuredJobRequest) (*domain.DocInsights, error) {
	insights := domain.NewDocInsights()

	urlChunks := 0
	if len(jobRequest.URLList) > 0 && p.urlExtractor != nil {
		for _, rawURL := range jobRequest.URLList {
			result, err := p.urlExtractor.Extract(ctx, rawURL)
			if err != nil {
				slog.WarnContext(ctx, "failed to process url", "url", rawURL, "error", err)
				continue
			}

			chunks := p.urlExtractor.ToSemanticChunks(result, rawURL)
			insights.SemanticChunks = append(insights.SemanticChunks, chunks...)
			urlChunks += len(chunks)

			insights.ArticleImages = appendArticleImages(insights.ArticleImages, result)
			if result.Summary != "" {
				insights.Summaries = append(insights.Summaries, result.Summary)
			}
		}

		if urlChunks == 0 {
			return nil, domain.NewContentIntegrity(
				fmt.Sprintf("no usable content could be extracted from %d url(s)", len(jobRequest.URLList)))
		}
	}

	if strings.TrimSpace(jobRequest.TextInput) != "" {
		insights.SemanticChunks = append(insights.SemanticChunks, domain.SemanticChunk{
			ID:       "payload:text",
			Text:     jobRequest.TextInput,
			SourceID: "payload",
			Metadata: map[string]string{"source": "text_input"},
		})
	}

	for _, attachment := range jobRequest.Attachments {
		extraction, err := p.runOCR(ctx, attachment)
		if err != nil {
			slog.WarnContext(ctx, "ocr failed for attachment", "attachment_id", attachment.ID, "error", err)
			continue
		}
		if extraction == nil || strings.TrimSpace(extraction.Text) == "" {
			continue
		}

		result, err := p.parse(extraction)
		if err != nil {
			slog.WarnContext(ctx, "parser failed for attachment", "attachment_id", attachment.ID, "error", err)
			result = defaultParse(extraction)
		}

		insights.SemanticChunks = append(insights.SemanticChunks, result.Chunks...)
		insights.Entities.Merge(result.Entities)
		if result.Summary != "" {
			insights.Summaries = append(insights.Summaries, result.Summary)
		}
	}

	return insights, nil
}

// runOCR は CanProcess が最初に一致したアダプタで抽出します。一致なしはスキップ扱いです。
func (p *Pipeline) runOCR(ctx context.Context, attachment domain.AttachmentDescriptor) (*OCRExtraction, error) {
	for _, adapter := range p.ocrAdapters {
		if adapter.CanProcess(attachment) {
			return adapter.Extract(ctx, attachment)
		}
	}
	return nil, nil
}

func (p *Pipeline) parse(extraction *OCRExtraction) (*ParserResult, error) {
	for _, parser := range p.parserAdapters {
		if parser.Supports(extraction) {
			return parser.Parse(extraction)
		}
	}
	return defaultParse(extraction), nil
}

// defaultParse は添付1件を単一チャンクとして取り込むフォールバックです。
func defaultParse(extraction *OCRExtraction) *ParserResult {
	metadata := extraction.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	return &ParserResult{
		Chunks: []domain.SemanticChunk{
			{
				ID:       extraction.Attachment.ID + ":chunk-1",
				Text:     extraction.Text,
				SourceID: extraction.Attachment.ID,
				Metadata: metadata,
			},
		},
	}
}

func appendArticleImages(existing []string, result *ArticleExtraction) []string {
	seen := map[string]struct{}{}
	for _, img := range existing {
		seen[img] = struct{}{}
	}
	appendUnique := func(img string) {
		if img == "" {
			return
		}
		if _, dup := seen[img]; dup {
			return
		}
		seen[img] = struct{}{}
		existing = append(existing, img)
	}

	appendUnique(result.TopImageURL)
	count := 0
	for _, img := range result.Images {
		if count >= maxForwardedImages {
			break
		}
		appendUnique(img)
		count++
	}
	return existing
}
