package builder

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"ap-story-web/internal/adapters"
	"ap-story-web/internal/analysis"
	"ap-story-web/internal/app"
	"ap-story-web/internal/config"
	"ap-story-web/internal/docintel"
	"ap-story-web/internal/domain"
	"ap-story-web/internal/images"
	"ap-story-web/internal/ingestion"
	"ap-story-web/internal/intake"
	"ap-story-web/internal/narrative"
	"ap-story-web/internal/persistence"
	"ap-story-web/internal/pipeline"
	"ap-story-web/internal/prompts"
	"ap-story-web/internal/render"
	"ap-story-web/internal/voice"
)

// BuildStoryPipeline は、全ステージを組み立てて StoryPipeline を初期化します。
func BuildStoryPipeline(c *app.Container, repository persistence.StoryRepository) *pipeline.StoryPipeline {
	cfg := c.Config

	// 画像・音声・記事取得のREST呼び出しに共有するHTTPクライアント
	httpClient := &http.Client{Timeout: config.DefaultHTTPTimeout}

	llm := adapters.NewGeminiAdapter(c.GenAI, cfg.GeminiModel)

	stages := pipeline.Stages{
		Intake:     intake.NewBuilder(config.MinSlideCount, config.MaxSlideCount, cfg.DefaultSlideCount),
		Language:   intake.NewLanguageDetector(),
		Ingestion:  ingestion.NewAggregator(),
		DocIntel:   buildDocIntel(c, httpClient),
		Analysis:   analysis.NewFacade(),
		Prompts:    prompts.NewSelector(),
		Narratives: buildNarrativeRouter(llm),
		Images:     buildImagePipeline(c, llm, httpClient),
		Voices:     buildVoicePipeline(c, httpClient),
		Repository: repository,
		Renderer:   buildRenderer(c, llm, httpClient),
		Uploader:   render.NewHTMLUploader(c.RemoteIO.Writer, cfg.GCSBucket, cfg.BaseOutputDir, cdnBase(cfg)),
	}

	return pipeline.NewStoryPipeline(cfg, stages, c.SlackNotifier)
}

// buildDocIntel はURL抽出・OCR・解析パイプラインを構築します。
// Azure Document Intelligence は認証情報がある場合のみアダプターに加えます。
func buildDocIntel(c *app.Container, httpClient *http.Client) *docintel.Pipeline {
	cfg := c.Config
	extractor := docintel.NewURLContentExtractor(docintel.NewContentValidator())

	var ocrAdapters []docintel.OCRAdapter
	if cfg.AzureDocIntelEndpoint != "" && cfg.AzureDocIntelKey != "" {
		loader := attachmentLoader(c, httpClient)
		ocrAdapters = append(ocrAdapters,
			docintel.NewAzureDocumentIntelligenceAdapter(cfg.AzureDocIntelEndpoint, cfg.AzureDocIntelKey, loader, httpClient))
	}

	return docintel.NewPipeline(ocrAdapters, nil, extractor)
}

// attachmentLoader は添付URIの形式に応じた読み込み手段を返します。
func attachmentLoader(c *app.Container, httpClient *http.Client) docintel.AttachmentLoader {
	return func(ctx context.Context, attachment domain.AttachmentDescriptor) ([]byte, error) {
		uri := attachment.URI
		switch {
		case strings.HasPrefix(uri, "gs://"), strings.HasPrefix(uri, "s3://"):
			rc, err := c.RemoteIO.Reader.Open(ctx, uri)
			if err != nil {
				return nil, fmt.Errorf("failed to open attachment %s: %w", uri, err)
			}
			defer rc.Close()
			return io.ReadAll(rc)
		case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
			if err != nil {
				return nil, err
			}
			resp, err := httpClient.Do(req)
			if err != nil {
				return nil, fmt.Errorf("failed to download attachment %s: %w", uri, err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return nil, fmt.Errorf("attachment download returned status %d for %s", resp.StatusCode, uri)
			}
			return io.ReadAll(resp.Body)
		default:
			return os.ReadFile(uri)
		}
	}
}

func buildNarrativeRouter(llm narrative.LanguageModel) *narrative.Router {
	return narrative.NewRouter(
		narrative.NewNewsGenerator(llm, config.DefaultTemplateKey),
		narrative.NewCuriousGenerator(llm, config.DefaultTemplateKey),
	)
}

// buildImagePipeline は画像プロバイダ群を優先順に並べて構築します。
// 先頭から評価され、最初に対応を表明したプロバイダが採用されます。
func buildImagePipeline(c *app.Container, llm narrative.LanguageModel, httpClient *http.Client) *images.Pipeline {
	cfg := c.Config
	cooldown := images.NewCooldown(cfg.ImageCooldown)
	storage := images.NewRemoteStorage(c.RemoteIO.Writer, cfg.GCSBucket, cfg.BaseOutputDir, cdnBase(cfg))

	return images.NewPipeline(storage,
		images.NewAIProvider(c.GenAI, cfg.ImageModel, cooldown, llm),
		images.NewPexelsProvider(cfg.PexelsAPIKey, httpClient),
		images.NewUploadProvider(httpClient, nil),
		&images.NewsDefaultProvider{},
		images.NewArticleImageProvider(httpClient),
	)
}

func buildVoicePipeline(c *app.Container, httpClient *http.Client) *voice.Pipeline {
	cfg := c.Config
	storage := voice.NewRemoteStorage(c.RemoteIO.Writer, cfg.GCSBucket, cfg.BaseOutputDir, cdnBase(cfg))

	return voice.NewPipeline(storage,
		voice.NewElevenLabsProvider(cfg.ElevenLabsAPIKey, cfg.ElevenLabsVoiceID, httpClient),
		voice.NewAzureTTSProvider(cfg.AzureSpeechKey, cfg.AzureSpeechRegion, httpClient),
	)
}

func buildRenderer(c *app.Container, llm narrative.LanguageModel, httpClient *http.Client) *render.Renderer {
	cfg := c.Config
	loader := render.NewTemplateLoader(cfg.TemplateDir, httpClient, c.RemoteIO.Reader)
	mapper := render.NewPlaceholderMapper(cdnBase(cfg), cfg.GCSBucket, llm)
	return render.NewRenderer(loader, mapper)
}

// BuildRepository はDSNの有無でPostgreSQLとno-opを切り替えます。
// APIハンドラーとパイプラインで同一のインスタンスを共有します。
func BuildRepository(ctx context.Context, c *app.Container) (persistence.StoryRepository, error) {
	if c.DB == nil {
		return persistence.NewNoopRepository(), nil
	}

	repo := persistence.NewPostgresStoryRepository(c.DB)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure story schema: %w", err)
	}
	return repo, nil
}

// cdnBase は配信URLのベースを返します。CDNが未設定の場合はGCSの公開URLを使います。
func cdnBase(cfg *config.Config) string {
	if cfg.CDNBaseURL != "" {
		return strings.TrimRight(cfg.CDNBaseURL, "/")
	}
	return "https://storage.googleapis.com/" + cfg.GCSBucket
}
