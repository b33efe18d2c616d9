package config

import (
	"os"
	"path"
	"time"
)

const (
	// SignedURLExpiration 生成されたストーリーを確認する時間を考慮した有効期限
	SignedURLExpiration = 5 * time.Minute
	DefaultModel        = "gemini-3-flash-preview"
	DefaultImageModel   = "gemini-2.5-flash-image"
	// DefaultHTTPTimeout 画像生成や Gemini API の応答を考慮したタイムアウト
	DefaultHTTPTimeout = 60 * time.Second
	// DefaultImageCooldown 画像プロバイダ間で共有するクールダウン間隔
	DefaultImageCooldown = 5 * time.Second
	DefaultSlideCount    = 5
	MinSlideCount        = 2
	MaxSlideCount        = 7
	DefaultTemplateKey   = "test-news-1"
	// DefaultStoryTimeout ストーリー1件の生成全体に許容する上限
	DefaultStoryTimeout = 10 * time.Minute
)

// Config は環境変数から読み込まれたアプリケーションの全設定を保持します。
type Config struct {
	ServiceURL          string
	Port                string
	ProjectID           string
	LocationID          string
	QueueID             string
	TaskAudienceURL     string // OIDC トークンの検証に使用する Audience URL
	ServiceAccountEmail string
	GCSBucket           string // 画像・音声・HTMLを保存するバケット
	BaseOutputDir       string // GCS内のベースルート (例: "output")
	CDNBaseURL          string // 配信URLのベース。空の場合は署名付きURLを使用
	SignedURLExpiration time.Duration
	SlackWebhookURL     string

	// LLM / 画像生成
	GeminiAPIKey string
	GeminiModel  string // ナラティブ生成用モデル
	ImageModel   string // スライド画像生成用モデル

	// 外部プロバイダ
	PexelsAPIKey          string
	ElevenLabsAPIKey      string
	ElevenLabsVoiceID     string
	AzureSpeechKey        string
	AzureSpeechRegion     string
	AzureDocIntelEndpoint string
	AzureDocIntelKey      string

	// 永続化。空の場合は no-op リポジトリで動作します。
	DatabaseURL string

	// 公開ストーリーURLのベース (例: "https://stories.example.com")
	StoryBaseURL string

	DefaultSlideCount int
	ImageCooldown     time.Duration
	StoryTimeout      time.Duration
	TemplateDir       string // HTMLテンプレートの格納ディレクトリ
	ShutdownTimeout   time.Duration
}

// LoadConfig は環境変数から設定を読み込み、Config 構造体を生成します。
func LoadConfig() *Config {
	serviceURL := getEnv("SERVICE_URL", "http://localhost:8080")

	// 実行環境（Cloud Run, ko）に応じたパスの解決
	baseDir := "."
	if os.Getenv("KO_DATA_PATH") != "" || os.Getenv("K_SERVICE") != "" {
		baseDir = "/app"
	}

	templateDir := path.Join(baseDir, "templates")

	return &Config{
		ServiceURL:          serviceURL,
		Port:                getEnv("PORT", "8080"),
		ProjectID:           getEnv("GCP_PROJECT_ID", "your-gcp-project"),
		LocationID:          getEnv("GCP_LOCATION_ID", "asia-northeast1"),
		QueueID:             getEnv("CLOUD_TASKS_QUEUE_ID", "story-queue"),
		TaskAudienceURL:     getEnv("TASK_AUDIENCE_URL", serviceURL),
		ServiceAccountEmail: getEnv("SERVICE_ACCOUNT_EMAIL", ""),
		GCSBucket:           getEnv("GCS_STORY_BUCKET", "your-story-archive-bucket"),
		BaseOutputDir:       getEnv("BASE_OUTPUT_DIR", "output"),
		CDNBaseURL:          getEnv("CDN_BASE_URL", ""),
		SignedURLExpiration: SignedURLExpiration,
		SlackWebhookURL:     getEnv("SLACK_WEBHOOK_URL", ""),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", DefaultModel),
		ImageModel:   getEnv("IMAGE_MODEL", DefaultImageModel),

		PexelsAPIKey:          getEnv("PEXELS_API_KEY", ""),
		ElevenLabsAPIKey:      getEnv("ELEVENLABS_API_KEY", ""),
		ElevenLabsVoiceID:     getEnv("ELEVENLABS_VOICE_ID", ""),
		AzureSpeechKey:        getEnv("AZURE_SPEECH_KEY", ""),
		AzureSpeechRegion:     getEnv("AZURE_SPEECH_REGION", ""),
		AzureDocIntelEndpoint: getEnv("AZURE_DOCINTEL_ENDPOINT", ""),
		AzureDocIntelKey:      getEnv("AZURE_DOCINTEL_KEY", ""),

		DatabaseURL:  getEnv("DATABASE_URL", ""),
		StoryBaseURL: getEnv("STORY_BASE_URL", serviceURL),

		DefaultSlideCount: getEnvInt("DEFAULT_SLIDE_COUNT", DefaultSlideCount),
		ImageCooldown:     getEnvDuration("IMAGE_COOLDOWN", DefaultImageCooldown),
		StoryTimeout:      getEnvDuration("STORY_TIMEOUT", DefaultStoryTimeout),
		TemplateDir:       templateDir,
		ShutdownTimeout:   15 * time.Second,
	}
}
