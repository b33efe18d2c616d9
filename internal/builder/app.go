package builder

import (
	"context"
	"fmt"

	"ap-story-web/internal/adapters"
	"ap-story-web/internal/app"
	"ap-story-web/internal/config"
	"ap-story-web/internal/persistence"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"google.golang.org/genai"
)

// BuildContainer は外部サービスとの接続を確立し、依存関係を組み立てます。
func BuildContainer(ctx context.Context, cfg *config.Config) (*app.Container, error) {
	// 1. 基盤クライアントの初期化
	httpClient := httpkit.New(config.DefaultHTTPTimeout)

	// 2. I/O インフラ (GCS等) の初期化
	rio, err := buildRemoteIO(ctx)
	if err != nil {
		return nil, err
	}

	// 3. 非同期タスクエンキューアの初期化
	enqueuer, err := buildTaskEnqueuer(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create task enqueuer: %w", err)
	}

	// 4. Gemini クライアントの初期化
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	container := &app.Container{
		Config:       cfg,
		RemoteIO:     rio,
		TaskEnqueuer: enqueuer,
		HTTPClient:   httpClient,
		GenAI:        genaiClient,
	}

	// 5. 永続化層の初期化。DSN未設定ならプール無しで動作します。
	if cfg.DatabaseURL != "" {
		pool, err := persistence.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		container.DB = pool
	}

	// 6. アダプターの初期化
	slack, err := adapters.NewSlackAdapter(httpClient, cfg.SlackWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Slack adapter: %w", err)
	}
	container.SlackNotifier = slack

	return container, nil
}
