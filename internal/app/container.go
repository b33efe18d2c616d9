package app

import (
	"log/slog"

	"ap-story-web/internal/adapters"
	"ap-story-web/internal/config"
	"ap-story-web/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shouni/gcp-kit/tasks"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
	"google.golang.org/genai"
)

// Container はアプリケーションの依存関係（DIコンテナ）を保持します。
type Container struct {
	Config *config.Config

	// I/O and Storage
	RemoteIO *RemoteIO
	DB       *pgxpool.Pool // 永続化が無効な場合は nil

	// Asynchronous Task
	TaskEnqueuer *tasks.Enqueuer[domain.StoryTaskPayload]

	// External Adapters
	HTTPClient    httpkit.ClientInterface
	GenAI         *genai.Client
	SlackNotifier adapters.SlackNotifier
}

type RemoteIO struct {
	Factory remoteio.IOFactory
	Reader  remoteio.InputReader
	Writer  remoteio.OutputWriter
	Signer  remoteio.URLSigner
}

// Close は、Container が保持するすべての外部接続リソースを安全に解放します。
func (c *Container) Close() {
	if c.RemoteIO != nil && c.RemoteIO.Factory != nil {
		if err := c.RemoteIO.Factory.Close(); err != nil {
			slog.Error("failed to close IOFactory", "error", err)
		}
	}
	if c.TaskEnqueuer != nil {
		if err := c.TaskEnqueuer.Close(); err != nil {
			slog.Error("failed to close task enqueuer", "error", err)
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
