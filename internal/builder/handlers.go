package builder

import (
	"context"
	"fmt"
	"log/slog"

	"ap-story-web/internal/app"
	"ap-story-web/internal/controllers/auth"
	"ap-story-web/internal/domain"
	"ap-story-web/internal/persistence"
	"ap-story-web/internal/server/handlers"

	"github.com/shouni/gcp-kit/worker"
)

// AppHandlers は生成されたすべての HTTP ハンドラーを保持する構造体です。
// server パッケージはこの構造体を受け取ってルーティングを行います。
type AppHandlers struct {
	API          *handlers.Handler
	Worker       *worker.Handler[domain.StoryTaskPayload]
	TaskVerifier *auth.TaskVerifier
}

// TaskExecutor は、非同期タスクのペイロードを受け取り、
// 対応するビジネスロジックを実行する責務を抽象化します。
type TaskExecutor interface {
	Execute(ctx context.Context, payload domain.StoryTaskPayload) error
}

// permanentFailureFilter は再試行しても成功しない恒久的エラーを成功として応答し、
// Cloud Tasks の再試行ループを打ち切ります。入力不備 (バリデーション) と
// ソース内容の不整合 (コンテンツ整合性) は何度実行しても結果が変わらないためです。
type permanentFailureFilter struct {
	inner TaskExecutor
}

func (f permanentFailureFilter) Execute(ctx context.Context, payload domain.StoryTaskPayload) error {
	err := f.inner.Execute(ctx, payload)
	if err == nil {
		return nil
	}
	if domain.IsValidation(err) || domain.IsContentIntegrity(err) {
		slog.WarnContext(ctx, "task failed permanently, acknowledging to stop retries",
			"story_id", payload.StoryID, "error", err)
		return nil
	}
	return err
}

// BuildHandlers は各ハンドラーの依存関係をすべて組み立て、AppHandlers 構造体を返します。
func BuildHandlers(
	c *app.Container,
	repository persistence.StoryRepository,
	executor TaskExecutor,
) (*AppHandlers, error) {
	if c.Config.ServiceURL == "" {
		return nil, fmt.Errorf("ステータスURLの構築のために ServiceURL の設定が必要です")
	}

	apiHandler := handlers.NewHandler(c.Config, c.TaskEnqueuer, repository, c.RemoteIO)
	workerHandler := worker.NewHandler[domain.StoryTaskPayload](permanentFailureFilter{inner: executor})
	verifier := auth.NewTaskVerifier(c.Config.TaskAudienceURL)

	return &AppHandlers{
		API:          apiHandler,
		Worker:       workerHandler,
		TaskVerifier: verifier,
	}, nil
}
