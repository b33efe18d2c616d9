package persistence

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"ap-story-web/internal/domain"
)

// StoryRepository は生成済みストーリーの永続化層です。
type StoryRepository interface {
	// Save はレコードを保存します。同一IDが既にあれば上書きします。
	Save(ctx context.Context, record *domain.StoryRecord) error
	// Get はIDでレコードを取得します。見つからなければ domain.ErrStoryNotFound を返します。
	Get(ctx context.Context, storyID uuid.UUID) (*domain.StoryRecord, error)
	// GetBySlug は正規URLのスラッグでレコードを検索します。
	GetBySlug(ctx context.Context, slug string) (*domain.StoryRecord, error)
}

// NoopRepository はデータベース未設定時に使う何もしないリポジトリです。
// 保存は成功扱いで読み飛ばし、取得は常に未発見を返します。
type NoopRepository struct{}

func NewNoopRepository() *NoopRepository { return &NoopRepository{} }

func (NoopRepository) Save(ctx context.Context, record *domain.StoryRecord) error {
	slog.DebugContext(ctx, "persistence disabled, skipping save", "story_id", record.ID.String())
	return nil
}

func (NoopRepository) Get(_ context.Context, _ uuid.UUID) (*domain.StoryRecord, error) {
	return nil, domain.ErrStoryNotFound
}

func (NoopRepository) GetBySlug(_ context.Context, _ string) (*domain.StoryRecord, error) {
	return nil, domain.ErrStoryNotFound
}
