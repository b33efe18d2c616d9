package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ap-story-web/internal/domain"
)

const storiesSchema = `
CREATE TABLE IF NOT EXISTS stories (
    id             UUID PRIMARY KEY,
    mode           VARCHAR(32) NOT NULL,
    category       VARCHAR(128) NOT NULL,
    input_language VARCHAR(16),
    slide_count    INTEGER NOT NULL,
    template_key   VARCHAR(128) NOT NULL,
    doc_insights   JSONB NOT NULL,
    slide_deck     JSONB NOT NULL,
    narrative_raw  TEXT,
    image_assets   JSONB NOT NULL DEFAULT '[]',
    voice_assets   JSONB NOT NULL DEFAULT '[]',
    prompt_news    TEXT,
    prompt_curious TEXT,
    canurl         TEXT,
    canurl1        TEXT,
    created_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_stories_canurl ON stories (canurl);
`

// PostgresStoryRepository はpgxプールを使うStoryRepositoryの実装です。
// 集約の入れ子構造 (インサイト・デッキ・アセット) はJSONB列に保存します。
type PostgresStoryRepository struct {
	db *pgxpool.Pool
}

func NewPostgresStoryRepository(db *pgxpool.Pool) *PostgresStoryRepository {
	return &PostgresStoryRepository{db: db}
}

// EnsureSchema はストーリーテーブルが無ければ作成します。起動時に一度呼びます。
func (r *PostgresStoryRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, storiesSchema); err != nil {
		return fmt.Errorf("failed to ensure stories schema: %w", err)
	}
	return nil
}

func (r *PostgresStoryRepository) Save(ctx context.Context, record *domain.StoryRecord) error {
	insightsJSON, err := json.Marshal(record.DocInsights)
	if err != nil {
		return fmt.Errorf("failed to marshal doc insights: %w", err)
	}
	deckJSON, err := json.Marshal(record.SlideDeck)
	if err != nil {
		return fmt.Errorf("failed to marshal slide deck: %w", err)
	}
	imagesJSON, err := json.Marshal(record.ImageAssets)
	if err != nil {
		return fmt.Errorf("failed to marshal image assets: %w", err)
	}
	voicesJSON, err := json.Marshal(record.VoiceAssets)
	if err != nil {
		return fmt.Errorf("failed to marshal voice assets: %w", err)
	}

	cmd := `
        INSERT INTO stories (
            id, mode, category, input_language, slide_count, template_key,
            doc_insights, slide_deck, narrative_raw, image_assets, voice_assets,
            prompt_news, prompt_curious, canurl, canurl1, created_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
        ON CONFLICT (id) DO UPDATE SET
            mode = EXCLUDED.mode,
            category = EXCLUDED.category,
            input_language = EXCLUDED.input_language,
            slide_count = EXCLUDED.slide_count,
            template_key = EXCLUDED.template_key,
            doc_insights = EXCLUDED.doc_insights,
            slide_deck = EXCLUDED.slide_deck,
            narrative_raw = EXCLUDED.narrative_raw,
            image_assets = EXCLUDED.image_assets,
            voice_assets = EXCLUDED.voice_assets,
            prompt_news = EXCLUDED.prompt_news,
            prompt_curious = EXCLUDED.prompt_curious,
            canurl = EXCLUDED.canurl,
            canurl1 = EXCLUDED.canurl1;
    `
	_, err = r.db.Exec(ctx, cmd,
		record.ID,
		string(record.Mode),
		record.Category,
		record.InputLanguage,
		record.SlideCount,
		record.TemplateKey,
		insightsJSON,
		deckJSON,
		record.NarrativeRaw,
		imagesJSON,
		voicesJSON,
		record.PromptNews,
		record.PromptCurious,
		record.CanURL,
		record.CanURL1,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save story %s: %w", record.ID, err)
	}
	return nil
}

const storyColumns = `
    id, mode, category, input_language, slide_count, template_key,
    doc_insights, slide_deck, narrative_raw, image_assets, voice_assets,
    prompt_news, prompt_curious, canurl, canurl1, created_at
`

func (r *PostgresStoryRepository) Get(ctx context.Context, storyID uuid.UUID) (*domain.StoryRecord, error) {
	row := r.db.QueryRow(ctx, `SELECT `+storyColumns+` FROM stories WHERE id = $1`, storyID)
	return scanStory(row)
}

func (r *PostgresStoryRepository) GetBySlug(ctx context.Context, slug string) (*domain.StoryRecord, error) {
	// 完全一致を優先し、保存形式の揺れ (ドメイン付き・.html付き) は部分一致で吸収します
	row := r.db.QueryRow(ctx, `
        SELECT `+storyColumns+`
        FROM stories
        WHERE canurl = $1 OR canurl1 = $1
           OR canurl LIKE '%' || $1 || '%' OR canurl1 LIKE '%' || $1 || '%'
        ORDER BY (canurl = $1 OR canurl1 = $1) DESC
        LIMIT 1`, slug)
	return scanStory(row)
}

func scanStory(row pgx.Row) (*domain.StoryRecord, error) {
	var (
		record       domain.StoryRecord
		mode         string
		insightsJSON []byte
		deckJSON     []byte
		imagesJSON   []byte
		voicesJSON   []byte
	)
	err := row.Scan(
		&record.ID,
		&mode,
		&record.Category,
		&record.InputLanguage,
		&record.SlideCount,
		&record.TemplateKey,
		&insightsJSON,
		&deckJSON,
		&record.NarrativeRaw,
		&imagesJSON,
		&voicesJSON,
		&record.PromptNews,
		&record.PromptCurious,
		&record.CanURL,
		&record.CanURL1,
		&record.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrStoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan story row: %w", err)
	}

	record.Mode = domain.ParseMode(mode)
	if err := json.Unmarshal(insightsJSON, &record.DocInsights); err != nil {
		return nil, fmt.Errorf("failed to unmarshal doc insights: %w", err)
	}
	if err := json.Unmarshal(deckJSON, &record.SlideDeck); err != nil {
		return nil, fmt.Errorf("failed to unmarshal slide deck: %w", err)
	}
	if err := json.Unmarshal(imagesJSON, &record.ImageAssets); err != nil {
		return nil, fmt.Errorf("failed to unmarshal image assets: %w", err)
	}
	if err := json.Unmarshal(voicesJSON, &record.VoiceAssets); err != nil {
		return nil, fmt.Errorf("failed to unmarshal voice assets: %w", err)
	}
	return &record, nil
}
