package narrative

import (
	"context"
	"fmt"

	"ap-story-web/internal/domain"
	"ap-story-web/internal/prompts"
)

// LanguageModel は生成器が必要とする最小のLLMインターフェースです。
type LanguageModel interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Generator はモード別のナラティブ生成器です。
type Generator interface {
	Mode() domain.Mode
	Generate(ctx context.Context, prompt prompts.RenderedPrompt, insights *domain.DocInsights, slideCount int) (*domain.NarrativeResponse, error)
}

// Router はモードから生成器を解決します。
type Router struct {
	generators map[domain.Mode]Generator
}

// NewRouter は Router を生成します。
func NewRouter(generators ...Generator) *Router {
	byMode := make(map[domain.Mode]Generator, len(generators))
	for _, g := range generators {
		byMode[g.Mode()] = g
	}
	return &Router{generators: byMode}
}

// Route はモードに対応する生成器を返します。
func (r *Router) Route(mode domain.Mode) (Generator, error) {
	generator, ok := r.generators[mode]
	if !ok {
		return nil, fmt.Errorf("no narrative generator registered for mode %q", mode)
	}
	return generator, nil
}
