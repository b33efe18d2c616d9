package prompts

import (
	"strings"

	"ap-story-web/internal/analysis"
	"ap-story-web/internal/domain"
)

// RenderedPrompt はモード・カテゴリ・言語に応じて選択されたプロンプト設定です。
// Metadata の "language" は下流の生成器が言語要件の組み立てに使います。
type RenderedPrompt struct {
	System   string
	User     string
	Metadata map[string]string
}

// promptTemplate はレジストリ1エントリ分のテンプレートです。
type promptTemplate struct {
	system string
	user   string
}

// registryKey は mode:category の形式です。カテゴリ不一致時は mode 単独のキーに落ちます。
type registryKey struct {
	mode     domain.Mode
	category string
}

// Selector はモードとカテゴリからプロンプトテンプレートを引く単純なルックアップです。
type Selector struct {
	registry map[registryKey]promptTemplate
	defaults map[domain.Mode]promptTemplate
}

// NewSelector は既定のテンプレートレジストリを構築します。
func NewSelector() *Selector {
	newsDefault := promptTemplate{
		system: "You are Polaris, a sincere and articulate news anchor. Present facts clearly, concisely, and warmly.",
		user:   "Create an engaging web story from the provided news article.",
	}
	curiousDefault := promptTemplate{
		system: "You are a multilingual teaching assistant. Explain topics in a factual, educational, and accessible way.",
		user:   "Create an educational web story that explains the provided topic.",
	}

	return &Selector{
		registry: map[registryKey]promptTemplate{
			{domain.ModeNews, "sports"}: {
				system: newsDefault.system,
				user:   "Create an engaging web story from the provided sports article, leading with results and standout moments.",
			},
			{domain.ModeNews, "technology"}: {
				system: newsDefault.system,
				user:   "Create an engaging web story from the provided technology article, explaining technical points for a general audience.",
			},
		},
		defaults: map[domain.Mode]promptTemplate{
			domain.ModeNews:    newsDefault,
			domain.ModeCurious: curiousDefault,
		},
	}
}

// Select はモード・カテゴリ・言語に対応する RenderedPrompt を返します。
// カテゴリ固有のテンプレートが無ければモードの既定にフォールバックします。
func (s *Selector) Select(mode domain.Mode, category, language string, report analysis.Report, keywords []string) RenderedPrompt {
	template, ok := s.registry[registryKey{mode, strings.ToLower(strings.TrimSpace(category))}]
	if !ok {
		template = s.defaults[mode]
	}

	user := template.user
	if len(keywords) > 0 {
		user += " Emphasize these angles: " + strings.Join(keywords, ", ") + "."
	}
	for _, recommended := range report.RecommendedPrompts {
		user += " " + recommended + "."
	}

	return RenderedPrompt{
		System: template.system,
		User:   user,
		Metadata: map[string]string{
			"mode":     string(mode),
			"category": category,
			"language": language,
		},
	}
}
