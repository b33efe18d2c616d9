package analysis

import (
	"fmt"
	"sort"
	"strings"

	"ap-story-web/internal/domain"
)

// Report は DocInsights に対する軽量ヒューリスティクスの結果です。
type Report struct {
	NarrativeSummary   string
	RecommendedPrompts []string
	Gaps               []string
}

// Facade は抽出済みコンテンツから要約・推奨プロンプト・不足情報を導出します。
// LLMは使わず、エンティティ頻度とチャンク長だけで判断します。
type Facade struct{}

// NewFacade は Facade を生成します。
func NewFacade() *Facade {
	return &Facade{}
}

// Analyze は DocInsights を読み取り、Report を生成します。
func (f *Facade) Analyze(insights *domain.DocInsights) Report {
	report := Report{
		NarrativeSummary:   pickSummary(insights),
		RecommendedPrompts: recommendPrompts(insights),
	}

	if len(insights.SemanticChunks) == 0 {
		report.Gaps = append(report.Gaps, "no source content available")
	}
	if len(insights.Entities) == 0 {
		report.Gaps = append(report.Gaps, "no named entities detected")
	}

	return report
}

// Apply は Report の内容で DocInsights を書き換えます。空の項目は元の値を保持します。
func (f *Facade) Apply(insights *domain.DocInsights, report Report) {
	if len(report.RecommendedPrompts) > 0 {
		insights.RecommendedPrompts = report.RecommendedPrompts
	}
	if len(report.Gaps) > 0 {
		insights.Gaps = report.Gaps
	}
	if report.NarrativeSummary != "" {
		insights.Summaries = []string{report.NarrativeSummary}
	}
}

func pickSummary(insights *domain.DocInsights) string {
	for _, summary := range insights.Summaries {
		if strings.TrimSpace(summary) != "" {
			return strings.TrimSpace(summary)
		}
	}
	for _, chunk := range insights.SemanticChunks {
		text := strings.TrimSpace(chunk.Text)
		if text != "" {
			runes := []rune(text)
			if len(runes) > 300 {
				return string(runes[:300])
			}
			return text
		}
	}
	return ""
}

// recommendPrompts は出現回数の多いエンティティから切り口候補を作ります。
func recommendPrompts(insights *domain.DocInsights) []string {
	entities := make([]domain.Entity, 0, len(insights.Entities))
	for _, entity := range insights.Entities {
		entities = append(entities, entity)
	}
	sort.Slice(entities, func(i, j int) bool {
		if entities[i].Count != entities[j].Count {
			return entities[i].Count > entities[j].Count
		}
		return entities[i].Name < entities[j].Name
	})

	var prompts []string
	for i, entity := range entities {
		if i >= 3 {
			break
		}
		prompts = append(prompts, fmt.Sprintf("Focus on %s", entity.Name))
	}
	return prompts
}
