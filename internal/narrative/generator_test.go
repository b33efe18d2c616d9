package narrative

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ap-story-web/internal/domain"
	"ap-story-web/internal/prompts"
)

// fakeModel は呼び出しごとにキューから応答を返すテスト用LLMです。
// キューが尽きた後の呼び出しはエラーを返します。
type fakeModel struct {
	queue []string
	calls int
}

func (m *fakeModel) Complete(_ context.Context, _, _ string) (string, error) {
	m.calls++
	if len(m.queue) == 0 {
		return "", errors.New("no more fake responses")
	}
	response := m.queue[0]
	m.queue = m.queue[1:]
	return response, nil
}

func englishPrompt() prompts.RenderedPrompt {
	return prompts.RenderedPrompt{
		System:   "system",
		User:     "user",
		Metadata: map[string]string{"mode": "curious", "language": "en"},
	}
}

func insightsWithText(text string) *domain.DocInsights {
	insights := domain.NewDocInsights()
	insights.SemanticChunks = []domain.SemanticChunk{{ID: "chunk-1", Text: text, SourceID: "text-input"}}
	return insights
}

func TestCuriousGenerate_StructuredJSON(t *testing.T) {
	model := &fakeModel{queue: []string{`{
		"language": "en",
		"storytitle": "The Water Cycle",
		"s0alt1": "cover illustration",
		"s1paragraph1": "Evaporation lifts water from oceans into the sky.",
		"s1alt1": "sun over ocean",
		"s2paragraph1": "Clouds form as vapor condenses around dust.",
		"s2alt1": "fluffy clouds",
		"s3paragraph1": "Rain returns the water to rivers and seas.",
		"s3alt1": "gentle rain"
	}`}}
	generator := NewCuriousGenerator(model, "curious-template")

	response, err := generator.Generate(context.Background(), englishPrompt(), insightsWithText("The water cycle explained."), 5)
	require.NoError(t, err)

	deck := response.SlideDeck
	require.Len(t, deck.Slides, 4) // カバー + 中間3枚
	assert.Equal(t, "curious-template", deck.TemplateKey)
	assert.Equal(t, "en", deck.LanguageCode)

	assert.Equal(t, "cover", deck.Slides[0].PlaceholderID)
	assert.Equal(t, "The Water Cycle", deck.Slides[0].Text)
	assert.Equal(t, "cover illustration", deck.Slides[0].AltText)

	assert.Equal(t, "slide_1", deck.Slides[1].PlaceholderID)
	assert.Equal(t, "Evaporation lifts water from oceans into the sky.", deck.Slides[1].Text)
	assert.Equal(t, "sun over ocean", deck.Slides[1].AltText)

	assert.NotEmpty(t, response.RawOutput)
	assert.Equal(t, 1, model.calls)
}

func TestCuriousGenerate_RecoversFromUnparseableOutput(t *testing.T) {
	model := &fakeModel{queue: []string{"I am sorry, I cannot produce JSON today."}}
	generator := NewCuriousGenerator(model, "")

	source := "Ocean currents move heat around the planet."
	response, err := generator.Generate(context.Background(), englishPrompt(), insightsWithText(source), 5)
	require.NoError(t, err)

	deck := response.SlideDeck
	require.Len(t, deck.Slides, 4)
	assert.Equal(t, source, deck.Slides[0].Text)
	assert.Equal(t, source, deck.Slides[1].Text)
	assert.Equal(t, "Slide 2 content", deck.Slides[2].Text)
	assert.Equal(t, "Slide 3 content", deck.Slides[3].Text)
	for _, slide := range deck.Slides {
		assert.NotEmpty(t, slide.AltText)
	}
	// 英語ターゲットでは画像プロンプトの翻訳呼び出しは発生しない
	assert.Equal(t, 1, model.calls)
}

func TestCuriousGenerate_ModelUnavailableReturnsError(t *testing.T) {
	// 補完呼び出し自体の失敗はフォールバックせず、そのまま失敗させます。
	// 壊れたJSON応答からの復旧とは区別されます。
	model := &fakeModel{}
	generator := NewCuriousGenerator(model, "")

	response, err := generator.Generate(context.Background(), englishPrompt(), domain.NewDocInsights(), 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "curious narrative completion failed")
	assert.Nil(t, response)
	assert.Equal(t, 1, model.calls)
}

func TestNewsGenerate_ThreePhaseFlow(t *testing.T) {
	model := &fakeModel{queue: []string{
		`{"category": "Science", "subcategory": "Space", "emotion": "Hopeful"}`,
		`{"slides": [
			{"title": "Launch succeeds", "summary": "The rocket reached orbit after a flawless countdown.", "image_prompt": "rocket on launchpad at dawn"},
			{"title": "Docking ahead", "summary": "The crew will dock with the station tomorrow morning.", "image_prompt": "space station above earth"}
		]}`,
		"Rocket launch opens a new era of exploration",
		"The rocket reached orbit this morning after a flawless countdown watched around the world.",
		"Tomorrow the crew will dock with the orbiting station to begin a six month mission.",
	}}
	generator := NewNewsGenerator(model, "news-template")

	prompt := prompts.RenderedPrompt{Metadata: map[string]string{"mode": "news", "language": "en"}}
	article := "A rocket lifted off from the coastal pad this morning. " +
		"Thousands gathered to watch the launch succeed after years of delays. " +
		"The mission will carry four astronauts to the orbiting laboratory."

	response, err := generator.Generate(context.Background(), prompt, insightsWithText(article), 4)
	require.NoError(t, err)

	deck := response.SlideDeck
	require.Len(t, deck.Slides, 3) // カバー + 中間2枚

	assert.Equal(t, "section_1", deck.Slides[0].PlaceholderID)
	assert.Equal(t, "Rocket launch opens a new era of exploration", deck.Slides[0].Text)
	assert.LessOrEqual(t, len([]rune(deck.Slides[0].Text)), 80)
	assert.Empty(t, deck.Slides[0].AltText)

	assert.Equal(t, "section_2", deck.Slides[1].PlaceholderID)
	assert.Equal(t, "rocket on launchpad at dawn", deck.Slides[1].AltText)

	assert.Equal(t, []string{"Rocket launch opens a new era of exploration"}, response.Headlines)
	assert.Equal(t, 5, model.calls)
}

func TestNewsGenerate_FallsBackWhenModelFails(t *testing.T) {
	model := &fakeModel{}
	generator := NewNewsGenerator(model, "")

	prompt := prompts.RenderedPrompt{Metadata: map[string]string{"mode": "news", "language": "en"}}
	article := "City council approves the riverside park plan. " +
		"Construction of the playgrounds is expected to begin in the spring season. " +
		"Residents praised the decision during the open meeting on Tuesday evening."

	response, err := generator.Generate(context.Background(), prompt, insightsWithText(article), 4)
	require.NoError(t, err)

	deck := response.SlideDeck
	require.NotEmpty(t, deck.Slides)
	// カバーは記事冒頭のヘッドラインに落ちる
	assert.Contains(t, deck.Slides[0].Text, "City council approves")
	for i, slide := range deck.Slides {
		assert.Equal(t, fmt.Sprintf("section_%d", i+1), slide.PlaceholderID)
		assert.NotEmpty(t, slide.Text)
	}
}

func TestRouterRoutesByMode(t *testing.T) {
	news := NewNewsGenerator(&fakeModel{}, "")
	curious := NewCuriousGenerator(&fakeModel{}, "")
	router := NewRouter(news, curious)

	generator, err := router.Route(domain.ModeNews)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeNews, generator.Mode())

	generator, err = router.Route(domain.ModeCurious)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeCurious, generator.Mode())

	_, err = router.Route(domain.Mode("video"))
	assert.Error(t, err)
}
