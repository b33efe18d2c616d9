package adapters

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiAdapter は Gemini API を narrative.LanguageModel として公開するアダプターです。
type GeminiAdapter struct {
	client *genai.Client
	model  string
}

func NewGeminiAdapter(client *genai.Client, model string) *GeminiAdapter {
	return &GeminiAdapter{client: client, model: model}
}

// Complete はシステム指示付きでテキスト補完を実行し、応答テキストを返します。
func (a *GeminiAdapter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	config := &genai.GenerateContentConfig{}
	if systemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		}
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(userPrompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini completion failed: %w", err)
	}

	text := collectText(resp)
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty completion for model %s", a.model)
	}
	return text, nil
}

// collectText は候補からテキストパートを連結して取り出します。
func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part != nil && part.Text != "" {
				sb.WriteString(part.Text)
			}
		}
		if sb.Len() > 0 {
			break
		}
	}
	return strings.TrimSpace(sb.String())
}
