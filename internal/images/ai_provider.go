package images

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"ap-story-web/internal/domain"
	"ap-story-web/internal/narrative"
)

const (
	rateLimitMaxRetries = 3
	rateLimitBaseDelay  = 2 * time.Second

	altPromptSystem = "You are an assistant that writes short English image generation prompts. " +
		"Given slide narration text in any language, respond with one English sentence describing " +
		"a safe, family-friendly visual scene for that slide. Respond with the sentence only."
)

// AIProvider は生成AIモデルでスライド画像を作ります。
//
// 縮退戦略: コンテンツポリシー違反 (400) を受けたら、プロンプトを段階的に
// 安全な方向へ差し替えて再試行します。全段失敗した場合は、このストーリーで
// 最後に成功した画像を複製してスライドを埋めます。成功画像がまだ1枚もない
// 場合のみスライドをスキップします。
type AIProvider struct {
	client   *genai.Client
	model    string
	cooldown *Cooldown
	altModel narrative.LanguageModel // alt テキスト自動生成用。nil 可
}

func NewAIProvider(client *genai.Client, model string, cooldown *Cooldown, altModel narrative.LanguageModel) *AIProvider {
	return &AIProvider{client: client, model: model, cooldown: cooldown, altModel: altModel}
}

func (a *AIProvider) Source() string { return "ai" }

func (a *AIProvider) Supports(payload domain.IntakePayload, _ []string) bool {
	return payload.ImageSource == domain.ImageSourceAI
}

func (a *AIProvider) Generate(ctx context.Context, deck domain.SlideDeck, payload domain.IntakePayload, _ []string) ([]ImageContent, error) {
	topic := strings.Join(payload.PromptKeywords, " ")

	var contents []ImageContent
	var lastGood []byte
	for i, slide := range deck.Slides {
		if slide.ImageURL != "" {
			continue
		}

		prompt := a.slidePrompt(ctx, slide, i, payload)
		data, err := a.generateWithFallback(ctx, prompt, i, topic)
		if err != nil {
			if lastGood == nil {
				slog.WarnContext(ctx, "image generation failed with no prior success, skipping slide",
					"placeholder", slide.PlaceholderID, "error", err)
				continue
			}
			slog.WarnContext(ctx, "image generation failed, reusing last successful image",
				"placeholder", slide.PlaceholderID, "error", err)
			data = lastGood
		} else {
			lastGood = data
		}

		contents = append(contents, ImageContent{
			PlaceholderID: slide.PlaceholderID,
			Content:       data,
			Filename:      slide.PlaceholderID + ".png",
			Description:   prompt,
		})
	}
	return contents, nil
}

// slidePrompt は画像プロンプトの種を優先順で選び、モード別テンプレートで包みます。
// 優先順: ナラティブ由来の alt テキスト > ユーザーキーワード > LLM自動生成 > スライド本文。
func (a *AIProvider) slidePrompt(ctx context.Context, slide domain.SlideBlock, slideIndex int, payload domain.IntakePayload) string {
	seed := strings.TrimSpace(slide.AltText)
	if seed == "" && len(payload.PromptKeywords) > 0 {
		seed = strings.Join(payload.PromptKeywords, ", ")
	}
	if seed == "" && a.altModel != nil && strings.TrimSpace(slide.Text) != "" {
		generated, err := a.altModel.Complete(ctx, altPromptSystem, slide.Text)
		if err != nil {
			slog.WarnContext(ctx, "alt prompt generation failed", "placeholder", slide.PlaceholderID, "error", err)
		} else if trimmed := strings.TrimSpace(generated); len(trimmed) > 10 {
			seed = trimmed
		}
	}
	if seed == "" {
		seed = slide.Text
	}

	isCover := slideIndex == 0
	if payload.Mode == domain.ModeNews {
		return buildNewsSlidePrompt(seed, slideIndex, isCover)
	}
	return buildCuriousSlidePrompt(seed, isCover)
}

// generateWithFallback は1枚分の画像を生成します。429は待機付き再試行、
// 400 (コンテンツポリシー) はプロンプトを段階的に弱めて再試行します。
func (a *AIProvider) generateWithFallback(ctx context.Context, prompt string, slideIndex int, topic string) ([]byte, error) {
	data, err := a.callModel(ctx, prompt)
	if err == nil {
		return data, nil
	}

	if isRateLimited(err) {
		for retry := 0; retry < rateLimitMaxRetries; retry++ {
			delay := time.Duration(retry+1) * rateLimitBaseDelay
			slog.InfoContext(ctx, "image API rate limited, backing off", "retry", retry+1, "delay", delay.String())
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			data, err = a.callModel(ctx, prompt)
			if err == nil {
				return data, nil
			}
			if !isRateLimited(err) {
				break
			}
		}
	}

	if !isContentPolicy(err) {
		return nil, err
	}

	// 各段は前段より厳密に安全かつ短くなります
	var ladder []string
	if revised := revisedPromptFrom(err); revised != "" {
		ladder = append(ladder, SanitizeRevisedPrompt(revised))
	}
	ladder = append(ladder,
		GenerateContentRelatedSafePrompt(topic, prompt, false),
		GenerateContentRelatedSafePrompt(topic, prompt, true),
		GenerateSafeNewsPrompt(slideIndex),
	)

	for step, degraded := range ladder {
		slog.InfoContext(ctx, "retrying with degraded prompt", "step", step+1, "slide", slideIndex)
		data, err = a.callModel(ctx, degraded)
		if err == nil {
			return data, nil
		}
		if !isContentPolicy(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("image generation exhausted all prompt fallbacks: %w", err)
}

func (a *AIProvider) callModel(ctx context.Context, prompt string) ([]byte, error) {
	if err := a.cooldown.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return nil, err
	}

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
		}
	}
	return nil, errors.New("model response contained no image data")
}

func isRateLimited(err error) bool {
	var apiErr genai.APIError
	return errors.As(err, &apiErr) && apiErr.Code == 429
}

func isContentPolicy(err error) bool {
	var apiErr genai.APIError
	return errors.As(err, &apiErr) && apiErr.Code == 400
}

// revisedPromptFrom はエラー詳細にサービス側の修正プロンプトが含まれていれば取り出します。
func revisedPromptFrom(err error) string {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return ""
	}
	for _, detail := range apiErr.Details {
		if revised, ok := detail["revised_prompt"].(string); ok && revised != "" {
			return revised
		}
	}
	return ""
}
