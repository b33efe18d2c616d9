package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	elevenLabsProviderName = "elevenlabs_pro"
	elevenLabsEndpoint     = "https://api.elevenlabs.io/v1/text-to-speech/%s"
	elevenLabsModelID      = "eleven_multilingual_v2"
)

// ElevenLabsProvider はElevenLabsのTTS APIで音声を合成します。
// 多言語モデルを使うため、言語はテキストから自動判別されます。
type ElevenLabsProvider struct {
	apiKey     string
	voiceID    string
	httpClient httpDoer
}

func NewElevenLabsProvider(apiKey, voiceID string, httpClient httpDoer) *ElevenLabsProvider {
	return &ElevenLabsProvider{apiKey: apiKey, voiceID: voiceID, httpClient: httpClient}
}

func (e *ElevenLabsProvider) Name() string { return elevenLabsProviderName }

func (e *ElevenLabsProvider) Supports(providerID string) bool {
	return providerID == elevenLabsProviderName && e.apiKey != "" && e.voiceID != ""
}

type elevenLabsRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

func (e *ElevenLabsProvider) Synthesize(ctx context.Context, text, _ string) (GenerationResult, error) {
	body, err := json.Marshal(elevenLabsRequest{Text: text, ModelID: elevenLabsModelID})
	if err != nil {
		return GenerationResult{}, fmt.Errorf("failed to encode elevenlabs request: %w", err)
	}

	endpoint := fmt.Sprintf(elevenLabsEndpoint, e.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return GenerationResult{}, err
	}
	req.Header.Set("xi-api-key", e.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return GenerationResult{}, fmt.Errorf("elevenlabs request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return GenerationResult{}, fmt.Errorf("elevenlabs returned status %d: %s", resp.StatusCode, string(detail))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return GenerationResult{}, fmt.Errorf("failed to read elevenlabs audio: %w", err)
	}
	if len(audio) == 0 {
		return GenerationResult{}, fmt.Errorf("elevenlabs returned empty audio")
	}

	return GenerationResult{
		Audio:    audio,
		Format:   "mp3",
		VoiceID:  e.voiceID,
		Provider: elevenLabsProviderName,
	}, nil
}
