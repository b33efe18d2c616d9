package voice

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	azureProviderName = "azure_basic"
	azureEndpoint     = "https://%s.tts.speech.microsoft.com/cognitiveservices/v1"
	azureOutputFormat = "audio-16khz-128kbitrate-mono-mp3"
)

// 言語コードからAzureのニューラル音声への対応表です。
// 未対応言語は英語音声にフォールバックします。
var azureVoiceMap = map[string]struct {
	Locale string
	Voice  string
}{
	"en": {"en-US", "en-US-JennyNeural"},
	"hi": {"hi-IN", "hi-IN-SwaraNeural"},
	"mr": {"mr-IN", "mr-IN-AarohiNeural"},
	"gu": {"gu-IN", "gu-IN-DhwaniNeural"},
	"ta": {"ta-IN", "ta-IN-PallaviNeural"},
	"te": {"te-IN", "te-IN-ShrutiNeural"},
	"kn": {"kn-IN", "kn-IN-SapnaNeural"},
	"ml": {"ml-IN", "ml-IN-SobhanaNeural"},
	"bn": {"bn-IN", "bn-IN-TanishaaNeural"},
	"pa": {"pa-IN", "pa-IN-OjasNeural"},
	"ur": {"ur-IN", "ur-IN-GulNeural"},
}

// AzureTTSProvider はAzure Speechの REST API で音声を合成します。
type AzureTTSProvider struct {
	apiKey     string
	region     string
	httpClient httpDoer
}

func NewAzureTTSProvider(apiKey, region string, httpClient httpDoer) *AzureTTSProvider {
	return &AzureTTSProvider{apiKey: apiKey, region: region, httpClient: httpClient}
}

func (a *AzureTTSProvider) Name() string { return azureProviderName }

func (a *AzureTTSProvider) Supports(providerID string) bool {
	return providerID == azureProviderName && a.apiKey != "" && a.region != ""
}

func (a *AzureTTSProvider) Synthesize(ctx context.Context, text, language string) (GenerationResult, error) {
	locale, voiceName := resolveAzureVoice(language)
	ssml := buildSSML(locale, voiceName, text)

	endpoint := fmt.Sprintf(azureEndpoint, a.region)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(ssml))
	if err != nil {
		return GenerationResult{}, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", a.apiKey)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", azureOutputFormat)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return GenerationResult{}, fmt.Errorf("azure tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return GenerationResult{}, fmt.Errorf("azure tts returned status %d: %s", resp.StatusCode, string(detail))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return GenerationResult{}, fmt.Errorf("failed to read azure tts audio: %w", err)
	}
	if len(audio) == 0 {
		return GenerationResult{}, fmt.Errorf("azure tts returned empty audio")
	}

	return GenerationResult{
		Audio:    audio,
		Format:   "mp3",
		VoiceID:  voiceName,
		Provider: azureProviderName,
	}, nil
}

func resolveAzureVoice(language string) (locale, voice string) {
	base := language
	if i := strings.Index(base, "-"); i >= 0 {
		base = base[:i]
	}
	if entry, ok := azureVoiceMap[base]; ok {
		return entry.Locale, entry.Voice
	}
	fallback := azureVoiceMap["en"]
	return fallback.Locale, fallback.Voice
}

func buildSSML(locale, voiceName, text string) string {
	var escaped strings.Builder
	_ = xml.EscapeText(&escaped, []byte(text))
	return fmt.Sprintf(
		`<speak version='1.0' xml:lang='%s'><voice xml:lang='%s' name='%s'>%s</voice></speak>`,
		locale, locale, voiceName, escaped.String())
}
