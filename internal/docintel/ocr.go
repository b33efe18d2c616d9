package docintel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ap-story-web/internal/domain"
)

// OCRExtraction は添付1件に対するOCR結果です。
type OCRExtraction struct {
	Attachment domain.AttachmentDescriptor
	Text       string
	Language   string
	Metadata   map[string]string
}

// ParserResult はOCRテキストの構造化解釈です。
type ParserResult struct {
	Chunks   []domain.SemanticChunk
	Entities []domain.Entity
	Summary  string
}

// OCRAdapter は添付をテキストに変換するアダプタです。
// CanProcess がメディアタイプで対象を判定し、最初に一致したアダプタだけが使われます。
type OCRAdapter interface {
	CanProcess(attachment domain.AttachmentDescriptor) bool
	Extract(ctx context.Context, attachment domain.AttachmentDescriptor) (*OCRExtraction, error)
}

// ParserAdapter はOCRテキストを構造化成果物に変換するアダプタです。
type ParserAdapter interface {
	Supports(extraction *OCRExtraction) bool
	Parse(extraction *OCRExtraction) (*ParserResult, error)
}

// AttachmentLoader は添付URIからバイト列を取得する関数です。
type AttachmentLoader func(ctx context.Context, attachment domain.AttachmentDescriptor) ([]byte, error)

const (
	azureDefaultModelID    = "prebuilt-layout"
	azureDefaultAPIVersion = "2024-02-29-preview"
	azurePollInterval      = time.Second
	azurePollMaxAttempts   = 10
)

// AzureDocumentIntelligenceAdapter は Azure Document Intelligence REST API を使うOCRアダプタです。
// analyze 開始 → operation-location のポーリング、という非同期APIの形をそのまま写しています。
type AzureDocumentIntelligenceAdapter struct {
	endpoint   string
	apiKey     string
	modelID    string
	apiVersion string
	loader     AttachmentLoader
	client     *http.Client
}

// NewAzureDocumentIntelligenceAdapter はアダプタを生成します。
func NewAzureDocumentIntelligenceAdapter(endpoint, apiKey string, loader AttachmentLoader, client *http.Client) *AzureDocumentIntelligenceAdapter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &AzureDocumentIntelligenceAdapter{
		endpoint:   trimTrailingSlash(endpoint),
		apiKey:     apiKey,
		modelID:    azureDefaultModelID,
		apiVersion: azureDefaultAPIVersion,
		loader:     loader,
		client:     client,
	}
}

// CanProcess はPDFと画像のみ対象にします。
func (a *AzureDocumentIntelligenceAdapter) CanProcess(attachment domain.AttachmentDescriptor) bool {
	switch attachment.MediaType {
	case "application/pdf", "image/png", "image/jpeg":
		return true
	}
	return false
}

// Extract は添付をAzureへ送信し、解析結果の全テキストを返します。
func (a *AzureDocumentIntelligenceAdapter) Extract(ctx context.Context, attachment domain.AttachmentDescriptor) (*OCRExtraction, error) {
	content, err := a.loader(ctx, attachment)
	if err != nil {
		return nil, fmt.Errorf("failed to load attachment %s: %w", attachment.ID, err)
	}
	if len(content) == 0 {
		return nil, nil
	}

	analyzeURL := fmt.Sprintf("%s/documentanalysis:analyze?modelId=%s&api-version=%s", a.endpoint, a.modelID, a.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, analyzeURL, bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", a.apiKey)
	contentType := attachment.MediaType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("azure document intelligence analyze request failed: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("azure document intelligence analyze returned status %d", resp.StatusCode)
	}

	operationURL := resp.Header.Get("operation-location")
	if operationURL == "" {
		return nil, fmt.Errorf("azure document intelligence: missing operation-location header for %s", attachment.ID)
	}

	payload, err := a.pollOperation(ctx, operationURL)
	if err != nil {
		return nil, err
	}

	return &OCRExtraction{
		Attachment: attachment,
		Text:       extractAnalyzedText(payload),
		Language:   firstDocumentLanguage(payload),
		Metadata: map[string]string{
			"model_id":    a.modelID,
			"api_version": a.apiVersion,
		},
	}, nil
}

type azureOperationResult struct {
	Status        string `json:"status"`
	AnalyzeResult struct {
		Pages []struct {
			Lines []struct {
				Content string `json:"content"`
			} `json:"lines"`
		} `json:"pages"`
	} `json:"analyzeResult"`
	Documents []struct {
		Language string `json:"language"`
	} `json:"documents"`
}

func (a *AzureDocumentIntelligenceAdapter) pollOperation(ctx context.Context, operationURL string) (*azureOperationResult, error) {
	for attempt := 0; attempt < azurePollMaxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, operationURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Ocp-Apim-Subscription-Key", a.apiKey)

		resp, err := a.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("azure document intelligence poll request failed: %w", err)
		}
		var payload azureOperationResult
		decodeErr := json.NewDecoder(resp.Body).Decode(&payload)
		resp.Body.Close()
		if decodeErr != nil {
			return nil, fmt.Errorf("failed to decode azure operation response: %w", decodeErr)
		}

		if payload.Status == "succeeded" || payload.Status == "failed" {
			return &payload, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(azurePollInterval):
		}
	}
	return nil, fmt.Errorf("azure document intelligence operation timed out")
}

func extractAnalyzedText(payload *azureOperationResult) string {
	var buf bytes.Buffer
	for _, page := range payload.AnalyzeResult.Pages {
		for _, line := range page.Lines {
			if line.Content == "" {
				continue
			}
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(line.Content)
		}
	}
	return buf.String()
}

func firstDocumentLanguage(payload *azureOperationResult) string {
	if len(payload.Documents) > 0 {
		return payload.Documents[0].Language
	}
	return ""
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
