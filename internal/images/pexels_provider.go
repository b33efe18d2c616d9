package images

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"ap-story-web/internal/domain"
)

const (
	pexelsSearchURL  = "https://api.pexels.com/v1/search"
	pexelsMinPhotos  = 10
	pexelsMaxPerPage = 80
)

// 検索キーワード抽出で無視する一般語です。
var pexelsStopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "that": {}, "this": {}, "with": {},
	"from": {}, "have": {}, "has": {}, "was": {}, "were": {}, "are": {},
	"will": {}, "been": {}, "their": {}, "they": {}, "them": {}, "then": {},
	"than": {}, "when": {}, "what": {}, "where": {}, "which": {}, "while": {},
	"about": {}, "after": {}, "before": {}, "into": {}, "over": {}, "under": {},
	"more": {}, "most": {}, "some": {}, "such": {}, "also": {}, "very": {},
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type pexelsPhoto struct {
	ID  int64  `json:"id"`
	Alt string `json:"alt"`
	Src struct {
		Original string `json:"original"`
		Large2x  string `json:"large2x"`
		Large    string `json:"large"`
	} `json:"src"`
}

type pexelsSearchResponse struct {
	Photos []pexelsPhoto `json:"photos"`
}

// PexelsProvider はPexelsのストック写真検索でスライド画像を用意します。
// 候補をまとめて1回取得し、スライドごとに異なる写真を剰余で巡回させることで、
// 同じ写真が連続するのを避けます。
type PexelsProvider struct {
	apiKey     string
	httpClient httpDoer
}

func NewPexelsProvider(apiKey string, httpClient httpDoer) *PexelsProvider {
	return &PexelsProvider{apiKey: apiKey, httpClient: httpClient}
}

func (p *PexelsProvider) Source() string { return "pexels" }

func (p *PexelsProvider) Supports(payload domain.IntakePayload, _ []string) bool {
	return payload.ImageSource == domain.ImageSourcePexels && p.apiKey != ""
}

func (p *PexelsProvider) Generate(ctx context.Context, deck domain.SlideDeck, payload domain.IntakePayload, _ []string) ([]ImageContent, error) {
	query := strings.Join(payload.PromptKeywords, " ")
	if strings.TrimSpace(query) == "" {
		query = strings.Join(extractSearchKeywords(deck), " ")
	}
	if strings.TrimSpace(query) == "" {
		query = "news"
	}

	perPage := len(deck.Slides)
	if perPage < pexelsMinPhotos {
		perPage = pexelsMinPhotos
	}
	if perPage > pexelsMaxPerPage {
		perPage = pexelsMaxPerPage
	}

	photos, err := p.search(ctx, query, perPage)
	if err != nil {
		return nil, err
	}
	if len(photos) == 0 {
		return nil, fmt.Errorf("pexels search returned no photos for query %q", query)
	}

	var contents []ImageContent
	for i, slide := range deck.Slides {
		if slide.ImageURL != "" {
			continue
		}
		photo := photos[i%len(photos)]
		data, err := p.download(ctx, photoURL(photo))
		if err != nil {
			slog.WarnContext(ctx, "pexels photo download failed, skipping slide",
				"placeholder", slide.PlaceholderID, "photo_id", photo.ID, "error", err)
			continue
		}
		description := photo.Alt
		if description == "" {
			description = "Pexels photo for " + query
		}
		contents = append(contents, ImageContent{
			PlaceholderID: slide.PlaceholderID,
			Content:       data,
			Filename:      slide.PlaceholderID + ".jpg",
			Description:   description,
		})
	}
	return contents, nil
}

func (p *PexelsProvider) search(ctx context.Context, query string, perPage int) ([]pexelsPhoto, error) {
	endpoint := pexelsSearchURL + "?" + url.Values{
		"query":    {query},
		"per_page": {strconv.Itoa(perPage)},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build pexels request: %w", err)
	}
	req.Header.Set("Authorization", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pexels search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("pexels search returned status %d: %s", resp.StatusCode, string(body))
	}

	var result pexelsSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode pexels response: %w", err)
	}
	return result.Photos, nil
}

func (p *PexelsProvider) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("photo download returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func photoURL(photo pexelsPhoto) string {
	switch {
	case photo.Src.Large2x != "":
		return photo.Src.Large2x
	case photo.Src.Large != "":
		return photo.Src.Large
	default:
		return photo.Src.Original
	}
}

// extractSearchKeywords はスライド本文から検索語を1〜2個抽出します。
// 短語とストップワードを除き、長い語を優先します。
func extractSearchKeywords(deck domain.SlideDeck) []string {
	var text string
	for _, slide := range deck.Slides {
		if strings.TrimSpace(slide.Text) != "" {
			text = slide.Text
			break
		}
	}
	if text == "" {
		return nil
	}

	var candidates []string
	seen := map[string]struct{}{}
	for _, word := range promptWordRe.FindAllString(strings.ToLower(text), -1) {
		if len(word) < 4 {
			continue
		}
		if _, stop := pexelsStopWords[word]; stop {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		candidates = append(candidates, word)
	}

	if len(candidates) > 2 {
		candidates = candidates[:2]
	}
	return candidates
}
