package images

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"

	"ap-story-web/internal/domain"
)

// FileLoader はローカルパスの添付ファイルを読み込みます。テストで差し替え可能です。
type FileLoader func(path string) ([]byte, error)

// UploadProvider はユーザーが添付した画像をスライドに割り当てます。
//
// 添付はスライドに位置順でマップされ、添付が足りない場合は最後の1枚を
// 残りのスライドに繰り返し使います。余った添付は無視します。
//
// 添付の指定形式は3種類を認識します。
//   - http(s) URL: ダウンロードして保存します
//   - gs:// / s3:// URI: 保存済みとして扱い、再アップロードせずキーを引き継ぎます
//   - ローカルパス: ファイルを読み込んで保存します
type UploadProvider struct {
	httpClient httpDoer
	loader     FileLoader
}

func NewUploadProvider(httpClient httpDoer, loader FileLoader) *UploadProvider {
	if loader == nil {
		loader = os.ReadFile
	}
	return &UploadProvider{httpClient: httpClient, loader: loader}
}

func (u *UploadProvider) Source() string { return "custom" }

func (u *UploadProvider) Supports(payload domain.IntakePayload, _ []string) bool {
	return payload.ImageSource == domain.ImageSourceCustom && len(payload.Attachments) > 0
}

func (u *UploadProvider) Generate(ctx context.Context, deck domain.SlideDeck, payload domain.IntakePayload, _ []string) ([]ImageContent, error) {
	attachments := payload.Attachments
	if len(attachments) == 0 {
		return nil, nil
	}

	var contents []ImageContent
	for i, slide := range deck.Slides {
		if slide.ImageURL != "" {
			continue
		}
		attachment := attachments[min(i, len(attachments)-1)]
		content, err := u.toContent(ctx, slide.PlaceholderID, attachment)
		if err != nil {
			slog.WarnContext(ctx, "attachment could not be used, skipping slide",
				"placeholder", slide.PlaceholderID, "attachment", attachment, "error", err)
			continue
		}
		contents = append(contents, content)
	}
	return contents, nil
}

func (u *UploadProvider) toContent(ctx context.Context, placeholderID, attachment string) (ImageContent, error) {
	filename := path.Base(attachment)
	if filename == "" || filename == "." || filename == "/" {
		filename = placeholderID + ".upload"
	}

	switch {
	case strings.HasPrefix(attachment, "gs://"), strings.HasPrefix(attachment, "s3://"):
		key, err := objectKeyFromURI(attachment)
		if err != nil {
			return ImageContent{}, err
		}
		return ImageContent{
			PlaceholderID: placeholderID,
			Filename:      filename,
			Description:   "User uploaded image",
			PreStoredKey:  key,
		}, nil

	case strings.HasPrefix(attachment, "http://"), strings.HasPrefix(attachment, "https://"):
		data, err := u.downloadAttachment(ctx, attachment)
		if err != nil {
			return ImageContent{}, err
		}
		return ImageContent{
			PlaceholderID: placeholderID,
			Content:       data,
			Filename:      filename,
			Description:   "User uploaded image",
		}, nil

	default:
		data, err := u.loader(attachment)
		if err != nil {
			return ImageContent{}, fmt.Errorf("failed to read local attachment: %w", err)
		}
		return ImageContent{
			PlaceholderID: placeholderID,
			Content:       data,
			Filename:      filename,
			Description:   "User uploaded image",
		}, nil
	}
}

func (u *UploadProvider) downloadAttachment(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("attachment download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("attachment download returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// objectKeyFromURI は gs://bucket/key 形式のURIからオブジェクトキーを取り出します。
func objectKeyFromURI(uri string) (string, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(uri, "gs://"), "s3://")
	slash := strings.Index(trimmed, "/")
	if slash < 0 || slash == len(trimmed)-1 {
		return "", fmt.Errorf("storage URI %q has no object key", uri)
	}
	return trimmed[slash+1:], nil
}
