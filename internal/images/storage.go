package images

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/shouni/go-remote-io/pkg/remoteio"

	"ap-story-web/internal/domain"
)

// リサイズ変種の定義です。CDN側の画像変換サービスがこの寸法で配信します。
var resizeVariants = []struct {
	Name   string
	Width  int
	Height int
}{
	{"sm", 320, 180},
	{"md", 768, 432},
	{"lg", 1280, 720},
}

// RemoteStorage は画像をGCSへ保存し、CDN経由の変種URLを生成します。
//
// 変種URLは単純なパス連結ではなく、オブジェクトキーと寸法を符号化した
// トークンで表現します。CDN側はトークンを復号して変換対象を特定します。
// PreStoredKey を持つコンテンツはアップロードを省略し、既存キーを再利用します。
type RemoteStorage struct {
	writer  remoteio.OutputWriter
	bucket  string
	baseDir string
	cdnBase string
}

func NewRemoteStorage(writer remoteio.OutputWriter, bucket, baseDir, cdnBase string) *RemoteStorage {
	return &RemoteStorage{
		writer:  writer,
		bucket:  bucket,
		baseDir: strings.Trim(baseDir, "/"),
		cdnBase: strings.TrimRight(cdnBase, "/"),
	}
}

func (s *RemoteStorage) Store(ctx context.Context, content ImageContent, source string) (domain.ImageAsset, error) {
	key := content.PreStoredKey
	if key == "" {
		if len(content.Content) == 0 {
			return domain.ImageAsset{}, fmt.Errorf("image content for %s is empty", content.PlaceholderID)
		}
		key = path.Join(s.baseDir, "images", uuid.NewString(), content.Filename)
		objectURL := fmt.Sprintf("gs://%s/%s", s.bucket, key)
		if err := s.writer.Write(ctx, objectURL, bytes.NewReader(content.Content), contentTypeFor(content.Filename)); err != nil {
			return domain.ImageAsset{}, fmt.Errorf("failed to upload image %s: %w", content.PlaceholderID, err)
		}
	}

	variants := make([]string, 0, len(resizeVariants))
	for _, variant := range resizeVariants {
		variants = append(variants, EncodeResizeURL(s.cdnBase, s.bucket, key, variant.Width, variant.Height))
	}

	return domain.ImageAsset{
		Source:            source,
		OriginalObjectKey: key,
		ResizedVariants:   variants,
		Description:       content.Description,
	}, nil
}

// EncodeResizeURL はCDNの画像変換サービス向けの変種URLを生成します。
// 変換指示をJSONテンプレートとして符号化したトークンをパスに載せる方式で、
// 単純なパス連結ではありません。CDN側がトークンを復号して変換を実行します。
func EncodeResizeURL(cdnBase, bucket, key string, width, height int) string {
	template := map[string]any{
		"bucket": bucket,
		"key":    key,
		"edits": map[string]any{
			"resize": map[string]any{
				"width":  width,
				"height": height,
				"fit":    "cover",
			},
		},
	}
	data, err := json.Marshal(template)
	if err != nil {
		return strings.TrimRight(cdnBase, "/") + "/" + key
	}
	return strings.TrimRight(cdnBase, "/") + "/" + base64.URLEncoding.EncodeToString(data)
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}
