package images

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	writes []fakeWrite
	err    error
}

type fakeWrite struct {
	url         string
	contentType string
	size        int
}

func (w *fakeWriter) Write(_ context.Context, outputURL string, reader io.Reader, contentType string) error {
	if w.err != nil {
		return w.err
	}
	data, _ := io.ReadAll(reader)
	w.writes = append(w.writes, fakeWrite{url: outputURL, contentType: contentType, size: len(data)})
	return nil
}

func TestStore_UploadsAndBuildsVariants(t *testing.T) {
	writer := &fakeWriter{}
	storage := NewRemoteStorage(writer, "story-bucket", "/stories/", "https://cdn.example.com/")

	asset, err := storage.Store(context.Background(), ImageContent{
		PlaceholderID: "slide_1",
		Content:       []byte{0xFF, 0xD8, 0xFF},
		Filename:      "slide.jpg",
		Description:   "sunrise over mountains",
	}, "pexels")
	require.NoError(t, err)

	require.Len(t, writer.writes, 1)
	assert.True(t, strings.HasPrefix(writer.writes[0].url, "gs://story-bucket/stories/images/"), writer.writes[0].url)
	assert.Equal(t, "image/jpeg", writer.writes[0].contentType)
	assert.Equal(t, 3, writer.writes[0].size)

	assert.Equal(t, "pexels", asset.Source)
	assert.Equal(t, "sunrise over mountains", asset.Description)
	assert.True(t, strings.HasPrefix(asset.OriginalObjectKey, "stories/images/"))
	assert.Len(t, asset.ResizedVariants, 3)
}

func TestStore_PreStoredKeySkipsUpload(t *testing.T) {
	writer := &fakeWriter{}
	storage := NewRemoteStorage(writer, "story-bucket", "stories", "https://cdn.example.com")

	asset, err := storage.Store(context.Background(), ImageContent{
		PlaceholderID: "slide_2",
		PreStoredKey:  "stories/images/existing/slide.png",
	}, "upload")
	require.NoError(t, err)

	assert.Empty(t, writer.writes)
	assert.Equal(t, "stories/images/existing/slide.png", asset.OriginalObjectKey)
	assert.Len(t, asset.ResizedVariants, 3)
}

func TestStore_EmptyContentRejected(t *testing.T) {
	storage := NewRemoteStorage(&fakeWriter{}, "story-bucket", "stories", "https://cdn.example.com")

	_, err := storage.Store(context.Background(), ImageContent{PlaceholderID: "slide_3", Filename: "x.png"}, "ai")
	assert.Error(t, err)
}

func TestEncodeResizeURL_TokenDecodesToTemplate(t *testing.T) {
	encoded := EncodeResizeURL("https://cdn.example.com/", "story-bucket", "stories/images/a/b.jpg", 768, 432)

	require.True(t, strings.HasPrefix(encoded, "https://cdn.example.com/"))
	token := strings.TrimPrefix(encoded, "https://cdn.example.com/")

	decoded, err := base64.URLEncoding.DecodeString(token)
	require.NoError(t, err)

	var template map[string]any
	require.NoError(t, json.Unmarshal(decoded, &template))
	assert.Equal(t, "story-bucket", template["bucket"])
	assert.Equal(t, "stories/images/a/b.jpg", template["key"])

	edits := template["edits"].(map[string]any)
	resize := edits["resize"].(map[string]any)
	assert.Equal(t, float64(768), resize["width"])
	assert.Equal(t, float64(432), resize["height"])
	assert.Equal(t, "cover", resize["fit"])
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "image/png", contentTypeFor("a.PNG"))
	assert.Equal(t, "image/webp", contentTypeFor("b.webp"))
	assert.Equal(t, "image/jpeg", contentTypeFor("c.jpg"))
	assert.Equal(t, "image/jpeg", contentTypeFor("noext"))
}
