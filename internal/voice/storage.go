package voice

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/shouni/go-remote-io/pkg/remoteio"

	"ap-story-web/internal/domain"
)

// RemoteStorage は合成音声をGCSへ保存し、CDN経由のURLを返します。
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

func (s *RemoteStorage) Store(ctx context.Context, audio GenerationResult) (domain.VoiceAsset, error) {
	if len(audio.Audio) == 0 {
		return domain.VoiceAsset{}, fmt.Errorf("audio content is empty")
	}

	key := path.Join(s.baseDir, "audio", uuid.NewString()+"."+audio.Format)
	objectURL := fmt.Sprintf("gs://%s/%s", s.bucket, key)
	if err := s.writer.Write(ctx, objectURL, bytes.NewReader(audio.Audio), contentTypeForAudio(audio.Format)); err != nil {
		return domain.VoiceAsset{}, fmt.Errorf("failed to upload audio: %w", err)
	}

	return domain.VoiceAsset{
		Provider: audio.Provider,
		VoiceID:  audio.VoiceID,
		AudioURL: s.cdnBase + "/" + key,
	}, nil
}

func contentTypeForAudio(format string) string {
	switch strings.ToLower(format) {
	case "wav":
		return "audio/wav"
	case "ogg":
		return "audio/ogg"
	default:
		return "audio/mpeg"
	}
}
