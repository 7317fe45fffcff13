package mimetypes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"wachat/domain"
)

func TestFromMIME(t *testing.T) {
	tests := []struct {
		name      string
		mediaType string
		want      domain.ContentKind
	}{
		{"PNG image", "image/png", domain.KindImage},
		{"WebP image", "image/webp", domain.KindImage},
		{"Any image subtype", "image/x-custom", domain.KindImage},
		{"PDF", "application/pdf", domain.KindDocument},
		{"Word document", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", domain.KindDocument},
		{"MP3 audio", "audio/mpeg", domain.KindAudio},
		{"Voice note", "audio/ogg", domain.KindAudio},
		{"MP4 video", "video/mp4", domain.KindVideo},
		{"Unrecognized attachment", "application/octet-stream", domain.KindDocument},
		{"Unlisted audio codec", "audio/flac", domain.KindDocument},
		{"Empty media type", "", domain.KindDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, FromMIME(tt.mediaType))
		})
	}
}

func TestDetect_SniffsFileContent(t *testing.T) {
	req := require.New(t)
	// A minimal PNG signature is enough for content sniffing.
	path := filepath.Join(t.TempDir(), "attachment.bin")
	req.NoError(os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n"), 0o644))

	req.Equal("image/png", Detect(path))
	req.Equal(domain.KindImage, Classify(path))
}

func TestDetect_FallsBackToExtension(t *testing.T) {
	req := require.New(t)

	// The file does not exist, only the extension can answer.
	req.Equal("image/png", Detect("/files/missing.png"))
	req.Equal("application/pdf", Detect("/files/missing.pdf"))
	req.Equal("", Detect("/files/missing.xyz"))

	req.Equal(domain.KindImage, Classify("/files/missing.png"))
	req.Equal(domain.KindDocument, Classify("/files/missing.xyz"))
}
