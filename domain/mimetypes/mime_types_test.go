package mimetypes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		declared string
		expected MIME
		want     bool
	}{
		{"Plain text with charset", "text/plain; charset=utf-8", TextPlain, true},
		{"PDF", "application/pdf", ApplicationPDF, true},
		{"PNG", "image/png", ImagePNG, true},
		{"JPEG", "image/jpeg", ImageJPEG, true},
		{"MP3", "audio/mpeg", AudioMPEG, true},
		{"MP4", "video/mp4", VideoMP4, true},
		{"Made up subtype", "image/not-a-real-type", Unknown, false},
		{"Invalid MIME", "not a mime", Unknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			got, ok := Normalize(tt.declared)
			req.Equal(tt.want, ok)
			req.Equal(tt.expected, got)
		})
	}
}

func TestKindOf(t *testing.T) {
	req := require.New(t)
	req.Equal(KindImage, KindOf(ImagePNG))
	req.Equal(KindAudio, KindOf(AudioOGG))
	req.Equal(KindVideo, KindOf(VideoMP4))
	req.Equal(KindDocument, KindOf(ApplicationPDF))
	req.Equal(KindDocument, KindOf(TextPlain))
	req.Equal(KindUnknown, KindOf(Unknown))
}

func TestDetect(t *testing.T) {
	req := require.New(t)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	req.Equal(ImagePNG, Detect(png))
	req.Equal(TextPlain, Detect([]byte("hola, esto es texto")))
}
