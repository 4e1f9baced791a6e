package mimetypes

import (
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

type MIME string

const (
	Unknown   MIME = "unknown"
	TextPlain MIME = "text/plain"

	ApplicationPDF MIME = "application/pdf"

	ImagePNG  MIME = "image/png"
	ImageJPEG MIME = "image/jpeg"
	ImageWebP MIME = "image/webp"

	AudioMPEG MIME = "audio/mpeg"
	AudioOGG  MIME = "audio/ogg"
	VideoMP4  MIME = "video/mp4"
)

// Kind is the coarse attachment family shown to users and stored on messages.
type Kind string

const (
	KindImage    Kind = "image"
	KindAudio    Kind = "audio"
	KindVideo    Kind = "video"
	KindDocument Kind = "document"
	KindUnknown  Kind = "unknown"
)

// Normalize strips parameters from a declared content type and checks that the
// type is one the MIME detector knows about. Unknown types return false.
func Normalize(declared string) (MIME, bool) {
	mt, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return Unknown, false
	}
	if mimetype.Lookup(mt) == nil {
		return Unknown, false
	}
	return MIME(mt), true
}

// Detect sniffs the MIME type from the first bytes of a payload.
func Detect(payload []byte) MIME {
	detected := mimetype.Detect(payload)
	mt, _, err := mime.ParseMediaType(detected.String())
	if err != nil {
		return Unknown
	}
	return MIME(mt)
}

// KindOf maps a MIME type onto its attachment family.
func KindOf(m MIME) Kind {
	s := string(m)
	switch {
	case strings.HasPrefix(s, "image/"):
		return KindImage
	case strings.HasPrefix(s, "audio/"):
		return KindAudio
	case strings.HasPrefix(s, "video/"):
		return KindVideo
	case strings.HasPrefix(s, "application/"), strings.HasPrefix(s, "text/"):
		return KindDocument
	default:
		return KindUnknown
	}
}
