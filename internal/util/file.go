package util

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DetectMimeType sniffs the content type from the leading bytes, without
// parameters (e.g. "audio/mpeg", not "text/plain; charset=utf-8").
func DetectMimeType(data []byte) string {
	mt := mimetype.Detect(data).String()
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}

func IsImage(mimeType string) bool {
	return strings.HasPrefix(mimeType, MimeImage)
}

// IsAudio also accepts the container types browsers record audio into.
func IsAudio(mimeType string) bool {
	if strings.HasPrefix(mimeType, MimeAudio) {
		return true
	}
	for _, container := range AudioContainers {
		if mimeType == container {
			return true
		}
	}
	return false
}
