// Package mimetypes maps attachment paths to a message content kind.
package mimetypes

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"wachat/domain"
)

var documentTypes = map[string]struct{}{
	"application/pdf":               {},
	"application/msword":            {},
	"application/vnd.ms-powerpoint": {},
	"application/vnd.ms-excel":      {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   {},
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         {},
}

var audioTypes = map[string]struct{}{
	"audio/aac":  {},
	"audio/mp4":  {},
	"audio/mpeg": {},
	"audio/amr":  {},
	"audio/ogg":  {},
}

var videoTypes = map[string]struct{}{
	"video/mp4": {},
	"video/3gp": {},
}

// Classify resolves the MIME type of an attachment path and maps it to
// a content kind. Anything attachment-like but unrecognized counts as a
// document.
func Classify(path string) domain.ContentKind {
	return FromMIME(Detect(path))
}

// Detect returns the media type of the file at path, without parameters.
// It sniffs the file content when the file is readable and falls back to
// an extension lookup otherwise (remote attachments are stored by path
// only, the bytes may not be local).
func Detect(path string) string {
	if mt, err := mimetype.DetectFile(path); err == nil {
		return mt.String()
	}
	detected := mime.TypeByExtension(filepath.Ext(path))
	if detected == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return ""
	}
	return mt
}

// FromMIME maps a bare media type to a content kind.
func FromMIME(mediaType string) domain.ContentKind {
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return domain.KindImage
	case contains(audioTypes, mediaType):
		return domain.KindAudio
	case contains(videoTypes, mediaType):
		return domain.KindVideo
	case contains(documentTypes, mediaType):
		return domain.KindDocument
	default:
		return domain.KindDocument
	}
}

func contains(set map[string]struct{}, mediaType string) bool {
	_, ok := set[mediaType]
	return ok
}
