package media

import (
	"fmt"

	errs "storypark/pkg/errors"
)

// Kind is the media type reported by the stories endpoint
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// extensions is the closed table of content types the archiver knows how to name
var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"video/mp4":  ".mp4",
}

// SupportedKind reports whether entries of this type are archived at all
func SupportedKind(kind string) bool {
	switch Kind(kind) {
	case KindImage, KindVideo:
		return true
	default:
		return false
	}
}

// ExtensionFor resolves a content type to a file extension including the dot
func ExtensionFor(contentType string) (string, error) {
	ext, ok := extensions[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %q", errs.ErrUnsupportedContentType, contentType)
	}
	return ext, nil
}

// ContentTypes lists the supported content types
func ContentTypes() []string {
	return []string{"image/jpeg", "video/mp4"}
}
