package storage

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ErrInvalidImage is returned when an image payload cannot be decoded or is
// not one of the accepted formats.
var ErrInvalidImage = errors.New("invalid image")

var imageExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Image is a decoded upload.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

// DecodeDataURI parses "data:image/<type>;base64,<payload>". The declared
// type must match the sniffed content.
func DecodeDataURI(uri string) (*Image, error) {
	header, payload, ok := strings.Cut(strings.TrimSpace(uri), ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("%w: expected a base64 data URI", ErrInvalidImage)
	}
	declared := strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64"))
	if declared == "image/jpg" {
		declared = "image/jpeg"
	}
	ext, ok := imageExtensions[declared]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidImage, declared)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}
	if sniffed := mimetype.Detect(data); !sniffed.Is(declared) {
		return nil, fmt.Errorf("%w: content is %s, declared %s", ErrInvalidImage, sniffed.String(), declared)
	}

	return &Image{Data: data, ContentType: declared, Ext: ext}, nil
}

// NewImageKey returns a fresh object key for a recipe image.
func NewImageKey(ext string) string {
	return "recipes/" + uuid.NewString() + "." + ext
}
