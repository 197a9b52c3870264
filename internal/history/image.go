package history

import (
	"encoding/base64"
	"fmt"
)

// ImageRef is an encoded image held in memory. Values are never mutated in
// place; every edit produces a new ImageRef.
type ImageRef struct {
	Data      string `json:"data"`
	MediaType string `json:"media_type"`
}

// NewImageRef encodes raw image bytes into a text-safe ImageRef.
func NewImageRef(raw []byte, mediaType string) ImageRef {
	return ImageRef{
		Data:      base64.StdEncoding.EncodeToString(raw),
		MediaType: mediaType,
	}
}

// Bytes decodes the image payload back into binary form.
func (r ImageRef) Bytes() ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(r.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image data: %w", err)
	}
	return raw, nil
}

// DataURL returns the data: URL form browsers can display directly.
func (r ImageRef) DataURL() string {
	return "data:" + r.MediaType + ";base64," + r.Data
}

// IsZero reports whether the reference holds no image.
func (r ImageRef) IsZero() bool {
	return r.Data == "" && r.MediaType == ""
}
