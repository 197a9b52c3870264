package imagefile

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"sitevis/internal/history"
)

var (
	ErrEmptyFile = errors.New("file is empty")
	ErrNotImage  = errors.New("file is not an image")
)

// Upload is a user-selected file as received: raw bytes plus the media type
// the client declared for it.
type Upload struct {
	Filename     string
	DeclaredType string
	Data         []byte
}

// Decode turns an upload into an ImageRef. Only image media types are
// accepted; when the content sniffs as an image its detected type is used.
func Decode(u Upload) (history.ImageRef, error) {
	if len(u.Data) == 0 {
		return history.ImageRef{}, ErrEmptyFile
	}
	detected := mimetype.Detect(u.Data).String()
	mediaType := baseType(detected)
	if !isImage(mediaType) {
		declared := baseType(u.DeclaredType)
		if !isImage(declared) {
			return history.ImageRef{}, fmt.Errorf("%w: %s", ErrNotImage, detected)
		}
		mediaType = declared
	}
	return history.NewImageRef(u.Data, mediaType), nil
}

// FromFileHeader reads a multipart file into an Upload, refusing files larger
// than maxBytes.
func FromFileHeader(fh *multipart.FileHeader, maxBytes int64) (Upload, error) {
	if maxBytes > 0 && fh.Size > maxBytes {
		return Upload{}, fmt.Errorf("file %s exceeds %d bytes", fh.Filename, maxBytes)
	}
	src, err := fh.Open()
	if err != nil {
		return Upload{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	r := io.Reader(src)
	if maxBytes > 0 {
		r = io.LimitReader(src, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Upload{}, fmt.Errorf("failed to read file: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return Upload{}, fmt.Errorf("file %s exceeds %d bytes", fh.Filename, maxBytes)
	}
	return Upload{
		Filename:     fh.Filename,
		DeclaredType: fh.Header.Get("Content-Type"),
		Data:         data,
	}, nil
}

func baseType(mediaType string) string {
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isImage(mediaType string) bool {
	return strings.HasPrefix(mediaType, "image/")
}
