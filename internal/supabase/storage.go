package supabase

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	storage "github.com/supabase-community/storage-go"
	"sitevis/internal/history"
)

// StorageClient uploads exported snapshots to a bucket. Exports are share
// artifacts only; nothing is read back from the bucket.
type StorageClient struct {
	apiKey  string
	bucket  string
	baseURL string
	now     func() time.Time
}

// Export describes one uploaded snapshot.
type Export struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

func NewStorageClient(supabaseURL, apiKey, bucket string) (*StorageClient, error) {
	baseURL := strings.TrimSuffix(supabaseURL, "/")
	if baseURL == "" || bucket == "" {
		return nil, fmt.Errorf("supabase url and storage bucket are required")
	}
	return &StorageClient{
		apiKey:  apiKey,
		bucket:  bucket,
		baseURL: baseURL,
		now:     time.Now,
	}, nil
}

// ExportSnapshot uploads a saved version under
// users/{owner}/projects/{project}/ and returns its public URL.
func (s *StorageClient) ExportSnapshot(ownerID string, projectID uuid.UUID, name string, image history.ImageRef) (Export, error) {
	data, err := image.Bytes()
	if err != nil {
		return Export{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	filename := fmt.Sprintf("%s-%d%s", slug(name), s.now().Unix(), extension(image.MediaType))
	storagePath := projectPrefix(ownerID, projectID) + filename

	contentType := image.MediaType
	upsert := true
	_, err = s.storage().UploadFile(s.bucket, storagePath, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return Export{}, fmt.Errorf("failed to upload file: %w", err)
	}

	return Export{Path: storagePath, URL: s.GetPublicURL(storagePath)}, nil
}

func (s *StorageClient) GetPublicURL(storagePath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s",
		s.baseURL, s.bucket, storagePath)
}

// DeleteProjectFiles removes every export of a project.
func (s *StorageClient) DeleteProjectFiles(ownerID string, projectID uuid.UUID) error {
	prefix := projectPrefix(ownerID, projectID)

	client := s.storage()
	files, err := client.ListFiles(s.bucket, prefix, storage.FileSearchOptions{
		Limit: 1000,
	})
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}
	if len(files) == 0 {
		return nil
	}

	// Listed names are relative to the prefix.
	filePaths := make([]string, len(files))
	for i, file := range files {
		filePaths[i] = prefix + file.Name
	}
	if _, err := client.RemoveFile(s.bucket, filePaths); err != nil {
		return fmt.Errorf("failed to delete files: %w", err)
	}
	return nil
}

// storage returns a fresh storage-go client. Upload options are stored in
// client-wide headers and would otherwise leak into later calls.
func (s *StorageClient) storage() *storage.Client {
	return storage.NewClient(s.baseURL+"/storage/v1", s.apiKey, nil)
}

func projectPrefix(ownerID string, projectID uuid.UUID) string {
	return fmt.Sprintf("users/%s/projects/%s/", ownerID, projectID.String())
}

func extension(mediaType string) string {
	if m := mimetype.Lookup(mediaType); m != nil && m.Extension() != "" {
		return m.Extension()
	}
	return ".png"
}

func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "version"
	}
	return out
}
