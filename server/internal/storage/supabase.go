package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"experiment-go/server/internal/config"

	storage_go "github.com/supabase-community/storage-go"
)

const jsonContentType = "application/json"

// objectClient is the part of the storage-go client used here.
type objectClient interface {
	UploadFile(bucketID string, relativePath string, data io.Reader, fileOptions ...storage_go.FileOptions) (storage_go.FileUploadResponse, error)
}

// SupabaseStore uploads session files to a Supabase storage bucket.
type SupabaseStore struct {
	client objectClient
	bucket string
}

// NewSupabaseStore builds a store for the configured project. cfg.URL is the
// project URL, e.g. https://xyz.supabase.co.
func NewSupabaseStore(cfg config.SupabaseConfig) *SupabaseStore {
	endpoint := strings.TrimRight(cfg.URL, "/") + "/storage/v1"
	client := storage_go.NewClient(endpoint, cfg.ServiceKey, map[string]string{
		"apikey": cfg.ServiceKey,
	})
	return &SupabaseStore{client: client, bucket: cfg.Bucket}
}

// Upload writes the file as JSON, replacing any previous upload of the same name.
// The storage client has no context support, so ctx is only checked up front.
func (s *SupabaseStore) Upload(ctx context.Context, name string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	contentType := jsonContentType
	upsert := true
	_, err := s.client.UploadFile(s.bucket, name, bytes.NewReader(content), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return fmt.Errorf("uploading %s to bucket %s: %w", name, s.bucket, err)
	}
	return nil
}
