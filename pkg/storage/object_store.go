package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore fetches uploaded tender files by storage key. Uploads are
// written by the document-management surface outside this core; ingestion
// only reads.
type ObjectStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// MinioStore implements ObjectStore for MinIO/S3 compatible storage.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects to MinIO and verifies the bucket exists.
func NewMinioStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %q not found", bucket)
	}
	return &MinioStore{client: client, bucket: bucket}, nil
}

// Get downloads an object in full.
func (m *MinioStore) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	return data, nil
}

// FileStore reads documents from the local filesystem. Used when no object
// store endpoint is configured.
type FileStore struct {
	root string
}

// NewFileStore creates a store rooted at dir ("" means paths are absolute
// or relative to the working directory).
func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

// Get reads the file at key beneath the store root.
func (f *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	path := key
	if f.root != "" {
		path = f.root + string(os.PathSeparator) + key
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}
