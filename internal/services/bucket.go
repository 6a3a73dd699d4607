package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/docforge/docforge-backend/internal/logger"
	"github.com/docforge/docforge-backend/internal/utils"
)

type BucketCategory string

const (
	BucketCategoryTemplate  BucketCategory = "template"
	BucketCategoryGenerated BucketCategory = "generated"
)

type BucketService interface {
	UploadFile(ctx context.Context, category BucketCategory, key string, file io.Reader, contentType string) error
	DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error)
	DeleteFile(ctx context.Context, category BucketCategory, key string) error
}

type bucketService struct {
	log             *logger.Logger
	storageClient   *storage.Client
	templateBucket  string
	generatedBucket string
}

func NewBucketService(log *logger.Logger) (BucketService, error) {
	serviceLog := log.With("service", "BucketService")

	templateBucket := utils.GetEnv("TEMPLATE_GCS_BUCKET_NAME", "", serviceLog)
	generatedBucket := utils.GetEnv("GENERATED_GCS_BUCKET_NAME", "", serviceLog)
	if templateBucket == "" {
		return nil, fmt.Errorf("missing env var TEMPLATE_GCS_BUCKET_NAME")
	}
	if generatedBucket == "" {
		return nil, fmt.Errorf("missing env var GENERATED_GCS_BUCKET_NAME")
	}

	saPath := utils.GetEnv("GOOGLE_APPLICATION_CREDENTIALS_JSON", "", serviceLog)
	ctx := context.Background()
	var stClient *storage.Client
	var err error
	if saPath != "" {
		stClient, err = storage.NewClient(ctx, option.WithCredentialsFile(saPath), option.WithScopes(storage.ScopeReadWrite))
	} else {
		stClient, err = storage.NewClient(ctx, option.WithScopes(storage.ScopeReadWrite))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &bucketService{
		log:             serviceLog,
		storageClient:   stClient,
		templateBucket:  templateBucket,
		generatedBucket: generatedBucket,
	}, nil
}

func (bs *bucketService) bucketName(category BucketCategory) (string, error) {
	switch category {
	case BucketCategoryTemplate:
		return bs.templateBucket, nil
	case BucketCategoryGenerated:
		return bs.generatedBucket, nil
	default:
		return "", fmt.Errorf("unknown bucket category: %s", category)
	}
}

func (bs *bucketService) UploadFile(ctx context.Context, category BucketCategory, key string, file io.Reader, contentType string) error {
	name, err := bs.bucketName(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := bs.storageClient.Bucket(name).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

// readCloserWithCancel keeps the download context alive for the life of the
// reader. Cancelling before the caller finishes reading aborts the stream,
// so the cancel runs on Close instead.
type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}

func (bs *bucketService) DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error) {
	name, err := bs.bucketName(category)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 1*time.Minute)

	r, err := bs.storageClient.Bucket(name).Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		cancel()
		return nil, ErrObjectNotFound
	}
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open GCS object %q: %w", key, err)
	}
	return &readCloserWithCancel{ReadCloser: r, cancel: cancel}, nil
}

// DeleteFile is idempotent; deleting a missing key is not an error.
func (bs *bucketService) DeleteFile(ctx context.Context, category BucketCategory, key string) error {
	name, err := bs.bucketName(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	o := bs.storageClient.Bucket(name).Object(key)
	if err := o.Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil
		}
		return fmt.Errorf("failed to delete GCS object %q: %w", key, err)
	}
	return nil
}
