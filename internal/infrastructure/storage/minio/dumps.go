// Package minio stores bulk catalog dumps.  An upstream exporter drops a
// dump object into the bucket and announces it on the catalog event stream;
// the sync worker fetches it from here and imports it.
package minio

import (
	"bytes"
	"context"
	"io"
	"time"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/turtacn/RxMatch-Intelligence/internal/config"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/RxMatch-Intelligence/pkg/errors"
)

// objectAPI is the slice of the MinIO SDK the dump store uses; tests
// substitute an in-memory fake.
type objectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts miniogo.MakeBucketOptions) error
	GetObject(ctx context.Context, bucketName, objectName string, opts miniogo.GetObjectOptions) (*miniogo.Object, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts miniogo.PutObjectOptions) (miniogo.UploadInfo, error)
	ListObjects(ctx context.Context, bucketName string, opts miniogo.ListObjectsOptions) <-chan miniogo.ObjectInfo
}

// DumpStore reads and writes catalog dump objects in a single bucket.
type DumpStore struct {
	api    objectAPI
	bucket string
	logger logging.Logger
}

// NewDumpStore connects to MinIO and ensures the dump bucket exists.
func NewDumpStore(cfg config.MinIOConfig, logger logging.Logger) (*DumpStore, error) {
	if cfg.Endpoint == "" {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "minio endpoint required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to create minio client")
	}

	store := &DumpStore{api: client, bucket: cfg.Bucket, logger: logger}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.ensureBucket(ctx); err != nil {
		return nil, err
	}

	logger.Info("MinIO dump store connected",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", cfg.Bucket))
	return store, nil
}

func (s *DumpStore) ensureBucket(ctx context.Context) error {
	exists, err := s.api.BucketExists(ctx, s.bucket)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeServiceUnavailable, "failed to probe dump bucket")
	}
	if exists {
		return nil
	}
	if err := s.api.MakeBucket(ctx, s.bucket, miniogo.MakeBucketOptions{}); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to create dump bucket")
	}
	return nil
}

// Fetch reads a dump object in full.
func (s *DumpStore) Fetch(ctx context.Context, objectName string) ([]byte, error) {
	obj, err := s.api.GetObject(ctx, s.bucket, objectName, miniogo.GetObjectOptions{})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to open dump object")
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		resp := miniogo.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return nil, apperrors.New(apperrors.ErrCodeNotFound, "dump object not found")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to read dump object")
	}
	return data, nil
}

// Put stores a dump object, returning its size.
func (s *DumpStore) Put(ctx context.Context, objectName string, data []byte) (int64, error) {
	info, err := s.api.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)),
		miniogo.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to store dump object")
	}
	return info.Size, nil
}

// List returns the object names under a prefix, oldest first.
func (s *DumpStore) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	for info := range s.api.ListObjects(ctx, s.bucket, miniogo.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if info.Err != nil {
			return nil, apperrors.Wrap(info.Err, apperrors.ErrCodeInternal, "dump listing failed")
		}
		names = append(names, info.Key)
	}
	return names, nil
}
