// Package minio stores uploaded images in an S3-compatible bucket.
package minio

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/sakif/travel-journal/internal/media"
)

// minioAPI is the subset of *minio.Client the store calls, so tests can run
// without a MinIO server.
type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

type clientWrapper struct{ c *minio.Client }

func (w clientWrapper) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return w.c.BucketExists(ctx, bucketName)
}
func (w clientWrapper) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return w.c.MakeBucket(ctx, bucketName, opts)
}
func (w clientWrapper) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return w.c.PutObject(ctx, bucketName, objectName, reader, objectSize, opts)
}
func (w clientWrapper) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	obj, err := w.c.GetObject(ctx, bucketName, objectName, opts)
	if err != nil {
		return nil, err
	}
	return obj, nil
}
func (w clientWrapper) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	return w.c.RemoveObject(ctx, bucketName, objectName, opts)
}
func (w clientWrapper) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	return w.c.StatObject(ctx, bucketName, objectName, opts)
}

var _ media.Store = (*Store)(nil)

type Store struct {
	api    minioAPI
	bucket string
}

// Options configures a connection to a MinIO (or any S3-compatible) server.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// New connects to the server described by opts and makes sure the bucket
// exists.
func New(ctx context.Context, opts Options) (*Store, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: creating client: %w", err)
	}
	return newWithAPI(ctx, clientWrapper{c: client}, opts.Bucket)
}

func newWithAPI(ctx context.Context, api minioAPI, bucket string) (*Store, error) {
	s := &Store{api: api, bucket: bucket}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("minio: ensuring bucket %s: %w", bucket, err)
	}
	return s, nil
}

func (s *Store) ensureBucket(ctx context.Context) error {
	exists, err := s.api.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("checking bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.api.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("creating bucket: %w", err)
	}
	return nil
}

func (s *Store) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	if !media.ValidName(name) {
		return media.ErrInvalidName
	}
	_, err := s.api.PutObject(ctx, s.bucket, name, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("minio: uploading %s: %w", name, err)
	}
	return nil
}

// Open stats the object first: GetObject is lazy and would only report a
// missing key on the first Read.
func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	exists, err := s.exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, media.ErrNotExist
	}

	obj, err := s.api.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("minio: getting %s: %w", name, err)
	}
	return obj, nil
}

// Remove reports false for a missing object. S3 deletes are idempotent, so
// existence has to be checked separately.
func (s *Store) Remove(ctx context.Context, name string) (bool, error) {
	exists, err := s.exists(ctx, name)
	if err != nil || !exists {
		return false, err
	}

	if err := s.api.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return false, fmt.Errorf("minio: removing %s: %w", name, err)
	}
	return true, nil
}

func (s *Store) exists(ctx context.Context, name string) (bool, error) {
	if !media.ValidName(name) {
		return false, nil
	}
	_, err := s.api.StatObject(ctx, s.bucket, name, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("minio: stat %s: %w", name, err)
	}
	return true, nil
}
