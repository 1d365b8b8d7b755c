package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
)

// ObjectStore is the subset of *minio.Client used for flyer assets.
type ObjectStore interface {
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucket, object string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
}

// upload stores data under object and returns nothing but the error; objects are served
// through presigned URLs only.
func upload(ctx context.Context, store ObjectStore, bucket, object, contentType string, data []byte) error {
	_, err := store.PutObject(ctx, bucket, object, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("PutObject %s/%s: %w", bucket, object, err)
	}
	return nil
}
