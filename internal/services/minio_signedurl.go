package services

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// SignedURL generates a time-limited download link for an object.
func SignedURL(ctx context.Context, store ObjectStore, bucket, object string, duration time.Duration) (string, error) {
	reqParams := make(url.Values)
	reqParams.Set("response-content-disposition", fmt.Sprintf("inline; filename=%q", lastSegment(object)))

	presigned, err := store.PresignedGetObject(ctx, bucket, object, duration, reqParams)
	if err != nil {
		return "", fmt.Errorf("PresignedGetObject %s/%s: %w", bucket, object, err)
	}
	return presigned.String(), nil
}

func lastSegment(object string) string {
	for i := len(object) - 1; i >= 0; i-- {
		if object[i] == '/' {
			return object[i+1:]
		}
	}
	return object
}
