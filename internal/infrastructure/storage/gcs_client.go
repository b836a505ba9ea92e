package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"lostfound/pkg/logger"
)

const (
	gcsPrefix      = "https://storage.googleapis.com/"
	firebasePrefix = "https://firebasestorage.googleapis.com/v0/b/"
	photoFolder    = "reports"
)

// CloudStorageClient stores report photos in one bucket.
type CloudStorageClient struct {
	client     *storage.Client
	bucketName string
}

func NewCloudStorageClient(ctx context.Context, bucketName string, opts ...option.ClientOption) (*CloudStorageClient, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %v", err)
	}

	storageClient := &CloudStorageClient{
		client:     client,
		bucketName: bucketName,
	}

	if err := storageClient.setBucketCORS(ctx); err != nil {
		logger.Warn("Failed to set CORS configuration: %v", err)
	}

	return storageClient, nil
}

// The dashboard loads photos straight from the bucket.
func (c *CloudStorageClient) setBucketCORS(ctx context.Context) error {
	bucket := c.client.Bucket(c.bucketName)

	attrs, err := bucket.Attrs(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bucket attributes: %v", err)
	}
	if len(attrs.CORS) > 0 {
		return nil
	}

	_, err = bucket.Update(ctx, storage.BucketAttrsToUpdate{
		CORS: []storage.CORS{{
			MaxAge:          time.Hour,
			Methods:         []string{"GET", "HEAD"},
			Origins:         []string{"*"},
			ResponseHeaders: []string{"Content-Type"},
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to update bucket CORS: %v", err)
	}
	return nil
}

func (c *CloudStorageClient) UploadPhoto(ctx context.Context, file io.Reader, contentType string) (string, error) {
	filename := fmt.Sprintf("%s/%s-%s%s", photoFolder, uuid.New().String(), time.Now().Format("20060102150405"), extension(contentType))

	obj := c.client.Bucket(c.bucketName).Object(filename)
	wc := obj.NewWriter(ctx)
	wc.ContentType = contentType
	wc.CacheControl = "public, max-age=86400"

	if _, err := io.Copy(wc, file); err != nil {
		wc.Close()
		return "", fmt.Errorf("failed to copy file to GCS: %v", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %v", err)
	}

	if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		return "", fmt.Errorf("failed to set ACL: %v", err)
	}

	return gcsPrefix + c.bucketName + "/" + filename, nil
}

func (c *CloudStorageClient) DeletePhoto(ctx context.Context, fileURL string) error {
	name, ok := objectName(c.bucketName, fileURL)
	if !ok {
		return fmt.Errorf("url is not an object in bucket %s", c.bucketName)
	}

	err := c.client.Bucket(c.bucketName).Object(name).Delete(ctx)
	if err != nil && err != storage.ErrObjectNotExist {
		return fmt.Errorf("failed to delete file: %v", err)
	}
	return nil
}

func (c *CloudStorageClient) OwnsURL(fileURL string) bool {
	_, ok := objectName(c.bucketName, fileURL)
	return ok
}

func (c *CloudStorageClient) Close() error {
	return c.client.Close()
}

// objectName extracts the object path from a public GCS URL or a Firebase
// download URL pointing into bucket.
func objectName(bucket, fileURL string) (string, bool) {
	switch {
	case strings.HasPrefix(fileURL, gcsPrefix):
		path := strings.TrimPrefix(fileURL, gcsPrefix)
		parts := strings.SplitN(path, "/", 2)
		if len(parts) != 2 || parts[0] != bucket || parts[1] == "" {
			return "", false
		}
		name := parts[1]
		if i := strings.IndexByte(name, '?'); i >= 0 {
			name = name[:i]
		}
		return name, name != ""

	case strings.HasPrefix(fileURL, firebasePrefix):
		u, err := url.Parse(fileURL)
		if err != nil {
			return "", false
		}
		// /v0/b/<bucket>/o/<escaped object>
		parts := strings.SplitN(strings.TrimPrefix(u.EscapedPath(), "/v0/b/"), "/o/", 2)
		if len(parts) != 2 || parts[0] != bucket {
			return "", false
		}
		name, err := url.PathUnescape(parts[1])
		if err != nil || name == "" {
			return "", false
		}
		return name, true
	}
	return "", false
}

func extension(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return ".bin"
}
