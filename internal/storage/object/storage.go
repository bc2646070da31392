// Package object provides the S3-compatible object storage adapter (MinIO)
// and the verified temporary-to-permanent move protocol built on it.
package object

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/pixvault/pixvault/internal/storage"
)

// Folder names objects live in. Uploads land in Temporary via presigned PUT
// URLs and are promoted to Permanent on confirmation.
const (
	Temporary = "temporary"
	Permanent = "permanent"
)

// Metadata describes an object as seen by the store: hex MD5 ETag, content
// size and format (the subtype of the reported content type).
type Metadata struct {
	Hash   string
	Size   int64
	Format string
}

// Storage is an S3-compatible object store over two buckets. All methods
// translate not-found responses into storage.ErrObjectNotFound; other
// failures pass through.
type Storage struct {
	client    *minio.Client
	temporary string
	permanent string
	urlTTL    time.Duration
}

// NewStorage connects to the MinIO endpoint and ensures both buckets exist.
func NewStorage(ctx context.Context, endpoint, accessKey, secretKey string, useSSL bool, temporary, permanent string, urlTTL time.Duration) (*Storage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio client: %w", err)
	}

	s := &Storage{
		client:    client,
		temporary: temporary,
		permanent: permanent,
		urlTTL:    urlTTL,
	}

	for _, bucket := range []string{temporary, permanent} {
		if err := s.ensureBucket(ctx, bucket); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *Storage) ensureBucket(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check if bucket %s exists: %w", bucket, err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}

	return nil
}

func (s *Storage) bucket(folder string) string {
	if folder == Permanent {
		return s.permanent
	}
	return s.temporary
}

// PresignUploadURL mints a time-boxed presigned PUT URL for the given file
// ID in the given folder. Pure credential issuance, nothing is persisted.
func (s *Storage) PresignUploadURL(ctx context.Context, fileID, folder string) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, s.bucket(folder), fileID, s.urlTTL)
	if err != nil {
		return "", fmt.Errorf("failed to presign upload url for %s: %w", fileID, err)
	}

	return u.String(), nil
}

// PresignViewURL mints a time-boxed presigned GET URL for the given file ID.
func (s *Storage) PresignViewURL(ctx context.Context, fileID, folder string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket(folder), fileID, s.urlTTL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign view url for %s: %w", fileID, err)
	}

	return u.String(), nil
}

// GetMetadata stats the object. The second return reports presence: absence
// is an expected outcome during upload confirmation, not an error.
func (s *Storage) GetMetadata(ctx context.Context, fileID, folder string) (Metadata, bool, error) {
	info, err := s.client.StatObject(ctx, s.bucket(folder), fileID, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return Metadata{}, false, nil
		}
		return Metadata{}, false, fmt.Errorf("failed to stat object %s: %w", fileID, err)
	}

	return Metadata{
		Hash:   strings.Trim(info.ETag, `"`),
		Size:   info.Size,
		Format: formatFromContentType(info.ContentType),
	}, true, nil
}

// Exists reports whether an object is present in the folder.
func (s *Storage) Exists(ctx context.Context, fileID, folder string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket(folder), fileID, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object %s: %w", fileID, err)
	}

	return true, nil
}

// Copy issues a server-side copy between folders and returns the hash of
// the destination object as reported by the store.
func (s *Storage) Copy(ctx context.Context, fileID, srcFolder, destFolder string) (string, error) {
	info, err := s.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: s.bucket(destFolder), Object: fileID},
		minio.CopySrcOptions{Bucket: s.bucket(srcFolder), Object: fileID},
	)
	if err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("copy %s: %w", fileID, storage.ErrObjectNotFound)
		}
		return "", fmt.Errorf("failed to copy object %s: %w", fileID, err)
	}

	return strings.Trim(info.ETag, `"`), nil
}

// Delete removes a single object. Deleting an absent object is a no-op.
func (s *Storage) Delete(ctx context.Context, fileID, folder string) error {
	if err := s.client.RemoveObject(ctx, s.bucket(folder), fileID, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", fileID, err)
	}

	return nil
}

// DeleteAll removes the given objects from the folder.
func (s *Storage) DeleteAll(ctx context.Context, fileIDs []string, folder string) error {
	for _, fileID := range fileIDs {
		if err := s.Delete(ctx, fileID, folder); err != nil {
			return err
		}
	}

	return nil
}

// ListByPrefix returns the IDs of all objects under the prefix.
func (s *Storage) ListByPrefix(ctx context.Context, prefix, folder string) ([]string, error) {
	var fileIDs []string

	for info := range s.client.ListObjects(ctx, s.bucket(folder), minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if info.Err != nil {
			return nil, fmt.Errorf("failed to list objects by prefix %s: %w", prefix, info.Err)
		}
		fileIDs = append(fileIDs, info.Key)
	}

	return fileIDs, nil
}

// isNotFound translates the store's response codes once, at this boundary.
func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.StatusCode == http.StatusNotFound ||
		resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
}

// formatFromContentType extracts the file format from a MIME content type,
// e.g. "image/png" -> "png".
func formatFromContentType(contentType string) string {
	if i := strings.IndexByte(contentType, '/'); i >= 0 {
		return contentType[i+1:]
	}
	return contentType
}
