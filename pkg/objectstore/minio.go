// Package objectstore serves recordings exported to an S3 compatible bucket as a
// heuristic file source.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"github.com/minio/minio-go/v7"
	"meet-recording-sync/artifact"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
)

const durationMetadataKey = "duration-millis"

var videoExtensions = map[string]struct{}{
	".mp4":  {},
	".webm": {},
	".mkv":  {},
	".mov":  {},
}

type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewStore searches objects under prefix in bucket. Object keys act as artifact ids.
func NewStore(client *minio.Client, bucket, prefix string) *Store {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *Store) SearchFilesByNamePrefix(ctx context.Context, prefix string) ([]artifact.Candidate, error) {
	return s.list(ctx, "objectstore.search_by_name", 0, func(obj minio.ObjectInfo) bool {
		return strings.HasPrefix(path.Base(obj.Key), prefix)
	})
}

func (s *Store) SearchFilesByNameContains(ctx context.Context, text string) ([]artifact.Candidate, error) {
	return s.list(ctx, "objectstore.search_by_name", 0, func(obj minio.ObjectInfo) bool {
		return strings.Contains(path.Base(obj.Key), text)
	})
}

func (s *Store) SearchFilesByDateRange(ctx context.Context, start, end time.Time, limit int) ([]artifact.Candidate, error) {
	return s.list(ctx, "objectstore.search_by_date", limit, func(obj minio.ObjectInfo) bool {
		return !obj.LastModified.Before(start) && !obj.LastModified.After(end)
	})
}

func (s *Store) SearchFilesByProperty(ctx context.Context, key, value string) ([]artifact.Candidate, error) {
	return s.list(ctx, "objectstore.search_by_property", 0, func(obj minio.ObjectInfo) bool {
		v, ok := metadataValue(obj.UserMetadata, key)
		return ok && v == value
	})
}

func (s *Store) GetFileMetadata(ctx context.Context, fileId string) (*artifact.FileMetadata, error) {
	obj, err := s.client.StatObject(ctx, s.bucket, fileId, minio.StatObjectOptions{})
	if err != nil {
		return nil, classify("objectstore.stat", err)
	}

	c := s.objectCandidate(obj)
	properties := make(map[string]string, len(obj.UserMetadata))
	for k, v := range obj.UserMetadata {
		properties[normalizeKey(k)] = v
	}
	return &artifact.FileMetadata{
		ID:             c.ID,
		Name:           c.Name,
		URL:            c.URL,
		CreatedAt:      c.CreatedAt,
		DurationMillis: c.DurationMillis,
		SizeBytes:      c.SizeBytes,
		Properties:     properties,
	}, nil
}

// list scans the recording prefix, keeping video objects accepted by keep, newest first.
func (s *Store) list(ctx context.Context, op string, limit int, keep func(minio.ObjectInfo) bool) ([]artifact.Candidate, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var candidates []artifact.Candidate
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:       s.prefix,
		Recursive:    true,
		WithMetadata: true,
	})
	for obj := range objects {
		if obj.Err != nil {
			return nil, classify(op, obj.Err)
		}
		if !isVideo(obj.Key) || !keep(obj) {
			continue
		}
		candidates = append(candidates, s.objectCandidate(obj))
	}

	artifact.SortNewestFirst(candidates)
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func (s *Store) objectCandidate(obj minio.ObjectInfo) artifact.Candidate {
	c := artifact.Candidate{
		ID:        obj.Key,
		Name:      path.Base(obj.Key),
		URL:       s.objectURL(obj.Key),
		CreatedAt: obj.LastModified,
		Source:    artifact.SourceFileSearch,
	}
	if obj.Size > 0 {
		size := obj.Size
		c.SizeBytes = &size
	}
	if v, ok := metadataValue(obj.UserMetadata, durationMetadataKey); ok {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil && ms > 0 {
			c.DurationMillis = &ms
		}
	}
	return c
}

func (s *Store) objectURL(key string) string {
	endpoint := s.client.EndpointURL()
	u := url.URL{
		Scheme: endpoint.Scheme,
		Host:   endpoint.Host,
		Path:   "/" + s.bucket + "/" + key,
	}
	return u.String()
}

func isVideo(key string) bool {
	_, ok := videoExtensions[strings.ToLower(path.Ext(key))]
	return ok
}

// normalizeKey folds the spellings S3 gateways use for user metadata keys:
// X-Amz-Meta-Event-Id, Event_id and event-id all become event-id.
func normalizeKey(k string) string {
	k = strings.ToLower(k)
	k = strings.TrimPrefix(k, "x-amz-meta-")
	return strings.ReplaceAll(k, "_", "-")
}

func metadataValue(metadata map[string]string, key string) (string, bool) {
	want := normalizeKey(key)
	for k, v := range metadata {
		if normalizeKey(k) == want {
			return v, true
		}
	}
	return "", false
}

func classify(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" || resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w: %w", op, artifact.ErrNotFound, err)
	case resp.Code == "AccessDenied" || resp.Code == "InvalidAccessKeyId" || resp.Code == "SignatureDoesNotMatch" ||
		resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s: %w: %w", op, artifact.ErrAuthentication, err)
	case resp.Code == "SlowDown" || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w: %w", op, artifact.ErrQuotaExceeded, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, artifact.ErrTransientIO, err)
	}
}
