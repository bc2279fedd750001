package google

import (
	"context"
	"fmt"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"meet-recording-sync/artifact"
	"strings"
	"time"
)

const (
	driveFileFields    = "id,name,mimeType,createdTime,webViewLink,size,videoMediaMetadata,properties"
	driveListFields    = googleapi.Field("nextPageToken,files(" + driveFileFields + ")")
	driveSearchSize    = 50
	driveVideoFilter   = "mimeType contains 'video/' and trashed = false"
	driveOrderNewest   = "createdTime desc"
	driveViewURLFormat = "https://drive.google.com/file/d/%s/view"
)

var driveQueryEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// DriveSource searches the shared Drive for recorded meeting videos.
type DriveSource struct {
	service *drive.Service
}

func NewDriveSource(ctx context.Context, opts ...option.ClientOption) (*DriveSource, error) {
	service, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive client: %w", err)
	}
	return &DriveSource{service: service}, nil
}

func (d *DriveSource) SearchFilesByNamePrefix(ctx context.Context, prefix string) ([]artifact.Candidate, error) {
	return d.search(ctx, "drive.search_by_name", fmt.Sprintf("name contains '%s'", quote(prefix)), driveSearchSize)
}

func (d *DriveSource) SearchFilesByNameContains(ctx context.Context, text string) ([]artifact.Candidate, error) {
	return d.search(ctx, "drive.search_by_name", fmt.Sprintf("name contains '%s'", quote(text)), driveSearchSize)
}

func (d *DriveSource) SearchFilesByDateRange(ctx context.Context, start, end time.Time, limit int) ([]artifact.Candidate, error) {
	q := fmt.Sprintf("createdTime >= '%s' and createdTime <= '%s'",
		start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
	return d.search(ctx, "drive.search_by_date", q, int64(limit))
}

func (d *DriveSource) SearchFilesByProperty(ctx context.Context, key, value string) ([]artifact.Candidate, error) {
	q := fmt.Sprintf("properties has { key='%s' and value='%s' }", quote(key), quote(value))
	return d.search(ctx, "drive.search_by_property", q, driveSearchSize)
}

func (d *DriveSource) GetFileMetadata(ctx context.Context, fileId string) (*artifact.FileMetadata, error) {
	f, err := d.service.Files.Get(fileId).
		Fields(googleapi.Field(driveFileFields)).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify("drive.get_file", err)
	}

	c := fileCandidate(f)
	return &artifact.FileMetadata{
		ID:             c.ID,
		Name:           c.Name,
		URL:            c.URL,
		CreatedAt:      c.CreatedAt,
		DurationMillis: c.DurationMillis,
		SizeBytes:      c.SizeBytes,
		Properties:     f.Properties,
	}, nil
}

func (d *DriveSource) search(ctx context.Context, op, query string, limit int64) ([]artifact.Candidate, error) {
	list, err := d.service.Files.List().
		Q(query + " and " + driveVideoFilter).
		OrderBy(driveOrderNewest).
		PageSize(limit).
		Fields(driveListFields).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify(op, err)
	}

	candidates := make([]artifact.Candidate, 0, len(list.Files))
	for _, f := range list.Files {
		candidates = append(candidates, fileCandidate(f))
	}
	return candidates, nil
}

func fileCandidate(f *drive.File) artifact.Candidate {
	c := artifact.Candidate{
		ID:     f.Id,
		Name:   f.Name,
		URL:    f.WebViewLink,
		Source: artifact.SourceFileSearch,
	}
	if c.URL == "" && f.Id != "" {
		c.URL = fmt.Sprintf(driveViewURLFormat, f.Id)
	}
	if t, err := time.Parse(time.RFC3339, f.CreatedTime); err == nil {
		c.CreatedAt = t
	}
	if f.VideoMediaMetadata != nil && f.VideoMediaMetadata.DurationMillis > 0 {
		d := f.VideoMediaMetadata.DurationMillis
		c.DurationMillis = &d
	}
	if f.Size > 0 {
		s := f.Size
		c.SizeBytes = &s
	}
	return c
}

func quote(s string) string {
	return driveQueryEscaper.Replace(s)
}
