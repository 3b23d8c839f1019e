package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Uploader mirrors product media to a CDN. An error means the caller keeps
// the original URL; a media failure never blocks an export.
type Uploader interface {
	Upload(ctx context.Context, sourceURL string) (string, error)
}

// S3Uploader downloads a source asset and re-hosts it in an S3 bucket.
type S3Uploader struct {
	client  *s3.Client
	httpc   *http.Client
	bucket  string
	prefix  string
	baseURL string
	logger  *slog.Logger
}

type S3Options struct {
	Bucket  string
	Prefix  string
	BaseURL string
	Region  string
}

func NewS3Uploader(ctx context.Context, opts S3Options, logger *slog.Logger) (*S3Uploader, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("media bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.amazonaws.com", opts.Bucket)
	}

	return &S3Uploader{
		client:  s3.NewFromConfig(cfg),
		httpc:   &http.Client{Timeout: 30 * time.Second},
		bucket:  opts.Bucket,
		prefix:  strings.Trim(opts.Prefix, "/"),
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With("component", "media_uploader"),
	}, nil
}

// Upload fetches the source asset and writes it to the bucket, returning
// the re-hosted URL.
func (u *S3Uploader) Upload(ctx context.Context, sourceURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("invalid source URL: %w", err)
	}

	resp, err := u.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch source: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("source fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 25<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read source body: %w", err)
	}

	key := u.objectKey(sourceURL)
	contentType := resp.Header.Get("Content-Type")

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &u.bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object: %w", err)
	}

	hosted := u.baseURL + "/" + key
	u.logger.Debug("media uploaded", "source", sourceURL, "hosted", hosted)
	return hosted, nil
}

func (u *S3Uploader) objectKey(sourceURL string) string {
	name := "asset"
	if parsed, err := url.Parse(sourceURL); err == nil {
		if base := path.Base(parsed.Path); base != "." && base != "/" {
			name = base
		}
	}
	if u.prefix == "" {
		return name
	}
	return u.prefix + "/" + name
}

// Resolve uploads sourceURL and falls back to it unchanged when the
// uploader is nil or the upload fails. The photo field is never dropped.
func Resolve(ctx context.Context, u Uploader, sourceURL string, logger *slog.Logger) string {
	if u == nil || sourceURL == "" {
		return sourceURL
	}
	hosted, err := u.Upload(ctx, sourceURL)
	if err != nil {
		logger.Warn("media upload failed, keeping original URL",
			"url", sourceURL,
			"error", err)
		return sourceURL
	}
	return hosted
}
