package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	domainerrors "docucheck.backend/internal/domain/errors"
	"docucheck.backend/internal/domain/gateways"
	"docucheck.backend/pkg/utils"
	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

const (
	keyPrefix   = "documents"
	tagRequest  = "requestId"
	defaultName = "document"
)

// Options configures the S3 storage gateway
type Options struct {
	Bucket       string
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	SignedURLTTL time.Duration
}

// S3Storage stores document blobs in an S3-compatible bucket
type S3Storage struct {
	bucket    string
	ttl       time.Duration
	client    *s3.Client
	uploader  *manager.Uploader
	presigner *s3.PresignClient
}

// NewS3Storage loads AWS configuration and builds the gateway
func NewS3Storage(ctx context.Context, opts Options) (*S3Storage, error) {
	loaders := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loaders = append(loaders, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})
	return NewS3StorageFromClient(client, opts.Bucket, opts.SignedURLTTL), nil
}

// NewS3StorageFromClient wraps an existing client
func NewS3StorageFromClient(client *s3.Client, bucket string, ttl time.Duration) *S3Storage {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &S3Storage{
		bucket:    bucket,
		ttl:       ttl,
		client:    client,
		uploader:  manager.NewUploader(client),
		presigner: s3.NewPresignClient(client),
	}
}

// Upload stores content and returns its key. The key embeds tags["requestId"]
// when present so blobs can be traced back to their request.
func (s *S3Storage) Upload(ctx context.Context, content []byte, filename, mimeType string, tags map[string]string) (string, error) {
	owner := tags[tagRequest]
	if owner == "" {
		owner = utils.GenerateUUIDv7().String()
	}
	key := ObjectKey(owner, filename)

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(mimeType),
	}
	if len(tags) > 0 {
		values := url.Values{}
		for k, v := range tags {
			values.Set(k, v)
		}
		input.Tagging = aws.String(values.Encode())
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return "", mapError("upload", key, err)
	}
	return key, nil
}

// GetSignedURL returns a time-limited GET URL for fileKey
func (s *S3Storage) GetSignedURL(ctx context.Context, fileKey string) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fileKey),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", mapError("presign", fileKey, err)
	}
	return req.URL, nil
}

// GetFile downloads fileKey
func (s *S3Storage) GetFile(ctx context.Context, fileKey string) ([]byte, *gateways.FileInfo, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fileKey),
	})
	if err != nil {
		return nil, nil, mapError("get", fileKey, err)
	}
	defer out.Body.Close()

	content, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %v: %w", fileKey, err, domainerrors.ErrStorageUnavailable)
	}

	info := &gateways.FileInfo{
		Key:         fileKey,
		ContentType: aws.ToString(out.ContentType),
		Size:        int64(len(content)),
	}
	if out.LastModified != nil {
		info.LastModified = *out.LastModified
	}
	return content, info, nil
}

// DeleteFile removes fileKey. A missing key is not an error.
func (s *S3Storage) DeleteFile(ctx context.Context, fileKey string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fileKey),
	})
	if err == nil {
		return nil
	}
	mapped := mapError("delete", fileKey, err)
	if errors.Is(mapped, domainerrors.ErrNotFound) {
		return nil
	}
	return mapped
}

// Ping checks the bucket is reachable
func (s *S3Storage) Ping(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return mapError("head bucket", s.bucket, err)
	}
	return nil
}

// ObjectKey builds documents/<requestId>/<sanitized filename>
func ObjectKey(requestID, filename string) string {
	return path.Join(keyPrefix, requestID, SanitizeFilename(filename))
}

// SanitizeFilename keeps the base name and replaces unsafe characters
func SanitizeFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name := strings.Trim(b.String(), ".")
	if name == "" {
		return defaultName
	}
	return name
}

func mapError(op, key string, err error) error {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return fmt.Errorf("%s %s: %w", op, key, domainerrors.ErrNotFound)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return fmt.Errorf("%s %s: %w", op, key, domainerrors.ErrNotFound)
		}
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", op, key, domainerrors.ErrNotFound)
	}

	return fmt.Errorf("%s %s: %v: %w", op, key, err, domainerrors.ErrStorageUnavailable)
}
