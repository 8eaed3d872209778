package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// Options configures the bucket that mirrors output pages.
type Options struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string // S3-compatible endpoint (MinIO, R2); empty for AWS
	AccessKeyID     string
	SecretAccessKey string
}

// Enabled reports whether a bucket was configured at all.
func (o Options) Enabled() bool { return o.Bucket != "" }

// PutObjectAPI is the slice of the S3 client used for uploads.
type PutObjectAPI interface {
	manager.UploadAPIClient
}

// S3Uploader copies written pages to s3://bucket/prefix/<name>.
type S3Uploader struct {
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewClient builds an S3 client from the default AWS credential chain,
// or from static keys when both are set.
func NewClient(ctx context.Context, opts Options) (*s3.Client, error) {
	var loadOpts []func(*awscfg.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awscfg.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// NewS3Uploader builds an uploader for opts.Bucket.
func NewS3Uploader(ctx context.Context, opts Options) (*S3Uploader, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 uploader: bucket is required")
	}
	cli, err := NewClient(ctx, opts)
	if err != nil {
		return nil, err
	}
	return NewS3UploaderWithClient(cli, opts.Bucket, opts.Prefix), nil
}

// NewS3UploaderWithClient wraps an existing client.
func NewS3UploaderWithClient(client PutObjectAPI, bucket, prefix string) *S3Uploader {
	return &S3Uploader{
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
	}
}

// Key is the object key a local page file is stored under.
func (u *S3Uploader) Key(localPath string) string {
	return path.Join(u.prefix, filepath.Base(localPath))
}

// Put uploads one page file. An empty contentType is sent as octet-stream.
func (u *S3Uploader) Put(ctx context.Context, localPath string, index int, contentType string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open page for upload: %w", err)
	}
	defer f.Close()

	key := u.Key(localPath)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	out, err := u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
		Metadata:    map[string]string{"page-index": strconv.Itoa(index)},
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("page upload failed")
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	log.Info().Str("bucket", u.bucket).Str("key", key).Str("location", out.Location).Int("page", index).Msg("uploaded page to S3")
	return nil
}

// WithPrefix returns an uploader sharing the same client whose keys live
// under an extra sub prefix, one per folder in batch runs.
func (u *S3Uploader) WithPrefix(sub string) *S3Uploader {
	return &S3Uploader{
		uploader: u.uploader,
		bucket:   u.bucket,
		prefix:   strings.Trim(path.Join(u.prefix, filepath.ToSlash(sub)), "/"),
	}
}
