package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Provider uploads artifacts to an S3 bucket via the multipart
// upload manager.
type S3Provider struct {
	client *s3.Client
	bucket string
	logger *slog.Logger
}

func NewS3Provider(client *s3.Client, bucket string, logger *slog.Logger) *S3Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &S3Provider{client: client, bucket: bucket, logger: logger}
}

// S3Options configures NewS3Client. Credentials come from the standard
// AWS environment variables; Endpoint and PathStyle support non-AWS
// providers like MinIO.
type S3Options struct {
	Region    string
	Endpoint  string
	PathStyle bool
}

// NewS3Client builds an S3 client from the environment.
func NewS3Client(opts S3Options) *s3.Client {
	cfg := aws.Config{
		Region: opts.Region,
		Credentials: aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
				SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
				SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			}, nil
		}),
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.PathStyle
	})
}

func (p *S3Provider) Save(ctx context.Context, key, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open artifact %s: %w", path, err)
	}
	defer f.Close()

	uploader := manager.NewUploader(p.client, func(u *manager.Uploader) {
		u.PartSize = 10 * 1024 * 1024
		u.Concurrency = 5
	})

	p.logger.Info("Starting S3 upload", "bucket", p.bucket, "key", key)
	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("s3 upload failed: %w", err)
	}
	p.logger.Info("S3 upload finished", "bucket", p.bucket, "key", key)
	return nil
}
