package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds the configuration for S3 storage. The bucket is taken
// from each s3:// reference.
type S3Config struct {
	Region          string
	Endpoint        string // Optional: for custom S3-compatible endpoints
	AccessKeyID     string // Optional: AWS access key ID
	SecretAccessKey string // Optional: AWS secret access key
}

// S3Storage serves s3:// references and falls back to LocalStorage for
// plain paths.
type S3Storage struct {
	*LocalStorage
	client *s3.Client
}

// NewS3Storage creates a storage whose downloads land in tempDir.
func NewS3Storage(ctx context.Context, tempDir string, cfg S3Config) (*S3Storage, error) {
	local, err := NewLocalStorage(tempDir)
	if err != nil {
		return nil, err
	}

	var configOpts []func(*config.LoadOptions) error
	configOpts = append(configOpts, config.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Storage{
		LocalStorage: local,
		client:       s3.NewFromConfig(awsCfg, clientOpts...),
	}, nil
}

// Fetch downloads an s3:// object into the temporary directory.
func (s *S3Storage) Fetch(ctx context.Context, ref string) (string, error) {
	bucket, key, ok := ParseS3(ref)
	if !ok {
		return s.LocalStorage.Fetch(ctx, ref)
	}

	obj, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("download %s: %w", ref, err)
	}
	defer obj.Body.Close()

	local, err := s.TempPath(Base(key))
	if err != nil {
		return "", err
	}

	f, err := os.Create(local)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(f, obj.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(local)

		return "", fmt.Errorf("download %s: %w", ref, err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(local)
		return "", fmt.Errorf("close temp file: %w", err)
	}

	return local, nil
}

// Publish uploads localPath to an s3:// reference.
func (s *S3Storage) Publish(ctx context.Context, localPath, ref string) error {
	bucket, key, ok := ParseS3(ref)
	if !ok {
		return s.LocalStorage.Publish(ctx, localPath, ref)
	}

	f, err := os.Open(localPath) // #nosec G304 - path is provided by trusted caller
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("audio/wav"),
	})
	if err != nil {
		return fmt.Errorf("upload to S3: %w", err)
	}

	return nil
}

// List returns the objects directly below an s3:// prefix.
func (s *S3Storage) List(ctx context.Context, dirRef string) ([]string, error) {
	bucket, prefix, ok := ParseS3(dirRef)
	if !ok {
		return s.LocalStorage.List(ctx, dirRef)
	}

	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var refs []string

	pager := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", dirRef, err)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == prefix {
				continue
			}

			refs = append(refs, s3Scheme+bucket+"/"+key)
		}
	}

	sort.Strings(refs)

	return refs, nil
}
