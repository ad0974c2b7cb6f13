// Package s3 archives objects in Amazon S3 or an S3-compatible service
// such as MinIO.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/kbukum/minutes/logger"
	"github.com/kbukum/minutes/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderS3, func(cfg storage.Config, log *logger.Logger) (storage.Storage, error) {
		return NewStorage(context.Background(), cfg, log)
	})
}

type Storage struct {
	client *awss3.Client
	bucket string
	// base prefixes object URLs: PublicURL, else endpoint plus bucket.
	base string
	log  *logger.Logger
}

var _ storage.Storage = (*Storage)(nil)

// NewStorage builds the client. Static keys are used when configured,
// otherwise the default AWS credential chain. A custom endpoint implies
// path-style addressing.
func NewStorage(ctx context.Context, cfg storage.Config, log *logger.Logger) (*Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}
	if log == nil {
		log = logger.NewNop()
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.Endpoint != "" || cfg.ForcePathStyle
	})

	base := strings.TrimRight(cfg.PublicURL, "/")
	if base == "" {
		endpoint := strings.TrimRight(cfg.Endpoint, "/")
		if endpoint == "" {
			endpoint = "https://s3." + cfg.Region + ".amazonaws.com"
		}
		base = endpoint + "/" + cfg.Bucket
	}
	return &Storage{client: client, bucket: cfg.Bucket, base: base, log: log.WithComponent("storage.s3")}, nil
}

// Upload puts the object. A reader that cannot seek is read into memory
// first: the SDK signs the payload and needs to rewind it.
func (s *Storage) Upload(ctx context.Context, key string, r io.Reader) error {
	body, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("s3: read body: %w", err)
		}
		body = bytes.NewReader(data)
	}
	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(storage.ContentType(key)),
	})
	if err != nil {
		return fmt.Errorf("s3: put %s: %w", key, err)
	}
	s.log.Debug("object stored", logger.Fields("bucket", s.bucket, "key", key))
	return nil
}

// Exists sends a HEAD. Not found is false; other failures are errors.
func (s *Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var re *awshttp.ResponseError
	if errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound {
		return false, nil
	}
	return false, fmt.Errorf("s3: head %s: %w", key, err)
}

func (s *Storage) URL(_ context.Context, key string) (string, error) {
	return s.base + "/" + (&url.URL{Path: key}).EscapedPath(), nil
}
