package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"freight-insure/pkg/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"go.uber.org/zap"
)

// S3Store keeps documents in an S3 bucket or a compatible store such as
// minIO. Objects are private; the OCR service receives presigned URLs.
type S3Store struct {
	svc         *s3.S3
	uploader    *s3manager.Uploader
	bucket      string
	urlLifetime time.Duration
	logger      *zap.Logger
}

func NewS3Store(cfg *config.StorageConfig, logger *zap.Logger) (*S3Store, error) {
	awsCfg := &aws.Config{
		Region:           aws.String(cfg.S3Region),
		DisableSSL:       aws.Bool(cfg.S3DisableSSL),
		S3ForcePathStyle: aws.Bool(cfg.S3Endpoint != ""),
	}
	if cfg.S3Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.S3Endpoint)
	}
	if cfg.S3AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.S3AccessKey, cfg.S3SecretKey, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	lifetime := cfg.URLLifetime
	if lifetime <= 0 {
		lifetime = time.Hour
	}

	svc := s3.New(sess)
	return &S3Store{
		svc:         svc,
		uploader:    s3manager.NewUploaderWithClient(svc),
		bucket:      cfg.S3Bucket,
		urlLifetime: lifetime,
		logger:      logger,
	}, nil
}

func (s *S3Store) Put(ctx context.Context, key, contentType string, body io.Reader) (Object, error) {
	counter := &countingReader{r: body}
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Body:        counter,
	})
	if err != nil {
		return Object{}, fmt.Errorf("failed to put object %s: %w", key, err)
	}

	obj, err := s.objectURL(key)
	if err != nil {
		return Object{}, err
	}
	obj.Size = counter.n

	s.logger.Debug("Stored object", zap.String("bucket", s.bucket), zap.String("key", key), zap.Int64("size", obj.Size))
	return obj, nil
}

func (s *S3Store) objectURL(key string) (Object, error) {
	req, _ := s.svc.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	signed, err := req.Presign(s.urlLifetime)
	if err != nil {
		return Object{}, fmt.Errorf("failed to presign %s: %w", url.PathEscape(key), err)
	}
	return Object{
		Key: key,
		URL: signed,
		// slightly before the real expiry to account for delays
		Expiration: time.Now().Add(s.urlLifetime - time.Minute),
	}, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.svc.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	return out.Body, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
