// Package storage provides an S3-compatible object storage client for event
// uploads. It wraps the AWS SDK v2 with path-style addressing so it works
// against DigitalOcean Spaces, MinIO and AWS alike.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"orma/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const (
	// CacheControl is applied to every stored upload.
	CacheControl = "public, max-age=86400"
	// SignedURLExpiry is how long a presigned GET stays valid.
	SignedURLExpiry = time.Hour
	// KeyPrefix is the bucket folder all uploads live under.
	KeyPrefix = "uploads/"
)

// Options configures the S3 client.
type Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Timeout   time.Duration
}

// Client stores and signs objects in a single bucket.
type Client struct {
	s3        *s3.Client
	presigner *s3.PresignClient
	bucket    string
	timeout   time.Duration
}

// New builds a client. An empty endpoint uses the regional AWS endpoint.
func New(opts Options) (*Client, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("storage: bucket is required")
	}

	s3Opts := s3.Options{
		Region:       opts.Region,
		UsePathStyle: true,
	}
	if opts.Endpoint != "" {
		s3Opts.BaseEndpoint = aws.String(strings.TrimRight(opts.Endpoint, "/"))
	}
	if opts.AccessKey != "" {
		s3Opts.Credentials = credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")
	}

	client := s3.New(s3Opts)
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &Client{
		s3:        client,
		presigner: s3.NewPresignClient(client),
		bucket:    opts.Bucket,
		timeout:   timeout,
	}, nil
}

// Put stores body under key with public-read ACL.
func (c *Client) Put(ctx context.Context, key, contentType string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String(CacheControl),
		ACL:           s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return models.WrapDependency("storage", fmt.Errorf("s3 upload %s/%s: %w", c.bucket, key, err))
	}
	return nil
}

// PresignGet returns a temporary GET URL for key.
func (c *Client) PresignGet(ctx context.Context, key string) (string, error) {
	req, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(SignedURLExpiry))
	if err != nil {
		return "", models.WrapDependency("storage", fmt.Errorf("s3 presign %s/%s: %w", c.bucket, key, err))
	}
	return req.URL, nil
}

// UploadKey is the bucket key of an original photo. The returned relative
// path (without the uploads/ prefix) is what posts store.
func UploadKey(eventHash, id, filename string) (key, relative string) {
	relative = eventHash + "/" + id + "-" + sanitizeFilename(filename)
	return KeyPrefix + relative, relative
}

// EventImageKey is the bucket key of an event banner or profile image.
func EventImageKey(eventHash, kind, name string) string {
	return KeyPrefix + eventHash + "/" + kind + "/" + name + ".webp"
}

// SignableKey maps a relative upload path to its bucket key. Paths escaping the
// uploads folder are rejected.
func SignableKey(relative string) (string, bool) {
	relative = strings.TrimPrefix(strings.TrimSpace(relative), "/")
	relative = strings.TrimPrefix(relative, KeyPrefix)
	if relative == "" || strings.Contains(relative, "..") {
		return "", false
	}
	return KeyPrefix + relative, true
}

func sanitizeFilename(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" {
		return "upload"
	}
	return name
}
