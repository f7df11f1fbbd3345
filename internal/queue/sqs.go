// Package queue publishes image processing jobs for the external worker.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"orma/internal/middleware"
	"orma/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// Message is the job body the worker consumes. Event banners and profile
// images are published without a post id.
type Message struct {
	PostID   *uint  `json:"post_id,omitempty"`
	ImageURL string `json:"image_url"`
}

// PostMessage builds the job for an uploaded post.
func PostMessage(postID uint, imageURL string) Message {
	return Message{PostID: &postID, ImageURL: imageURL}
}

// Publisher enqueues processing jobs.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Options configures the SQS publisher.
type Options struct {
	QueueURL  string
	Region    string
	AccessKey string
	SecretKey string
	// Endpoint overrides the service endpoint (LocalStack, tests).
	Endpoint string
	Timeout  time.Duration
}

// SQSPublisher sends jobs to an SQS queue.
type SQSPublisher struct {
	client   *sqs.Client
	queueURL string
	timeout  time.Duration
}

// NewSQSPublisher builds a publisher for opts.QueueURL.
func NewSQSPublisher(opts Options) (*SQSPublisher, error) {
	if opts.QueueURL == "" {
		return nil, fmt.Errorf("queue: QUEUE_URL is required")
	}

	sqsOpts := sqs.Options{Region: opts.Region}
	if opts.Endpoint != "" {
		sqsOpts.BaseEndpoint = aws.String(opts.Endpoint)
	}
	if opts.AccessKey != "" {
		sqsOpts.Credentials = credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &SQSPublisher{
		client:   sqs.New(sqsOpts),
		queueURL: opts.QueueURL,
		timeout:  timeout,
	}, nil
}

// Publish sends msg as a JSON body.
func (p *SQSPublisher) Publish(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return models.NewInternalError(err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if _, err := p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
	}); err != nil {
		return models.WrapDependency("queue", fmt.Errorf("sqs send: %w", err))
	}
	return nil
}

// LogPublisher stands in for SQS in local development. Jobs are logged and
// dropped.
type LogPublisher struct{}

// Publish logs msg.
func (LogPublisher) Publish(ctx context.Context, msg Message) error {
	attrs := []any{slog.String("image_url", msg.ImageURL)}
	if msg.PostID != nil {
		attrs = append(attrs, slog.Uint64("post_id", uint64(*msg.PostID)))
	}
	middleware.Logger.InfoContext(ctx, "processing job (no queue configured)", attrs...)
	return nil
}
