package artifact

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutObjectAPI is the part of *s3.Client the publisher uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher uploads the persisted artifact to a bucket.
type S3Publisher struct {
	client PutObjectAPI
	bucket string
	key    string
}

// NewS3Publisher uses the AWS default credential chain. An empty key means
// the artifact's base name.
func NewS3Publisher(ctx context.Context, bucket, key, region string) (*S3Publisher, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewS3PublisherWithClient(s3.NewFromConfig(cfg), bucket, key), nil
}

func NewS3PublisherWithClient(client PutObjectAPI, bucket, key string) *S3Publisher {
	return &S3Publisher{client: client, bucket: bucket, key: key}
}

// Publish uploads the file at path and returns the object key it was stored under.
func (p *S3Publisher) Publish(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read artifact: %w", err)
	}
	key := p.key
	if key == "" {
		key = filepath.Base(path)
	}
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/yaml"),
	})
	if err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", p.bucket, key, err)
	}
	return key, nil
}
