package s3

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const uploadURLExpiry = 15 * time.Minute

var ErrNotConfigured = errors.New("object storage is not configured")

type Options struct {
	Endpoint     string
	Region       string
	BucketName   string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

type FilePresigner struct {
	client     *s3.PresignClient
	endpoint   string
	bucketName string
}

func NewFilePresigner(ctx context.Context, opts Options) (*FilePresigner, error) {
	if opts.BucketName == "" {
		return nil, ErrNotConfigured
	}

	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")),
	)
	if err != nil {
		return nil, err
	}

	endpoint := strings.TrimRight(opts.Endpoint, "/")
	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	return &FilePresigner{
		client:     s3.NewPresignClient(s3Client),
		endpoint:   endpoint,
		bucketName: opts.BucketName,
	}, nil
}

func (p *FilePresigner) GeneratePresignedUploadURL(ctx context.Context, objectKey string) (string, error) {
	request, err := p.client.PresignPutObject(
		ctx,
		&s3.PutObjectInput{
			Bucket: aws.String(p.bucketName),
			Key:    aws.String(objectKey),
		},
		func(opts *s3.PresignOptions) {
			opts.Expires = uploadURLExpiry
		},
	)
	if err != nil {
		return "", err
	}

	return request.URL, nil
}

// PublicURL is where an uploaded object is served from.
func (p *FilePresigner) PublicURL(objectKey string) string {
	return p.endpoint + "/" + p.bucketName + "/" + objectKey
}
