package clients

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"cpusched/domain"
	"cpusched/helpers"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// objectGetter is the part of *s3.Client the job source needs
type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Client represents a job source reading one object of an Amazon S3 bucket
type S3Client struct {
	bucketName string
	key        string
	s3Logger   *zap.Logger
	s3Client   objectGetter
}

// NewS3Client returns S3Client for an s3://bucket/key URL
func NewS3Client(ctx context.Context, rawURL string, cfg domain.S3Config, logger *zap.Logger) (*S3Client, error) {
	bucket, key, err := ParseS3URL(rawURL)
	if err != nil {
		return nil, err
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		opts = append(opts, config.WithCredentialsProvider(creds))
	}
	sdkConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		logger.Error("failed to load sdk config", zap.Error(err))
		return nil, err
	}
	return newS3Client(bucket, key, s3.NewFromConfig(sdkConfig), logger), nil
}

func newS3Client(bucket, key string, client objectGetter, logger *zap.Logger) *S3Client {
	return &S3Client{
		bucketName: bucket,
		key:        key,
		s3Logger:   logger,
		s3Client:   client,
	}
}

// ParseS3URL splits s3://bucket/key
func ParseS3URL(rawURL string) (bucket, key string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", err
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Scheme != "s3" || u.Host == "" || key == "" {
		return "", "", fmt.Errorf("invalid s3 url %q, expected s3://bucket/key", rawURL)
	}
	return u.Host, key, nil
}

// Name returns the object URL
func (s *S3Client) Name() string {
	return "s3://" + s.bucketName + "/" + s.key
}

// Stream downloads the object and sends its job lines
func (s *S3Client) Stream(ctx context.Context, lines chan<- domain.JobDescriptor) error {
	result, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(s.key),
	})
	if err != nil {
		s.s3Logger.Error("failed to get object", zap.Error(err), zap.String("file_name", s.key))
		return err
	}
	defer result.Body.Close()
	return helpers.StreamLines(ctx, result.Body, lines)
}
