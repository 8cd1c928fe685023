package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client used by S3Store
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Store writes files to an S3 bucket under Prefix
type S3Store struct {
	Client S3API
	Bucket string
	Prefix string
}

// NewS3Store loads the default AWS credential chain
func NewS3Store(ctx context.Context, bucket, region, prefix string) (*S3Store, error) {
	if region == "" {
		region = "eu-central-1"
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return &S3Store{Client: s3.NewFromConfig(cfg), Bucket: bucket, Prefix: prefix}, nil
}

func (s *S3Store) key(name string) string {
	return path.Join(strings.TrimSuffix(s.Prefix, "/"), path.Base(name))
}

// Save uploads r; an existing object with the same key is not overwritten
func (s *S3Store) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	key := s.key(name)
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        r,
		IfNoneMatch: aws.String("*"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.Bucket, key), nil
}

// Remove deletes an object addressed as s3://bucket/key
func (s *S3Store) Remove(ctx context.Context, address string) error {
	rest, ok := strings.CutPrefix(address, "s3://")
	if !ok {
		return fmt.Errorf("not an s3 address: %s", address)
	}
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || key == "" {
		return fmt.Errorf("not an s3 address: %s", address)
	}
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	return err
}

// Check verifies the bucket is reachable with the loaded credentials
func (s *S3Store) Check(ctx context.Context) error {
	_, err := s.Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.Bucket)})
	if err != nil {
		return fmt.Errorf("bucket %s not reachable: %w", s.Bucket, err)
	}
	return nil
}
