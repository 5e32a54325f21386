package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3ClientAPI defines the S3 operations the chunk store uses.
type S3ClientAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3ChunkStore stores each chunk as the object {Prefix}/{fileID}/{index}.
type S3ChunkStore struct {
	Client S3ClientAPI
	Bucket string
	Prefix string
}

var _ ChunkStore = (*S3ChunkStore)(nil)

// NewS3ChunkStore builds a client from the default AWS configuration chain.
// region overrides the configured region when non-empty.
func NewS3ChunkStore(ctx context.Context, bucket, region, prefix string) (*S3ChunkStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("%w: bucket is required", ErrInvalidInput)
	}
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("store: load aws config: %w", err)
	}
	return &S3ChunkStore{
		Client: s3.NewFromConfig(cfg),
		Bucket: bucket,
		Prefix: prefix,
	}, nil
}

func (s *S3ChunkStore) key(fileID, index uint64) string {
	return path.Join(s.Prefix, strconv.FormatUint(fileID, 10), strconv.FormatUint(index, 10))
}

func (s *S3ChunkStore) PutChunk(ctx context.Context, fileID, index uint64, data []byte) error {
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.key(fileID, index)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return nil
}

func (s *S3ChunkStore) GetChunk(ctx context.Context, fileID, index uint64) ([]byte, error) {
	resp, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.key(fileID, index)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: chunk %d of file %d", ErrNotFound, index, fileID)
		}
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return data, nil
}

func (s *S3ChunkStore) DeleteChunks(ctx context.Context, fileID, count uint64) error {
	for i := uint64(0); i < count; i++ {
		_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.Bucket),
			Key:    aws.String(s.key(fileID, i)),
		})
		if err != nil {
			return fmt.Errorf("%w: delete chunk %d of file %d: %w", ErrIOFailure, i, fileID, err)
		}
	}
	return nil
}
