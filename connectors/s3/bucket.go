// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"cycle/connectors/objectstore"
)

// API is the subset of *s3.Client the bucket uses.
type API interface {
	s3.ListObjectsV2APIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Bucket implements objectstore.Bucket on S3.
type Bucket struct {
	api  API
	name string
}

// NewBucket wraps an S3 client for one bucket.
func NewBucket(api API, name string) *Bucket {
	return &Bucket{api: api, name: name}
}

// mapErr turns S3 missing-key errors into objectstore.ErrObjectNotFound.
func mapErr(err error) error {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return objectstore.ErrObjectNotFound
	}
	return err
}

// revision uses the modification time in seconds; S3 has no per-key
// generation counter without versioning.
func revision(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.Unix()
}

func modified(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}

// List implements objectstore.Bucket
func (b *Bucket) List(ctx context.Context, prefix, delimiter string) (*objectstore.Listing, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(b.name),
		Prefix: aws.String(prefix),
	}
	if delimiter != "" {
		input.Delimiter = aws.String(delimiter)
	}

	listing := &objectstore.Listing{}
	paginator := s3.NewListObjectsV2Paginator(b.api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			listing.Objects = append(listing.Objects, objectstore.Object{
				Key:      aws.ToString(obj.Key),
				Size:     aws.ToInt64(obj.Size),
				Modified: modified(obj.LastModified),
				Revision: revision(obj.LastModified),
			})
		}
		for _, p := range page.CommonPrefixes {
			listing.Prefixes = append(listing.Prefixes, aws.ToString(p.Prefix))
		}
	}
	return listing, nil
}

// Stat implements objectstore.Bucket
func (b *Bucket) Stat(ctx context.Context, key string) (*objectstore.Object, error) {
	out, err := b.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return &objectstore.Object{
		Key:         key,
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
		Modified:    modified(out.LastModified),
		Revision:    revision(out.LastModified),
	}, nil
}

// Read implements objectstore.Bucket
func (b *Bucket) Read(ctx context.Context, key string) ([]byte, *objectstore.Object, error) {
	out, err := b.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, nil, mapErr(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, nil, err
	}
	return data, &objectstore.Object{
		Key:         key,
		Size:        int64(len(data)),
		ContentType: aws.ToString(out.ContentType),
		Modified:    modified(out.LastModified),
		Revision:    revision(out.LastModified),
	}, nil
}

// Write implements objectstore.Bucket
func (b *Bucket) Write(ctx context.Context, key string, data []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	_, err := b.api.PutObject(ctx, input)
	return err
}

// Delete implements objectstore.Bucket. S3 deletes are idempotent, so a
// missing key is reported only when a prior HeadObject says so.
func (b *Bucket) Delete(ctx context.Context, key string) error {
	if _, err := b.Stat(ctx, key); err != nil {
		return err
	}
	_, err := b.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
	})
	return err
}
