// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package gcs

import (
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"cycle/connectors/objectstore"
)

// Bucket implements objectstore.Bucket on a GCS bucket handle.
type Bucket struct {
	handle *storage.BucketHandle
}

// NewBucket wraps a bucket handle.
func NewBucket(handle *storage.BucketHandle) *Bucket {
	return &Bucket{handle: handle}
}

func mapErr(err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return objectstore.ErrObjectNotFound
	}
	return err
}

func fromAttrs(attrs *storage.ObjectAttrs) objectstore.Object {
	return objectstore.Object{
		Key:         attrs.Name,
		Size:        attrs.Size,
		ContentType: attrs.ContentType,
		Modified:    attrs.Updated.UTC(),
		Revision:    attrs.Generation,
	}
}

// List implements objectstore.Bucket. Common prefixes come back from the
// iterator as attrs with only Prefix set.
func (b *Bucket) List(ctx context.Context, prefix, delimiter string) (*objectstore.Listing, error) {
	it := b.handle.Objects(ctx, &storage.Query{Prefix: prefix, Delimiter: delimiter})

	listing := &objectstore.Listing{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		if attrs.Prefix != "" {
			listing.Prefixes = append(listing.Prefixes, attrs.Prefix)
			continue
		}
		listing.Objects = append(listing.Objects, fromAttrs(attrs))
	}
	return listing, nil
}

// Stat implements objectstore.Bucket
func (b *Bucket) Stat(ctx context.Context, key string) (*objectstore.Object, error) {
	attrs, err := b.handle.Object(key).Attrs(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	obj := fromAttrs(attrs)
	return &obj, nil
}

// Read implements objectstore.Bucket
func (b *Bucket) Read(ctx context.Context, key string) ([]byte, *objectstore.Object, error) {
	reader, err := b.handle.Object(key).NewReader(ctx)
	if err != nil {
		return nil, nil, mapErr(err)
	}
	defer func() {
		_ = reader.Close()
	}()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, nil, err
	}
	return data, &objectstore.Object{
		Key:         key,
		Size:        int64(len(data)),
		ContentType: reader.Attrs.ContentType,
		Modified:    reader.Attrs.LastModified.UTC(),
		Revision:    reader.Attrs.Generation,
	}, nil
}

// Write implements objectstore.Bucket
func (b *Bucket) Write(ctx context.Context, key string, data []byte, contentType string) error {
	writer := b.handle.Object(key).NewWriter(ctx)
	writer.ContentType = contentType
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

// Delete implements objectstore.Bucket
func (b *Bucket) Delete(ctx context.Context, key string) error {
	return mapErr(b.handle.Object(key).Delete(ctx))
}
