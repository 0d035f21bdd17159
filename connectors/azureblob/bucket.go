// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package azureblob

import (
	"context"
	"io"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"

	"cycle/connectors/objectstore"
)

// Bucket implements objectstore.Bucket on a blob container.
type Bucket struct {
	client *container.Client
}

// NewBucket wraps a container client.
func NewBucket(client *container.Client) *Bucket {
	return &Bucket{client: client}
}

func mapErr(err error) error {
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return objectstore.ErrObjectNotFound
	}
	return err
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// object builds an Object whose revision is the modification time in
// seconds.
func object(key string, size *int64, contentType *string, lastModified *time.Time) objectstore.Object {
	modified := deref(lastModified).UTC()
	return objectstore.Object{
		Key:         key,
		Size:        deref(size),
		ContentType: deref(contentType),
		Modified:    modified,
		Revision:    modified.Unix(),
	}
}

func fromItem(item *container.BlobItem) objectstore.Object {
	if item.Properties == nil {
		return objectstore.Object{Key: deref(item.Name)}
	}
	p := item.Properties
	return object(deref(item.Name), p.ContentLength, p.ContentType, p.LastModified)
}

// List implements objectstore.Bucket
func (b *Bucket) List(ctx context.Context, prefix, delimiter string) (*objectstore.Listing, error) {
	listing := &objectstore.Listing{}

	if delimiter == "" {
		pager := b.client.NewListBlobsFlatPager(&container.ListBlobsFlatOptions{Prefix: &prefix})
		for pager.More() {
			resp, err := pager.NextPage(ctx)
			if err != nil {
				return nil, err
			}
			for _, item := range resp.Segment.BlobItems {
				listing.Objects = append(listing.Objects, fromItem(item))
			}
		}
		return listing, nil
	}

	pager := b.client.NewListBlobsHierarchyPager(delimiter, &container.ListBlobsHierarchyOptions{Prefix: &prefix})
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range resp.Segment.BlobItems {
			listing.Objects = append(listing.Objects, fromItem(item))
		}
		for _, p := range resp.Segment.BlobPrefixes {
			listing.Prefixes = append(listing.Prefixes, deref(p.Name))
		}
	}
	return listing, nil
}

// Stat implements objectstore.Bucket
func (b *Bucket) Stat(ctx context.Context, key string) (*objectstore.Object, error) {
	props, err := b.client.NewBlobClient(key).GetProperties(ctx, nil)
	if err != nil {
		return nil, mapErr(err)
	}
	obj := object(key, props.ContentLength, props.ContentType, props.LastModified)
	return &obj, nil
}

// Read implements objectstore.Bucket
func (b *Bucket) Read(ctx context.Context, key string) ([]byte, *objectstore.Object, error) {
	resp, err := b.client.NewBlobClient(key).DownloadStream(ctx, nil)
	if err != nil {
		return nil, nil, mapErr(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	size := int64(len(data))
	obj := object(key, &size, resp.ContentType, resp.LastModified)
	return data, &obj, nil
}

// Write implements objectstore.Bucket
func (b *Bucket) Write(ctx context.Context, key string, data []byte, contentType string) error {
	opts := &blockblob.UploadBufferOptions{}
	if contentType != "" {
		opts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: &contentType}
	}
	_, err := b.client.NewBlockBlobClient(key).UploadBuffer(ctx, data, opts)
	return err
}

// Delete implements objectstore.Bucket
func (b *Bucket) Delete(ctx context.Context, key string) error {
	_, err := b.client.NewBlobClient(key).Delete(ctx, nil)
	return mapErr(err)
}
