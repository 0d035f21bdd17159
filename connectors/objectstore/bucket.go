// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package objectstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrObjectNotFound is returned by Bucket implementations for missing keys.
var ErrObjectNotFound = errors.New("object not found")

// Object describes one stored object.
type Object struct {
	Key         string
	Size        int64
	ContentType string
	Modified    time.Time
	// Revision increases on every write of the key.
	Revision int64
}

// Listing is the result of a delimited listing: objects directly below the
// prefix and the common prefixes ("subfolders") ending in the delimiter.
type Listing struct {
	Objects  []Object
	Prefixes []string
}

// Bucket is the storage surface the connector needs. An empty delimiter
// lists recursively.
type Bucket interface {
	List(ctx context.Context, prefix, delimiter string) (*Listing, error)
	Stat(ctx context.Context, key string) (*Object, error)
	Read(ctx context.Context, key string) ([]byte, *Object, error)
	Write(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
}

// MemoryBucket is a Bucket held in process memory.
type MemoryBucket struct {
	objects map[string]*memoryObject
	mu      sync.RWMutex
}

type memoryObject struct {
	meta Object
	data []byte
}

// NewMemoryBucket creates an empty MemoryBucket
func NewMemoryBucket() *MemoryBucket {
	return &MemoryBucket{objects: make(map[string]*memoryObject)}
}

// List implements Bucket
func (b *MemoryBucket) List(ctx context.Context, prefix, delimiter string) (*Listing, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	listing := &Listing{}
	seen := make(map[string]bool)
	for key, obj := range b.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := key[len(prefix):]
		if delimiter != "" {
			if i := strings.Index(rest, delimiter); i >= 0 {
				p := prefix + rest[:i+len(delimiter)]
				if !seen[p] {
					seen[p] = true
					listing.Prefixes = append(listing.Prefixes, p)
				}
				continue
			}
		}
		listing.Objects = append(listing.Objects, obj.meta)
	}
	sort.Slice(listing.Objects, func(i, j int) bool { return listing.Objects[i].Key < listing.Objects[j].Key })
	sort.Strings(listing.Prefixes)
	return listing, nil
}

// Stat implements Bucket
func (b *MemoryBucket) Stat(ctx context.Context, key string) (*Object, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, ok := b.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	meta := obj.meta
	return &meta, nil
}

// Read implements Bucket
func (b *MemoryBucket) Read(ctx context.Context, key string) ([]byte, *Object, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, ok := b.objects[key]
	if !ok {
		return nil, nil, ErrObjectNotFound
	}
	meta := obj.meta
	return append([]byte(nil), obj.data...), &meta, nil
}

// Write implements Bucket
func (b *MemoryBucket) Write(ctx context.Context, key string, data []byte, contentType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var rev int64 = 1
	if prev, ok := b.objects[key]; ok {
		rev = prev.meta.Revision + 1
	}
	b.objects[key] = &memoryObject{
		meta: Object{
			Key:         key,
			Size:        int64(len(data)),
			ContentType: contentType,
			Modified:    time.Now().UTC(),
			Revision:    rev,
		},
		data: append([]byte(nil), data...),
	}
	return nil
}

// Delete implements Bucket
func (b *MemoryBucket) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.objects[key]; !ok {
		return ErrObjectNotFound
	}
	delete(b.objects, key)
	return nil
}
