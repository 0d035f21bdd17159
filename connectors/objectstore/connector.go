// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package objectstore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"cycle/connectors/base"
	"cycle/connectors/sdk"
)

// TypeMemory is the connector type backed by a MemoryBucket.
const TypeMemory = "memory"

const delimiter = "/"

// Connector serves the objects of one bucket as a folder tree.
type Connector struct {
	*sdk.BaseConnector
	bucket     Bucket
	bucketName string
	prefix     string
	readOnly   bool
	catalog    *sdk.TypeCatalog
}

// New creates a connector over bucket. The connector type is taken from
// cfg.Type so the storage packages can share this implementation.
func New(cfg *base.ConnectorConfig, bucketName string, bucket Bucket) (*Connector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if bucket == nil {
		return nil, base.NewConnectorError(cfg.ID, "New", "no bucket", base.ErrInvalidArgument)
	}
	c := &Connector{
		BaseConnector: sdk.NewBaseConnector(cfg.Type, cfg),
		bucket:        bucket,
		bucketName:    bucketName,
		catalog:       sdk.DefaultTypeCatalog(),
	}
	prefix, err := base.CleanNodePath(c.OptionString("prefix", ""))
	if err != nil {
		return nil, base.NewConnectorError(cfg.ID, "New", "invalid prefix", fmt.Errorf("%w: %v", base.ErrInvalidArgument, err))
	}
	if prefix != "" {
		prefix += delimiter
	}
	c.prefix = prefix
	c.readOnly = c.OptionBool("read_only", false)
	return c, nil
}

// NewMemory creates a connector over a fresh MemoryBucket.
func NewMemory(cfg *base.ConnectorConfig) (*Connector, error) {
	return New(cfg, "memory", NewMemoryBucket())
}

// Bucket returns the underlying bucket.
func (c *Connector) Bucket() Bucket {
	return c.bucket
}

func nodeID(rel string) string {
	return "/" + rel
}

func parentID(rel string) string {
	if rel == "" {
		return ""
	}
	dir := path.Dir(rel)
	if dir == "." {
		return "/"
	}
	return nodeID(dir)
}

// objectKey maps a relative path to the key of an artifact.
func (c *Connector) objectKey(rel string) string {
	return c.prefix + rel
}

// folderKey maps a relative path to the prefix of a folder, which is also
// the key of its marker object.
func (c *Connector) folderKey(rel string) string {
	if rel == "" {
		return c.prefix
	}
	return c.prefix + rel + delimiter
}

func (c *Connector) relOf(key string) string {
	return strings.TrimSuffix(strings.TrimPrefix(key, c.prefix), delimiter)
}

func (c *Connector) clean(op, id string) (string, error) {
	rel, err := base.CleanNodePath(id)
	if err != nil {
		return "", base.NewConnectorError(c.ID(), op, "invalid node id", fmt.Errorf("%w: %v", base.ErrInvalidArgument, err))
	}
	return rel, nil
}

func (c *Connector) bucketErr(op, id string, err error) error {
	if errors.Is(err, ErrObjectNotFound) {
		return c.NotFound(id)
	}
	return c.Wrap(op, err)
}

// folderMeta reports whether a folder exists and returns its marker when
// there is one.
func (c *Connector) folderMeta(ctx context.Context, rel string) (bool, *Object, error) {
	if rel == "" {
		return true, nil, nil
	}
	marker, err := c.bucket.Stat(ctx, c.folderKey(rel))
	if err == nil {
		return true, marker, nil
	}
	if !errors.Is(err, ErrObjectNotFound) {
		return false, nil, err
	}
	listing, err := c.bucket.List(ctx, c.folderKey(rel), delimiter)
	if err != nil {
		return false, nil, err
	}
	return len(listing.Objects) > 0 || len(listing.Prefixes) > 0, nil, nil
}

func (c *Connector) requireFolder(ctx context.Context, op, id string) (string, *Object, error) {
	rel, err := c.clean(op, id)
	if err != nil {
		return "", nil, err
	}
	ok, marker, err := c.folderMeta(ctx, rel)
	if err != nil {
		return "", nil, c.Wrap(op, err)
	}
	if !ok {
		return "", nil, c.NotFound(id)
	}
	return rel, marker, nil
}

func (c *Connector) requireArtifact(ctx context.Context, op, id string) (string, *Object, error) {
	rel, err := c.clean(op, id)
	if err != nil {
		return "", nil, err
	}
	if rel == "" {
		return "", nil, c.NotFound(id)
	}
	obj, err := c.bucket.Stat(ctx, c.objectKey(rel))
	if err != nil {
		return "", nil, c.bucketErr(op, id, err)
	}
	return rel, obj, nil
}

func (c *Connector) toFolder(rel string, marker *Object) *base.Folder {
	name := path.Base(rel)
	if rel == "" {
		name = c.Configuration().DisplayName()
	}
	f := &base.Folder{
		ID:             nodeID(rel),
		ConnectorID:    c.ID(),
		ParentFolderID: parentID(rel),
		Metadata: base.NodeMetadata{
			Name: name,
			Path: nodeID(rel),
		},
	}
	if marker != nil {
		f.Metadata.Created = marker.Modified
		f.Metadata.LastModified = marker.Modified
	}
	return f
}

func (c *Connector) toArtifact(rel string, obj *Object) *base.Artifact {
	name := path.Base(rel)
	props := map[string]string{"size": fmt.Sprintf("%d", obj.Size)}
	if obj.ContentType != "" {
		props["content_type"] = obj.ContentType
	}
	return &base.Artifact{
		ID:             nodeID(rel),
		ConnectorID:    c.ID(),
		ParentFolderID: parentID(rel),
		Type:           c.catalog.ForFileName(name).WithRevision(obj.Revision),
		Metadata: base.NodeMetadata{
			Name:         name,
			Path:         nodeID(rel),
			LastModified: obj.Modified,
			Properties:   props,
		},
	}
}

// GetChildren lists subfolders first, then objects, each sorted by key.
func (c *Connector) GetChildren(ctx context.Context, nodeID string) (coll *base.NodeCollection, err error) {
	defer c.Observe("GetChildren", time.Now(), &err)

	rel, _, err := c.requireFolder(ctx, "GetChildren", nodeID)
	if err != nil {
		return nil, err
	}
	listing, err := c.bucket.List(ctx, c.folderKey(rel), delimiter)
	if err != nil {
		return nil, c.Wrap("GetChildren", err)
	}

	coll = base.NewNodeCollection()
	for _, p := range listing.Prefixes {
		childRel := c.relOf(p)
		marker, _ := c.bucket.Stat(ctx, p)
		coll.Add(c.toFolder(childRel, marker))
	}
	for i := range listing.Objects {
		obj := listing.Objects[i]
		if strings.HasSuffix(obj.Key, delimiter) {
			continue
		}
		coll.Add(c.toArtifact(c.relOf(obj.Key), &obj))
	}
	return coll, nil
}

// GetRepositoryArtifact implements base.RepositoryConnector
func (c *Connector) GetRepositoryArtifact(ctx context.Context, artifactID string) (a *base.Artifact, err error) {
	defer c.Observe("GetRepositoryArtifact", time.Now(), &err)

	rel, obj, err := c.requireArtifact(ctx, "GetRepositoryArtifact", artifactID)
	if err != nil {
		return nil, err
	}
	return c.toArtifact(rel, obj), nil
}

// GetRepositoryFolder implements base.RepositoryConnector
func (c *Connector) GetRepositoryFolder(ctx context.Context, folderID string) (f *base.Folder, err error) {
	defer c.Observe("GetRepositoryFolder", time.Now(), &err)

	rel, marker, err := c.requireFolder(ctx, "GetRepositoryFolder", folderID)
	if err != nil {
		return nil, err
	}
	return c.toFolder(rel, marker), nil
}

// GetContent returns the object bytes. Only the raw representation exists.
func (c *Connector) GetContent(ctx context.Context, artifactID, representation string) (content *base.Content, err error) {
	defer c.Observe("GetContent", time.Now(), &err)

	rel, err := c.clean("GetContent", artifactID)
	if err != nil {
		return nil, err
	}
	if rel == "" {
		return nil, c.NotFound(artifactID)
	}
	typ := c.catalog.ForFileName(path.Base(rel))
	if !typ.SupportsRepresentation(representation) {
		return nil, base.NewConnectorError(c.ID(), "GetContent",
			fmt.Sprintf("no representation %q", representation), base.ErrInvalidArgument)
	}
	data, obj, err := c.bucket.Read(ctx, c.objectKey(rel))
	if err != nil {
		return nil, c.bucketErr("GetContent", artifactID, err)
	}
	mime := typ.MimeType
	if obj.ContentType != "" {
		mime = obj.ContentType
	}
	return &base.Content{Data: data, MimeType: mime}, nil
}

func (c *Connector) checkWritable(op string) error {
	if c.readOnly {
		return base.NewConnectorError(c.ID(), op, "connector is read-only", base.ErrUnsupported)
	}
	return nil
}

// CreateArtifact implements base.RepositoryConnector
func (c *Connector) CreateArtifact(ctx context.Context, folderID, name, artifactType string, content *base.Content) (*base.Artifact, error) {
	return c.CreateArtifactFromContentRepresentation(ctx, folderID, name, artifactType, "", content)
}

// CreateArtifactFromContentRepresentation writes a new object. The key must
// not exist yet.
func (c *Connector) CreateArtifactFromContentRepresentation(ctx context.Context, folderID, name, artifactType, representation string, content *base.Content) (a *base.Artifact, err error) {
	defer c.Observe("CreateArtifact", time.Now(), &err)

	if err := c.checkWritable("CreateArtifact"); err != nil {
		return nil, err
	}
	if err := base.ValidateNodeName(name); err != nil {
		return nil, base.NewConnectorError(c.ID(), "CreateArtifact", "invalid name", err)
	}
	typ, ok := c.catalog.Resolve(artifactType, name)
	if !ok {
		return nil, base.NewConnectorError(c.ID(), "CreateArtifact",
			fmt.Sprintf("unknown artifact type %q", artifactType), base.ErrInvalidArgument)
	}
	if !typ.SupportsRepresentation(representation) {
		return nil, base.NewConnectorError(c.ID(), "CreateArtifact",
			fmt.Sprintf("no representation %q", representation), base.ErrInvalidArgument)
	}

	parentRel, _, err := c.requireFolder(ctx, "CreateArtifact", folderID)
	if err != nil {
		return nil, err
	}
	rel := path.Join(parentRel, name)
	if err := c.ensureFree(ctx, "CreateArtifact", rel); err != nil {
		return nil, err
	}

	var data []byte
	mime := typ.MimeType
	if content != nil {
		data = content.Data
		if content.MimeType != "" {
			mime = content.MimeType
		}
	}
	if err := c.bucket.Write(ctx, c.objectKey(rel), data, mime); err != nil {
		return nil, c.Wrap("CreateArtifact", err)
	}
	obj, err := c.bucket.Stat(ctx, c.objectKey(rel))
	if err != nil {
		return nil, c.Wrap("CreateArtifact", err)
	}
	a = c.toArtifact(rel, obj)
	if artifactType != "" {
		a.Type = typ.WithRevision(obj.Revision)
	}
	return a, nil
}

// ensureFree fails when rel already names an object or a folder.
func (c *Connector) ensureFree(ctx context.Context, op, rel string) error {
	if _, err := c.bucket.Stat(ctx, c.objectKey(rel)); err == nil {
		return base.NewConnectorError(c.ID(), op, fmt.Sprintf("%s already exists", nodeID(rel)), base.ErrInvalidArgument)
	} else if !errors.Is(err, ErrObjectNotFound) {
		return c.Wrap(op, err)
	}
	exists, _, err := c.folderMeta(ctx, rel)
	if err != nil {
		return c.Wrap(op, err)
	}
	if exists {
		return base.NewConnectorError(c.ID(), op, fmt.Sprintf("%s already exists", nodeID(rel)), base.ErrInvalidArgument)
	}
	return nil
}

// CreateFolder writes a zero-length marker object for the new prefix.
func (c *Connector) CreateFolder(ctx context.Context, parentFolderID, name string) (f *base.Folder, err error) {
	defer c.Observe("CreateFolder", time.Now(), &err)

	if err := c.checkWritable("CreateFolder"); err != nil {
		return nil, err
	}
	if err := base.ValidateNodeName(name); err != nil {
		return nil, base.NewConnectorError(c.ID(), "CreateFolder", "invalid name", err)
	}
	parentRel, _, err := c.requireFolder(ctx, "CreateFolder", parentFolderID)
	if err != nil {
		return nil, err
	}
	rel := path.Join(parentRel, name)
	if err := c.ensureFree(ctx, "CreateFolder", rel); err != nil {
		return nil, err
	}
	if err := c.bucket.Write(ctx, c.folderKey(rel), nil, "application/x-directory"); err != nil {
		return nil, c.Wrap("CreateFolder", err)
	}
	marker, _ := c.bucket.Stat(ctx, c.folderKey(rel))
	return c.toFolder(rel, marker), nil
}

// UpdateContent implements base.RepositoryConnector
func (c *Connector) UpdateContent(ctx context.Context, artifactID string, content *base.Content) error {
	return c.UpdateContentRepresentation(ctx, artifactID, "", content)
}

// UpdateContentRepresentation overwrites an existing object.
func (c *Connector) UpdateContentRepresentation(ctx context.Context, artifactID, representation string, content *base.Content) (err error) {
	defer c.Observe("UpdateContent", time.Now(), &err)

	if err := c.checkWritable("UpdateContent"); err != nil {
		return err
	}
	rel, obj, err := c.requireArtifact(ctx, "UpdateContent", artifactID)
	if err != nil {
		return err
	}
	if !c.catalog.ForFileName(path.Base(rel)).SupportsRepresentation(representation) {
		return base.NewConnectorError(c.ID(), "UpdateContent",
			fmt.Sprintf("no representation %q", representation), base.ErrInvalidArgument)
	}
	var data []byte
	mime := obj.ContentType
	if content != nil {
		data = content.Data
		if content.MimeType != "" {
			mime = content.MimeType
		}
	}
	return c.Wrap("UpdateContent", c.bucket.Write(ctx, c.objectKey(rel), data, mime))
}

// DeleteArtifact implements base.RepositoryConnector
func (c *Connector) DeleteArtifact(ctx context.Context, artifactID string) (err error) {
	defer c.Observe("DeleteArtifact", time.Now(), &err)

	if err := c.checkWritable("DeleteArtifact"); err != nil {
		return err
	}
	rel, _, err := c.requireArtifact(ctx, "DeleteArtifact", artifactID)
	if err != nil {
		return err
	}
	return c.bucketErr("DeleteArtifact", artifactID, c.bucket.Delete(ctx, c.objectKey(rel)))
}

// DeleteFolder removes every object below the folder, its marker included.
// The root cannot be deleted.
func (c *Connector) DeleteFolder(ctx context.Context, folderID string) (err error) {
	defer c.Observe("DeleteFolder", time.Now(), &err)

	if err := c.checkWritable("DeleteFolder"); err != nil {
		return err
	}
	rel, _, err := c.requireFolder(ctx, "DeleteFolder", folderID)
	if err != nil {
		return err
	}
	if rel == "" {
		return base.NewConnectorError(c.ID(), "DeleteFolder", "the root folder cannot be deleted", base.ErrInvalidArgument)
	}
	listing, err := c.bucket.List(ctx, c.folderKey(rel), "")
	if err != nil {
		return c.Wrap("DeleteFolder", err)
	}
	for _, obj := range listing.Objects {
		if err := c.bucket.Delete(ctx, obj.Key); err != nil && !errors.Is(err, ErrObjectNotFound) {
			return c.Wrap("DeleteFolder", err)
		}
	}
	return nil
}

// GetSupportedArtifactTypes implements base.RepositoryConnector
func (c *Connector) GetSupportedArtifactTypes(ctx context.Context, folderID string) ([]*base.ArtifactType, error) {
	if _, _, err := c.requireFolder(ctx, "GetSupportedArtifactTypes", folderID); err != nil {
		return nil, err
	}
	return c.catalog.Types(), nil
}

// ExecuteParameterizedAction implements base.RepositoryConnector
func (c *Connector) ExecuteParameterizedAction(ctx context.Context, artifactID, actionID string, params base.ActionParameters) error {
	return sdk.ExecuteCommonAction(ctx, c, artifactID, actionID, params)
}

// HealthCheck lists the root prefix.
func (c *Connector) HealthCheck(ctx context.Context) (*base.HealthStatus, error) {
	start := time.Now()
	status, _ := c.BaseConnector.HealthCheck(ctx)
	status.Details["bucket"] = c.bucketName
	if c.prefix != "" {
		status.Details["prefix"] = c.prefix
	}
	if _, err := c.bucket.List(ctx, c.prefix, delimiter); err != nil {
		status.Healthy = false
		status.Error = err.Error()
	}
	status.Latency = time.Since(start)
	return status, nil
}
