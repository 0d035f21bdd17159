// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package sdk

import (
	"sort"
	"strings"

	"cycle/connectors/base"
)

// RepresentationRaw is the single representation of file-backed artifacts.
const RepresentationRaw = "raw"

// Artifact type names shared by the file-backed connectors.
const (
	TypeBPMN   = "bpmn20-xml"
	TypeXML    = "xml"
	TypeText   = "text-plain"
	TypeJSON   = "json"
	TypePNG    = "png"
	TypeBinary = "binary"
)

// TypeCatalog maps file names to artifact types. Suffixes are matched
// longest first, case-insensitively.
type TypeCatalog struct {
	types    map[string]*base.ArtifactType
	suffixes []suffixType
	fallback string
}

type suffixType struct {
	suffix   string
	typeName string
}

// DefaultTypeCatalog returns the catalog used by fs, git and object store
// connectors.
func DefaultTypeCatalog() *TypeCatalog {
	c := &TypeCatalog{types: make(map[string]*base.ArtifactType), fallback: TypeBinary}
	c.Register(TypeBPMN, "application/xml", ".bpmn", ".bpmn20.xml")
	c.Register(TypeXML, "application/xml", ".xml")
	c.Register(TypeText, "text/plain", ".txt", ".md", ".log")
	c.Register(TypeJSON, "application/json", ".json")
	c.Register(TypePNG, "image/png", ".png")
	c.Register(TypeBinary, "application/octet-stream")
	return c
}

// Register adds a type with the raw representation and the copy-to action.
func (c *TypeCatalog) Register(name, mimeType string, suffixes ...string) {
	c.types[name] = &base.ArtifactType{
		Name:            name,
		MimeType:        mimeType,
		Representations: []string{RepresentationRaw},
		Actions:         []string{base.ActionCopyTo},
	}
	for _, s := range suffixes {
		c.suffixes = append(c.suffixes, suffixType{suffix: strings.ToLower(s), typeName: name})
	}
	sort.SliceStable(c.suffixes, func(i, j int) bool {
		return len(c.suffixes[i].suffix) > len(c.suffixes[j].suffix)
	})
}

// Lookup returns a copy of the named type.
func (c *TypeCatalog) Lookup(name string) (*base.ArtifactType, bool) {
	t, ok := c.types[name]
	if !ok {
		return nil, false
	}
	return t.WithRevision(0), true
}

// ForFileName returns a copy of the type matching the file name's suffix,
// or the fallback type.
func (c *TypeCatalog) ForFileName(name string) *base.ArtifactType {
	lower := strings.ToLower(name)
	for _, s := range c.suffixes {
		if strings.HasSuffix(lower, s.suffix) {
			return c.types[s.typeName].WithRevision(0)
		}
	}
	return c.types[c.fallback].WithRevision(0)
}

// Resolve returns the type for a new artifact: the named type when name is
// set, otherwise the type inferred from the file name.
func (c *TypeCatalog) Resolve(typeName, fileName string) (*base.ArtifactType, bool) {
	if typeName == "" {
		return c.ForFileName(fileName), true
	}
	return c.Lookup(typeName)
}

// Types returns copies of every registered type ordered by name.
func (c *TypeCatalog) Types() []*base.ArtifactType {
	out := make([]*base.ArtifactType, 0, len(c.types))
	for _, t := range c.types {
		out = append(out, t.WithRevision(0))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
