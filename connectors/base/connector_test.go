// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package base

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestConnectorError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *ConnectorError
		wantMsg string
	}{
		{
			name: "with cause",
			err: &ConnectorError{
				ConnectorID: "signavio",
				Operation:   "Login",
				Message:     "authentication failed",
				Cause:       errors.New("401 unauthorized"),
			},
			wantMsg: "signavio.Login: authentication failed (cause: 401 unauthorized)",
		},
		{
			name: "without cause",
			err: &ConnectorError{
				ConnectorID: "files",
				Operation:   "CreateFolder",
				Message:     "folder exists",
			},
			wantMsg: "files.CreateFolder: folder exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestNodeNotFoundError_Is(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NewNodeNotFoundError("demo", "/missing"))
	if !errors.Is(err, ErrNodeNotFound) {
		t.Fatal("expected wrapped NodeNotFoundError to match ErrNodeNotFound")
	}

	var nf *NodeNotFoundError
	if !errors.As(err, &nf) {
		t.Fatal("expected errors.As to find NodeNotFoundError")
	}
	if nf.ConnectorID != "demo" || nf.NodeID != "/missing" {
		t.Errorf("unexpected fields: %+v", nf)
	}
	if errors.Is(err, ErrUnsupported) {
		t.Error("NodeNotFoundError must not match ErrUnsupported")
	}
}

func TestConnectorConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *ConnectorConfig
		wantErr bool
	}{
		{"valid", &ConnectorConfig{ID: "demo", Type: "demo"}, false},
		{"nil", nil, true},
		{"missing id", &ConnectorConfig{Type: "demo"}, true},
		{"root id", &ConnectorConfig{ID: "/", Type: "demo"}, true},
		{"slash in id", &ConnectorConfig{ID: "a/b", Type: "demo"}, true},
		{"missing type", &ConnectorConfig{ID: "demo"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigurationSet_ValidateDuplicateIDs(t *testing.T) {
	set := &ConfigurationSet{
		PrincipalID: "kermit",
		Connectors: []*ConnectorConfig{
			{ID: "demo", Type: "demo"},
			{ID: "demo", Type: "fs"},
		},
	}
	if err := set.Validate(); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestConfigurationSet_CloneIsDeep(t *testing.T) {
	set := &ConfigurationSet{
		PrincipalID: "kermit",
		Connectors: []*ConnectorConfig{{
			ID:          "files",
			Type:        "fs",
			Credentials: map[string]string{"user": "a"},
			Options:     map[string]interface{}{"exclude": []interface{}{"**/.git/**"}},
		}},
	}

	clone := set.Clone()
	clone.Connectors[0].Credentials["user"] = "b"
	clone.Connectors[0].Options["exclude"].([]interface{})[0] = "changed"
	clone.Connectors[0].Name = "renamed"

	if set.Connectors[0].Credentials["user"] != "a" {
		t.Error("credentials were shared between clone and original")
	}
	if set.Connectors[0].Options["exclude"].([]interface{})[0] != "**/.git/**" {
		t.Error("option slice was shared between clone and original")
	}
	if set.Connectors[0].Name != "" {
		t.Error("name was shared between clone and original")
	}
}

func TestNodeCollection_JSON(t *testing.T) {
	coll := NewNodeCollection(
		&Folder{ID: "/a", ConnectorID: "demo", Metadata: NodeMetadata{Name: "a"}},
		&Artifact{ID: "/a.bpmn", ConnectorID: "demo", Type: &ArtifactType{Name: "bpmn20-xml", Revision: 3}},
	)

	if len(coll.Folders()) != 1 || len(coll.Artifacts()) != 1 {
		t.Fatalf("unexpected split: %d folders, %d artifacts", len(coll.Folders()), len(coll.Artifacts()))
	}

	data, err := json.Marshal(coll)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded []map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded[0]["kind"] != KindFolder || decoded[1]["kind"] != KindArtifact {
		t.Errorf("unexpected kinds: %v, %v", decoded[0]["kind"], decoded[1]["kind"])
	}
	if decoded[1]["id"] != "/a.bpmn" {
		t.Errorf("unexpected artifact id: %v", decoded[1]["id"])
	}

	empty, _ := json.Marshal(&NodeCollection{})
	if string(empty) != "[]" {
		t.Errorf("empty collection = %s, want []", empty)
	}
}

func TestNodeMetadata_OmitsZeroTimes(t *testing.T) {
	data, err := json.Marshal(NodeMetadata{Name: "a"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"name":"a"}` {
		t.Errorf("unexpected JSON: %s", data)
	}

	modified := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	data, _ = json.Marshal(NodeMetadata{Name: "a", LastModified: modified})
	if string(data) != `{"name":"a","last_modified":"2024-03-01T12:00:00Z"}` {
		t.Errorf("unexpected JSON: %s", data)
	}
}

func TestArtifactType_WithRevision(t *testing.T) {
	orig := &ArtifactType{Name: "text-plain", Representations: []string{"raw"}}
	stamped := orig.WithRevision(7)

	if stamped.Revision != 7 || orig.Revision != 0 {
		t.Errorf("revision not copied: orig=%d stamped=%d", orig.Revision, stamped.Revision)
	}
	stamped.Representations[0] = "changed"
	if orig.Representations[0] != "raw" {
		t.Error("representations shared between copies")
	}
	if !orig.SupportsRepresentation("") || !orig.SupportsRepresentation("raw") || orig.SupportsRepresentation("png") {
		t.Error("SupportsRepresentation returned unexpected result")
	}
}
