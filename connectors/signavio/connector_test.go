// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package signavio

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cycle/connectors/base"
	"cycle/connectors/sdk"
)

const prefix = "/activiti-modeler/"

type fakeDir struct {
	name   string
	parent string
}

type fakeModel struct {
	name     string
	parent   string
	json     string
	revision int64
}

// fakeModeler implements the subset of the modeler protocol the connector
// uses.
type fakeModeler struct {
	mu           sync.Mutex
	dirs         map[string]*fakeDir
	models       map[string]*fakeModel
	seq          int
	requireToken bool
	unavailable  int
	tokens       []string
	basicAuth    []string
}

func newFakeModeler() *fakeModeler {
	return &fakeModeler{
		dirs: map[string]*fakeDir{
			"d1": {name: "Private"},
			"d2": {name: "Shared"},
			"d3": {name: "Processes", parent: "/directory/d1"},
		},
		models: map[string]*fakeModel{
			"m1": {name: "Loan Approval", parent: "/directory/d1", json: `{"resourceId":"m1"}`, revision: 3},
		},
	}
}

func (f *fakeModeler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p := strings.TrimPrefix(r.URL.Path, prefix)
	f.basicAuth = append(f.basicAuth, r.Header.Get("Authorization"))
	if p == "p/login" && r.Method == http.MethodPost {
		_ = r.ParseForm()
		if r.PostForm.Get("name") != "kermit" || r.PostForm.Get("password") != "frog" || r.PostForm.Get("tokenonly") != "true" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprint(w, "token-123\n")
		return
	}
	f.tokens = append(f.tokens, r.Header.Get(TokenHeader))
	if f.requireToken && r.Header.Get(TokenHeader) != "token-123" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if f.unavailable > 0 {
		f.unavailable--
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	parts := strings.Split(p, "/")
	switch {
	case p == "p/directory" && r.Method == http.MethodGet:
		f.writeListing(w, "")
	case p == "p/directory" && r.Method == http.MethodPost:
		_ = r.ParseForm()
		parent := r.PostForm.Get("parent")
		if _, ok := f.dirs[strings.TrimPrefix(parent, "/directory/")]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		f.seq++
		key := fmt.Sprintf("n%d", f.seq)
		f.dirs[key] = &fakeDir{name: r.PostForm.Get("name"), parent: parent}
		writeJSON(w, entry{Rel: relDirectory, Href: "/directory/" + key, Rep: entryRep{Name: f.dirs[key].name, Parent: parent}})
	case len(parts) == 3 && parts[1] == "directory":
		key := parts[2]
		d, ok := f.dirs[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Method == http.MethodDelete {
			delete(f.dirs, key)
			return
		}
		f.writeListing(w, "/directory/"+key, entry{Rel: relInfo, Href: "/directory/" + key, Rep: entryRep{Name: d.name, Parent: d.parent}})
	case p == "p/model" && r.Method == http.MethodPost:
		_ = r.ParseForm()
		parent := r.PostForm.Get("parent")
		if _, ok := f.dirs[strings.TrimPrefix(parent, "/directory/")]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.PostForm.Get("json_xml") == "" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, "json_xml is required")
			return
		}
		f.seq++
		key := fmt.Sprintf("n%d", f.seq)
		f.models[key] = &fakeModel{name: r.PostForm.Get("name"), parent: parent, json: r.PostForm.Get("json_xml"), revision: 1}
		writeJSON(w, entry{Rel: relModel, Href: "/model/" + key, Rep: entryRep{Name: f.models[key].name, Parent: parent, Revision: 1}})
	case len(parts) >= 3 && parts[1] == "model":
		m, ok := f.models[parts[2]]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch {
		case len(parts) == 3 && r.Method == http.MethodPut:
			_ = r.ParseForm()
			m.json = r.PostForm.Get("json_xml")
			m.revision++
		case len(parts) == 3 && r.Method == http.MethodDelete:
			delete(f.models, parts[2])
		case len(parts) == 4 && parts[3] == "info":
			writeJSON(w, entryRep{Name: m.name, Parent: m.parent, Revision: m.revision, Updated: "2024-05-01T10:00:00Z"})
		case len(parts) == 4 && parts[3] == "json":
			fmt.Fprint(w, m.json)
		case len(parts) == 4 && parts[3] == "png":
			w.Write([]byte{0x89, 'P', 'N', 'G'}) //nolint:errcheck
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeModeler) writeListing(w http.ResponseWriter, parent string, head ...entry) {
	out := append([]entry(nil), head...)
	var dirKeys, modelKeys []string
	for k, d := range f.dirs {
		if d.parent == parent {
			dirKeys = append(dirKeys, k)
		}
	}
	for k, m := range f.models {
		if m.parent == parent {
			modelKeys = append(modelKeys, k)
		}
	}
	sort.Strings(dirKeys)
	sort.Strings(modelKeys)
	for _, k := range dirKeys {
		out = append(out, entry{Rel: relDirectory, Href: "/directory/" + k, Rep: entryRep{Name: f.dirs[k].name}})
	}
	for _, k := range modelKeys {
		m := f.models[k]
		out = append(out, entry{Rel: relModel, Href: "/model/" + k, Rep: entryRep{Name: m.name, Revision: m.revision}})
	}
	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func newTestConnector(t *testing.T, fake *fakeModeler, creds map[string]string) *Connector {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	c, err := New(&base.ConnectorConfig{
		ID:            "signavio",
		Name:          "Signavio Modeler",
		Type:          Type,
		ConnectionURL: server.URL + "/activiti-modeler",
		Credentials:   creds,
	})
	require.NoError(t, err)
	c.SetRetryConfig(&sdk.RetryConfig{
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      1,
		RetryIf:         sdk.DefaultRetryCondition,
	})
	return c
}

func TestNew_Validation(t *testing.T) {
	_, err := New(&base.ConnectorConfig{ID: "s", Type: Type})
	assert.Error(t, err)

	_, err = New(&base.ConnectorConfig{ID: "s", Type: Type, ConnectionURL: "ftp://modeler"})
	assert.ErrorIs(t, err, base.ErrInvalidArgument)
}

func TestNew_EndpointPolicy(t *testing.T) {
	_, err := New(&base.ConnectorConfig{
		ID: "s", Type: Type, ConnectionURL: "http://127.0.0.1:8080/activiti-modeler/",
		Options: map[string]interface{}{"allow_private_ips": false},
	})
	assert.ErrorIs(t, err, base.ErrInvalidArgument)

	_, err = New(&base.ConnectorConfig{
		ID: "s", Type: Type, ConnectionURL: "http://eu.modeler.internal/activiti-modeler/",
		Options: map[string]interface{}{"blocked_hosts": []interface{}{"modeler.internal"}},
	})
	assert.ErrorIs(t, err, base.ErrInvalidArgument)

	_, err = New(&base.ConnectorConfig{ID: "s", Type: Type, ConnectionURL: "http://127.0.0.1:8080/activiti-modeler/"})
	assert.NoError(t, err)
}

func TestProxyBasicAuth(t *testing.T) {
	fake := newFakeModeler()
	fake.requireToken = true
	c := newTestConnector(t, fake, map[string]string{"proxy_username": "gate", "proxy_password": "pw"})
	ctx := context.Background()

	require.NoError(t, c.Login(ctx, "kermit", "frog"))
	_, err := c.GetChildren(ctx, "/")
	require.NoError(t, err)

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("gate:pw"))
	require.Len(t, fake.basicAuth, 2)
	for _, got := range fake.basicAuth {
		assert.Equal(t, want, got)
	}
	assert.Equal(t, "token-123", fake.tokens[len(fake.tokens)-1])
}

func TestLogin(t *testing.T) {
	fake := newFakeModeler()
	fake.requireToken = true
	c := newTestConnector(t, fake, nil)
	ctx := context.Background()

	_, err := c.GetChildren(ctx, "/")
	assert.ErrorIs(t, err, base.ErrNotLoggedIn)

	assert.ErrorIs(t, c.Login(ctx, "kermit", "wrong"), base.ErrNotLoggedIn)
	assert.False(t, c.IsLoggedIn())

	require.NoError(t, c.Login(ctx, "kermit", "frog"))
	assert.True(t, c.IsLoggedIn())

	_, err = c.GetChildren(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, "token-123", fake.tokens[len(fake.tokens)-1])
}

func TestLogin_ConfiguredCredentialsWin(t *testing.T) {
	fake := newFakeModeler()
	c := newTestConnector(t, fake, map[string]string{"username": "kermit", "password": "frog"})

	require.NoError(t, c.Login(context.Background(), "principal", "principal"))
	assert.Equal(t, "kermit", c.Username())
}

func TestGetChildren(t *testing.T) {
	c := newTestConnector(t, newFakeModeler(), nil)
	ctx := context.Background()

	root, err := c.GetChildren(ctx, "")
	require.NoError(t, err)
	folders := root.Folders()
	require.Len(t, folders, 2)
	assert.Equal(t, "/directory/d1", folders[0].ID)
	assert.Equal(t, "Private", folders[0].Metadata.Name)
	assert.Equal(t, "/", folders[0].ParentFolderID)

	private, err := c.GetChildren(ctx, "/directory/d1")
	require.NoError(t, err)
	require.Equal(t, 2, private.Len(), "info entries are not children")
	assert.Equal(t, "/directory/d3", private.Nodes[0].NodeID())
	model := private.Artifacts()[0]
	assert.Equal(t, "/model/m1", model.ID)
	assert.Equal(t, int64(3), model.Revision())
	assert.Equal(t, "/directory/d1", model.ParentFolderID)

	_, err = c.GetChildren(ctx, "/directory/zz")
	assert.ErrorIs(t, err, base.ErrNodeNotFound)
	_, err = c.GetChildren(ctx, "/model/m1")
	assert.ErrorIs(t, err, base.ErrNodeNotFound)
	_, err = c.GetChildren(ctx, "nonsense")
	assert.ErrorIs(t, err, base.ErrInvalidArgument)
}

func TestGetRepositoryFolder(t *testing.T) {
	c := newTestConnector(t, newFakeModeler(), nil)
	ctx := context.Background()

	root, err := c.GetRepositoryFolder(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, "Signavio Modeler", root.Metadata.Name)

	f, err := c.GetRepositoryFolder(ctx, "/directory/d3")
	require.NoError(t, err)
	assert.Equal(t, "Processes", f.Metadata.Name)
	assert.Equal(t, "/directory/d1", f.ParentFolderID)
}

func TestGetArtifactAndContent(t *testing.T) {
	c := newTestConnector(t, newFakeModeler(), nil)
	ctx := context.Background()

	a, err := c.GetRepositoryArtifact(ctx, "/model/m1")
	require.NoError(t, err)
	assert.Equal(t, "Loan Approval", a.Metadata.Name)
	assert.Equal(t, int64(3), a.Revision())
	assert.Equal(t, 2024, a.Metadata.LastModified.Year())

	content, err := c.GetContent(ctx, "/model/m1", "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"resourceId":"m1"}`, string(content.Data))
	assert.Equal(t, "application/json", content.MimeType)

	preview, err := c.GetRepositoryArtifactPreview(ctx, "/model/m1")
	require.NoError(t, err)
	assert.Equal(t, "image/png", preview.MimeType)

	_, err = c.GetContent(ctx, "/model/m1", "pdf")
	assert.ErrorIs(t, err, base.ErrInvalidArgument)
	_, err = c.GetRepositoryArtifact(ctx, "/model/missing")
	assert.ErrorIs(t, err, base.ErrNodeNotFound)
}

func TestMutations(t *testing.T) {
	fake := newFakeModeler()
	c := newTestConnector(t, fake, nil)
	ctx := context.Background()

	f, err := c.CreateFolder(ctx, "/directory/d2", "Drafts")
	require.NoError(t, err)
	assert.Equal(t, "/directory/d2", f.ParentFolderID)

	_, err = c.CreateFolder(ctx, "/", "Top")
	assert.ErrorIs(t, err, base.ErrInvalidArgument)

	a, err := c.CreateArtifact(ctx, f.ID, "Invoice", TypeModel, &base.Content{Data: []byte(`{"v":1}`)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.Revision())

	_, err = c.CreateArtifact(ctx, f.ID, "Empty", TypeModel, nil)
	assert.ErrorIs(t, err, base.ErrInvalidArgument, "modeler answers 400")

	_, err = c.CreateArtifactFromContentRepresentation(ctx, f.ID, "Pic", TypeModel, RepresentationPNG, &base.Content{Data: []byte("x")})
	assert.ErrorIs(t, err, base.ErrInvalidArgument)

	require.NoError(t, c.UpdateContent(ctx, a.ID, &base.Content{Data: []byte(`{"v":2}`)}))
	a, err = c.GetRepositoryArtifact(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), a.Revision())

	require.NoError(t, c.DeleteArtifact(ctx, a.ID))
	assert.ErrorIs(t, c.DeleteArtifact(ctx, a.ID), base.ErrNodeNotFound)

	require.NoError(t, c.DeleteFolder(ctx, f.ID))
	assert.ErrorIs(t, c.DeleteFolder(ctx, "/"), base.ErrInvalidArgument)
}

func TestRetriesTransientFailures(t *testing.T) {
	fake := newFakeModeler()
	fake.unavailable = 2
	c := newTestConnector(t, fake, nil)

	_, err := c.GetChildren(context.Background(), "/")
	require.NoError(t, err)

	fake.mu.Lock()
	fake.unavailable = 10
	fake.mu.Unlock()
	_, err = c.GetChildren(context.Background(), "/")
	var retryErr *sdk.RetryError
	require.ErrorAs(t, err, &retryErr)
	assert.Equal(t, 3, retryErr.Attempts)
}

func TestDeleteRetriesTransientFailures(t *testing.T) {
	fake := newFakeModeler()
	c := newTestConnector(t, fake, nil)
	ctx := context.Background()

	fake.unavailable = 2
	require.NoError(t, c.DeleteArtifact(ctx, "/model/m1"))
	_, ok := fake.models["m1"]
	assert.False(t, ok)

	fake.unavailable = 10
	err := c.DeleteFolder(ctx, "/directory/d2")
	var retryErr *sdk.RetryError
	require.ErrorAs(t, err, &retryErr)
	var status *sdk.StatusError
	require.ErrorAs(t, err, &status)
	assert.Equal(t, http.StatusServiceUnavailable, status.StatusCode)
	_, ok = fake.dirs["d2"]
	assert.True(t, ok)
}

func TestGetSupportedArtifactTypes(t *testing.T) {
	c := newTestConnector(t, newFakeModeler(), nil)
	types, err := c.GetSupportedArtifactTypes(context.Background(), "/directory/d1")
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, TypeModel, types[0].Name)
}

func TestHealthCheck(t *testing.T) {
	fake := newFakeModeler()
	c := newTestConnector(t, fake, nil)

	status, err := c.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Healthy)

	fake.mu.Lock()
	fake.requireToken = true
	fake.mu.Unlock()
	status, err = c.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Healthy)
}
