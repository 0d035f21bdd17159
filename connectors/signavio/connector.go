// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package signavio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cycle/connectors/base"
	"cycle/connectors/sdk"
)

// Type is the connector type name.
const Type = "signavio"

// TokenHeader carries the session token returned by p/login.
const TokenHeader = "x-signavio-id"

const (
	kindDirectory = "directory"
	kindModel     = "model"
)

// Connector talks to a remote modeler.
type Connector struct {
	*sdk.BaseConnector
	baseURL *url.URL
	client  *http.Client
	auth    *sdk.APIKeyAuth
	// proxyAuth is set when the modeler sits behind a basic-auth proxy.
	proxyAuth *sdk.BasicAuth
}

// New creates a connector for the modeler at cfg.ConnectionURL. Setting
// allow_private_ips to false rejects endpoints that resolve to internal
// addresses; blocked_hosts rejects hosts and their subdomains.
func New(cfg *base.ConnectorConfig) (*Connector, error) {
	cfg, err := sdk.NewDefaultConfigValidator([]string{"connection_url"}, map[string]interface{}{"allow_private_ips": true}).Prepare(cfg)
	if err != nil {
		return nil, err
	}
	bc := sdk.NewBaseConnector(Type, cfg)

	opts := base.DefaultURLValidationOptions()
	opts.AllowPrivateIPs = bc.OptionBool("allow_private_ips", true)
	opts.BlockedHosts = bc.OptionStrings("blocked_hosts")
	if err := base.ValidateURL(cfg.ConnectionURL, opts); err != nil {
		return nil, base.NewConnectorError(cfg.ID, "New", "invalid connection_url", fmt.Errorf("%w: %v", base.ErrInvalidArgument, err))
	}

	raw := cfg.ConnectionURL
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	baseURL, err := url.Parse(raw)
	if err != nil {
		return nil, base.NewConnectorError(cfg.ID, "New", "invalid connection_url", err)
	}

	c := &Connector{
		BaseConnector: bc,
		baseURL:       baseURL,
		auth:          sdk.NewAPIKeyAuth("", TokenHeader),
	}
	if user := c.Credential("proxy_username", ""); user != "" {
		c.proxyAuth = sdk.NewBasicAuth(user, c.Credential("proxy_password", ""))
	}
	c.client = &http.Client{Timeout: c.GetTimeout()}
	c.SetAuthProvider(c.auth)
	return c, nil
}

// authenticate applies the proxy credentials and, once logged in, the
// session token.
func (c *Connector) authenticate(ctx context.Context, req *http.Request) error {
	var providers []sdk.AuthProvider
	if c.proxyAuth != nil {
		providers = append(providers, c.proxyAuth)
	}
	if c.auth.HasKey() {
		providers = append(providers, c.auth)
	}
	return sdk.NewChainedAuth(providers...).Authenticate(ctx, req)
}

// SetHTTPClient replaces the HTTP client.
func (c *Connector) SetHTTPClient(client *http.Client) {
	c.client = client
}

// Login obtains a session token.
func (c *Connector) Login(ctx context.Context, username, password string) (err error) {
	defer c.Observe("Login", time.Now(), &err)

	username = c.Credential("username", username)
	password = c.Credential("password", password)

	form := url.Values{}
	form.Set("name", username)
	form.Set("password", password)
	form.Set("tokenonly", "true")

	body, err := c.do(ctx, "Login", http.MethodPost, "p/login", "", form)
	if err != nil {
		return err
	}
	token := strings.TrimSpace(string(body))
	if token == "" {
		return base.NewConnectorError(c.ID(), "Login", "modeler returned an empty token", base.ErrNotLoggedIn)
	}
	c.auth.SetAPIKey(token)
	c.MarkLoggedIn(username)
	c.Log("Logged in to %s as %s", c.baseURL.Redacted(), base.SanitizeLogString(username))
	return nil
}

// do sends a request with retry and returns the response body. nodeID
// names the node for not-found errors.
func (c *Connector) do(ctx context.Context, op, method, relPath, nodeID string, form url.Values) ([]byte, error) {
	return sdk.RetryWithBackoff(ctx, c.GetRetryConfig(), func() ([]byte, error) {
		return c.send(ctx, op, method, relPath, nodeID, form)
	})
}

// exec is do for calls whose response body is not used.
func (c *Connector) exec(ctx context.Context, op, method, relPath, nodeID string, form url.Values) error {
	return sdk.RetryVoid(ctx, c.GetRetryConfig(), func() error {
		_, err := c.send(ctx, op, method, relPath, nodeID, form)
		return err
	})
}

// send makes a single attempt.
func (c *Connector) send(ctx context.Context, op, method, relPath, nodeID string, form url.Values) ([]byte, error) {
	if err := c.WaitRateLimit(ctx); err != nil {
		return nil, &sdk.NonRetryableError{Err: err}
	}
	target := c.baseURL.ResolveReference(&url.URL{Path: relPath})

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, &sdk.NonRetryableError{Err: c.Wrap(op, err)}
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	if err := c.authenticate(ctx, req); err != nil {
		return nil, &sdk.NonRetryableError{Err: c.Wrap(op, err)}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, c.Wrap(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.Wrap(op, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return data, nil
	case resp.StatusCode == http.StatusNotFound && nodeID != "":
		return nil, c.NotFound(nodeID)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, base.NewConnectorError(c.ID(), op, fmt.Sprintf("modeler rejected the session (status %d)", resp.StatusCode), base.ErrNotLoggedIn)
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusConflict:
		return nil, base.NewConnectorError(c.ID(), op, fmt.Sprintf("modeler rejected the request: %s", snippet(data)), base.ErrInvalidArgument)
	default:
		return nil, base.NewConnectorError(c.ID(), op, "modeler call failed: "+snippet(data), sdk.NewStatusError(resp))
	}
}

func snippet(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return base.SanitizeLogString(s)
}

func (c *Connector) getJSON(ctx context.Context, op, relPath, nodeID string, out interface{}) error {
	data, err := c.do(ctx, op, http.MethodGet, relPath, nodeID, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return base.NewConnectorError(c.ID(), op, "invalid JSON from modeler", err)
	}
	return nil
}

// splitID parses "/directory/<key>" or "/model/<key>".
func (c *Connector) splitID(op, id, wantKind string) (string, error) {
	parts := strings.Split(strings.Trim(id, "/"), "/")
	if len(parts) != 2 || parts[1] == "" || parts[0] != wantKind {
		if len(parts) == 2 && (parts[0] == kindDirectory || parts[0] == kindModel) {
			return "", c.NotFound(id)
		}
		return "", base.NewConnectorError(c.ID(), op, fmt.Sprintf("malformed node id %q", id), base.ErrInvalidArgument)
	}
	return url.PathEscape(parts[1]), nil
}

func isRoot(id string) bool {
	return id == "" || id == "/"
}

func (c *Connector) toFolder(href string, rep entryRep) *base.Folder {
	parent := rep.Parent
	if parent == "" {
		parent = "/"
	}
	return &base.Folder{
		ID:             href,
		ConnectorID:    c.ID(),
		ParentFolderID: parent,
		Metadata: base.NodeMetadata{
			Name:         rep.Name,
			Path:         href,
			Author:       rep.Author,
			LastModified: rep.updated(),
			Properties:   descriptionProps(rep),
		},
	}
}

func (c *Connector) toArtifact(href string, rep entryRep) *base.Artifact {
	return &base.Artifact{
		ID:             href,
		ConnectorID:    c.ID(),
		ParentFolderID: rep.Parent,
		Type:           modelType.WithRevision(rep.Revision),
		Metadata: base.NodeMetadata{
			Name:         rep.Name,
			Path:         href,
			Author:       rep.Author,
			LastModified: rep.updated(),
			Properties:   descriptionProps(rep),
		},
	}
}

func descriptionProps(rep entryRep) map[string]string {
	if rep.Description == "" {
		return nil
	}
	return map[string]string{"description": rep.Description}
}

func (c *Connector) listDirectory(ctx context.Context, op, folderID string) ([]entry, error) {
	relPath := "p/directory"
	if !isRoot(folderID) {
		key, err := c.splitID(op, folderID, kindDirectory)
		if err != nil {
			return nil, err
		}
		relPath += "/" + key
	}
	var entries []entry
	if err := c.getJSON(ctx, op, relPath, folderID, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetChildren implements base.RepositoryConnector
func (c *Connector) GetChildren(ctx context.Context, nodeID string) (coll *base.NodeCollection, err error) {
	defer c.Observe("GetChildren", time.Now(), &err)

	entries, err := c.listDirectory(ctx, "GetChildren", nodeID)
	if err != nil {
		return nil, err
	}
	parent := nodeID
	if isRoot(parent) {
		parent = "/"
	}

	coll = base.NewNodeCollection()
	for _, e := range entries {
		if e.Rep.Parent == "" {
			e.Rep.Parent = parent
		}
		switch e.Rel {
		case relDirectory:
			coll.Add(c.toFolder(e.Href, e.Rep))
		case relModel:
			coll.Add(c.toArtifact(e.Href, e.Rep))
		}
	}
	return coll, nil
}

// GetRepositoryFolder implements base.RepositoryConnector
func (c *Connector) GetRepositoryFolder(ctx context.Context, folderID string) (f *base.Folder, err error) {
	defer c.Observe("GetRepositoryFolder", time.Now(), &err)

	if isRoot(folderID) {
		return &base.Folder{
			ID:          "/",
			ConnectorID: c.ID(),
			Metadata:    base.NodeMetadata{Name: c.Configuration().DisplayName(), Path: "/"},
		}, nil
	}
	entries, err := c.listDirectory(ctx, "GetRepositoryFolder", folderID)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Rel == relInfo {
			return c.toFolder(folderID, e.Rep), nil
		}
	}
	return c.toFolder(folderID, entryRep{Name: strings.TrimPrefix(folderID, "/"+kindDirectory+"/")}), nil
}

// GetRepositoryArtifact implements base.RepositoryConnector
func (c *Connector) GetRepositoryArtifact(ctx context.Context, artifactID string) (a *base.Artifact, err error) {
	defer c.Observe("GetRepositoryArtifact", time.Now(), &err)

	key, err := c.splitID("GetRepositoryArtifact", artifactID, kindModel)
	if err != nil {
		return nil, err
	}
	var rep entryRep
	if err := c.getJSON(ctx, "GetRepositoryArtifact", "p/model/"+key+"/info", artifactID, &rep); err != nil {
		return nil, err
	}
	return c.toArtifact(artifactID, rep), nil
}

// GetContent fetches one model representation, json by default.
func (c *Connector) GetContent(ctx context.Context, artifactID, representation string) (content *base.Content, err error) {
	defer c.Observe("GetContent", time.Now(), &err)

	if representation == "" {
		representation = RepresentationJSON
	}
	if !modelType.SupportsRepresentation(representation) {
		return nil, base.NewConnectorError(c.ID(), "GetContent",
			fmt.Sprintf("no representation %q", representation), base.ErrInvalidArgument)
	}
	key, err := c.splitID("GetContent", artifactID, kindModel)
	if err != nil {
		return nil, err
	}
	data, err := c.do(ctx, "GetContent", http.MethodGet, "p/model/"+key+"/"+representation, artifactID, nil)
	if err != nil {
		return nil, err
	}
	return &base.Content{Data: data, MimeType: representationMime[representation]}, nil
}

// GetRepositoryArtifactPreview returns the PNG rendering.
func (c *Connector) GetRepositoryArtifactPreview(ctx context.Context, artifactID string) (*base.Content, error) {
	return c.GetContent(ctx, artifactID, RepresentationPNG)
}

// CreateArtifact implements base.RepositoryConnector
func (c *Connector) CreateArtifact(ctx context.Context, folderID, name, artifactType string, content *base.Content) (*base.Artifact, error) {
	return c.CreateArtifactFromContentRepresentation(ctx, folderID, name, artifactType, "", content)
}

// CreateArtifactFromContentRepresentation uploads a new model into a
// directory. Only the json and bpmn2_0_xml representations can be uploaded.
func (c *Connector) CreateArtifactFromContentRepresentation(ctx context.Context, folderID, name, artifactType, representation string, content *base.Content) (a *base.Artifact, err error) {
	defer c.Observe("CreateArtifact", time.Now(), &err)

	if err := base.ValidateNodeName(name); err != nil {
		return nil, base.NewConnectorError(c.ID(), "CreateArtifact", "invalid name", err)
	}
	field, err := c.uploadField("CreateArtifact", representation)
	if err != nil {
		return nil, err
	}
	if isRoot(folderID) {
		return nil, base.NewConnectorError(c.ID(), "CreateArtifact", "models must be created inside a directory", base.ErrInvalidArgument)
	}
	if _, err := c.splitID("CreateArtifact", folderID, kindDirectory); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("parent", folderID)
	form.Set("name", name)
	form.Set(field, string(contentData(content)))
	form.Set("comment", "created by "+c.Username())

	data, err := c.do(ctx, "CreateArtifact", http.MethodPost, "p/model", folderID, form)
	if err != nil {
		return nil, err
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, base.NewConnectorError(c.ID(), "CreateArtifact", "invalid JSON from modeler", err)
	}
	if e.Rep.Parent == "" {
		e.Rep.Parent = folderID
	}
	return c.toArtifact(e.Href, e.Rep), nil
}

func (c *Connector) uploadField(op, representation string) (string, error) {
	if representation == "" {
		representation = RepresentationJSON
	}
	field, ok := uploadField[representation]
	if !ok {
		return "", base.NewConnectorError(c.ID(), op,
			fmt.Sprintf("representation %q cannot be uploaded", representation), base.ErrInvalidArgument)
	}
	return field, nil
}

func contentData(content *base.Content) []byte {
	if content == nil {
		return nil
	}
	return content.Data
}

// CreateFolder implements base.RepositoryConnector
func (c *Connector) CreateFolder(ctx context.Context, parentFolderID, name string) (f *base.Folder, err error) {
	defer c.Observe("CreateFolder", time.Now(), &err)

	if err := base.ValidateNodeName(name); err != nil {
		return nil, base.NewConnectorError(c.ID(), "CreateFolder", "invalid name", err)
	}
	if isRoot(parentFolderID) {
		return nil, base.NewConnectorError(c.ID(), "CreateFolder", "top-level directories are managed by the modeler", base.ErrInvalidArgument)
	}
	if _, err := c.splitID("CreateFolder", parentFolderID, kindDirectory); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("parent", parentFolderID)
	form.Set("name", name)

	data, err := c.do(ctx, "CreateFolder", http.MethodPost, "p/directory", parentFolderID, form)
	if err != nil {
		return nil, err
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, base.NewConnectorError(c.ID(), "CreateFolder", "invalid JSON from modeler", err)
	}
	if e.Rep.Parent == "" {
		e.Rep.Parent = parentFolderID
	}
	return c.toFolder(e.Href, e.Rep), nil
}

// UpdateContent implements base.RepositoryConnector
func (c *Connector) UpdateContent(ctx context.Context, artifactID string, content *base.Content) error {
	return c.UpdateContentRepresentation(ctx, artifactID, "", content)
}

// UpdateContentRepresentation uploads a new revision of a model.
func (c *Connector) UpdateContentRepresentation(ctx context.Context, artifactID, representation string, content *base.Content) (err error) {
	defer c.Observe("UpdateContent", time.Now(), &err)

	field, err := c.uploadField("UpdateContent", representation)
	if err != nil {
		return err
	}
	key, err := c.splitID("UpdateContent", artifactID, kindModel)
	if err != nil {
		return err
	}
	form := url.Values{}
	form.Set(field, string(contentData(content)))
	form.Set("comment", "updated by "+c.Username())

	return c.exec(ctx, "UpdateContent", http.MethodPut, "p/model/"+key, artifactID, form)
}

// DeleteArtifact implements base.RepositoryConnector
func (c *Connector) DeleteArtifact(ctx context.Context, artifactID string) (err error) {
	defer c.Observe("DeleteArtifact", time.Now(), &err)

	key, err := c.splitID("DeleteArtifact", artifactID, kindModel)
	if err != nil {
		return err
	}
	return c.exec(ctx, "DeleteArtifact", http.MethodDelete, "p/model/"+key, artifactID, nil)
}

// DeleteFolder implements base.RepositoryConnector
func (c *Connector) DeleteFolder(ctx context.Context, folderID string) (err error) {
	defer c.Observe("DeleteFolder", time.Now(), &err)

	if isRoot(folderID) {
		return base.NewConnectorError(c.ID(), "DeleteFolder", "the root cannot be deleted", base.ErrInvalidArgument)
	}
	key, err := c.splitID("DeleteFolder", folderID, kindDirectory)
	if err != nil {
		return err
	}
	return c.exec(ctx, "DeleteFolder", http.MethodDelete, "p/directory/"+key, folderID, nil)
}

// GetSupportedArtifactTypes returns the model type. The modeler accepts
// the same type in every directory.
func (c *Connector) GetSupportedArtifactTypes(ctx context.Context, folderID string) ([]*base.ArtifactType, error) {
	return []*base.ArtifactType{modelType.WithRevision(0)}, nil
}

// ExecuteParameterizedAction implements base.RepositoryConnector
func (c *Connector) ExecuteParameterizedAction(ctx context.Context, artifactID, actionID string, params base.ActionParameters) error {
	return sdk.ExecuteCommonAction(ctx, c, artifactID, actionID, params)
}

// HealthCheck lists the root directory once, without retries.
func (c *Connector) HealthCheck(ctx context.Context) (*base.HealthStatus, error) {
	start := time.Now()
	status, _ := c.BaseConnector.HealthCheck(ctx)
	status.Details["endpoint"] = c.baseURL.Redacted()

	_, err := c.send(ctx, "HealthCheck", http.MethodGet, "p/directory", "", nil)
	if err != nil {
		status.Healthy = false
		status.Error = err.Error()
	}
	status.Latency = time.Since(start)
	return status, nil
}
