// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"cycle/connectors/base"
	"cycle/connectors/sdk"
	"cycle/federation"
	"cycle/shared/logger"
)

// SessionProvider hands out the federation service for a principal's
// session. *federation.Registry implements it.
type SessionProvider interface {
	Get(ctx context.Context, principalID, sessionID string) (*federation.Service, error)
	Release(principalID, sessionID string) bool
}

// Handler serves the federation API.
type Handler struct {
	sessions SessionProvider
	logger   *logger.Logger
}

// NewHandler creates a Handler. A nil logger gets the "api" component logger.
func NewHandler(sessions SessionProvider, l *logger.Logger) *Handler {
	if l == nil {
		l = logger.New("api")
	}
	return &Handler{sessions: sessions, logger: l}
}

// RegisterHandlers registers the /api/v1 routes on router.
func (h *Handler) RegisterHandlers(router *mux.Router) {
	v1 := router.PathPrefix("/api/v1").Subrouter()
	// Subrouters do not inherit these from the parent.
	v1.NotFoundHandler = http.HandlerFunc(notFound)
	v1.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	v1.HandleFunc("/login", h.HandleLogin).Methods("POST")
	v1.HandleFunc("/commit", h.HandleCommit).Methods("POST")
	v1.HandleFunc("/session", h.HandleReleaseSession).Methods("DELETE")
	v1.HandleFunc("/connectors", h.HandleListConnectors).Methods("GET")
	v1.HandleFunc("/health", h.HandleHealth).Methods("GET")

	v1.HandleFunc("/children", h.HandleGetChildren).Methods("GET")
	v1.HandleFunc("/artifact", h.HandleGetArtifact).Methods("GET")
	v1.HandleFunc("/artifact", h.HandleDeleteArtifact).Methods("DELETE")
	v1.HandleFunc("/folder", h.HandleGetFolder).Methods("GET")
	v1.HandleFunc("/folder", h.HandleDeleteFolder).Methods("DELETE")
	v1.HandleFunc("/content", h.HandleGetContent).Methods("GET")
	v1.HandleFunc("/content", h.HandleUpdateContent).Methods("PUT")
	v1.HandleFunc("/preview", h.HandleGetPreview).Methods("GET")
	v1.HandleFunc("/artifacts", h.HandleCreateArtifact).Methods("POST")
	v1.HandleFunc("/folders", h.HandleCreateFolder).Methods("POST")
	v1.HandleFunc("/artifact-types", h.HandleArtifactTypes).Methods("GET")
	v1.HandleFunc("/actions", h.HandleExecuteAction).Methods("POST")

	v1.HandleFunc("/links", h.HandleListLinks).Methods("GET")
	v1.HandleFunc("/links", h.HandleCreateLink).Methods("POST")
	v1.HandleFunc("/links/{id}", h.HandleDeleteLink).Methods("DELETE")
	v1.HandleFunc("/tags", h.HandleListTags).Methods("GET")
	v1.HandleFunc("/tags", h.HandleAddTag).Methods("POST")
	v1.HandleFunc("/tags", h.HandleDeleteTag).Methods("DELETE")
}

// service resolves the caller's session. On failure the error response has
// already been written and nil is returned.
func (h *Handler) service(w http.ResponseWriter, r *http.Request) *federation.Service {
	principal := r.Header.Get(HeaderPrincipal)
	if principal == "" {
		writeJSONError(w, HeaderPrincipal+" header is required", http.StatusUnauthorized)
		return nil
	}
	svc, err := h.sessions.Get(r.Context(), principal, sessionID(r))
	if err != nil {
		h.fail(w, r, "session", err)
		return nil
	}
	return svc
}

func sessionID(r *http.Request) string {
	if s := r.Header.Get(HeaderSession); s != "" {
		return s
	}
	return federation.DefaultSessionKey
}

// fail logs err and writes the mapped error response.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := errorStatus(err)
	principal := sdk.GetPrincipalID(r.Context())
	requestID := sdk.GetRequestID(r.Context())
	if status >= http.StatusInternalServerError && status != http.StatusNotImplemented {
		h.logger.ErrorWithCode(principal, requestID, op+" failed", status, err, nil)
	} else {
		h.logger.Debug(principal, requestID, op+" rejected", map[string]interface{}{
			"status": status,
			"error":  base.SanitizeLogString(err.Error()),
		})
	}
	writeJSONError(w, err.Error(), status)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// requireQuery returns the named query parameters, writing a 400 when any
// of them is empty.
func requireQuery(w http.ResponseWriter, r *http.Request, names ...string) ([]string, bool) {
	q := r.URL.Query()
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = q.Get(n)
		if out[i] == "" {
			writeJSONError(w, fmt.Sprintf("query parameter %q is required", n), http.StatusBadRequest)
			return nil, false
		}
	}
	return out, true
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin handles POST /api/v1/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	svc := h.service(w, r)
	if svc == nil {
		return
	}
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ok, err := svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(w, r, "login", err)
		return
	}
	writeJSONResponse(w, map[string]interface{}{"success": ok}, http.StatusOK)
}

type commitRequest struct {
	ConnectorID string `json:"connector_id"`
	Comment     string `json:"comment"`
}

// HandleCommit handles POST /api/v1/commit
func (h *Handler) HandleCommit(w http.ResponseWriter, r *http.Request) {
	svc := h.service(w, r)
	if svc == nil {
		return
	}
	var req commitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := svc.CommitPendingChanges(r.Context(), req.ConnectorID, req.Comment); err != nil {
		h.fail(w, r, "commit", err)
		return
	}
	writeJSONResponse(w, map[string]interface{}{"success": true}, http.StatusOK)
}

// HandleReleaseSession handles DELETE /api/v1/session
func (h *Handler) HandleReleaseSession(w http.ResponseWriter, r *http.Request) {
	principal := r.Header.Get(HeaderPrincipal)
	if principal == "" {
		writeJSONError(w, HeaderPrincipal+" header is required", http.StatusUnauthorized)
		return
	}
	if !h.sessions.Release(principal, sessionID(r)) {
		writeJSONError(w, "no active session", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type connectorInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// HandleListConnectors handles GET /api/v1/connectors. Credentials and
// options are never returned.
func (h *Handler) HandleListConnectors(w http.ResponseWriter, r *http.Request) {
	svc := h.service(w, r)
	if svc == nil {
		return
	}
	cfgs := svc.Connectors()
	out := make([]connectorInfo, 0, len(cfgs))
	for _, c := range cfgs {
		out = append(out, connectorInfo{ID: c.ID, Name: c.DisplayName(), Type: c.Type})
	}
	writeJSONResponse(w, map[string]interface{}{
		"connectors": out,
		"count":      len(out),
	}, http.StatusOK)
}

// HandleHealth handles GET /api/v1/health
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	svc := h.service(w, r)
	if svc == nil {
		return
	}
	statuses := svc.HealthCheck(r.Context())
	healthy := true
	for _, s := range statuses {
		healthy = healthy && s.Healthy
	}
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSONResponse(w, map[string]interface{}{
		"healthy":    healthy,
		"connectors": statuses,
	}, status)
}

// HandleGetChildren handles GET /api/v1/children
func (h *Handler) HandleGetChildren(w http.ResponseWriter, r *http.Request) {
	svc := h.service(w, r)
	if svc == nil {
		return
	}
	q := r.URL.Query()
	connectorID := q.Get("connector")
	if connectorID == "" {
		connectorID = federation.RootID
	}
	nodes, err := svc.GetChildren(r.Context(), connectorID, q.Get("node"))
	if err != nil {
		h.fail(w, r, "get children", err)
		return
	}
	writeJSONResponse(w, map[string]interface{}{
		"nodes": nodes,
		"count": nodes.Len(),
	}, http.StatusOK)
}

// HandleGetArtifact handles GET /api/v1/artifact
func (h *Handler) HandleGetArtifact(w http.ResponseWriter, r *http.Request) {
	svc := h.service(w, r)
	if svc == nil {
		return
	}
	q, ok := requireQuery(w, r, "connector", "id")
	if !ok {
		return
	}
	a, err := svc.GetRepositoryArtifact(r.Context(), q[0], q[1])
	if err != nil {
		h.fail(w, r, "get artifact", err)
		return
	}
	writeJSONResponse(w, a, http.StatusOK)
}

// HandleGetFolder handles GET /api/v1/folder
func (h *Handler) HandleGetFolder(w http.ResponseWriter, r *http.Request) {
	svc := h.service(w, r)
	if svc == nil {
		return
	}
	q, ok := requireQuery(w, r, "connector", "id")
	if !ok {
		return
	}
	f, err := svc.GetRepositoryFolder(r.Context(), q[0], q[1])
	if err != nil {
		h.fail(w, r, "get folder", err)
		return
	}
	writeJSONResponse(w, f, http.StatusOK)
}

func writeContent(w http.ResponseWriter, c *base.Content) {
	mime := c.MimeType
	if mime == "" {
		mime = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(c.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(c.Data)
}

// HandleGetContent handles GET /api/v1/content
func (h *Handler) HandleGetContent(w http.ResponseWriter, r *http.Request) {
	svc := h.service(w, r)
	if svc == nil {
		return
	}
	q, ok := requireQuery(w, r, "connector", "id")
	if !ok {
		return
	}
	c, err := svc.GetContent(r.Context(), q[0], q[1], r.URL.Query().Get("representation"))
	if err != nil {
		h.fail(w, r, "get content", err)
		return
	}
	writeContent(w, c)
}

// HandleGetPreview handles GET /api/v1/preview
func (h *Handler) HandleGetPreview(w http.ResponseWriter, r *http.Request) {
	svc := h.service(w, r)
	if svc == nil {
		return
	}
	q, ok := requireQuery(w, r, "connector", "id")
	if !ok {
		return
	}
	c, err := svc.GetRepositoryArtifactPreview(r.Context(), q[0], q[1])
	if err != nil {
		h.fail(w, r, "get preview", err)
		return
	}
	writeContent(w, c)
}

// maxContentBytes caps uploaded artifact content.
const maxContentBytes = 32 << 20

// HandleUpdateContent handles PUT /api/v1/content. The request body is the
// new content; its Content-Type becomes the content's mime type.
func (h *Handler) HandleUpdateContent(w http.ResponseWriter, r *http.Request) {
	svc := h.service(w, r)
	if svc == nil {
		return
	}
	q, ok := requireQuery(w, r, "connector", "id")
	if !ok {
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxContentBytes))
	if err != nil {
		writeJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	content := &base.Content{Data: data, MimeType: r.Header.Get("Content-Type")}
	if rep := r.URL.Query().Get("representation"); rep != "" {
		err = svc.UpdateContentRepresentation(r.Context(), q[0], q[1], rep, content)
	} else {
		err = svc.UpdateContent(r.Context(), q[0], q[1], content)
	}
	if err != nil {
		h.fail(w, r, "update content", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createArtifactRequest struct {
	ConnectorID    string        `json:"connector_id"`
	FolderID       string        `json:"folder_id"`
	Name           string        `json:"name"`
	Type           string        `json:"type"`
	Representation string        `json:"representation,omitempty"`
	Content        *base.Content `json:"content,omitempty"`
}

// HandleCreateArtifact handles POST /api/v1/artifacts. Content data is
// base64 encoded in the JSON body.
func (h *Handler) HandleCreateArtifact(w http.ResponseWriter, r *http.Request) {
	svc := h.service(w, r)
	if svc == nil {
		return
	}
	var req createArtifactRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ConnectorID == "" || req.Name == "" {
		writeJSONError(w, "connector_id and name are required", http.StatusBadRequest)
		return
	}
	var (
		a   *base.Artifact
		err error
	)
	if req.Representation != "" {
		a, err = svc.CreateArtifactFromContentRepresentation(r.Context(), req.ConnectorID, req.FolderID, req.Name, req.Type, req.Representation, req.Content)
	} else {
		a, err = svc.CreateArtifact(r.Context(), req.ConnectorID, req.FolderID, req.Name, req.Type, req.Content)
	}
	if err != nil {
		h.fail(w, r, "create artifact", err)
		return
	}
	writeJSONResponse(w, a, http.StatusCreated)
}

type createFolderRequest struct {
	ConnectorID    string `json:"connector_id"`
	ParentFolderID string `json:"parent_folder_id"`
	Name           string `json:"name"`
}

// HandleCreateFolder handles POST /api/v1/folders
func (h *Handler) HandleCreateFolder(w http.ResponseWriter, r *http.Request) {
	svc := h.service(w, r)
	if svc == nil {
		return
	}
	var req createFolderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ConnectorID == "" || req.Name == "" {
		writeJSONError(w, "connector_id and name are required", http.StatusBadRequest)
		return
	}
	f, err := svc.CreateFolder(r.Context(), req.ConnectorID, req.ParentFolderID, req.Name)
	if err != nil {
		h.fail(w, r, "create folder", err)
		return
	}
	writeJSONResponse(w, f, http.StatusCreated)
}

// HandleDeleteArtifact handles DELETE /api/v1/artifact
func (h *Handler) HandleDeleteArtifact(w http.ResponseWriter, r *http.Request) {
	svc := h.service(w, r)
	if svc == nil {
		return
	}
	q, ok := requireQuery(w, r, "connector", "id")
	if !ok {
		return
	}
	if err := svc.DeleteArtifact(r.Context(), q[0], q[1]); err != nil {
		h.fail(w, r, "delete artifact", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteFolder handles DELETE /api/v1/folder
func (h *Handler) HandleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	svc := h.service(w, r)
	if svc == nil {
		return
	}
	q, ok := requireQuery(w, r, "connector", "id")
	if !ok {
		return
	}
	if err := svc.DeleteFolder(r.Context(), q[0], q[1]); err != nil {
		h.fail(w, r, "delete folder", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleArtifactTypes handles GET /api/v1/artifact-types
func (h *Handler) HandleArtifactTypes(w http.ResponseWriter, r *http.Request) {
	svc := h.service(w, r)
	if svc == nil {
		return
	}
	q := r.URL.Query()
	types, err := svc.GetSupportedArtifactTypes(r.Context(), q.Get("connector"), q.Get("folder"))
	if err != nil {
		h.fail(w, r, "get artifact types", err)
		return
	}
	writeJSONResponse(w, map[string]interface{}{
		"types": types,
		"count": len(types),
	}, http.StatusOK)
}

type actionRequest struct {
	ConnectorID string                `json:"connector_id"`
	ArtifactID  string                `json:"artifact_id"`
	Action      string                `json:"action"`
	Parameters  base.ActionParameters `json:"parameters"`
}

// HandleExecuteAction handles POST /api/v1/actions. Parameters are either
// {"value": ...} or {"connector": "<id>"}; connector references are bound
// to this session's connectors.
func (h *Handler) HandleExecuteAction(w http.ResponseWriter, r *http.Request) {
	svc := h.service(w, r)
	if svc == nil {
		return
	}
	var req actionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ConnectorID == "" || req.ArtifactID == "" || req.Action == "" {
		writeJSONError(w, "connector_id, artifact_id and action are required", http.StatusBadRequest)
		return
	}
	if err := svc.ExecuteParameterizedAction(r.Context(), req.ConnectorID, req.ArtifactID, req.Action, req.Parameters); err != nil {
		h.fail(w, r, "execute action", err)
		return
	}
	writeJSONResponse(w, map[string]interface{}{"success": true}, http.StatusOK)
}
