// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"cycle/connectors/base"
	"cycle/federation"
)

type linkEndpoint struct {
	ConnectorID string `json:"connector_id"`
	ArtifactID  string `json:"artifact_id"`
	ElementID   string `json:"element_id,omitempty"`
	ElementName string `json:"element_name,omitempty"`
}

type createLinkRequest struct {
	ID     string       `json:"id,omitempty"`
	Source linkEndpoint `json:"source"`
	Target linkEndpoint `json:"target"`
}

func (h *Handler) resolveEndpoint(r *http.Request, svc *federation.Service, ep linkEndpoint) (*base.Artifact, error) {
	return svc.GetRepositoryArtifact(r.Context(), ep.ConnectorID, ep.ArtifactID)
}

// HandleCreateLink handles POST /api/v1/links. Both endpoint artifacts are
// looked up first so the link records their current revisions. The response
// is the link as stored.
func (h *Handler) HandleCreateLink(w http.ResponseWriter, r *http.Request) {
	svc := h.service(w, r)
	if svc == nil {
		return
	}
	var req createLinkRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Source.ConnectorID == "" || req.Source.ArtifactID == "" ||
		req.Target.ConnectorID == "" || req.Target.ArtifactID == "" {
		writeJSONError(w, "source and target need connector_id and artifact_id", http.StatusBadRequest)
		return
	}

	src, err := h.resolveEndpoint(r, svc, req.Source)
	if err != nil {
		h.fail(w, r, "resolve link source", err)
		return
	}
	dst, err := h.resolveEndpoint(r, svc, req.Target)
	if err != nil {
		h.fail(w, r, "resolve link target", err)
		return
	}

	link := &federation.ArtifactLink{
		ID:                req.ID,
		SourceArtifact:    src,
		SourceElementID:   req.Source.ElementID,
		SourceElementName: req.Source.ElementName,
		TargetArtifact:    dst,
		TargetElementID:   req.Target.ElementID,
		TargetElementName: req.Target.ElementName,
	}
	if err := svc.AddArtifactLink(r.Context(), link); err != nil {
		h.fail(w, r, "add link", err)
		return
	}
	writeJSONResponse(w, link, http.StatusCreated)
}

// HandleListLinks handles GET /api/v1/links. With a revision or type query
// parameter it uses the revision-aware lookups, which are not implemented.
func (h *Handler) HandleListLinks(w http.ResponseWriter, r *http.Request) {
	svc := h.service(w, r)
	if svc == nil {
		return
	}
	q := r.URL.Query()
	artifactID := q.Get("artifact")
	if artifactID == "" {
		writeJSONError(w, `query parameter "artifact" is required`, http.StatusBadRequest)
		return
	}

	var (
		result []*federation.ArtifactLink
		err    error
	)
	switch {
	case q.Get("revision") != "":
		rev, perr := strconv.ParseInt(q.Get("revision"), 10, 64)
		if perr != nil {
			writeJSONError(w, "revision must be an integer", http.StatusBadRequest)
			return
		}
		if lt := q.Get("type"); lt != "" {
			result, err = svc.GetArtifactLinksOfType(r.Context(), artifactID, rev, lt)
		} else {
			result, err = svc.GetArtifactLinksForRevision(r.Context(), artifactID, rev)
		}
	case q.Get("connector") == "":
		result, err = svc.GetArtifactLinksForArtifact(r.Context(), artifactID)
	default:
		result, err = svc.GetArtifactLinks(r.Context(), q.Get("connector"), artifactID)
	}
	if err != nil {
		h.fail(w, r, "get links", err)
		return
	}
	writeJSONResponse(w, map[string]interface{}{
		"links": result,
		"count": len(result),
	}, http.StatusOK)
}

// HandleDeleteLink handles DELETE /api/v1/links/{id}
func (h *Handler) HandleDeleteLink(w http.ResponseWriter, r *http.Request) {
	svc := h.service(w, r)
	if svc == nil {
		return
	}
	if err := svc.DeleteLink(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.fail(w, r, "delete link", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type tagRequest struct {
	NodeID string `json:"node_id"`
	Name   string `json:"name"`
	Alias  string `json:"alias,omitempty"`
}

// HandleListTags handles GET /api/v1/tags
func (h *Handler) HandleListTags(w http.ResponseWriter, r *http.Request) {
	svc := h.service(w, r)
	if svc == nil {
		return
	}
	q := r.URL.Query()
	var (
		tags []federation.Tag
		err  error
	)
	switch {
	case q.Get("node") != "":
		tags, err = svc.GetTags(r.Context(), q.Get("node"))
	case q.Get("ignore_alias") == "true":
		tags, err = svc.GetAllTagsIgnoreAlias(r.Context())
	default:
		tags, err = svc.GetAllTags(r.Context())
	}
	if err != nil {
		h.fail(w, r, "get tags", err)
		return
	}
	writeJSONResponse(w, map[string]interface{}{"tags": tags, "count": len(tags)}, http.StatusOK)
}

// HandleAddTag handles POST /api/v1/tags
func (h *Handler) HandleAddTag(w http.ResponseWriter, r *http.Request) {
	svc := h.service(w, r)
	if svc == nil {
		return
	}
	var req tagRequest
	if !decodeBody(w, r, &req) {
		return
	}
	var err error
	if req.Alias != "" {
		err = svc.AddTagWithAlias(r.Context(), req.NodeID, req.Name, req.Alias)
	} else {
		err = svc.AddTag(r.Context(), req.NodeID, req.Name)
	}
	if err != nil {
		h.fail(w, r, "add tag", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteTag handles DELETE /api/v1/tags?node&name
func (h *Handler) HandleDeleteTag(w http.ResponseWriter, r *http.Request) {
	svc := h.service(w, r)
	if svc == nil {
		return
	}
	q := r.URL.Query()
	if err := svc.DeleteTag(r.Context(), q.Get("node"), q.Get("name")); err != nil {
		h.fail(w, r, "delete tag", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
