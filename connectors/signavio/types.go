// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package signavio

import (
	"time"

	"cycle/connectors/base"
)

// Model representations served under p/model/<id>/<representation>.
const (
	RepresentationJSON = "json"
	RepresentationSVG  = "svg"
	RepresentationPNG  = "png"
	RepresentationBPMN = "bpmn2_0_xml"
)

// TypeModel is the artifact type of every modeler model.
const TypeModel = "signavio-bpmn20"

var modelType = &base.ArtifactType{
	Name:            TypeModel,
	MimeType:        "application/json",
	Representations: []string{RepresentationJSON, RepresentationSVG, RepresentationPNG, RepresentationBPMN},
	Actions:         []string{base.ActionCopyTo},
}

var representationMime = map[string]string{
	RepresentationJSON: "application/json",
	RepresentationSVG:  "image/svg+xml",
	RepresentationPNG:  "image/png",
	RepresentationBPMN: "application/xml",
}

// writable representations and the form field that carries them
var uploadField = map[string]string{
	RepresentationJSON: "json_xml",
	RepresentationBPMN: "bpmn2_0_xml",
}

// Entry relations in directory listings.
const (
	relInfo      = "info"
	relDirectory = "dir"
	relModel     = "mod"
)

// entry is one element of a p/directory response.
type entry struct {
	Rel  string   `json:"rel"`
	Href string   `json:"href"`
	Rep  entryRep `json:"rep"`
}

type entryRep struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parent      string `json:"parent,omitempty"`
	Author      string `json:"author,omitempty"`
	Updated     string `json:"updated,omitempty"`
	Revision    int64  `json:"revision,omitempty"`
}

func (r entryRep) updated() time.Time {
	t, err := time.Parse(time.RFC3339, r.Updated)
	if err != nil {
		return time.Time{}
	}
	return t
}
