// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package federation

import (
	"cycle/connectors/base"
	"cycle/connectors/config"
	"cycle/connectors/demo"
	"cycle/connectors/fs"
	"cycle/connectors/signavio"
)

// Ids of the connectors in the default configuration.
const (
	DefaultDemoID     = "demo"
	DefaultSignavioID = "signavio"
	DefaultFilesID    = "files"
)

// BootstrapOptions overrides the endpoints of the default configuration.
type BootstrapOptions struct {
	// SignavioURL defaults to config.DefaultSignavioURL.
	SignavioURL string
	// FilesystemRoot defaults to the first filesystem root of the OS.
	FilesystemRoot string
}

// BootstrapOptionsFromSettings takes the overrides from service settings.
func BootstrapOptionsFromSettings(s *config.Settings) BootstrapOptions {
	return BootstrapOptions{SignavioURL: s.SignavioURL, FilesystemRoot: s.FilesystemRoot}
}

// DefaultConfiguration returns the configuration set given to a principal
// that has none: a demo repository, a signavio modeler and the local
// filesystem, in that order. It has no side effects.
func DefaultConfiguration(principalID string, opts BootstrapOptions) *base.ConfigurationSet {
	signavioURL := opts.SignavioURL
	if signavioURL == "" {
		signavioURL = config.DefaultSignavioURL
	}
	root := opts.FilesystemRoot
	if root == "" {
		root = fs.DefaultRoot()
	}

	return &base.ConfigurationSet{
		PrincipalID: principalID,
		Connectors: []*base.ConnectorConfig{
			{ID: DefaultDemoID, Name: "Demo Repository", Type: demo.Type},
			{ID: DefaultSignavioID, Name: "Signavio", Type: signavio.Type, ConnectionURL: signavioURL},
			{ID: DefaultFilesID, Name: "Files", Type: fs.Type, Options: map[string]interface{}{"base_path": root}},
		},
	}
}
