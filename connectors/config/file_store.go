// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"cycle/connectors/base"
)

// FileStore keeps one YAML document per principal in a directory.
// ${VAR} and ${VAR:-default} references are expanded when a document is
// read; saved documents are written atomically.
type FileStore struct {
	dir string
}

// configFile is the on-disk document
type configFile struct {
	Version     string                 `yaml:"version"`
	PrincipalID string                 `yaml:"principal_id"`
	Connectors  *[]connectorFileConfig `yaml:"connectors"`
}

type connectorFileConfig struct {
	ID                string                 `yaml:"id"`
	Name              string                 `yaml:"name,omitempty"`
	Type              string                 `yaml:"type"`
	ConnectionURL     string                 `yaml:"connection_url,omitempty"`
	Credentials       map[string]string      `yaml:"credentials,omitempty"`
	CredentialsSecret string                 `yaml:"credentials_secret,omitempty"`
	Options           map[string]interface{} `yaml:"options,omitempty"`
	TimeoutMs         int64                  `yaml:"timeout_ms,omitempty"`
	MaxRetries        int                    `yaml:"max_retries,omitempty"`
}

const fileVersion = "1"

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("config directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(principalID string) string {
	return filepath.Join(s.dir, url.PathEscape(principalID)+".yaml")
}

// Load implements Store
func (s *FileStore) Load(ctx context.Context, principalID string) (*base.ConfigurationSet, error) {
	data, err := os.ReadFile(s.path(principalID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("principal %q: %w", principalID, ErrConfigurationNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	doc, err := decodeConfigFile(expandEnvVars(string(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file for %s: %w", principalID, err)
	}

	set := &base.ConfigurationSet{PrincipalID: principalID}
	for _, fc := range *doc.Connectors {
		set.Connectors = append(set.Connectors, &base.ConnectorConfig{
			ID:                fc.ID,
			Name:              fc.Name,
			Type:              fc.Type,
			ConnectionURL:     fc.ConnectionURL,
			Credentials:       fc.Credentials,
			CredentialsSecret: fc.CredentialsSecret,
			Options:           fc.Options,
			Timeout:           time.Duration(fc.TimeoutMs) * time.Millisecond,
			MaxRetries:        fc.MaxRetries,
		})
	}
	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file for %s: %w", principalID, err)
	}
	return set, nil
}

// decodeConfigFile rejects unknown keys, empty documents and documents
// without a connectors list.
func decodeConfigFile(text string) (*configFile, error) {
	dec := yaml.NewDecoder(strings.NewReader(text))
	dec.KnownFields(true)

	var doc configFile
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", base.ErrInvalidArgument)
		}
		return nil, err
	}
	if doc.Version != "" && doc.Version != fileVersion {
		return nil, fmt.Errorf("unsupported config file version %q", doc.Version)
	}
	if doc.Connectors == nil {
		return nil, fmt.Errorf("%w: missing connectors list", base.ErrInvalidArgument)
	}
	return &doc, nil
}

// Save implements Store
func (s *FileStore) Save(ctx context.Context, set *base.ConfigurationSet) error {
	if err := set.Validate(); err != nil {
		return fmt.Errorf("invalid configuration set: %w", err)
	}

	connectors := make([]connectorFileConfig, 0, len(set.Connectors))
	doc := configFile{Version: fileVersion, PrincipalID: set.PrincipalID, Connectors: &connectors}
	for _, c := range set.Connectors {
		connectors = append(connectors, connectorFileConfig{
			ID:                c.ID,
			Name:              c.Name,
			Type:              c.Type,
			ConnectionURL:     c.ConnectionURL,
			Credentials:       c.Credentials,
			CredentialsSecret: c.CredentialsSecret,
			Options:           c.Options,
			TimeoutMs:         c.Timeout.Milliseconds(),
			MaxRetries:        c.MaxRetries,
		})
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to encode config file: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close config file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(set.PrincipalID)); err != nil {
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	return nil
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default}. Undefined variables
// without a default expand to "".
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := match[2 : len(match)-1]

		defaultVal := ""
		if idx := strings.Index(varName, ":-"); idx != -1 {
			defaultVal = varName[idx+2:]
			varName = varName[:idx]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultVal
	})
}
