// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package gcs

import (
	"context"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"cycle/connectors/base"
	"cycle/connectors/objectstore"
	"cycle/connectors/sdk"
)

// Type is the connector type name.
const Type = "gcs"

var validator = sdk.NewDefaultConfigValidator([]string{"bucket"}, map[string]interface{}{"anonymous": false})

// New creates a GCS connector. Creating the client does not contact GCS;
// the first operation or HealthCheck does.
func New(ctx context.Context, cfg *base.ConnectorConfig) (*objectstore.Connector, error) {
	cfg, err := validator.Prepare(cfg)
	if err != nil {
		return nil, err
	}
	bucket, _ := cfg.Options["bucket"].(string)
	if bucket == "" {
		return nil, base.NewConnectorError(cfg.ID, "New", "bucket must not be empty", base.ErrInvalidArgument)
	}

	client, err := storage.NewClient(ctx, clientOptions(cfg)...)
	if err != nil {
		return nil, base.NewConnectorError(cfg.ID, "New", "failed to create GCS client", err)
	}

	c, err := objectstore.New(cfg, bucket, NewBucket(client.Bucket(bucket)))
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	c.Log("GCS connector %s serving bucket %s", cfg.ID, bucket)
	return c, nil
}

func clientOptions(cfg *base.ConnectorConfig) []option.ClientOption {
	var opts []option.ClientOption

	if anonymous, _ := cfg.Options["anonymous"].(bool); anonymous {
		opts = append(opts, option.WithoutAuthentication())
	} else if credFile := cfg.Credentials["credentials_file"]; credFile != "" {
		opts = append(opts, option.WithCredentialsFile(credFile))
	} else if credJSON := cfg.Credentials["credentials_json"]; credJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
	}

	// Custom endpoint, for the emulator
	if endpoint, _ := cfg.Options["endpoint"].(string); endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	return opts
}
