// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package s3

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"cycle/connectors/base"
	"cycle/connectors/objectstore"
	"cycle/connectors/sdk"
)

// Type is the connector type name.
const Type = "s3"

var validator = sdk.NewDefaultConfigValidator(
	[]string{"bucket"},
	map[string]interface{}{
		"region":           "us-east-1",
		"force_path_style": false,
	},
)

// New creates an S3 connector. The AWS configuration is loaded from the
// connector options, explicit credentials when present, and the default
// credential chain otherwise.
func New(ctx context.Context, cfg *base.ConnectorConfig) (*objectstore.Connector, error) {
	cfg, err := validator.Prepare(cfg)
	if err != nil {
		return nil, err
	}

	opts := clientOptions(cfg)
	optFns := []func(*config.LoadOptions) error{config.WithRegion(opts.region)}
	if opts.accessKeyID != "" && opts.secretAccessKey != "" {
		creds := credentials.NewStaticCredentialsProvider(opts.accessKeyID, opts.secretAccessKey, opts.sessionToken)
		optFns = append(optFns, config.WithCredentialsProvider(creds))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, base.NewConnectorError(cfg.ID, "New", "failed to load AWS config", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.endpoint != "" {
			o.BaseEndpoint = aws.String(opts.endpoint)
		}
		o.UsePathStyle = opts.forcePathStyle
	})
	return NewWithAPI(cfg, client)
}

// NewWithAPI creates an S3 connector on an existing client.
func NewWithAPI(cfg *base.ConnectorConfig, api API) (*objectstore.Connector, error) {
	cfg, err := validator.Prepare(cfg)
	if err != nil {
		return nil, err
	}
	name := clientOptions(cfg).bucket
	if name == "" {
		return nil, base.NewConnectorError(cfg.ID, "New", "bucket must not be empty", base.ErrInvalidArgument)
	}
	c, err := objectstore.New(cfg, name, NewBucket(api, name))
	if err != nil {
		return nil, err
	}
	c.Log("S3 connector %s serving bucket %s", cfg.ID, name)
	return c, nil
}

type options struct {
	bucket          string
	region          string
	endpoint        string
	forcePathStyle  bool
	accessKeyID     string
	secretAccessKey string
	sessionToken    string
}

func clientOptions(cfg *base.ConnectorConfig) options {
	str := func(key, def string) string {
		if s, ok := cfg.Options[key].(string); ok && s != "" {
			return s
		}
		return def
	}
	pathStyle, _ := cfg.Options["force_path_style"].(bool)
	return options{
		bucket:          str("bucket", ""),
		region:          str("region", "us-east-1"),
		endpoint:        str("endpoint", ""),
		forcePathStyle:  pathStyle,
		accessKeyID:     cfg.Credentials["access_key_id"],
		secretAccessKey: cfg.Credentials["secret_access_key"],
		sessionToken:    cfg.Credentials["session_token"],
	}
}
