// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package azureblob

import (
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"cycle/connectors/base"
	"cycle/connectors/objectstore"
	"cycle/connectors/sdk"
)

// Type is the connector type name.
const Type = "azureblob"

var validator = sdk.NewDefaultConfigValidator([]string{"container"}, map[string]interface{}{"use_managed_identity": false})

// New creates an Azure Blob connector. No request is sent until the first
// operation.
func New(cfg *base.ConnectorConfig) (*objectstore.Connector, error) {
	cfg, err := validator.Prepare(cfg)
	if err != nil {
		return nil, err
	}
	containerName, _ := cfg.Options["container"].(string)
	if containerName == "" {
		return nil, base.NewConnectorError(cfg.ID, "New", "container must not be empty", base.ErrInvalidArgument)
	}

	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	bucket := NewBucket(client.ServiceClient().NewContainerClient(containerName))

	c, err := objectstore.New(cfg, containerName, bucket)
	if err != nil {
		return nil, err
	}
	c.Log("Azure Blob connector %s serving container %s", cfg.ID, containerName)
	return c, nil
}

func newClient(cfg *base.ConnectorConfig) (*azblob.Client, error) {
	accountName, _ := cfg.Options["account_name"].(string)
	managedIdentity, _ := cfg.Options["use_managed_identity"].(bool)

	if connectionString := cfg.Credentials["connection_string"]; connectionString != "" {
		client, err := azblob.NewClientFromConnectionString(connectionString, nil)
		if err != nil {
			return nil, base.NewConnectorError(cfg.ID, "New", "failed to create client from connection string", err)
		}
		return client, nil
	}

	if accountKey := cfg.Credentials["account_key"]; accountKey != "" {
		if accountName == "" {
			return nil, base.NewConnectorError(cfg.ID, "New", "account_name is required with account_key", base.ErrInvalidArgument)
		}
		cred, err := azblob.NewSharedKeyCredential(accountName, accountKey)
		if err != nil {
			return nil, base.NewConnectorError(cfg.ID, "New", "failed to create shared key credential", err)
		}
		client, err := azblob.NewClientWithSharedKeyCredential(serviceURL(cfg, accountName), cred, nil)
		if err != nil {
			return nil, base.NewConnectorError(cfg.ID, "New", "failed to create client", err)
		}
		return client, nil
	}

	if managedIdentity {
		if accountName == "" {
			return nil, base.NewConnectorError(cfg.ID, "New", "account_name is required with use_managed_identity", base.ErrInvalidArgument)
		}
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, base.NewConnectorError(cfg.ID, "New", "failed to create Azure credential", err)
		}
		client, err := azblob.NewClient(serviceURL(cfg, accountName), cred, nil)
		if err != nil {
			return nil, base.NewConnectorError(cfg.ID, "New", "failed to create client", err)
		}
		return client, nil
	}

	return nil, base.NewConnectorError(cfg.ID, "New", "no authentication method provided", base.ErrInvalidArgument)
}

// serviceURL returns the endpoint option, or the public account endpoint.
func serviceURL(cfg *base.ConnectorConfig, accountName string) string {
	if endpoint, _ := cfg.Options["endpoint"].(string); endpoint != "" {
		return endpoint
	}
	return fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)
}
