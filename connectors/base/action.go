// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package base

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ActionParameter is one argument of a parameterized action. It is either an
// opaque value or a reference to another configured connector. References
// are resolved to live connectors before the action reaches a connector.
type ActionParameter struct {
	value       interface{}
	connectorID string
	isRef       bool
	connector   RepositoryConnector
}

// Value creates an opaque parameter.
func Value(v interface{}) ActionParameter {
	return ActionParameter{value: v}
}

// ConnectorRef creates a parameter referencing the connector with the given
// configuration id.
func ConnectorRef(connectorID string) ActionParameter {
	return ActionParameter{connectorID: connectorID, isRef: true}
}

// IsConnectorRef reports whether the parameter references a connector.
func (p ActionParameter) IsConnectorRef() bool { return p.isRef }

// ConnectorID returns the referenced connector id.
func (p ActionParameter) ConnectorID() string { return p.connectorID }

// Raw returns the opaque value; nil for connector references.
func (p ActionParameter) Raw() interface{} { return p.value }

// Connector returns the resolved connector, nil until resolved.
func (p ActionParameter) Connector() RepositoryConnector { return p.connector }

// Resolved returns a copy of p bound to c.
func (p ActionParameter) Resolved(c RepositoryConnector) ActionParameter {
	p.connector = c
	return p
}

type actionParameterJSON struct {
	Value     interface{} `json:"value,omitempty"`
	Connector string      `json:"connector,omitempty"`
}

// MarshalJSON encodes {"value": v} or {"connector": id}.
func (p ActionParameter) MarshalJSON() ([]byte, error) {
	if p.isRef {
		return json.Marshal(actionParameterJSON{Connector: p.connectorID})
	}
	return json.Marshal(actionParameterJSON{Value: p.value})
}

// UnmarshalJSON accepts {"value": v}, {"connector": id} or a bare value.
func (p *ActionParameter) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err == nil {
		if c, ok := raw["connector"]; ok {
			var id string
			if err := json.Unmarshal(c, &id); err != nil {
				return fmt.Errorf("connector reference must be a string: %w", err)
			}
			if id == "" {
				return fmt.Errorf("connector reference must not be empty")
			}
			*p = ConnectorRef(id)
			return nil
		}
		if v, ok := raw["value"]; ok && len(raw) == 1 {
			var val interface{}
			if err := json.Unmarshal(v, &val); err != nil {
				return err
			}
			*p = Value(val)
			return nil
		}
	}
	var val interface{}
	if err := json.Unmarshal(data, &val); err != nil {
		return err
	}
	*p = Value(val)
	return nil
}

// ActionParameters maps parameter names to parameters.
type ActionParameters map[string]ActionParameter

// String returns the named opaque value as a string.
func (ps ActionParameters) String(name string) (string, bool) {
	p, ok := ps[name]
	if !ok || p.isRef {
		return "", false
	}
	s, ok := p.value.(string)
	return s, ok
}

// Connector returns the live connector bound to the named reference.
func (ps ActionParameters) Connector(name string) (RepositoryConnector, bool) {
	p, ok := ps[name]
	if !ok || !p.isRef || p.connector == nil {
		return nil, false
	}
	return p.connector, true
}

// Names returns the parameter names in sorted order.
func (ps ActionParameters) Names() []string {
	names := make([]string, 0, len(ps))
	for n := range ps {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Action ids and parameter names shared by the bundled connectors.
const (
	ActionCopyTo         = "copy-to"
	ParamTargetConnector = "targetConnectorId"
	ParamTargetFolder    = "targetFolderId"
	ParamTargetName      = "targetName"
)
