// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package signavio connects to a remote Signavio-compatible process modeler
// over its HTTP/JSON interface (p/login, p/directory, p/model).
//
// Node ids are the hrefs the modeler reports, "/directory/<id>" for folders
// and "/model/<id>" for models. The modeler's root listing ("" or "/") holds
// the top-level directories.
//
// Login posts to p/login with tokenonly=true and sends the returned token in
// the x-signavio-id header on every later request. Username and password
// configured as credentials take precedence over the ones passed to Login.
package signavio
