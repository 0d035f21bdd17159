// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"cycle/connectors/base"
	"cycle/federation"
)

// errorStatus maps an error to the HTTP status reported to the caller.
// Link resolution is checked first because its cause is usually a not-found
// error.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, federation.ErrLinkResolution):
		return http.StatusConflict
	case errors.Is(err, federation.ErrInvalidPrincipal):
		return http.StatusUnauthorized
	case errors.Is(err, federation.ErrConnectorNotFound), errors.Is(err, base.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, federation.ErrNotImplemented):
		return http.StatusNotImplemented
	case errors.Is(err, base.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, base.ErrUnsupported):
		return http.StatusMethodNotAllowed
	case errors.Is(err, base.ErrNotLoggedIn):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeJSONResponse writes a JSON response with the given status code
func writeJSONResponse(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[CycleAPI] Error encoding response: %v", err)
	}
}

// writeJSONError writes a JSON error response
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONResponse(w, map[string]interface{}{
		"error": map[string]interface{}{
			"code":    statusCode,
			"message": message,
		},
	}, statusCode)
}
