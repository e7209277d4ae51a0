// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"net/http"

	"github.com/lepetpal/lepetpal/internal/log"
)

// Stable error codes of the public surface.
const (
	CodeInvalid       = "invalid"
	CodeBusy          = "busy"
	CodeHardwareError = "hardware_error"
	CodeTTSError      = "tts_error"
)

type errorBody struct {
	Code    string `json:"code"`
	HTTP    int    `json:"http"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// writeJSON serializes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger := log.WithComponent("api")
		logger.Error().Err(err).Str("event", "api.encode_failed").Msg("response encode failed")
	}
}

// writeError emits the canonical error envelope.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{
		Code:    code,
		HTTP:    status,
		Message: message,
	}})
}
