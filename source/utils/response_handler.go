package utils

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"worklogz/source/pipeline"
	"worklogz/source/schemas"
)

// SendResponse writes the {message,data} envelope. A non-zero
// internalErrorCode replaces both with the generic internal error message;
// an empty envelope is sent as a bare status.
func SendResponse(w http.ResponseWriter, statusCode int, message string, data any, internalErrorCode int) {
	body := schemas.ApiResponse{Message: message, Data: data}
	if internalErrorCode != 0 {
		body = schemas.ApiResponse{Message: SendInternalError(internalErrorCode)}
	}

	if body.Message == "" && body.Data == nil {
		w.WriteHeader(statusCode)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[HTTP] cannot encode response: %v", err)
	}
}

// SendError writes a pipeline failure with its own status and message.
// Anything else is logged and answered with the generic internal error.
func SendError(w http.ResponseWriter, err error, internalErrorCode int) {
	var pipelineErr *pipeline.Error
	if errors.As(err, &pipelineErr) {
		SendResponse(w, pipelineErr.Status, pipelineErr.Message, nil, 0)
		return
	}

	log.Printf("[HTTP] internal error (code %d): %v", internalErrorCode, err)
	SendResponse(w, http.StatusInternalServerError, "", nil, internalErrorCode)
}

// DecodeBody decodes a JSON request body into dst.
func DecodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	return json.NewDecoder(r.Body).Decode(dst)
}
