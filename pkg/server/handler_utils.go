package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/amrlabs/amrd/pkg/models"
)

// APIError represents an error response. Used for swagger documentation.
type APIError struct {
	Message string `json:"message"`
}

// encodeJSON encodes data into JSON and writes it to the response writer.
func encodeJSON(w http.ResponseWriter, data interface{}) error {
	return json.NewEncoder(w).Encode(data)
}

// decodeJSON decodes a JSON request body into the provided data struct.
func decodeJSON(r *http.Request, data interface{}) error {
	return json.NewDecoder(r.Body).Decode(&data)
}

// renderError renders an error response. Alignment errors are the caller's
// fault and map to 400 regardless of the status the handler passed in.
func renderError(w http.ResponseWriter, err error, status int) {
	if errors.Is(err, models.ErrAlignment) {
		status = http.StatusBadRequest
	}
	if status != http.StatusBadRequest {
		log.Error(err)
	}
	http.Error(w, err.Error(), status)
}
