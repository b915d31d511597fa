package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/templui/taskpilot/internal/middleware"
	"github.com/templui/taskpilot/internal/service"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

var errMalformedBody = service.ValidationError("Malformed JSON body")

// decodeJSON reads a size-limited JSON body into v. Unknown fields are ignored
// and an empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return service.ValidationError("Request body too large")
	}
	if err != nil {
		return errMalformedBody
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	middleware.WriteJSON(w, http.StatusOK, v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	middleware.WriteError(w, r, err)
}
