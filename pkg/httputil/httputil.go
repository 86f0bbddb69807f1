// Package httputil provides shared HTTP plumbing for the canvas client
// and the asset server.
package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ovecast/ovecast/pkg/errors"
)

// NewClient returns an HTTP client with a sane timeout for canvas
// service calls.
func NewClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// CheckStatus maps a canvas service response status onto the error
// taxonomy. 2xx is success; 404 keeps its identity so best-effort
// deletes can ignore it.
func CheckStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "not found")
	default:
		return errors.New(errors.ErrCodeRemoteService, "unexpected status %d", code)
	}
}

// PermissiveCORS adds the wildcard CORS headers every asset and control
// response carries, so the canvas service's browser-hosted frames can
// load assets cross-origin.
func PermissiveCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "*")
		h.Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WriteJSON serializes v into the response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError reports a failure as JSON carrying the structured error
// code, with the HTTP status derived from the code.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodeMissingCellID, errors.ErrCodeInvalidCellConfig,
		errors.ErrCodeCapacityExceeded, errors.ErrCodeInvalidMode,
		errors.ErrCodeInvalidConfig, errors.ErrCodeUnsupportedData:
		status = http.StatusBadRequest
	case errors.ErrCodeSessionNotFound, errors.ErrCodeNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeUnauthorized:
		status = http.StatusUnauthorized
	case errors.ErrCodeRemoteService:
		status = http.StatusBadGateway
	}
	WriteJSON(w, status, map[string]string{
		"code":  string(errors.GetCode(err)),
		"error": errors.UserMessage(err),
	})
}

// DecodeJSON reads a JSON request body into v.
func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}
