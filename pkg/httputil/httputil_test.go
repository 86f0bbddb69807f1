package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ovecast/ovecast/pkg/errors"
)

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		code     int
		wantCode errors.Code
		wantErr  bool
	}{
		{200, "", false},
		{204, "", false},
		{299, "", false},
		{404, errors.ErrCodeNotFound, true},
		{400, errors.ErrCodeRemoteService, true},
		{500, errors.ErrCodeRemoteService, true},
	}
	for _, tt := range tests {
		err := CheckStatus(tt.code)
		if (err != nil) != tt.wantErr {
			t.Errorf("CheckStatus(%d) error = %v, wantErr %v", tt.code, err, tt.wantErr)
			continue
		}
		if err != nil && errors.GetCode(err) != tt.wantCode {
			t.Errorf("CheckStatus(%d) code = %v, want %v", tt.code, errors.GetCode(err), tt.wantCode)
		}
	}
}

func TestPermissiveCORS(t *testing.T) {
	handler := PermissiveCORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("GET status = %d, handler should run", rec.Code)
	}
	for _, h := range []string{"Access-Control-Allow-Origin", "Access-Control-Allow-Methods", "Access-Control-Allow-Headers"} {
		if got := rec.Header().Get(h); got != "*" {
			t.Errorf("%s = %q, want *", h, got)
		}
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/x", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("OPTIONS status = %d, preflight must short-circuit with 200", rec.Code)
	}
}

func TestWriteErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"placement", errors.New(errors.ErrCodeMissingCellID, "no id provided"), http.StatusBadRequest},
		{"capacity", errors.New(errors.ErrCodeCapacityExceeded, "full"), http.StatusBadRequest},
		{"session", errors.New(errors.ErrCodeSessionNotFound, "unknown"), http.StatusNotFound},
		{"remote", errors.New(errors.ErrCodeRemoteService, "bad gateway"), http.StatusBadGateway},
		{"unauthorized", errors.New(errors.ErrCodeUnauthorized, "denied"), http.StatusUnauthorized},
		{"internal", errors.New(errors.ErrCodeInternal, "boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)
			if rec.Code != tt.want {
				t.Errorf("WriteError() status = %d, want %d", rec.Code, tt.want)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("WriteError() body is not JSON: %v", err)
			}
			if body["code"] != string(errors.GetCode(tt.err)) {
				t.Errorf("WriteError() code = %q", body["code"])
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	var v struct{}
	if err := DecodeJSON(req, &v); err == nil {
		t.Error("DecodeJSON() should fail on an empty body")
	}
}
