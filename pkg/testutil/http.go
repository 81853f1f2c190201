// Package testutil provides common test utilities for handler and integration tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewJSONRequest creates an HTTP request whose body is body marshaled to JSON.
// A nil body sends no payload.
func NewJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DoRequest executes a request against a handler and returns the recorder.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// UnmarshalResponse decodes the response body into T.
func UnmarshalResponse[T any](t *testing.T, rr *httptest.ResponseRecorder) *T {
	t.Helper()
	var result T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result), "failed to unmarshal response: %s", rr.Body)
	return &result
}

// ErrorBody is the error envelope written by httputil.WriteError.
type ErrorBody struct {
	Error            string         `json:"error"`
	ErrorDescription string         `json:"error_description"`
	Details          map[string]any `json:"details"`
}

// AssertStatusAndError asserts both the status and the error code, returning
// the decoded envelope for further checks.
func AssertStatusAndError(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus int, expectedCode string) *ErrorBody {
	t.Helper()
	require.Equal(t, expectedStatus, rr.Code, "unexpected status code: %s", rr.Body)
	body := UnmarshalResponse[ErrorBody](t, rr)
	assert.Equal(t, expectedCode, body.Error, "unexpected error code")
	return body
}
