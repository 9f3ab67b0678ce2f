// Package testutil provides request builders and response assertions for
// handler and integration tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// File is one file part of a multipart form.
type File struct {
	Name string
	Data []byte
}

// NewMultipartRequest builds a multipart/form-data request. Fields are
// written in sorted order so requests are reproducible.
func NewMultipartRequest(t *testing.T, method, path string, fields map[string]string, files map[string]File) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		require.NoError(t, w.WriteField(name, fields[name]), "write field %s", name)
	}

	for field, f := range files {
		part, err := w.CreateFormFile(field, f.Name)
		require.NoError(t, err, "create file part %s", field)
		_, err = part.Write(f.Data)
		require.NoError(t, err, "write file part %s", field)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

// NewRequest creates a simple HTTP request without a body.
func NewRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()
	return httptest.NewRequest(method, path, nil)
}

// DoRequest executes a request against a handler and returns the recorder.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// ReadBody reads the response body as bytes.
func ReadBody(t *testing.T, rr *httptest.ResponseRecorder) []byte {
	t.Helper()
	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err, "failed to read response body")
	return body
}

// UnmarshalResponse unmarshals the response body into the target struct.
func UnmarshalResponse[T any](t *testing.T, rr *httptest.ResponseRecorder) *T {
	t.Helper()
	body := ReadBody(t, rr)
	var result T
	require.NoError(t, json.Unmarshal(body, &result), "failed to unmarshal response")
	return &result
}

// ErrorBody mirrors the error envelope.
type ErrorBody struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// AssertStatus asserts the response status code matches expected.
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	assert.Equal(t, expected, rr.Code, "unexpected status code")
}

// AssertError asserts status and message of an error envelope and returns it.
func AssertError(t *testing.T, rr *httptest.ResponseRecorder, status int, message string) *ErrorBody {
	t.Helper()
	AssertStatus(t, rr, status)
	body := UnmarshalResponse[ErrorBody](t, rr)
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, message, body.Message)
	return body
}

// AssertFieldError asserts a 422 whose errors[field] contains message.
func AssertFieldError(t *testing.T, rr *httptest.ResponseRecorder, field, message string) {
	t.Helper()
	body := AssertError(t, rr, http.StatusUnprocessableEntity, "Validation failed.")
	assert.Contains(t, body.Errors[field], message, "errors for %q", field)
}
