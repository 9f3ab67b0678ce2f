package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "grantapp/pkg/domain-errors"
)

func TestWriteErrorMapsCodes(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", dErrors.New(dErrors.CodeValidation, "Validation failed."), http.StatusUnprocessableEntity, "Validation failed."},
		{"bad request", dErrors.New(dErrors.CodeBadRequest, "invalid form"), http.StatusBadRequest, "invalid form"},
		{"too many", dErrors.New(dErrors.CodeTooManyRequests, "slow down"), http.StatusTooManyRequests, "slow down"},
		{"mail", dErrors.New(dErrors.CodeMailUnavailable, "mail issue"), http.StatusInternalServerError, "mail issue"},
		{"uncoded", errors.New("pq: secret detail"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			WriteError(rr, tt.err)

			assert.Equal(t, tt.status, rr.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, StatusError, body.Status)
			assert.Equal(t, tt.msg, body.Message)
			assert.Nil(t, body.Errors)
		})
	}
}

func TestWriteFieldErrors(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteFieldErrors(rr, "Validation failed.", map[string][]string{"email": {"Email address is required."}})

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, []string{"Email address is required."}, body.Errors["email"])
}
