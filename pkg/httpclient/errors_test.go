package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/reliantech/storefront/pkg/errors"
)

func makeResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func structuredError(code, message string) string {
	return `{"error":{"code":"` + code + `","message":"` + message + `"}}`
}

func TestParseResponseError_NotFound(t *testing.T) {
	resp := makeResponse(http.StatusNotFound, structuredError("NOT_FOUND", "product not found"))
	err := ParseResponseError(resp, "catalog")
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestParseResponseError_BadRequest(t *testing.T) {
	resp := makeResponse(http.StatusBadRequest, structuredError("INVALID_INPUT", "page must be positive"))
	err := ParseResponseError(resp, "catalog")
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.Contains(t, appErr.Message, "catalog")
}

func TestParseResponseError_Unprocessable(t *testing.T) {
	resp := makeResponse(http.StatusUnprocessableEntity, structuredError("UNPROCESSABLE", "review rejected"))
	err := ParseResponseError(resp, "catalog")
	require.Error(t, err)

	assert.True(t, errors.Is(err, apperrors.ErrUnprocessable))
}

func TestParseResponseError_ServiceUnavailable(t *testing.T) {
	resp := makeResponse(http.StatusServiceUnavailable, structuredError("SERVICE_UNAVAILABLE", "maintenance window"))
	err := ParseResponseError(resp, "content")
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusServiceUnavailable, appErr.Status)
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavail))
}

func TestParseResponseError_UnstructuredBody(t *testing.T) {
	resp := makeResponse(http.StatusBadGateway, "upstream timed out")
	err := ParseResponseError(resp, "catalog")
	require.Error(t, err)

	assert.Contains(t, err.Error(), "catalog")
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream timed out")
}

func TestParseResponseError_ServerErrorWithCode(t *testing.T) {
	resp := makeResponse(http.StatusInternalServerError, structuredError("INTERNAL_ERROR", "boom"))
	err := ParseResponseError(resp, "catalog")
	require.Error(t, err)

	var appErr *apperrors.AppError
	assert.False(t, errors.As(err, &appErr), "generic 5xx should not be an AppError")
	assert.Contains(t, err.Error(), "catalog")
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(http.StatusBadRequest))
	assert.True(t, IsClientError(http.StatusNotFound))
	assert.False(t, IsClientError(http.StatusOK))
	assert.False(t, IsClientError(http.StatusInternalServerError))
}
