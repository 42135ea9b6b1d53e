package validator

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testStruct struct {
	Name     string `validate:"required"`
	SKU      string `validate:"required,min=3,max=32"`
	Quantity int    `validate:"gte=1,lte=999"`
}

func TestValidate_Success(t *testing.T) {
	s := testStruct{Name: "PowerEdge R650", SKU: "PE-R650", Quantity: 2}
	assert.NoError(t, Validate(s))
}

func TestValidate_MissingRequired(t *testing.T) {
	s := testStruct{SKU: "PE-R650", Quantity: 1}
	err := Validate(s)
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Contains(t, fields, "Name")
	assert.Equal(t, "is required", fields["Name"])
}

func TestValidate_OutOfRange(t *testing.T) {
	s := testStruct{Name: "x", SKU: "PE-R650", Quantity: 0}
	err := Validate(s)
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields(), "Quantity")
}

func TestValidate_TooShort(t *testing.T) {
	s := testStruct{Name: "x", SKU: "ab", Quantity: 1}
	err := Validate(s)
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be at least 3 characters", valErr.Fields()["SKU"])
}

func TestValidationError_ErrorJoinsMessages(t *testing.T) {
	err := Validate(testStruct{})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	msg := valErr.Error()
	assert.True(t, strings.Contains(msg, "Name") && strings.Contains(msg, "SKU"))
}

func TestDecodeAndValidate(t *testing.T) {
	body := []byte(`{"Name": "PowerEdge R650", "SKU": "PE-R650", "Quantity": 1}`)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))

	var dst testStruct
	require.NoError(t, DecodeAndValidate(req, &dst))
	assert.Equal(t, "PowerEdge R650", dst.Name)
}

func TestDecodeAndValidate_BadJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(`{`)))

	var dst testStruct
	assert.Error(t, DecodeAndValidate(req, &dst))
}

func TestDecodeAndValidate_InvalidPayload(t *testing.T) {
	body := []byte(`{"SKU": "PE-R650", "Quantity": 1}`)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))

	var dst testStruct
	err := DecodeAndValidate(req, &dst)
	var valErr *ValidationError
	assert.ErrorAs(t, err, &valErr)
}
