package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/reliantech/storefront/internal/domain"
	apperrors "github.com/reliantech/storefront/pkg/errors"
	"github.com/reliantech/storefront/pkg/httputil"
)

type cartEnvelope struct {
	Data  *domain.Cart            `json:"data"`
	Error *httputil.ErrorResponse `json:"error"`
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) cartEnvelope {
	t.Helper()
	var env cartEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestGetCart_RequiresUserID(t *testing.T) {
	ts := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	rec := ts.do(req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeCart(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
}

func TestGetCart_ReturnsStoredCart(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.repo.On("Get", mock.Anything, "user-1").Return(storedCart("user-1"), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-User-ID", "user-1")
	rec := ts.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeCart(t, rec)
	require.NotNil(t, env.Data)
	assert.Len(t, env.Data.Items, 1)
	assert.Equal(t, int64(499800), env.Data.TotalAmount())
}

func TestGetCart_MissingStoredCartYieldsEmpty(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.repo.On("Get", mock.Anything, "user-1").Return(nil, apperrors.NotFound("cart", "user-1"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-User-ID", "user-1")
	rec := ts.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeCart(t, rec)
	require.NotNil(t, env.Data)
	assert.Empty(t, env.Data.Items)
}

func TestAddItem(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.repo.On("Get", mock.Anything, "user-1").Return(nil, apperrors.NotFound("cart", "user-1"))
	ts.repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Cart")).Return(nil)

	body, _ := json.Marshal(AddItemRequest{
		ProductID: "prod-1",
		Name:      "PowerEdge R650",
		SKU:       "PE-R650",
		Price:     249900,
		Quantity:  2,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(body))
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("Content-Type", "application/json")
	rec := ts.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeCart(t, rec)
	require.NotNil(t, env.Data)
	require.Len(t, env.Data.Items, 1)
	assert.Equal(t, 2, env.Data.Items[0].Quantity)
}

func TestAddItem_ValidationFailure(t *testing.T) {
	ts := newTestServer(t, nil)

	body := []byte(`{"product_id": "", "quantity": 0}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(body))
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("Content-Type", "application/json")
	rec := ts.do(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeCart(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Fields, "ProductID")
}

func TestAddItem_RejectsNonJSONContentType(t *testing.T) {
	ts := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader([]byte("product_id=prod-1")))
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := ts.do(req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestUpdateItemQuantity(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.repo.On("Get", mock.Anything, "user-1").Return(storedCart("user-1"), nil)
	ts.repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Cart")).Return(nil)

	body := []byte(`{"quantity": 7}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/items/prod-1", bytes.NewReader(body))
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("Content-Type", "application/json")
	rec := ts.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeCart(t, rec)
	assert.Equal(t, 7, env.Data.Items[0].Quantity)
}

func TestUpdateItemQuantity_ZeroRejected(t *testing.T) {
	ts := newTestServer(t, nil)

	body := []byte(`{"quantity": 0}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/items/prod-1", bytes.NewReader(body))
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("Content-Type", "application/json")
	rec := ts.do(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeCart(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_INPUT", env.Error.Code)
}

func TestUpdateItemQuantity_MissingItem(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.repo.On("Get", mock.Anything, "user-1").Return(storedCart("user-1"), nil)

	body := []byte(`{"quantity": 2}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/items/prod-unknown", bytes.NewReader(body))
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("Content-Type", "application/json")
	rec := ts.do(req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemoveItem(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.repo.On("Get", mock.Anything, "user-1").Return(storedCart("user-1"), nil)
	ts.repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Cart")).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/prod-1", nil)
	req.Header.Set("X-User-ID", "user-1")
	rec := ts.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeCart(t, rec)
	assert.Empty(t, env.Data.Items)
}

func TestRemoveItem_AbsentIsSuccess(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.repo.On("Get", mock.Anything, "user-1").Return(storedCart("user-1"), nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/prod-unknown", nil)
	req.Header.Set("X-User-ID", "user-1")
	rec := ts.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClearCart(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.repo.On("Delete", mock.Anything, "user-1").Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart", nil)
	req.Header.Set("X-User-ID", "user-1")
	rec := ts.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	ts.repo.AssertCalled(t, "Delete", mock.Anything, "user-1")
}
