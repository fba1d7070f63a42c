package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONError(t *testing.T) {
	rr := httptest.NewRecorder()
	JSONError(rr, http.StatusConflict, "insufficient_stock", map[string]any{"product_id": 3})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"insufficient_stock","details":{"product_id":3}}`, rr.Body.String())
}

func TestJSONNilPayload(t *testing.T) {
	rr := httptest.NewRecorder()
	JSON(rr, http.StatusOK, nil)
	assert.Equal(t, "null", rr.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Widget"}`))
	require.NoError(t, DecodeJSON(httptest.NewRecorder(), req, &dst))
	assert.Equal(t, "Widget", dst.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nom":"x"}`))
	assert.Error(t, DecodeJSON(httptest.NewRecorder(), req, &dst))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	assert.ErrorIs(t, DecodeJSON(httptest.NewRecorder(), req, &dst), ErrEmptyBody)
}

func TestPathIDAndPage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/products/12?limit=500&offset=20", nil)
	req.SetPathValue("id", "12")
	id, ok := PathID(req, "id")
	assert.True(t, ok)
	assert.Equal(t, uint(12), id)

	req.SetPathValue("id", "0")
	_, ok = PathID(req, "id")
	assert.False(t, ok)

	p := PageParams(req)
	assert.Equal(t, 200, p.Limit)
	assert.Equal(t, 20, p.Offset)
}
