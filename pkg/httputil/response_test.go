package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api_models "coursechat-backend/internal/models"
)

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, http.StatusBadGateway, "upstream failed")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body api_models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, api_models.ErrorDetail{Name: "Bad Gateway", Message: "upstream failed", Status: 502}, body.Error)
}

func TestRespondNamedError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondNamedError(rec, http.StatusBadRequest, "ConfigurationError", "no key")

	var body map[string]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ConfigurationError", body["error"]["name"])
	assert.Equal(t, float64(400), body["error"]["status"])
}
