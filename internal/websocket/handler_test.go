package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	router := NewHandler(NewManager()).SetupRoutes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "broadcastd", body["service"])
}

func TestGetStatsNoWatchers(t *testing.T) {
	router := NewHandler(NewManager()).SetupRoutes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/stats/items/42", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		ItemID   string `json:"item_id"`
		Watchers int    `json:"watchers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "42", body.ItemID)
	assert.Equal(t, 0, body.Watchers)
}
