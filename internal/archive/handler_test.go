package archive

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronwang/nft-marketplace/models"
)

type stubBidStore struct {
	bids   []*models.MarketEvent
	err    error
	itemID uint64
	limit  int
}

func (s *stubBidStore) GetBidHistory(_ context.Context, itemID uint64, limit int) ([]*models.MarketEvent, error) {
	s.itemID = itemID
	s.limit = limit
	return s.bids, s.err
}

func TestGetBidHistory(t *testing.T) {
	store := &stubBidStore{bids: []*models.MarketEvent{
		{EventID: "e2", Type: models.EventBidIsMade, ItemID: 7, Amount: 1500, BidCount: 2, Bidder: "bob", Timestamp: time.Unix(1_700_000_100, 0)},
		{EventID: "e1", Type: models.EventBidIsMade, ItemID: 7, Amount: 1000, BidCount: 1, Bidder: "alice", Timestamp: time.Unix(1_700_000_000, 0)},
	}}
	router := NewHandler(store).SetupRoutes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/items/7/bids?limit=10", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(7), store.itemID)
	assert.Equal(t, 10, store.limit)

	var body struct {
		ItemID uint64                `json:"item_id"`
		Bids   []*models.MarketEvent `json:"bids"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, uint64(7), body.ItemID)
	require.Len(t, body.Bids, 2)
	assert.Equal(t, uint64(1500), body.Bids[0].Amount)
	assert.Equal(t, models.Identity("bob"), body.Bids[0].Bidder)
}

func TestGetBidHistoryDefaultLimit(t *testing.T) {
	store := &stubBidStore{}
	router := NewHandler(store).SetupRoutes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/items/3/bids", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultHistoryLimit, store.limit)

	// no bids archived yet still yields an empty list, not null
	assert.Contains(t, rec.Body.String(), `"bids":[]`)
}

func TestGetBidHistoryBadRequest(t *testing.T) {
	router := NewHandler(&stubBidStore{}).SetupRoutes()

	for _, path := range []string{
		"/items/not-a-number/bids",
		"/items/3/bids?limit=0",
		"/items/3/bids?limit=501",
		"/items/3/bids?limit=abc",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestGetBidHistoryStoreError(t *testing.T) {
	store := &stubBidStore{err: errors.New("connection refused")}
	router := NewHandler(store).SetupRoutes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/items/3/bids", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	router := NewHandler(&stubBidStore{}).SetupRoutes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "archiverd")
}
