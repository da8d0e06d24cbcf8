package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/aaronwang/nft-marketplace/models"
)

const defaultHistoryLimit = 50

// BidStore is the archival query surface the HTTP layer reads from.
type BidStore interface {
	GetBidHistory(ctx context.Context, itemID uint64, limit int) ([]*models.MarketEvent, error)
}

// Handler serves read-only queries over the archived marketplace history.
type Handler struct {
	store BidStore
}

// NewHandler creates a new archival query handler
func NewHandler(store BidStore) *Handler {
	return &Handler{store: store}
}

// SetupRoutes configures the query routes
func (h *Handler) SetupRoutes() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.HandleFunc("/items/{id}/bids", h.GetBidHistory).Methods("GET")
	return router
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"healthy","service":"archiverd"}`)
}

// GetBidHistory returns the archived bids for an item, newest first. The
// limit query parameter caps the page size.
func (h *Handler) GetBidHistory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	itemID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Item ID must be a positive integer", http.StatusBadRequest)
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			http.Error(w, "limit must be between 1 and 500", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	bids, err := h.store.GetBidHistory(ctx, itemID, limit)
	if err != nil {
		fmt.Printf("Failed to query bid history for item %d: %v\n", itemID, err)
		http.Error(w, "failed to query bid history", http.StatusInternalServerError)
		return
	}
	if bids == nil {
		bids = []*models.MarketEvent{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"item_id": itemID,
		"bids":    bids,
	})
}
