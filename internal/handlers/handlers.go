package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/aaronwang/nft-marketplace/internal/service"
	"github.com/aaronwang/nft-marketplace/market"
	"github.com/aaronwang/nft-marketplace/models"
)

// Handler contains HTTP request handlers
type Handler struct {
	market *service.MarketService
}

// NewHandler creates a new HTTP handler
func NewHandler(market *service.MarketService) *Handler {
	return &Handler{
		market: market,
	}
}

// SetupRoutes configures all HTTP routes
func (h *Handler) SetupRoutes() *mux.Router {
	router := mux.NewRouter()

	// Health check
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/items", h.CreateItem).Methods("POST")
	api.HandleFunc("/items/{id}", h.GetItem).Methods("GET")
	api.HandleFunc("/items/{id}/list", h.ListItem).Methods("POST")
	api.HandleFunc("/items/{id}/buy", h.BuyItem).Methods("POST")
	api.HandleFunc("/items/{id}/cancel", h.Cancel).Methods("POST")
	api.HandleFunc("/items/{id}/auction", h.ListItemOnAuction).Methods("POST")
	api.HandleFunc("/items/{id}/bid", h.PlaceBid).Methods("POST")
	api.HandleFunc("/items/{id}/finish", h.FinishAuction).Methods("POST")
	api.HandleFunc("/items/{id}/burn", h.Burn).Methods("POST")
	api.HandleFunc("/stats", h.GetStats).Methods("GET")
	api.HandleFunc("/config", h.GetConfig).Methods("GET")
	api.HandleFunc("/config", h.UpdateConfig).Methods("POST")
	api.HandleFunc("/withdraw", h.Withdraw).Methods("POST")

	// Middleware
	router.Use(loggingMiddleware)
	router.Use(corsMiddleware)

	return router
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "marketd",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// CreateItem mints a new item (administrative identity only)
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req models.CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Caller == models.ZeroIdentity || req.Owner == models.ZeroIdentity {
		respondError(w, http.StatusBadRequest, "Caller and owner are required")
		return
	}

	item, err := h.market.CreateItem(r.Context(), &req)
	if err != nil {
		respondMarketError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

// GetItem retrieves the item status and its orders
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := itemIDFromRequest(w, r)
	if !ok {
		return
	}

	view, err := h.market.GetItem(r.Context(), itemID)
	if err != nil {
		respondMarketError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// ListItem puts an item up for fixed-price sale
func (h *Handler) ListItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := itemIDFromRequest(w, r)
	if !ok {
		return
	}

	var req models.ListItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Caller == models.ZeroIdentity {
		respondError(w, http.StatusBadRequest, "Caller is required")
		return
	}

	if err := h.market.ListItem(r.Context(), req.Caller, itemID, req.Price); err != nil {
		respondMarketError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"item_id": itemID,
		"price":   req.Price,
		"status":  models.ItemStatusOnSale.String(),
	})
}

// BuyItem fills a live sale order
func (h *Handler) BuyItem(w http.ResponseWriter, r *http.Request) {
	h.callerAction(w, r, h.market.BuyItem)
}

// Cancel delists a sale or a zero-bid auction
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.callerAction(w, r, h.market.Cancel)
}

// ListItemOnAuction puts an item up for English auction
func (h *Handler) ListItemOnAuction(w http.ResponseWriter, r *http.Request) {
	itemID, ok := itemIDFromRequest(w, r)
	if !ok {
		return
	}

	var req models.ListItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Caller == models.ZeroIdentity {
		respondError(w, http.StatusBadRequest, "Caller is required")
		return
	}

	if err := h.market.ListItemOnAuction(r.Context(), req.Caller, itemID, req.Price); err != nil {
		respondMarketError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"item_id":     itemID,
		"start_price": req.Price,
		"status":      models.ItemStatusOnAuction.String(),
	})
}

// PlaceBid handles bid placement requests
func (h *Handler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	itemID, ok := itemIDFromRequest(w, r)
	if !ok {
		return
	}

	var req models.BidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Caller == models.ZeroIdentity {
		respondError(w, http.StatusBadRequest, "Caller is required")
		return
	}
	if req.Amount == 0 {
		respondError(w, http.StatusBadRequest, "Bid amount must be positive")
		return
	}

	response, err := h.market.MakeBid(r.Context(), itemID, &req)
	if err != nil {
		respondMarketError(w, err)
		return
	}

	statusCode := http.StatusOK
	if response.Success {
		statusCode = http.StatusCreated
	}
	respondJSON(w, statusCode, response)
}

// FinishAuction finalizes an elapsed auction
func (h *Handler) FinishAuction(w http.ResponseWriter, r *http.Request) {
	h.callerAction(w, r, h.market.FinishAuction)
}

// Burn destroys an item (administrative identity only)
func (h *Handler) Burn(w http.ResponseWriter, r *http.Request) {
	h.callerAction(w, r, h.market.Burn)
}

// GetStats returns the global marketplace counters
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.market.Stats())
}

// GetConfig returns the current marketplace configuration
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.market.GetConfig())
}

// UpdateConfig applies configuration changes (administrative identity only)
func (h *Handler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req models.ConfigUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Caller == models.ZeroIdentity {
		respondError(w, http.StatusBadRequest, "Caller is required")
		return
	}

	if err := h.market.UpdateConfig(&req); err != nil {
		respondMarketError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.market.GetConfig())
}

// Withdraw moves accumulated marketplace funds (administrative identity only)
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req models.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Caller == models.ZeroIdentity || req.To == models.ZeroIdentity {
		respondError(w, http.StatusBadRequest, "Caller and destination are required")
		return
	}

	if err := h.market.WithdrawTokens(r.Context(), &req); err != nil {
		respondMarketError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"to":     req.To,
		"amount": req.Amount,
	})
}

// callerAction runs an operation that needs only the item id and the acting
// identity (buy, cancel, finish, burn).
func (h *Handler) callerAction(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, caller models.Identity, itemID uint64) error) {
	itemID, ok := itemIDFromRequest(w, r)
	if !ok {
		return
	}

	var req models.CallerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Caller == models.ZeroIdentity {
		respondError(w, http.StatusBadRequest, "Caller is required")
		return
	}

	if err := op(r.Context(), req.Caller, itemID); err != nil {
		respondMarketError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"item_id": itemID,
		"success": true,
	})
}

// itemIDFromRequest parses the {id} path variable
func itemIDFromRequest(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	vars := mux.Vars(r)
	itemID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Item ID must be a positive integer")
		return 0, false
	}
	return itemID, true
}

// respondMarketError maps the ledger error taxonomy onto HTTP status codes
func respondMarketError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, market.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, market.ErrNotAuthorized):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, market.ErrAlreadyListed),
		errors.Is(err, market.ErrAlreadyBurned),
		errors.Is(err, market.ErrNotOnSale),
		errors.Is(err, market.ErrAuctionNotActive),
		errors.Is(err, market.ErrAuctionNotComplete),
		errors.Is(err, market.ErrCannotCancel):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, market.ErrBidTooLow),
		errors.Is(err, market.ErrInvalidPrice):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, market.ErrInsufficientBalance),
		errors.Is(err, market.ErrInsufficientAllowance):
		respondError(w, http.StatusPaymentRequired, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// loggingMiddleware logs all HTTP requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		duration := time.Since(start)

		println(time.Now().Format(time.RFC3339), r.Method, r.RequestURI, duration.String())
	})
}

// corsMiddleware adds CORS headers (for development)
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
