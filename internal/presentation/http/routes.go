package httppresentation

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/application/marketplace"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/market"
)

type registerRequest struct {
	Profile market.Profile `json:"profile"`
	Role    market.Role    `json:"role"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	u, err := h.market.Register(r.Context(), id, req.Profile, req.Role)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

type changeRoleRequest struct {
	Role market.Role `json:"role"`
}

func (h *Handler) handleChangeRole(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req changeRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	u, err := h.market.ChangeRole(r.Context(), id, req.Role)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) handleUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.market.Users(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) handleViewUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.market.ViewUser(r.Context(), market.AccountID(r.PathValue("id")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type loadProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       uint64 `json:"price"`
	Category    string `json:"category"`
	Stock       uint32 `json:"stock"`
}

func (h *Handler) handleLoadProduct(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req loadProductRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	it, err := h.market.LoadProduct(r.Context(), id, marketplace.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
	}, req.Stock)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (h *Handler) handleViewProducts(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	items, err := h.market.ViewProducts(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.market.Products(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

type createListingRequest struct {
	Lines []market.Line `json:"lines"`
}

func (h *Handler) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req createListingRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	l, err := h.market.CreateListing(r.Context(), id, req.Lines)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (h *Handler) handleViewListing(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	l, err := h.market.ViewListing(r.Context(), market.ListingID(id))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

type createOrderRequest struct {
	ListingID market.ListingID `json:"listing_id"`
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	o, err := h.market.CreateOrder(r.Context(), id, req.ListingID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *Handler) handleOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.market.Orders(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) handleViewOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	o, err := h.market.ViewOrder(r.Context(), market.OrderID(id))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type orderAction func(ctx context.Context, caller market.AccountID, id market.OrderID) (*market.Order, error)

// orderTransition serves the caller-driven order actions that take no body.
func (h *Handler) orderTransition(action orderAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		who, err := caller(r)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		id, err := pathID(r)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		o, err := action(r.Context(), who, market.OrderID(id))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, o)
	}
}

type rateRequest struct {
	Score int `json:"score"`
}

func (h *Handler) handleRate(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req rateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	o, err := h.market.Rate(r.Context(), who, market.OrderID(id), req.Score)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) handleTopSellers(w http.ResponseWriter, r *http.Request) {
	ranks, err := h.analytics.TopSellers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ranks)
}

func (h *Handler) handleTopBuyers(w http.ResponseWriter, r *http.Request) {
	ranks, err := h.analytics.TopBuyers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ranks)
}

func (h *Handler) handleTopProducts(w http.ResponseWriter, r *http.Request) {
	var top *int
	if raw := r.URL.Query().Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, r, errInvalidQuery)
			return
		}
		top = &n
	}
	sales, err := h.analytics.TopProductsSold(r.Context(), top)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sales)
}

func (h *Handler) handleOrdersPerBuyer(w http.ResponseWriter, r *http.Request) {
	counts, err := h.analytics.OrdersPerBuyer(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.CategoryStatistics(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
