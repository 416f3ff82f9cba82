package httppresentation

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/application/analytics"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/application/marketplace"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/market"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability/logctx"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/pkg/fault"
)

type Handler struct {
	market    *marketplace.Service
	analytics *analytics.Aggregator
	log       observability.Logger

	reqCounter   observability.Counter   // http_requests_total{method,route,status}
	durHistogram observability.Histogram // http_request_duration_seconds{method,route,status}
}

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	headerAccountID      = "X-Account-ID"
)

var (
	errMissingCaller = fault.New(fault.KindUnknown, "MissingCaller", "http: missing "+headerAccountID+" header")
	errInvalidID     = fault.New(fault.KindValidation, "InvalidID", "http: invalid id")
	errInvalidBody   = fault.New(fault.KindValidation, "InvalidBody", "http: invalid request body")
	errInvalidQuery  = fault.New(fault.KindValidation, "InvalidQuery", "http: invalid query parameter")
)

func NewHandler(svc *marketplace.Service, agg *analytics.Aggregator, tel observability.Observability) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	m := tel.Metrics()
	return &Handler{
		market:       svc,
		analytics:    agg,
		log:          tel.Logger().With(observability.F("component", componentHTTPHandler)),
		reqCounter:   m.Counter(observability.MHTTPRequests),
		durHistogram: m.Histogram(observability.MHTTPRequestDuration),
	}
}

// Router wires every route with middlewares:
// Trace → ObservabilityMiddleware (request logger) → HTTP metrics → Access log → Handler
func (h *Handler) Router() *http.ServeMux {
	mux := http.NewServeMux()

	h.muxHandle(mux, "POST /users", h.handleRegister)
	h.muxHandle(mux, "PUT /users/role", h.handleChangeRole)
	h.muxHandle(mux, "GET /users", h.handleUsers)
	h.muxHandle(mux, "GET /users/{id}", h.handleViewUser)

	h.muxHandle(mux, "POST /products", h.handleLoadProduct)
	h.muxHandle(mux, "GET /products", h.handleViewProducts)
	h.muxHandle(mux, "GET /products/all", h.handleProducts)

	h.muxHandle(mux, "POST /listings", h.handleCreateListing)
	h.muxHandle(mux, "GET /listings/{id}", h.handleViewListing)

	h.muxHandle(mux, "POST /orders", h.handleCreateOrder)
	h.muxHandle(mux, "GET /orders", h.handleOrders)
	h.muxHandle(mux, "GET /orders/{id}", h.handleViewOrder)
	h.muxHandle(mux, "POST /orders/{id}/ship", h.orderTransition(h.market.Ship))
	h.muxHandle(mux, "POST /orders/{id}/receive", h.orderTransition(h.market.Receive))
	h.muxHandle(mux, "POST /orders/{id}/cancel", h.orderTransition(h.market.RequestCancel))
	h.muxHandle(mux, "POST /orders/{id}/rate", h.handleRate)

	h.muxHandle(mux, "GET /analytics/top-sellers", h.handleTopSellers)
	h.muxHandle(mux, "GET /analytics/top-buyers", h.handleTopBuyers)
	h.muxHandle(mux, "GET /analytics/top-products", h.handleTopProducts)
	h.muxHandle(mux, "GET /analytics/orders-per-buyer", h.handleOrdersPerBuyer)
	h.muxHandle(mux, "GET /analytics/categories", h.handleCategories)

	h.muxHandle(mux, "GET /health", h.handleHealth)

	return mux
}

func (h *Handler) muxHandle(mux *http.ServeMux, pattern string, handler http.HandlerFunc) {
	wrapped := h.withTrace(
		ObservabilityMiddleware(
			h.log,
			func(r *http.Request) string { return r.Header.Get(headerRequestID) },
			func(r *http.Request) string { return r.Header.Get(headerAccountID) },
		)(
			h.withHTTPMetrics(
				h.withAccessLog(handler),
			),
		),
	)
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		// Store stable route template for low-cardinality labels
		wrapped.ServeHTTP(w, r.WithContext(contextWithRoute(r.Context(), pattern)))
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func caller(r *http.Request) (market.AccountID, error) {
	id := r.Header.Get(headerAccountID)
	if id == "" {
		return "", errMissingCaller
	}
	return market.AccountID(id), nil
}

func pathID(r *http.Request) (uint32, error) {
	v, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil || v == 0 {
		return 0, errInvalidID
	}
	return uint32(v), nil
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if fault.KindOf(err) != fault.KindUnknown {
			return err
		}
		return errInvalidBody
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logctx.FromOr(r.Context(), h.log).Error("http_internal_error", observability.F("error", err))
	}
	writeJSON(w, status, errorResponse{Code: fault.CodeOf(err), Error: err.Error()})
}

func statusOf(err error) int {
	if errors.Is(err, errMissingCaller) {
		return http.StatusUnauthorized
	}
	switch fault.KindOf(err) {
	case fault.KindNotFound:
		return http.StatusNotFound
	case fault.KindUnauthorized:
		return http.StatusForbidden
	case fault.KindConflict, fault.KindConsent:
		return http.StatusConflict
	case fault.KindValidation:
		return http.StatusBadRequest
	case fault.KindArithmetic:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
