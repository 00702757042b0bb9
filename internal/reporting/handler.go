package reporting

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/molecula-pos/molecula-pos/internal/auth"
	"github.com/molecula-pos/molecula-pos/internal/platform/httpx"
	"github.com/molecula-pos/molecula-pos/internal/shared"
)

const defaultRangeDays = 30

// Handler serves the admin dashboard endpoints.
type Handler struct {
	logger            *slog.Logger
	service           *Service
	mw                auth.Middleware
	lowStockThreshold int
}

// NewHandler creates a new handler.
func NewHandler(logger *slog.Logger, service *Service, mw auth.Middleware, lowStockThreshold int) *Handler {
	return &Handler{logger: logger, service: service, mw: mw, lowStockThreshold: lowStockThreshold}
}

// MountRoutes registers routes on the router. Reports are admin-only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireRole(shared.RoleAdmin))
		r.Get("/dashboard", h.dashboard)
		r.Get("/low-stock", h.lowStock)
	})
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	dr, err := parseRange(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "dates must be YYYY-MM-DD and from must not exceed to")
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "filter ids must be positive integers")
		return
	}
	dashboard, err := h.service.Dashboard(r.Context(), dr, f)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dashboard)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	threshold := h.lowStockThreshold
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "threshold must be a non-negative integer")
			return
		}
		threshold = v
	}
	items, err := h.service.LowStock(r.Context(), threshold)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func parseRange(r *http.Request) (DateRange, error) {
	q := r.URL.Query()
	dr := DefaultRange(time.Now(), defaultRangeDays)
	if raw := q.Get("date_from"); raw != "" {
		t, err := time.Parse(dayFormat, raw)
		if err != nil {
			return DateRange{}, err
		}
		dr.From = t
	}
	if raw := q.Get("date_to"); raw != "" {
		t, err := time.Parse(dayFormat, raw)
		if err != nil {
			return DateRange{}, err
		}
		dr.To = t
	}
	if dr.From.After(dr.To) {
		return DateRange{}, shared.ErrValidation
	}
	return dr, nil
}

func parseFilter(r *http.Request) (Filter, error) {
	var f Filter
	q := r.URL.Query()
	for name, dst := range map[string]*int64{
		"seller_id":         &f.SellerID,
		"payment_method_id": &f.PaymentMethodID,
		"category_id":       &f.CategoryID,
		"product_id":        &f.ProductID,
	} {
		if raw := q.Get(name); raw != "" {
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || v <= 0 {
				return Filter{}, shared.ErrValidation
			}
			*dst = v
		}
	}
	return f, nil
}
