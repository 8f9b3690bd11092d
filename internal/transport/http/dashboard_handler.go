package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "fertpulse/internal/errors"
	custommw "fertpulse/internal/middleware"
	"fertpulse/internal/services"
)

// DashboardHandler serves the KPI cards, selector options and charts.
type DashboardHandler struct {
	service      DashboardServiceInterface
	validator    *custommw.Validator
	params       *custommw.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		validator:    custommw.NewValidator(),
		params:       custommw.NewQueryParamValidator(logger, errorHandler),
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/kpis", h.GetKPIs)
	r.Get("/options", h.GetOptions)
	r.Get("/summary", h.GetSummary)
	r.Get("/monthly", h.GetMonthlyChart)
	r.Get("/breakdown", h.GetBreakdown)
	r.Get("/top-products", h.GetTopProducts)

	return r
}

// GetKPIs handles GET /api/dashboard/kpis
func (h *DashboardHandler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	kpis, err := h.service.KPIs(r.Context())
	if err != nil {
		h.fail(w, r, "kpis", err)
		return
	}
	successResponse(w, r, kpis, kpis.RecordCount)
}

// GetOptions handles GET /api/dashboard/options
func (h *DashboardHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	options, err := h.service.Options(r.Context())
	if err != nil {
		h.fail(w, r, "options", err)
		return
	}
	successResponse(w, r, options, len(options.States))
}

// GetSummary handles GET /api/dashboard/summary
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.fail(w, r, "summary", err)
		return
	}
	successResponse(w, r, summary, len(summary.StateBalances))
}

// GetMonthlyChart handles GET /api/dashboard/monthly?state=&month=&product=
func (h *DashboardHandler) GetMonthlyChart(w http.ResponseWriter, r *http.Request) {
	q := services.MonthlyQuery{
		State:   queryValue(r, "state"),
		Month:   queryValue(r, "month"),
		Product: queryValue(r, "product"),
	}
	if err := h.validator.ValidateStruct(q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	chart, err := h.service.MonthlyChart(r.Context(), q)
	if err != nil {
		h.fail(w, r, "monthly", err)
		return
	}
	successResponse(w, r, chart, len(chart.Rows))
}

// GetBreakdown handles GET /api/dashboard/breakdown?parent=&child=&field=&selected=
func (h *DashboardHandler) GetBreakdown(w http.ResponseWriter, r *http.Request) {
	q := services.BreakdownQuery{
		Parent:   queryValue(r, "parent"),
		Child:    queryValue(r, "child"),
		Field:    queryValue(r, "field"),
		Selected: queryValue(r, "selected"),
	}
	if err := h.validator.ValidateStruct(q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	breakdown, err := h.service.BreakdownChart(r.Context(), q)
	if err != nil {
		h.fail(w, r, "breakdown", err)
		return
	}
	successResponse(w, r, breakdown, len(breakdown.Rows))
}

// GetTopProducts handles GET /api/dashboard/top-products?field=&order=&limit=
// An empty limit uses the configured top N.
func (h *DashboardHandler) GetTopProducts(w http.ResponseWriter, r *http.Request) {
	order, ok := h.params.ValidateEnum(w, r, "order", []string{orderAsc, orderDesc}, orderDesc)
	if !ok {
		return
	}
	limit, ok := h.params.ValidateInt(w, r, "limit", 1, 50, 0)
	if !ok {
		return
	}

	q := services.TopProductsQuery{
		Field:     queryValue(r, "field"),
		Ascending: order == orderAsc,
		Limit:     limit,
	}
	if err := h.validator.ValidateStruct(q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	top, err := h.service.TopProducts(r.Context(), q)
	if err != nil {
		h.fail(w, r, "top_products", err)
		return
	}
	successResponse(w, r, top, len(top.Rows))
}

func (h *DashboardHandler) fail(w http.ResponseWriter, r *http.Request, view string, err error) {
	h.logger.WarnContext(r.Context(), "dashboard view failed",
		slog.String("view", view),
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetReqID(r.Context())))
	h.errorHandler.HandleError(w, r, err)
}
