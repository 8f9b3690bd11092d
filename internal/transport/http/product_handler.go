package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "fertpulse/internal/errors"
	custommw "fertpulse/internal/middleware"
)

// ProductHandler serves the product aggregate and raw record tables.
type ProductHandler struct {
	service      DashboardServiceInterface
	validator    *custommw.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewProductHandler creates a new product table handler
func NewProductHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ProductHandler {
	return &ProductHandler{
		service:      service,
		validator:    custommw.NewValidator(),
		logger:       logger.With(slog.String("component", "product_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the product table routes
func (h *ProductHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/aggregate", h.GetAggregate)
	r.Get("/records", h.GetRecords)

	return r
}

// GetAggregate handles GET /api/products/aggregate
func (h *ProductHandler) GetAggregate(w http.ResponseWriter, r *http.Request) {
	q := parseTableQuery(r)
	if err := h.validator.ValidateStruct(q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	table, err := h.service.ProductTable(r.Context(), q)
	if err != nil {
		h.logger.WarnContext(r.Context(), "product table failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())))
		h.errorHandler.HandleError(w, r, err)
		return
	}
	successResponse(w, r, table, len(table.Rows))
}

// GetRecords handles GET /api/products/records
func (h *ProductHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	q := parseTableQuery(r)
	if err := h.validator.ValidateStruct(q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	table, err := h.service.RecordTable(r.Context(), q)
	if err != nil {
		h.logger.WarnContext(r.Context(), "record table failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())))
		h.errorHandler.HandleError(w, r, err)
		return
	}
	successResponse(w, r, table, len(table.Records))
}
