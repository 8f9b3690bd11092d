// Package http implements the HTTP handlers of the fertilizer dashboard
// API. Handlers are a thin layer over the dashboard and health services:
// they read query parameters, validate them and render the result.
//
// # Handler Structure
//
// Each handler follows this pattern:
//
//	func (h *Handler) GetSomething(w http.ResponseWriter, r *http.Request) {
//	    q := services.SomeQuery{State: queryValue(r, "state")}
//	    if err := h.validator.ValidateStruct(q); err != nil {
//	        h.errorHandler.HandleError(w, r, err)
//	        return
//	    }
//
//	    view, err := h.service.Something(r.Context(), q)
//	    if err != nil {
//	        h.errorHandler.HandleError(w, r, err)
//	        return
//	    }
//	    successResponse(w, r, view, len(view.Rows))
//	}
//
// Successful JSON responses use the envelope
//
//	{"status": "success", "data": {...}, "count": 3}
//
// # Error Handling
//
// Errors are rendered by errors.ErrorHandler as RFC 7807 problems:
//
//	{
//	    "type": "/errors/validation",
//	    "title": "Bad Request",
//	    "status": 400,
//	    "detail": "direction must be ascending or descending",
//	    "instance": "/api/products/records",
//	    "error_code": "VALIDATION_FAILED"
//	}
//
// A dataset that is still loading answers 503 with type /errors/data/loading.
//
// # Routes
//
//	/api/health            HealthHandler
//	/api/dashboard         DashboardHandler
//	/api/products          ProductHandler
//	/api/map               MapHandler
//	/api/export            ExportHandler (CSV and XLSX downloads)
//	/metrics               MetricsHandler
package http
