package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "fertpulse/internal/errors"
)

// MapHandler serves state balances and the choropleth.
type MapHandler struct {
	service      DashboardServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewMapHandler creates a new map handler
func NewMapHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *MapHandler {
	return &MapHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "map_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the map routes
func (h *MapHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/states", h.GetStates)
	r.Get("/regions", h.GetRegions)

	return r
}

// GetStates handles GET /api/map/states
func (h *MapHandler) GetStates(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.StateBalances(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	successResponse(w, r, rows, len(rows))
}

// GetRegions handles GET /api/map/regions. A failed boundary load still
// answers 200 with the load error in the message; a pending one is 503.
func (h *MapHandler) GetRegions(w http.ResponseWriter, r *http.Request) {
	stateMap, err := h.service.StateMap(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	count := 0
	if stateMap.Map != nil {
		count = len(stateMap.Map.Regions)
	} else {
		h.logger.DebugContext(r.Context(), "map unavailable",
			slog.String("boundaries", string(stateMap.Boundaries.Status)),
			slog.String("message", stateMap.Message))
	}
	successResponse(w, r, stateMap, count)
}
