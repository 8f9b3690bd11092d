package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "fertpulse/internal/errors"
	"fertpulse/internal/exporter"
	"fertpulse/internal/infrastructure"
	custommw "fertpulse/internal/middleware"
)

// exportFilePrefix names downloaded files, e.g. fertilizer-products.csv.
const exportFilePrefix = "fertilizer-"

// ExportHandler serves the product and record tables as file downloads.
// Table parameters are the same as for /api/products.
type ExportHandler struct {
	service      DashboardServiceInterface
	csv          *exporter.CSVWriter
	xlsx         *exporter.XLSXWriter
	validator    *custommw.Validator
	metrics      *infrastructure.BusinessMetrics
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewExportHandler creates a new export handler. metrics may be nil.
func NewExportHandler(service DashboardServiceInterface, metrics *infrastructure.BusinessMetrics,
	logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ExportHandler {
	return &ExportHandler{
		service:      service,
		csv:          exporter.NewCSVWriter(nil, logger),
		xlsx:         exporter.NewXLSXWriter(nil, logger),
		validator:    custommw.NewValidator(),
		metrics:      metrics,
		logger:       logger.With(slog.String("component", "export_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the export routes
func (h *ExportHandler) Routes() chi.Router {
	r := chi.NewRouter()

	for _, format := range []exporter.Format{exporter.FormatCSV, exporter.FormatXLSX} {
		r.Get("/products."+string(format), h.exportProducts(format))
		r.Get("/records."+string(format), h.exportRecords(format))
	}

	return r
}

func (h *ExportHandler) exportProducts(format exporter.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := parseTableQuery(r)
		if err := h.validator.ValidateStruct(q); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}

		table, err := h.service.ProductTable(r.Context(), q)
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		h.send(w, r, format, "products", exporter.ProductTable(table.Rows, table.Totals))
	}
}

func (h *ExportHandler) exportRecords(format exporter.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := parseTableQuery(r)
		if err := h.validator.ValidateStruct(q); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}

		table, err := h.service.RecordTable(r.Context(), q)
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		h.send(w, r, format, "records", exporter.RecordTable(table.Records))
	}
}

// send encodes into memory first so an encoding failure can still be
// answered with a problem response.
func (h *ExportHandler) send(w http.ResponseWriter, r *http.Request, format exporter.Format, name string, table exporter.Table) {
	var buf bytes.Buffer
	var err error
	switch format {
	case exporter.FormatXLSX:
		err = h.xlsx.Encode(&buf, table)
	default:
		err = h.csv.Encode(&buf, table, exporter.WriteOptions{BOMPrefix: true})
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "export failed",
			slog.String("table", name),
			slog.String("format", string(format)),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, apierrors.ExportError(string(format), err))
		return
	}

	filename := format.Filename(exportFilePrefix + name)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.WarnContext(r.Context(), "export write interrupted",
			slog.String("file", filename),
			slog.String("error", err.Error()))
		return
	}

	infrastructure.RecordExport(r.Context(), h.metrics, name, string(format))
	h.logger.InfoContext(r.Context(), "table exported",
		slog.String("file", filename),
		slog.Int("rows", len(table.Rows)),
		slog.Int("bytes", buf.Len()))
}
