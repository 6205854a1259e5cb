package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"sharescope/internal/dataset"
	apierrors "sharescope/internal/errors"
	mw "sharescope/internal/middleware"
	"sharescope/internal/services"
	"sharescope/pkg/contracts/domain"
)

// DataHandler handles data-related HTTP requests with RFC 7807 compliance
type DataHandler struct {
	service       DataServiceInterface
	broadcaster   RefreshBroadcaster
	validate      StructValidator
	logger        *slog.Logger
	errorHandler  *apierrors.ErrorHandler
	maxUploadSize int64
}

// StructValidator validates request bodies, both as route middleware and
// per decoded struct. Satisfied by middleware.ValidationMiddleware.
type StructValidator interface {
	ValidateStruct(v interface{}) error
	ValidateRequest(next http.Handler) http.Handler
}

// NewDataHandler creates a new data handler with RFC 7807 error handling
func NewDataHandler(service DataServiceInterface, broadcaster RefreshBroadcaster, validate StructValidator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, maxUploadSize int64) *DataHandler {
	return &DataHandler{
		service:       service,
		broadcaster:   broadcaster,
		validate:      validate,
		logger:        logger.With(slog.String("component", "data_handler")),
		errorHandler:  errorHandler,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the data routes with proper Chi patterns
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.validate.ValidateRequest)

	r.Get("/filters", h.GetFilters)
	r.With(
		mw.ContentTypeValidator("application/json"),
		render.SetContentType(render.ContentTypeJSON),
	).Post("/dashboard", h.Dashboard)
	r.Post("/upload", h.Upload)
	r.Get("/export", h.Export)

	return r
}

// GetFilters handles GET /api/data/filters
func (h *DataHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	opts, err := h.service.FilterOptions(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, opts)
}

// Dashboard handles POST /api/data/dashboard
func (h *DataHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	var req services.DashboardRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	if err := h.validate.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	resp, err := h.service.Dashboard(r.Context(), req)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "dashboard query failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, resp)
}

// Upload handles POST /api/data/upload
func (h *DataHandler) Upload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.errorHandler.HandleError(w, r, apierrors.ErrUploadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "A workbook file is required"))
		return
	}
	defer file.Close()

	h.logger.InfoContext(r.Context(), "workbook upload received",
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size),
		slog.String("request_id", reqID),
	)

	set, err := h.service.ReplaceFromUpload(r.Context(), header.Filename, file, header.Size)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "workbook upload rejected",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if h.broadcaster != nil {
		h.broadcaster.BroadcastRefresh(header.Filename, set.Len())
	}

	render.JSON(w, r, map[string]interface{}{
		"status":  "success",
		"source":  header.Filename,
		"sheet":   set.SheetName,
		"records": set.Len(),
	})
}

// Export handles GET /api/data/export. Filter values are passed as repeated
// query parameters keyed by column name.
func (h *DataHandler) Export(w http.ResponseWriter, r *http.Request) {
	sel := make(dataset.Selection)
	query := r.URL.Query()
	for _, column := range domain.FilterColumns {
		if values := query[column]; len(values) > 0 {
			sel[column] = values
		}
	}

	filename := fmt.Sprintf("market_share_%s.csv", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	n, err := h.service.Export(r.Context(), w, sel)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "export completed",
		slog.Int("records", n),
		slog.String("filename", filename),
	)
}
