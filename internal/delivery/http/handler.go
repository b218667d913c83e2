package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/itembuilder/backend/internal/domain"
	"github.com/itembuilder/backend/internal/infrastructure/table"
	"github.com/itembuilder/backend/internal/usecase"
	"go.uber.org/zap"
)

// ItemsFilename is the name of the downloadable item table
const ItemsFilename = "mindgames_items.csv"

// Version is reported by the health endpoint; overridden at build time
var Version = "dev"

// Handler holds dependencies for HTTP handlers
type Handler struct {
	enrichmentService *usecase.EnrichmentService
	logger            *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(enrichmentService *usecase.EnrichmentService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		enrichmentService: enrichmentService,
		logger:            logger,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "itembuilder",
		"version": Version,
	})
}

// EnrichItems handles item table generation.
// Multipart fields: upcs (required), categories (required), supplier (optional).
// Responds with the CSV attachment, or the full run result when format=json.
func (h *Handler) EnrichItems(c *gin.Context) {
	if h.enrichmentService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Enrichment service not configured",
		})
		return
	}

	input, err := readEnrichmentInput(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	result, err := h.enrichmentService.Run(c.Request.Context(), input, nil)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingRequiredInput):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			h.logger.Info("enrichment request abandoned", zap.Error(err))
			c.Status(http.StatusRequestTimeout)
		default:
			h.logger.Error("enrichment failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to generate items",
			})
		}
		return
	}

	c.Header("X-Run-ID", result.RunID)

	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, result)
		return
	}

	var buf bytes.Buffer
	if err := table.WriteItems(&buf, result.Rows); err != nil {
		h.logger.Error("failed to encode item table", zap.String("run_id", result.RunID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to encode item table",
		})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+ItemsFilename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// readEnrichmentInput parses the uploaded tables into a run input
func readEnrichmentInput(c *gin.Context) (domain.EnrichmentInput, error) {
	var input domain.EnrichmentInput

	upcFile, err := c.FormFile("upcs")
	if err != nil {
		return input, errors.New("upcs file is required")
	}
	categoryFile, err := c.FormFile("categories")
	if err != nil {
		return input, errors.New("categories file is required")
	}

	if err := readUpload(upcFile, func(r io.Reader) (err error) {
		input.UPCs, err = table.ReadUPCs(r)
		return err
	}); err != nil {
		return input, err
	}

	if err := readUpload(categoryFile, func(r io.Reader) (err error) {
		input.Mapping, err = table.ReadCategoryMapping(r)
		return err
	}); err != nil {
		return input, err
	}

	// Supplier table is optional
	if supplierFile, err := c.FormFile("supplier"); err == nil {
		if err := readUpload(supplierFile, func(r io.Reader) (err error) {
			input.Supplier, err = table.ReadSupplierTable(r)
			return err
		}); err != nil {
			return input, err
		}
	}

	return input, nil
}

func readUpload(header *multipart.FileHeader, read func(io.Reader) error) error {
	file, err := header.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	return read(file)
}
