package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ecoalliance/cotizador/internal/domain/models"
	"github.com/ecoalliance/cotizador/internal/render/pdf"
	"github.com/ecoalliance/cotizador/internal/service/quotation"
)

// QuotationHandler exposes the pricing operations over HTTP.
type QuotationHandler struct {
	svc    quotation.Calculator
	pdf    pdf.Generator
	logger *zap.Logger
}

// NewQuotationHandler constructs the HTTP handler adapter.
func NewQuotationHandler(svc quotation.Calculator, generator pdf.Generator, logger *zap.Logger) *QuotationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuotationHandler{svc: svc, pdf: generator, logger: logger}
}

// Calculate applies markup and discount to a base price.
func (h *QuotationHandler) Calculate(c *gin.Context) {
	var req models.PriceRequest
	if !h.bind(c, &req) {
		return
	}
	c.JSON(http.StatusOK, h.svc.Price(req))
}

// Exchange converts an EUR price to the local currency.
func (h *QuotationHandler) Exchange(c *gin.Context) {
	var req models.ExchangeRequest
	if !h.bind(c, &req) {
		return
	}
	c.JSON(http.StatusOK, h.svc.Exchange(req))
}

// Shipping estimates freight costs.
func (h *QuotationHandler) Shipping(c *gin.Context) {
	var req models.ShippingRequest
	if !h.bind(c, &req) {
		return
	}
	c.JSON(http.StatusOK, h.svc.Shipping(req))
}

// CreateQuotation builds and stores a full quotation.
func (h *QuotationHandler) CreateQuotation(c *gin.Context) {
	envelope, ok := h.process(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, envelope)
}

// QuotationPDF builds and stores a quotation, answering with its PDF rendition.
func (h *QuotationHandler) QuotationPDF(c *gin.Context) {
	envelope, ok := h.process(c)
	if !ok {
		return
	}

	doc, err := h.pdf.Generate(*envelope.Quotation)
	if err != nil {
		h.logger.Error("failed rendering quotation pdf", zap.String("id", envelope.Quotation.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.QuotationEnvelope{Status: models.StatusError, Message: "pdf generation failed"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, envelope.Quotation.ID))
	c.Data(http.StatusOK, "application/pdf", doc)
}

// process runs a quotation request and writes the failure response itself
// when it returns false.
func (h *QuotationHandler) process(c *gin.Context) (models.QuotationEnvelope, bool) {
	var req models.QuotationRequest
	if !h.bind(c, &req) {
		return models.QuotationEnvelope{}, false
	}

	envelope, err := h.svc.Process(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("failed storing quotation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, envelope)
		return envelope, false
	}
	if envelope.Status != models.StatusSuccess {
		c.JSON(http.StatusUnprocessableEntity, envelope)
		return envelope, false
	}
	return envelope, true
}

func (h *QuotationHandler) bind(c *gin.Context, dst any) bool {
	if err := bindBody(c, dst); err != nil {
		h.logger.Warn("rejected request body", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": bodyErrorMessage(err)})
		return false
	}
	return true
}
