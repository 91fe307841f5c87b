package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ecoalliance/cotizador/internal/metrics"
	"github.com/ecoalliance/cotizador/pkg/clients/webhook"
)

// reparsedWebhook has its upstream body decoded and re-encoded as JSON.
const reparsedWebhook = "cotizacion"

// hopHeaders are not copied from upstream responses.
var hopHeaders = map[string]struct{}{
	"Connection":        {},
	"Content-Length":    {},
	"Content-Encoding":  {},
	"Keep-Alive":        {},
	"Transfer-Encoding": {},
	"Upgrade":           {},
}

// WebhookProxyHandler relays front-end calls to the catalog webhooks.
type WebhookProxyHandler struct {
	client webhook.Client
	logger *zap.Logger
}

// NewWebhookProxyHandler constructs the proxy handler.
func NewWebhookProxyHandler(client webhook.Client, logger *zap.Logger) *WebhookProxyHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookProxyHandler{client: client, logger: logger}
}

// Proxy forwards GET query parameters or POST JSON bodies to the webhook
// named in the path and relays the answer.
func (h *WebhookProxyHandler) Proxy(c *gin.Context) {
	name := c.Param("type")
	if !h.client.Has(name) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook type: " + name})
		return
	}

	req := webhook.ForwardRequest{Webhook: name, Method: c.Request.Method}
	if c.Request.Method == http.MethodGet {
		req.Query = c.Request.URL.Query()
	} else {
		body, err := c.GetRawData()
		if err != nil {
			h.logger.Warn("failed reading proxy request body", zap.String("webhook", name), zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
			return
		}
		req.Body = body
	}

	resp, err := h.client.Forward(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("webhook proxy failed", zap.String("webhook", name), zap.Error(err))
		metrics.WebhookProxyRequestsTotal.WithLabelValues(name, "error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "webhook proxy failed: " + err.Error(),
		})
		return
	}
	metrics.WebhookProxyRequestsTotal.WithLabelValues(name, strconv.Itoa(resp.StatusCode)).Inc()

	if name == reparsedWebhook {
		var payload any
		if err := json.Unmarshal(resp.Body, &payload); err == nil {
			c.JSON(resp.StatusCode, payload)
			return
		}
		h.logger.Debug("quotation webhook answered non-JSON, relaying verbatim", zap.Int("status", resp.StatusCode))
	}

	for key, values := range resp.Header {
		if _, skip := hopHeaders[http.CanonicalHeaderKey(key)]; skip {
			continue
		}
		for _, v := range values {
			c.Writer.Header().Add(key, v)
		}
	}
	c.Data(resp.StatusCode, resp.Header.Get("Content-Type"), resp.Body)
}
