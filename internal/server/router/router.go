package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ecoalliance/cotizador/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(quotes *handlers.QuotationHandler, proxy *handlers.WebhookProxyHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/health", handlers.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.POST("/calculate", quotes.Calculate)
	api.POST("/exchange", quotes.Exchange)
	api.POST("/shipping", quotes.Shipping)
	api.POST("/cotizacion", quotes.CreateQuotation)
	api.POST("/cotizacion/pdf", quotes.QuotationPDF)
	api.Match([]string{http.MethodGet, http.MethodPost}, "/webhook-proxy/:type", proxy.Proxy)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("request completed", fields...)
			return
		}
		logger.Info("request completed", fields...)
	}
}
