package middlewares

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RequestID берёт X-Request-ID из запроса или генерирует новый и отдаёт его в ответе
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestIDFrom пустая строка, если RequestID не подключен
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		req := c.Request

		c.Next()

		status := c.Writer.Status()

		var logLevel slog.Level
		switch {
		case status >= 500:
			logLevel = slog.LevelError
		case status >= 400:
			logLevel = slog.LevelWarn
		case isProbe(req.URL.Path):
			// пробы k8s/railway дёргают каждые несколько секунд
			logLevel = slog.LevelDebug
		default:
			logLevel = slog.LevelInfo
		}

		// тело не логируем: в вебхуках данные платежей
		log.LogAttrs(req.Context(), logLevel, "request completed",
			slog.String("request_id", RequestIDFrom(c)),
			slog.String("method", req.Method),
			slog.String("route", c.FullPath()),
			slog.String("path", req.URL.Path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("response_size", c.Writer.Size()),
			slog.String("remote_addr", c.ClientIP()),
		)
	}
}

func isProbe(path string) bool {
	return path == "/ready" || strings.HasPrefix(path, "/health")
}
