package healthcheckController

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger зависимость, без которой бот не готов принимать апдейты
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthCheckController struct {
	deps map[string]Pinger
	log  *slog.Logger
}

// New deps: имя → зависимость; in-memory режим передаёт пустую карту
func New(deps map[string]Pinger, log *slog.Logger) *HealthCheckController {
	return &HealthCheckController{
		deps: deps,
		log:  log,
	}
}

func (c *HealthCheckController) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", c.health)
	r.GET("/healthz", c.health)
	r.GET("/ready", c.ready)
}

// health базовая проверка (всегда возвращает 200)
func (c *HealthCheckController) health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "stars-bot",
	})
}

// ready проверка готовности (пингует БД и кэш)
func (c *HealthCheckController) ready(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, dep := range c.deps {
		if err := dep.Ping(pingCtx); err != nil {
			c.log.Error("dependency not ready", "dependency", name, "error", err)
			failed[name] = "unavailable"
		}
	}

	if len(failed) > 0 {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"errors": failed,
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}
