package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	log "login-portal/httpserver/pkg/logger"
)

// Pinger 健康检查依赖（例如 Redis）
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler 健康检查
type HealthHandler struct {
	deps map[string]Pinger
}

// NewHealthHandler 创建 HealthHandler，deps 可以为空
func NewHealthHandler(deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// Health 逐个检查依赖，任一失败返回 503
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(gin.H, len(h.deps))
	for name, p := range h.deps {
		if err := p.Ping(ctx); err != nil {
			log.Warn("健康检查失败", zap.String("dependency", name), zap.Error(err))
			checks[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "checks": checks})
}
