package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/sqcb-service/internal/config"
	"github.com/localnerve/sqcb-service/internal/services"
	"github.com/localnerve/sqcb-service/internal/storage"
	"gorm.io/gorm"
)

// HealthHandler reports service health
type HealthHandler struct {
	Config *config.Config
	DB     *gorm.DB
	Store  storage.FileStore
}

// Health handles GET /health
// @Summary Health report
// @Tags Health
// @Produce json
// @Success 200 {object} services.HealthCheckResult
// @Failure 503 {object} services.HealthCheckResult
// @Router /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	result := services.HealthCheck(c.UserContext(), h.Config, h.DB, h.Store)
	status := fiber.StatusOK
	if result.Status != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(result)
}
