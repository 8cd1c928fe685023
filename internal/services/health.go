package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/localnerve/sqcb-service/internal/config"
	"github.com/localnerve/sqcb-service/internal/storage"
	"github.com/localnerve/sqcb-service/internal/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Storage      string            `json:"storage"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

func (r *HealthCheckResult) fail(component, detailKey string, err error) {
	r.Status = "unhealthy"
	r.Details[detailKey] = err.Error()
	msg := fmt.Sprintf("%s check failed: %v", component, err)
	if r.ErrorMessage == "" {
		r.ErrorMessage = msg
	} else {
		r.ErrorMessage = strings.Join([]string{r.ErrorMessage, msg}, "; ")
	}
	logrus.WithError(err).WithField("component", component).Warn("Health check failed")
}

// HealthCheck reports database reachability and file store writability
func HealthCheck(ctx context.Context, cfg *config.Config, db *gorm.DB, store storage.FileStore) HealthCheckResult {
	result := HealthCheckResult{
		Status:  "healthy",
		Details: make(map[string]string),
	}

	// Database server reachability, then a round trip through the pool
	if err := utils.PingDatabase(cfg.DBType, cfg.DBHost, cfg.DBPort); err != nil {
		result.Database = "unreachable"
		result.fail("database", "database_dial_error", err)
	} else if sqlDB, err := db.DB(); err != nil {
		result.Database = "error"
		result.fail("database", "database_error", err)
	} else if err := sqlDB.PingContext(ctx); err != nil {
		result.Database = "unreachable"
		result.fail("database", "database_ping_error", err)
	} else {
		result.Database = "ok"
		result.Details["database_type"] = cfg.DBType
		result.Details["database_name"] = cfg.DBDatabase
	}

	if store == nil {
		result.Storage = "not configured"
	} else if err := store.Check(ctx); err != nil {
		result.Storage = "unavailable"
		result.fail("storage", "storage_error", err)
	} else {
		result.Storage = "ok"
		result.Details["storage_type"] = cfg.StorageType
	}

	if result.Status == "healthy" {
		logrus.Debug("Health check passed - all systems operational")
	}

	return result
}
