package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/sqcb-service/internal/config"
	"github.com/localnerve/sqcb-service/internal/storage"
	"gorm.io/gorm"
)

// Dependencies are the pools and stores the routes run against
type Dependencies struct {
	Config *config.Config
	AppDB  *gorm.DB // case records
	UserDB *gorm.DB // profiles and auth
	Store  storage.FileStore
}

// RegisterRoutes mounts every API route on router
func RegisterRoutes(router fiber.Router, deps Dependencies) {
	sqcb := &SqcbHandler{DB: deps.AppDB, Store: deps.Store}
	lookup := &LookupHandler{DB: deps.AppDB}
	profile := &ProfileHandler{DB: deps.UserDB, BcryptCost: deps.Config.BcryptCost}
	auth := &AuthHandler{DB: deps.UserDB}
	health := &HealthHandler{Config: deps.Config, DB: deps.AppDB, Store: deps.Store}

	router.Get("/health", health.Health)

	// Case records
	router.Get("/sqcb", sqcb.ListSqcb)
	router.Post("/sqcb", sqcb.CreateSqcb)
	router.Put("/sqcb/:id", sqcb.UpdateSqcb)
	router.Delete("/sqcb/:id", sqcb.DeleteSqcb)
	router.Delete("/attachments/:id", sqcb.DeleteAttachment)

	// Reference lookups
	router.Get("/suppliers/:code", lookup.GetSupplier)
	router.Get("/part/:number", lookup.GetPart)

	// Users
	router.Get("/profile/:userId", profile.GetProfile)
	router.Put("/profile/:userId", profile.UpdateProfile)
	router.Delete("/profile/:userId", profile.DeleteProfile)
	router.Get("/users", profile.ListUsers)
	router.Post("/auth/login", auth.Login)
	router.Post("/auth/logout", auth.Logout)
}
