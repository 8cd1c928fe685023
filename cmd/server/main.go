package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/localnerve/sqcb-service/internal/config"
	"github.com/localnerve/sqcb-service/internal/database"
	"github.com/localnerve/sqcb-service/internal/handlers"
	"github.com/localnerve/sqcb-service/internal/logging"
	"github.com/localnerve/sqcb-service/internal/middleware"
	"github.com/localnerve/sqcb-service/internal/storage"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	_ "github.com/localnerve/sqcb-service/docs/api" // Swagger docs
)

// @title SQCB Service API
// @version 1.0.0
// @description Supplier quality control case tracking with user profiles and login
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/sqcb-service
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:5000
// @BasePath /
// @schemes http https

func main() {
	var envFilename string
	flag.StringVar(&envFilename, "f", os.Getenv("ENV_FILE"), "path to a .env file")
	flag.Parse()

	if err := config.LoadEnvFile(envFilename); err != nil {
		logrus.Fatalf("Failed to load environment: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// Connect to database (case records pool)
	appDB, err := database.Connect(cfg)
	if err != nil {
		logrus.Fatalf("Failed to connect to app database: %v", err)
	}
	defer database.Close(appDB)

	// Connect to database (user pool). A sqlite file takes one pool only.
	var userDB *gorm.DB
	switch cfg.DBType {
	case "sqlite", "sqlite3":
		userDB = appDB
	default:
		userDB, err = database.ConnectUser(cfg)
		if err != nil {
			logrus.Fatalf("Failed to connect to user database: %v", err)
		}
		defer database.Close(userDB)
	}

	if cfg.DBAutoMigrate {
		if err := database.AutoMigrate(appDB); err != nil {
			logrus.Fatalf("Failed to run migrations: %v", err)
		}
	}

	store, err := storage.New(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to open file storage: %v", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler,
		BodyLimit:             cfg.BodyLimitMB * 1024 * 1024,
		UnescapePath:          true,
		DisableStartupMessage: true,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(compress.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID",
	}))

	// Prometheus metrics
	prometheus := fiberprometheus.New("sqcb")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	handlers.RegisterRoutes(app, handlers.Dependencies{
		Config: cfg,
		AppDB:  appDB,
		UserDB: userDB,
		Store:  store,
	})

	app.Use(handlers.NotFound)

	// Graceful shutdown
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigs
		logrus.Info("Gracefully shutting down...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logrus.WithError(err).Warn("Shutdown did not complete cleanly")
		}
	}()

	logrus.WithFields(logrus.Fields{
		"port":    cfg.Port,
		"db_type": cfg.DBType,
		"storage": cfg.StorageType,
	}).Info("Starting server")
	if err := app.Listen(":" + cfg.Port); err != nil {
		logrus.Fatalf("Failed to start server: %v", err)
	}

	logrus.Info("Server stopped")
}
