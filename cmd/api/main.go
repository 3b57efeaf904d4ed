package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"bookcatalog/internal/config"
	"bookcatalog/internal/database"
	"bookcatalog/internal/logger"
	"bookcatalog/internal/server"
	"bookcatalog/internal/validator"

	_ "bookcatalog/internal/docs" // Import swagger docs
)

// @title           Book Catalog API
// @version         1.0
// @description     Personal library catalog with a genre hierarchy, authors and publishers, and ISBN-13 validation.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if appConfig.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	dbManager, err := database.NewManager(database.NewConfig(appConfig), appConfig.IsProduction())
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("failed to close database: %v", err)
		}
	}()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	router, err := server.NewRouter(dbManager.DB(), server.Options{
		AllowedOrigins: appConfig.CORSAllowedOrigins,
		Ping:           dbManager.Ping,
		Swagger:        !appConfig.IsProduction(),
		RequestLogging: true,
	})
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	log.Infof("Starting book catalog server on port %s", appConfig.Port)
	if !appConfig.IsProduction() {
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	}
	return router.Run(":" + appConfig.Port)
}
