package main

import (
	"fmt"
	"os"
	"time"

	"github.com/docforge/docforge-backend/internal/db"
	"github.com/docforge/docforge-backend/internal/handlers"
	"github.com/docforge/docforge-backend/internal/logger"
	"github.com/docforge/docforge-backend/internal/middleware"
	"github.com/docforge/docforge-backend/internal/repos"
	"github.com/docforge/docforge-backend/internal/server"
	"github.com/docforge/docforge-backend/internal/services"
	"github.com/docforge/docforge-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	port := utils.GetEnv("PORT", "8080", log)
	dataAPITimeoutMS := utils.GetEnvAsInt("DATA_API_TIMEOUT_MS", 30000, log)
	dataAPIInsecureTLS := utils.GetEnvAsBool("DATA_API_INSECURE_TLS", false, log)
	scriptTimeoutMS := utils.GetEnvAsInt("SCRIPT_TIMEOUT_MS", 10000, log)
	scriptFailureFatal := utils.GetEnvAsBool("SCRIPT_FAILURE_FATAL", false, log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	templateRepo := repos.NewReportTemplateRepo(thePG, log)
	generationRepo := repos.NewReportGenerationRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	bucketService, err := services.NewBucketService(log)
	if err != nil {
		log.Error("Could not init BucketService", "error", err)
		os.Exit(1)
	}
	resolver := services.NewDataSourceResolver(log, time.Duration(dataAPITimeoutMS)*time.Millisecond, dataAPIInsecureTLS)
	scriptEngine := services.NewScriptEngine(log, time.Duration(scriptTimeoutMS)*time.Millisecond)
	templateService := services.NewTemplateService(thePG, log, templateRepo, bucketService)
	generationService := services.NewGenerationService(thePG, log, templateRepo, generationRepo, bucketService, resolver, scriptEngine, scriptFailureFatal)

	// Handlers
	templateHandler := handlers.NewTemplateHandler(log, templateService)
	generationHandler := handlers.NewGenerationHandler(log, generationService)
	identityMiddleware := middleware.NewIdentityMiddleware(log)

	// Router
	router := server.NewRouter(server.RouterConfig{
		TemplateHandler:    templateHandler,
		GenerationHandler:  generationHandler,
		IdentityMiddleware: identityMiddleware,
	})

	log.Info("Starting HTTP server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("HTTP server exited", "error", err)
	}
}
