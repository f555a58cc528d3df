package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/wellbeam/burnout-backend/internal/cache"
	"github.com/wellbeam/burnout-backend/internal/db"
	"github.com/wellbeam/burnout-backend/internal/handlers"
	"github.com/wellbeam/burnout-backend/internal/logger"
	"github.com/wellbeam/burnout-backend/internal/middleware"
	"github.com/wellbeam/burnout-backend/internal/model"
	"github.com/wellbeam/burnout-backend/internal/observability"
	"github.com/wellbeam/burnout-backend/internal/repos"
	"github.com/wellbeam/burnout-backend/internal/server"
	"github.com/wellbeam/burnout-backend/internal/services"
	"github.com/wellbeam/burnout-backend/internal/utils"
)

const serviceName = "burnout-backend"

func main() {
	_ = godotenv.Load()

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

	ctx := context.Background()
	shutdownTracing := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: utils.GetEnv("DEPLOY_ENV", "development", log),
	})
	if shutdownTracing != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = shutdownTracing(shutdownCtx)
		}()
	}

	// Config
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	appHost := utils.GetEnv("APP_HOST", "http://localhost:3000", log)
	accessTTL := time.Duration(utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)) * time.Second
	refreshTTL := time.Duration(utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)) * time.Second
	resetTTL := time.Duration(utils.GetEnvAsInt("RESET_TOKEN_TTL", 600, log)) * time.Second

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	theDB := postgresService.DB()

	// Optional collaborators
	redisClient, err := cache.NewRedisClient(log)
	if err != nil {
		log.Warn("Redis init failed, continuing without dashboard cache", "error", err)
	}
	bucketService, err := services.NewBucketService(log)
	if err != nil {
		log.Warn("Bucket init failed, continuing without object storage", "error", err)
	}
	mailer := services.NewMailerFromEnv(log)

	// Model artifact: the scorer is process-wide immutable state. A
	// missing or corrupt bundle is fatal here, never mid-request.
	artifact, err := loadArtifact(ctx, log, bucketService)
	if err != nil {
		log.Fatal("Model artifact load failed, refusing to start", "error", err)
	}
	log.Info("Model artifact loaded", "model_version", artifact.Version())

	// Repos
	userRepo := repos.NewUserRepo(theDB, log)
	userTokenRepo := repos.NewUserTokenRepo(theDB, log)
	assessmentRepo := repos.NewAssessmentRepo(theDB, log)
	predictionRepo := repos.NewPredictionRepo(theDB, log)
	summaryRepo := repos.NewRollingSummaryRepo(theDB, log)
	auditLogRepo := repos.NewAuditLogRepo(theDB, log)

	// Services
	dashboardCache := services.NewDashboardCache(redisClient, log)
	auditService := services.NewAuditService(theDB, log, auditLogRepo)

	var avatarService services.AvatarService
	if bucketService != nil {
		avatarService, err = services.NewAvatarService(log, userRepo, bucketService)
		if err != nil {
			log.Warn("Avatar service init failed, continuing without avatars", "error", err)
			avatarService = nil
		}
	}

	authService := services.NewAuthService(theDB, log, userRepo, userTokenRepo, avatarService, auditService, mailer, jwtSecretKey, appHost, accessTTL, refreshTTL, resetTTL)
	userService := services.NewUserService(theDB, log, userRepo, avatarService, auditService)
	aggregatorService := services.NewAggregatorService(theDB, log, assessmentRepo)
	assessmentService := services.NewAssessmentService(theDB, log, assessmentRepo, predictionRepo, summaryRepo, aggregatorService, artifact, auditService, dashboardCache)
	dashboardService := services.NewDashboardService(theDB, log, predictionRepo, dashboardCache)

	// Handlers / middleware / router
	userHandler := handlers.NewUserHandler(authService, userService)
	assessmentHandler := handlers.NewAssessmentHandler(assessmentService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	router := server.NewRouter(server.RouterConfig{
		ServiceName:       serviceName,
		AllowOrigins:      splitOrigins(utils.GetEnv("CORS_ALLOW_ORIGINS", "", log)),
		UserHandler:       userHandler,
		AssessmentHandler: assessmentHandler,
		DashboardHandler:  dashboardHandler,
		AuthMiddleware:    authMiddleware,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}

// loadArtifact resolves the frozen model bundle, preferring the bucket
// when MODEL_ARTIFACT_GCS_KEY is set.
func loadArtifact(ctx context.Context, log *logger.Logger, bucket services.BucketService) (*model.Artifact, error) {
	if gcsKey := utils.GetEnv("MODEL_ARTIFACT_GCS_KEY", "", log); gcsKey != "" {
		if bucket == nil {
			return nil, fmt.Errorf("MODEL_ARTIFACT_GCS_KEY set but no bucket configured")
		}
		raw, err := bucket.Download(ctx, gcsKey)
		if err != nil {
			return nil, err
		}
		return model.Parse(raw)
	}
	path := utils.GetEnv("MODEL_ARTIFACT_PATH", "model/output/burnout_model.yaml", log)
	return model.Load(path)
}

func splitOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
