package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/ielts-practice/testprep-service/internal/cache"
	"github.com/ielts-practice/testprep-service/internal/config"
	"github.com/ielts-practice/testprep-service/internal/events"
	"github.com/ielts-practice/testprep-service/internal/handlers"
	"github.com/ielts-practice/testprep-service/internal/models"
	"github.com/ielts-practice/testprep-service/internal/repositories/postgres"
	"github.com/ielts-practice/testprep-service/internal/services"
	"github.com/ielts-practice/testprep-service/internal/utils"
	"github.com/ielts-practice/testprep-service/internal/validator"
	"github.com/ielts-practice/testprep-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := utils.NewLogger(cfg.Environment)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		return
	}
	if err := db.AutoMigrate(
		&models.ContentRecord{},
		&models.TestSubmission{},
		&models.TestSubmissionDetail{},
	); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		return
	}

	repo := postgres.NewRepository(db)
	defer repo.Close()

	// Redis is optional; without it the stats endpoints hit the database
	// every time.
	var cacheService cache.CacheService
	if redisClient, err := pkg.NewRedisClient(cfg); err != nil {
		logger.Warn("Redis unavailable, running without cache", "error", err)
	} else {
		defer redisClient.Close()
		cacheService = cache.NewRedisCache(redisClient, logger)
	}

	var publisher events.EventPublisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := events.NewKafkaEventPublisher(events.PublisherConfig{
			KafkaBrokers: cfg.KafkaBrokers,
			TopicName:    cfg.EventTopic,
			Logger:       logger,
		})
		if err != nil {
			logger.Warn("Kafka unavailable, events disabled", "error", err)
		} else {
			publisher = kafkaPublisher
		}
	}
	defer publisher.Close()

	v := validator.New()

	contentService := services.NewContentService(repo, logger, v)
	importService := services.NewImportExportService(repo, logger, publisher)
	submissionService := services.NewSubmissionService(repo, logger, v, publisher, cacheService)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))

	handlerManager := handlers.NewHandlerManager(contentService, importService, submissionService, v, logger)
	handlerManager.SetupRoutes(router)

	logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Error("Server stopped", "error", err)
	}
}
