package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/classwork-labs/classwork-api/internal/config"
	"github.com/classwork-labs/classwork-api/internal/database"
	"github.com/classwork-labs/classwork-api/internal/handler"
	"github.com/classwork-labs/classwork-api/internal/middleware"
	"github.com/classwork-labs/classwork-api/internal/models"
	"github.com/classwork-labs/classwork-api/internal/repository"
	"github.com/classwork-labs/classwork-api/internal/router"
	"github.com/classwork-labs/classwork-api/internal/service"
	"github.com/classwork-labs/classwork-api/internal/storage"
	cloud "github.com/classwork-labs/classwork-api/pkg/cloudinary"
	"github.com/classwork-labs/classwork-api/pkg/mail"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Assignment{}, &models.Submission{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	blobStore, err := storage.NewDiskStore(cfg.StorageDir)
	if err != nil {
		log.Fatalf("failed to initialise blob store: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	var promptUploader service.FileUploader
	if cfg.CloudinaryCloudName != "" {
		uploader, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		promptUploader = uploader
	} else {
		promptUploader = service.NewLocalPromptUploader(blobStore, "/uploads", logger)
		logger.Warn().Msg("cloudinary not configured, storing prompt files locally")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	userRepo := repository.NewUserRepository(db)

	attachments := service.NewAttachmentManager(blobStore, logger)
	notifier := service.NewNATSGradedNotifier(natsConn, logger)
	defaults := models.UploadPolicy{
		AllowedFormats: cfg.AllowedFormats,
		MaxSizeBytes:   cfg.MaxFileSizeBytes(),
	}

	assignmentService := service.NewAssignmentService(assignmentRepo, validate, promptUploader, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, attachments, notifier, validate, defaults, logger)

	assignmentHandler := handler.NewAssignmentHandler(assignmentService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)

	var passwordResetHandler *handler.PasswordResetHandler
	if redisClient != nil {
		sender := mail.NewLogSender(logger)
		resetService := service.NewPasswordResetService(userRepo, redisClient, sender, validate, cfg.ResetCodeTTL, logger)
		passwordResetHandler = handler.NewPasswordResetHandler(resetService, logger)
	} else {
		logger.Warn().Msg("redis not configured, password reset endpoints disabled")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    int(cfg.MaxFileSizeBytes()) * 8,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	app.Static("/uploads/prompts", filepath.Join(cfg.StorageDir, "prompts"))
	router.Register(app, cfg, router.Dependencies{
		AssignmentHandler:    assignmentHandler,
		SubmissionHandler:    submissionHandler,
		PasswordResetHandler: passwordResetHandler,
		JWTMiddleware:        middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
