package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/cohort-lms-api/internal/auth"
	"github.com/noah-isme/cohort-lms-api/internal/config"
	"github.com/noah-isme/cohort-lms-api/internal/database"
	"github.com/noah-isme/cohort-lms-api/internal/handler"
	"github.com/noah-isme/cohort-lms-api/internal/middleware"
	"github.com/noah-isme/cohort-lms-api/internal/observability"
	"github.com/noah-isme/cohort-lms-api/internal/repository"
	"github.com/noah-isme/cohort-lms-api/internal/router"
	"github.com/noah-isme/cohort-lms-api/internal/service"
	cloud "github.com/noah-isme/cohort-lms-api/pkg/cloudinary"
	objectstore "github.com/noah-isme/cohort-lms-api/pkg/minio"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.AppEnv == "development" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	logger = logger.With().Str("service", cfg.AppName).Str("env", cfg.AppEnv).Logger()

	observability.RegisterMetrics()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName+"-"+uuid.NewString()[:8], logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Close()
	}

	storage, err := newFileStorage(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("failed to initialise file storage")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	hasher := auth.NewBcryptHasher(0)

	users := repository.NewUserRepository(db)
	courses := repository.NewCourseRepository(db)
	modules := repository.NewModuleRepository(db)
	lessons := repository.NewLessonRepository(db)
	batches := repository.NewBatchRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	quizzes := repository.NewQuizRepository(db)
	answers := repository.NewAnswerRepository(db)
	assignments := repository.NewAssignmentRepository(db)
	submissions := repository.NewSubmissionRepository(db)
	completions := repository.NewLessonCompletionRepository(db)
	feedback := repository.NewLessonFeedbackRepository(db)
	liveClasses := repository.NewLiveClassRepository(db)
	notifications := repository.NewNotificationRepository(db)

	uploadService := service.NewUploadService(storage, cfg.UploadMaxSizeMB, logger)
	progressionService := service.NewProgressionService(service.ProgressionRepositories{
		Modules:     modules,
		Lessons:     lessons,
		Enrollments: enrollments,
		Quizzes:     quizzes,
		Answers:     answers,
		Assignments: assignments,
		Submissions: submissions,
		Completions: completions,
	}, redisClient, cfg.ProgressCacheTTL, logger)
	notificationService := service.NewNotificationService(notifications, redisClient, cfg.NotificationChannel, natsConn, logger)

	authService := service.NewAuthService(users, tokens, hasher, service.NewLogMailer(cfg.MailFrom, logger), validate, service.AuthConfig{
		ResetTTL: cfg.PasswordResetTTL,
		ResetURL: cfg.PasswordResetURL,
	}, logger)
	userService := service.NewUserService(users, hasher, validate, logger)
	catalogService := service.NewCatalogService(courses, modules, lessons, uploadService, progressionService, validate, logger)
	batchService := service.NewBatchService(batches, courses, users, enrollments, progressionService, validate, logger)
	assessmentService := service.NewAssessmentService(service.AssessmentRepositories{
		Modules:     modules,
		Lessons:     lessons,
		Batches:     batches,
		Enrollments: enrollments,
		Quizzes:     quizzes,
		Answers:     answers,
	}, progressionService, validate, logger)
	assignmentService := service.NewAssignmentService(service.AssignmentRepositories{
		Modules:     modules,
		Lessons:     lessons,
		Batches:     batches,
		Enrollments: enrollments,
		Assignments: assignments,
		Submissions: submissions,
	}, progressionService, uploadService, validate, logger)
	studentService := service.NewStudentService(enrollments, lessons, feedback, progressionService, validate, logger)
	liveClassService := service.NewLiveClassService(batches, enrollments, liveClasses, notifications, notificationService, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxSizeMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:         handler.NewAuthHandler(authService, logger),
		UserHandler:         handler.NewUserHandler(userService, logger),
		CatalogHandler:      handler.NewCatalogHandler(catalogService, logger),
		BatchHandler:        handler.NewBatchHandler(batchService, logger),
		AssessmentHandler:   handler.NewAssessmentHandler(assessmentService, logger),
		AssignmentHandler:   handler.NewAssignmentHandler(assignmentService, logger),
		StudentHandler:      handler.NewStudentHandler(studentService, progressionService, logger),
		LiveClassHandler:    handler.NewLiveClassHandler(liveClassService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger, cfg.StreamKeepAlive),
		JWTMiddleware:       middleware.JWTProtected(tokens),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notificationService.Start(ctx)

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Msg("http server starting")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(ctx, app, logger)
}

func newFileStorage(cfg config.Config, logger zerolog.Logger) (service.FileStorage, error) {
	if cfg.StorageDriver == config.StorageMinio {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return objectstore.New(ctx, objectstore.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		}, logger)
	}

	return cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
}

func waitForShutdown(ctx context.Context, app *fiber.App, logger zerolog.Logger) {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
