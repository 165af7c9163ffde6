package app

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/coursework-service/internal/auth"
	"github.com/RubachokBoss/coursework-service/internal/config"
	"github.com/RubachokBoss/coursework-service/internal/delivery/httpd"
	"github.com/RubachokBoss/coursework-service/internal/repository"
	"github.com/RubachokBoss/coursework-service/internal/service"
	"github.com/RubachokBoss/coursework-service/internal/service/integration"
)

type App struct {
	server    *http.Server
	logger    zerolog.Logger
	config    *config.Config
	db        *sql.DB
	publisher integration.EventPublisher
}

func New(cfg *config.Config, log zerolog.Logger, db *sql.DB) (*App, error) {
	// Создаем интеграционные клиенты
	sandboxClient := integration.NewSandboxClient(
		cfg.Services.Sandbox.URL,
		cfg.Services.Sandbox.CompileEndpoint,
		cfg.Services.Sandbox.Timeout,
		log,
	)
	publisher := newPublisher(cfg.RabbitMQ, log)
	archive := newArchive(cfg.Storage, log)

	// Создаем репозитории
	userRepo := repository.NewUserRepository(db, log)
	courseRepo := repository.NewCourseRepository(db, log)
	assignmentRepo := repository.NewAssignmentRepository(db, log)
	submissionRepo := repository.NewSubmissionRepository(db, log)

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// Создаем сервисы
	authService := service.NewAuthService(userRepo, tokens, cfg.Auth.BcryptCost, log)
	courseService := service.NewCourseService(courseRepo, assignmentRepo, userRepo, cfg.Auth.BcryptCost, log)
	assignmentService := service.NewAssignmentService(assignmentRepo, courseRepo, sandboxClient, publisher, log)
	submissionService := service.NewSubmissionService(
		submissionRepo,
		assignmentRepo,
		courseRepo,
		sandboxClient,
		publisher,
		archive,
		log,
	)
	reportService := service.NewReportService(submissionRepo, assignmentRepo, courseRepo, log)

	// Создаем обработчики
	handler := httpd.NewHandler(
		authService,
		courseService,
		assignmentService,
		submissionService,
		reportService,
		tokens,
		repository.NewPostgresRepository(db, log),
		log,
	)

	// Создаем роутер
	router := chi.NewRouter()

	// Настраиваем middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(httpd.RequestLogger(log))
	router.Use(httpd.Recovery(log))
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	// Настраиваем CORS
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	// Регистрируем маршруты
	handler.RegisterRoutes(router)

	// Создаем HTTP сервер
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		server:    server,
		logger:    log,
		config:    cfg,
		db:        db,
		publisher: publisher,
	}, nil
}

// newPublisher falls back to a no-op publisher: events are best-effort.
func newPublisher(cfg config.RabbitMQConfig, log zerolog.Logger) integration.EventPublisher {
	if !cfg.Enabled {
		log.Info().Msg("RabbitMQ disabled, events will not be published")
		return integration.NopPublisher{}
	}

	publisher, err := integration.NewRabbitMQPublisher(cfg.URL, cfg.Exchange, log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create RabbitMQ publisher")
		// Продолжаем без RabbitMQ, это допустимо для разработки
		return integration.NopPublisher{}
	}
	return publisher
}

func newArchive(cfg config.StorageConfig, log zerolog.Logger) integration.CodeArchive {
	if !cfg.Enabled {
		return integration.NopArchive{}
	}

	archive, err := integration.NewMinIOArchive(
		cfg.Endpoint,
		cfg.AccessKey,
		cfg.SecretKey,
		cfg.Bucket,
		cfg.Region,
		cfg.UseSSL,
		log,
	)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create MinIO code archive")
		return integration.NopArchive{}
	}
	return archive
}

func (a *App) Run() error {
	a.logger.Info().Msgf("Starting coursework service on %s", a.config.Server.Address)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down coursework service...")

	// Останавливаем сервер до закрытия зависимостей
	err := a.server.Shutdown(ctx)

	// Закрываем RabbitMQ соединение
	if err := a.publisher.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
	}

	// Закрываем соединение с БД
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}

	return err
}
