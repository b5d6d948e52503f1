package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/petfinder/petfinder-backend/internal/config"
	"github.com/petfinder/petfinder-backend/internal/db"
	httpHandlers "github.com/petfinder/petfinder-backend/internal/http/handlers"
	httpRouter "github.com/petfinder/petfinder-backend/internal/http/router"
	"github.com/petfinder/petfinder-backend/internal/logger"
	"github.com/petfinder/petfinder-backend/internal/repository"
	"github.com/petfinder/petfinder-backend/internal/service"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	mailer := service.NewEmailService(cfg.EmailHost, cfg.EmailPort, cfg.EmailUser, cfg.EmailPassword, cfg.EmailFrom, cfg.FrontendURL)

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	petRepo := repository.NewPetRepository(dbConn)

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager, mailer)
	petService := service.NewPetService(petRepo, userRepo, cfg.PetStatusOpenUpdate)
	adminService := service.NewAdminService(petRepo, userRepo, mailer)

	// HTTP хэндлеры.
	healthHandler := httpHandlers.NewHealthHandler(dbConn)
	authHandler := httpHandlers.NewAuthHandler(authService)
	petHandler := httpHandlers.NewPetHandler(petService)
	adminHandler := httpHandlers.NewAdminHandler(adminService)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, healthHandler, authHandler, petHandler, adminHandler, tokenManager, userRepo)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
