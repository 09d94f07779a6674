package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Freeeeeet/appointment_bot/internal/api"
	"github.com/Freeeeeet/appointment_bot/internal/app"
	"github.com/Freeeeeet/appointment_bot/internal/auth"
	"github.com/Freeeeeet/appointment_bot/internal/availability"
	"github.com/Freeeeeet/appointment_bot/internal/config"
	"github.com/Freeeeeet/appointment_bot/internal/controller"
	"github.com/Freeeeeet/appointment_bot/internal/notify"
	"github.com/Freeeeeet/appointment_bot/internal/repository"
	"github.com/Freeeeeet/appointment_bot/internal/repository/base"
	"github.com/Freeeeeet/appointment_bot/internal/service"
	"github.com/Freeeeeet/appointment_bot/migrations"
)

func main() {
	cfg, envLoaded, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting appointment bot",
		zap.String("environment", cfg.Environment),
		zap.Bool("dotenv", envLoaded),
		zap.Bool("telegram", cfg.TelegramToken != ""),
		zap.String("slot_policy", cfg.SlotPolicy),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Application stopped with error", zap.Error(err))
	}
	logger.Info("Application stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}
	logger.Info("✅ Connected to database")

	migrator, err := app.NewMigrator(pool, migrations.FS, logger)
	if err != nil {
		return err
	}
	if err := migrator.Run(ctx); err != nil {
		migrator.Close()
		return err
	}
	if err := migrator.Close(); err != nil {
		logger.Warn("Failed to close migrator", zap.Error(err))
	}

	// Репозитории
	retryPolicy := base.DefaultRetryPolicy()
	retryPolicy.BaseDelay = cfg.RetryBaseDelay
	retryPolicy.MaxAttempts = cfg.RetryMaxAttempts
	db := base.NewRepository(pool, retryPolicy)

	userRepo := repository.NewUserRepository(db)
	windowRepo := repository.NewScheduleWindowRepository(db, logger)
	reservationRepo := repository.NewReservationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	policy, err := availability.ParseSlotPolicy(cfg.SlotPolicy)
	if err != nil {
		return err
	}
	tokens, err := auth.NewJWT(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return err
	}

	// Telegram необязателен: без токена работает только HTTP API
	var (
		botInstance *bot.Bot
		notifier    service.Notifier = service.NopNotifier{}
	)
	if cfg.TelegramToken != "" {
		botInstance, err = bot.New(cfg.TelegramToken)
		if err != nil {
			return err
		}
		notifier = notify.NewTelegram(botInstance, logger)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	// Сервисы
	auditService := service.NewAuditService(auditRepo, logger)
	identityService := service.NewIdentityService(userRepo, tokens, auditService, validate, cfg.InstitutionDomain, logger)
	identityService.OnPrincipalChanged(auditService.HandlePrincipalChange)
	userService := service.NewUserService(userRepo, auditService, validate, logger)

	if cfg.HasAdminSeed() {
		if _, err := identityService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName); err != nil {
			return fmt.Errorf("ensure admin account: %w", err)
		}
	}
	scheduleService := service.NewScheduleService(windowRepo, userRepo, reservationRepo, auditService, policy, logger)
	bookingService := service.NewBookingService(userRepo, windowRepo, reservationRepo, notifier, auditService, policy, logger)
	messageService := service.NewMessageService(messageRepo, userRepo, notifier, auditService, logger)

	scheduler, err := app.NewScheduler(cfg.DigestCron, bookingService, logger)
	if err != nil {
		return err
	}

	server := api.NewServer(api.Services{
		Identity:  identityService,
		Directory: userService,
		Schedules: scheduleService,
		Bookings:  bookingService,
		Inbox:     messageService,
		Audit:     auditService,
	}, validate, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.ListenAndServe(gctx, cfg.HTTPAddr)
	})
	g.Go(func() error {
		return scheduler.Run(gctx)
	})

	if botInstance != nil {
		botController := controller.NewBotController(botInstance, controller.Services{
			Identity: identityService,
			Users:    userService,
			Schedule: scheduleService,
			Booking:  bookingService,
			Messages: messageService,
			Audit:    auditService,
		}, logger)
		if err := botController.RegisterHandlers(gctx); err != nil {
			logger.Warn("Bot commands menu not set", zap.Error(err))
		}
		g.Go(func() error {
			return botController.Start(gctx)
		})
	}

	return g.Wait()
}
