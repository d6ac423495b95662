package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"team_challenge_bot/internal/app"
	"team_challenge_bot/internal/infra/config"
	idb "team_challenge_bot/internal/infra/database"
	"team_challenge_bot/internal/infra/generator"
	"team_challenge_bot/internal/infra/logger"
	"team_challenge_bot/internal/infra/points"
	"team_challenge_bot/internal/infra/scheduler"
	"team_challenge_bot/internal/infra/telegram"

	"gopkg.in/telebot.v3"
)

func main() {
	fmt.Println("Team Challenge Bot starting...")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load application configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg)
	log := logger.Get()
	log.Infof("Configuration loaded. LogLevel: %s, Environment: %s, Admin ID: %d", cfg.LogLevel, cfg.Environment, cfg.AdminTelegramID)

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully.")

	if err := idb.Migrate(db); err != nil {
		log.Fatalf("FATAL: Could not apply database migrations: %v", err)
	}
	log.Info("Database schema is up to date.")

	// Initialize Repositories
	scheduleRepo := idb.NewPostgresScheduleRepository(db)
	ledgerRepo := idb.NewPostgresDeliveryLogRepository(db)
	batchRepo := idb.NewPostgresBatchRepository(db)
	challengeRepo := idb.NewPostgresChallengeRepository(db)
	orgDirectory := idb.NewPostgresOrgDirectory(db)
	log.Info("Repositories initialized.")

	// Initialize Telegram Bot
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := log.WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithField("sender_id", c.Sender().ID).WithField("chat_id", c.Chat().ID)
			}
			entry.Error("Telebot handler error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		log.Fatalf("FATAL: Could not create Telegram bot: %v", err)
	}
	telegramClient := telegram.NewTelebotAdapter(bot)

	fallbackLoc, err := time.LoadLocation(cfg.DefaultTimezone)
	if err != nil {
		log.Fatalf("FATAL: Invalid DEFAULT_TIMEZONE %q: %v", cfg.DefaultTimezone, err)
	}

	slotTimes, err := app.NewSlotTimes(cfg.SlotMorning, cfg.SlotAfternoon, cfg.SlotEvening)
	if err != nil {
		log.Fatalf("FATAL: Invalid slot time configuration: %v", err)
	}

	// Initialize Services
	tzResolver := app.NewTimezoneResolver(orgDirectory, fallbackLoc, log.WithField("component", "timezone"))
	scheduleService := app.NewScheduleService(scheduleRepo, log.WithField("component", "schedule_registry"))
	dispatchService := app.NewDispatchService(
		ledgerRepo, telegramClient,
		cfg.DispatchMessageDelay, cfg.DispatchBatchSize, cfg.DispatchBatchDelay,
		log.WithField("component", "dispatcher"),
	)
	broadcastService := app.NewBroadcastService(
		scheduleRepo, ledgerRepo, orgDirectory, tzResolver, dispatchService,
		cfg.DueTolerance, log.WithField("component", "delivery_poller"),
	)
	stagingService := app.NewStagingService(batchRepo, cfg.StagingTTL, log.WithField("component", "staging"))
	challengeService := app.NewChallengeService(
		challengeRepo, stagingService, orgDirectory, tzResolver, telegramClient,
		points.NewLogAwarder(log.WithField("component", "points")),
		slotTimes, log.WithField("component", "challenges"),
	)
	log.Info("Services initialized.")

	// Initialize DeliveryScheduler
	deliveryScheduler := scheduler.NewDeliveryScheduler(
		broadcastService, challengeService, stagingService,
		log.WithField("component", "scheduler"),
		cfg.TickInterval, cfg.SweepInterval,
	)
	if err := deliveryScheduler.Start(); err != nil {
		log.Fatalf("FATAL: Could not start delivery scheduler: %v", err)
	}

	// Register Handlers
	handlerCtx := context.Background()
	telegram.RegisterAdminHandlers(handlerCtx, bot, stagingService, challengeService, scheduleService, orgDirectory, generator.NewStaticGenerator(), cfg.AdminTelegramID, log.WithField("component", "admin_handlers"))
	telegram.RegisterChallengeResponseHandlers(handlerCtx, bot, challengeService)
	log.Info("Telegram handlers registered.")

	log.Info("Application setup complete. Bot and scheduler are starting...")

	// Start bot in a goroutine so it doesn't block graceful shutdown handling
	go bot.Start()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	log.Info("Shutting down application...")
	deliveryScheduler.Stop()
	bot.Stop()
	log.Info("Application shut down gracefully.")
}
