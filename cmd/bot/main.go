package main

import (
	"context"
	"database/sql"
	"os/signal"
	"syscall"
	"time"

	"recurring_ledger_bot/internal/app"
	"recurring_ledger_bot/internal/domain/ledger"
	"recurring_ledger_bot/internal/domain/recurring"
	domainTelegram "recurring_ledger_bot/internal/domain/telegram"
	"recurring_ledger_bot/internal/infra/config"
	idb "recurring_ledger_bot/internal/infra/database"
	"recurring_ledger_bot/internal/infra/logger"
	"recurring_ledger_bot/internal/infra/memstore"
	"recurring_ledger_bot/internal/infra/scheduler"
	"recurring_ledger_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"owner_id":    cfg.OwnerTelegramID,
		"ledger_id":   cfg.DefaultLedgerID,
	}).Info("Recurring ledger bot starting...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rules, booker, db := openStores(ctx, cfg, mainLogger)
	if db != nil {
		defer db.Close()
	}

	scheduleService := app.NewScheduleService(rules, booker, time.Now, logrus.NewEntry(logger.Log))
	mainLogger.Info("Schedule service initialized.")

	var bot *telebot.Bot
	var client domainTelegram.Client
	if cfg.TelegramToken != "" {
		bot, err = telebot.NewBot(telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c telebot.Context) { // Global error handler
				logCtx := logger.Component("telebot").WithError(err)
				if c != nil && c.Sender() != nil && c.Chat() != nil {
					logCtx = logCtx.WithFields(logrus.Fields{"sender_id": c.Sender().ID, "chat_id": c.Chat().ID, "text": c.Text()})
				}
				logCtx.Error("Telegram handler error")
			},
		})
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not create Telegram bot")
		}
		client = telegram.NewTelebotAdapter(bot)
	} else {
		mainLogger.Warn("TELEGRAM_TOKEN is not set; notifications are only logged.")
	}

	reminderService := app.NewReminderService(client, cfg.OwnerTelegramID, logrus.NewEntry(logger.Log))

	dueScheduler := scheduler.NewDueScheduler(
		scheduleService,
		reminderService,
		logrus.NewEntry(logger.Log),
		cfg.CronSpecDueCheck,
		cfg.CronSpecReminder,
		cfg.JobTimeout,
	)
	if err := dueScheduler.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start due scheduler")
	}

	if cfg.RunOnStartup {
		// Catches up on anything that fell due while the process was down.
		go dueScheduler.RunOnce(ctx)
	}

	if bot != nil {
		handlerLogger := logger.Component("telegram")
		cmds := telegram.NewRuleCommands(scheduleService, reminderService, dueScheduler, cfg.DefaultLedgerID, handlerLogger)
		telegram.RegisterBotCommands(bot, cfg.OwnerTelegramID, handlerLogger)
		telegram.RegisterAdminHandlers(ctx, bot, cmds, cfg.OwnerTelegramID)
		telegram.RegisterBookingResponseHandlers(ctx, bot, cmds, cfg.OwnerTelegramID)
		mainLogger.Info("Telegram handlers registered.")

		// Start bot in a goroutine so it doesn't block graceful shutdown handling
		go bot.Start()
	}

	mainLogger.Info("Application setup complete.")
	<-ctx.Done() // Block until a signal is received

	mainLogger.Info("Shutting down application...")
	if bot != nil {
		bot.Stop()
	}
	dueScheduler.Stop()
	mainLogger.Info("Application shut down gracefully.")
}

// openStores picks PostgreSQL when DATABASE_URL is set and the in-memory
// store otherwise. The returned *sql.DB is nil for the in-memory store.
func openStores(ctx context.Context, cfg *config.AppConfig, mainLogger *logrus.Entry) (recurring.Repository, ledger.Booker, *sql.DB) {
	if cfg.DatabaseURL == "" {
		mainLogger.Warn("DATABASE_URL is not set; using the in-memory store. Data is lost on exit.")
		rules := memstore.NewRuleStore()
		return rules, memstore.NewBooker(rules, memstore.NewLedger()), nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := idb.NewPostgresConnection(connectCtx, cfg.DatabaseURL)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not connect to database")
	}
	mainLogger.Info("Database connection established successfully.")

	if cfg.ApplySchemaOnBoot {
		if err := idb.EnsureSchema(connectCtx, db); err != nil {
			db.Close()
			mainLogger.WithError(err).Fatal("Could not apply database schema")
		}
		mainLogger.Info("Database schema is up to date.")
	}

	return idb.NewPostgresRuleRepository(db), idb.NewPostgresLedger(db), db
}
