package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"salonbot-backend/config"
	"salonbot-backend/conversation"
	"salonbot-backend/repository"
	"salonbot-backend/routes"
	"salonbot-backend/services"
	"salonbot-backend/telegram"
	"salonbot-backend/utils"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	config.LoadConfig()
	utils.InitializeLogger(config.AppConfig.Env)
}

func main() {
	logger := utils.GetLogger()
	defer logger.Sync()

	cfg := config.AppConfig
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	rules, err := cfg.BookingRules()
	if err != nil {
		logger.Fatal("invalid booking rules", zap.Error(err))
	}

	store := openStore(cfg, logger)

	catalogEntries, err := config.LoadServices()
	if err != nil {
		logger.Fatal("failed to load services", zap.Error(err))
	}
	if catalogEntries == nil {
		catalogEntries = services.DefaultServices()
	}
	catalog, err := services.NewCatalog(catalogEntries)
	if err != nil {
		logger.Fatal("invalid service catalog", zap.Error(err))
	}

	availability := services.NewAvailability(rules, store)

	var botAPI *tgbotapi.BotAPI
	if cfg.BotToken != "" {
		botAPI, err = tgbotapi.NewBotAPI(cfg.BotToken)
		if err != nil {
			logger.Fatal("failed to connect to Telegram", zap.Error(err))
		}
	}

	var sms *services.TwilioSender
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" && cfg.TwilioPhoneNumber != "" {
		sms = services.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber)
	}

	notifiers := services.MultiNotifier{}
	if botAPI != nil {
		notifiers = append(notifiers, telegram.NewNotifier(botAPI, store))
	}
	if sms != nil && cfg.OperatorPhone != "" {
		smsNotifier, err := services.NewSMSNotifier(sms, cfg.OperatorPhone)
		if err != nil {
			logger.Fatal("invalid operator phone", zap.Error(err))
		}
		notifiers = append(notifiers, smsNotifier)
	}
	if cfg.NATSURL != "" {
		natsNotifier, err := services.NewNATSNotifier(cfg.NATSURL)
		if err != nil {
			logger.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer natsNotifier.Close()
		notifiers = append(notifiers, natsNotifier)
	}
	dispatcher := services.NewDispatcher(notifiers, cfg.NotifyTimeout)

	operators, err := services.NewOperatorService(store, availability, dispatcher, cfg.OperatorPhone)
	if err != nil {
		logger.Fatal("failed to set up operator access", zap.Error(err))
	}

	var reminders *services.ReminderService
	if sms != nil {
		reminders = services.NewReminderService(store, sms, rules.Location)
		if err := reminders.StartScheduler(cfg.ReminderCron); err != nil {
			logger.Fatal("failed to start reminders", zap.Error(err))
		}
		defer reminders.Stop()
	} else {
		logger.Info("Twilio not configured, SMS reminders disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if botAPI != nil {
		manager := conversation.NewManager(catalog, availability, store, dispatcher)
		go telegram.Run(ctx, botAPI, telegram.NewBot(botAPI, manager, operators))
	} else {
		logger.Warn("BOT_TOKEN not set, Telegram bot disabled")
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			logger.Fatal("JWT_SECRET must be set in production")
		}
		logger.Warn("JWT_SECRET not set, operator API rejects every request")
	}
	r := routes.SetupRouter(routes.Dependencies{
		Catalog:        catalog,
		Availability:   availability,
		Operators:      operators,
		Reminders:      reminders,
		JWTSecret:      cfg.JWTSecret,
		JWTExpiry:      cfg.JWTExpiry(),
		AllowedOrigins: cfg.AllowedOrigins(),
	})
	printRoutes(r, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}
	go func() {
		logger.Info("operator API listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	dispatcher.Wait()
}

// openStore uses Postgres when DB_URL is set and falls back to process memory
// otherwise.
func openStore(cfg config.Config, logger *zap.Logger) repository.Store {
	if cfg.DatabaseURL == "" {
		logger.Warn("DB_URL not set, using in-memory storage; data is lost on restart")
		return repository.NewMemoryStore()
	}
	db, err := config.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := config.Migrate(db); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}
	return repository.NewGormStore(db)
}

func printRoutes(r *gin.Engine, logger *zap.Logger) {
	for _, route := range r.Routes() {
		logger.Debug("route", zap.String("method", route.Method), zap.String("path", route.Path))
	}
}
