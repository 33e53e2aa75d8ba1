package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"telegram-babylog-bot/internal/access"
	"telegram-babylog-bot/internal/config"
	"telegram-babylog-bot/internal/database"
	"telegram-babylog-bot/internal/handlers"
	"telegram-babylog-bot/internal/report"
	"telegram-babylog-bot/internal/server"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	ctx := context.Background()
	db, err := database.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal("Failed to initialize MongoDB:", err)
	}
	defer db.Close(ctx)

	// Create Telegram bot
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatal("Failed to create Telegram bot:", err)
	}

	bot.Debug = false
	log.Printf("Bot started: %s", bot.Self.UserName)

	// Set up the rendering pipeline and handlers
	gate := access.NewGate(db)
	exporter := report.NewExporter(cfg.StaticDir, cfg.BaseURL)
	svc := report.NewService(db, exporter, cfg.Location, cfg.ASIKcalPerML)
	eventHandler := handlers.NewEventHandler(db, cfg, gate, svc)
	commandHandler := eventHandler.Commands()

	// Set up cron jobs: daily reminder and subscription expiry sweep
	c := cron.New()
	_, err = c.AddFunc("0 7 * * *", func() {
		log.Println("Sending daily reminders...")
		commandHandler.DailyReminderPush(bot)
	})
	if err != nil {
		log.Fatal("Failed to add reminder cron job:", err)
	}
	_, err = c.AddFunc("30 0 * * *", func() {
		commandHandler.SubscriptionSweep()
	})
	if err != nil {
		log.Fatal("Failed to add sweep cron job:", err)
	}
	c.Start()

	// Serve charts, reports and exported artifacts over HTTP
	router := server.New(svc, gate, cfg.StaticDir, cfg.WindowDays)
	go func() {
		log.Printf("Chart server listening on %s", cfg.HTTPAddr)
		if err := router.Run(cfg.HTTPAddr); err != nil {
			log.Fatal("Chart server failed:", err)
		}
	}()

	fmt.Println("Bot is running...")

	// Start listening for updates
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := bot.GetUpdatesChan(u)

	// Handle updates
	go func() {
		for update := range updates {
			if update.Message != nil {
				eventHandler.HandleMessage(bot, update.Message)
			} else if update.EditedMessage != nil {
				eventHandler.HandleMessage(bot, update.EditedMessage)
			} else if update.CallbackQuery != nil {
				eventHandler.HandleCallbackQuery(bot, update.CallbackQuery)
			}
		}
	}()

	// Wait for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-stop

	fmt.Println("Shutting down bot...")
}
