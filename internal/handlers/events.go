package handlers

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"telegram-babylog-bot/internal/access"
	"telegram-babylog-bot/internal/config"
	"telegram-babylog-bot/internal/database"
	"telegram-babylog-bot/internal/models"
	"telegram-babylog-bot/internal/report"
	"telegram-babylog-bot/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.mongodb.org/mongo-driver/bson"
)

// logCategories are the keyboard choices offered for a bare numeric message.
var logCategories = []string{"mpasi", "susu", "pumping"}

// EventHandler handles Telegram events
type EventHandler struct {
	db       *database.DB
	config   *config.Config
	commands *CommandHandler
}

// NewEventHandler creates a new event handler
func NewEventHandler(db *database.DB, config *config.Config, gate *access.Gate, svc *report.Service) *EventHandler {
	return &EventHandler{
		db:       db,
		config:   config,
		commands: NewCommandHandler(db, config, gate, svc),
	}
}

// Commands exposes the command handler for cron wiring
func (h *EventHandler) Commands() *CommandHandler {
	return h.commands
}

// HandleMessage handles incoming messages
func (h *EventHandler) HandleMessage(bot *tgbotapi.BotAPI, message *tgbotapi.Message) {
	if message.From.IsBot {
		return
	}

	if message.IsCommand() {
		h.handleCommand(bot, message)
		return
	}

	if message.EditDate != 0 {
		h.handleEditedMessage(bot, message)
		return
	}

	h.handleLogEntry(bot, message)
}

// handleCommand processes bot commands
func (h *EventHandler) handleCommand(bot *tgbotapi.BotAPI, message *tgbotapi.Message) {
	switch message.Command() {
	case "chart", "grafik":
		h.commands.SendIntakeChart(bot, message.Chat.ID)
	case "report", "laporan":
		h.commands.SendIntakeReport(bot, message.Chat.ID)
	case "growth", "tumbuh":
		h.commands.SendGrowthChart(bot, message.Chat.ID)
	case "ringkasan", "summary":
		h.commands.SendDailySummary(bot, message.Chat.ID)
	case "history", "riwayat":
		h.commands.SendHistory(bot, message.Chat.ID, 20)
	case "status", "tier":
		h.commands.SendStatus(bot, message.Chat.ID)
	case "help", "start", "bantuan":
		h.commands.SendHelp(bot, message.Chat.ID)
	}
}

// handleLogEntry parses a feeding/growth log message. Accepted forms:
// "mpasi 120 96", "susu 100", "pumping 80", "timbang 7.5 68 43", "bab",
// or a bare number followed by category selection via inline keyboard.
func (h *EventHandler) handleLogEntry(bot *tgbotapi.BotAPI, message *tgbotapi.Message) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(message.Text)))
	if len(fields) == 0 {
		return
	}
	// "catat mpasi 120" and "mpasi 120" are equivalent
	if fields[0] == "catat" && len(fields) > 1 {
		fields = fields[1:]
	}

	identity := identityForChat(message.Chat.ID)
	recordID := strconv.Itoa(message.MessageID)

	// Bare number: store uncategorized, ask for the category.
	if len(fields) == 1 {
		if volume, err := utils.ValidateVolume(fields[0]); err == nil {
			h.insertPendingRecord(bot, message, identity, recordID, volume)
			return
		}
	}

	switch fields[0] {
	case "timbang":
		h.handleGrowthEntry(bot, message, identity, recordID, fields[1:])
	case "bab":
		h.insertRecord(bot, message.Chat.ID, &models.IntakeRecord{
			ID:       recordID,
			Identity: identity,
			Category: models.CategoryBowel,
			Quantity: 1,
		}, "💩 BAB tercatat.")
	default:
		category, err := models.ParseCategory(fields[0])
		if err != nil || len(fields) < 2 {
			// Not a log entry, ignore
			return
		}

		volume, err := utils.ValidateVolume(fields[1])
		if err != nil {
			bot.Send(tgbotapi.NewMessage(message.Chat.ID, "❌ "+err.Error()))
			return
		}

		rec := &models.IntakeRecord{
			ID:       recordID,
			Identity: identity,
			Category: category,
			Quantity: volume,
		}
		if len(fields) >= 3 {
			kcal, err := utils.ValidateCalories(fields[2])
			if err != nil {
				bot.Send(tgbotapi.NewMessage(message.Chat.ID, "❌ "+err.Error()))
				return
			}
			rec.CalorieEstimate = &kcal
		}

		h.insertRecord(bot, message.Chat.ID, rec,
			fmt.Sprintf("✅ %s %.0f ml tercatat.", fields[0], volume))
	}
}

// handleGrowthEntry logs weight, height and optional head circumference
// from one "timbang" message as separate records.
func (h *EventHandler) handleGrowthEntry(bot *tgbotapi.BotAPI, message *tgbotapi.Message, identity, recordID string, args []string) {
	if len(args) < 2 {
		bot.Send(tgbotapi.NewMessage(message.Chat.ID,
			"Format: `timbang <berat kg> <tinggi cm> [lingkar kepala cm]`\nContoh: `timbang 7.5 68 43`"))
		return
	}

	weight, err := utils.ValidateWeight(args[0])
	if err != nil {
		bot.Send(tgbotapi.NewMessage(message.Chat.ID, "❌ "+err.Error()))
		return
	}
	height, err := utils.ValidateHeight(args[1])
	if err != nil {
		bot.Send(tgbotapi.NewMessage(message.Chat.ID, "❌ "+err.Error()))
		return
	}

	ctx := context.Background()
	now := time.Now().Unix()
	records := []*models.IntakeRecord{
		{ID: recordID, Identity: identity, Category: models.CategoryWeight, Quantity: weight, CreatedAt: now},
		{ID: recordID + "_h", Identity: identity, Category: models.CategoryHeight, Quantity: height, CreatedAt: now},
	}
	if len(args) >= 3 {
		head, err := utils.ValidateHeight(args[2])
		if err != nil {
			bot.Send(tgbotapi.NewMessage(message.Chat.ID, "❌ lingkar kepala: "+err.Error()))
			return
		}
		records = append(records, &models.IntakeRecord{
			ID: recordID + "_hc", Identity: identity, Category: models.CategoryHeadCircumference, Quantity: head, CreatedAt: now,
		})
	}

	for _, rec := range records {
		if err := h.db.InsertRecord(ctx, rec); err != nil {
			log.Println("Failed to insert growth record:", err)
			bot.Send(tgbotapi.NewMessage(message.Chat.ID, "❌ Gagal menyimpan catatan."))
			return
		}
	}

	bot.Send(tgbotapi.NewMessage(message.Chat.ID,
		fmt.Sprintf("✅ Timbang tercatat: %.1f kg, %.0f cm.", weight, height)))
}

// insertRecord saves a record and confirms to the user
func (h *EventHandler) insertRecord(bot *tgbotapi.BotAPI, chatID int64, rec *models.IntakeRecord, confirmation string) {
	ctx := context.Background()
	if err := h.db.InsertRecord(ctx, rec); err != nil {
		log.Println("Failed to insert record:", err)
		bot.Send(tgbotapi.NewMessage(chatID, "❌ Gagal menyimpan catatan."))
		return
	}
	bot.Send(tgbotapi.NewMessage(chatID, confirmation))
}

// insertPendingRecord stores an uncategorized amount and sends the
// category selection keyboard
func (h *EventHandler) insertPendingRecord(bot *tgbotapi.BotAPI, message *tgbotapi.Message, identity, recordID string, volume float64) {
	ctx := context.Background()

	rec := &models.IntakeRecord{
		ID:       recordID,
		Identity: identity,
		Quantity: volume,
	}
	if err := h.db.InsertRecord(ctx, rec); err != nil {
		log.Println("Failed to insert pending record:", err)
		bot.Send(tgbotapi.NewMessage(message.Chat.ID, "❌ Gagal menyimpan catatan."))
		return
	}

	keyboard := utils.BuildCategoryKeyboard(logCategories, recordID)
	msg := tgbotapi.NewMessage(message.Chat.ID, "Pilih kategori:")
	msg.ReplyMarkup = keyboard

	sentMsg, err := bot.Send(msg)
	if err != nil {
		log.Println("Failed to send category selection:", err)
		return
	}

	buttonMsgID := strconv.Itoa(sentMsg.MessageID)
	if err := h.db.UpdateRecord(ctx, recordID, bson.M{"buttonMessageId": buttonMsgID}); err != nil {
		log.Println("Failed to update buttonMessageId in DB:", err)
	}
}

// HandleCallbackQuery handles inline button callbacks
func (h *EventHandler) HandleCallbackQuery(bot *tgbotapi.BotAPI, callback *tgbotapi.CallbackQuery) {
	if strings.HasPrefix(callback.Data, "category_") {
		h.handleCategorySelection(bot, callback)
	} else if strings.HasPrefix(callback.Data, "delete_") {
		h.handleRecordDeletion(bot, callback)
	}

	// Answer the callback to remove loading state
	callbackConfig := tgbotapi.NewCallback(callback.ID, "")
	bot.Request(callbackConfig)
}

// handleCategorySelection processes category selection
func (h *EventHandler) handleCategorySelection(bot *tgbotapi.BotAPI, callback *tgbotapi.CallbackQuery) {
	parts := strings.Split(callback.Data, "_")
	if len(parts) < 3 {
		return
	}

	category, err := models.ParseCategory(parts[1])
	if err != nil {
		log.Println("Callback with unknown category:", parts[1])
		return
	}
	recordID := parts[2]

	ctx := context.Background()
	rec, err := h.db.FindRecord(ctx, recordID)
	if err != nil || rec == nil {
		log.Println("Record not found:", err)
		return
	}

	if err := h.db.UpdateRecord(ctx, recordID, bson.M{"category": category}); err != nil {
		log.Println("Failed to update category in DB:", err)
		return
	}

	content := fmt.Sprintf("✅ %.0f ml dicatat sebagai %s.\n\nTap kategori lain untuk mengubah:", rec.Quantity, parts[1])
	keyboard := utils.BuildCategoryKeyboard(logCategories, recordID)

	editMsg := tgbotapi.NewEditMessageText(callback.Message.Chat.ID, callback.Message.MessageID, content)
	editMsg.ReplyMarkup = &keyboard

	if _, err := bot.Send(editMsg); err != nil {
		log.Println("Failed to update category selection message:", err)
	}
}

// handleRecordDeletion handles record deletion via callback
func (h *EventHandler) handleRecordDeletion(bot *tgbotapi.BotAPI, callback *tgbotapi.CallbackQuery) {
	parts := strings.Split(callback.Data, "_")
	if len(parts) < 2 {
		return
	}

	recordID := parts[1]
	ctx := context.Background()

	rec, err := h.db.FindRecord(ctx, recordID)
	if err != nil || rec == nil {
		// Clean up the callback message since the record doesn't exist
		bot.Request(tgbotapi.NewDeleteMessage(callback.Message.Chat.ID, callback.Message.MessageID))
		return
	}

	if err := h.db.DeleteRecord(ctx, recordID); err != nil {
		log.Println("Failed to delete record from DB:", err)
		return
	}

	bot.Request(tgbotapi.NewDeleteMessage(callback.Message.Chat.ID, callback.Message.MessageID))

	content := fmt.Sprintf("🗑️ Catatan dihapus: %.0f", rec.Quantity)
	confirmMsg := tgbotapi.NewMessage(callback.Message.Chat.ID, content)
	sentConfirm, err := bot.Send(confirmMsg)
	if err == nil {
		// Auto-delete the confirmation message after 5 seconds
		go func() {
			time.Sleep(5 * time.Second)
			bot.Request(tgbotapi.NewDeleteMessage(callback.Message.Chat.ID, sentConfirm.MessageID))
		}()
	}
}

// handleEditedMessage handles message edits
func (h *EventHandler) handleEditedMessage(bot *tgbotapi.BotAPI, message *tgbotapi.Message) {
	fields := strings.Fields(strings.TrimSpace(message.Text))
	if len(fields) == 0 {
		return
	}

	// Only amount edits are supported; the edited value is the last number
	newAmount, err := utils.ValidateVolume(fields[len(fields)-1])
	if err != nil {
		return
	}

	ctx := context.Background()
	recordID := strconv.Itoa(message.MessageID)

	rec, err := h.db.FindRecord(ctx, recordID)
	if err != nil || rec == nil {
		return
	}

	if err := h.db.UpdateRecord(ctx, recordID, bson.M{"quantity": newAmount}); err != nil {
		log.Println("Failed to update record quantity:", err)
		return
	}

	if rec.ButtonMessageID != "" {
		buttonMsgID, _ := strconv.Atoi(rec.ButtonMessageID)
		content := "Pilih kategori:"
		if rec.Category != "" {
			content = fmt.Sprintf("✅ Diperbarui ke %.0f ml (%s).\n\nTap kategori lain untuk mengubah:", newAmount, rec.Category)
		}
		keyboard := utils.BuildCategoryKeyboard(logCategories, recordID)
		editMsg := tgbotapi.NewEditMessageText(message.Chat.ID, buttonMsgID, content)
		editMsg.ReplyMarkup = &keyboard
		bot.Send(editMsg)
	} else {
		bot.Send(tgbotapi.NewMessage(message.Chat.ID, fmt.Sprintf("✅ Catatan diperbarui ke %.0f.", newAmount)))
	}
}
