package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"telegram-babylog-bot/internal/access"
	"telegram-babylog-bot/internal/config"
	"telegram-babylog-bot/internal/database"
	"telegram-babylog-bot/internal/models"
	"telegram-babylog-bot/internal/report"
	"telegram-babylog-bot/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const insufficientDataMessage = "📊 Belum ada data pada periode 7 hari terakhir.\n" +
	"Catat asupan dulu, misalnya `mpasi 120` atau `susu 100`, lalu coba lagi."

const renderApologyMessage = "❌ Maaf, terjadi kesalahan saat membuat grafik.\n" +
	"Silakan coba lagi atau ketik /help untuk bantuan."

// CommandHandler handles bot commands
type CommandHandler struct {
	db     *database.DB
	config *config.Config
	gate   *access.Gate
	svc    *report.Service
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(db *database.DB, config *config.Config, gate *access.Gate, svc *report.Service) *CommandHandler {
	return &CommandHandler{
		db:     db,
		config: config,
		gate:   gate,
		svc:    svc,
	}
}

func identityForChat(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

// SendIntakeChart renders and sends the 7-day MPASI & milk chart
func (h *CommandHandler) SendIntakeChart(bot *tgbotapi.BotAPI, chatID int64) {
	defer h.recoverRendering(bot, chatID)

	ctx := context.Background()
	identity := identityForChat(chatID)

	png, buckets, err := h.svc.IntakeChart(ctx, identity, h.config.WindowDays)
	if err != nil {
		log.Println("Failed to generate intake chart:", err)
		bot.Send(tgbotapi.NewMessage(chatID, renderApologyMessage))
		return
	}
	if report.AllZero(buckets) {
		bot.Send(tgbotapi.NewMessage(chatID, insufficientDataMessage))
		return
	}

	caption := "📊 Grafik MPASI & Susu (7 hari terakhir)"
	if _, url, err := h.svc.Exporter().Export(png, identity, "intake_chart", "png"); err != nil {
		log.Println("Failed to export intake chart:", err)
	} else {
		caption += "\n🔗 Download: " + url
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("intake_chart_%s.png", identity),
		Bytes: png,
	})
	photo.Caption = caption
	if _, err := bot.Send(photo); err != nil {
		log.Println("Failed to send intake chart:", err)
		bot.Send(tgbotapi.NewMessage(chatID, renderApologyMessage))
	}
}

// SendIntakeReport renders and sends the PDF intake report (premium)
func (h *CommandHandler) SendIntakeReport(bot *tgbotapi.BotAPI, chatID int64) {
	defer h.recoverRendering(bot, chatID)

	ctx := context.Background()
	identity := identityForChat(chatID)

	decision := h.gate.Decide(ctx, identity, access.FeaturePDFReports)
	if !decision.Allowed {
		upsell := "📄 **Laporan PDF** adalah fitur premium.\n\n" +
			"✨ Dengan upgrade ke premium, Anda dapat:\n" +
			"• Download laporan PDF lengkap dengan grafik\n" +
			"• Tabel ringkasan harian + total & rata-rata\n" +
			"• Analisis tren mingguan\n\n" +
			"💎 Upgrade ke premium untuk akses unlimited!"
		msg := tgbotapi.NewMessage(chatID, upsell)
		msg.ParseMode = "Markdown"
		bot.Send(msg)
		return
	}

	pdf, buckets, err := h.svc.IntakeReport(ctx, identity, h.config.WindowDays)
	if err != nil {
		log.Println("Failed to generate intake report:", err)
		bot.Send(tgbotapi.NewMessage(chatID, renderApologyMessage))
		return
	}
	if report.AllZero(buckets) {
		bot.Send(tgbotapi.NewMessage(chatID, insufficientDataMessage))
		return
	}

	caption := "📄 Laporan MPASI & Susu (7 hari terakhir)"
	if _, url, err := h.svc.Exporter().Export(pdf, identity, "intake_report", "pdf"); err != nil {
		log.Println("Failed to export intake report:", err)
	} else {
		caption += "\n🔗 Download: " + url
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("intake_report_%s.pdf", identity),
		Bytes: pdf,
	})
	doc.Caption = caption
	if _, err := bot.Send(doc); err != nil {
		log.Println("Failed to send intake report:", err)
		bot.Send(tgbotapi.NewMessage(chatID, renderApologyMessage))
	}
}

// SendGrowthChart renders and sends the growth line chart (premium)
func (h *CommandHandler) SendGrowthChart(bot *tgbotapi.BotAPI, chatID int64) {
	defer h.recoverRendering(bot, chatID)

	ctx := context.Background()
	identity := identityForChat(chatID)

	decision := h.gate.Decide(ctx, identity, access.FeatureGrowthCharts)
	if !decision.Allowed {
		upsell := "📈 **Grafik Tumbuh Kembang** adalah fitur premium.\n\n" +
			"✨ Dengan upgrade ke premium, Anda dapat:\n" +
			"• Melihat grafik pertumbuhan visual\n" +
			"• Download chart dalam format PNG\n" +
			"• Analisis tren pertumbuhan\n\n" +
			"💎 Upgrade ke premium untuk akses unlimited!"
		msg := tgbotapi.NewMessage(chatID, upsell)
		msg.ParseMode = "Markdown"
		bot.Send(msg)
		return
	}

	png, points, err := h.svc.GrowthChart(ctx, identity)
	if errors.Is(err, report.ErrNoData) {
		bot.Send(tgbotapi.NewMessage(chatID,
			"📊 Belum ada data pertumbuhan untuk membuat grafik.\n"+
				"Ketik `timbang 7.5 68` untuk menambah data terlebih dahulu."))
		return
	}
	if err != nil {
		log.Println("Failed to generate growth chart:", err)
		bot.Send(tgbotapi.NewMessage(chatID, renderApologyMessage))
		return
	}

	caption := fmt.Sprintf("📈 Grafik Pertumbuhan\n📊 Data: %d catatan", points)
	if _, url, err := h.svc.Exporter().Export(png, identity, "growth_chart", "png"); err != nil {
		log.Println("Failed to export growth chart:", err)
	} else {
		caption += "\n🔗 Download: " + url
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("growth_chart_%s.png", identity),
		Bytes: png,
	})
	photo.Caption = caption
	if _, err := bot.Send(photo); err != nil {
		log.Println("Failed to send growth chart:", err)
		bot.Send(tgbotapi.NewMessage(chatID, renderApologyMessage))
	}
}

// SendDailySummary sends the 7-day intake summary text plus a CSV export
func (h *CommandHandler) SendDailySummary(bot *tgbotapi.BotAPI, chatID int64) {
	ctx := context.Background()
	identity := identityForChat(chatID)

	buckets, w, err := h.svc.IntakeBuckets(ctx, identity, h.config.WindowDays)
	if err != nil {
		log.Println("Failed to aggregate summary:", err)
		bot.Send(tgbotapi.NewMessage(chatID, "❌ Gagal membuat ringkasan. Silakan coba lagi."))
		return
	}
	if report.AllZero(buckets) {
		bot.Send(tgbotapi.NewMessage(chatID, insufficientDataMessage))
		return
	}

	var totMpasi, totMilk, totCal float64
	for _, b := range buckets {
		totMpasi += b.Totals[models.CategoryMPASI]
		totMilk += b.Totals[models.CategoryMilk]
		totCal += b.Calories[models.CategoryMPASI] + b.Calories[models.CategoryMilk]
	}
	today := buckets[len(buckets)-1]
	days := float64(len(buckets))

	var text string
	text += "📊 **RINGKASAN ASUPAN**\n"
	text += "═══════════════════\n\n"
	text += fmt.Sprintf("📅 Periode: %s\n\n", w)
	text += "🍽️ **Hari ini:**\n"
	text += fmt.Sprintf("   • MPASI: %.0f ml\n", today.Totals[models.CategoryMPASI])
	text += fmt.Sprintf("   • Susu: %.0f ml\n", today.Totals[models.CategoryMilk])
	text += fmt.Sprintf("   • Kalori: %.0f kcal\n\n", today.Calories[models.CategoryMPASI]+today.Calories[models.CategoryMilk])
	text += "📈 **7 hari terakhir:**\n"
	text += fmt.Sprintf("   • Total MPASI: %.0f ml (rata-rata %.1f/hari)\n", totMpasi, totMpasi/days)
	text += fmt.Sprintf("   • Total susu: %.0f ml (rata-rata %.1f/hari)\n", totMilk, totMilk/days)
	text += fmt.Sprintf("   • Total kalori: %.0f kcal (rata-rata %.1f/hari)\n", totCal, totCal/days)

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	bot.Send(msg)

	h.safeExportCSV(bot, chatID, buckets, w)
}

// safeExportCSV safely exports CSV with error handling and fallbacks
func (h *CommandHandler) safeExportCSV(bot *tgbotapi.BotAPI, chatID int64, buckets []report.DailyBucket, w report.Window) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("CSV export panic recovered: %v", r)
			bot.Send(tgbotapi.NewMessage(chatID, "⚠️ Export CSV gagal. Data tetap tersimpan di database."))
		}
	}()

	identity := identityForChat(chatID)
	subject := identity
	if profile, err := h.db.GetChildProfile(context.Background(), identity); err == nil && profile != nil {
		subject = profile.Name
	}

	var buffer bytes.Buffer
	if err := utils.GenerateWeeklyCSV(buckets, subject, w, &buffer); err != nil {
		log.Printf("Failed to generate CSV: %v", err)
		bot.Send(tgbotapi.NewMessage(chatID, "⚠️ Export CSV gagal. Data tetap tersimpan di database."))
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("intake_%s.csv", w.End.Format("2006-01-02")),
		Bytes: buffer.Bytes(),
	})
	doc.Caption = fmt.Sprintf("📊 Data asupan %s", w)
	if _, err := bot.Send(doc); err != nil {
		log.Printf("Failed to send CSV file: %v", err)
	}
}

// SendStatus sends the subscription tier status message
func (h *CommandHandler) SendStatus(bot *tgbotapi.BotAPI, chatID int64) {
	ctx := context.Background()
	identity := identityForChat(chatID)

	var text string
	sub, err := h.db.GetSubscription(ctx, identity)
	if err == nil && sub.ActiveAt(time.Now()) {
		text = "💎 **Status: Premium User**\n\n" +
			"✅ Akses unlimited ke semua fitur\n" +
			"✅ Riwayat data tak terbatas\n" +
			"✅ Grafik tumbuh kembang\n" +
			"✅ Export PDF laporan\n" +
			fmt.Sprintf("📅 Berlaku sampai: %s", time.Unix(sub.End, 0).In(h.config.Location).Format("2006-01-02"))
	} else {
		text = "🆓 **Status: Free User**\n\n" +
			"📅 Riwayat data: 7 hari terakhir\n" +
			"📊 Grafik asupan harian: ✅\n" +
			"📄 Laporan PDF: fitur premium\n" +
			"📈 Grafik tumbuh kembang: fitur premium\n\n" +
			"💡 Upgrade ke premium untuk akses unlimited!"
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	bot.Send(msg)
}

// SendHistory sends recent intake records
func (h *CommandHandler) SendHistory(bot *tgbotapi.BotAPI, chatID int64, limit int) {
	ctx := context.Background()
	identity := identityForChat(chatID)

	records, err := h.db.GetHistory(ctx, identity, "", limit)
	if err != nil {
		log.Println("Failed to fetch history:", err)
		bot.Send(tgbotapi.NewMessage(chatID, "❌ Gagal mengambil riwayat catatan."))
		return
	}
	if len(records) == 0 {
		bot.Send(tgbotapi.NewMessage(chatID, "Belum ada catatan."))
		return
	}

	text := "**📜 Catatan Terbaru:**\n"
	for i, rec := range records {
		timeStr := time.Unix(rec.CreatedAt, 0).In(h.config.Location).Format("Jan 2, 15:04")
		category := string(rec.Category)
		if category == "" {
			category = "belum dikategorikan"
		}
		text += fmt.Sprintf("%d. **%.1f** (%s) - %s\n", i+1, rec.Quantity, category, timeStr)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	bot.Send(msg)
}

// SendHelp sends help information
func (h *CommandHandler) SendHelp(bot *tgbotapi.BotAPI, chatID int64) {
	helpText := `**🍼 Babylog Bot**

**📝 Mencatat Asupan:**
• ` + "`mpasi 120 96`" + ` - MPASI 120 ml, 96 kcal
• ` + "`susu 100`" + ` - ASI/susu 100 ml
• ` + "`pumping 80`" + ` - ASI perah 80 ml
• ` + "`timbang 7.5 68 43`" + ` - Berat, tinggi, lingkar kepala
• ` + "`bab`" + ` - Catat BAB
• Kirim angka saja lalu pilih kategori dari tombol

**📊 Laporan & Grafik:**
• /chart - Grafik MPASI & susu 7 hari
• /report - Laporan PDF 💎
• /growth - Grafik tumbuh kembang 💎
• /ringkasan - Ringkasan + export CSV
• /history - Riwayat catatan

**🔧 Lainnya:**
• /status - Status langganan
• /help - Bantuan ini

💎 = fitur premium`

	msg := tgbotapi.NewMessage(chatID, helpText)
	msg.ParseMode = "Markdown"
	bot.Send(msg)
}

// DailyReminderPush sends the daily logging reminder to every known identity
func (h *CommandHandler) DailyReminderPush(bot *tgbotapi.BotAPI) {
	ctx := context.Background()

	identities, err := h.db.ListIdentities(ctx)
	if err != nil {
		log.Println("Failed to list identities for reminder:", err)
		return
	}

	for _, identity := range identities {
		chatID, err := strconv.ParseInt(identity, 10, 64)
		if err != nil {
			continue
		}
		msg := tgbotapi.NewMessage(chatID,
			"⏰ Jangan lupa catat asupan si kecil hari ini!\n"+
				"Ketik `susu 100` atau `mpasi 120` untuk mencatat.")
		if _, err := bot.Send(msg); err != nil {
			log.Printf("Failed to send reminder to %s: %v", identity, err)
		}
	}
	log.Printf("Daily reminder sent to %d identities", len(identities))
}

// SubscriptionSweep downgrades expired premium subscriptions
func (h *CommandHandler) SubscriptionSweep() {
	ctx := context.Background()
	count, err := h.db.ExpireSubscriptions(ctx)
	if err != nil {
		log.Println("Subscription sweep failed:", err)
		return
	}
	if count > 0 {
		log.Printf("Subscription sweep downgraded %d expired subscriptions", count)
	}
}

// recoverRendering keeps a rendering panic from crashing the update loop
func (h *CommandHandler) recoverRendering(bot *tgbotapi.BotAPI, chatID int64) {
	if r := recover(); r != nil {
		log.Printf("Rendering panic recovered: %v", r)
		bot.Send(tgbotapi.NewMessage(chatID, renderApologyMessage))
	}
}
