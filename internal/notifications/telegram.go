package notifications

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vitorcalvi/RSI-MFIBot/internal/logger"
)

var reasonIcons = map[CloseReason]string{
	ReasonOppositeSignal: "🔄",
	ReasonBotStop:        "⏹️",
	ReasonStopLoss:       "🛡️",
	ReasonTakeProfit:     "💰",
	ReasonTrailingStop:   "🔒",
	ReasonExternal:       "📝",
}

// TelegramNotifier delivers lifecycle events to a Telegram chat. Every
// send is best effort: failures are logged and dropped.
type TelegramNotifier struct {
	token  string
	chatID string
	client *http.Client
	log    *logger.Logger
}

// NewTelegramNotifier creates a Telegram notifier. log may be nil.
func NewTelegramNotifier(token, chatID string, log *logger.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		token:  token,
		chatID: chatID,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

func (t *TelegramNotifier) TradeOpened(event TradeOpenedEvent) {
	directionEmoji := "📈"
	if event.Side == "Sell" {
		directionEmoji = "📉"
	}

	msg := fmt.Sprintf("🔔 %s OPENED %s\n📍 %s\n⏰ %s\n💰 $%.4f\n📊 %v\n💵 $%.2f USDT",
		directionEmoji,
		event.Symbol,
		strings.ToUpper(event.Side),
		event.OpenedAt.Format("15:04:05"),
		event.Price,
		event.Size,
		event.Size*event.Price,
	)

	t.send(msg)
}

func (t *TelegramNotifier) TradeClosed(event TradeClosedEvent) {
	statusEmoji := "❌ 📉"
	profitStatus := "LOSS"
	if event.PnLPct > 0 {
		statusEmoji = "✅ 💰"
		profitStatus = "PROFIT"
	}

	icon, ok := reasonIcons[event.Reason]
	if !ok {
		icon = "📝"
	}

	msg := fmt.Sprintf("%s CLOSED %s - %s\n%s %s\n⏰ %s\n⏱️ %s\n📈 %+.2f%%\n💵 $%+.2f USDT\n📊 $%+.2f/hour",
		statusEmoji,
		event.Symbol,
		profitStatus,
		icon,
		event.Reason,
		event.ClosedAt.Format("15:04:05"),
		formatDuration(event.Duration),
		event.PnLPct,
		event.PnLUSD,
		earnPerHour(event.PnLUSD, event.Duration),
	)

	t.send(msg)
}

func (t *TelegramNotifier) ProfitLockActivated(event ProfitLockEvent) {
	msg := fmt.Sprintf("🔒 💎 PROFIT LOCK ACTIVATED!\n📊 %s\n📈 +%.2f%%\n🎯 Trailing: %.1f%%\n⏰ %s",
		event.Symbol,
		event.GainPct,
		event.TrailingPct,
		time.Now().Format("15:04:05"),
	)

	t.send(msg)
}

func (t *TelegramNotifier) Error(message string) {
	t.send(fmt.Sprintf("⚠️ ERROR\n❌ %s\n⏰ %s", message, time.Now().Format("15:04:05")))
}

func (t *TelegramNotifier) BotStarted(symbol string, balance float64) {
	msg := fmt.Sprintf("🤖 BOT STARTED\n📊 %s\n💰 $%.2f USDT\n⏰ %s",
		symbol, balance, time.Now().Format("15:04:05"))

	t.send(msg)
}

func (t *TelegramNotifier) BotStopped() {
	t.send(fmt.Sprintf("⏹️ BOT STOPPED\n⏰ %s", time.Now().Format("15:04:05")))
}

func (t *TelegramNotifier) send(text string) {
	apiURL := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.token)

	data := url.Values{}
	data.Set("chat_id", t.chatID)
	data.Set("text", text)

	resp, err := t.client.Post(apiURL, "application/x-www-form-urlencoded",
		strings.NewReader(data.Encode()))
	if err != nil {
		t.logf("telegram send failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.logf("telegram API returned status %d", resp.StatusCode)
	}
}

func (t *TelegramNotifier) logf(format string, args ...interface{}) {
	if t.log != nil {
		t.log.Warning(format, args...)
	}
}

// formatDuration renders a trade duration as "42m" or "2h 5m".
func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "N/A"
	}
	minutes := int(d.Minutes())
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// earnPerHour normalizes realized P&L to an hourly rate.
func earnPerHour(pnlUSD float64, d time.Duration) float64 {
	minutes := d.Minutes()
	if minutes <= 0 {
		return 0
	}
	return pnlUSD * 60 / minutes
}
