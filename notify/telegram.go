// Package notify delivers end-of-run summaries to a Telegram chat.
package notify

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aluiziolira/go-crawl-books/models"
)

// Notifier posts messages to one chat.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewNotifierFromEnv builds a notifier from TELEGRAM_BOT_TOKEN and
// TELEGRAM_CHAT_ID. When either variable is unset it returns (nil,
// nil); a nil notifier silently discards messages, so notification
// stays optional.
func NewNotifierFromEnv() (*Notifier, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	chat := os.Getenv("TELEGRAM_CHAT_ID")
	if token == "" || chat == "" {
		return nil, nil
	}

	chatID, err := strconv.ParseInt(chat, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse TELEGRAM_CHAT_ID: %w", err)
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return &Notifier{bot: bot, chatID: chatID}, nil
}

// Send posts text to the configured chat. A nil receiver is a no-op.
func (n *Notifier) Send(text string) error {
	if n == nil {
		return nil
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// RunSummary renders a crawl result as a short human-readable report.
func RunSummary(result *models.CrawlResult, outputFile string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Crawl finished: %s\n", result.StopReason)
	if result.StopErr != nil {
		fmt.Fprintf(&b, "Failure: %v\n", result.StopErr)
	}
	fmt.Fprintf(&b, "Books: %d", len(result.Books))
	if dropped := result.Dropped(); dropped > 0 {
		fmt.Fprintf(&b, " (dropped %s)", dropBreakdown(result.Drops))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Pages: %d probed, %d extracted\n", result.PagesProbed, result.PagesExtracted)
	fmt.Fprintf(&b, "Duration: %s\n", result.Duration().Round(time.Second))
	if outputFile != "" {
		fmt.Fprintf(&b, "Output: %s", outputFile)
	}
	return strings.TrimRight(b.String(), "\n")
}

func dropBreakdown(drops map[string]int) string {
	reasons := make([]string, 0, len(drops))
	for reason := range drops {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)

	parts := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		parts = append(parts, fmt.Sprintf("%d %s", drops[reason], reason))
	}
	return strings.Join(parts, ", ")
}
