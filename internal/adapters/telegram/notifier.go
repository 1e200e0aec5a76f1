package telegram

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/tacticalpha/regime-engine/internal/adapters/config"
	"github.com/tacticalpha/regime-engine/pkg/logger"
)

// Notifier sends regime and signal alerts to a Telegram chat
type Notifier struct {
	api *tgbotapi.BotAPI
	cfg *config.TelegramConfig
}

// RegimeChange describes one classifier flipping state between two runs
type RegimeChange struct {
	Regime    string
	Month     time.Time
	FromLabel string
	ToLabel   string
	Score     float64
	HasScore  bool
}

// NewNotifier creates new Telegram notifier
func NewNotifier(cfg *config.TelegramConfig) (*Notifier, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	bot.Debug = false

	logger.Info("telegram notifier initialized",
		zap.String("bot_username", bot.Self.UserName),
	)

	return &Notifier{api: bot, cfg: cfg}, nil
}

// SendRegimeChanges sends one message summarizing every classifier that
// flipped in the latest run. Called only when something changed.
func (n *Notifier) SendRegimeChanges(changes []RegimeChange) error {
	if len(changes) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("*Regime change*\n")
	for _, ch := range changes {
		fmt.Fprintf(&b, "\n`%s` %s: %s → %s",
			ch.Regime,
			ch.Month.Format("2006-01"),
			ch.FromLabel,
			ch.ToLabel,
		)
		if ch.HasScore {
			fmt.Fprintf(&b, " (composite %.2f)", ch.Score)
		}
	}

	return n.sendMessageMarkdown(n.cfg.ChatID, b.String())
}

// SendRunFailure alerts that a scheduled refresh did not complete
func (n *Notifier) SendRunFailure(job string, err error) error {
	text := fmt.Sprintf("*Run failed*\n`%s`: %v", job, err)
	return n.sendMessageMarkdown(n.cfg.ChatID, text)
}

func (n *Notifier) sendMessageMarkdown(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"

	_, err := n.api.Send(msg)
	if err != nil {
		logger.Error("failed to send telegram message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		return err
	}

	return nil
}
