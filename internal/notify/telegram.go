package notify

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"taskmgr/pkg/logx"
)

// TelegramConfig configures delivery over a Telegram bot.
//
// Recipients maps owner IDs to chat IDs. Owners without a mapping are
// dropped with a log line; notification delivery is best effort by contract.
type TelegramConfig struct {
	Token      string
	RatePerSec int
	Recipients map[uuid.UUID]int64
}

// TelegramGateway sends notifications over a Telegram bot, one message per
// event, rate limited across all recipients.
type TelegramGateway struct {
	bot     *tele.Bot
	log     logx.Logger
	limiter *rate.Limiter

	mu    sync.RWMutex
	chats map[uuid.UUID]int64
}

func NewTelegramGateway(cfg TelegramConfig, log logx.Logger) (*TelegramGateway, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	bot, err := tele.NewBot(tele.Settings{Token: cfg.Token})
	if err != nil {
		return nil, err
	}

	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	g := &TelegramGateway{
		bot:     bot,
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
	}
	g.SetRecipients(cfg.Recipients)
	return g, nil
}

// SetRecipients swaps the owner→chat routing table (config hot-reload).
func (g *TelegramGateway) SetRecipients(m map[uuid.UUID]int64) {
	cp := make(map[uuid.UUID]int64, len(m))
	for k, v := range m {
		cp[k] = v
	}
	g.mu.Lock()
	g.chats = cp
	g.mu.Unlock()
}

func (g *TelegramGateway) Send(ctx context.Context, m Message) error {
	g.mu.RLock()
	chatID, ok := g.chats[m.OwnerID]
	g.mu.RUnlock()
	if !ok {
		g.log.Debug("no telegram chat mapped for owner, dropping notification",
			logx.String("owner", m.OwnerID.String()),
			logx.String("type", string(m.Type)),
		)
		return nil
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err := g.bot.Send(
		&tele.Chat{ID: chatID},
		renderText(m),
		&tele.SendOptions{DisableWebPagePreview: true},
	)
	return err
}

func renderText(m Message) string {
	var b strings.Builder
	b.WriteString(prefixFor(m.Type))
	b.WriteString(m.Subject)
	if strings.TrimSpace(m.Body) != "" {
		b.WriteString("\n\n")
		b.WriteString(m.Body)
	}
	return b.String()
}

func prefixFor(t Type) string {
	switch t {
	case TypeDeadline:
		return "🚨 "
	case TypeReminder:
		return "⚠️ "
	case TypeSummary:
		return "🌅 "
	default:
		return ""
	}
}
