package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/user/souentd/internal/chat"
	"github.com/user/souentd/internal/types"
)

const maxTelegramMessage = 4096

// Adapter bridges Telegram chats to the conversation pipeline. Each chat
// maps to one session, recreated on /new.
type Adapter struct {
	bot    *tgbotapi.BotAPI
	orch   *chat.Orchestrator
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[int64]types.SessionID
}

// New creates a Telegram adapter.
func New(token string, orch *chat.Orchestrator, logger *slog.Logger) (*Adapter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		bot:      bot,
		orch:     orch,
		logger:   logger,
		sessions: make(map[int64]types.SessionID),
	}, nil
}

// Start begins long-polling for Telegram updates.
func (a *Adapter) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := a.bot.GetUpdatesChan(u)

	for {
		select {
		case update := <-updates:
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			a.handleMessage(ctx, update.Message)
		case <-ctx.Done():
			a.bot.StopReceivingUpdates()
			return
		}
	}
}

func (a *Adapter) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		a.handleCommand(ctx, msg)
		return
	}

	chatID := msg.Chat.ID
	resp, err := a.orch.Send(ctx, &chat.Request{
		Message:   msg.Text,
		SessionID: a.sessionFor(chatID),
		UserID:    userIDFor(msg.From.ID),
	})
	if err != nil {
		a.logger.Error("telegram turn failed", "chat_id", chatID, "error", err)
		a.sendResponse(chatID, "Sorry, I encountered an error processing your message.")
		return
	}

	a.rememberSession(chatID, resp.SessionID)
	a.sendResponse(chatID, resp.Response)
}

func (a *Adapter) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		a.sendResponse(chatID, "Hello, I am Souent. Ask me a question and I will reason through it with you.")

	case "new", "clear":
		a.mu.Lock()
		id, ok := a.sessions[chatID]
		delete(a.sessions, chatID)
		a.mu.Unlock()
		if ok {
			if err := a.orch.ClearSession(ctx, id); err != nil {
				a.logger.Warn("clear session failed", "session_id", id, "error", err)
			}
		}
		a.sendResponse(chatID, "Conversation cleared. The next message starts a fresh session.")

	case "status":
		id := a.sessionFor(chatID)
		if id == "" {
			a.sendResponse(chatID, "No active session. Send a message to start one.")
			return
		}
		history, err := a.orch.History(ctx, id)
		if err != nil {
			a.sendResponse(chatID, "No active session. Send a message to start one.")
			return
		}
		a.sendResponse(chatID, fmt.Sprintf("Session: %s\nMessages: %d", id, len(history)))

	default:
		a.sendResponse(chatID, "Unknown command. Available: /start, /new, /clear, /status")
	}
}

// userIDFor derives the preference-store key for a Telegram account.
// The underscore separator keeps the ID within the character set the
// stores accept for file names.
func userIDFor(telegramID int64) types.UserID {
	return types.UserID("telegram_" + strconv.FormatInt(telegramID, 10))
}

func (a *Adapter) sessionFor(chatID int64) types.SessionID {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sessions[chatID]
}

func (a *Adapter) rememberSession(chatID int64, id types.SessionID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessions[chatID] = id
}

func (a *Adapter) sendResponse(chatID int64, text string) {
	parts := splitMessage(text)
	for _, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = "Markdown"
		if _, err := a.bot.Send(msg); err != nil {
			// Retry without markdown if it fails
			msg.ParseMode = ""
			if _, err := a.bot.Send(msg); err != nil {
				a.logger.Error("send message failed", "chat_id", chatID, "error", err)
			}
		}
	}
}

func splitMessage(text string) []string {
	if len(text) <= maxTelegramMessage {
		return []string{text}
	}
	var parts []string
	for len(text) > 0 {
		end := maxTelegramMessage
		if end > len(text) {
			end = len(text)
		}
		parts = append(parts, text[:end])
		text = text[end:]
	}
	return parts
}
