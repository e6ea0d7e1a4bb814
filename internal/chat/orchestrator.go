// Package chat orchestrates a conversation turn: validation,
// authorization, session handling, response generation, and tone
// harmonization.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/user/souentd/internal/auth"
	"github.com/user/souentd/internal/engine"
	"github.com/user/souentd/internal/state"
	"github.com/user/souentd/internal/tone"
	"github.com/user/souentd/internal/types"
)

// MaxMessageLength caps inbound message size in characters.
const MaxMessageLength = 4000

// Request is one inbound chat turn.
type Request struct {
	Message    string
	SessionID  types.SessionID
	UserID     types.UserID
	Credential string
}

// Response is the outcome of a chat turn.
type Response struct {
	Response  string         `json:"response"`
	SessionID types.SessionID `json:"session_id"`
	Model     string         `json:"model"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Orchestrator wires the chat pipeline together.
type Orchestrator struct {
	gate       *auth.Gate
	sessions   types.SessionStore
	prefs      types.PreferenceStore
	canon      *state.CanonStore
	engine     *engine.Engine
	harmonizer *tone.Harmonizer
	logger     *slog.Logger
}

// Options configures New.
type Options struct {
	Gate       *auth.Gate
	Sessions   types.SessionStore
	Prefs      types.PreferenceStore
	Canon      *state.CanonStore
	Engine     *engine.Engine
	Harmonizer *tone.Harmonizer
	Logger     *slog.Logger
}

func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	harmonizer := opts.Harmonizer
	if harmonizer == nil {
		harmonizer = tone.NewHarmonizer(logger)
	}
	return &Orchestrator{
		gate:       opts.Gate,
		sessions:   opts.Sessions,
		prefs:      opts.Prefs,
		canon:      opts.Canon,
		engine:     opts.Engine,
		harmonizer: harmonizer,
		logger:     logger,
	}
}

// Send runs one chat turn. An unknown credential silently downgrades to
// the basic tier rather than failing the request. If generation fails
// after the user message was recorded, the user message stays in the
// transcript.
func (o *Orchestrator) Send(ctx context.Context, req *Request) (*Response, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: message must not be empty", types.ErrValidation)
	}
	if len(message) > MaxMessageLength {
		return nil, fmt.Errorf("%w: message exceeds %d characters", types.ErrValidation, MaxMessageLength)
	}
	if req.SessionID != "" && !types.ValidSessionID(string(req.SessionID)) {
		return nil, fmt.Errorf("%w: invalid session id", types.ErrValidation)
	}

	tier := o.gate.Resolve(req.Credential)

	sessionID := req.SessionID
	if sessionID == "" {
		id, err := o.sessions.Create(ctx)
		if err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
		sessionID = id
		o.logger.Info("created session", "session_id", sessionID)
	}

	userMsg := types.Message{
		ID:        types.NewMessageID(),
		Role:      types.RoleUser,
		Content:   message,
		Timestamp: time.Now(),
		Meta:      &types.MessageMeta{Tier: tier, UserID: req.UserID},
	}
	if err := o.sessions.Append(ctx, sessionID, userMsg); err != nil {
		return nil, fmt.Errorf("append user message: %w", err)
	}

	prefs := o.preferencesFor(ctx, req.UserID)

	canon, err := o.canon.Read(ctx)
	if err != nil {
		o.logger.Error("canon read failed", "error", err)
		canon = state.DefaultCanon()
	}

	history, err := o.sessions.History(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	resp, err := o.engine.Generate(ctx, history, prefs, tier, canon)
	if err != nil {
		// The user message stays recorded; only the turn fails.
		return nil, err
	}

	answer := o.harmonizer.Harmonize(resp.Content, prefs)
	if !o.harmonizer.Validate(answer) {
		o.logger.Warn("response failed validation, using fallback", "session_id", sessionID)
		answer = tone.FallbackResponse
	}

	assistantMsg := types.Message{
		ID:        types.NewMessageID(),
		Role:      types.RoleAssistant,
		Content:   answer,
		Timestamp: time.Now(),
		Meta:      &types.MessageMeta{Tier: tier, UserID: req.UserID},
	}
	if err := o.sessions.Append(ctx, sessionID, assistantMsg); err != nil {
		return nil, fmt.Errorf("append assistant message: %w", err)
	}

	return &Response{
		Response:  answer,
		SessionID: sessionID,
		Model:     canon.Model.Label(),
		Timestamp: assistantMsg.Timestamp,
		Metadata: map[string]any{
			"authorization_tier": tier.String(),
			"input_tokens":       resp.Usage.InputTokens,
			"output_tokens":      resp.Usage.OutputTokens,
		},
	}, nil
}

// preferencesFor loads the user's stored preferences, falling back to
// defaults when the user is anonymous or has none saved.
func (o *Orchestrator) preferencesFor(ctx context.Context, userID types.UserID) *types.UserPreferences {
	if userID == "" {
		return types.DefaultPreferences("")
	}
	prefs, err := o.prefs.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			o.logger.Warn("preference load failed", "user_id", userID, "error", err)
		}
		return types.DefaultPreferences(userID)
	}
	return prefs
}

// History returns the transcript for a session.
func (o *Orchestrator) History(ctx context.Context, id types.SessionID) ([]types.Message, error) {
	if !types.ValidSessionID(string(id)) {
		return nil, fmt.Errorf("%w: invalid session id", types.ErrValidation)
	}
	return o.sessions.History(ctx, id)
}

// NewSession creates an empty session and returns its ID.
func (o *Orchestrator) NewSession(ctx context.Context) (types.SessionID, error) {
	return o.sessions.Create(ctx)
}

// ClearSession removes a session's transcript. Clearing an unknown
// session succeeds.
func (o *Orchestrator) ClearSession(ctx context.Context, id types.SessionID) error {
	if !types.ValidSessionID(string(id)) {
		return fmt.Errorf("%w: invalid session id", types.ErrValidation)
	}
	return o.sessions.Clear(ctx, id)
}
