// Package services – ConversationService
//
// ConversationService runs one full chat turn: resolve the user and
// session, persist the inbound message, gather retrieval context and
// history, compute the gate's missing fields, hand the turn to the
// reasoning engine, and persist the reply.
//
// Message persistence around the turn is explicitly best-effort: a
// failed insert is logged and swallowed so the customer still gets an
// answer at the cost of a possibly incomplete history. Engine failures
// never surface internals; the fixed apology substitutes.
package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/eokafor/go-pharmacy-backend/internal/agent"
	"github.com/eokafor/go-pharmacy-backend/internal/domain"
	"github.com/eokafor/go-pharmacy-backend/internal/gate"
	"github.com/eokafor/go-pharmacy-backend/internal/repo"
	"github.com/eokafor/go-pharmacy-backend/internal/retrieval"
	"github.com/eokafor/go-pharmacy-backend/internal/tools"
)

// Searcher is the retrieval surface the turn loop consumes.
type Searcher interface {
	Search(ctx context.Context, q retrieval.Query) []retrieval.Match
}

// TurnResult is what a completed turn returns to the transport.
type TurnResult struct {
	Response  string
	SessionID string
	NewUser   bool
}

// ConversationService coordinates one turn per inbound message.
type ConversationService struct {
	DB       *gorm.DB
	Sessions *SessionService
	Index    Searcher
	Orch     *tools.Orchestrator
	Engine   agent.Engine

	// HistoryLimit caps how many messages of history feed the engine.
	HistoryLimit int
}

// HandleMessage executes the full turn for {name, message, session_id?}.
func (c *ConversationService) HandleMessage(ctx context.Context, name, message, requestedSessionID string) (*TurnResult, error) {
	ctx, span := otel.Tracer("services/ConversationService").Start(ctx, "HandleMessage")
	defer span.End()

	name = strings.TrimSpace(name)
	message = strings.TrimSpace(message)
	if name == "" {
		return nil, ErrEmptyName
	}
	if message == "" {
		return nil, ErrEmptyMessage
	}

	user, isNew, err := c.Sessions.ResolveUser(ctx, name)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", user.ID), attribute.Bool("user.new", isNew))

	sess, err := c.Sessions.ActiveSession(ctx, user.ID, requestedSessionID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("session.id", sess.ID))

	// Best-effort: the turn proceeds even if the log write fails.
	if _, err := repo.AppendMessage(ctx, c.DB, sess.ID, user.ID, domain.SenderUser, message); err != nil {
		log.Warn().Err(err).Str("session_id", sess.ID).Msg("failed to persist user message")
	}

	productContext := c.Index.Search(ctx, retrieval.Query{UserQuery: message})

	history, err := repo.ListRecentMessages(ctx, c.DB, sess.ID, c.HistoryLimit)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sess.ID).Msg("failed to load history, continuing without it")
		history = nil
	}

	turn := agent.Turn{
		User:           user,
		SessionID:      sess.ID,
		Message:        message,
		History:        history,
		ProductContext: productContext,
		MissingFields:  gate.MissingFields(user),
	}

	reply, err := c.Engine.Respond(ctx, c.Orch, turn)
	if err != nil {
		log.Error().Err(err).Str("session_id", sess.ID).Msg("reasoning engine failed, substituting apology")
		reply = ApologyMessage
	}

	if _, err := repo.AppendMessage(ctx, c.DB, sess.ID, user.ID, domain.SenderAgent, reply); err != nil {
		log.Warn().Err(err).Str("session_id", sess.ID).Msg("failed to persist agent reply")
	}

	return &TurnResult{Response: reply, SessionID: sess.ID, NewUser: isNew}, nil
}
