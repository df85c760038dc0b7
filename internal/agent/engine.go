// Package agent defines the reasoning-engine contract the conversation
// loop drives, and provides an OpenAI-compatible function-calling
// implementation. The natural-language policy lives in the system
// context; the guarantees live elsewhere — the tool orchestrator
// enforces preconditions regardless of what the engine decides to call.
package agent

import (
	"context"

	"github.com/eokafor/go-pharmacy-backend/internal/domain"
	"github.com/eokafor/go-pharmacy-backend/internal/retrieval"
	"github.com/eokafor/go-pharmacy-backend/internal/tools"
)

// Turn is everything the engine sees for one inbound message.
type Turn struct {
	User           *domain.User
	SessionID      string
	Message        string
	History        []domain.ChatMessage
	ProductContext []retrieval.Match
	MissingFields  []string
}

// Engine produces the agent reply for a turn, invoking tools through
// the orchestrator as it sees fit. Implementations must return an error
// rather than a fabricated reply when they cannot respond; the caller
// substitutes the fixed apology.
type Engine interface {
	Respond(ctx context.Context, orch *tools.Orchestrator, turn Turn) (string, error)
}
