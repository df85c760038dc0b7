// Package tools exposes the fixed set of actions the reasoning engine
// may invoke and normalizes every outcome into a uniform envelope.
//
// Two guarantees matter here. First, no failure escapes: handler errors
// and panics become {success: false, error} envelopes so one broken tool
// call never ends the conversational turn. Second, gating is enforced,
// not advised: identity-store and order-placement handlers hard-check
// their preconditions before any side effect, whatever the reasoning
// engine decided to call.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/eokafor/go-pharmacy-backend/internal/domain"
	"github.com/eokafor/go-pharmacy-backend/internal/observability"
)

// Envelope is the uniform result of every tool invocation.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TurnContext carries the per-turn state tools operate on: the resolved
// user record and the active session.
type TurnContext struct {
	User      *domain.User
	SessionID string
}

// Spec describes one action for the function-calling engine: its name,
// what it does, and a JSON-schema parameter object.
type Spec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Handler executes one action. Returned errors (and panics) are folded
// into failure envelopes by Dispatch.
type Handler func(ctx context.Context, tc *TurnContext, args json.RawMessage) (any, error)

// Orchestrator is the registry of callable actions.
type Orchestrator struct {
	specs    []Spec
	handlers map[string]Handler
}

// NewOrchestrator returns an empty registry; register actions with Add.
func NewOrchestrator() *Orchestrator {
	return &Orchestrator{handlers: make(map[string]Handler)}
}

// Add registers an action. Later registrations of the same name win,
// which tests use to substitute fakes.
func (o *Orchestrator) Add(spec Spec, h Handler) {
	if _, exists := o.handlers[spec.Name]; !exists {
		o.specs = append(o.specs, spec)
	} else {
		for i := range o.specs {
			if o.specs[i].Name == spec.Name {
				o.specs[i] = spec
				break
			}
		}
	}
	o.handlers[spec.Name] = h
}

// Specs returns the registered action descriptions in registration
// order, for handing to the reasoning engine.
func (o *Orchestrator) Specs() []Spec {
	out := make([]Spec, len(o.specs))
	copy(out, o.specs)
	return out
}

// Dispatch runs the named action and always returns an envelope. An
// unknown name, a handler error, and a handler panic all come back as
// failures; nothing propagates to the conversation loop.
func (o *Orchestrator) Dispatch(ctx context.Context, tc *TurnContext, name string, args json.RawMessage) (env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("tool", name).Interface("panic", r).Msg("tool handler panicked")
			env = Envelope{Success: false, Error: fmt.Sprintf("tool %s failed unexpectedly", name)}
		}
		result := "ok"
		if !env.Success {
			result = "error"
		}
		observability.ToolInvocations.WithLabelValues(name, result).Inc()
	}()

	h, ok := o.handlers[name]
	if !ok {
		return Envelope{Success: false, Error: fmt.Sprintf("unknown tool %q", name)}
	}

	data, err := h(ctx, tc, args)
	if err != nil {
		log.Warn().Str("tool", name).Err(err).Msg("tool invocation failed")
		return Envelope{Success: false, Error: err.Error()}
	}
	return Envelope{Success: true, Data: data}
}
