// Package orders implements the order-placement saga: durably persist
// the order intent, call the external fulfillment API under a bounded
// retry policy, then reconcile the local record — or compensate.
//
// The step ordering is the whole point. The pending row is written
// before any external call so a crash mid-saga can only lose an order,
// never produce an external order with no local trace. The one
// remaining gap is reconciliation: if the fulfilled-update fails after
// the API accepted the order, compensation deletes the local row even
// though an external order exists. That window is inherited from the
// system this replaces and is covered by tests so it stays visible.
package orders

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/eokafor/go-pharmacy-backend/internal/config"
	"github.com/eokafor/go-pharmacy-backend/internal/domain"
	"github.com/eokafor/go-pharmacy-backend/internal/fulfillment"
	"github.com/eokafor/go-pharmacy-backend/internal/gate"
	"github.com/eokafor/go-pharmacy-backend/internal/observability"
	"github.com/eokafor/go-pharmacy-backend/internal/repo"
)

// Result is the saga's terminal outcome handed back to the orchestrator.
type Result struct {
	Success  bool           `json:"success"`
	BatchID  string         `json:"batch_id,omitempty"`
	OrderID  string         `json:"order_id,omitempty"`
	Response map[string]any `json:"api_response,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// Store is the persistence surface the saga needs. repo provides the
// production implementation; tests substitute fakes.
type Store interface {
	CreatePendingOrder(ctx context.Context, o *domain.Order) error
	MarkOrderFulfilled(ctx context.Context, orderID, apiResponse string) error
	DeleteOrder(ctx context.Context, orderID string) error
}

// Saga coordinates one order placement end to end.
type Saga struct {
	store     Store
	submitter fulfillment.Submitter

	maxAttempts int
	retryBase   time.Duration
	deadline    time.Duration
}

// New builds a Saga with the configured retry budget.
func New(store Store, submitter fulfillment.Submitter, cfg config.FulfillmentConfig) *Saga {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	base := cfg.RetryBase
	if base <= 0 {
		base = 2 * time.Second
	}
	deadline := cfg.Deadline
	if deadline <= 0 {
		deadline = 45 * time.Second
	}
	return &Saga{
		store:       store,
		submitter:   submitter,
		maxAttempts: attempts,
		retryBase:   base,
		deadline:    deadline,
	}
}

// Place runs the saga for a validated draft. The caller (the tool
// orchestrator) has already enforced field completeness; Place still
// refuses drafts without items because batch-key derivation needs one.
func (s *Saga) Place(ctx context.Context, user *domain.User, sessionID string, draft *gate.OrderDraft) Result {
	ctx, span := otel.Tracer("orders").Start(ctx, "Saga.Place")
	defer span.End()

	start := time.Now()
	defer func() { observability.SagaDuration.Observe(time.Since(start).Seconds()) }()

	if user == nil || draft == nil || len(draft.Items) == 0 {
		observability.OrdersPlaced.WithLabelValues("rejected").Inc()
		return Result{Success: false, Error: "order draft has no items"}
	}

	batchID := domain.BatchID(user.ID, draft.CustomerName, draft.Items[0].Name)
	span.SetAttributes(attribute.String("order.batch_id", batchID))

	items, err := json.Marshal(draft.Items)
	if err != nil {
		observability.OrdersPlaced.WithLabelValues("rejected").Inc()
		return Result{Success: false, Error: "order items are not serializable"}
	}

	order := &domain.Order{
		ID:               uuid.NewString(),
		IdempotencyKey:   domain.OrderKey(user.ID, draft.Items, draft.IdempotencyToken),
		BatchID:          batchID,
		UserID:           user.ID,
		SessionID:        sessionID,
		CustomerName:     draft.CustomerName,
		CustomerAge:      draft.CustomerAge,
		CustomerHMOID:    draft.CustomerHMOID,
		CustomerPhone:    draft.CustomerPhone,
		CustomerAltPhone: draft.CustomerAltPhone,
		CustomerEmail:    draft.CustomerEmail,
		CustomerAddress:  draft.CustomerAddress,
		CustomerGender:   draft.CustomerGender,
		Landmark:         draft.Landmark,
		City:             draft.City,
		State:            draft.State,
		LGA:              draft.LGA,
		FulfilmentMode:   draft.FulfilmentMode,
		Items:            string(items),
	}

	// Step 1: durable intent. No external call ever happens without it.
	if err := s.store.CreatePendingOrder(ctx, order); err != nil {
		log.Error().Err(err).Str("batch_id", batchID).Msg("order saga: intent write failed, aborting before external call")
		observability.OrdersPlaced.WithLabelValues("persist_failed").Inc()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return Result{Success: false, BatchID: batchID, Error: "an identical order was already placed"}
		}
		return Result{Success: false, BatchID: batchID, Error: "failed to save order"}
	}

	// Step 2: external call, bounded retries, transient failures only.
	payload := fulfillment.NewPayload(batchID, user, draft.FulfilmentMode, draft.Items)
	apiResponse, err := s.submit(ctx, payload)
	if err != nil {
		s.compensate(ctx, order.ID, batchID)
		observability.OrdersPlaced.WithLabelValues("compensated").Inc()
		return Result{Success: false, BatchID: batchID, Error: err.Error()}
	}

	// Step 3: reconcile. A failure here compensates even though the
	// external order exists; see the package comment.
	encoded, err := json.Marshal(apiResponse)
	if err == nil {
		err = s.store.MarkOrderFulfilled(ctx, order.ID, string(encoded))
	}
	if err != nil {
		log.Error().Err(err).Str("batch_id", batchID).
			Msg("order saga: reconciliation failed after successful external call, compensating")
		s.compensate(ctx, order.ID, batchID)
		observability.OrdersPlaced.WithLabelValues("compensated").Inc()
		return Result{Success: false, BatchID: batchID, Error: "failed to record fulfillment result"}
	}

	observability.OrdersPlaced.WithLabelValues("fulfilled").Inc()
	return Result{Success: true, BatchID: batchID, OrderID: order.ID, Response: apiResponse}
}

// submit calls the fulfillment API under the retry policy: exponential
// backoff with jitter, at most maxAttempts tries, an overall deadline,
// and cancellation through ctx. Permanent failures stop immediately.
func (s *Saga) submit(ctx context.Context, payload fulfillment.Payload) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, s.deadline)
	defer cancel()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.retryBase
	bo.MaxInterval = 4 * s.retryBase

	return backoff.Retry(ctx, func() (map[string]any, error) {
		resp, err := s.submitter.Submit(ctx, payload)
		if err == nil {
			return resp, nil
		}
		var apiErr *fulfillment.APIError
		if errors.As(err, &apiErr) && apiErr.Transient() {
			log.Warn().Int("status", apiErr.Status).Msg("order saga: transient fulfillment failure, will retry")
			return nil, err
		}
		return nil, backoff.Permanent(err)
	},
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(s.maxAttempts)),
		backoff.WithMaxElapsedTime(s.deadline),
	)
}

// compensate deletes the pending intent row. Best-effort: a failed
// delete is logged and not retried.
func (s *Saga) compensate(ctx context.Context, orderID, batchID string) {
	if err := s.store.DeleteOrder(ctx, orderID); err != nil {
		log.Error().Err(err).Str("batch_id", batchID).Msg("order saga: compensation delete failed, pending row orphaned")
	}
}

// GormStore adapts the repo package to the Store interface.
type GormStore struct {
	DB *gorm.DB
}

var _ Store = (*GormStore)(nil)

// CreatePendingOrder proxies repo.CreatePendingOrder.
func (g *GormStore) CreatePendingOrder(ctx context.Context, o *domain.Order) error {
	return repo.CreatePendingOrder(ctx, g.DB, o)
}

// MarkOrderFulfilled proxies repo.MarkOrderFulfilled.
func (g *GormStore) MarkOrderFulfilled(ctx context.Context, orderID, apiResponse string) error {
	return repo.MarkOrderFulfilled(ctx, g.DB, orderID, apiResponse)
}

// DeleteOrder proxies repo.DeleteOrder.
func (g *GormStore) DeleteOrder(ctx context.Context, orderID string) error {
	return repo.DeleteOrder(ctx, g.DB, orderID)
}
