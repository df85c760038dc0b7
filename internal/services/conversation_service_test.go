package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/eokafor/go-pharmacy-backend/internal/agent"
	"github.com/eokafor/go-pharmacy-backend/internal/domain"
	"github.com/eokafor/go-pharmacy-backend/internal/repo"
	"github.com/eokafor/go-pharmacy-backend/internal/retrieval"
	"github.com/eokafor/go-pharmacy-backend/internal/tools"
)

type scriptedEngine struct {
	reply    string
	err      error
	lastTurn agent.Turn
}

func (e *scriptedEngine) Respond(_ context.Context, _ *tools.Orchestrator, turn agent.Turn) (string, error) {
	e.lastTurn = turn
	return e.reply, e.err
}

type stubSearcher struct {
	matches []retrieval.Match
}

func (s *stubSearcher) Search(context.Context, retrieval.Query) []retrieval.Match {
	return s.matches
}

func newConversation(db *gorm.DB, engine agent.Engine, search Searcher) *ConversationService {
	return &ConversationService{
		DB:           db,
		Sessions:     NewSessionService(db),
		Index:        search,
		Orch:         tools.NewOrchestrator(),
		Engine:       engine,
		HistoryLimit: 50,
	}
}

func TestHandleMessage_ValidatesInput(t *testing.T) {
	svc := newConversation(testDB(t), &scriptedEngine{}, &stubSearcher{})

	if _, err := svc.HandleMessage(context.Background(), "  ", "hello", ""); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("err = %v, want ErrEmptyName", err)
	}
	if _, err := svc.HandleMessage(context.Background(), "Ada Obi", "  ", ""); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("err = %v, want ErrEmptyMessage", err)
	}
}

func TestHandleMessage_FullTurn(t *testing.T) {
	db := testDB(t)
	engine := &scriptedEngine{reply: "Hello Ada, how can I help?"}
	search := &stubSearcher{matches: []retrieval.Match{{ContentID: "row-1", Content: "Paracetamol 500mg"}}}
	svc := newConversation(db, engine, search)

	res, err := svc.HandleMessage(context.Background(), "Ada Obi", "do you have painkillers?", "")
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if res.Response != "Hello Ada, how can I help?" {
		t.Fatalf("response = %q", res.Response)
	}
	if res.SessionID == "" {
		t.Fatal("session id missing")
	}
	if !res.NewUser {
		t.Fatal("first contact should flag a new user")
	}

	// Engine saw the retrieval context and the identity gaps.
	if len(engine.lastTurn.ProductContext) != 1 {
		t.Fatalf("product context = %+v", engine.lastTurn.ProductContext)
	}
	if len(engine.lastTurn.MissingFields) == 0 {
		t.Fatal("bare user should have missing identity fields")
	}

	// Both sides of the exchange were persisted.
	msgs, err := repo.ListRecentMessages(context.Background(), db, res.SessionID, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}
	if msgs[0].Sender != domain.SenderUser || msgs[1].Sender != domain.SenderAgent {
		t.Fatalf("senders = %q, %q", msgs[0].Sender, msgs[1].Sender)
	}
}

func TestHandleMessage_SessionContinuity(t *testing.T) {
	db := testDB(t)
	svc := newConversation(db, &scriptedEngine{reply: "ok"}, &stubSearcher{})
	ctx := context.Background()

	first, err := svc.HandleMessage(ctx, "Ada Obi", "hi", "")
	if err != nil {
		t.Fatalf("first turn: %v", err)
	}
	second, err := svc.HandleMessage(ctx, "Ada Obi", "hello again", first.SessionID)
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}
	if second.SessionID != first.SessionID {
		t.Fatalf("session changed: %q vs %q", second.SessionID, first.SessionID)
	}
	if second.NewUser {
		t.Fatal("second turn flagged a new user")
	}

	// History accumulates within the session.
	n, err := repo.CountMessages(ctx, db, first.SessionID)
	if err != nil || n != 4 {
		t.Fatalf("messages = %d, %v, want 4", n, err)
	}
}

// An engine outage must degrade to the fixed apology, not an error, and
// the apology is what lands in the transcript.
func TestHandleMessage_EngineFailureSubstitutesApology(t *testing.T) {
	db := testDB(t)
	svc := newConversation(db, &scriptedEngine{err: errors.New("model unavailable")}, &stubSearcher{})

	res, err := svc.HandleMessage(context.Background(), "Ada Obi", "hi", "")
	if err != nil {
		t.Fatalf("turn errored instead of apologizing: %v", err)
	}
	if res.Response != ApologyMessage {
		t.Fatalf("response = %q, want the apology", res.Response)
	}

	msgs, err := repo.ListRecentMessages(context.Background(), db, res.SessionID, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 2 || msgs[1].Content != ApologyMessage {
		t.Fatalf("transcript = %+v", msgs)
	}
}
