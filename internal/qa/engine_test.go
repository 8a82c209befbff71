package qa

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/dgallion1/docquery/internal/answer"
	"github.com/dgallion1/docquery/internal/history"
)

const testDoc = `1. Greedy Algorithms
A greedy algorithm makes the locally optimal choice at every step of the way.
Kruskal builds a minimum spanning tree by adding the cheapest safe edge first.

2. Data Visualization
Bar charts and dashboards help stakeholders understand model performance.`

type fakeAnswerer struct {
	model    string
	reply    string
	err      error
	requests []answer.Request
}

func (f *fakeAnswerer) Answer(_ context.Context, req answer.Request) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeAnswerer) Model() string { return f.model }

func newTestEngine(primary, backup answer.Answerer) (*Engine, *history.Store) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := history.NewStore(history.NewMemoryBackend(), log)
	return NewEngine(store, primary, backup, log, DefaultOptions()), store
}

func TestLoadDocument_ProcessesAndCreatesThread(t *testing.T) {
	engine, store := newTestEngine(&fakeAnswerer{model: "m", reply: "ok"}, nil)

	snap := engine.LoadDocument("slides.pdf", 1700000000, testDoc)

	if snap.Status != StatusReady {
		t.Fatalf("expected ready status, got %q (%s)", snap.Status, snap.Err)
	}
	if snap.ID != "doc_slides.pdf_1700000000" {
		t.Errorf("unexpected document id %q", snap.ID)
	}
	if snap.Processed == nil || len(snap.Processed.Sections) == 0 {
		t.Fatal("expected processed sections")
	}
	if store.Thread(snap.ID) == nil {
		t.Error("expected a conversation thread for the document")
	}
}

func TestAsk_AssemblesContextAndRecordsTurn(t *testing.T) {
	primary := &fakeAnswerer{model: "m", reply: "Kruskal adds cheapest edges."}
	engine, store := newTestEngine(primary, nil)
	snap := engine.LoadDocument("algo.pdf", 1, testDoc)

	result, err := engine.Ask(context.Background(), snap.ID, "Explain the kruskal algorithm", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Answer != "Kruskal adds cheapest edges." {
		t.Errorf("unexpected answer %q", result.Answer)
	}
	if result.QuestionType != history.QuestionAlgorithm {
		t.Errorf("expected algorithm type, got %q", result.QuestionType)
	}

	if len(primary.requests) != 1 {
		t.Fatalf("expected 1 provider call, got %d", len(primary.requests))
	}
	ctx := primary.requests[0].Context
	for _, want := range []string{"Document Summary:", "Key Topics:", "Relevant Sections:", "Current Question: Explain the kruskal algorithm"} {
		if !strings.Contains(ctx, want) {
			t.Errorf("prompt context missing %q", want)
		}
	}
	if !strings.Contains(ctx, "Kruskal builds a minimum spanning tree") {
		t.Errorf("prompt context missing relevant section text")
	}

	thread := store.Thread(snap.ID)
	if thread == nil || len(thread.Messages) != 1 {
		t.Fatal("expected recorded turn in history")
	}
	if thread.Messages[0].Answer != result.Answer {
		t.Errorf("recorded answer mismatch: %q", thread.Messages[0].Answer)
	}
}

func TestAsk_IncludesPriorConversation(t *testing.T) {
	primary := &fakeAnswerer{model: "m", reply: "again"}
	engine, _ := newTestEngine(primary, nil)
	snap := engine.LoadDocument("algo.pdf", 1, testDoc)

	engine.Ask(context.Background(), snap.ID, "What is a greedy algorithm?", false)
	engine.Ask(context.Background(), snap.ID, "And the complexity?", false)

	last := primary.requests[len(primary.requests)-1].Context
	if !strings.Contains(last, "Previous Conversation Context:") {
		t.Error("expected prior conversation in second prompt")
	}
	if !strings.Contains(last, "Q: What is a greedy algorithm?") {
		t.Errorf("expected first question replayed, got %q", last)
	}
}

func TestAsk_RejectsUnknownDocument(t *testing.T) {
	engine, _ := newTestEngine(&fakeAnswerer{model: "m"}, nil)
	_, err := engine.Ask(context.Background(), "doc_nope_1", "hello?", false)
	if !errors.Is(err, ErrDocumentNotReady) {
		t.Errorf("expected ErrDocumentNotReady, got %v", err)
	}
}

func TestAsk_ProviderFailureDegradesToMessage(t *testing.T) {
	primary := &fakeAnswerer{model: "m", err: &answer.ProviderError{Provider: "claude", StatusCode: 429}}
	engine, store := newTestEngine(primary, nil)
	snap := engine.LoadDocument("algo.pdf", 1, testDoc)

	result, err := engine.Ask(context.Background(), snap.ID, "anything about greedy?", false)
	if err != nil {
		t.Fatalf("provider failure must not fail the ask: %v", err)
	}
	if !strings.Contains(result.Answer, "quota") {
		t.Errorf("expected quota message, got %q", result.Answer)
	}

	// The failed turn is still recorded with the substituted answer.
	thread := store.Thread(snap.ID)
	if len(thread.Messages) != 1 || thread.Messages[0].Answer != result.Answer {
		t.Error("expected substituted answer recorded in history")
	}
}

func TestAsk_BackupUsedOnlyWhenEnabled(t *testing.T) {
	primary := &fakeAnswerer{model: "p", err: errors.New("primary down")}
	backup := &fakeAnswerer{model: "b", reply: "backup answer"}
	engine, _ := newTestEngine(primary, backup)
	snap := engine.LoadDocument("algo.pdf", 1, testDoc)

	result, err := engine.Ask(context.Background(), snap.ID, "greedy question", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(backup.requests) != 0 {
		t.Error("backup must not be consulted without opt-in")
	}
	if result.Answer == "backup answer" {
		t.Error("answer should be a degradation message, not the backup's")
	}

	result, err = engine.Ask(context.Background(), snap.ID, "greedy question", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Answer != "backup answer" {
		t.Errorf("expected backup answer, got %q", result.Answer)
	}
}

func TestReprocess_RoundTrips(t *testing.T) {
	engine, _ := newTestEngine(&fakeAnswerer{model: "m", reply: "ok"}, nil)
	snap := engine.LoadDocument("algo.pdf", 1, testDoc)

	again, err := engine.Reprocess(snap.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Status != StatusReady {
		t.Errorf("expected ready after reprocess, got %q", again.Status)
	}
	if again.Processed.CleanedText != snap.Processed.CleanedText {
		t.Error("reprocessing identical input changed the result")
	}
}

func TestReprocess_UnknownDocument(t *testing.T) {
	engine, _ := newTestEngine(&fakeAnswerer{model: "m"}, nil)
	if _, err := engine.Reprocess("doc_nope_1"); !errors.Is(err, ErrDocumentNotReady) {
		t.Errorf("expected ErrDocumentNotReady, got %v", err)
	}
}
