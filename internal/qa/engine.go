// Package qa orchestrates question answering over processed documents: it
// loads and processes uploads, assembles retrieval and conversation context
// per question, classifies the question, dispatches to the answering
// provider and records the turn in conversation history.
package qa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docquery/internal/answer"
	"github.com/dgallion1/docquery/internal/docproc"
	"github.com/dgallion1/docquery/internal/history"
	"github.com/dgallion1/docquery/internal/search"
)

// ErrDocumentNotReady is returned when a question arrives for a document
// that is unknown, still processing, or failed to process. Asking before
// the document is ready is a caller precondition violation.
var ErrDocumentNotReady = errors.New("document not ready")

// Options bounds context assembly per question.
type Options struct {
	MaxContextChars int           // byte budget for relevant-section context
	HistoryDepth    int           // recent messages included per question
	DocTTL          time.Duration // idle eviction for loaded documents
}

func DefaultOptions() Options {
	return Options{
		MaxContextChars: 5000,
		HistoryDepth:    3,
		DocTTL:          time.Hour,
	}
}

// Engine ties document processing, retrieval, history and the answering
// providers together.
type Engine struct {
	registry *Registry
	store    *history.Store
	primary  answer.Answerer
	backup   answer.Answerer
	log      *slog.Logger
	opts     Options
}

// NewEngine builds an engine. backup may be nil; it is only consulted when
// a question opts in to AI backup and the primary provider fails.
func NewEngine(store *history.Store, primary, backup answer.Answerer, log *slog.Logger, opts Options) *Engine {
	if opts.MaxContextChars <= 0 {
		opts.MaxContextChars = 5000
	}
	if opts.HistoryDepth <= 0 {
		opts.HistoryDepth = 3
	}
	return &Engine{
		registry: NewRegistry(opts.DocTTL),
		store:    store,
		primary:  primary,
		backup:   backup,
		log:      log,
		opts:     opts,
	}
}

// LoadDocument runs the document pipeline over freshly extracted text and
// registers the result under the (name, modTime) derived identity. A thread
// is created for the document if none exists yet.
func (e *Engine) LoadDocument(name string, modTime int64, rawText string) DocumentSnapshot {
	docID := DocumentID(name, modTime)

	doc := &Document{
		ID:        docID,
		Name:      name,
		Status:    StatusProcessing,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		rawText:   rawText,
	}
	e.registry.Put(doc)

	e.process(doc)
	e.store.CreateThread(name, docID)

	return doc.Snapshot()
}

// Reprocess re-runs the pipeline over the stored raw text. Safe to call
// while a previous question's provider call is still in flight: answers are
// recorded against the immutable documentId captured at ask time.
func (e *Engine) Reprocess(docID string) (DocumentSnapshot, error) {
	doc := e.registry.Get(docID)
	if doc == nil {
		return DocumentSnapshot{}, fmt.Errorf("%w: %s", ErrDocumentNotReady, docID)
	}
	doc.setProcessing()
	e.process(doc)
	return doc.Snapshot(), nil
}

// Document returns a snapshot of a loaded document, or nil if unknown.
func (e *Engine) Document(docID string) *DocumentSnapshot {
	doc := e.registry.Get(docID)
	if doc == nil {
		return nil
	}
	snap := doc.Snapshot()
	return &snap
}

// process runs the pure pipeline, converting a panic from pathological
// input into the document's error state rather than a crash.
func (e *Engine) process(doc *Document) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("document processing panicked", "doc_id", doc.ID, "panic", r)
			doc.setError(fmt.Sprintf("processing failed: %v", r))
		}
	}()
	doc.setReady(docproc.Process(doc.RawText()))
}

// AskResult is one answered turn.
type AskResult struct {
	Answer       string               `json:"answer"`
	QuestionType history.QuestionType `json:"question_type"`
	ContextChars int                  `json:"context_chars"`
}

// Ask answers a question against a ready document. Provider failures never
// propagate: the user always receives answer text, with failures mapped to
// explanatory messages. Recording the turn in history is best-effort.
func (e *Engine) Ask(ctx context.Context, docID, question string, useAIBackup bool) (AskResult, error) {
	doc := e.registry.Get(docID)
	if doc == nil {
		return AskResult{}, fmt.Errorf("%w: %s", ErrDocumentNotReady, docID)
	}
	snap := doc.Snapshot()
	if snap.Status != StatusReady || snap.Processed == nil {
		return AskResult{}, fmt.Errorf("%w: %s is %s", ErrDocumentNotReady, docID, snap.Status)
	}
	processed := snap.Processed

	conversationContext := e.store.Context(docID, e.opts.HistoryDepth)
	sectionContext := search.BuildContext(processed.Sections, question, e.opts.MaxContextChars)
	questionType := DetectQuestionType(question)
	questionKeywords := docproc.Keywords(question, docproc.DefaultKeywordLimit)

	promptContext := buildPromptContext(processed, sectionContext, conversationContext, question)

	answerText := e.dispatch(ctx, answer.Request{
		Question:     question,
		Context:      promptContext,
		QuestionType: questionType,
	}, useAIBackup)

	if _, err := e.store.AddMessage(docID, question, answerText, questionType, useAIBackup, questionKeywords); err != nil {
		// History recording must never fail the user-visible answer.
		e.log.Warn("turn not recorded", "doc_id", docID, "error", err)
	}

	return AskResult{
		Answer:       answerText,
		QuestionType: questionType,
		ContextChars: len(promptContext),
	}, nil
}

// dispatch calls the primary provider, falling back to the backup when
// enabled, and maps any remaining failure to a user-facing answer.
func (e *Engine) dispatch(ctx context.Context, req answer.Request, useAIBackup bool) string {
	text, err := e.primary.Answer(ctx, req)
	if err == nil {
		return text
	}
	e.log.Warn("primary provider failed", "model", e.primary.Model(), "error", err)

	if useAIBackup && e.backup != nil {
		text, backupErr := e.backup.Answer(ctx, req)
		if backupErr == nil {
			return text
		}
		e.log.Warn("backup provider failed", "model", e.backup.Model(), "error", backupErr)
		err = backupErr
	}

	return answer.UserMessage(answer.Classify(err))
}

// SearchHistory searches recorded messages, optionally scoped to one
// document.
func (e *Engine) SearchHistory(query, docID string) []history.Message {
	return e.store.Search(query, docID)
}

// History returns the conversation thread for a document, or nil.
func (e *Engine) History(docID string) *history.Thread {
	return e.store.Thread(docID)
}

// ExportHistory serializes all conversation threads.
func (e *Engine) ExportHistory() string {
	return e.store.Export()
}

// ImportHistory replaces stored threads with a previously exported payload.
// Returns false if the payload does not parse.
func (e *Engine) ImportHistory(serialized string) bool {
	return e.store.Import(serialized)
}

// StartCleanup launches periodic registry eviction until ctx is done.
func (e *Engine) StartCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.registry.Cleanup()
			}
		}
	}()
}
