// Package history keeps per-document question/answer threads for reuse as
// prompt context. Threads live in a single serialized collection behind a
// pluggable key-value Backend; callers always receive copies, never shared
// references into the store's state.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// QuestionType is the topical classification recorded with each message.
type QuestionType string

const (
	QuestionGeneral       QuestionType = "general"
	QuestionAlgorithm     QuestionType = "algorithm"
	QuestionVisualization QuestionType = "visualization"
)

// Message is one recorded question/answer turn.
type Message struct {
	ID           string       `json:"id"`
	Question     string       `json:"question"`
	Answer       string       `json:"answer"`
	Timestamp    time.Time    `json:"timestamp"`
	DocumentID   string       `json:"documentId"`
	QuestionType QuestionType `json:"questionType"`
	UseAIBackup  bool         `json:"useAiBackup"`
	Keywords     []string     `json:"keywords"`
}

// Thread is the full conversation for one document instance. Messages are
// held newest-first.
type Thread struct {
	ID           string    `json:"id"`
	DocumentName string    `json:"documentName"`
	DocumentID   string    `json:"documentId"`
	Messages     []Message `json:"messages"`
	CreatedAt    time.Time `json:"createdAt"`
	LastUpdated  time.Time `json:"lastUpdated"`
}

const (
	storageKey        = "conversations"
	maxThreads        = 50
	maxThreadMessages = 100
	answerPreviewLen  = 200
)

// ErrThreadNotFound is returned by AddMessage when no thread exists for the
// document. Callers must create the thread first; hitting this is a caller
// bug, not a runtime fault.
var ErrThreadNotFound = errors.New("thread not found for document")

// Store owns the persisted thread collection. All operations serialize the
// whole collection through the backend, so a single Store instance must be
// the only writer.
type Store struct {
	mu      sync.Mutex
	backend Backend
	log     *slog.Logger
}

func NewStore(backend Backend, log *slog.Logger) *Store {
	return &Store{backend: backend, log: log}
}

// Threads returns a copy of every persisted thread. Absent or corrupt
// storage degrades to an empty collection; it is logged, never surfaced.
func (s *Store) Threads() []Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyThreads(s.loadLocked())
}

// Thread returns a copy of the thread for documentID, or nil.
func (s *Store) Thread(documentID string) *Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.loadLocked() {
		if t.DocumentID == documentID {
			c := copyThread(t)
			return &c
		}
	}
	return nil
}

// CreateThread makes a thread for the document, or returns the existing one:
// there is at most one thread per documentID. A failed persist still yields
// a usable in-memory thread for the current turn.
func (s *Store) CreateThread(documentName, documentID string) Thread {
	s.mu.Lock()
	defer s.mu.Unlock()

	threads := s.loadLocked()
	for _, t := range threads {
		if t.DocumentID == documentID {
			return copyThread(t)
		}
	}

	now := time.Now().UTC()
	thread := Thread{
		ID:           "thread_" + newULID(),
		DocumentName: documentName,
		DocumentID:   documentID,
		Messages:     []Message{},
		CreatedAt:    now,
		LastUpdated:  now,
	}

	threads = append([]Thread{thread}, threads...)
	if err := s.saveLocked(threads); err != nil {
		s.log.Warn("thread not persisted", "document_id", documentID, "error", err)
	}
	return copyThread(thread)
}

// AddMessage prepends a new message to the document's thread. The thread
// must already exist. Persist failures are best-effort: logged, and the
// message is still returned for the current turn.
func (s *Store) AddMessage(documentID, question, answer string, questionType QuestionType, useAIBackup bool, keywords []string) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	threads := s.loadLocked()
	idx := -1
	for i, t := range threads {
		if t.DocumentID == documentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Message{}, fmt.Errorf("%w: %s", ErrThreadNotFound, documentID)
	}

	msg := Message{
		ID:           "msg_" + newULID(),
		Question:     question,
		Answer:       answer,
		Timestamp:    time.Now().UTC(),
		DocumentID:   documentID,
		QuestionType: questionType,
		UseAIBackup:  useAIBackup,
		Keywords:     append([]string(nil), keywords...),
	}

	t := &threads[idx]
	t.Messages = append([]Message{msg}, t.Messages...)
	if len(t.Messages) > maxThreadMessages {
		t.Messages = t.Messages[:maxThreadMessages]
	}
	t.LastUpdated = time.Now().UTC()

	if err := s.saveLocked(threads); err != nil {
		s.log.Warn("message not persisted", "document_id", documentID, "error", err)
	}
	return msg, nil
}

// Context formats the limit most recent messages of a document's thread as
// Q/A blocks in chronological order, answers truncated for prompt budget.
// No thread or no messages yields an empty string.
func (s *Store) Context(documentID string, limit int) string {
	if limit <= 0 {
		limit = 3
	}

	thread := s.Thread(documentID)
	if thread == nil || len(thread.Messages) == 0 {
		return ""
	}

	recent := thread.Messages
	if len(recent) > limit {
		recent = recent[:limit]
	}

	blocks := make([]string, 0, len(recent))
	// Messages are newest-first; walk backwards for chronological order.
	for i := len(recent) - 1; i >= 0; i-- {
		m := recent[i]
		answer := m.Answer
		if len(answer) > answerPreviewLen {
			// Back up to a rune boundary so the preview never splits a
			// multi-byte character.
			cut := answerPreviewLen
			for cut > 0 && !utf8.RuneStart(answer[cut]) {
				cut--
			}
			answer = answer[:cut]
		}
		blocks = append(blocks, fmt.Sprintf("Q: %s\nA: %s...", m.Question, answer))
	}
	return strings.Join(blocks, "\n\n")
}

// Search returns every message whose question, answer or tagged keyword
// contains the query, case-insensitively. An empty documentID searches all
// threads.
func (s *Store) Search(query, documentID string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(query)
	var matches []Message
	for _, t := range s.loadLocked() {
		if documentID != "" && t.DocumentID != documentID {
			continue
		}
		for _, m := range t.Messages {
			if messageMatches(m, q) {
				matches = append(matches, copyMessage(m))
			}
		}
	}
	return matches
}

// Export serializes the full thread collection for backup.
func (s *Store) Export() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(s.loadLocked(), "", "  ")
	if err != nil {
		s.log.Error("export failed", "error", err)
		return "[]"
	}
	return string(data)
}

// Import replaces the stored collection with the serialized threads.
// Returns false on parse or persist failure, leaving existing history
// untouched.
func (s *Store) Import(serialized string) bool {
	var threads []Thread
	if err := json.Unmarshal([]byte(serialized), &threads); err != nil {
		s.log.Warn("import rejected", "error", err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saveLocked(threads); err != nil {
		s.log.Error("import persist failed", "error", err)
		return false
	}
	return true
}

func (s *Store) loadLocked() []Thread {
	raw, ok, err := s.backend.Get(storageKey)
	if err != nil {
		s.log.Error("history load failed", "error", err)
		return nil
	}
	if !ok || raw == "" {
		return nil
	}

	var threads []Thread
	if err := json.Unmarshal([]byte(raw), &threads); err != nil {
		s.log.Error("corrupt history ignored", "error", err)
		return nil
	}
	return threads
}

// saveLocked persists the collection, evicting the least-recently-updated
// threads beyond the cap.
func (s *Store) saveLocked(threads []Thread) error {
	if len(threads) > maxThreads {
		sort.SliceStable(threads, func(i, j int) bool {
			return threads[i].LastUpdated.After(threads[j].LastUpdated)
		})
		threads = threads[:maxThreads]
	}

	data, err := json.Marshal(threads)
	if err != nil {
		return fmt.Errorf("marshal threads: %w", err)
	}
	return s.backend.Set(storageKey, string(data))
}

func messageMatches(m Message, lowered string) bool {
	if strings.Contains(strings.ToLower(m.Question), lowered) {
		return true
	}
	if strings.Contains(strings.ToLower(m.Answer), lowered) {
		return true
	}
	for _, k := range m.Keywords {
		if strings.Contains(strings.ToLower(k), lowered) {
			return true
		}
	}
	return false
}

func copyThreads(threads []Thread) []Thread {
	out := make([]Thread, len(threads))
	for i, t := range threads {
		out[i] = copyThread(t)
	}
	return out
}

func copyThread(t Thread) Thread {
	c := t
	c.Messages = make([]Message, len(t.Messages))
	for i, m := range t.Messages {
		c.Messages[i] = copyMessage(m)
	}
	return c
}

func copyMessage(m Message) Message {
	c := m
	c.Keywords = append([]string(nil), m.Keywords...)
	return c
}
