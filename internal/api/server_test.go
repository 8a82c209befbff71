package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/docquery/internal/answer"
	"github.com/dgallion1/docquery/internal/config"
	"github.com/dgallion1/docquery/internal/history"
	"github.com/dgallion1/docquery/internal/qa"
)

const testAPIKey = "test-key-123"

type fakeAnswerer struct {
	reply string
	err   error
}

func (f *fakeAnswerer) Answer(ctx context.Context, req answer.Request) (string, error) {
	return f.reply, f.err
}

func (f *fakeAnswerer) Model() string { return "fake-model" }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := history.NewStore(history.NewMemoryBackend(), log)
	primary := &fakeAnswerer{reply: "The answer is 42."}
	engine := qa.NewEngine(store, primary, nil, log, qa.DefaultOptions())
	stats := answer.NewCallStats(0)

	cfg := config.Config{
		DocqueryAPIKey: testAPIKey,
		MaxUploadBytes: 1 << 20,
	}
	return NewServer(engine, primary, nil, stats, nil, log, cfg)
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	return req
}

func uploadDocument(t *testing.T, srv *Server, filename, content string) string {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.WriteField("mod_time", "1700000000000"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	mw.Close()

	req := authed(httptest.NewRequest("POST", "/api/documents", &buf))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var snap struct {
		DocID  string `json:"doc_id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if snap.Status != "ready" {
		t.Fatalf("uploaded document status = %q, want ready", snap.Status)
	}
	return snap.DocID
}

func TestHealthIsPublic(t *testing.T) {
	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("GET", "/api/documents/doc_x_1", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing auth status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest("GET", "/api/documents/doc_x_1", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong key status = %d, want 401", rec.Code)
	}
}

func TestUploadAndGetDocument(t *testing.T) {
	srv := newTestServer(t)
	docID := uploadDocument(t, srv, "notes.txt", "INTRODUCTION\nSome content about sorting algorithms.")

	if !strings.HasPrefix(docID, "doc_notes.txt_") {
		t.Errorf("doc id = %q", docID)
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest("GET", "/api/documents/"+docID, nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var snap struct {
		Name   string `json:"name"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Name != "notes.txt" || snap.Status != "ready" {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	srv := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "image.png")
	fw.Write([]byte{0x89, 0x50, 0x4e, 0x47})
	mw.Close()

	req := authed(httptest.NewRequest("POST", "/api/documents", &buf))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAskQuestion(t *testing.T) {
	srv := newTestServer(t)
	docID := uploadDocument(t, srv, "algo.txt", "GREEDY ALGORITHMS\nA greedy algorithm makes the locally optimal choice at each step of the process.")

	body := strings.NewReader(`{"question":"How does the greedy algorithm work?"}`)
	req := authed(httptest.NewRequest("POST", "/api/documents/"+docID+"/questions", body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("ask status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var result struct {
		Answer       string `json:"answer"`
		QuestionType string `json:"question_type"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Answer != "The answer is 42." {
		t.Errorf("answer = %q", result.Answer)
	}
	if result.QuestionType != "algorithm" {
		t.Errorf("question type = %q, want algorithm", result.QuestionType)
	}
}

func TestAskUnknownDocumentConflicts(t *testing.T) {
	srv := newTestServer(t)
	body := strings.NewReader(`{"question":"Anything?"}`)
	req := authed(httptest.NewRequest("POST", "/api/documents/doc_missing_0/questions", body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestAskRequiresQuestion(t *testing.T) {
	srv := newTestServer(t)
	docID := uploadDocument(t, srv, "doc.txt", "Some text content here.")

	body := strings.NewReader(`{"question":"   "}`)
	req := authed(httptest.NewRequest("POST", "/api/documents/"+docID+"/questions", body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHistoryEndpoints(t *testing.T) {
	srv := newTestServer(t)
	docID := uploadDocument(t, srv, "doc.txt", "Content about data visualization and related chart techniques.")

	body := strings.NewReader(`{"question":"What chart should I use?"}`)
	req := authed(httptest.NewRequest("POST", "/api/documents/"+docID+"/questions", body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("ask status = %d", rec.Code)
	}

	// Thread history.
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest("GET", "/api/documents/"+docID+"/history", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}
	var thread history.Thread
	if err := json.Unmarshal(rec.Body.Bytes(), &thread); err != nil {
		t.Fatalf("decode thread: %v", err)
	}
	if len(thread.Messages) != 1 || thread.Messages[0].Question != "What chart should I use?" {
		t.Errorf("thread messages = %+v", thread.Messages)
	}

	// Search.
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest("GET", "/api/history/search?q=chart", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("search status = %d", rec.Code)
	}
	var search struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &search); err != nil {
		t.Fatalf("decode search: %v", err)
	}
	if search.Count != 1 {
		t.Errorf("search count = %d, want 1", search.Count)
	}

	// Export then import round trip.
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest("GET", "/api/history/export", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	exported := rec.Body.String()

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest("POST", "/api/history/import", strings.NewReader(exported))))
	if rec.Code != http.StatusOK {
		t.Errorf("import status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest("POST", "/api/history/import", strings.NewReader("not json"))))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad import status = %d, want 400", rec.Code)
	}
}

func TestLLMStats(t *testing.T) {
	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest("GET", "/api/stats/llm", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}
	var resp struct {
		Model string `json:"model"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Model != "fake-model" {
		t.Errorf("model = %q", resp.Model)
	}
}

func TestLLMStatsPerProvider(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := history.NewStore(history.NewMemoryBackend(), log)
	primary := &fakeAnswerer{reply: "primary answer"}
	backup := &fakeAnswerer{reply: "backup answer"}
	engine := qa.NewEngine(store, primary, backup, log, qa.DefaultOptions())

	primaryStats := answer.NewCallStats(0)
	backupStats := answer.NewCallStats(0)
	// Only the backup provider has recorded a call.
	backupStats.Record(80*time.Millisecond, false)

	cfg := config.Config{DocqueryAPIKey: testAPIKey, MaxUploadBytes: 1 << 20}
	srv := NewServer(engine, primary, backup, primaryStats, backupStats, log, cfg)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest("GET", "/api/stats/llm", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}

	var resp struct {
		Model       string          `json:"model"`
		Stats       answer.Snapshot `json:"stats"`
		BackupModel string          `json:"backup_model"`
		BackupStats answer.Snapshot `json:"backup_stats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Stats.Count != 0 {
		t.Errorf("backup call attributed to primary: %+v", resp.Stats)
	}
	if resp.BackupStats.Count != 1 {
		t.Errorf("backup stats count = %d, want 1", resp.BackupStats.Count)
	}
	if resp.BackupModel != "fake-model" {
		t.Errorf("backup model = %q", resp.BackupModel)
	}
}
