package qa

import (
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/docquery/internal/docproc"
)

// DocStatus is the lifecycle state of a loaded document.
type DocStatus string

const (
	StatusProcessing DocStatus = "processing"
	StatusReady      DocStatus = "ready"
	StatusError      DocStatus = "error"
)

// Document is one loaded document and its processed form. Mutations go
// through the mutex; readers take Snapshot copies.
type Document struct {
	mu sync.Mutex

	ID        string
	Name      string
	Status    DocStatus
	Err       string
	Processed *docproc.ProcessedDocument
	CreatedAt time.Time
	UpdatedAt time.Time

	rawText string
}

// DocumentID derives the stable identity for an uploaded document from its
// name and modification time.
func DocumentID(name string, modTime int64) string {
	return fmt.Sprintf("doc_%s_%d", name, modTime)
}

func (d *Document) setReady(processed *docproc.ProcessedDocument) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Processed = processed
	d.Status = StatusReady
	d.Err = ""
	d.UpdatedAt = time.Now()
}

func (d *Document) setError(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Status = StatusError
	d.Err = msg
	d.UpdatedAt = time.Now()
}

func (d *Document) setProcessing() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Status = StatusProcessing
	d.UpdatedAt = time.Now()
}

// RawText returns the original extracted text, kept for reprocessing.
func (d *Document) RawText() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rawText
}

// DocumentSnapshot is a read-only copy of document state.
type DocumentSnapshot struct {
	ID        string                     `json:"doc_id"`
	Name      string                     `json:"name"`
	Status    DocStatus                  `json:"status"`
	Err       string                     `json:"error,omitempty"`
	Processed *docproc.ProcessedDocument `json:"processed,omitempty"`
	CreatedAt time.Time                  `json:"created_at"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// Snapshot copies the document state. The processed form is immutable once
// built, so sharing the pointer is safe.
func (d *Document) Snapshot() DocumentSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DocumentSnapshot{
		ID:        d.ID,
		Name:      d.Name,
		Status:    d.Status,
		Err:       d.Err,
		Processed: d.Processed,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// Registry is a thread-safe in-memory collection of loaded documents with
// TTL eviction.
type Registry struct {
	mu   sync.Mutex
	docs map[string]*Document
	ttl  time.Duration
}

func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Registry{
		docs: make(map[string]*Document),
		ttl:  ttl,
	}
}

func (r *Registry) Put(doc *Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = doc
}

func (r *Registry) Get(id string) *Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.docs[id]
}

// Cleanup removes documents idle beyond the TTL.
func (r *Registry) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for id, doc := range r.docs {
		doc.mu.Lock()
		idle := now.Sub(doc.UpdatedAt)
		doc.mu.Unlock()
		if idle > r.ttl {
			delete(r.docs, id)
		}
	}
}
