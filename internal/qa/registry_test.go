package qa

import (
	"testing"
	"time"
)

func TestRegistry_PutGet(t *testing.T) {
	r := NewRegistry(time.Hour)
	doc := &Document{ID: "doc_a_1", UpdatedAt: time.Now()}
	r.Put(doc)

	if got := r.Get("doc_a_1"); got != doc {
		t.Error("expected stored document back")
	}
	if got := r.Get("doc_missing"); got != nil {
		t.Error("expected nil for unknown id")
	}
}

func TestRegistry_CleanupEvictsIdleDocuments(t *testing.T) {
	r := NewRegistry(time.Minute)
	r.Put(&Document{ID: "stale", UpdatedAt: time.Now().Add(-2 * time.Minute)})
	r.Put(&Document{ID: "fresh", UpdatedAt: time.Now()})

	r.Cleanup()

	if r.Get("stale") != nil {
		t.Error("expected stale document evicted")
	}
	if r.Get("fresh") == nil {
		t.Error("fresh document must survive cleanup")
	}
}

func TestDocumentID_Derivation(t *testing.T) {
	if got := DocumentID("notes.pdf", 1700000000); got != "doc_notes.pdf_1700000000" {
		t.Errorf("unexpected id %q", got)
	}
}
