package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"tendercomply/pkg/domain"
	"tendercomply/pkg/store"
)

type mapObjects map[string][]byte

func (m mapObjects) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := m[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return data, nil
}

// failingStore injects failures into selected store operations.
type failingStore struct {
	store.Store
	failUpsert  bool
	failReplace bool
	failAudit   bool
	failAlert   bool
}

func (f *failingStore) UpsertTenderDocument(doc domain.TenderDocument) error {
	if f.failUpsert {
		return errors.New("tender_documents unavailable")
	}
	return f.Store.UpsertTenderDocument(doc)
}

func (f *failingStore) ReplaceRequirements(tenderID string, reqs []domain.ComplianceRequirement) error {
	if f.failReplace {
		return errors.New("compliance_requirements unavailable")
	}
	return f.Store.ReplaceRequirements(tenderID, reqs)
}

func (f *failingStore) AppendAuditLog(entry domain.AuditLogEntry) (domain.AuditLogEntry, error) {
	if f.failAudit {
		return domain.AuditLogEntry{}, errors.New("audit_logs unavailable")
	}
	return f.Store.AppendAuditLog(entry)
}

func (f *failingStore) InsertAlert(alert domain.Alert) (domain.Alert, error) {
	if f.failAlert {
		return domain.Alert{}, errors.New("alerts unavailable")
	}
	return f.Store.InsertAlert(alert)
}

func newTestApp(t *testing.T, cfg Config) *App {
	t.Helper()
	if cfg.Store == nil {
		cfg.Store = store.NewMemoryStore()
	}
	if cfg.Extractor == nil {
		cfg.Extractor = StubExtractor{Result: ExtractionResult{Text: tenderText}}
	}
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return a
}

const tenderText = "Bidders must hold certification Grade B and submit a valid tax clearance certificate."

func TestIngestEndToEnd(t *testing.T) {
	mem := store.NewMemoryStore()
	a := newTestApp(t, Config{
		Store:   mem,
		Objects: mapObjects{"docs/spec.pdf": []byte(tenderText)},
		Extractor: StubExtractor{
			Result: ExtractionResult{Text: tenderText, Metadata: map[string]string{"format": "stub"}},
		},
	})
	result, err := a.Ingest(context.Background(), IngestRequest{
		TenderID: "T1",
		FilePath: "docs/spec.pdf",
		FileName: "spec.pdf",
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if !result.RulesExtracted {
		t.Fatalf("expected rules extracted")
	}

	docs, _ := mem.ListTenderDocuments("T1")
	if len(docs) != 1 {
		t.Fatalf("expected one document, got %d", len(docs))
	}
	if docs[0].ExtractedText == "" {
		t.Fatalf("expected extracted text persisted")
	}

	reqs, _ := mem.ListRequirements("T1")
	if len(reqs) == 0 {
		t.Fatalf("expected derived requirements")
	}
	hasVeto := false
	for _, req := range reqs {
		if req.Veto {
			hasVeto = true
		}
	}
	if !hasVeto {
		t.Fatalf("expected at least one veto requirement, got %+v", reqs)
	}

	logs, _ := mem.ListAuditLogs(10)
	if len(logs) != 1 || logs[0].Action != ActionIngestComplete {
		t.Fatalf("expected one %s audit entry, got %+v", ActionIngestComplete, logs)
	}
	if logs[0].Severity != domain.SeverityInfo {
		t.Fatalf("ingest audit should be INFO, got %s", logs[0].Severity)
	}
}

func TestIngestIdempotentUpsert(t *testing.T) {
	mem := store.NewMemoryStore()
	a := newTestApp(t, Config{
		Store:   mem,
		Objects: mapObjects{"docs/spec.pdf": []byte(tenderText)},
	})
	for i := 0; i < 3; i++ {
		if _, err := a.Ingest(context.Background(), IngestRequest{
			TenderID: "T1",
			FilePath: "docs/spec.pdf",
			FileName: fmt.Sprintf("spec-v%d.pdf", i),
		}); err != nil {
			t.Fatalf("ingest %d: %v", i, err)
		}
	}
	docs, _ := mem.ListTenderDocuments("T1")
	if len(docs) != 1 {
		t.Fatalf("re-ingestion must converge to one row, got %d", len(docs))
	}
	if docs[0].FileName != "spec-v2.pdf" {
		t.Fatalf("row should reflect the last write, got %q", docs[0].FileName)
	}
}

func TestIngestReExtractionClearsStaleRules(t *testing.T) {
	mem := store.NewMemoryStore()
	objects := mapObjects{"docs/spec.pdf": []byte(tenderText)}
	withSignals := newTestApp(t, Config{Store: mem, Objects: objects})
	if _, err := withSignals.Ingest(context.Background(), IngestRequest{TenderID: "T1", FilePath: "docs/spec.pdf"}); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	if reqs, _ := mem.ListRequirements("T1"); len(reqs) == 0 {
		t.Fatalf("expected derived requirements after first ingest")
	}

	// A revised document with no signals replaces the set with nothing.
	withoutSignals := newTestApp(t, Config{
		Store:     mem,
		Objects:   objects,
		Extractor: StubExtractor{Result: ExtractionResult{Text: "Lorem ipsum dolor sit amet."}},
	})
	result, err := withoutSignals.Ingest(context.Background(), IngestRequest{TenderID: "T1", FilePath: "docs/spec.pdf"})
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if result.RulesExtracted {
		t.Fatalf("no signals means rules flag stays false")
	}
	if reqs, _ := mem.ListRequirements("T1"); len(reqs) != 0 {
		t.Fatalf("stale rules must not survive re-extraction, got %+v", reqs)
	}
}

func TestIngestValidation(t *testing.T) {
	a := newTestApp(t, Config{Objects: mapObjects{}})
	cases := []IngestRequest{
		{TenderID: "", FilePath: "docs/spec.pdf"},
		{TenderID: "T1", FilePath: ""},
	}
	for _, req := range cases {
		_, err := a.Ingest(context.Background(), req)
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("expected validation error for %+v, got %v", req, err)
		}
	}
}

func TestIngestMissingObjectIsExtractionError(t *testing.T) {
	a := newTestApp(t, Config{Objects: mapObjects{}})
	_, err := a.Ingest(context.Background(), IngestRequest{TenderID: "T1", FilePath: "missing.pdf"})
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("expected extraction error, got %v", err)
	}
}

func TestIngestUpsertFailureIsFatal(t *testing.T) {
	failing := &failingStore{Store: store.NewMemoryStore(), failUpsert: true}
	a := newTestApp(t, Config{
		Store:   failing,
		Objects: mapObjects{"docs/spec.pdf": []byte(tenderText)},
	})
	_, err := a.Ingest(context.Background(), IngestRequest{TenderID: "T1", FilePath: "docs/spec.pdf"})
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("document upsert failure must fail the call, got %v", err)
	}
}

func TestIngestRuleFailureIsSwallowed(t *testing.T) {
	mem := store.NewMemoryStore()
	failing := &failingStore{Store: mem, failReplace: true}
	a := newTestApp(t, Config{
		Store:   failing,
		Objects: mapObjects{"docs/spec.pdf": []byte(tenderText)},
	})
	result, err := a.Ingest(context.Background(), IngestRequest{TenderID: "T1", FilePath: "docs/spec.pdf"})
	if err != nil {
		t.Fatalf("rule failure must not fail ingestion: %v", err)
	}
	if result.RulesExtracted {
		t.Fatalf("rules flag should be false after rule failure")
	}
	docs, _ := mem.ListTenderDocuments("T1")
	if len(docs) != 1 {
		t.Fatalf("document must still be persisted")
	}
}

func TestIngestAuditFailureIsSwallowed(t *testing.T) {
	mem := store.NewMemoryStore()
	failing := &failingStore{Store: mem, failAudit: true}
	a := newTestApp(t, Config{
		Store:   failing,
		Objects: mapObjects{"docs/spec.pdf": []byte(tenderText)},
	})
	if _, err := a.Ingest(context.Background(), IngestRequest{TenderID: "T1", FilePath: "docs/spec.pdf"}); err != nil {
		t.Fatalf("audit failure must not fail ingestion: %v", err)
	}
}

type slowExtractor struct{ delay time.Duration }

func (s slowExtractor) Extract(string, []byte) (ExtractionResult, error) {
	time.Sleep(s.delay)
	return ExtractionResult{Text: "late"}, nil
}

func TestIngestTimeout(t *testing.T) {
	a := newTestApp(t, Config{
		Objects:        mapObjects{"docs/spec.pdf": []byte(tenderText)},
		Extractor:      slowExtractor{delay: 200 * time.Millisecond},
		ExtractTimeout: 20 * time.Millisecond,
	})
	_, err := a.Ingest(context.Background(), IngestRequest{TenderID: "T1", FilePath: "docs/spec.pdf"})
	if !errors.Is(err, ErrExtractionTimeout) {
		t.Fatalf("expected extraction timeout, got %v", err)
	}
}

func TestIngestConcurrentSameFile(t *testing.T) {
	mem := store.NewMemoryStore()
	a := newTestApp(t, Config{
		Store:   mem,
		Objects: mapObjects{"docs/spec.pdf": []byte(tenderText)},
	})
	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := a.Ingest(context.Background(), IngestRequest{TenderID: "T1", FilePath: "docs/spec.pdf"})
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		if err := <-done; err != nil {
			t.Fatalf("concurrent ingest: %v", err)
		}
	}
	docs, _ := mem.ListTenderDocuments("T1")
	if len(docs) != 1 {
		t.Fatalf("concurrent re-ingestion must converge to one row, got %d", len(docs))
	}
}
