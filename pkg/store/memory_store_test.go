package store

import (
	"testing"
	"time"

	"tendercomply/pkg/domain"
)

func TestMemoryStoreUpsertKeepsOneRowPerIdentity(t *testing.T) {
	m := NewMemoryStore()
	first := domain.TenderDocument{
		TenderID:    "T1",
		StoragePath: "docs/spec.pdf",
		FileName:    "spec.pdf",
		CreatedAt:   time.Now().UTC().Add(-time.Hour),
		UpdatedAt:   time.Now().UTC().Add(-time.Hour),
	}
	if err := m.UpsertTenderDocument(first); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	second := first
	second.FileName = "spec-final.pdf"
	second.ExtractedText = "content"
	second.UpdatedAt = time.Now().UTC()
	if err := m.UpsertTenderDocument(second); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	docs, err := m.ListTenderDocuments("T1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected one row, got %d", len(docs))
	}
	if docs[0].FileName != "spec-final.pdf" || docs[0].ExtractedText != "content" {
		t.Fatalf("row should reflect last write, got %+v", docs[0])
	}
	if !docs[0].CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("upsert must preserve original creation time")
	}
}

func TestMemoryStoreSeparateIdentitiesSeparateRows(t *testing.T) {
	m := NewMemoryStore()
	for _, path := range []string{"docs/a.pdf", "docs/b.pdf"} {
		if err := m.UpsertTenderDocument(domain.TenderDocument{TenderID: "T1", StoragePath: path}); err != nil {
			t.Fatalf("upsert %s: %v", path, err)
		}
	}
	docs, _ := m.ListTenderDocuments("T1")
	if len(docs) != 2 {
		t.Fatalf("expected two rows, got %d", len(docs))
	}
}

func TestMemoryStoreAuditAppendOrder(t *testing.T) {
	m := NewMemoryStore()
	for _, action := range []string{"A", "B", "C"} {
		if _, err := m.AppendAuditLog(domain.AuditLogEntry{Action: action, Severity: domain.SeverityInfo}); err != nil {
			t.Fatalf("append %s: %v", action, err)
		}
	}
	logs, err := m.ListAuditLogs(2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(logs) != 2 || logs[0].Action != "C" || logs[1].Action != "B" {
		t.Fatalf("expected newest first, got %+v", logs)
	}
}

func TestMemoryStoreTenderOwnerLookup(t *testing.T) {
	m := NewMemoryStore()
	if _, found, _ := m.GetTenderOwner("T1"); found {
		t.Fatalf("unknown tender should not resolve")
	}
	m.SeedTenderOwner("T1", "U1")
	owner, found, err := m.GetTenderOwner("T1")
	if err != nil || !found || owner != "U1" {
		t.Fatalf("expected U1, got %q found=%v err=%v", owner, found, err)
	}
}

func TestMemoryStoreReplaceRequirementsSwapsFullSet(t *testing.T) {
	m := NewMemoryStore()
	if err := m.ReplaceRequirements("T1", []domain.ComplianceRequirement{
		{TenderID: "T1", Category: "a"},
		{TenderID: "T1", Category: "b"},
	}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := m.ReplaceRequirements("T1", []domain.ComplianceRequirement{
		{TenderID: "T1", Category: "c"},
	}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	reqs, _ := m.ListRequirements("T1")
	if len(reqs) != 1 || reqs[0].Category != "c" {
		t.Fatalf("replace must never partially patch, got %+v", reqs)
	}
}
