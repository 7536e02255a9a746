package app

import (
	"testing"

	"tendercomply/pkg/domain"
)

func deriveKeyword(t *testing.T, text string) []domain.ComplianceRequirement {
	t.Helper()
	return KeywordRulePolicy{}.Derive("T1", ExtractionResult{Text: text})
}

func TestKeywordPolicyDetectsCertificationGrade(t *testing.T) {
	reqs := deriveKeyword(t, "Contractors must hold certification Grade B or better.")
	var grade *domain.ComplianceRequirement
	for i := range reqs {
		if reqs[i].Category == domain.CategoryCertificationGrade {
			grade = &reqs[i]
		}
	}
	if grade == nil {
		t.Fatalf("expected a certification grade requirement, got %+v", reqs)
	}
	if grade.Target["min_grade"] != "B" {
		t.Fatalf("expected min grade B, got %v", grade.Target)
	}
	if !grade.Veto {
		t.Fatalf("certification grade is a veto rule")
	}
	if grade.TenderID != "T1" {
		t.Fatalf("requirement must carry the tender id")
	}
}

func TestKeywordPolicyDetectsMandatoryDocuments(t *testing.T) {
	reqs := deriveKeyword(t, "Submit a Tax Clearance certificate and audited financial statements.")
	found := map[string]bool{}
	for _, req := range reqs {
		if req.Category == domain.CategoryMandatoryDocument {
			category, _ := req.Target["document_category"].(string)
			found[category] = req.Veto
		}
	}
	veto, ok := found["tax_clearance"]
	if !ok || !veto {
		t.Fatalf("expected veto tax_clearance rule, got %v", found)
	}
	veto, ok = found["financial_statements"]
	if !ok || veto {
		t.Fatalf("expected non-veto financial_statements rule, got %v", found)
	}
}

func TestKeywordPolicyNoSignalsNoRules(t *testing.T) {
	if reqs := deriveKeyword(t, "Lorem ipsum dolor sit amet."); len(reqs) != 0 {
		t.Fatalf("expected no rules, got %+v", reqs)
	}
}

func TestStaticPolicyStampsTenderID(t *testing.T) {
	reqs := StaticRulePolicy{}.Derive("T9", ExtractionResult{})
	if len(reqs) == 0 {
		t.Fatalf("expected default static rules")
	}
	hasVeto := false
	for _, req := range reqs {
		if req.TenderID != "T9" {
			t.Fatalf("rule missing tender id: %+v", req)
		}
		if req.Veto {
			hasVeto = true
		}
	}
	if !hasVeto {
		t.Fatalf("default static set must include a veto rule")
	}
}
