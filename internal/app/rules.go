package app

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"tendercomply/pkg/domain"
)

// RulePolicy derives compliance requirements from extracted content. The
// pipeline treats derivation as a swappable policy; a trained classifier
// drops in behind this interface without touching ingestion.
type RulePolicy interface {
	Derive(tenderID string, res ExtractionResult) []domain.ComplianceRequirement
}

var gradePattern = regexp.MustCompile(`(?i)\b(?:class|grade|category)\s+([A-E])\b`)

// Document categories whose mention in a tender text makes the matching
// company document mandatory. Veto marks the ones whose absence
// disqualifies the bid outright.
var mandatoryDocumentSignals = []struct {
	phrase   string
	category string
	veto     bool
}{
	{"tax clearance", "tax_clearance", true},
	{"insurance certificate", "insurance_certificate", true},
	{"financial statement", "financial_statements", false},
	{"quality management", "quality_certificate", false},
	{"trade license", "trade_license", true},
}

// KeywordRulePolicy scans extracted text for structural signals: a minimum
// certification grade and mandatory-document mentions.
type KeywordRulePolicy struct{}

// Derive emits one requirement per detected signal.
func (KeywordRulePolicy) Derive(tenderID string, res ExtractionResult) []domain.ComplianceRequirement {
	now := time.Now().UTC()
	text := strings.ToLower(res.Text)
	var reqs []domain.ComplianceRequirement

	if m := gradePattern.FindStringSubmatch(res.Text); m != nil {
		grade := strings.ToUpper(m[1])
		reqs = append(reqs, domain.ComplianceRequirement{
			TenderID:    tenderID,
			Category:    domain.CategoryCertificationGrade,
			Target:      map[string]any{"min_grade": grade},
			Description: fmt.Sprintf("Minimum certification grade %s required", grade),
			Veto:        true,
			CreatedAt:   now,
		})
	}

	for _, signal := range mandatoryDocumentSignals {
		if !strings.Contains(text, signal.phrase) {
			continue
		}
		reqs = append(reqs, domain.ComplianceRequirement{
			TenderID:    tenderID,
			Category:    domain.CategoryMandatoryDocument,
			Target:      map[string]any{"document_category": signal.category},
			Description: fmt.Sprintf("Valid %s required", strings.ReplaceAll(signal.category, "_", " ")),
			Veto:        signal.veto,
			CreatedAt:   now,
		})
	}

	if strings.Contains(text, "company profile") || strings.Contains(text, "company registration") {
		reqs = append(reqs, domain.ComplianceRequirement{
			TenderID:    tenderID,
			Category:    domain.CategoryCompanyProfile,
			Description: "Complete company profile required",
			Veto:        false,
			CreatedAt:   now,
		})
	}
	return reqs
}

// StaticRulePolicy returns a fixed rule set for every tender. Used in tests
// and as a baseline when a deployment has no derivation model yet.
type StaticRulePolicy struct {
	Rules []domain.ComplianceRequirement
}

// DefaultStaticRules is the baseline set: one veto mandatory document and a
// minimum certification grade.
func DefaultStaticRules() []domain.ComplianceRequirement {
	now := time.Now().UTC()
	return []domain.ComplianceRequirement{
		{
			Category:    domain.CategoryMandatoryDocument,
			Target:      map[string]any{"document_category": "tax_clearance"},
			Description: "Valid tax clearance required",
			Veto:        true,
			CreatedAt:   now,
		},
		{
			Category:    domain.CategoryCertificationGrade,
			Target:      map[string]any{"min_grade": "C"},
			Description: "Minimum certification grade C required",
			Veto:        false,
			CreatedAt:   now,
		},
	}
}

// Derive stamps the configured rules with the tender ID.
func (p StaticRulePolicy) Derive(tenderID string, _ ExtractionResult) []domain.ComplianceRequirement {
	rules := p.Rules
	if rules == nil {
		rules = DefaultStaticRules()
	}
	out := make([]domain.ComplianceRequirement, len(rules))
	copy(out, rules)
	for i := range out {
		out[i].TenderID = tenderID
	}
	return out
}
