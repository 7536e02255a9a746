package app

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"tendercomply/pkg/domain"
)

// ScoringPolicy carries the business constants of readiness scoring. The
// thresholds come from configuration, not code, so tuning them is not a
// deploy of new logic.
type ScoringPolicy struct {
	GreenThreshold int
	AmberThreshold int
	ExpiryWarning  time.Duration
}

// DefaultScoringPolicy: GREEN at 80, AMBER at 50, 60-day expiry warning.
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		GreenThreshold: 80,
		AmberThreshold: 50,
		ExpiryWarning:  60 * 24 * time.Hour,
	}
}

func (p ScoringPolicy) withDefaults() ScoringPolicy {
	def := DefaultScoringPolicy()
	if p.GreenThreshold <= 0 {
		p.GreenThreshold = def.GreenThreshold
	}
	if p.AmberThreshold <= 0 {
		p.AmberThreshold = def.AmberThreshold
	}
	if p.ExpiryWarning <= 0 {
		p.ExpiryWarning = def.ExpiryWarning
	}
	return p
}

func (p ScoringPolicy) tierForScore(score int) domain.Tier {
	switch {
	case score >= p.GreenThreshold:
		return domain.TierGreen
	case score >= p.AmberThreshold:
		return domain.TierAmber
	default:
		return domain.TierRed
	}
}

// ScoreInput is everything the scorer reads. It is assembled from the store
// by Readiness; tests construct it directly.
type ScoreInput struct {
	TenderID     string
	CompanyID    string
	Requirements []domain.ComplianceRequirement
	Documents    []domain.ComplianceDocument
	Profile      domain.CompanyProfile
	Now          time.Time
}

// Score evaluates a company against a tender's rule set. Pure: identical
// input yields identical output, and nothing is written anywhere.
func Score(policy ScoringPolicy, in ScoreInput) domain.ReadinessResult {
	policy = policy.withDefaults()
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	result := domain.ReadinessResult{
		TenderID:  in.TenderID,
		CompanyID: in.CompanyID,
	}

	valid, expiring := effectiveDocuments(in.Documents, now, policy.ExpiryWarning)
	result.ExpiringSoon = expiring

	total := 0
	met := 0
	for _, req := range in.Requirements {
		satisfied := requirementSatisfied(req, valid, in.Profile)
		if req.Veto {
			if !satisfied {
				result.VetoFailed = true
				result.Unmet = append(result.Unmet, unmetLabel(req))
			}
			continue
		}
		total++
		if satisfied {
			met++
		} else {
			result.Unmet = append(result.Unmet, unmetLabel(req))
		}
	}

	if total == 0 {
		// Nothing required means fully ready, unless a veto already failed.
		result.Score = 100
		if result.VetoFailed {
			result.Score = 0
		}
	} else {
		result.Score = int(math.Round(100 * float64(met) / float64(total)))
	}

	result.Tier = policy.tierForScore(result.Score)
	if result.VetoFailed {
		result.Tier = domain.TierRed
	}
	return result
}

// effectiveDocuments recomputes document status from expiry dates at read
// time. The stored status field is never trusted: document age changes
// continuously, so only "now" decides. An explicit override wins.
func effectiveDocuments(docs []domain.ComplianceDocument, now time.Time, warning time.Duration) (valid map[string][]domain.ComplianceDocument, expiring []string) {
	valid = make(map[string][]domain.ComplianceDocument)
	expiringSet := make(map[string]bool)
	for _, doc := range docs {
		status := EffectiveStatus(doc, now, warning)
		if status == domain.DocumentExpired {
			continue
		}
		// Expiring documents still satisfy their category; the warning is
		// a separate signal for downstream alerting.
		valid[doc.Category] = append(valid[doc.Category], doc)
		if status == domain.DocumentExpiring {
			expiringSet[doc.Category] = true
		}
	}
	for category := range expiringSet {
		expiring = append(expiring, category)
	}
	sort.Strings(expiring)
	return valid, expiring
}

// EffectiveStatus derives a document's status from its expiry date relative
// to now, unless an explicit override is set.
func EffectiveStatus(doc domain.ComplianceDocument, now time.Time, warning time.Duration) domain.DocumentStatus {
	if doc.OverrideStatus != "" {
		return doc.OverrideStatus
	}
	if doc.ExpiresAt == nil {
		return domain.DocumentValid
	}
	switch {
	case !doc.ExpiresAt.After(now):
		return domain.DocumentExpired
	case doc.ExpiresAt.Sub(now) <= warning:
		return domain.DocumentExpiring
	default:
		return domain.DocumentValid
	}
}

func requirementSatisfied(req domain.ComplianceRequirement, valid map[string][]domain.ComplianceDocument, profile domain.CompanyProfile) bool {
	switch req.Category {
	case domain.CategoryCertificationGrade:
		target, ok := targetString(req.Target, "min_grade")
		if !ok {
			return false
		}
		for _, doc := range valid[domain.CategoryCertificationGrade] {
			if gradeRank(doc.Metadata["grade"]) >= gradeRank(target) && gradeRank(doc.Metadata["grade"]) > 0 {
				return true
			}
		}
		return false
	case domain.CategoryMandatoryDocument:
		category, ok := targetString(req.Target, "document_category")
		if !ok {
			return false
		}
		return len(valid[category]) > 0
	case domain.CategoryCompanyProfile:
		return profile.ProfileComplete
	default:
		// Unknown categories fall back to category presence.
		return len(valid[req.Category]) > 0
	}
}

// gradeRank orders certification grades: A is best. Unknown grades rank 0
// and never satisfy a target.
func gradeRank(grade string) int {
	switch strings.ToUpper(strings.TrimSpace(grade)) {
	case "A":
		return 5
	case "B":
		return 4
	case "C":
		return 3
	case "D":
		return 2
	case "E":
		return 1
	default:
		return 0
	}
}

func targetString(target map[string]any, key string) (string, bool) {
	if target == nil {
		return "", false
	}
	value, ok := target[key].(string)
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return value, true
}

func unmetLabel(req domain.ComplianceRequirement) string {
	if category, ok := targetString(req.Target, "document_category"); ok {
		return category
	}
	if grade, ok := targetString(req.Target, "min_grade"); ok {
		return fmt.Sprintf("%s>=%s", req.Category, grade)
	}
	return req.Category
}

// Readiness assembles scorer input from the store and computes the result.
// Read-only; concurrent calls never conflict.
func (a *App) Readiness(tenderID, companyID string) (domain.ReadinessResult, error) {
	if strings.TrimSpace(tenderID) == "" {
		return domain.ReadinessResult{}, validationError("tender_id is required")
	}
	if strings.TrimSpace(companyID) == "" {
		return domain.ReadinessResult{}, validationError("company_id is required")
	}
	reqs, err := a.store.ListRequirements(tenderID)
	if err != nil {
		return domain.ReadinessResult{}, persistenceError(err)
	}
	docs, err := a.store.ListCompanyDocuments(companyID)
	if err != nil {
		return domain.ReadinessResult{}, persistenceError(err)
	}
	profile, _, err := a.store.GetCompanyProfile(companyID)
	if err != nil {
		return domain.ReadinessResult{}, persistenceError(err)
	}
	return Score(a.scoring, ScoreInput{
		TenderID:     tenderID,
		CompanyID:    companyID,
		Requirements: reqs,
		Documents:    docs,
		Profile:      profile,
	}), nil
}
