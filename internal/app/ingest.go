package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tendercomply/internal/util"
	"tendercomply/pkg/domain"
	"tendercomply/pkg/notify"
	"tendercomply/pkg/storage"
	"tendercomply/pkg/store"
)

// ActionIngestComplete is emitted after every successful ingestion.
const ActionIngestComplete = "INGEST_COMPLETE"

const defaultExtractTimeout = 30 * time.Second

// Config holds pipeline dependencies and policy.
type Config struct {
	Store          store.Store
	Objects        storage.ObjectStore
	Extractor      Extractor
	RulePolicy     RulePolicy
	Pager          notify.Pager
	Scoring        ScoringPolicy
	ExtractTimeout time.Duration
}

// App runs the compliance pipeline: document ingestion, rule derivation,
// readiness scoring, audit recording, and alert routing. It holds no mutable
// state across invocations; every method is safe to call concurrently.
type App struct {
	store          store.Store
	objects        storage.ObjectStore
	extractor      Extractor
	rulePolicy     RulePolicy
	pager          notify.Pager
	scoring        ScoringPolicy
	extractTimeout time.Duration
}

// New constructs the pipeline. Store is mandatory; the object store falls
// back to local file reads, the extractor to format dispatch, and the rule
// policy to keyword derivation.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store required")
	}
	objects := cfg.Objects
	if objects == nil {
		objects = storage.NewFileStore("")
	}
	extractor := cfg.Extractor
	if extractor == nil {
		extractor = FormatExtractor{}
	}
	rulePolicy := cfg.RulePolicy
	if rulePolicy == nil {
		rulePolicy = KeywordRulePolicy{}
	}
	timeout := cfg.ExtractTimeout
	if timeout <= 0 {
		timeout = defaultExtractTimeout
	}
	return &App{
		store:          cfg.Store,
		objects:        objects,
		extractor:      extractor,
		rulePolicy:     rulePolicy,
		pager:          cfg.Pager,
		scoring:        cfg.Scoring.withDefaults(),
		extractTimeout: timeout,
	}, nil
}

// IngestRequest identifies the document to process.
type IngestRequest struct {
	TenderID   string
	FilePath   string
	FileName   string
	ActorID    string
	RemoteAddr string
}

// IngestResult reports the outcome of one ingestion.
type IngestResult struct {
	TenderID       string
	StoragePath    string
	RulesExtracted bool
}

// Ingest runs the extraction pipeline for one uploaded document. The
// document upsert is the primary deliverable: its failure fails the call.
// Rule derivation and the audit emission are best-effort enrichment; their
// failures are logged and swallowed.
func (a *App) Ingest(ctx context.Context, req IngestRequest) (IngestResult, error) {
	if strings.TrimSpace(req.TenderID) == "" {
		return IngestResult{}, validationError("tender_id is required")
	}
	if strings.TrimSpace(req.FilePath) == "" {
		return IngestResult{}, validationError("file_path is required")
	}
	fileName := req.FileName
	if fileName == "" {
		fileName = req.FilePath
	}
	logger := util.LoggerFromContext(ctx)

	ctx, cancel := context.WithTimeout(ctx, a.extractTimeout)
	defer cancel()

	res, err := a.fetchAndExtract(ctx, req.FilePath, fileName)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return IngestResult{}, fmt.Errorf("%w: %s", ErrExtractionTimeout, fileName)
		}
		return IngestResult{}, extractionError(err)
	}

	now := time.Now().UTC()
	doc := domain.TenderDocument{
		TenderID:      req.TenderID,
		StoragePath:   req.FilePath,
		FileName:      fileName,
		ExtractedText: res.Text,
		Metadata:      res.Metadata,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	// Writer of last resort: the upsert creates the row when the upload
	// collaborator has not, and converges concurrent re-ingestion of the
	// same file to a single row.
	if err := a.store.UpsertTenderDocument(doc); err != nil {
		return IngestResult{}, persistenceError(err)
	}

	rulesExtracted := false
	rules := a.rulePolicy.Derive(req.TenderID, res)
	// The derived set fully replaces the previous one, even when empty:
	// a re-extracted document that lost its signals must not keep stale rules.
	if err := a.store.ReplaceRequirements(req.TenderID, rules); err != nil {
		logger.Warn("rule insertion failed, ingestion continues",
			"tender_id", req.TenderID, "file", fileName, "err", err)
	} else {
		rulesExtracted = len(rules) > 0
	}

	// Fire-and-forget: audit trouble never changes the ingestion outcome.
	if _, err := a.RecordAudit(ctx, AuditEvent{
		ActorID:  req.ActorID,
		TenderID: req.TenderID,
		Action:   ActionIngestComplete,
		Severity: domain.SeverityInfo,
		Details: map[string]any{
			"file_name":       fileName,
			"rules_extracted": rulesExtracted,
		},
		RemoteAddr: req.RemoteAddr,
	}); err != nil {
		logger.Warn("audit emission failed after ingest",
			"tender_id", req.TenderID, "file", fileName, "err", err)
	}

	return IngestResult{
		TenderID:       req.TenderID,
		StoragePath:    req.FilePath,
		RulesExtracted: rulesExtracted,
	}, nil
}

func (a *App) fetchAndExtract(ctx context.Context, path, fileName string) (ExtractionResult, error) {
	data, err := a.objects.Get(ctx, path)
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("fetch %s: %w", path, err)
	}
	type extractOutcome struct {
		res ExtractionResult
		err error
	}
	done := make(chan extractOutcome, 1)
	go func() {
		res, err := a.extractor.Extract(fileName, data)
		done <- extractOutcome{res, err}
	}()
	select {
	case <-ctx.Done():
		return ExtractionResult{}, ctx.Err()
	case out := <-done:
		return out.res, out.err
	}
}
