package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tansell/receipt-ledger/internal/extraction"
	"github.com/tansell/receipt-ledger/internal/profile"
)

// Stage identifies where an upload is in the processing state machine.
type Stage string

const (
	StageImageReceived Stage = "image_received"
	StageExtracting    Stage = "extracting"
	StageBudgetChecked Stage = "budget_checked"
	StageStructuring   Stage = "structuring"
	StageParsed        Stage = "parsed"
	StagePersisting    Stage = "persisting"

	// Terminal stages
	StagePersisted     Stage = "persisted"
	StageNothingToSave Stage = "nothing_to_save"
	StageFailed        Stage = "failed"
)

// Input validation errors, recovered locally by re-prompting the caller.
var (
	ErrNoFile    = errors.New("no file uploaded")
	ErrNoProfile = errors.New("profile is required")
)

// ErrOverBudget is returned when the token estimate exceeds the model's
// context ceiling. The structuring client is never called in that case.
var ErrOverBudget = errors.New("token count exceeds the model's maximum context length")

// StageError wraps the underlying cause of a failed upload with the stage
// it failed at.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("upload failed at %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Upload is one receipt image submitted for processing, scoped to a user
// and profile. There is no process-wide session: everything an operation
// needs travels with the request.
type Upload struct {
	Username    string
	Profile     string
	Filename    string
	Data        []byte
	ContentType string
}

// Result reports how far an upload made it and what was extracted.
type Result struct {
	Stage          Stage            `json:"stage"`
	FailedAt       Stage            `json:"failed_at,omitempty"`
	Records        []profile.Record `json:"records"`
	RawText        string           `json:"raw_text,omitempty"`
	StructuredText string           `json:"structured_text,omitempty"`
	TokenCount     int              `json:"token_count"`
	Warning        string           `json:"warning,omitempty"`
	Error          string           `json:"error,omitempty"`
}

// BudgetGuard estimates token usage for the messages about to be sent to
// the structuring client. Satisfied by extraction.TokenGuard.
type BudgetGuard interface {
	Within(messages []string) (count int, ok bool)
}

// Pipeline wires upload normalization, OCR, the token budget gate, the
// structuring client, the record parser and the profile store into one
// single-attempt flow. Nothing here retries: a failed upload is restarted
// from scratch by the caller and never touches prior persisted state.
type Pipeline struct {
	ocr        extraction.OCR
	structurer extraction.Structurer
	guard      BudgetGuard
	store      profile.Store
	journal    Journal
	logger     *slog.Logger
	ocrTimeout time.Duration
	llmTimeout time.Duration
}

// Config holds the pipeline's adapter call timeouts.
type Config struct {
	OCRTimeout time.Duration
	LLMTimeout time.Duration
}

// New creates a Pipeline. journal may be nil; journaling failures never
// fail an upload either way.
func New(ocr extraction.OCR, structurer extraction.Structurer, guard BudgetGuard, store profile.Store, journal Journal, logger *slog.Logger, cfg Config) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.OCRTimeout <= 0 {
		cfg.OCRTimeout = 60 * time.Second
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 60 * time.Second
	}
	return &Pipeline{
		ocr:        ocr,
		structurer: structurer,
		guard:      guard,
		store:      store,
		journal:    journal,
		logger:     logger,
		ocrTimeout: cfg.OCRTimeout,
		llmTimeout: cfg.LLMTimeout,
	}
}

// Process runs one upload through the state machine:
//
//	ImageReceived -> Extracting -> BudgetChecked -> Structuring -> Parsed -> Persisted
//
// with Failed(stage) reachable from any non-terminal stage and a distinct
// NothingToSave terminal when parsing produced zero records. The returned
// Result is always non-nil and reflects the terminal stage.
func (p *Pipeline) Process(ctx context.Context, up Upload) (*Result, error) {
	res := &Result{Stage: StageImageReceived, Records: []profile.Record{}}
	defer p.record(up, res)

	if len(up.Data) == 0 {
		return p.fail(res, StageImageReceived, ErrNoFile)
	}
	if up.Profile == "" {
		return p.fail(res, StageImageReceived, ErrNoProfile)
	}

	res.Stage = StageExtracting
	png, err := extraction.NormalizeUpload(up.Data, up.ContentType)
	if err != nil {
		return p.fail(res, StageExtracting, err)
	}

	octx, cancel := context.WithTimeout(ctx, p.ocrTimeout)
	fragments, err := p.ocr.Recognize(octx, png)
	cancel()
	if err != nil {
		return p.fail(res, StageExtracting, err)
	}

	res.RawText = extraction.JoinFragments(fragments)
	if res.RawText == "" {
		// Empty text is valid input, not a failure.
		res.Warning = "no text detected on the image"
	}

	res.Stage = StageBudgetChecked
	count, ok := p.guard.Within([]string{extraction.Instruction, res.RawText})
	res.TokenCount = count
	if !ok {
		return p.fail(res, StageBudgetChecked, ErrOverBudget)
	}

	res.Stage = StageStructuring
	lctx, cancel := context.WithTimeout(ctx, p.llmTimeout)
	structured, err := p.structurer.Structure(lctx, res.RawText)
	cancel()
	if err != nil {
		return p.fail(res, StageStructuring, err)
	}
	res.StructuredText = structured

	records, err := extraction.ParseRecords(structured)
	if err != nil {
		return p.fail(res, StageParsed, err)
	}
	res.Stage = StageParsed
	res.Records = records

	if len(records) == 0 {
		res.Stage = StageNothingToSave
		p.logger.Info("nothing extracted from upload",
			"username", up.Username, "profile", up.Profile, "filename", up.Filename)
		return res, nil
	}

	res.Stage = StagePersisting
	if err := p.store.AppendRecords(up.Username, up.Profile, records); err != nil {
		return p.fail(res, StagePersisting, err)
	}

	res.Stage = StagePersisted
	p.logger.Info("upload persisted",
		"username", up.Username, "profile", up.Profile,
		"filename", up.Filename, "records", len(records), "tokens", count)
	return res, nil
}

func (p *Pipeline) fail(res *Result, at Stage, err error) (*Result, error) {
	res.Stage = StageFailed
	res.FailedAt = at
	res.Error = err.Error()
	return res, &StageError{Stage: at, Err: err}
}

// record writes a journal entry for the processed upload. Journal failures
// are logged, never surfaced.
func (p *Pipeline) record(up Upload, res *Result) {
	if p.journal == nil {
		return
	}
	entry := &Entry{
		ID:          uuid.NewString(),
		Username:    up.Username,
		Profile:     up.Profile,
		Filename:    up.Filename,
		Stage:       res.Stage,
		FailedAt:    res.FailedAt,
		RecordCount: len(res.Records),
		TokenCount:  res.TokenCount,
		Warning:     res.Warning,
		Error:       res.Error,
		CreatedAt:   time.Now(),
	}
	if err := p.journal.SaveEntry(entry); err != nil {
		p.logger.Warn("failed to journal upload", "username", up.Username, "error", err)
	}
}
