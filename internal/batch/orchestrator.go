// Package batch drives the audit pipeline: it pulls unprocessed documents,
// extracts content lazily, fans judgment calls out under a concurrency cap,
// and reconciles every outcome back into the document registry as soon as
// it is known.
package batch

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"docaudit/internal/batch/metrics"
	"docaudit/internal/documents"
	"docaudit/internal/history"
	"docaudit/internal/judge"
	"docaudit/internal/verdict"
	dErrors "docaudit/pkg/domain-errors"
)

//go:generate mockgen -source=orchestrator.go -destination=mocks/batch-mocks.go -package=mocks Extractor,Notifier

const defaultConcurrency = 3

// DocumentStore is the slice of the document registry the orchestrator
// needs. All writes go through Complete; the orchestrator never aliases
// registry state.
type DocumentStore interface {
	Unprocessed() []documents.Document
	MarkProcessing(ids []string)
	Complete(id, content string, result *verdict.Result)
}

// RuleSource supplies the active rule texts. It is read per document, after
// that document's extraction completes, so rules toggled mid-batch affect
// documents judged afterwards.
type RuleSource interface {
	ActiveTexts() []string
}

// Extractor converts a document's raw bytes into normalized text.
type Extractor interface {
	Extract(ctx context.Context, name string, data []byte) (string, error)
}

// Notifier receives the completion-with-issues side effect. Pure
// notification; the pipeline never branches on it.
type Notifier interface {
	DocumentFlagged(docID string)
}

// Recorder accepts history events without blocking.
type Recorder interface {
	Record(event history.Event)
}

// Summary reports one batch run.
type Summary struct {
	Total     int            `json:"total"`
	ByStatus  map[string]int `json:"by_status"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"-"`
}

// Orchestrator owns the fan-out. Individual document failures become ERROR
// verdicts and never abort siblings; there is no batch-level cancellation.
type Orchestrator struct {
	docs        DocumentStore
	rules       RuleSource
	extractor   Extractor
	judge       judge.Judge
	notifier    Notifier
	recorder    Recorder
	metrics     *metrics.Metrics
	logger      *slog.Logger
	concurrency int
}

// Deps wires the orchestrator's collaborators. Notifier, Recorder and
// Metrics are optional.
type Deps struct {
	Documents   DocumentStore
	Rules       RuleSource
	Extractor   Extractor
	Judge       judge.Judge
	Notifier    Notifier
	Recorder    Recorder
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
	Concurrency int
}

func NewOrchestrator(deps Deps) *Orchestrator {
	concurrency := deps.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		docs:        deps.Documents,
		rules:       deps.Rules,
		extractor:   deps.Extractor,
		judge:       deps.Judge,
		notifier:    deps.Notifier,
		recorder:    deps.Recorder,
		metrics:     deps.Metrics,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Run processes every document that is unprocessed and not already in
// flight, exactly once each. Documents are marked processing up front so
// the UI reflects the whole batch before the first judgment returns; each
// outcome is written back independently as soon as it lands.
func (o *Orchestrator) Run(ctx context.Context) Summary {
	start := time.Now()
	summary := Summary{StartedAt: start, ByStatus: make(map[string]int)}

	var snapshot []documents.Document
	for _, doc := range o.docs.Unprocessed() {
		// Processing gates re-entry: a second Run while judgments are in
		// flight must not offer the same document twice.
		if !doc.Processing {
			snapshot = append(snapshot, doc)
		}
	}
	if len(snapshot) == 0 {
		return summary
	}
	summary.Total = len(snapshot)

	ids := make([]string, len(snapshot))
	for i, doc := range snapshot {
		ids[i] = doc.ID
	}
	o.docs.MarkProcessing(ids)

	queue := make(chan documents.Document, len(snapshot))
	for _, doc := range snapshot {
		queue <- doc
	}
	close(queue)

	statuses := make(chan verdict.Status, len(snapshot))

	workers := min(o.concurrency, len(snapshot))
	var g errgroup.Group
	for range workers {
		g.Go(func() error {
			for doc := range queue {
				statuses <- o.process(ctx, doc)
			}
			return nil
		})
	}
	// Workers never return errors; failures are per-document verdicts.
	_ = g.Wait()
	close(statuses)

	for status := range statuses {
		summary.ByStatus[string(status)]++
	}
	summary.Duration = time.Since(start)
	o.metrics.ObserveBatch(summary.Duration)
	o.logger.InfoContext(ctx, "batch run finished",
		"total", summary.Total,
		"by_status", summary.ByStatus,
		"duration_ms", summary.Duration.Milliseconds(),
	)
	return summary
}

// process handles one document end to end and always completes it: either
// with the judge's verdict or with a synthesized ERROR verdict.
func (o *Orchestrator) process(ctx context.Context, doc documents.Document) verdict.Status {
	content := doc.Content
	if content == "" {
		extractStart := time.Now()
		extracted, err := o.extractor.Extract(ctx, doc.Name, doc.Source)
		o.metrics.ObserveExtract(time.Since(extractStart))
		if err != nil {
			o.logger.WarnContext(ctx, "extraction failed",
				"document", doc.Name, "error", err)
			return o.complete(doc, "", verdict.ErrorResult("无法提取文档内容", err.Error()))
		}
		content = extracted
	}

	// Read the active rules only now: extraction may have taken a while and
	// the operator may have toggled rules since the batch started.
	activeRules := o.rules.ActiveTexts()

	o.metrics.JudgmentStarted()
	judgeStart := time.Now()
	result, err := o.judge.Judge(ctx, content, activeRules)
	o.metrics.JudgmentFinished(time.Since(judgeStart))
	if err != nil {
		summary := "审核失败"
		if dErrors.Is(err, dErrors.CodeJudgmentTimeout) {
			summary = "审核超时"
		}
		o.logger.WarnContext(ctx, "judgment failed",
			"document", doc.Name, "error", err)
		return o.complete(doc, content, verdict.ErrorResult(summary, err.Error()))
	}

	return o.complete(doc, content, result)
}

func (o *Orchestrator) complete(doc documents.Document, content string, result *verdict.Result) verdict.Status {
	o.docs.Complete(doc.ID, content, result)
	o.metrics.IncrementOutcome(string(result.Status))

	if o.notifier != nil && len(result.Issues) > 0 {
		o.notifier.DocumentFlagged(doc.ID)
	}
	if o.recorder != nil {
		o.recorder.Record(history.Event{
			DocumentID:   doc.ID,
			DocumentName: doc.Name,
			Action:       history.ActionJudged,
			Status:       string(result.Status),
			Detail:       result.Summary,
		})
	}
	return result.Status
}
