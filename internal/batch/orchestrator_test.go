package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"docaudit/internal/batch/mocks"
	"docaudit/internal/documents"
	"docaudit/internal/history"
	"docaudit/internal/rules"
	"docaudit/internal/verdict"
	dErrors "docaudit/pkg/domain-errors"
)

// judgeFunc adapts a function to the judge interface so tests can script
// per-call behavior.
type judgeFunc func(ctx context.Context, content string, ruleTexts []string) (*verdict.Result, error)

func (f judgeFunc) Judge(ctx context.Context, content string, ruleTexts []string) (*verdict.Result, error) {
	return f(ctx, content, ruleTexts)
}

// echoExtractor returns deterministic content derived from the file name.
type echoExtractor struct {
	calls atomic.Int32
}

func (e *echoExtractor) Extract(_ context.Context, name string, _ []byte) (string, error) {
	e.calls.Add(1)
	return "content of " + name, nil
}

func passResult() *verdict.Result {
	return &verdict.Result{Status: verdict.StatusPass, Summary: "ok", ProcessedAt: time.Now()}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newDocs(t *testing.T, reg *documents.Registry, names ...string) []documents.Document {
	t.Helper()
	out := make([]documents.Document, 0, len(names))
	for _, name := range names {
		doc, err := reg.Upsert(name, []byte("raw "+name), false)
		require.NoError(t, err)
		out = append(out, doc)
	}
	return out
}

func TestRunMixedOutcome(t *testing.T) {
	// Five documents, cap three: #2 times out, the rest pass. The failure
	// must stay isolated in one ERROR verdict while all five end judged
	// and out of flight.
	docReg := documents.NewRegistry()
	docs := newDocs(t, docReg, "d1.docx", "d2.docx", "d3.docx", "d4.docx", "d5.docx")

	ruleReg := rules.NewRegistry()
	ruleReg.Add("标题规范", rules.CategoryTextEditing)

	judge := judgeFunc(func(_ context.Context, content string, _ []string) (*verdict.Result, error) {
		if content == "content of d2.docx" {
			return nil, dErrors.New(dErrors.CodeJudgmentTimeout, "判定服务调用超时")
		}
		return passResult(), nil
	})

	orch := NewOrchestrator(Deps{
		Documents:   docReg,
		Rules:       ruleReg,
		Extractor:   &echoExtractor{},
		Judge:       judge,
		Logger:      testLogger(),
		Concurrency: 3,
	})
	summary := orch.Run(context.Background())

	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 4, summary.ByStatus[string(verdict.StatusPass)])
	assert.Equal(t, 1, summary.ByStatus[string(verdict.StatusError)])

	for _, doc := range docs {
		got, ok := docReg.Get(doc.ID)
		require.True(t, ok)
		require.NotNil(t, got.Verdict, "document %s must end with a verdict", doc.Name)
		assert.False(t, got.Processing)
	}

	failed, _ := docReg.Get(docs[1].ID)
	assert.Equal(t, verdict.StatusError, failed.Verdict.Status)
	assert.Equal(t, "审核超时", failed.Verdict.Summary)
	require.Len(t, failed.Verdict.Issues, 1)
	assert.Equal(t, verdict.SpecialRulesCategory, failed.Verdict.Issues[0].Category)
	assert.Equal(t, verdict.SeverityHigh, failed.Verdict.Issues[0].Severity)

	assert.Empty(t, docReg.Unprocessed(), "ERROR verdicts are not re-offered")
}

func TestRunRespectsConcurrencyCap(t *testing.T) {
	const maxWorkers = 3
	docReg := documents.NewRegistry()
	newDocs(t, docReg, "a", "b", "c", "d", "e", "f", "g", "h", "i", "j")

	var inFlight, peak atomic.Int32
	judge := judgeFunc(func(_ context.Context, _ string, _ []string) (*verdict.Result, error) {
		n := inFlight.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return passResult(), nil
	})

	// .txt names so the real extractor is not needed; echoExtractor keeps
	// extension handling out of this test entirely.
	orch := NewOrchestrator(Deps{
		Documents:   docReg,
		Rules:       rules.NewRegistry(),
		Extractor:   &echoExtractor{},
		Judge:       judge,
		Logger:      testLogger(),
		Concurrency: maxWorkers,
	})
	summary := orch.Run(context.Background())

	assert.Equal(t, 10, summary.Total)
	assert.LessOrEqual(t, peak.Load(), int32(maxWorkers))
	assert.Greater(t, peak.Load(), int32(1), "workers should actually overlap")
}

func TestRunSkipsExtractionWhenContentMemoized(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	store := mocks.NewMockDocumentStore(ctrl)
	ruleSource := mocks.NewMockRuleSource(ctrl)
	extractor := mocks.NewMockExtractor(ctrl) // no EXPECT: any call fails the test

	doc := documents.Document{ID: "doc-1", Name: "r.docx", Content: "已提取的内容"}
	store.EXPECT().Unprocessed().Return([]documents.Document{doc})
	store.EXPECT().MarkProcessing([]string{"doc-1"})
	store.EXPECT().Complete("doc-1", "已提取的内容", gomock.Any())
	ruleSource.EXPECT().ActiveTexts().Return([]string{"规则"})

	var judged atomic.Int32
	judge := judgeFunc(func(_ context.Context, content string, _ []string) (*verdict.Result, error) {
		judged.Add(1)
		assert.Equal(t, "已提取的内容", content)
		return passResult(), nil
	})

	orch := NewOrchestrator(Deps{
		Documents: store,
		Rules:     ruleSource,
		Extractor: extractor,
		Judge:     judge,
		Logger:    testLogger(),
	})
	orch.Run(context.Background())

	assert.Equal(t, int32(1), judged.Load())
}

func TestRunExtractionFailureBecomesErrorVerdict(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	docReg := documents.NewRegistry()
	docs := newDocs(t, docReg, "broken.docx", "fine.docx")

	extractor := mocks.NewMockExtractor(ctrl)
	extractor.EXPECT().Extract(gomock.Any(), "broken.docx", gomock.Any()).
		Return("", dErrors.New(dErrors.CodeExtractionFailed, "无法打开 docx 容器"))
	extractor.EXPECT().Extract(gomock.Any(), "fine.docx", gomock.Any()).
		Return("fine content", nil)

	var judged atomic.Int32
	judge := judgeFunc(func(_ context.Context, _ string, _ []string) (*verdict.Result, error) {
		judged.Add(1)
		return passResult(), nil
	})

	orch := NewOrchestrator(Deps{
		Documents:   docReg,
		Rules:       rules.NewRegistry(),
		Extractor:   extractor,
		Judge:       judge,
		Logger:      testLogger(),
		Concurrency: 1,
	})
	orch.Run(context.Background())

	// The broken document never reaches the judge.
	assert.Equal(t, int32(1), judged.Load())

	broken, _ := docReg.Get(docs[0].ID)
	require.NotNil(t, broken.Verdict)
	assert.Equal(t, verdict.StatusError, broken.Verdict.Status)
	require.Len(t, broken.Verdict.Issues, 1)
	assert.Equal(t, verdict.SpecialRulesCategory, broken.Verdict.Issues[0].Category)

	fine, _ := docReg.Get(docs[1].ID)
	require.NotNil(t, fine.Verdict)
	assert.Equal(t, verdict.StatusPass, fine.Verdict.Status)
}

func TestRunReadsRulesPerDocument(t *testing.T) {
	// Rules toggled while the batch runs must affect documents judged
	// afterwards: the rule list is read after each document's extraction,
	// not snapshotted once per batch.
	docReg := documents.NewRegistry()
	newDocs(t, docReg, "first.docx", "second.docx")

	ruleReg := rules.NewRegistry()
	ruleReg.Add("A", rules.CategoryTextEditing)
	ruleReg.Add("B", rules.CategoryWorkflowLogic)

	var mu sync.Mutex
	seen := make([][]string, 0, 2)
	judge := judgeFunc(func(_ context.Context, _ string, ruleTexts []string) (*verdict.Result, error) {
		mu.Lock()
		seen = append(seen, ruleTexts)
		if len(seen) == 1 {
			// Operator disables rule B between the two judgments.
			ruleReg.Toggle(ruleReg.List()[1].ID)
		}
		mu.Unlock()
		return passResult(), nil
	})

	orch := NewOrchestrator(Deps{
		Documents:   docReg,
		Rules:       ruleReg,
		Extractor:   &echoExtractor{},
		Judge:       judge,
		Logger:      testLogger(),
		Concurrency: 1,
	})
	orch.Run(context.Background())

	require.Len(t, seen, 2)
	assert.Equal(t, []string{"A", "B"}, seen[0])
	assert.Equal(t, []string{"A"}, seen[1])
}

func TestRunRemovalMidFlightIsSafe(t *testing.T) {
	docReg := documents.NewRegistry()
	docs := newDocs(t, docReg, "gone.docx")

	judge := judgeFunc(func(_ context.Context, _ string, _ []string) (*verdict.Result, error) {
		// The operator removes the document while its judgment is in
		// flight; the eventual completion must be a silent no-op.
		docReg.Remove(docs[0].ID)
		return passResult(), nil
	})

	orch := NewOrchestrator(Deps{
		Documents: docReg,
		Rules:     rules.NewRegistry(),
		Extractor: &echoExtractor{},
		Judge:     judge,
		Logger:    testLogger(),
	})
	summary := orch.Run(context.Background())

	assert.Equal(t, 1, summary.Total)
	assert.Empty(t, docReg.List())
}

func TestRunMarksProcessingBeforeJudgment(t *testing.T) {
	docReg := documents.NewRegistry()
	docs := newDocs(t, docReg, "a.docx", "b.docx", "c.docx")

	release := make(chan struct{})
	started := make(chan struct{}, 3)
	judge := judgeFunc(func(_ context.Context, _ string, _ []string) (*verdict.Result, error) {
		started <- struct{}{}
		<-release
		return passResult(), nil
	})

	orch := NewOrchestrator(Deps{
		Documents:   docReg,
		Rules:       rules.NewRegistry(),
		Extractor:   &echoExtractor{},
		Judge:       judge,
		Logger:      testLogger(),
		Concurrency: 3,
	})

	done := make(chan Summary, 1)
	go func() { done <- orch.Run(context.Background()) }()
	<-started

	// Every queued document shows in flight before the first judgment
	// returns, including ones still waiting on a worker.
	for _, doc := range docs {
		got, ok := docReg.Get(doc.ID)
		require.True(t, ok)
		assert.True(t, got.Processing, "document %s should be marked processing", doc.Name)
	}

	// A second run while judgments are in flight offers nothing.
	second := orch.Run(context.Background())
	assert.Equal(t, 0, second.Total)

	close(release)
	summary := <-done
	assert.Equal(t, 3, summary.Total)
}

func TestRunNotifierAndRecorder(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	docReg := documents.NewRegistry()
	docs := newDocs(t, docReg, "clean.docx", "flagged.docx")

	judge := judgeFunc(func(_ context.Context, content string, _ []string) (*verdict.Result, error) {
		if content == "content of flagged.docx" {
			return &verdict.Result{
				Status:  verdict.StatusFail,
				Summary: "一处问题",
				Issues: []verdict.Issue{{
					Category:    "text_editing",
					Rule:        "标题规范",
					Description: "字号错误",
					Severity:    verdict.SeverityHigh,
				}},
				ProcessedAt: time.Now(),
			}, nil
		}
		return passResult(), nil
	})

	notifier := mocks.NewMockNotifier(ctrl)
	// Only the verdict with issues triggers auto-expansion.
	notifier.EXPECT().DocumentFlagged(docs[1].ID)

	recorder := mocks.NewMockRecorder(ctrl)
	recorded := make([]history.Event, 0, 2)
	recorder.EXPECT().Record(gomock.Any()).Times(2).Do(func(e history.Event) {
		recorded = append(recorded, e)
	})

	orch := NewOrchestrator(Deps{
		Documents:   docReg,
		Rules:       rules.NewRegistry(),
		Extractor:   &echoExtractor{},
		Judge:       judge,
		Notifier:    notifier,
		Recorder:    recorder,
		Logger:      testLogger(),
		Concurrency: 1,
	})
	orch.Run(context.Background())

	require.Len(t, recorded, 2)
	for _, event := range recorded {
		assert.Equal(t, history.ActionJudged, event.Action)
	}
}

func TestRunEmptyBatch(t *testing.T) {
	orch := NewOrchestrator(Deps{
		Documents: documents.NewRegistry(),
		Rules:     rules.NewRegistry(),
		Extractor: &echoExtractor{},
		Judge: judgeFunc(func(_ context.Context, _ string, _ []string) (*verdict.Result, error) {
			return nil, fmt.Errorf("must not be called")
		}),
		Logger: testLogger(),
	})
	summary := orch.Run(context.Background())
	assert.Equal(t, 0, summary.Total)
}

func TestRunExtractionMemoizedAcrossRuns(t *testing.T) {
	// First run fails judgment after successful extraction; the content is
	// still persisted by Complete, and a manual re-run of the same (re-
	// uploaded) document set only extracts documents without content.
	docReg := documents.NewRegistry()
	newDocs(t, docReg, "a.docx")

	extractor := &echoExtractor{}
	calls := 0
	judge := judgeFunc(func(_ context.Context, content string, _ []string) (*verdict.Result, error) {
		calls++
		return passResult(), nil
	})

	orch := NewOrchestrator(Deps{
		Documents: docReg,
		Rules:     rules.NewRegistry(),
		Extractor: extractor,
		Judge:     judge,
		Logger:    testLogger(),
	})
	orch.Run(context.Background())
	// Second run has nothing unprocessed; neither extractor nor judge runs.
	orch.Run(context.Background())

	assert.Equal(t, int32(1), extractor.calls.Load())
	assert.Equal(t, 1, calls)
}
