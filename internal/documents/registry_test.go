package documents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docaudit/internal/verdict"
	dErrors "docaudit/pkg/domain-errors"
)

func TestUpsertNewDocument(t *testing.T) {
	reg := NewRegistry()

	doc, err := reg.Upsert("report.docx", []byte("raw"), false)
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, 3, doc.SizeBytes)
	assert.False(t, doc.Processing)
	assert.Nil(t, doc.Verdict)
}

func TestUpsertNameCollision(t *testing.T) {
	reg := NewRegistry()
	first, err := reg.Upsert("report.docx", []byte("v1"), false)
	require.NoError(t, err)
	reg.Complete(first.ID, "content", &verdict.Result{Status: verdict.StatusPass})

	// Without confirmation the old document stays untouched.
	_, err = reg.Upsert("report.docx", []byte("v2"), false)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
	require.Len(t, reg.List(), 1)

	// Confirmed replacement removes the old entity and clears all state.
	replaced, err := reg.Upsert("report.docx", []byte("v2"), true)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, replaced.ID)

	list := reg.List()
	require.Len(t, list, 1)
	assert.Nil(t, list[0].Verdict)
	assert.Empty(t, list[0].Content)
	assert.False(t, list[0].Processing)
}

func TestMarkProcessingSkipsJudged(t *testing.T) {
	reg := NewRegistry()
	judged, _ := reg.Upsert("a.docx", nil, false)
	pending, _ := reg.Upsert("b.docx", nil, false)
	reg.Complete(judged.ID, "c", &verdict.Result{Status: verdict.StatusPass})

	reg.MarkProcessing([]string{judged.ID, pending.ID})
	reg.MarkProcessing([]string{pending.ID}) // idempotent

	got, _ := reg.Get(judged.ID)
	assert.False(t, got.Processing)
	got, _ = reg.Get(pending.ID)
	assert.True(t, got.Processing)
}

func TestCompleteMemoizesContent(t *testing.T) {
	reg := NewRegistry()
	doc, _ := reg.Upsert("a.docx", nil, false)

	reg.Complete(doc.ID, "first extraction", &verdict.Result{Status: verdict.StatusFail})
	// A re-run completes with different content; the memoized text wins.
	reg.Complete(doc.ID, "second extraction", &verdict.Result{Status: verdict.StatusPass})

	got, ok := reg.Get(doc.ID)
	require.True(t, ok)
	assert.Equal(t, "first extraction", got.Content)
	assert.Equal(t, verdict.StatusPass, got.Verdict.Status)
	assert.False(t, got.Processing)
}

func TestCompleteRemovedDocumentIsNoop(t *testing.T) {
	reg := NewRegistry()
	doc, _ := reg.Upsert("a.docx", nil, false)
	reg.Remove(doc.ID)

	reg.Complete(doc.ID, "content", &verdict.Result{Status: verdict.StatusPass})

	assert.Empty(t, reg.List())
}

func TestUnprocessedExcludesErrorVerdicts(t *testing.T) {
	reg := NewRegistry()
	errored, _ := reg.Upsert("a.docx", nil, false)
	pending, _ := reg.Upsert("b.docx", nil, false)
	reg.Complete(errored.ID, "", verdict.ErrorResult("审核失败", "timeout"))

	unprocessed := reg.Unprocessed()
	require.Len(t, unprocessed, 1)
	assert.Equal(t, pending.ID, unprocessed[0].ID)
}
