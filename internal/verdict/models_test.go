package verdict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"PASS", StatusPass},
		{"FAIL", StatusFail},
		{"WARNING", StatusWarning},
		{"ERROR", StatusError},
		{"pass", StatusWarning},
		{"OK", StatusWarning},
		{"", StatusWarning},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Coerce(tc.raw), "raw %q", tc.raw)
	}
}

func TestErrorResult(t *testing.T) {
	res := ErrorResult("审核失败", "judgment call timed out after 30s")

	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, "审核失败", res.Summary)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, SpecialRulesCategory, res.Issues[0].Category)
	assert.Equal(t, SeverityHigh, res.Issues[0].Severity)
	assert.Equal(t, "judgment call timed out after 30s", res.Issues[0].Description)
	assert.False(t, res.ProcessedAt.IsZero())
}

func TestStatusLabels(t *testing.T) {
	assert.Equal(t, "通过", StatusPass.Label())
	assert.Equal(t, "错误", StatusError.Label())
	assert.Equal(t, "高", SeverityHigh.Label())
}
