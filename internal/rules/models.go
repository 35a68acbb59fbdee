// Package rules holds the audit rule registry: the ordered, toggleable set
// of rule texts that gets sent along with every judgment request.
package rules

import "strings"

// Category buckets a rule for display and export grouping. Categories do not
// affect judgment; the judge receives plain rule texts.
type Category string

const (
	CategoryTextEditing         Category = "text_editing"
	CategoryWorkflowLogic       Category = "workflow_logic"
	CategoryResultDetermination Category = "result_determination"
	CategorySpecialRules        Category = "special_rules"
)

// Label returns the zh display label, which is also the label used in
// import/export files.
func (c Category) Label() string {
	switch c {
	case CategoryTextEditing:
		return "文字编辑"
	case CategoryWorkflowLogic:
		return "流程逻辑"
	case CategoryResultDetermination:
		return "结果认定"
	case CategorySpecialRules:
		return "特殊规则"
	}
	return string(c)
}

// ParseCategoryLabel maps an import-file type label to a category.
// Unrecognized labels fall back to the catch-all special_rules bucket; that
// mapping happens here at the import boundary, never inside the registry.
func ParseCategoryLabel(label string) Category {
	switch strings.TrimSpace(label) {
	case "文字编辑":
		return CategoryTextEditing
	case "流程逻辑":
		return CategoryWorkflowLogic
	case "结果认定":
		return CategoryResultDetermination
	case "特殊规则":
		return CategorySpecialRules
	default:
		return CategorySpecialRules
	}
}

// Rule is one audit rule. Text and Category are immutable after creation;
// edits are modelled as remove+add. Enabled is the only mutable field.
type Rule struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Category Category `json:"category"`
	Enabled  bool     `json:"enabled"`
}

// ImportRow is one pre-validated row from a rule import file.
type ImportRow struct {
	Text     string
	Category Category
}
