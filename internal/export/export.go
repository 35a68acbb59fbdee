// Package export serializes verdicts and rules into downloadable tables.
// CSV output follows RFC 4180 (embedded quotes doubled, fields quoted when
// they contain the delimiter, quote or newline); .xlsx output carries the
// same rows.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/xuri/excelize/v2"

	"docaudit/internal/documents"
	"docaudit/internal/rules"
	dErrors "docaudit/pkg/domain-errors"
)

var verdictHeader = []string{
	"文档名称", "审核状态", "审核总结", "问题分类", "对应规则", "问题描述", "严重程度", "问题位置",
}

var ruleHeader = []string{"规则类型", "规则内容"}

// verdictRows flattens judged documents into one row per issue. A verdict
// without issues still gets one row so the document shows up in the export;
// its issue cells stay empty. Unjudged documents are skipped.
func verdictRows(docs []documents.Document) [][]string {
	rows := [][]string{verdictHeader}
	for _, doc := range docs {
		if doc.Verdict == nil {
			continue
		}
		v := doc.Verdict
		if len(v.Issues) == 0 {
			rows = append(rows, []string{
				doc.Name, v.Status.Label(), v.Summary, "", "", "", "", "",
			})
			continue
		}
		for _, issue := range v.Issues {
			rows = append(rows, []string{
				doc.Name,
				v.Status.Label(),
				v.Summary,
				rules.Category(issue.Category).Label(),
				issue.Rule,
				issue.Description,
				issue.Severity.Label(),
				issue.Location,
			})
		}
	}
	return rows
}

func ruleRows(list []rules.Rule) [][]string {
	rows := [][]string{ruleHeader}
	for _, rule := range list {
		rows = append(rows, []string{rule.Category.Label(), rule.Text})
	}
	return rows
}

// VerdictCSV renders the verdict table for all judged documents.
func VerdictCSV(docs []documents.Document) ([]byte, error) {
	return writeCSV(verdictRows(docs))
}

// VerdictXLSX renders the same verdict table as a single-sheet workbook.
func VerdictXLSX(docs []documents.Document) ([]byte, error) {
	return writeXLSX(verdictRows(docs))
}

// RulesCSV renders the rule table in the import format, so an exported file
// round-trips through the importer unchanged.
func RulesCSV(list []rules.Rule) ([]byte, error) {
	return writeCSV(ruleRows(list))
}

// RulesXLSX renders the rule table as a single-sheet workbook.
func RulesXLSX(list []rules.Rule) ([]byte, error) {
	return writeXLSX(ruleRows(list))
}

func writeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "导出 CSV 失败", err)
	}
	return buf.Bytes(), nil
}

func writeXLSX(rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "导出 xlsx 失败", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "导出 xlsx 失败", err)
	}
	return buf.Bytes(), nil
}
