package rules

import (
	"bytes"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	dErrors "docaudit/pkg/domain-errors"
)

// Import file contract: a two-column table whose header row is exactly
// (规则类型, 规则内容). Rows missing either cell are skipped; unrecognized
// type labels map to 特殊规则. A file without at least one data row after
// the header is rejected outright, and nothing is imported.
const (
	headerCategory = "规则类型"
	headerText     = "规则内容"
)

// ParseImport reads a rule import file (.csv or .xlsx, chosen by filename
// extension) into pre-validated rows. Validation failures reject the whole
// file; partial imports never happen.
func ParseImport(filename string, data []byte) ([]ImportRow, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return parseXLSX(data)
	case ".csv":
		return parseCSV(data)
	default:
		return nil, dErrors.Newf(dErrors.CodeValidationFailed, "不支持的文件类型: %s", filepath.Ext(filename))
	}
}

func parseCSV(data []byte) ([]ImportRow, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, dErrors.Wrap(dErrors.CodeValidationFailed, "CSV 解析失败", err)
		}
		records = append(records, record)
	}
	return rowsFromRecords(records)
}

func parseXLSX(data []byte) ([]ImportRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeValidationFailed, "Excel 解析失败", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, dErrors.New(dErrors.CodeValidationFailed, "文件中没有工作表")
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeValidationFailed, "Excel 读取失败", err)
	}
	return rowsFromRecords(records)
}

func rowsFromRecords(records [][]string) ([]ImportRow, error) {
	if len(records) < 2 {
		return nil, dErrors.New(dErrors.CodeValidationFailed, "文件至少需要表头和一行规则")
	}

	header := records[0]
	if len(header) < 2 ||
		strings.TrimSpace(header[0]) != headerCategory ||
		strings.TrimSpace(header[1]) != headerText {
		return nil, dErrors.Newf(dErrors.CodeValidationFailed,
			"表头必须为(%s, %s)", headerCategory, headerText)
	}

	rows := make([]ImportRow, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < 2 {
			continue
		}
		label := strings.TrimSpace(record[0])
		text := strings.TrimSpace(record[1])
		if label == "" || text == "" {
			continue
		}
		rows = append(rows, ImportRow{Text: text, Category: ParseCategoryLabel(label)})
	}
	return rows, nil
}
