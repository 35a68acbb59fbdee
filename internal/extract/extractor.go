// Package extract converts uploaded binary documents into normalized text
// for judgment. Extraction failures are domain errors; during a batch run
// the orchestrator turns them into per-document ERROR verdicts.
package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	dErrors "docaudit/pkg/domain-errors"
)

// Extractor converts one uploaded document into normalized text.
type Extractor interface {
	Extract(ctx context.Context, name string, data []byte) (string, error)
}

// OfficeExtractor handles the formats the audit tool accepts: .docx, .html
// (.htm) and plain text (.txt/.md).
type OfficeExtractor struct{}

func NewOfficeExtractor() *OfficeExtractor {
	return &OfficeExtractor{}
}

var _ Extractor = (*OfficeExtractor)(nil)

func (e *OfficeExtractor) Extract(_ context.Context, name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", dErrors.Newf(dErrors.CodeExtractionFailed, "文件 %s 为空", name)
	}

	var (
		text string
		err  error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".docx":
		text, err = extractDocx(data)
	case ".html", ".htm":
		text, err = extractHTML(data)
	case ".txt", ".md":
		text = string(data)
	default:
		return "", dErrors.Newf(dErrors.CodeExtractionFailed, "不支持的文件类型: %s", filepath.Ext(name))
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", dErrors.Newf(dErrors.CodeExtractionFailed, "文件 %s 中没有可审核的文本", name)
	}
	return text, nil
}

// extractDocx opens the OOXML container and pulls paragraph text out of
// word/document.xml. goquery's lenient parser is enough here; we only need
// the text runs, not the styling tree.
func extractDocx(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeExtractionFailed, "无法打开 docx 容器", err)
	}

	for _, file := range archive.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", dErrors.Wrap(dErrors.CodeExtractionFailed, "无法读取 document.xml", err)
		}
		defer rc.Close()

		doc, err := goquery.NewDocumentFromReader(rc)
		if err != nil {
			return "", dErrors.Wrap(dErrors.CodeExtractionFailed, "document.xml 解析失败", err)
		}

		var sb strings.Builder
		doc.Find("w\\:p").Each(func(_ int, p *goquery.Selection) {
			line := strings.TrimSpace(p.Find("w\\:t").Text())
			if line != "" {
				sb.WriteString(line)
				sb.WriteString("\n")
			}
		})
		return sb.String(), nil
	}
	return "", dErrors.New(dErrors.CodeExtractionFailed, "docx 中缺少 word/document.xml")
}

func extractHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeExtractionFailed, "HTML 解析失败", err)
	}
	doc.Find("script, style").Remove()
	return doc.Text(), nil
}
