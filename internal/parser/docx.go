package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Body paragraphs come first in document
// order, then table cells row by row, one per line.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read docx: %w", err)
	}

	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}

	var lines []string
	var tables []*docx.Table
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			if text := docxParagraphText(it); text != "" {
				lines = append(lines, text)
			}
		case *docx.Table:
			tables = append(tables, it)
		}
	}
	for _, tbl := range tables {
		lines = append(lines, docxTableCells(tbl)...)
	}
	return strings.Join(lines, "\n"), nil
}

func docxTableCells(tbl *docx.Table) []string {
	var cells []string
	for _, row := range tbl.TableRows {
		for _, cell := range row.TableCells {
			var paras []string
			for _, para := range cell.Paragraphs {
				if text := docxParagraphText(para); text != "" {
					paras = append(paras, text)
				}
			}
			if len(paras) > 0 {
				cells = append(cells, strings.Join(paras, "\n"))
			}
		}
	}
	return cells
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
