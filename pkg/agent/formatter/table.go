package formatter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Table is a parsed report: a header and data rows of equal width.
type Table struct {
	Header []string
	Rows   [][]string
}

// ParseCSV reads a delimited report payload. The first record is the header.
func ParseCSV(data string) (*Table, error) {
	data = strings.TrimPrefix(data, "\ufeff")
	r := csv.NewReader(strings.NewReader(data))
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty report")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	t := &Table{Header: header}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(t.Rows)+1, err)
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// Head returns at most n leading rows.
func (t *Table) Head(n int) [][]string {
	if len(t.Rows) <= n {
		return t.Rows
	}
	return t.Rows[:n]
}

// Markdown renders header and rows as a pipe table with a trailing newline.
func Markdown(header []string, rows [][]string) string {
	var sb strings.Builder
	writeRow(&sb, header)
	sb.WriteString("|")
	for range header {
		sb.WriteString(" --- |")
	}
	sb.WriteString("\n")
	for _, row := range rows {
		writeRow(&sb, row)
	}
	return sb.String()
}

var cellEscaper = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ")

func writeRow(sb *strings.Builder, cells []string) {
	sb.WriteString("|")
	for _, c := range cells {
		sb.WriteString(" ")
		sb.WriteString(cellEscaper.Replace(c))
		sb.WriteString(" |")
	}
	sb.WriteString("\n")
}
