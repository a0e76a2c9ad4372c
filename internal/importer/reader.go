package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat file extension is neither CSV nor a modern Excel workbook.
var ErrUnsupportedFormat = errors.New("unsupported file format (use .csv or .xlsx)")

// ErrEmptyFile no header row found.
var ErrEmptyFile = errors.New("file has no header row")

// Table header row plus data rows.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Preview first n data rows.
func (t *Table) Preview(n int) [][]string {
	if n < 0 || n > len(t.Rows) {
		n = len(t.Rows)
	}
	return t.Rows[:n]
}

// ReadFile dispatches on the file extension.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return ReadCSV(f)
	case ".xlsx", ".xlsm":
		return ReadExcel(f)
	default:
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedFormat)
	}
}

// ReadCSV reads a delimited file; the delimiter is detected from the header line.
func ReadCSV(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4096)
	if err != nil && err != io.EOF && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, err
	}
	firstLine := string(head)
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		firstLine = string(head[:i])
	}
	if strings.TrimSpace(firstLine) == "" {
		return nil, ErrEmptyFile
	}

	cr := csv.NewReader(br)
	cr.Comma = DetectDelimiter(firstLine)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}
	headers := records[0]
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}
	return &Table{Headers: trimAll(headers), Rows: records[1:]}, nil
}

// ReadExcel reads the first sheet of a workbook, first row as headers.
func ReadExcel(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	defer rows.Close()

	t := &Table{}
	for rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if t.Headers == nil {
			if len(cols) == 0 {
				continue
			}
			t.Headers = trimAll(cols)
			continue
		}
		t.Rows = append(t.Rows, cols)
	}
	if err := rows.Error(); err != nil {
		return nil, err
	}
	if t.Headers == nil {
		return nil, ErrEmptyFile
	}
	return t, nil
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}
