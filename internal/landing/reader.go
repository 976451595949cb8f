package landing

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// table is a parsed delimited file: normalized header names and rows
// padded or truncated to the header width.
type table struct {
	encoding string
	header   []string
	index    map[string]int
	rows     [][]string
	warnings []string
}

// get returns the cell for column in row, or nil when the cell is empty.
func (t *table) get(row []string, column string) *string {
	i, ok := t.index[column]
	if !ok {
		return nil
	}
	v := row[i]
	if v == "" {
		return nil
	}
	return &v
}

func (t *table) missing(required []string) []string {
	var out []string
	for _, c := range required {
		if _, ok := t.index[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}

func parse(data []byte, delimiter string) (*table, error) {
	decoded, enc, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	comma, _ := utf8.DecodeRuneInString(delimiter)
	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty file: no header row found")
		}
		return nil, fmt.Errorf("read header row: %w", err)
	}

	t := &table{encoding: enc, index: make(map[string]int, len(header))}
	for i, h := range header {
		h = strings.ToLower(strings.Trim(strings.TrimSpace(h), `"`))
		t.header = append(t.header, h)
		t.index[h] = i
	}

	width := len(header)
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			t.warnings = append(t.warnings, fmt.Sprintf("row %d: parse error: %v", line, err))
			continue
		}

		switch {
		case len(row) < width:
			t.warnings = append(t.warnings, fmt.Sprintf("row %d: %d columns, expected %d; padded", line, len(row), width))
			padded := make([]string, width)
			copy(padded, row)
			row = padded
		case len(row) > width:
			t.warnings = append(t.warnings, fmt.Sprintf("row %d: %d columns, expected %d; truncated", line, len(row), width))
			row = row[:width]
		}
		t.rows = append(t.rows, row)
	}

	return t, nil
}
