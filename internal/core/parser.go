package core

import (
	"bytes"
	"encoding/csv"
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Column names recognized in uploaded files. Matching is exact and
// case-sensitive. A missing numeric column defaults every row to 0; a
// missing name/type column defaults to the empty string. This is permissive
// defaulting, not a validation failure.
const (
	ColumnName        = "Equipment Name"
	ColumnType        = "Equipment Type"
	ColumnFlowrate    = "Flowrate"
	ColumnPressure    = "Pressure"
	ColumnTemperature = "Temperature"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// headerIndex maps column names to their position in the header row.
// First occurrence wins for duplicated headers.
type headerIndex map[string]int

// ParseRecords turns raw CSV content into typed equipment records, preserving
// input row order. The first row is the header. Parsing is all-or-nothing:
// any cell in a present numeric column that does not parse as a float fails
// the whole operation with *ParseError. Content without data rows fails with
// *EmptyInputError.
func ParseRecords(content []byte) ([]EquipmentRecord, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	content = sanitizeUTF8(content)

	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		var csvErr *csv.ParseError
		if errors.As(err, &csvErr) {
			return nil, &ParseError{Line: csvErr.Line, Value: csvErr.Err.Error()}
		}
		return nil, &ParseError{Line: 0, Value: err.Error()}
	}

	if len(rows) == 0 {
		return nil, &EmptyInputError{Reason: "no content"}
	}

	idx := makeHeaderIndex(rows[0])
	dataRows := rows[1:]
	if len(dataRows) == 0 {
		return nil, &EmptyInputError{Reason: "no data rows after header"}
	}

	records := make([]EquipmentRecord, 0, len(dataRows))
	for i, row := range dataRows {
		// CSV line number, 1-indexed with the header as line 1.
		// encoding/csv already skips fully blank lines.
		line := i + 2

		rec := EquipmentRecord{
			EquipmentName: textCell(row, idx, ColumnName),
			EquipmentType: textCell(row, idx, ColumnType),
		}

		if rec.Flowrate, err = numericCell(row, idx, ColumnFlowrate, line); err != nil {
			return nil, err
		}
		if rec.Pressure, err = numericCell(row, idx, ColumnPressure, line); err != nil {
			return nil, err
		}
		if rec.Temperature, err = numericCell(row, idx, ColumnTemperature, line); err != nil {
			return nil, err
		}

		records = append(records, rec)
	}

	return records, nil
}

func makeHeaderIndex(header []string) headerIndex {
	idx := make(headerIndex, len(header))
	for i, h := range header {
		if _, seen := idx[h]; !seen {
			idx[h] = i
		}
	}
	return idx
}

// textCell returns the named cell, or "" when the column is absent or the
// row is too short.
func textCell(row []string, idx headerIndex, name string) string {
	pos, ok := idx[name]
	if !ok || pos >= len(row) {
		return ""
	}
	return row[pos]
}

// numericCell parses the named cell as a float. An absent column or short
// row defaults to 0; a present cell that does not parse (including an empty
// cell) is a ParseError. ParseFloat accepts "NaN" and "Inf" spellings, but
// non-finite values would poison every downstream aggregate and cannot be
// JSON-encoded, so they are rejected too.
func numericCell(row []string, idx headerIndex, name string, line int) (float64, error) {
	pos, ok := idx[name]
	if !ok || pos >= len(row) {
		return 0, nil
	}

	raw := row[pos]
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ParseError{Line: line, Field: name, Value: raw}
	}
	return v, nil
}

// sanitizeUTF8 replaces invalid UTF-8 sequences with the replacement
// character so the CSV reader never chokes on mis-encoded exports.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}
