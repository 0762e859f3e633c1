// Package csvgrid turns the bytes of an exported CSV file into a teammates.Grid.
package csvgrid

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mind-engage/gradeassist/internal/teammates"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// ErrUnterminatedQuote is returned when a quoted field is still open at the
// end of the input, which would otherwise swallow every later row.
var ErrUnterminatedQuote = errors.New("unterminated quoted field")

// Decode reads a CSV export into rows of cells. Unlike csv.Reader it keeps
// blank lines as empty rows, since section boundaries in the export are
// marked by them. Quotes inside unquoted cells are kept literally.
func Decode(r io.Reader) (teammates.Grid, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	data = bytes.TrimPrefix(data, bom)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var (
		grid     teammates.Grid
		lastLine int // physical line the previous record ended on
		counted  int // bytes of data whose newlines are in lines
		lines    int
	)
	for {
		start := cr.InputOffset()
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse export: %w", err)
		}
		end := cr.InputOffset()
		if end == int64(len(data)) && openQuote(data[start:end]) {
			line, _ := cr.FieldPos(len(rec) - 1)
			return nil, fmt.Errorf("%w starting on line %d", ErrUnterminatedQuote, line)
		}

		first, _ := cr.FieldPos(0)
		for l := lastLine + 1; l < first; l++ {
			grid = append(grid, []string{})
		}
		grid = append(grid, row(rec))

		lines += bytes.Count(data[counted:end], []byte{'\n'})
		counted = int(end)
		lastLine = lines
		if end > 0 && data[end-1] != '\n' {
			lastLine++
		}
	}

	total := bytes.Count(data, []byte{'\n'})
	if len(data) > 0 && data[len(data)-1] != '\n' {
		total++
	}
	for l := lastLine + 1; l <= total; l++ {
		grid = append(grid, []string{})
	}
	return grid, nil
}

// row maps a whitespace-only line to an empty row.
func row(rec []string) []string {
	if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
		return []string{}
	}
	return rec
}

// openQuote reports whether raw ends inside a quoted field, following the
// same lazy-quote rules as csv.Reader: a quote only opens a field when it is
// the field's first byte, and only closes it before a comma, a line break or
// the end of input.
func openQuote(raw []byte) bool {
	inQuote, fieldStart := false, true
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case inQuote:
			if c != '"' {
				continue
			}
			if i+1 < len(raw) && raw[i+1] == '"' {
				i++
				continue
			}
			if i+1 == len(raw) || raw[i+1] == ',' || raw[i+1] == '\n' || raw[i+1] == '\r' {
				inQuote = false
				fieldStart = false
			}
		case c == '"' && fieldStart:
			inQuote = true
			fieldStart = false
		case c == ',' || c == '\n':
			fieldStart = true
		default:
			fieldStart = false
		}
	}
	return inQuote
}
