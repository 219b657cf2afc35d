// Package csvfile parses help desk CSV exports into raw records for
// normalization. The parser is deliberately forgiving: exports come from a
// third-party system and occasionally carry ragged rows or a UTF-8 BOM.
package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/ca-vahid/agent-analytics/internal/core/domain"
	apperrors "github.com/ca-vahid/agent-analytics/internal/core/errors"
)

// Parse reads a CSV export into raw records keyed by header name. The first
// row is the header. Rows shorter than the header leave the missing fields
// absent; rows longer than the header drop the excess cells.
func Parse(r io.Reader) ([]domain.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, apperrors.ErrEmptyUpload
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedCSV, err)
	}
	header = cleanHeader(header)

	var records []domain.RawRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", apperrors.ErrMalformedCSV, len(records)+2, err)
		}

		record := make(domain.RawRecord, len(header))
		for i, cell := range row {
			if i >= len(header) {
				break
			}
			record[header[i]] = strings.TrimSpace(cell)
		}
		records = append(records, record)
	}
	return records, nil
}

// cleanHeader trims whitespace and strips the UTF-8 BOM some exports prepend
// to the first column name.
func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		out[i] = h
	}
	return out
}
