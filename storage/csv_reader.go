package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// naValues are cell contents treated as missing. "none" is kept: it is a
// meaningful parking value.
var naValues = map[string]bool{
	"":     true,
	"n/a":  true,
	"na":   true,
	"null": true,
	"-":    true,
	"nan":  true,
}

// CSVRows is the parsed content of a spreadsheet export.
type CSVRows struct {
	Header []string
	Rows   []map[string]string
	// Malformed counts rows skipped because they could not be parsed or
	// had the wrong number of cells.
	Malformed int
}

// ReadCSV parses a spreadsheet export with a header row. Header names are
// trimmed and whitespace-collapsed; missing cells are left out of the row
// map so the normalizer sees them as absent. Rows with no values at all are
// skipped silently.
func ReadCSV(r io.Reader) (*CSVRows, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv: empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		header[i] = strings.Join(strings.Fields(h), " ")
	}

	out := &CSVRows{Header: header}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			out.Malformed++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read row: %w", err)
		}
		if len(record) != len(header) {
			out.Malformed++
			continue
		}

		row := make(map[string]string, len(header))
		for i, cell := range record {
			cell = strings.TrimSpace(cell)
			if header[i] == "" || naValues[strings.ToLower(cell)] {
				continue
			}
			row[header[i]] = cell
		}
		if len(row) > 0 {
			out.Rows = append(out.Rows, row)
		}
	}
	return out, nil
}
