package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadCSV reads classification rows from the CSV file at path and delegates
// to LoadCSVReader. The expected schema is
// `code,name,source,validationStatus`, one row per entry, with an optional
// header row.
func LoadCSV(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadCSVReader(f)
}

// LoadCSVReader reads classification rows from r. A first row whose status
// column is not a recognized validation status is treated as a header and
// skipped; any later row with an unknown status is a hard error, since a
// silently mis-parsed reference table is worse than a failed load.
func LoadCSVReader(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4
	cr.TrimLeadingSpace = true

	var out []Entry
	row := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("catalog csv row %d: %w", row+1, err)
		}
		row++

		status, ok := ParseStatus(rec[3])
		if !ok {
			if row == 1 {
				// header row
				continue
			}
			return nil, fmt.Errorf("catalog csv row %d: unknown validation status %q", row, rec[3])
		}
		out = append(out, Entry{
			Code:   strings.TrimSpace(rec[0]),
			Name:   strings.TrimSpace(rec[1]),
			Source: strings.TrimSpace(rec[2]),
			Status: status,
		})
	}
	return out, nil
}
