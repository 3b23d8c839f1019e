package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// WriteCSV renders header plus rows in schema order. encoding/csv applies
// RFC 4180 quoting, so values with embedded commas, quotes or newlines
// round-trip through any standard CSV reader. Output is deterministic.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range rows {
		if err := cw.Write(r.Values()); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r.Number, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// CSVString renders rows to a single CSV document.
func CSVString(rows []Row) (string, error) {
	var b strings.Builder
	if err := WriteCSV(&b, rows); err != nil {
		return "", err
	}
	return b.String(), nil
}
