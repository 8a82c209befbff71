package extractor

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVExtractor flattens tabular data into "header: value" lines, one row
// per paragraph, so rows remain searchable as prose.
type CSVExtractor struct{}

func (e *CSVExtractor) Extract(r io.Reader, filename string) (string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read csv header: %w", err)
	}

	var rows []string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read csv row: %w", err)
		}
		var fields []string
		for i, value := range record {
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
			name := fmt.Sprintf("column %d", i+1)
			if i < len(header) && strings.TrimSpace(header[i]) != "" {
				name = strings.TrimSpace(header[i])
			}
			fields = append(fields, name+": "+value)
		}
		if len(fields) > 0 {
			rows = append(rows, strings.Join(fields, "\n"))
		}
	}
	return strings.Join(rows, "\n\n"), nil
}
