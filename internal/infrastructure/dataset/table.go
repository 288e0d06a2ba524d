package dataset

import (
	"strings"
	"time"

	"github.com/kirillkom/tce-search/internal/core/domain"
)

const utf8BOM = "\ufeff"

var knownColumns = []string{
	domain.ColumnYear,
	domain.ColumnKeywords,
	domain.ColumnText,
	domain.ColumnFilename,
}

// buildDataset maps a header row onto the canonical columns and coerces every
// cell to a string. Absent cells become "". Only the year column is mandatory
// here; mode columns are checked when a search needs them.
func buildDataset(source string, header []string, rows [][]string, loadedAt time.Time) (*domain.Dataset, error) {
	index := make(map[string]int, len(knownColumns))
	for i, name := range header {
		canonical := canonicalColumn(name)
		if !isKnownColumn(canonical) {
			continue
		}
		if _, dup := index[canonical]; !dup {
			index[canonical] = i
		}
	}
	if _, ok := index[domain.ColumnYear]; !ok {
		return nil, &domain.SchemaError{Source: source, Missing: []string{domain.ColumnYear}}
	}

	columns := make([]string, 0, len(index))
	for _, c := range knownColumns {
		if _, ok := index[c]; ok {
			columns = append(columns, c)
		}
	}

	records := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		if isBlankRow(row) {
			continue
		}
		cell := func(column string) string {
			i, ok := index[column]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}
		records = append(records, domain.Record{
			Index:    len(records),
			Year:     cell(domain.ColumnYear),
			Keywords: cell(domain.ColumnKeywords),
			Text:     cell(domain.ColumnText),
			Filename: cell(domain.ColumnFilename),
		})
	}

	return &domain.Dataset{
		Source:   source,
		Columns:  columns,
		Records:  records,
		LoadedAt: loadedAt,
	}, nil
}

func canonicalColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, utf8BOM)))
}

func isKnownColumn(name string) bool {
	for _, c := range knownColumns {
		if c == name {
			return true
		}
	}
	return false
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
