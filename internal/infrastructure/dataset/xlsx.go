package dataset

import (
	"bytes"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/tce-search/internal/core/domain"
)

// parseXLSX reads the first sheet of a workbook; its first row is the header.
func parseXLSX(source string, data []byte, loadedAt time.Time) (*domain.Dataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, domain.WrapError(domain.ErrSchemaInvalid, "open xlsx "+source, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &domain.SchemaError{Source: source, Missing: knownColumns}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, domain.WrapError(domain.ErrSchemaInvalid, "read xlsx sheet "+sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, &domain.SchemaError{Source: source, Missing: knownColumns}
	}
	return buildDataset(source, rows[0], rows[1:], loadedAt)
}
