package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/kirillkom/tce-search/internal/core/domain"
)

func parseCSV(source string, data []byte, loadedAt time.Time) (*domain.Dataset, error) {
	r := csv.NewReader(bufio.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte(utf8BOM)))))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, &domain.SchemaError{Source: source, Missing: knownColumns}
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrSchemaInvalid, "parse csv header "+source, err)
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, domain.WrapError(domain.ErrSchemaInvalid, fmt.Sprintf("parse csv %s", source), err)
	}
	return buildDataset(source, header, rows, loadedAt)
}
