package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/kirillkom/tce-search/internal/core/domain"
)

const positionColumn = "position"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// sqlLocator is a parsed postgres:// or sqlite:// dataset locator. The
// fragment names the table, e.g. sqlite:///data/tce.db#syntax.
type sqlLocator struct {
	driver string
	dsn    string
	table  string
}

func parseSQLLocator(locator string) (sqlLocator, bool, error) {
	scheme, _, found := strings.Cut(locator, "://")
	if !found {
		return sqlLocator{}, false, nil
	}
	var driver string
	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		driver = "pgx"
	case "sqlite":
		driver = "sqlite"
	default:
		return sqlLocator{}, false, nil
	}

	dsn, table, _ := strings.Cut(locator, "#")
	if !tableNamePattern.MatchString(table) {
		return sqlLocator{}, true, domain.Errorf(domain.ErrInvalidInput, "parse sql locator", "invalid or missing table name %q", table)
	}
	if driver == "sqlite" {
		dsn = strings.TrimPrefix(dsn, scheme+"://")
	}
	return sqlLocator{driver: driver, dsn: dsn, table: table}, true, nil
}

// readTable runs SELECT * against the table and returns rows as strings.
// NULL becomes "".
func readTable(ctx context.Context, db *sql.DB, source, table string, loadedAt time.Time) (*domain.Dataset, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT * FROM "%s"`, table))
	if err != nil {
		return nil, domain.WrapError(domain.ErrSourceUnavailable, "query "+table, err)
	}
	defer func() { _ = rows.Close() }()

	header, err := rows.Columns()
	if err != nil {
		return nil, domain.WrapError(domain.ErrSourceUnavailable, "read columns "+table, err)
	}

	var out [][]string
	for rows.Next() {
		cells := make([]sql.NullString, len(header))
		dest := make([]any, len(header))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, domain.WrapError(domain.ErrSchemaInvalid, "scan "+table, err)
		}
		row := make([]string, len(cells))
		for i, c := range cells {
			if c.Valid {
				row[i] = c.String
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrSourceUnavailable, "iterate "+table, err)
	}
	sortByPosition(header, out)
	return buildDataset(source, header, out, loadedAt)
}

// sortByPosition restores record order for mirrored tables, which carry an
// explicit position column; SELECT * guarantees no order.
func sortByPosition(header []string, rows [][]string) {
	col := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), positionColumn) {
			col = i
			break
		}
	}
	if col < 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, _ := strconv.Atoi(rows[i][col])
		b, _ := strconv.Atoi(rows[j][col])
		return a < b
	})
}
