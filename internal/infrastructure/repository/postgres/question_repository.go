package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/tce-search/internal/core/domain"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// schemaLockKey serializes table DDL across concurrent exports.
const schemaLockKey = int64(2026101401)

// QuestionRepository mirrors a loaded dataset into a postgres table that the
// SQL dataset source can read back with a postgres://...#table locator.
type QuestionRepository struct {
	db *sql.DB
}

func NewQuestionRepository(db *sql.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// mirrorColumns lists the dataset columns the mirror table carries, in table
// order. Columns the dataset lacks stay absent.
func mirrorColumns(ds *domain.Dataset) []string {
	cols := []string{domain.ColumnYear}
	for _, c := range []string{domain.ColumnKeywords, domain.ColumnText, domain.ColumnFilename} {
		if ds.HasColumn(c) {
			cols = append(cols, c)
		}
	}
	return cols
}

func recordValue(rec domain.Record, column string) string {
	switch column {
	case domain.ColumnYear:
		return rec.Year
	case domain.ColumnKeywords:
		return rec.Keywords
	case domain.ColumnText:
		return rec.Text
	default:
		return rec.Filename
	}
}

// ReplaceAll recreates the table with the dataset's columns and fills it in
// one transaction, so readers never see a partial mirror. DDL runs under an
// advisory lock shared by concurrent exports.
func (r *QuestionRepository) ReplaceAll(ctx context.Context, table string, ds *domain.Dataset) (int, error) {
	if !tableNamePattern.MatchString(table) {
		return 0, domain.Errorf(domain.ErrInvalidInput, "replace questions", "invalid table name %q", table)
	}
	if ds == nil {
		return 0, domain.Errorf(domain.ErrInvalidInput, "replace questions", "dataset is nil")
	}
	if !ds.HasColumn(domain.ColumnYear) {
		return 0, &domain.SchemaError{Source: ds.Source, Missing: []string{domain.ColumnYear}}
	}
	cols := mirrorColumns(ds)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin replace tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockKey); err != nil {
		return 0, fmt.Errorf("acquire schema lock: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS "%s"`, table)); err != nil {
		return 0, fmt.Errorf("drop %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, createTableDDL(table, cols)); err != nil {
		return 0, fmt.Errorf("create %s: %w", table, err)
	}

	placeholders := make([]string, 0, len(cols)+1)
	for i := 0; i <= len(cols); i++ {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO "%s" (position, %s) VALUES (%s)`,
		table, strings.Join(cols, ", "), strings.Join(placeholders, ",")))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	args := make([]any, len(cols)+1)
	for _, rec := range ds.Records {
		args[0] = rec.Index
		for i, c := range cols {
			args[i+1] = recordValue(rec, c)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("insert question %d: %w", rec.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit replace tx: %w", err)
	}
	return len(ds.Records), nil
}

func createTableDDL(table string, cols []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE \"%s\" (\n\tposition INTEGER PRIMARY KEY", table)
	for _, c := range cols {
		b.WriteString(",\n\t" + c + " TEXT")
		if c == domain.ColumnYear {
			b.WriteString(" NOT NULL")
		}
	}
	b.WriteString("\n)")
	return b.String()
}
