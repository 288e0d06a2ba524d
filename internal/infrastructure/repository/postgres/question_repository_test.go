package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/tce-search/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*QuestionRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &QuestionRepository{db: db}, mock, func() { _ = db.Close() }
}

func expectRecreate(mock sqlmock.Sqlmock, table, ddl string) {
	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").WithArgs(schemaLockKey).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "` + table + `"`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(ddl).WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestReplaceAllRejectsUnsafeName(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	ds := &domain.Dataset{Columns: []string{domain.ColumnYear}}
	_, err := repo.ReplaceAll(context.Background(), `syntax"; DROP TABLE x; --`, ds)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expected no statements, got %v", err)
	}
}

func TestReplaceAllRejectsDatasetWithoutYear(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	ds := &domain.Dataset{Source: "mem://x.csv", Columns: []string{domain.ColumnKeywords}}
	_, err := repo.ReplaceAll(context.Background(), "syntax", ds)
	if !domain.IsKind(err, domain.ErrSchemaInvalid) {
		t.Fatalf("expected ErrSchemaInvalid, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expected no statements, got %v", err)
	}
}

func TestReplaceAllInsertsRecordsInOrder(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	ds := &domain.Dataset{
		Columns: []string{domain.ColumnYear, domain.ColumnKeywords, domain.ColumnText, domain.ColumnFilename},
		Records: []domain.Record{
			{Index: 0, Year: "2019", Keywords: "binding", Filename: "2019.png"},
			{Index: 1, Year: "2020", Keywords: "raising", Text: "Read the passage."},
		},
	}

	expectRecreate(mock, "syntax", `CREATE TABLE "syntax" \(\s*position INTEGER PRIMARY KEY,\s*year TEXT NOT NULL,\s*keywords TEXT,\s*text TEXT,\s*filename TEXT\s*\)`)
	prep := mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO "syntax" (position, year, keywords, text, filename) VALUES ($1,$2,$3,$4,$5)`))
	prep.ExpectExec().WithArgs(0, "2019", "binding", "", "2019.png").WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs(1, "2020", "raising", "Read the passage.", "").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := repo.ReplaceAll(context.Background(), "syntax", ds)
	if err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReplaceAllMirrorsOnlyPresentColumns(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	ds := &domain.Dataset{
		Columns: []string{domain.ColumnYear, domain.ColumnKeywords},
		Records: []domain.Record{{Index: 0, Year: "2020", Keywords: "tense"}},
	}

	expectRecreate(mock, "grammar", `CREATE TABLE "grammar" \(\s*position INTEGER PRIMARY KEY,\s*year TEXT NOT NULL,\s*keywords TEXT\s*\)$`)
	mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO "grammar" (position, year, keywords) VALUES ($1,$2,$3)`)).
		ExpectExec().WithArgs(0, "2020", "tense").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if _, err := repo.ReplaceAll(context.Background(), "grammar", ds); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReplaceAllRollsBackOnInsertFailure(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	ds := &domain.Dataset{Columns: []string{domain.ColumnYear}, Records: []domain.Record{{Index: 0, Year: "2019"}}}

	expectRecreate(mock, "syntax", `CREATE TABLE "syntax"`)
	mock.ExpectPrepare(`INSERT INTO "syntax"`).ExpectExec().WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	if _, err := repo.ReplaceAll(context.Background(), "syntax", ds); err == nil {
		t.Fatal("expected insert failure")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
