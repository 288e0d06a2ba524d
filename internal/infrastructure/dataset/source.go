package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/kirillkom/tce-search/internal/core/domain"
	"github.com/kirillkom/tce-search/internal/core/ports"
	"github.com/kirillkom/tce-search/internal/infrastructure/resilience"
)

// Source loads a dataset from a locator. postgres:// and sqlite:// locators
// are read as tables; anything else is fetched and parsed as CSV, or as a
// workbook when the path ends in .xlsx.
type Source struct {
	fetcher      ports.ResourceFetcher
	executor     *resilience.Executor
	queryTimeout time.Duration
	openDB       func(driver, dsn string) (*sql.DB, error)
	now          func() time.Time
}

type Options struct {
	QueryTimeout time.Duration
	Executor     *resilience.Executor
}

func NewSource(fetcher ports.ResourceFetcher, options Options) *Source {
	timeout := options.QueryTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Source{
		fetcher:      fetcher,
		executor:     options.Executor,
		queryTimeout: timeout,
		openDB:       sql.Open,
		now:          time.Now,
	}
}

func (s *Source) Load(ctx context.Context, locator string) (*domain.Dataset, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return nil, domain.Errorf(domain.ErrInvalidInput, "load dataset", "empty locator")
	}

	sl, isSQL, err := parseSQLLocator(locator)
	if err != nil {
		return nil, err
	}
	if isSQL {
		return s.loadSQL(ctx, locator, sl)
	}

	res, err := s.fetcher.Fetch(ctx, locator)
	if err != nil {
		return nil, domain.WrapError(domain.ErrSourceUnavailable, "fetch dataset "+locator, err)
	}

	loadedAt := s.now().UTC()
	if formatOf(locator) == ".xlsx" {
		return parseXLSX(locator, res.Data, loadedAt)
	}
	return parseCSV(locator, res.Data, loadedAt)
}

func (s *Source) loadSQL(ctx context.Context, locator string, sl sqlLocator) (*domain.Dataset, error) {
	display := redact(locator)

	return resilience.ExecuteValue(ctx, s.executor, "dataset:"+sl.driver, func(callCtx context.Context) (*domain.Dataset, error) {
		callCtx, cancel := context.WithTimeout(callCtx, s.queryTimeout)
		defer cancel()

		db, err := s.openDB(sl.driver, sl.dsn)
		if err != nil {
			return nil, domain.WrapError(domain.ErrSourceUnavailable, "open "+display, err)
		}
		defer func() { _ = db.Close() }()

		ds, err := readTable(callCtx, db, display, sl.table, s.now().UTC())
		if err != nil && callCtx.Err() != nil {
			return nil, domain.WrapError(domain.ErrTimeout, fmt.Sprintf("load %s", display), err)
		}
		return ds, err
	}, nil)
}

func formatOf(locator string) string {
	p := locator
	if u, err := url.Parse(locator); err == nil && u.Path != "" {
		p = u.Path
	}
	return strings.ToLower(path.Ext(p))
}

func redact(locator string) string {
	u, err := url.Parse(locator)
	if err != nil {
		return locator
	}
	return u.Redacted()
}
