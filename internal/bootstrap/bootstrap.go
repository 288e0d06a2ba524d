package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/tce-search/internal/config"
	"github.com/kirillkom/tce-search/internal/core/domain"
	"github.com/kirillkom/tce-search/internal/core/ports"
	"github.com/kirillkom/tce-search/internal/core/usecase"
	"github.com/kirillkom/tce-search/internal/infrastructure/dataset"
	"github.com/kirillkom/tce-search/internal/infrastructure/fetch"
	"github.com/kirillkom/tce-search/internal/infrastructure/queue/nats"
	"github.com/kirillkom/tce-search/internal/infrastructure/recordstore"
	"github.com/kirillkom/tce-search/internal/infrastructure/resilience"
	"github.com/kirillkom/tce-search/internal/infrastructure/session"
	"github.com/kirillkom/tce-search/internal/infrastructure/storage/localfs"
)

type App struct {
	Config  config.Config
	Domains []domain.SubjectDomain

	Records  *recordstore.Store
	Sessions *session.Manager
	ExamUC   ports.ExamSearchService

	closeFn func()
}

func New(_ context.Context, cfg config.Config) (*App, error) {
	domains, err := config.LoadDomains(cfg.DomainsFile)
	if err != nil {
		return nil, fmt.Errorf("load domain catalog: %w", err)
	}

	archive, err := localfs.New(cfg.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("init local archive: %w", err)
	}

	datasetExecutor := resilience.NewExecutor(datasetPolicy(cfg))
	imageExecutor := resilience.NewExecutor(imagePolicy(cfg))

	datasetFetcher := newFetchMux(archive, fetch.NewHTTPFetcher(fetch.Options{
		Timeout:  cfg.FetchTimeout,
		MaxBytes: cfg.FetchMaxBytes,
		Executor: datasetExecutor,
	}))
	imageFetcher := newFetchMux(archive, fetch.NewHTTPFetcher(fetch.Options{
		Timeout:  cfg.FetchTimeout,
		MaxBytes: cfg.FetchMaxBytes,
		Executor: imageExecutor,
	}))

	source := dataset.NewSource(datasetFetcher, dataset.Options{
		QueryTimeout: cfg.SQLQueryTimeout,
		Executor:     datasetExecutor,
	})
	records := recordstore.New(source, cfg.DatasetCacheTTL)
	sessions := session.NewManager(cfg.SessionMax, cfg.SessionIdleTTL)

	var publisher ports.SearchEventPublisher
	closeFn := func() {}
	if cfg.NATSURL != "" {
		pub, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: resilience.NewExecutor(datasetPolicy(cfg)),
		})
		if err != nil {
			return nil, fmt.Errorf("init search event publisher: %w", err)
		}
		publisher = pub
		closeFn = pub.Close
	} else {
		slog.Info("search_events_disabled", "reason", "NATS_URL is empty")
	}

	examUC := usecase.NewExamUseCase(domains, records, imageFetcher, publisher)

	return &App{
		Config:  cfg,
		Domains: domains,

		Records:  records,
		Sessions: sessions,
		ExamUC:   examUC,

		closeFn: closeFn,
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func newFetchMux(archive *localfs.Archive, web *fetch.HTTPFetcher) *fetch.Mux {
	return fetch.NewMux().
		Handle("file", archive).
		Handle("http", web).
		Handle("https", web)
}

func datasetPolicy(cfg config.Config) resilience.Config {
	policy := resilience.DatasetConfig()
	if cfg.ResilienceRetryMaxAttempts > 0 {
		policy.Retry.MaxAttempts = cfg.ResilienceRetryMaxAttempts
	}
	policy.Breaker.Enabled = cfg.ResilienceBreakerEnabled
	if cfg.ResilienceBreakerOpenTimeout > 0 {
		policy.Breaker.OpenTimeout = cfg.ResilienceBreakerOpenTimeout
	}
	if cfg.ResilienceBreakerMinRequests > 0 {
		policy.Breaker.MinRequests = uint32(cfg.ResilienceBreakerMinRequests)
	}
	if cfg.ResilienceBreakerFailureRatio > 0 {
		policy.Breaker.FailureRatio = cfg.ResilienceBreakerFailureRatio
	}
	return policy
}

// imagePolicy never retries; the resolver's candidate list is the retry loop.
func imagePolicy(cfg config.Config) resilience.Config {
	policy := resilience.ImageConfig()
	policy.Breaker.Enabled = cfg.ResilienceBreakerEnabled
	if cfg.ResilienceImageTripFailures > 0 {
		policy.Breaker.ConsecutiveFailures = uint32(cfg.ResilienceImageTripFailures)
	}
	if cfg.ResilienceImageOpenTimeout > 0 {
		policy.Breaker.OpenTimeout = cfg.ResilienceImageOpenTimeout
	}
	return policy
}
