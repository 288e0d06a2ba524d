package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kirillkom/tce-search/internal/core/domain"
	"github.com/kirillkom/tce-search/internal/infrastructure/resilience"
)

const defaultMaxBytes = 32 << 20

// HTTPFetcher performs bounded GET requests for http(s) locators.
type HTTPFetcher struct {
	httpClient *http.Client
	timeout    time.Duration
	maxBytes   int64
	executor   *resilience.Executor
}

type Options struct {
	Timeout  time.Duration
	MaxBytes int64
	Executor *resilience.Executor
	Client   *http.Client
}

func NewHTTPFetcher(options Options) *HTTPFetcher {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxBytes := options.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	client := options.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPFetcher{
		httpClient: client,
		timeout:    timeout,
		maxBytes:   maxBytes,
		executor:   options.Executor,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, locator string) (*domain.Resource, error) {
	u, err := url.Parse(locator)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, domain.Errorf(domain.ErrInvalidInput, "http fetch", "unsupported locator %q", locator)
	}

	res, err := resilience.ExecuteValue(ctx, f.executor, "fetch:"+u.Host, func(callCtx context.Context) (*domain.Resource, error) {
		return f.get(callCtx, locator)
	}, classifyFetchError)
	if err != nil {
		return nil, wrapFetchError(locator, err)
	}
	return res, nil
}

func (f *HTTPFetcher) get(ctx context.Context, locator string) (*domain.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, fmt.Errorf("create fetch request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &HTTPStatusError{
			Locator:    locator,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read fetch body: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", errTooLarge, locator, f.maxBytes)
	}

	return &domain.Resource{
		Locator:     locator,
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

var errTooLarge = errors.New("resource too large")
