package fetch

import (
	"context"
	"net/url"
	"strings"

	"github.com/kirillkom/tce-search/internal/core/domain"
	"github.com/kirillkom/tce-search/internal/core/ports"
)

// Mux routes a locator to the fetcher registered for its scheme. Locators
// without a scheme are treated as file paths.
type Mux struct {
	schemes map[string]ports.ResourceFetcher
}

func NewMux() *Mux {
	return &Mux{schemes: make(map[string]ports.ResourceFetcher)}
}

func (m *Mux) Handle(scheme string, fetcher ports.ResourceFetcher) *Mux {
	m.schemes[strings.ToLower(scheme)] = fetcher
	return m
}

func (m *Mux) Fetch(ctx context.Context, locator string) (*domain.Resource, error) {
	scheme := "file"
	if u, err := url.Parse(locator); err == nil && len(u.Scheme) > 1 {
		scheme = strings.ToLower(u.Scheme)
	}
	fetcher, ok := m.schemes[scheme]
	if !ok {
		return nil, domain.Errorf(domain.ErrInvalidInput, "fetch", "no fetcher for scheme %q in %q", scheme, locator)
	}
	return fetcher.Fetch(ctx, locator)
}
