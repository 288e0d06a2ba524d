package usecase

import (
	"context"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/kirillkom/tce-search/internal/core/domain"
	"github.com/kirillkom/tce-search/internal/core/ports"
)

const defaultImageExtension = ".png"

var imageExtensions = []string{".png", ".jpg", ".jpeg"}

// Resolver turns a stored filename into a fetched image by probing an ordered
// list of filename variants against one base locator.
type Resolver struct {
	fetcher ports.ResourceFetcher
}

func NewResolver(fetcher ports.ResourceFetcher) *Resolver {
	return &Resolver{fetcher: fetcher}
}

// Resolve returns on the first candidate that fetches successfully. When all
// candidates fail it returns a *domain.ResolveError listing every attempt.
func (r *Resolver) Resolve(ctx context.Context, baseLocator, storedFilename string) (*domain.ResolvedImage, error) {
	names, err := CandidateFilenames(storedFilename)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(baseLocator) == "" {
		return nil, domain.Errorf(domain.ErrInvalidInput, "resolve", "image base locator is empty")
	}

	candidates := make([]string, 0, len(names))
	for _, name := range names {
		candidates = append(candidates, CandidateLocator(baseLocator, name))
	}

	var lastErr error
	for i, locator := range candidates {
		res, err := r.fetcher.Fetch(ctx, locator)
		if err != nil {
			slog.Debug("resolve_candidate_failed", "candidate", locator, "attempt", i+1, "error", err)
			lastErr = err
			continue
		}
		return &domain.ResolvedImage{
			Locator:     locator,
			ContentType: res.ContentType,
			Size:        len(res.Data),
			Candidates:  candidates[:i+1],
			Data:        res.Data,
		}, nil
	}

	slog.Warn("resolve_exhausted", "filename", storedFilename, "candidates", len(candidates), "error", lastErr)
	return nil, &domain.ResolveError{
		Filename:   storedFilename,
		Candidates: candidates,
		Last:       lastErr,
	}
}

// CandidateFilenames sanitizes a stored filename and expands it into the
// ordered, deduplicated variants worth probing:
//
//  1. the sanitized name
//  2. spaces replaced with underscores
//  3. lower and upper casing of a recognized image extension, per variant
//  4. the default extension appended when none is recognized
func CandidateFilenames(stored string) ([]string, error) {
	name := SanitizeFilename(stored)
	if isMissingFilename(name) {
		return nil, domain.Errorf(domain.ErrMissingFilename, "resolve", "no image filename found for this item")
	}

	base := []string{name}
	if strings.Contains(name, " ") {
		base = append(base, strings.ReplaceAll(name, " ", "_"))
	}

	out := make([]string, 0, len(base)*3)
	seen := make(map[string]struct{}, len(base)*3)
	add := func(v string) {
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	for _, v := range base {
		add(v)
	}
	for _, v := range base {
		ext := path.Ext(v)
		if !isImageExtension(ext) {
			add(v + defaultImageExtension)
			continue
		}
		stem := strings.TrimSuffix(v, ext)
		add(stem + strings.ToLower(ext))
		add(stem + strings.ToUpper(ext))
	}
	return out, nil
}

// SanitizeFilename keeps only the final path segment of a stored filename.
func SanitizeFilename(stored string) string {
	name := strings.TrimSpace(stored)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSpace(name)
}

// CandidateLocator joins base and a URL-escaped filename.
func CandidateLocator(base, filename string) string {
	return strings.TrimRight(strings.TrimSpace(base), "/") + "/" + url.PathEscape(filename)
}

func isMissingFilename(name string) bool {
	switch strings.ToLower(name) {
	case "", "nan", "none":
		return true
	default:
		return false
	}
}

func isImageExtension(ext string) bool {
	for _, known := range imageExtensions {
		if strings.EqualFold(ext, known) {
			return true
		}
	}
	return false
}
