package usecase

import (
	"strings"

	"github.com/kirillkom/tce-search/internal/core/domain"
)

// yearPrefixLen assumes year labels start with a four-digit year; multi-part
// labels such as "2014-1" still match on their first four characters.
const yearPrefixLen = 4

// Search evaluates query against ds under mode. Matches keep dataset order and
// the returned years are deduplicated at their first occurrence. A valid query
// with no matches returns an empty ResultSet together with ErrNoResults.
func Search(ds *domain.Dataset, mode domain.SearchMode, query string) (domain.ResultSet, error) {
	normalized, keywords, err := validateQuery(mode, query)
	if err != nil {
		return domain.ResultSet{}, err
	}
	if ds == nil {
		return domain.ResultSet{}, domain.Errorf(domain.ErrSourceUnavailable, "search", "dataset is not loaded")
	}
	if column := mode.RequiredColumn(); !ds.HasColumn(column) {
		return domain.ResultSet{}, &domain.SchemaError{Source: ds.Source, Missing: []string{column}}
	}

	var match func(domain.Record) bool
	switch mode {
	case domain.SearchByYear:
		prefix := truncateRunes(normalized, yearPrefixLen)
		match = func(r domain.Record) bool {
			return strings.HasPrefix(r.Year, prefix)
		}
	case domain.SearchByKeywords:
		match = func(r domain.Record) bool {
			field := strings.ToLower(r.Keywords)
			for _, k := range keywords {
				if strings.Contains(field, k) {
					return true
				}
			}
			return false
		}
	case domain.SearchByText:
		match = func(r domain.Record) bool {
			return strings.Contains(strings.ToLower(r.Text), normalized)
		}
	}

	years := make([]string, 0)
	seen := make(map[string]struct{})
	for _, rec := range ds.Records {
		if !match(rec) {
			continue
		}
		if _, dup := seen[rec.Year]; dup {
			continue
		}
		seen[rec.Year] = struct{}{}
		years = append(years, rec.Year)
	}

	rs := domain.ResultSet{Years: years}
	if len(years) == 0 {
		return rs, domain.Errorf(domain.ErrNoResults, "search", "no results found for %q", strings.TrimSpace(query))
	}
	return rs, nil
}

// FindByYear returns the first record carrying year.
func FindByYear(ds *domain.Dataset, year string) (domain.Record, bool) {
	if ds == nil {
		return domain.Record{}, false
	}
	for _, rec := range ds.Records {
		if rec.Year == year {
			return rec, true
		}
	}
	return domain.Record{}, false
}

// validateQuery rejects input before any dataset is touched. It returns the
// trimmed, lower-cased query and, for keyword mode, the keyword fragments.
func validateQuery(mode domain.SearchMode, query string) (string, []string, error) {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" {
		return "", nil, domain.Errorf(domain.ErrEmptyQuery, "search", "type a search query first")
	}
	switch mode {
	case domain.SearchByYear, domain.SearchByText:
		return normalized, nil, nil
	case domain.SearchByKeywords:
		keywords := splitKeywords(normalized)
		if len(keywords) == 0 {
			return "", nil, domain.Errorf(domain.ErrEmptyKeywordList, "search", "enter at least one keyword (comma-separated if multiple)")
		}
		return normalized, keywords, nil
	default:
		return "", nil, domain.Errorf(domain.ErrInvalidInput, "search", "unsupported search mode %q", mode)
	}
}

func splitKeywords(query string) []string {
	parts := strings.Split(query, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
