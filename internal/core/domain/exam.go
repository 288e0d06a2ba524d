package domain

import (
	"fmt"
	"strings"
	"time"
)

// Canonical dataset columns. Source headers are matched case-insensitively.
const (
	ColumnYear     = "year"
	ColumnKeywords = "keywords"
	ColumnText     = "text"
	ColumnFilename = "filename"
)

// Record is one exam-question entry. Index is its position in the dataset
// and is the only unique identity; Year may repeat.
type Record struct {
	Index    int    `json:"index"`
	Year     string `json:"year"`
	Keywords string `json:"keywords"`
	Text     string `json:"text"`
	Filename string `json:"filename"`
}

// Dataset is the ordered, read-only record list loaded from one source.
type Dataset struct {
	Source   string    `json:"source"`
	Columns  []string  `json:"columns"`
	Records  []Record  `json:"records"`
	LoadedAt time.Time `json:"loaded_at"`
}

func (d *Dataset) HasColumn(name string) bool {
	if d == nil {
		return false
	}
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

type SearchMode string

const (
	SearchByYear     SearchMode = "year"
	SearchByKeywords SearchMode = "keywords"
	SearchByText     SearchMode = "text"
)

// ParseSearchMode accepts canonical mode names and the legacy browser labels
// ("YEAR", "Keywords", "Words containing").
func ParseSearchMode(raw string) (SearchMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "year", "by-year", "by-year-prefix":
		return SearchByYear, nil
	case "keywords", "keyword", "by-keyword-list":
		return SearchByKeywords, nil
	case "text", "words", "words containing", "words_containing", "by-text-substring":
		return SearchByText, nil
	default:
		return "", Errorf(ErrInvalidInput, "parse search mode", "unsupported search mode %q", raw)
	}
}

// RequiredColumn is the column a mode reads; empty for unknown modes.
func (m SearchMode) RequiredColumn() string {
	switch m {
	case SearchByYear:
		return ColumnYear
	case SearchByKeywords:
		return ColumnKeywords
	case SearchByText:
		return ColumnText
	default:
		return ""
	}
}

// ResultSet holds matched years, deduplicated in first-occurrence order.
type ResultSet struct {
	Domain string   `json:"domain"`
	Years  []string `json:"years"`
}

func (rs ResultSet) Contains(year string) bool {
	for _, y := range rs.Years {
		if y == year {
			return true
		}
	}
	return false
}

func (rs ResultSet) First() (string, bool) {
	if len(rs.Years) == 0 {
		return "", false
	}
	return rs.Years[0], true
}

// Resource is the raw outcome of a single successful fetch.
type Resource struct {
	Locator     string
	ContentType string
	Data        []byte
}

// ResolvedImage is the locator that fetched successfully plus its bytes.
// Candidates lists every locator attempted up to and including the winner.
type ResolvedImage struct {
	Locator     string   `json:"locator"`
	ContentType string   `json:"content_type"`
	Size        int      `json:"size"`
	Candidates  []string `json:"candidates"`
	Data        []byte   `json:"-"`
}

// SubjectDomain is one independently searchable question bank.
type SubjectDomain struct {
	Name         string `json:"name"`
	Title        string `json:"title"`
	DatasetURL   string `json:"dataset_url"`
	ImageBaseURL string `json:"image_base_url"`
}

func (d SubjectDomain) Validate() error {
	switch {
	case strings.TrimSpace(d.Name) == "":
		return fmt.Errorf("%w: domain name is required", ErrInvalidInput)
	case strings.TrimSpace(d.DatasetURL) == "":
		return fmt.Errorf("%w: domain %s: dataset_url is required", ErrInvalidInput, d.Name)
	case strings.TrimSpace(d.ImageBaseURL) == "":
		return fmt.Errorf("%w: domain %s: image_base_url is required", ErrInvalidInput, d.Name)
	}
	return nil
}

// ExamItem is what a user sees after choosing a year from a result set.
type ExamItem struct {
	Domain   string         `json:"domain"`
	Year     string         `json:"year"`
	Keywords string         `json:"keywords"`
	Text     string         `json:"text"`
	Image    *ResolvedImage `json:"image"`
}

// SearchEvent describes one submitted search, published for analytics.
type SearchEvent struct {
	Domain  string     `json:"domain"`
	Mode    SearchMode `json:"mode"`
	Query   string     `json:"query"`
	Results int        `json:"results"`
	Outcome string     `json:"outcome"`
	At      time.Time  `json:"at"`
}
