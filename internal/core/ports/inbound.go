package ports

import (
	"context"

	"github.com/kirillkom/tce-search/internal/core/domain"
)

// ExamSearchService is the inbound contract for question search and display.
type ExamSearchService interface {
	Domains() []domain.SubjectDomain
	Search(ctx context.Context, sess SearchSession, domainName string, mode domain.SearchMode, query string) (domain.ResultSet, error)
	Results(sess SearchSession, domainName string) (domain.ResultSet, string, error)
	Select(sess SearchSession, domainName, year string) error
	Show(ctx context.Context, sess SearchSession, domainName string) (*domain.ExamItem, error)
}

// SearchSession holds the last result set and selected year per domain.
// State for one domain never affects another.
type SearchSession interface {
	ID() string
	RecordSearch(domainName string, rs domain.ResultSet)
	Results(domainName string) (domain.ResultSet, bool)
	Selection(domainName string) (string, bool)
	SetSelection(domainName, year string)
}

// SessionStore issues and looks up search sessions.
type SessionStore interface {
	Create() SearchSession
	Get(id string) (SearchSession, error)
}
