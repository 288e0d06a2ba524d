package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/tce-search/internal/core/domain"
	"github.com/kirillkom/tce-search/internal/core/ports"
)

// ExamUseCase runs the load, match and resolve pipeline for every domain.
type ExamUseCase struct {
	domains   []domain.SubjectDomain
	byName    map[string]domain.SubjectDomain
	store     ports.RecordStore
	resolver  *Resolver
	publisher ports.SearchEventPublisher
	now       func() time.Time
}

func NewExamUseCase(
	domains []domain.SubjectDomain,
	store ports.RecordStore,
	fetcher ports.ResourceFetcher,
	publisher ports.SearchEventPublisher,
) *ExamUseCase {
	byName := make(map[string]domain.SubjectDomain, len(domains))
	for _, d := range domains {
		byName[domainKey(d.Name)] = d
	}
	return &ExamUseCase{
		domains:   append([]domain.SubjectDomain(nil), domains...),
		byName:    byName,
		store:     store,
		resolver:  NewResolver(fetcher),
		publisher: publisher,
		now:       time.Now,
	}
}

func (uc *ExamUseCase) Domains() []domain.SubjectDomain {
	return append([]domain.SubjectDomain(nil), uc.domains...)
}

// Search matches query against the domain's dataset and, on success, replaces
// the session's result set for that domain. Failed searches, including
// ErrNoResults, leave the stored state untouched.
func (uc *ExamUseCase) Search(
	ctx context.Context,
	sess ports.SearchSession,
	domainName string,
	mode domain.SearchMode,
	query string,
) (domain.ResultSet, error) {
	subject, err := uc.subject(domainName)
	if err != nil {
		return domain.ResultSet{}, err
	}
	if _, _, err := validateQuery(mode, query); err != nil {
		return domain.ResultSet{Domain: subject.Name}, err
	}

	ds, err := uc.store.Load(ctx, subject.DatasetURL)
	if err != nil {
		return domain.ResultSet{Domain: subject.Name}, fmt.Errorf("load %s dataset: %w", subject.Name, err)
	}

	rs, err := Search(ds, mode, query)
	rs.Domain = subject.Name
	uc.publish(ctx, domain.SearchEvent{
		Domain:  subject.Name,
		Mode:    mode,
		Query:   strings.TrimSpace(query),
		Results: len(rs.Years),
		Outcome: domain.Outcome(err),
		At:      uc.now().UTC(),
	})
	if err != nil {
		return rs, err
	}

	sess.RecordSearch(subject.Name, rs)
	slog.Info("exam_search", "session", sess.ID(), "domain", subject.Name, "mode", string(mode), "results", len(rs.Years))
	return rs, nil
}

// Results returns the stored result set and current selection for a domain.
func (uc *ExamUseCase) Results(sess ports.SearchSession, domainName string) (domain.ResultSet, string, error) {
	subject, err := uc.subject(domainName)
	if err != nil {
		return domain.ResultSet{}, "", err
	}
	rs, ok := sess.Results(subject.Name)
	if !ok || len(rs.Years) == 0 {
		return domain.ResultSet{Domain: subject.Name}, "", domain.Errorf(domain.ErrNoResults, "results", "run a search first to see results for %s", subject.Name)
	}
	selected, _ := sess.Selection(subject.Name)
	return rs, selected, nil
}

// Select changes the selected year. The session performs no validation, so
// membership in the stored result set is enforced here.
func (uc *ExamUseCase) Select(sess ports.SearchSession, domainName, year string) error {
	rs, _, err := uc.Results(sess, domainName)
	if err != nil {
		return err
	}
	if !rs.Contains(year) {
		return domain.Errorf(domain.ErrInvalidInput, "select", "year %q is not in the current %s results", year, rs.Domain)
	}
	sess.SetSelection(rs.Domain, year)
	return nil
}

// Show resolves the selected year's record to its image, probed only against
// that domain's own image base.
func (uc *ExamUseCase) Show(ctx context.Context, sess ports.SearchSession, domainName string) (*domain.ExamItem, error) {
	subject, err := uc.subject(domainName)
	if err != nil {
		return nil, err
	}
	year, ok := sess.Selection(subject.Name)
	if !ok {
		return nil, domain.Errorf(domain.ErrNoResults, "show", "run a search first to choose a %s question", subject.Name)
	}

	ds, err := uc.store.Load(ctx, subject.DatasetURL)
	if err != nil {
		return nil, fmt.Errorf("load %s dataset: %w", subject.Name, err)
	}
	rec, ok := FindByYear(ds, year)
	if !ok {
		return nil, domain.Errorf(domain.ErrRecordNotFound, "show", "no matching %s record for year %q", subject.Name, year)
	}

	img, err := uc.resolver.Resolve(ctx, subject.ImageBaseURL, rec.Filename)
	if err != nil {
		return nil, err
	}
	return &domain.ExamItem{
		Domain:   subject.Name,
		Year:     rec.Year,
		Keywords: rec.Keywords,
		Text:     rec.Text,
		Image:    img,
	}, nil
}

func (uc *ExamUseCase) subject(name string) (domain.SubjectDomain, error) {
	d, ok := uc.byName[domainKey(name)]
	if !ok {
		return domain.SubjectDomain{}, domain.Errorf(domain.ErrUnknownDomain, "lookup domain", "%q", name)
	}
	return d, nil
}

func (uc *ExamUseCase) publish(ctx context.Context, event domain.SearchEvent) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.PublishSearch(ctx, event); err != nil {
		slog.Warn("search_event_publish_failed", "domain", event.Domain, "error", err)
	}
}

func domainKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
