package mcpadapter

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/tce-search/internal/core/domain"
	"github.com/kirillkom/tce-search/internal/core/ports"
	"github.com/kirillkom/tce-search/internal/infrastructure/session"
)

type examFake struct {
	shown *domain.ExamItem
}

func (f *examFake) Domains() []domain.SubjectDomain {
	return []domain.SubjectDomain{{Name: "Syntax"}, {Name: "Grammar"}}
}

func (f *examFake) Search(_ context.Context, sess ports.SearchSession, domainName string, _ domain.SearchMode, query string) (domain.ResultSet, error) {
	if query == "none" {
		return domain.ResultSet{Domain: domainName}, domain.Errorf(domain.ErrNoResults, "search", "no results found for %q", query)
	}
	rs := domain.ResultSet{Domain: domainName, Years: []string{"2019", "2020"}}
	sess.RecordSearch(domainName, rs)
	return rs, nil
}

func (f *examFake) Results(sess ports.SearchSession, domainName string) (domain.ResultSet, string, error) {
	rs, _ := sess.Results(domainName)
	sel, _ := sess.Selection(domainName)
	return rs, sel, nil
}

func (f *examFake) Select(sess ports.SearchSession, domainName, year string) error {
	rs, _ := sess.Results(domainName)
	if !rs.Contains(year) {
		return domain.Errorf(domain.ErrInvalidInput, "select", "year %q is not in the current results", year)
	}
	sess.SetSelection(domainName, year)
	return nil
}

func (f *examFake) Show(_ context.Context, sess ports.SearchSession, domainName string) (*domain.ExamItem, error) {
	year, ok := sess.Selection(domainName)
	if !ok {
		return nil, domain.Errorf(domain.ErrNoResults, "show", "run a search first")
	}
	f.shown = &domain.ExamItem{
		Domain:   domainName,
		Year:     year,
		Keywords: "binding",
		Image:    &domain.ResolvedImage{Locator: "https://img.test/" + year + ".png", ContentType: "image/png", Data: []byte("png")},
	}
	return f.shown, nil
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func firstText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("expected tool content")
	}
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	default:
		t.Fatalf("expected text content, got %T", res.Content[0])
		return ""
	}
}

func newTestServer() (*Server, *examFake) {
	fake := &examFake{}
	return NewServer(fake, session.NewManager(4, 0)), fake
}

func TestSearchToolReturnsResults(t *testing.T) {
	srv, _ := newTestServer()
	res, err := srv.search(context.Background(), callRequest(map[string]any{"domain": "Syntax", "mode": "year", "query": "2019"}))
	if err != nil {
		t.Fatalf("search error = %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", firstText(t, res))
	}

	var body struct {
		Results  []string `json:"results"`
		Selected string   `json:"selected"`
	}
	if err := json.Unmarshal([]byte(firstText(t, res)), &body); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(body.Results) != 2 || body.Selected != "2019" {
		t.Fatalf("unexpected search result %+v", body)
	}
}

func TestSearchToolNoResultsIsNotAnError(t *testing.T) {
	srv, _ := newTestServer()
	res, _ := srv.search(context.Background(), callRequest(map[string]any{"domain": "Syntax", "mode": "keywords", "query": "none"}))
	if res.IsError {
		t.Fatal("expected no-results to be a plain message")
	}
}

func TestSearchToolRejectsMissingArguments(t *testing.T) {
	srv, _ := newTestServer()
	res, _ := srv.search(context.Background(), callRequest(map[string]any{"domain": "Syntax"}))
	if !res.IsError {
		t.Fatal("expected tool error for missing mode")
	}
	res, _ = srv.search(context.Background(), callRequest(map[string]any{"domain": "Syntax", "mode": "fuzzy", "query": "x"}))
	if !res.IsError {
		t.Fatal("expected tool error for unknown mode")
	}
}

func TestShowToolSelectsYearAndReturnsImage(t *testing.T) {
	srv, fake := newTestServer()
	ctx := context.Background()
	if _, err := srv.search(ctx, callRequest(map[string]any{"domain": "Syntax", "mode": "year", "query": "20"})); err != nil {
		t.Fatalf("search error = %v", err)
	}

	res, err := srv.show(ctx, callRequest(map[string]any{"domain": "Syntax", "year": "2020"}))
	if err != nil {
		t.Fatalf("show error = %v", err)
	}
	if res.IsError || len(res.Content) != 2 {
		t.Fatalf("expected text and image content, got %+v", res)
	}
	if fake.shown == nil || fake.shown.Year != "2020" {
		t.Fatalf("expected 2020 to be shown, got %+v", fake.shown)
	}
}

func TestShowToolKeepsDomainsSeparate(t *testing.T) {
	srv, _ := newTestServer()
	ctx := context.Background()
	_, _ = srv.search(ctx, callRequest(map[string]any{"domain": "Syntax", "mode": "year", "query": "2019"}))

	res, _ := srv.show(ctx, callRequest(map[string]any{"domain": "Grammar"}))
	if !res.IsError {
		t.Fatal("expected grammar show to fail without a grammar search")
	}
}

func TestListDomainsTool(t *testing.T) {
	srv, _ := newTestServer()
	res, err := srv.listDomains(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("listDomains error = %v", err)
	}
	var body struct {
		Domains []domain.SubjectDomain `json:"domains"`
	}
	if err := json.Unmarshal([]byte(firstText(t, res)), &body); err != nil || len(body.Domains) != 2 {
		t.Fatalf("unexpected domains result %s", firstText(t, res))
	}
}
