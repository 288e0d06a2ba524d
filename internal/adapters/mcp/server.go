package mcpadapter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/tce-search/internal/core/domain"
	"github.com/kirillkom/tce-search/internal/core/ports"
)

const serverVersion = "0.1.0"

// Server exposes exam search as MCP tools. A stdio server has one client, so
// one search session lives for the whole process.
type Server struct {
	exams ports.ExamSearchService
	sess  ports.SearchSession
	mcp   *server.MCPServer
}

func NewServer(exams ports.ExamSearchService, sessions ports.SessionStore) *Server {
	s := &Server{
		exams: exams,
		sess:  sessions.Create(),
		mcp: server.NewMCPServer(
			"tce-search",
			serverVersion,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
	}

	names := make([]string, 0, len(exams.Domains()))
	for _, d := range exams.Domains() {
		names = append(names, d.Name)
	}

	s.mcp.AddTool(mcp.NewTool("list_domains",
		mcp.WithDescription("List the subject domains whose exam questions can be searched."),
	), s.listDomains)

	s.mcp.AddTool(mcp.NewTool("search_exam_questions",
		mcp.WithDescription("Search past exam questions in one subject domain. Returns matching years; the first one becomes the selection."),
		mcp.WithString("domain", mcp.Required(), mcp.Enum(names...), mcp.Description("Subject domain name.")),
		mcp.WithString("mode", mcp.Required(), mcp.Enum("year", "keywords", "text"),
			mcp.Description("year: four-digit prefix match; keywords: comma separated, any may match; text: substring of the question text.")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search input for the chosen mode.")),
	), s.search)

	s.mcp.AddTool(mcp.NewTool("show_exam_question",
		mcp.WithDescription("Show keywords and the question image for the selected year of the last search in a domain."),
		mcp.WithString("domain", mcp.Required(), mcp.Enum(names...), mcp.Description("Subject domain name.")),
		mcp.WithString("year", mcp.Description("Year from the last result set. Defaults to the current selection.")),
	), s.show)

	return s
}

func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) listDomains(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{"domains": s.exams.Domains()})
}

func (s *Server) search(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	domainName, err := req.RequireString("domain")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawMode, err := req.RequireString("mode")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mode, err := domain.ParseSearchMode(rawMode)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rs, err := s.exams.Search(ctx, s.sess, domainName, mode, query)
	if domain.IsKind(err, domain.ErrNoResults) {
		return mcp.NewToolResultText(err.Error()), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	selected, _ := s.sess.Selection(rs.Domain)
	return jsonResult(map[string]any{
		"domain":   rs.Domain,
		"results":  rs.Years,
		"selected": selected,
	})
}

func (s *Server) show(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	domainName, err := req.RequireString("domain")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if year := strings.TrimSpace(req.GetString("year", "")); year != "" {
		if err := s.exams.Select(s.sess, domainName, year); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	item, err := s.exams.Show(ctx, s.sess, domainName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	summary := fmt.Sprintf("%s %s\nKeywords: %s", item.Domain, item.Year, item.Keywords)
	if item.Text != "" {
		summary += "\n" + item.Text
	}
	summary += "\nImage: " + item.Image.Locator

	contentType := item.Image.ContentType
	if contentType == "" {
		contentType = "image/png"
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(summary),
			mcp.NewImageContent(base64.StdEncoding.EncodeToString(item.Image.Data), contentType),
		},
	}, nil
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}
