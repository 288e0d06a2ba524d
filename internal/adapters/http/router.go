package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/tce-search/internal/config"
	"github.com/kirillkom/tce-search/internal/core/domain"
	"github.com/kirillkom/tce-search/internal/core/ports"
	"github.com/kirillkom/tce-search/internal/observability/metrics"
)

const (
	sessionIDHeader = "X-Session-Id"
	serviceName     = "tce-api"
	maxBodyBytes    = 64 << 10

	unknownDomainLabel = "unknown"
)

type Router struct {
	cfg      config.Config
	exams    ports.ExamSearchService
	sessions ports.SessionStore
	metrics  *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	exams ports.ExamSearchService,
	sessions ports.SessionStore,
	httpMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:      cfg,
		exams:    exams,
		sessions: sessions,
		metrics:  httpMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}
	mux.HandleFunc("GET /v1/domains", rt.listDomains)
	mux.HandleFunc("POST /v1/sessions", rt.createSession)
	mux.HandleFunc("POST /v1/domains/{domain}/search", rt.search)
	mux.HandleFunc("GET /v1/domains/{domain}/results", rt.results)
	mux.HandleFunc("PUT /v1/domains/{domain}/selection", rt.selectYear)
	mux.HandleFunc("GET /v1/domains/{domain}/question", rt.question)
	mux.HandleFunc("GET /v1/domains/{domain}/question/image", rt.questionImage)

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, rt.cfg.APIBackpressureWait)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	handler = recoverMiddleware(handler)
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) listDomains(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"domains": rt.exams.Domains()})
}

func (rt *Router) createSession(w http.ResponseWriter, _ *http.Request) {
	sess := rt.sessions.Create()
	w.Header().Set(sessionIDHeader, sess.ID())
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": sess.ID()})
}

type searchRequest struct {
	Mode  string `json:"mode"`
	Query string `json:"query"`
}

type resultsResponse struct {
	SessionID string   `json:"session_id"`
	Domain    string   `json:"domain"`
	Results   []string `json:"results"`
	Selected  string   `json:"selected,omitempty"`
	Message   string   `json:"message,omitempty"`
}

// search creates a session when the caller has none.
func (rt *Router) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	mode, err := domain.ParseSearchMode(req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}

	sess, err := rt.session(r, true)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set(sessionIDHeader, sess.ID())

	domainName := r.PathValue("domain")
	start := time.Now()
	rs, err := rt.exams.Search(r.Context(), sess, domainName, mode, req.Query)
	rt.recordSearch(domainName, mode, err, len(rs.Years), time.Since(start))
	if err != nil && !domain.IsKind(err, domain.ErrNoResults) {
		writeError(w, err)
		return
	}

	resp := resultsResponse{
		SessionID: sess.ID(),
		Domain:    rs.Domain,
		Results:   nonNil(rs.Years),
	}
	if err != nil {
		resp.Message = err.Error()
	} else {
		resp.Selected, _ = sess.Selection(rs.Domain)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) results(w http.ResponseWriter, r *http.Request) {
	sess, err := rt.session(r, false)
	if err != nil {
		writeError(w, err)
		return
	}
	rs, selected, err := rt.exams.Results(sess, r.PathValue("domain"))
	if err != nil && !domain.IsKind(err, domain.ErrNoResults) {
		writeError(w, err)
		return
	}
	resp := resultsResponse{
		SessionID: sess.ID(),
		Domain:    rs.Domain,
		Results:   nonNil(rs.Years),
		Selected:  selected,
	}
	if err != nil {
		resp.Message = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) selectYear(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Year string `json:"year"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := rt.session(r, false)
	if err != nil {
		writeError(w, err)
		return
	}
	domainName := r.PathValue("domain")
	if err := rt.exams.Select(sess, domainName, strings.TrimSpace(req.Year)); err != nil {
		if domain.IsKind(err, domain.ErrNoResults) {
			writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Kind: domain.Outcome(err)})
			return
		}
		writeError(w, err)
		return
	}
	rt.results(w, r)
}

type questionResponse struct {
	Domain     string   `json:"domain"`
	Year       string   `json:"year"`
	Keywords   string   `json:"keywords"`
	Text       string   `json:"text,omitempty"`
	Locator    string   `json:"locator"`
	ImageURL   string   `json:"image_url"`
	Candidates []string `json:"candidates"`
}

func (rt *Router) question(w http.ResponseWriter, r *http.Request) {
	item, ok := rt.show(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, questionResponse{
		Domain:     item.Domain,
		Year:       item.Year,
		Keywords:   item.Keywords,
		Text:       item.Text,
		Locator:    item.Image.Locator,
		ImageURL:   "/v1/domains/" + url.PathEscape(item.Domain) + "/question/image",
		Candidates: item.Image.Candidates,
	})
}

func (rt *Router) questionImage(w http.ResponseWriter, r *http.Request) {
	item, ok := rt.show(w, r)
	if !ok {
		return
	}
	contentType := item.Image.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(item.Image.Data)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(item.Image.Data)))
	w.Header().Set("X-Resolved-Locator", item.Image.Locator)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(item.Image.Data)
}

// show runs the resolve pipeline and writes the error response itself.
// Without a selection there is nothing to show, so NoResults becomes 409.
func (rt *Router) show(w http.ResponseWriter, r *http.Request) (*domain.ExamItem, bool) {
	sess, err := rt.session(r, false)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	domainName := r.PathValue("domain")
	item, err := rt.exams.Show(r.Context(), sess, domainName)
	rt.recordResolve(domainName, item, err)
	if err != nil {
		if domain.IsKind(err, domain.ErrNoResults) {
			writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Kind: domain.Outcome(err)})
			return nil, false
		}
		writeError(w, err)
		return nil, false
	}
	return item, true
}

func (rt *Router) session(r *http.Request, create bool) (ports.SearchSession, error) {
	id := strings.TrimSpace(r.Header.Get(sessionIDHeader))
	if id == "" {
		if create {
			return rt.sessions.Create(), nil
		}
		return nil, domain.Errorf(domain.ErrInvalidInput, "session", "%s header is required", sessionIDHeader)
	}
	return rt.sessions.Get(id)
}

func (rt *Router) recordSearch(domainName string, mode domain.SearchMode, err error, results int, elapsed time.Duration) {
	if rt.metrics == nil {
		return
	}
	rt.metrics.RecordSearch(serviceName, rt.metricDomain(domainName), string(mode), domain.Outcome(err), results, elapsed)
}

func (rt *Router) recordResolve(domainName string, item *domain.ExamItem, err error) {
	if rt.metrics == nil {
		return
	}
	candidates := 0
	var resolveErr *domain.ResolveError
	switch {
	case err == nil && item != nil && item.Image != nil:
		candidates = len(item.Image.Candidates)
	case errors.As(err, &resolveErr):
		candidates = len(resolveErr.Candidates)
	case domain.IsKind(err, domain.ErrNoResults), domain.IsKind(err, domain.ErrInvalidInput):
		return
	}
	rt.metrics.RecordResolve(serviceName, rt.metricDomain(domainName), domain.Outcome(err), candidates)
}

// metricDomain maps a path value onto a catalog name so clients cannot mint
// label values.
func (rt *Router) metricDomain(name string) string {
	name = strings.TrimSpace(name)
	for _, d := range rt.exams.Domains() {
		if strings.EqualFold(d.Name, name) {
			return d.Name
		}
	}
	return unknownDomainLabel
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json", Kind: "invalid_input"})
		return false
	}
	return true
}

func nonNil(years []string) []string {
	if years == nil {
		return []string{}
	}
	return years
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
