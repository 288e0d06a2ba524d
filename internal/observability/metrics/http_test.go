package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/healthz":                           "/healthz",
		"/v1/domains":                        "/v1/domains",
		"/v1/domains/Syntax":                 "/v1/domains/{domain}",
		"/v1/domains/Syntax/search":          "/v1/domains/{domain}/search",
		"/v1/domains/Grammar/question/image": "/v1/domains/{domain}/question/image",
		"/v1/sessions":                       "/v1/sessions",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Fatalf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHandlerExposesRecordedSeries(t *testing.T) {
	m := NewHTTPServerMetrics("tce-api")
	m.RecordSearch("tce-api", "Syntax", "keywords", "ok", 3, 20*time.Millisecond)
	m.RecordResolve("tce-api", "Syntax", "ok", 2)

	wrapped := m.Middleware("tce-api", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/domains/Syntax/results", nil))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	text := string(body)

	for _, want := range []string{
		`tce_search_requests_total{domain="Syntax",mode="keywords",outcome="ok",service="tce-api"} 1`,
		`tce_resolve_requests_total{domain="Syntax",outcome="ok",service="tce-api"} 1`,
		`path="/v1/domains/{domain}/results"`,
		`status="418"`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected metrics output to contain %s\n%s", want, text)
		}
	}
}
