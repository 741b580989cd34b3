package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/txrtlemrry/PaperFinder-App/internal/catalog"
	"github.com/txrtlemrry/PaperFinder-App/internal/finder"
	"github.com/txrtlemrry/PaperFinder-App/internal/papers"
	"github.com/txrtlemrry/PaperFinder-App/internal/server"
	"github.com/txrtlemrry/PaperFinder-App/internal/testutils"
)

var august2025 = time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	handler http.Handler
	store   *catalog.Store
}

func newFixture(t *testing.T, opts server.Options) fixture {
	t.Helper()
	store := testutils.NewCatalogStore(t, testutils.MustSubject(t, "9709", "Mathematics", "1:Pure 1, 4:Mechanics"))
	svc := finder.New(store, finder.Settings{MaxYearSpan: 30}, testutils.CreateTestLogger(), finder.WithClock(testutils.FixedClock(august2025)))
	return fixture{handler: server.New(svc, testutils.CreateTestLogger(), opts).Handler(), store: store}
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func parseHTML(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}

func TestIndex(t *testing.T) {
	f := newFixture(t, server.Options{})

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(server.RequestIDHeader))

	doc := parseHTML(t, rec)
	assert.Equal(t, 1, doc.Find("#subjects li[data-code='9709']").Length())
	val, _ := doc.Find("input[name='year_range']").Attr("value")
	assert.Equal(t, papers.DefaultYearRange, val)
	assert.Equal(t, 0, doc.Find("section.results").Length())
}

func TestIndex_KeepsUpstreamRequestID(t *testing.T) {
	f := newFixture(t, server.Options{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(server.RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc-123", rec.Header().Get(server.RequestIDHeader))
}

func TestSearch(t *testing.T) {
	f := newFixture(t, server.Options{})

	rec := postForm(t, f.handler, "/", url.Values{
		"year_range":   {"2024-2025"},
		"sessions_all": {"on"},
		"variants":     {"2"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	doc := parseHTML(t, rec)
	years := doc.Find("article.subject[data-code='9709'] section.year")
	require.Equal(t, 2, years.Length())
	first, _ := years.First().Attr("data-year")
	assert.Equal(t, "2025", first)

	// August 2025: the 2025 winter session is not available yet
	assert.Equal(t, 0, doc.Find("div.session[data-session='w25']").Length())
	assert.Equal(t, 1, doc.Find("div.session[data-session='w24']").Length())

	href, _ := doc.Find("div.session[data-session='m25'] a.qp").First().Attr("href")
	assert.Equal(t, papers.DefaultBaseURL+"9709_m25_qp_12.pdf", href)

	_, checked := doc.Find("input[name='sessions_all']").Attr("checked")
	assert.True(t, checked)
}

func TestSearch_InvalidYears(t *testing.T) {
	f := newFixture(t, server.Options{})

	rec := postForm(t, f.handler, "/", url.Values{"year_range": {"twenty-twenty"}, "sessions": {"s"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	doc := parseHTML(t, rec)
	assert.Contains(t, doc.Find("p.error").Text(), "year range")
	assert.Equal(t, 0, doc.Find("section.results").Length())
}

func TestAddSubject(t *testing.T) {
	f := newFixture(t, server.Options{})

	rec := postForm(t, f.handler, "/add_subject", url.Values{
		"code":   {"9702"},
		"name":   {"Physics"},
		"papers": {"1:Multiple Choice, 2: AS Structured"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?added=9702", rec.Header().Get("Location"))

	c, err := f.store.Load(context.Background())
	require.NoError(t, err)
	subject, ok := c.Get("9702")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"1": "Multiple Choice", "2": "AS Structured"}, subject.Papers.Map())

	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?added=9702", nil))
	assert.Contains(t, parseHTML(t, rec).Find("p.notice").Text(), "9702")
}

func TestAddSubject_InvalidIsReported(t *testing.T) {
	f := newFixture(t, server.Options{})

	rec := postForm(t, f.handler, "/add_subject", url.Values{
		"code":   {"9702"},
		"name":   {"Physics"},
		"papers": {"Multiple Choice"},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	doc := parseHTML(t, rec)
	assert.Contains(t, doc.Find("p.error").Text(), "papers")
	code, _ := doc.Find("#add-subject input[name='code']").Attr("value")
	assert.Equal(t, "9702", code)

	c, err := f.store.Load(context.Background())
	require.NoError(t, err)
	_, ok := c.Get("9702")
	assert.False(t, ok)
}

func TestAddSubject_RateLimited(t *testing.T) {
	f := newFixture(t, server.Options{AddSubjectRateLimit: 0.001})

	var codes []int
	for range 7 {
		rec := postForm(t, f.handler, "/add_subject", url.Values{"code": {"1"}, "name": {"n"}, "papers": {"1:p"}})
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, http.StatusSeeOther, codes[0])
	assert.Equal(t, http.StatusTooManyRequests, codes[len(codes)-1])
}

func TestAPILinks(t *testing.T) {
	f := newFixture(t, server.Options{})

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/links?years=2024-2024&session=s&variant=1&type=qp&subject=9709", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var results []finder.SubjectLinks
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&results))
	require.Len(t, results, 1)
	assert.Equal(t, []string{
		papers.DefaultBaseURL + "9709_s24_qp_11.pdf",
		papers.DefaultBaseURL + "9709_s24_qp_41.pdf",
	}, results[0].Links.URLs())
}

func TestAPILinks_Errors(t *testing.T) {
	f := newFixture(t, server.Options{})

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{name: "bad years", path: "/api/v1/links?years=abcd", status: http.StatusBadRequest},
		{name: "bad session", path: "/api/v1/links?years=2024&session=x", status: http.StatusBadRequest},
		{name: "unknown subject", path: "/api/v1/links?years=2024&subject=0000", status: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)

			var body map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestAPISubjects(t *testing.T) {
	f := newFixture(t, server.Options{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/subjects", strings.NewReader(`{"code":"9701","name":"Chemistry","papers":"1:Multiple Choice"}`))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/subjects", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var subjects []struct {
		Code   string            `json:"code"`
		Name   string            `json:"name"`
		Papers map[string]string `json:"papers"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&subjects))
	require.Len(t, subjects, 2)
	assert.Equal(t, "9701", subjects[0].Code)
	assert.Equal(t, map[string]string{"1": "Multiple Choice"}, subjects[0].Papers)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/subjects", strings.NewReader(`{"code":"9701","papers":"nothing"}`))
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
