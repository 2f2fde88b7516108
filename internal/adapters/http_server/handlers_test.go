package httpserver_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	server "pension_site/internal/adapters/http_server"
	redisad "pension_site/internal/adapters/redis"
	"pension_site/internal/app"
	"pension_site/internal/domain"
	"pension_site/internal/render"
	"pension_site/web"
)

type memRepo struct{ records map[int64]domain.ContentRecord }

func (m *memRepo) UpsertContent(ctx context.Context, c domain.ContentRecord) error {
	m.records[c.PropertyID] = c
	return nil
}

func (m *memRepo) LogMiss(ctx context.Context, id int64, status int, reason string) error { return nil }

func (m *memRepo) GetContent(ctx context.Context, id int64) (domain.ContentRecord, error) {
	rec, ok := m.records[id]
	if !ok {
		return domain.ContentRecord{}, domain.ErrNotFound
	}
	return rec, nil
}

func (m *memRepo) ListProperties(ctx context.Context, q domain.PropertiesQuery) (domain.PropertiesPage, error) {
	var out domain.PropertiesPage
	for id, rec := range m.records {
		out.Items = append(out.Items, domain.PropertySummary{ID: id, Name: rec.Name, FetchedAt: rec.FetchedAt.Format(time.RFC3339)})
	}
	return out, nil
}

const doc = `{"gpension_id":"G-7","property":{"name":"솔숲 펜션","facilities":[{"id":"f1","name":"바베큐장"}]},
"rooms":[{"id":"r1","name":"숲속방"}]}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := redisad.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:")

	name := "솔숲 펜션"
	repo := &memRepo{records: map[int64]domain.ContentRecord{
		7: {PropertyID: 7, Name: &name, RawJSON: []byte(doc), FetchedAt: time.Unix(1700000000, 0).UTC()},
	}}
	renderer := render.NewRenderer(web.Templates(), render.NewLayout(render.FSFragments{FS: web.Templates()}))
	site := app.NewSiteService(repo, cache, renderer, time.Minute, time.Minute)

	srv := server.New(server.Options{Timeout: 5 * time.Second, PageMaxAge: 30 * time.Second})
	srv.MountHandlers(&server.Handlers{Site: site})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts
}

// noFollow keeps redirects visible to the test.
var noFollow = &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}

func get(t *testing.T, url string, hdr map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	res, err := noFollow.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

func body(t *testing.T, res *http.Response) string {
	t.Helper()
	var b bytes.Buffer
	if _, err := b.ReadFrom(res.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b.String()
}

func TestSitePages(t *testing.T) {
	ts := newTestServer(t)

	res := get(t, ts.URL+"/sites/7/", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("index status %d", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type %q", ct)
	}
	if cc := res.Header.Get("Cache-Control"); cc != "public, max-age=30" {
		t.Fatalf("cache control %q", cc)
	}
	if !strings.Contains(body(t, res), "솔숲 펜션") {
		t.Fatalf("property name not rendered")
	}

	res = get(t, ts.URL+"/sites/7/room.html?id=r1", nil)
	if res.StatusCode != http.StatusOK || !strings.Contains(body(t, res), "숲속방") {
		t.Fatalf("room page status %d", res.StatusCode)
	}
	etag := res.Header.Get("ETag")
	if etag == "" {
		t.Fatalf("missing etag")
	}
	res = get(t, ts.URL+"/sites/7/room.html?id=r1", map[string]string{"If-None-Match": etag})
	if res.StatusCode != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", res.StatusCode)
	}
	if cc := res.Header.Get("Cache-Control"); cc != "public, max-age=30" {
		t.Fatalf("304 cache control %q", cc)
	}
}

func TestSitePages_Redirects(t *testing.T) {
	ts := newTestServer(t)

	for path, want := range map[string]string{
		"/sites/7/room.html":     "/sites/7/room.html?id=r1",
		"/sites/7/facility.html": "/sites/7/facility.html?id=f1",
	} {
		res := get(t, ts.URL+path, nil)
		if res.StatusCode != http.StatusFound {
			t.Fatalf("%s: status %d", path, res.StatusCode)
		}
		if loc := res.Header.Get("Location"); loc != want {
			t.Fatalf("%s: location %q", path, loc)
		}
		if cc := res.Header.Get("Cache-Control"); cc != "" {
			t.Fatalf("%s: item redirect must not be cacheable: %q", path, cc)
		}
	}

	res := get(t, ts.URL+"/sites/7", nil)
	if res.StatusCode != http.StatusMovedPermanently || res.Header.Get("Location") != "/sites/7/" {
		t.Fatalf("root redirect: %d %q", res.StatusCode, res.Header.Get("Location"))
	}
}

func TestSitePages_Errors(t *testing.T) {
	ts := newTestServer(t)

	for path, want := range map[string]int{
		"/sites/404/":          http.StatusNotFound,
		"/sites/7/admin.html":  http.StatusNotFound,
		"/sites/abc/main.html": http.StatusBadRequest,
		"/sites/0/":            http.StatusBadRequest,
	} {
		res := get(t, ts.URL+path, nil)
		if res.StatusCode != want {
			t.Fatalf("%s: got %d want %d", path, res.StatusCode, want)
		}
		if ct := res.Header.Get("Content-Type"); ct != "application/problem+json" {
			t.Fatalf("%s: content type %q", path, ct)
		}
		if cc := res.Header.Get("Cache-Control"); cc != "" {
			t.Fatalf("%s: problem must not be cacheable: %q", path, cc)
		}
	}
}

func TestContentEndpoint(t *testing.T) {
	ts := newTestServer(t)

	res := get(t, ts.URL+"/v1/properties/7/content", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d", res.StatusCode)
	}
	if lm := res.Header.Get("Last-Modified"); lm != "Tue, 14 Nov 2023 22:13:20 GMT" {
		t.Fatalf("last modified %q", lm)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(body(t, res)), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["gpension_id"] != "G-7" {
		t.Fatalf("unexpected content: %v", got)
	}

	again := get(t, ts.URL+"/v1/properties/7/content", map[string]string{"If-None-Match": res.Header.Get("ETag")})
	if again.StatusCode != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", again.StatusCode)
	}
}

func TestListProperties(t *testing.T) {
	ts := newTestServer(t)

	res := get(t, ts.URL+"/v1/properties?limit=10", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d", res.StatusCode)
	}
	var page domain.PropertiesPage
	if err := json.Unmarshal([]byte(body(t, res)), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != 7 {
		t.Fatalf("unexpected page: %+v", page)
	}

	for _, q := range []string{"limit=0", "limit=500", "cursor=-1", "cursor=x"} {
		if res := get(t, ts.URL+"/v1/properties?"+q, nil); res.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: status %d", q, res.StatusCode)
		}
	}
}

func TestPreview(t *testing.T) {
	ts := newTestServer(t)

	res, err := noFollow.Post(ts.URL+"/preview/main.html", "application/json",
		strings.NewReader(`{"property":{"name":"미리보기 펜션"},"rooms":[]}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d", res.StatusCode)
	}
	if res.Header.Get("Cache-Control") != "no-store" {
		t.Fatalf("preview must not be cached")
	}
	if !strings.Contains(body(t, res), "미리보기 펜션") {
		t.Fatalf("preview document not rendered")
	}

	bad, err := noFollow.Post(ts.URL+"/preview/main.html", "application/json", strings.NewReader(`{`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid document: status %d", bad.StatusCode)
	}
}

func TestPreview_ItemPageWithoutIDIsAProblem(t *testing.T) {
	ts := newTestServer(t)

	res, err := noFollow.Post(ts.URL+"/preview/room.html", "application/json", strings.NewReader(doc))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status %d", res.StatusCode)
	}
	if loc := res.Header.Get("Location"); loc != "" {
		t.Fatalf("preview must not redirect: %q", loc)
	}
	var p struct {
		Status int    `json:"status"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal([]byte(body(t, res)), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Status != http.StatusUnprocessableEntity || !strings.Contains(p.Detail, "room.html?id=r1") {
		t.Fatalf("problem should name the first room: %+v", p)
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	if res := get(t, ts.URL+"/healthz", nil); res.StatusCode != http.StatusOK || body(t, res) != "ok" {
		t.Fatalf("healthz failed")
	}
}
