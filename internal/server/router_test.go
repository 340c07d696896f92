package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/mplusd/internal/auth"
	"github.com/desertthunder/mplusd/internal/metrics"
	"github.com/desertthunder/mplusd/internal/proxy"
	tu "github.com/desertthunder/mplusd/internal/testing"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicRouter(t *testing.T) {
	t.Run("Handle Filters Methods", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle(http.MethodGet, "/thing", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("ok"))
		}))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/thing", nil))
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/thing", nil))
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/thing", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Equal(t, "GET", rec.Header().Get("Allow"))
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mw("first"), mw("second"))
		r.Handle(http.MethodGet, "/", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			order = append(order, "handler")
		}))

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, []string{"first", "second", "handler"}, order)
	})

	t.Run("Middleware Sees Unmatched Paths", func(t *testing.T) {
		var r Router = NewBasicRouter()
		r.Use(CORS)
		r.Handle(http.MethodGet, "/only", http.NotFoundHandler())

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/somewhere/else", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("HandlePrefix", func(t *testing.T) {
		r := NewBasicRouter()
		r.HandlePrefix(http.MethodGet, "/api/blizzard", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Write([]byte(req.URL.Path))
		}))

		for _, path := range []string{"/api/blizzard", "/api/blizzard/", "/api/blizzard/deep/path"} {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, rec.Code, path)
			assert.Equal(t, path, rec.Body.String())
		}
	})
}

// gateway wires the real token manager, gateway and router against httptest upstreams.
type gateway struct {
	handler  http.Handler
	endpoint *tu.TokenEndpoint
	upstream *httptest.Server
	dir      string
}

func newGateway(t *testing.T, env map[string]string) *gateway {
	t.Helper()

	endpoint := tu.NewTokenEndpoint(t, tu.JSONToken("integration-token", 3600))
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data/ok":
			if r.Header.Get("Authorization") != "Bearer integration-token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`{"ok":true}`))
		case "/blocked":
			w.Write([]byte("<!DOCTYPE html><html>blocked</html>"))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"code":404,"detail":"Not Found"}`))
		}
	}))
	t.Cleanup(upstream.Close)

	u, err := url.Parse(upstream.URL)
	require.NoError(t, err)

	reg := metrics.NewRegistry()
	pm := metrics.NewProxyMetrics(reg)
	tokens := auth.NewTokenManager(auth.NewMemoryStore(), auth.Options{
		TokenURL: endpoint.URL,
		Clock:    clockwork.NewFakeClock(),
		Getenv:   tu.Getenv(env),
		Metrics:  pm,
	})
	gw := proxy.NewGateway(proxy.Options{
		Tokens:    tokens,
		AllowList: proxy.NewAllowList(".battle.net", ".blizzard.com", u.Hostname()),
		Metrics:   pm,
	})

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultIndex), []byte("<html>helper</html>"), 0644))

	return &gateway{
		handler: NewRouter(Routes{
			Gateway: gw,
			Static:  NewStaticHandler(dir, ""),
			Metrics: metrics.Handler(reg),
		}),
		endpoint: endpoint,
		upstream: upstream,
		dir:      dir,
	}
}

func (g *gateway) do(method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	g.handler.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func errorField(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	require.Contains(t, body, "error")
	return body["error"]
}

var creds = map[string]string{
	auth.EnvClientID:     "id",
	auth.EnvClientSecret: "secret",
}

func TestNewRouter(t *testing.T) {
	t.Run("Missing URL", func(t *testing.T) {
		g := newGateway(t, creds)

		rec := g.do(http.MethodGet, "/api/blizzard")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Missing url parameter", errorField(t, rec))
	})

	t.Run("Disallowed Domain", func(t *testing.T) {
		g := newGateway(t, creds)

		rec := g.do(http.MethodGet, "/api/blizzard?url="+url.QueryEscape("https://evil.com/x"))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		errorField(t, rec)
		assert.Equal(t, 0, g.endpoint.Calls())
	})

	t.Run("Missing Credentials", func(t *testing.T) {
		g := newGateway(t, nil)

		rec := g.do(http.MethodGet, "/api/blizzard?url="+url.QueryEscape("https://us.api.battle.net/data/x"))

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, errorField(t, rec), "BLIZZARD_CLIENT_ID")
		assert.Equal(t, 0, g.endpoint.Calls())
	})

	t.Run("Authenticated Success Reuses Token", func(t *testing.T) {
		g := newGateway(t, creds)
		target := "/api/blizzard?url=" + url.QueryEscape(g.upstream.URL+"/data/ok")

		for range 3 {
			rec := g.do(http.MethodGet, target)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		}
		assert.Equal(t, 1, g.endpoint.Calls())
	})

	t.Run("Authenticated Upstream 404", func(t *testing.T) {
		g := newGateway(t, creds)

		rec := g.do(http.MethodGet, "/api/blizzard?url="+url.QueryEscape(g.upstream.URL+"/missing"))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, errorField(t, rec), "Not Found")
	})

	t.Run("Legacy HTML Block Page", func(t *testing.T) {
		g := newGateway(t, nil)

		rec := g.do(http.MethodGet, "/proxy?url="+url.QueryEscape(g.upstream.URL+"/blocked"))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "API returned HTML instead of JSON", errorField(t, rec))
	})

	t.Run("Preflight On Any Path", func(t *testing.T) {
		g := newGateway(t, creds)

		for _, path := range []string{"/anything", "/api/blizzard", "/proxy", "/"} {
			rec := g.do(http.MethodOptions, path)

			assert.Equal(t, http.StatusOK, rec.Code, path)
			assert.Empty(t, rec.Body.String(), path)
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "GET, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
			assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
		}
		assert.Equal(t, 0, g.endpoint.Calls())
	})

	t.Run("Every Response Carries CORS Header", func(t *testing.T) {
		g := newGateway(t, creds)

		requests := []struct {
			method string
			target string
		}{
			{http.MethodGet, "/api/blizzard"},
			{http.MethodGet, "/api/blizzard?url=" + url.QueryEscape("https://evil.com")},
			{http.MethodGet, "/api/blizzard?url=" + url.QueryEscape(g.upstream.URL+"/data/ok")},
			{http.MethodGet, "/proxy"},
			{http.MethodGet, "/proxy?url=" + url.QueryEscape(g.upstream.URL+"/missing")},
			{http.MethodPost, "/proxy"},
			{http.MethodGet, "/"},
			{http.MethodGet, "/metrics"},
		}

		for _, req := range requests {
			rec := g.do(req.method, req.target)
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"), "%s %s", req.method, req.target)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		}
	})

	t.Run("Proxy Rejects Writes", func(t *testing.T) {
		g := newGateway(t, creds)

		rec := g.do(http.MethodPost, "/api/blizzard?url=x")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		errorField(t, rec)
	})

	t.Run("Index And Metrics", func(t *testing.T) {
		g := newGateway(t, creds)

		rec := g.do(http.MethodGet, "/")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "<html>helper</html>", rec.Body.String())

		g.do(http.MethodGet, "/api/blizzard?url="+url.QueryEscape(g.upstream.URL+"/data/ok"))
		rec = g.do(http.MethodGet, "/metrics")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `mplusd_proxy_requests_total{mode="authenticated",status_code="200"} 1`)
		assert.Contains(t, rec.Body.String(), `mplusd_token_refreshes_total{result="success"} 1`)
	})
}
