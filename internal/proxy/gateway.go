package proxy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

const (
	ModeAuthenticated = "authenticated"
	ModeLegacy        = "legacy"

	DefaultTimeout   = 15 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

	// maxErrorExcerpt caps how many characters of an upstream error body reach the caller.
	maxErrorExcerpt = 200
)

// TokenSource returns a currently valid bearer token.
type TokenSource interface {
	ValidToken(ctx context.Context) (string, error)
}

// Recorder observes finished proxy requests and upstream latency.
type Recorder interface {
	ProxyRequest(mode string, status int)
	UpstreamFetch(mode string, d time.Duration)
}

// Options configures a [Gateway]. Zero values fall back to defaults.
type Options struct {
	Tokens     TokenSource
	AllowList  *AllowList
	HTTPClient *http.Client
	Timeout    time.Duration
	UserAgent  string
	Logger     *log.Logger
	Metrics    Recorder
}

// Gateway forwards read-only fetches on behalf of the page.
type Gateway struct {
	tokens     TokenSource
	allow      *AllowList
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	logger     *log.Logger
	metrics    Recorder
}

// NewGateway creates a [Gateway].
func NewGateway(opts Options) *Gateway {
	if opts.AllowList == nil {
		opts.AllowList = DefaultAllowList()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	return &Gateway{
		tokens:     opts.Tokens,
		allow:      opts.AllowList,
		httpClient: opts.HTTPClient,
		timeout:    opts.Timeout,
		userAgent:  opts.UserAgent,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
}

// Authenticated proxies ?url= to an allow-listed Blizzard host with a bearer token.
//
// The upstream body is streamed back on success. An upstream error status is passed through with the first
// 200 characters of its body.
func (g *Gateway) Authenticated(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		g.fail(w, ModeAuthenticated, target, badRequest(MsgMissingURL))
		return
	}
	if !g.allow.AllowedURL(target) {
		g.fail(w, ModeAuthenticated, target, forbidden(MsgForbiddenDomain))
		return
	}
	if g.tokens == nil {
		g.fail(w, ModeAuthenticated, target, fmt.Errorf("no token source configured"))
		return
	}

	token, err := g.tokens.ValidToken(r.Context())
	if err != nil {
		g.fail(w, ModeAuthenticated, target, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), g.timeout)
	defer cancel()

	resp, err := g.do(ctx, ModeAuthenticated, target, http.Header{
		"Authorization": {"Bearer " + token},
		"Accept":        {"application/json"},
	})
	if err != nil {
		g.fail(w, ModeAuthenticated, target, err)
		return
	}
	defer resp.Body.Close()

	if !success(resp.StatusCode) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*maxErrorExcerpt))
		msg := fmt.Sprintf("Blizzard API error: %d - %s", resp.StatusCode, excerpt(body, maxErrorExcerpt))
		g.fail(w, ModeAuthenticated, target, upstreamStatus(resp.StatusCode, msg))
		return
	}

	writeJSONHeaders(w)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, resp.Body); err != nil {
		g.logger.Warn("stream interrupted", "mode", ModeAuthenticated, "url", target, "error", err)
	}
	g.done(ModeAuthenticated, target, http.StatusOK)
}

// Legacy proxies ?url= to any host with a browser-like User-Agent and no credentials.
//
// An HTML body (an access-denied interstitial, usually) is reported as 403 instead of being passed through.
func (g *Gateway) Legacy(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		g.fail(w, ModeLegacy, target, badRequest(MsgMissingURL))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), g.timeout)
	defer cancel()

	resp, err := g.do(ctx, ModeLegacy, target, http.Header{
		"User-Agent": {g.userAgent},
		"Accept":     {"application/json"},
	})
	if err != nil {
		g.fail(w, ModeLegacy, target, err)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		g.fail(w, ModeLegacy, target, upstreamNetwork(err))
		return
	}

	if looksLikeHTML(body) {
		g.fail(w, ModeLegacy, target, forbidden(MsgHTMLInsteadOfAPI))
		return
	}
	if !success(resp.StatusCode) {
		msg := fmt.Sprintf("HTTP Error %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		g.fail(w, ModeLegacy, target, upstreamStatus(resp.StatusCode, msg))
		return
	}

	writeJSONHeaders(w)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
	g.done(ModeLegacy, target, http.StatusOK)
}

func (g *Gateway) do(ctx context.Context, mode, target string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, upstreamNetwork(err)
	}
	for k, v := range header {
		req.Header[k] = v
	}

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if g.metrics != nil {
		g.metrics.UpstreamFetch(mode, time.Since(start))
	}
	if err != nil {
		return nil, upstreamNetwork(err)
	}
	return resp, nil
}

func (g *Gateway) fail(w http.ResponseWriter, mode, target string, err error) {
	status := SendErr(w, err)
	g.logger.Warn("proxy request failed", "mode", mode, "url", target, "status", status, "error", err)
	if g.metrics != nil {
		g.metrics.ProxyRequest(mode, status)
	}
}

func (g *Gateway) done(mode, target string, status int) {
	g.logger.Debug("proxied", "mode", mode, "url", target, "status", status)
	if g.metrics != nil {
		g.metrics.ProxyRequest(mode, status)
	}
}

func writeJSONHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Access-Control-Allow-Origin", "*")
}

func success(status int) bool {
	return status >= 200 && status < 300
}

// looksLikeHTML reports whether body starts with <!DOCTYPE or <html, ignoring leading whitespace and case.
func looksLikeHTML(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	for _, prefix := range [][]byte{[]byte("<!doctype"), []byte("<html")} {
		if len(trimmed) >= len(prefix) && bytes.EqualFold(trimmed[:len(prefix)], prefix) {
			return true
		}
	}
	return false
}

// excerpt returns at most n characters of body, never splitting a UTF-8 sequence.
func excerpt(body []byte, n int) string {
	runes := []rune(string(body))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n])
}
