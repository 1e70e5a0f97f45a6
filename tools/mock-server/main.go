// Package main implements a mock eBay server for local development. It serves
// canned card listings from a JSON fixture through the Browse API, the OAuth
// token endpoint, the Analytics rate_limit endpoint and the public HTML search
// page, so the tracker can run without real credentials.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

type browseAPIResponse struct {
	ItemSummaries []json.RawMessage `json:"itemSummaries"`
	Total         int               `json:"total"`
	Offset        int               `json:"offset"`
	Limit         int               `json:"limit"`
	Next          string            `json:"next,omitempty"`
}

type itemSummary struct {
	ItemID     string `json:"itemId"`
	Title      string `json:"title"`
	ItemWebURL string `json:"itemWebUrl"`
	Price      *struct {
		Value string `json:"value"`
	} `json:"price"`
	Image *struct {
		ImageURL string `json:"imageUrl"`
	} `json:"image"`
	BuyingOptions []string `json:"buyingOptions"`
}

// dailyLimit is what the mock reports as the Browse quota.
const dailyLimit = 5000

// server holds the fixture and a counter of Browse calls served, which the
// analytics endpoint reports back.
type server struct {
	log     *slog.Logger
	items   []indexedItem
	calls   atomic.Int64
	captcha bool
}

type indexedItem struct {
	raw     json.RawMessage
	summary itemSummary
	title   string
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	fixtureFile := flag.String("fixture", "tools/mock-server/testdata/search_response.json", "path to search response fixture")
	captcha := flag.Bool("captcha", false, "answer the HTML search page with a bot challenge")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	fixture, err := loadFixture(*fixtureFile)
	if err != nil {
		logger.Error("failed to load fixture", "path", *fixtureFile, "error", err)
		os.Exit(1)
	}
	logger.Info("loaded fixture", "items", len(fixture.ItemSummaries))

	s := newServer(logger, fixture, *captcha)

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock eBay server", "addr", addr, "captcha", *captcha)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, s.routes()),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newServer(logger *slog.Logger, fixture *browseAPIResponse, captcha bool) *server {
	s := &server{log: logger, captcha: captcha}
	for _, raw := range fixture.ItemSummaries {
		var sum itemSummary
		//nolint:errcheck,gosec // fixture data is trusted; field extraction is best-effort
		json.Unmarshal(raw, &sum)
		s.items = append(s.items, indexedItem{raw: raw, summary: sum, title: strings.ToLower(sum.Title)})
	}
	return s
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /identity/v1/oauth2/token", tokenHandler(s.log))
	mux.HandleFunc("GET /buy/browse/v1/item_summary/search", s.searchHandler)
	mux.HandleFunc("GET /developer/analytics/v1_beta/rate_limit/", s.rateLimitHandler)
	mux.HandleFunc("GET /sch/i.html", s.htmlSearchHandler)
	return mux
}

func loadFixture(path string) (*browseAPIResponse, error) {
	data, err := os.ReadFile(path) //nolint:gosec // fixture path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	var resp browseAPIResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return &resp, nil
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

func tokenHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Validate Basic Auth header is present (don't verify creds).
		if _, _, ok := r.BasicAuth(); !ok {
			logger.Warn("token request missing Basic Auth header")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
			json.NewEncoder(w).Encode(map[string]string{
				"error":             "invalid_client",
				"error_description": "client authentication failed",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "mock-token-v1-" + strconv.FormatInt(int64(os.Getpid()), 16),
			"expires_in":   7200,
			"token_type":   "Application Access Token",
		})
		logger.Info("issued mock token")
	}
}

// match reports whether every plain term of q appears in title and no
// "-term" exclusion does.
func match(title, q string) bool {
	for _, term := range strings.Fields(strings.ToLower(q)) {
		if ex, ok := strings.CutPrefix(term, "-"); ok {
			if ex != "" && strings.Contains(title, ex) {
				return false
			}
			continue
		}
		term = strings.TrimPrefix(term, "#")
		if term != "" && !strings.Contains(title, term) {
			return false
		}
	}
	return true
}

func (s *server) filter(q string) []indexedItem {
	var out []indexedItem
	for _, item := range s.items {
		if match(item.title, q) {
			out = append(out, item)
		}
	}
	return out
}

func (s *server) searchHandler(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	s.calls.Add(1)

	q := r.URL.Query().Get("q")
	limit := 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	offset := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		offset = v
	}

	matched := s.filter(q)
	total := len(matched)

	// Apply pagination.
	if offset >= len(matched) {
		matched = nil
	} else {
		matched = matched[offset:min(offset+limit, len(matched))]
	}

	resp := browseAPIResponse{
		ItemSummaries: make([]json.RawMessage, 0, len(matched)),
		Total:         total,
		Offset:        offset,
		Limit:         limit,
	}
	for _, item := range matched {
		resp.ItemSummaries = append(resp.ItemSummaries, item.raw)
	}
	if offset+limit < total {
		resp.Next = fmt.Sprintf("/buy/browse/v1/item_summary/search?q=%s&offset=%d&limit=%d",
			q, offset+limit, limit)
	}

	w.Header().Set("Content-Type", "application/json")
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(resp)
	s.log.Info("search", "query", q, "matched", total, "returned", len(matched), "offset", offset, "limit", limit)
}

func (s *server) rateLimitHandler(w http.ResponseWriter, _ *http.Request) {
	count := s.calls.Load()
	reset := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)

	w.Header().Set("Content-Type", "application/json")
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(map[string]any{
		"rateLimits": []any{map[string]any{
			"apiContext": "buy",
			"apiName":    "browse",
			"apiVersion": "v1",
			"resources": []any{map[string]any{
				"name": "buy.browse",
				"rates": []any{map[string]any{
					"count":      count,
					"limit":      dailyLimit,
					"remaining":  max(dailyLimit-count, 0),
					"reset":      reset.Format(time.RFC3339),
					"timeWindow": 86400,
				}},
			}},
		}},
	})
}

const challengePage = `<!DOCTYPE html><html><head><title>Security Measure</title></head>
<body><form id="challenge-form" action="/splashui/challenge"><div class="captcha"></div></form></body></html>`

var searchPage = template.Must(template.New("search").Parse(`<!DOCTYPE html>
<html><body><ul class="srp-results">
{{- range . }}
<li class="s-item">
  <a class="s-item__link" href="{{ .ItemWebURL }}"><div class="s-item__title"><span>{{ .Title }}</span></div></a>
  {{- with .Image }}<img src="{{ .ImageURL }}">{{ end }}
  <span class="s-item__price">${{ with .Price }}{{ .Value }}{{ end }}</span>
  <span class="s-item__shipping">Free shipping</span>
  {{- if .Auction }}<span class="s-item__bids">3 bids</span>{{ end }}
</li>
{{- end }}
</ul></body></html>`))

type pageItem struct {
	itemSummary
	Auction bool
}

func (s *server) htmlSearchHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if s.captcha {
		w.WriteHeader(http.StatusForbidden)
		//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
		w.Write([]byte(challengePage))
		s.log.Info("served bot challenge")
		return
	}

	q := r.URL.Query().Get("_nkw")
	matched := s.filter(q)
	page := make([]pageItem, 0, len(matched))
	for _, item := range matched {
		pi := pageItem{itemSummary: item.summary}
		for _, opt := range item.summary.BuyingOptions {
			if opt == "AUCTION" {
				pi.Auction = true
			}
		}
		page = append(page, pi)
	}

	if err := searchPage.Execute(w, page); err != nil {
		s.log.Error("rendering search page", "error", err)
		return
	}
	s.log.Info("html search", "query", q, "matched", len(page))
}
