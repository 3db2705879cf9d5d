package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"campus-assistant/internal/application/port/output"
	"campus-assistant/internal/domain/entity"

	"golang.org/x/net/html"
)

var _ output.WebSearchPort = (*Client)(nil)

const (
	DefaultBaseURL = "https://api.tavily.com"

	defaultTimeout    = 10 * time.Second
	defaultMaxResults = 3
)

type Config struct {
	APIKey     string
	BaseURL    string
	MaxResults int
	Timeout    time.Duration
}

func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:     apiKey,
		BaseURL:    DefaultBaseURL,
		MaxResults: defaultMaxResults,
		Timeout:    defaultTimeout,
	}
}

// Client is the open web search capability, backed by the Tavily API:
// an AI-generated answer plus source snippets with URLs.
type Client struct {
	cfg    Config
	http   *http.Client
	logger output.LoggerPort
}

func New(cfg Config, logger output.LoggerPort) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = defaultMaxResults
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type searchRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	MaxResults    int    `json:"max_results"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
}

type searchResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

func (c *Client) Search(ctx context.Context, query string) (*entity.WebSearchResult, error) {
	body, err := json.Marshal(searchRequest{
		APIKey:        c.cfg.APIKey,
		Query:         query,
		MaxResults:    c.cfg.MaxResults,
		SearchDepth:   "advanced",
		IncludeAnswer: true,
	})
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	result := &entity.WebSearchResult{Summary: strings.TrimSpace(parsed.Answer)}
	for _, r := range parsed.Results {
		result.Sources = append(result.Sources, entity.WebSource{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: stripHTML(r.Content),
		})
	}

	c.logger.Debug("web search completed",
		"query", query,
		"sources", len(result.Sources),
		"duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

// stripHTML flattens snippet markup to plain text; providers occasionally
// leak tags into result content.
func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<>") {
		return strings.TrimSpace(s)
	}
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(strings.Fields(b.String()), " ")
}
