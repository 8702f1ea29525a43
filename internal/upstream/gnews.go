package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/travelglobe/travelglobe-go/internal/model"
)

const (
	DefaultGNewsURL = "https://gnews.io/api/v4/search"

	maxArticles = 6
)

type gnewsResponse struct {
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		Image       string `json:"image"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// GNewsClient searches recent English articles on gnews.io. The free tier
// allows about 100 requests a day, so calls are metered locally.
type GNewsClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

// NewGNewsClient creates a GNewsClient allowing perMinute upstream calls
// per minute. An empty apiKey yields a client that reports itself as not
// configured.
func NewGNewsClient(baseURL, apiKey string, perMinute int, client *http.Client) *GNewsClient {
	if baseURL == "" {
		baseURL = DefaultGNewsURL
	}
	if perMinute <= 0 {
		perMinute = 1
	}
	return &GNewsClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  client,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
	}
}

// Configured reports whether an API key is present.
func (c *GNewsClient) Configured() bool {
	return c.apiKey != ""
}

// Search returns up to six articles matching query.
func (c *GNewsClient) Search(ctx context.Context, query string) ([]model.NewsArticle, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if !c.limiter.Allow() {
		return nil, ErrRateLimited
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("lang", "en")
	params.Set("max", fmt.Sprint(maxArticles))
	params.Set("apikey", c.apiKey)

	body, err := get(ctx, c.client, c.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var raw gnewsResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decoding articles: %v", ErrUnavailable, err)
	}

	articles := make([]model.NewsArticle, 0, len(raw.Articles))
	for _, a := range raw.Articles {
		source := a.Source.Name
		if source == "" {
			source = "Unknown"
		}
		articles = append(articles, model.NewsArticle{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Image:       a.Image,
			PublishedAt: a.PublishedAt,
			Source:      source,
		})
	}
	return articles, nil
}
