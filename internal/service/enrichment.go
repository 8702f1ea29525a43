package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/travelglobe/travelglobe-go/internal/cache"
	"github.com/travelglobe/travelglobe-go/internal/model"
	"github.com/travelglobe/travelglobe-go/internal/upstream"
)

const (
	DefaultCountryInfoTTL = 24 * time.Hour
	DefaultNewsTTL        = 30 * time.Minute

	NoteCountryInfoUnavailable = "Country info temporarily unavailable"
	NoteNewsUnavailable        = "News temporarily unavailable"
	NoteNewsNotConfigured      = "News not configured. Set GNEWS_API_KEY to enable news."
)

var (
	ErrCountryNotFound = errors.New("country not found")
)

// CountrySource provides descriptive country data.
type CountrySource interface {
	Country(ctx context.Context, iso2 string) (json.RawMessage, error)
}

// NewsSource searches recent articles.
type NewsSource interface {
	Configured() bool
	Search(ctx context.Context, query string) ([]model.NewsArticle, error)
}

// EnrichmentService serves country details and news through TTL caches.
// Upstream failures never fail the request: they become an empty result
// with a note. Only malformed codes and upstream "not found" are errors.
type EnrichmentService struct {
	countries CountrySource
	news      NewsSource
	infoCache *cache.Proxy[json.RawMessage]
	newsCache *cache.Proxy[[]model.NewsArticle]
	infoTTL   time.Duration
	newsTTL   time.Duration
}

// EnrichmentConfig wires the sources, caches and TTLs.
type EnrichmentConfig struct {
	Countries CountrySource
	News      NewsSource
	InfoCache *cache.Proxy[json.RawMessage]
	NewsCache *cache.Proxy[[]model.NewsArticle]
	InfoTTL   time.Duration
	NewsTTL   time.Duration
}

// NewEnrichmentService creates a new EnrichmentService.
func NewEnrichmentService(cfg EnrichmentConfig) *EnrichmentService {
	if cfg.InfoTTL <= 0 {
		cfg.InfoTTL = DefaultCountryInfoTTL
	}
	if cfg.NewsTTL <= 0 {
		cfg.NewsTTL = DefaultNewsTTL
	}
	return &EnrichmentService{
		countries: cfg.Countries,
		news:      cfg.News,
		infoCache: cfg.InfoCache,
		newsCache: cfg.NewsCache,
		infoTTL:   cfg.InfoTTL,
		newsTTL:   cfg.NewsTTL,
	}
}

// CountryInfo returns cached or freshly fetched details for a country.
func (s *EnrichmentService) CountryInfo(ctx context.Context, rawCode string) (model.CountryInfoResponse, error) {
	code, err := NormalizeCountryCode(rawCode)
	if err != nil {
		return model.CountryInfoResponse{}, err
	}

	info, err := s.infoCache.GetOrFetch(ctx, code, s.infoTTL, func(ctx context.Context) (json.RawMessage, error) {
		return s.countries.Country(ctx, code)
	})
	if err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return model.CountryInfoResponse{}, ErrCountryNotFound
		}
		slog.Warn("country info upstream failed", "iso2", code, "error", err)
		return model.CountryInfoResponse{ISO2: code, Note: NoteCountryInfoUnavailable}, nil
	}

	return model.CountryInfoResponse{ISO2: code, Info: info}, nil
}

// CountryNews returns recent articles about a country. name, when given,
// sharpens the search query and is part of the cache key.
func (s *EnrichmentService) CountryNews(ctx context.Context, rawCode, name string) (model.NewsResponse, error) {
	code, err := NormalizeCountryCode(rawCode)
	if err != nil {
		return model.NewsResponse{}, err
	}

	if !s.news.Configured() {
		return model.NewsResponse{Articles: []model.NewsArticle{}, Note: NoteNewsNotConfigured}, nil
	}

	query := newsQuery(code, name)
	key := code + "|" + strings.ToLower(query)

	articles, err := s.newsCache.GetOrFetch(ctx, key, s.newsTTL, func(ctx context.Context) ([]model.NewsArticle, error) {
		return s.news.Search(ctx, query)
	})
	if err != nil {
		slog.Warn("news upstream failed", "iso2", code, "query", query, "error", err)
		return model.NewsResponse{Articles: []model.NewsArticle{}, Note: NoteNewsUnavailable}, nil
	}
	if articles == nil {
		articles = []model.NewsArticle{}
	}

	return model.NewsResponse{Articles: articles}, nil
}

func newsQuery(code, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return code
	}
	return name + " country"
}
