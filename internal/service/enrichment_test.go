package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelglobe/travelglobe-go/internal/cache"
	"github.com/travelglobe/travelglobe-go/internal/model"
	"github.com/travelglobe/travelglobe-go/internal/upstream"
)

type fakeCountrySource struct {
	mu    sync.Mutex
	calls int
	info  json.RawMessage
	err   error
}

func (f *fakeCountrySource) Country(_ context.Context, _ string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.info, f.err
}

type fakeNewsSource struct {
	mu         sync.Mutex
	configured bool
	queries    []string
	articles   []model.NewsArticle
	err        error
}

func (f *fakeNewsSource) Configured() bool { return f.configured }

func (f *fakeNewsSource) Search(_ context.Context, query string) ([]model.NewsArticle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return f.articles, f.err
}

type enrichmentFixture struct {
	svc       *EnrichmentService
	countries *fakeCountrySource
	news      *fakeNewsSource
	now       time.Time
}

func newEnrichmentFixture(t *testing.T) *enrichmentFixture {
	t.Helper()
	f := &enrichmentFixture{
		countries: &fakeCountrySource{info: json.RawMessage(`{"name":{"common":"France"}}`)},
		news:      &fakeNewsSource{configured: true},
		now:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }

	infoStore, err := cache.NewMemoryStore[json.RawMessage](16)
	require.NoError(t, err)
	newsStore, err := cache.NewMemoryStore[[]model.NewsArticle](16)
	require.NoError(t, err)

	f.svc = NewEnrichmentService(EnrichmentConfig{
		Countries: f.countries,
		News:      f.news,
		InfoCache: cache.NewProxy("country_info", infoStore, cache.Options{Now: clock}),
		NewsCache: cache.NewProxy("country_news", newsStore, cache.Options{Now: clock}),
	})
	return f
}

func TestCountryInfo_CachesWithinTTL(t *testing.T) {
	f := newEnrichmentFixture(t)
	ctx := context.Background()

	first, err := f.svc.CountryInfo(ctx, "fr")
	require.NoError(t, err)
	assert.Equal(t, "FR", first.ISO2)
	assert.JSONEq(t, `{"name":{"common":"France"}}`, string(first.Info))
	assert.Empty(t, first.Note)

	f.now = f.now.Add(DefaultCountryInfoTTL - time.Second)
	second, err := f.svc.CountryInfo(ctx, "FR")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.countries.calls)

	f.now = f.now.Add(2 * time.Second)
	_, err = f.svc.CountryInfo(ctx, "FR")
	require.NoError(t, err)
	assert.Equal(t, 2, f.countries.calls)
}

func TestCountryInfo_Errors(t *testing.T) {
	t.Run("invalid code", func(t *testing.T) {
		f := newEnrichmentFixture(t)
		_, err := f.svc.CountryInfo(context.Background(), "FRA")
		assert.ErrorIs(t, err, ErrInvalidCountryCode)
		assert.Zero(t, f.countries.calls)
	})

	t.Run("not found", func(t *testing.T) {
		f := newEnrichmentFixture(t)
		f.countries.err = upstream.ErrNotFound
		_, err := f.svc.CountryInfo(context.Background(), "ZZ")
		assert.ErrorIs(t, err, ErrCountryNotFound)
	})

	t.Run("upstream failure degrades and is retried", func(t *testing.T) {
		f := newEnrichmentFixture(t)
		f.countries.err = upstream.ErrUnavailable

		resp, err := f.svc.CountryInfo(context.Background(), "FR")
		require.NoError(t, err)
		assert.Equal(t, NoteCountryInfoUnavailable, resp.Note)
		assert.Nil(t, resp.Info)

		f.countries.err = nil
		resp, err = f.svc.CountryInfo(context.Background(), "FR")
		require.NoError(t, err)
		assert.Empty(t, resp.Note)
		assert.Equal(t, 2, f.countries.calls)
	})
}

func TestCountryNews(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		f := newEnrichmentFixture(t)
		f.news.configured = false

		resp, err := f.svc.CountryNews(context.Background(), "FR", "France")
		require.NoError(t, err)
		assert.Equal(t, NoteNewsNotConfigured, resp.Note)
		assert.Equal(t, []model.NewsArticle{}, resp.Articles)
		assert.Empty(t, f.news.queries)
	})

	t.Run("query uses name when given", func(t *testing.T) {
		f := newEnrichmentFixture(t)
		f.news.articles = []model.NewsArticle{{Title: "Paris", Source: "Le Monde"}}

		resp, err := f.svc.CountryNews(context.Background(), "fr", " France ")
		require.NoError(t, err)
		assert.Equal(t, f.news.articles, resp.Articles)

		_, err = f.svc.CountryNews(context.Background(), "FR", "")
		require.NoError(t, err)
		assert.Equal(t, []string{"France country", "FR"}, f.news.queries)
	})

	t.Run("cached per query", func(t *testing.T) {
		f := newEnrichmentFixture(t)

		for i := 0; i < 3; i++ {
			_, err := f.svc.CountryNews(context.Background(), "FR", "france")
			require.NoError(t, err)
		}
		_, err := f.svc.CountryNews(context.Background(), "FR", "France")
		require.NoError(t, err)
		assert.Len(t, f.news.queries, 1)

		f.now = f.now.Add(DefaultNewsTTL)
		_, err = f.svc.CountryNews(context.Background(), "FR", "France")
		require.NoError(t, err)
		assert.Len(t, f.news.queries, 2)
	})

	t.Run("upstream failure degrades", func(t *testing.T) {
		f := newEnrichmentFixture(t)
		f.news.err = errors.New("boom")

		resp, err := f.svc.CountryNews(context.Background(), "FR", "")
		require.NoError(t, err)
		assert.Equal(t, NoteNewsUnavailable, resp.Note)
		assert.Equal(t, []model.NewsArticle{}, resp.Articles)
	})

	t.Run("invalid code", func(t *testing.T) {
		f := newEnrichmentFixture(t)
		_, err := f.svc.CountryNews(context.Background(), "1", "")
		assert.ErrorIs(t, err, ErrInvalidCountryCode)
	})
}
