package model

import "encoding/json"

// CountryInfoResponse is returned by GET /api/country-info/{iso2}.
// Info holds the upstream payload verbatim; it is null when the upstream
// is unavailable, in which case Note explains why.
type CountryInfoResponse struct {
	ISO2         string          `json:"iso2"`
	Info         json.RawMessage `json:"info"`
	TravelStatus TravelStatus    `json:"travelStatus,omitempty"`
	Note         string          `json:"note,omitempty"`
}

// NewsArticle is a single news item about a country.
type NewsArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Image       string `json:"image"`
	PublishedAt string `json:"publishedAt"`
	Source      string `json:"source"`
}

// NewsResponse is returned by GET /api/country-news/{iso2}.
type NewsResponse struct {
	Articles     []NewsArticle `json:"articles"`
	TravelStatus TravelStatus  `json:"travelStatus,omitempty"`
	Note         string        `json:"note,omitempty"`
}
