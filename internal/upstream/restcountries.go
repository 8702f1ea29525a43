package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const DefaultRestCountriesURL = "https://restcountries.com/v3.1"

var countryFields = []string{
	"name", "flags", "coatOfArms", "capital", "population", "area", "region",
	"subregion", "languages", "currencies", "timezones", "borders", "continents",
	"maps", "car", "unMember", "startOfWeek", "capitalInfo", "latlng", "tld",
}

// RestCountriesClient looks up country reference data on restcountries.com.
type RestCountriesClient struct {
	baseURL string
	client  *http.Client
}

// NewRestCountriesClient creates a RestCountriesClient.
func NewRestCountriesClient(baseURL string, client *http.Client) *RestCountriesClient {
	if baseURL == "" {
		baseURL = DefaultRestCountriesURL
	}
	return &RestCountriesClient{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Country returns the upstream JSON document for an ISO-2 code verbatim.
func (c *RestCountriesClient) Country(ctx context.Context, iso2 string) (json.RawMessage, error) {
	u := fmt.Sprintf("%s/alpha/%s?fields=%s", c.baseURL, url.PathEscape(iso2), strings.Join(countryFields, ","))

	body, err := get(ctx, c.client, u)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: malformed country document", ErrUnavailable)
	}
	return json.RawMessage(body), nil
}
