// internal/workers/restaurant-search/query-places/foursquare.go
package queryplaces

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "dinediscover/internal/common/errors"
	apphttp "dinediscover/internal/common/http"
	"dinediscover/internal/models"
)

// Provider runs one place search.
type Provider interface {
	Name() string
	Search(ctx context.Context, params models.PlaceSearchParams) (*models.SearchResponse, error)
}

// FoursquareProvider calls the Places API v3 search endpoint.
type FoursquareProvider struct {
	client  *apphttp.Client
	baseURL string
	apiKey  string
}

func NewFoursquareProvider(cfg *Config) *FoursquareProvider {
	return &FoursquareProvider{
		client:  apphttp.NewClient(cfg.Timeout),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
	}
}

func (p *FoursquareProvider) Name() string { return "foursquare" }

func (p *FoursquareProvider) Search(ctx context.Context, params models.PlaceSearchParams) (*models.SearchResponse, error) {
	if p.apiKey == "" {
		return nil, apperrors.NewPlacesNotConfiguredError()
	}

	url := p.baseURL + "/places/search?" + params.Values().Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("Authorization", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, apperrors.NewPlacesConnectionFailedError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewPlacesConnectionFailedError(err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, apperrors.NewPlacesUnavailableError(resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, apperrors.NewPlacesClientError(resp.StatusCode, providerMessage(body), params.Near, params.LL)
	case resp.StatusCode != http.StatusOK:
		return nil, apperrors.NewPlacesResponseInvalidError(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var out models.SearchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, apperrors.NewPlacesResponseInvalidError(err)
	}
	if out.Results == nil {
		out.Results = []models.Place{}
	}
	return &out, nil
}

// providerMessage pulls "message" out of an error body, if there is one.
func providerMessage(body []byte) string {
	var e struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return strings.TrimSpace(e.Message)
}
