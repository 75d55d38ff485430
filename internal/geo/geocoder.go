package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const PlaceholderAddress = "123 Main Street, Anytown, USA"

// PlaceholderGeocoder answers every lookup with a fixed address.
type PlaceholderGeocoder struct {
	Address string
}

func (g PlaceholderGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (string, error) {
	if g.Address == "" {
		return PlaceholderAddress, nil
	}
	return g.Address, nil
}

// NominatimGeocoder does reverse lookups against a Nominatim compatible endpoint.
type NominatimGeocoder struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

func NewNominatimGeocoder(baseURL, userAgent string, timeout time.Duration) *NominatimGeocoder {
	return NewNominatimGeocoderWithClient(baseURL, userAgent, &http.Client{Timeout: timeout})
}

func NewNominatimGeocoderWithClient(baseURL, userAgent string, client *http.Client) *NominatimGeocoder {
	return &NominatimGeocoder{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		http:      client,
	}
}

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

func (g *NominatimGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	const op = "geo.Nominatim.ReverseGeocode"

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: unexpected status %s", op, resp.Status)
	}

	var body nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%s: decode: %w", op, err)
	}
	if body.Error != "" {
		return "", fmt.Errorf("%s: %s", op, body.Error)
	}
	if body.DisplayName == "" {
		return "", fmt.Errorf("%s: empty address", op)
	}
	return body.DisplayName, nil
}
