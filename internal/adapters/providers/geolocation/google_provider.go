package geolocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/providers"
	"github.com/zatekoja/Patientbookingtriage/pkg/config"
	"github.com/zatekoja/Patientbookingtriage/pkg/utils"
)

const (
	googleGeocodeURL   = "https://maps.googleapis.com/maps/api/geocode/json"
	defaultHTTPTimeout = 8 * time.Second
	defaultCacheTTL    = 30 * 24 * time.Hour
)

// GoogleGeocoder resolves patient addresses with the Google Geocoding API.
// Lookups are biased to the configured region and cached by query.
type GoogleGeocoder struct {
	apiKey     string
	region     string
	language   string
	cacheTTL   time.Duration
	baseURL    string
	httpClient *http.Client
	cache      providers.CacheProvider
}

var _ providers.Geocoder = (*GoogleGeocoder)(nil)

// NewGoogleGeocoder creates a geocoder from cfg. cache may be nil.
func NewGoogleGeocoder(cfg config.GeolocationConfig, cache providers.CacheProvider) *GoogleGeocoder {
	return NewGoogleGeocoderWithClient(cfg, cache, googleGeocodeURL, nil)
}

// NewGoogleGeocoderWithClient allows overriding the endpoint and HTTP client (used for tests)
func NewGoogleGeocoderWithClient(cfg config.GeolocationConfig, cache providers.CacheProvider, baseURL string, httpClient *http.Client) *GoogleGeocoder {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = googleGeocodeURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &GoogleGeocoder{
		apiKey:     cfg.APIKey,
		region:     strings.ToLower(strings.TrimSpace(cfg.Region)),
		language:   strings.TrimSpace(cfg.Language),
		cacheTTL:   ttl,
		baseURL:    baseURL,
		httpClient: httpClient,
		cache:      cache,
	}
}

// Geocode resolves a typed address such as "Rua da Missão, Luanda"
func (g *GoogleGeocoder) Geocode(ctx context.Context, address string) (*providers.GeocodedAddress, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return nil, fmt.Errorf("address is required")
	}
	params := url.Values{"address": []string{trimmed}}
	if g.region != "" {
		params.Set("region", g.region)
	}
	return g.lookup(ctx, "geocode", strings.ToLower(trimmed), params)
}

// ReverseGeocode describes the place at a device position
func (g *GoogleGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (*providers.GeocodedAddress, error) {
	if err := utils.ValidateStruct(entities.Location{Latitude: lat, Longitude: lon}); err != nil {
		return nil, fmt.Errorf("invalid coordinates: %s", utils.FormatFirstValidationError(err))
	}
	latlng := fmt.Sprintf("%.6f,%.6f", lat, lon)
	return g.lookup(ctx, "reverse", latlng, url.Values{"latlng": []string{latlng}})
}

// lookup serves a query from the cache or the API. Only results with usable
// coordinates are returned and cached.
func (g *GoogleGeocoder) lookup(ctx context.Context, kind, query string, params url.Values) (*providers.GeocodedAddress, error) {
	cacheKey := g.cacheKey(kind, query)
	if addr := g.cached(ctx, cacheKey); addr != nil {
		return addr, nil
	}

	result, err := g.request(ctx, params)
	if err != nil {
		return nil, err
	}

	addr := toGeocodedAddress(result)
	if err := utils.ValidateStruct(entities.Location{
		Latitude:  addr.Coordinates.Latitude,
		Longitude: addr.Coordinates.Longitude,
	}); err != nil {
		return nil, fmt.Errorf("geocoder returned unusable coordinates: %s", utils.FormatFirstValidationError(err))
	}

	if g.cache != nil {
		if payload, err := json.Marshal(addr); err == nil {
			if err := g.cache.Set(ctx, cacheKey, payload, int(g.cacheTTL.Seconds())); err != nil {
				log.Debug().Err(err).Str("kind", kind).Msg("failed to cache geocode result")
			}
		}
	}
	return addr, nil
}

func (g *GoogleGeocoder) cached(ctx context.Context, key string) *providers.GeocodedAddress {
	if g.cache == nil {
		return nil
	}
	payload, err := g.cache.Get(ctx, key)
	if err != nil || len(payload) == 0 {
		return nil
	}
	var addr providers.GeocodedAddress
	if err := json.Unmarshal(payload, &addr); err != nil {
		return nil
	}
	return &addr
}

func (g *GoogleGeocoder) cacheKey(kind, query string) string {
	sum := sha256.Sum256([]byte(g.region + "|" + g.language + "|" + query))
	return "geo:v3:" + kind + ":" + hex.EncodeToString(sum[:])
}

// request calls the API and returns its best result. ZERO_RESULTS is
// reported as providers.ErrAddressNotFound.
func (g *GoogleGeocoder) request(ctx context.Context, params url.Values) (*googleGeocodeResult, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("google maps api key is required")
	}
	params.Set("key", g.apiKey)
	if g.language != "" {
		params.Set("language", g.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocode request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("geocode request returned status %d", resp.StatusCode)
	}

	var payload googleGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}

	switch payload.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, providers.ErrAddressNotFound
	default:
		if payload.ErrorMessage != "" {
			return nil, fmt.Errorf("geocode request failed: %s - %s", payload.Status, payload.ErrorMessage)
		}
		return nil, fmt.Errorf("geocode request failed: %s", payload.Status)
	}
	if len(payload.Results) == 0 {
		return nil, providers.ErrAddressNotFound
	}
	return bestResult(payload.Results), nil
}

// bestResult prefers the first exact match over partial ones
func bestResult(results []googleGeocodeResult) *googleGeocodeResult {
	for i := range results {
		if !results[i].PartialMatch {
			return &results[i]
		}
	}
	return &results[0]
}

func toGeocodedAddress(result *googleGeocodeResult) *providers.GeocodedAddress {
	return &providers.GeocodedAddress{
		FormattedAddress: result.FormattedAddress,
		Street:           result.street(),
		City:             result.component("locality", "administrative_area_level_2"),
		State:            result.component("administrative_area_level_1"),
		Country:          result.component("country"),
		Coordinates: providers.Coordinates{
			Latitude:  result.Geometry.Location.Lat,
			Longitude: result.Geometry.Location.Lng,
		},
	}
}

type googleGeocodeResponse struct {
	Status       string                `json:"status"`
	ErrorMessage string                `json:"error_message,omitempty"`
	Results      []googleGeocodeResult `json:"results"`
}

type googleGeocodeResult struct {
	FormattedAddress  string `json:"formatted_address"`
	PartialMatch      bool   `json:"partial_match"`
	AddressComponents []struct {
		LongName string   `json:"long_name"`
		Types    []string `json:"types"`
	} `json:"address_components"`
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

// component returns the first address component having one of types, in
// the order the types are given
func (r *googleGeocodeResult) component(types ...string) string {
	for _, want := range types {
		for _, comp := range r.AddressComponents {
			for _, t := range comp.Types {
				if t == want {
					return comp.LongName
				}
			}
		}
	}
	return ""
}

func (r *googleGeocodeResult) street() string {
	route := r.component("route")
	number := r.component("street_number")
	switch {
	case route != "" && number != "":
		return route + ", " + number
	case route != "":
		return route
	default:
		return number
	}
}
