package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"TripBot/entity"
	"TripBot/internal/lib/sl"

	"golang.org/x/time/rate"
)

type Config struct {
	BaseURL   string
	UserAgent string
	// Rate is requests per second; Nominatim's usage policy allows one.
	Rate    float64
	Timeout time.Duration
}

// Client resolves cities through Nominatim, consulting the catalog first.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	catalog    *Catalog
	log        *slog.Logger
}

func New(conf Config, catalog *Catalog, log *slog.Logger) *Client {
	if conf.Rate <= 0 {
		conf.Rate = 1
	}
	if conf.Timeout <= 0 {
		conf.Timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    conf.BaseURL,
		userAgent:  conf.UserAgent,
		httpClient: &http.Client{Timeout: conf.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(conf.Rate), 1),
		catalog:    catalog,
		log:        log.With(sl.Module("geocoder")),
	}
}

type address struct {
	ISOLvl6 string `json:"ISO3166-2-lvl6"`
	ISOLvl4 string `json:"ISO3166-2-lvl4"`
	City    string `json:"city"`
	Town    string `json:"town"`
	Village string `json:"village"`
	State   string `json:"state"`
	Country string `json:"country"`
}

type reverseResponse struct {
	OsmType string  `json:"osm_type"`
	OsmID   int64   `json:"osm_id"`
	Lat     string  `json:"lat"`
	Lon     string  `json:"lon"`
	Address address `json:"address"`
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// CatalogCity looks the name up in the static catalog only.
func (c *Client) CatalogCity(name string) (entity.City, bool) {
	return c.catalog.ByName(name)
}

// CityFromCoordinates returns entity.UnknownCity when the point cannot be
// mapped to a city.
func (c *Client) CityFromCoordinates(ctx context.Context, lat, lon float64) entity.City {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("accept-language", "en")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	var resp reverseResponse
	if err := c.get(ctx, "/reverse", q, &resp); err != nil {
		c.log.Warn("reverse geocoding", slog.Float64("lat", lat), slog.Float64("lon", lon), sl.Err(err))
		return entity.UnknownCity
	}
	return c.toCity(resp, lat, lon)
}

// CityFromText searches the name and reverse-geocodes the best hit so both
// paths agree on city identity.
func (c *Client) CityFromText(ctx context.Context, name string) entity.City {
	if city, ok := c.catalog.ByName(name); ok {
		return city
	}
	q := url.Values{}
	q.Set("q", name)
	q.Set("format", "jsonv2")
	q.Set("limit", "1")
	q.Set("accept-language", "en")

	var results []searchResult
	if err := c.get(ctx, "/search", q, &results); err != nil {
		c.log.Warn("search geocoding", slog.String("query", name), sl.Err(err))
		return entity.UnknownCity
	}
	if len(results) == 0 {
		return entity.UnknownCity
	}
	lat, err1 := strconv.ParseFloat(results[0].Lat, 64)
	lon, err2 := strconv.ParseFloat(results[0].Lon, 64)
	if err1 != nil || err2 != nil {
		return entity.UnknownCity
	}
	return c.CityFromCoordinates(ctx, lat, lon)
}

func (c *Client) toCity(resp reverseResponse, lat, lon float64) entity.City {
	a := resp.Address
	for _, code := range []string{a.ISOLvl6, a.ISOLvl4} {
		if code == "" {
			continue
		}
		if city, ok := c.catalog.ByISO(code); ok {
			return city
		}
	}
	name := firstNonEmpty(a.City, a.Town, a.Village, a.State)
	if name == "" {
		return entity.UnknownCity
	}
	if city, ok := c.catalog.ByName(name); ok {
		return city
	}
	if resp.OsmID == 0 {
		return entity.UnknownCity
	}
	if v, err := strconv.ParseFloat(resp.Lat, 64); err == nil {
		lat = v
	}
	if v, err := strconv.ParseFloat(resp.Lon, 64); err == nil {
		lon = v
	}
	return entity.City{
		ID:      fmt.Sprintf("osm:%s%d", resp.OsmType, resp.OsmID),
		Name:    name,
		Country: a.Country,
		Lat:     lat,
		Lon:     lon,
	}
}

func (c *Client) get(ctx context.Context, path string, q url.Values, dst any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request %s: status %d", path, resp.StatusCode)
	}
	if err = json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
