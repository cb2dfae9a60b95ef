package places

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"TripBot/entity"
	"TripBot/internal/lib/sl"
	"TripBot/internal/service/cache"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	searchRadius = 100000
	searchLimit  = 25
	resultLimit  = 10
)

type Config struct {
	BaseURL string
	ApiKey  string
	Rate    float64
	Timeout time.Duration
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      cache.Cache
	log        *slog.Logger
}

func New(conf Config, c cache.Cache, log *slog.Logger) *Client {
	if conf.Rate <= 0 {
		conf.Rate = 5
	}
	return &Client{
		baseURL:    conf.BaseURL,
		apiKey:     conf.ApiKey,
		httpClient: &http.Client{Timeout: conf.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(conf.Rate), 1),
		cache:      c,
		log:        log.With(sl.Module("places")),
	}
}

type radiusResponse struct {
	Features []struct {
		Properties struct {
			XID   string  `json:"xid"`
			Name  string  `json:"name"`
			Rate  any     `json:"rate"`
			Kinds string  `json:"kinds"`
			Dist  float64 `json:"dist"`
		} `json:"properties"`
	} `json:"features"`
}

type detailResponse struct {
	URL string `json:"url"`
}

// PlacesNear returns at most ten distinct places; any failure yields an empty
// list.
func (c *Client) PlacesNear(ctx context.Context, city entity.City, kinds, minRate string) []entity.Place {
	key := fmt.Sprintf("places:%s:%s:%s", city.ID, kinds, minRate)
	var cached []entity.Place
	if c.cache.Get(ctx, key, &cached) {
		return cached
	}

	q := url.Values{}
	q.Set("radius", strconv.Itoa(searchRadius))
	q.Set("lon", strconv.FormatFloat(city.Lon, 'f', -1, 64))
	q.Set("lat", strconv.FormatFloat(city.Lat, 'f', -1, 64))
	q.Set("kinds", kinds)
	if minRate != "" {
		q.Set("rate", minRate)
	}
	q.Set("limit", strconv.Itoa(searchLimit))

	var resp radiusResponse
	if err := c.get(ctx, "/0.1/en/places/radius", q, &resp); err != nil {
		c.log.Warn("search places", slog.String("city", city.ID), slog.String("kinds", kinds), sl.Err(err))
		return []entity.Place{}
	}

	seen := make(map[string]bool)
	result := make([]entity.Place, 0, resultLimit)
	for _, f := range resp.Features {
		p := f.Properties
		if p.XID == "" || p.Name == "" || seen[p.XID] {
			continue
		}
		seen[p.XID] = true
		result = append(result, entity.Place{
			XID:   p.XID,
			Name:  p.Name,
			Rate:  fmt.Sprint(p.Rate),
			Kinds: strings.Split(p.Kinds, ","),
			Dist:  p.Dist,
		})
		if len(result) == resultLimit {
			break
		}
	}

	c.attachURLs(ctx, result)
	c.cache.Set(ctx, key, result)
	return result
}

// attachURLs fills Place.URL best-effort; a missing link is not an error.
func (c *Client) attachURLs(ctx context.Context, list []entity.Place) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range list {
		g.Go(func() error {
			list[i].URL = c.placeURL(gctx, list[i].XID)
			return nil
		})
	}
	_ = g.Wait()
}

func (c *Client) placeURL(ctx context.Context, xid string) string {
	key := "place-url:" + xid
	var u string
	if c.cache.Get(ctx, key, &u) {
		return u
	}
	var resp detailResponse
	if err := c.get(ctx, "/0.1/en/places/xid/"+url.PathEscape(xid), url.Values{}, &resp); err != nil {
		c.log.Debug("place details", slog.String("xid", xid), sl.Err(err))
		return ""
	}
	c.cache.Set(ctx, key, resp.URL)
	return resp.URL
}

func (c *Client) get(ctx context.Context, path string, q url.Values, dst any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	q.Set("apikey", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
