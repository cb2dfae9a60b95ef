package weather

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
	"TripBot/internal/service/cache"
)

// HorizonDays is how far ahead the forecast API answers; later dates are
// clamped to it.
const HorizonDays = 15

const dateLayout = "2006-01-02"

type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      cache.Cache
	now        func() time.Time
	log        *slog.Logger
}

func New(baseURL string, timeout time.Duration, c cache.Cache, log *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		cache:      c,
		now:        time.Now,
		log:        log.With(sl.Module("weather")),
	}
}

type forecastResponse struct {
	Hourly struct {
		Humidity []*float64 `json:"relative_humidity_2m"`
	} `json:"hourly"`
	Daily struct {
		Code          []*int     `json:"weather_code"`
		TempMax       []*float64 `json:"temperature_2m_max"`
		TempMin       []*float64 `json:"temperature_2m_min"`
		ApparentMax   []*float64 `json:"apparent_temperature_max"`
		ApparentMin   []*float64 `json:"apparent_temperature_min"`
		Precipitation []*int     `json:"precipitation_probability_max"`
	} `json:"daily"`
}

// Horizon is the last day a forecast can be requested for.
func (c *Client) Horizon() time.Time {
	return truncateDay(c.now()).AddDate(0, 0, HorizonDays)
}

// Clamp returns the day actually forecast for date.
func (c *Client) Clamp(date time.Time) time.Time {
	day := truncateDay(date)
	if horizon := c.Horizon(); day.After(horizon) {
		return horizon
	}
	return day
}

// ForecastFor never fails: missing values are replaced by defaults and a
// failed request yields entity.DefaultForecast.
func (c *Client) ForecastFor(ctx context.Context, city entity.City, date time.Time) entity.Forecast {
	day := c.Clamp(date)
	key := fmt.Sprintf("weather:%s:%s", city.ID, day.Format(dateLayout))

	var cached entity.Forecast
	if c.cache.Get(ctx, key, &cached) {
		return cached
	}

	q := url.Values{}
	q.Set("start_date", day.Format(dateLayout))
	q.Set("end_date", day.Format(dateLayout))
	q.Set("latitude", strconv.FormatFloat(city.Lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(city.Lon, 'f', -1, 64))
	q.Set("hourly", "relative_humidity_2m")
	q.Set("daily", "weather_code,temperature_2m_max,temperature_2m_min,apparent_temperature_max,apparent_temperature_min,precipitation_probability_max")
	q.Set("timezone", "auto")

	var resp forecastResponse
	if err := c.get(ctx, q, &resp); err != nil {
		c.log.Warn("fetch forecast", slog.String("city", city.ID), sl.Err(err))
		return entity.DefaultForecast(city, day)
	}

	f := toForecast(city, day, resp)
	c.cache.Set(ctx, key, f)
	return f
}

func toForecast(city entity.City, day time.Time, resp forecastResponse) entity.Forecast {
	f := entity.DefaultForecast(city, day)
	if v := firstInt(resp.Daily.Code); v != nil {
		f.Code = entity.WeatherCodeOf(*v)
	}
	if v := firstFloat(resp.Daily.TempMax); v != nil {
		f.TemperatureMax = *v
	}
	if v := firstFloat(resp.Daily.TempMin); v != nil {
		f.TemperatureMin = *v
	}
	f.ApparentMax = f.TemperatureMax
	if v := firstFloat(resp.Daily.ApparentMax); v != nil {
		f.ApparentMax = *v
	}
	f.ApparentMin = f.TemperatureMin
	if v := firstFloat(resp.Daily.ApparentMin); v != nil {
		f.ApparentMin = *v
	}
	if v := firstInt(resp.Daily.Precipitation); v != nil {
		f.PrecipitationChance = *v
	}

	var sum float64
	var n int
	for _, h := range resp.Hourly.Humidity {
		if h == nil {
			sum += 50
		} else {
			sum += *h
		}
		n++
	}
	if n > 0 {
		f.Humidity = sum / float64(n)
	}
	return f
}

func (c *Client) get(ctx context.Context, q url.Values, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/forecast?"+q.Encode(), nil)
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

func firstFloat(vs []*float64) *float64 {
	if len(vs) == 0 {
		return nil
	}
	return vs[0]
}

func firstInt(vs []*int) *int {
	if len(vs) == 0 {
		return nil
	}
	return vs[0]
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
