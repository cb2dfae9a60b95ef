package routemap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"TripBot/entity"
	"TripBot/internal/lib/sl"

	"github.com/disintegration/imaging"
)

const (
	mapWidth  = 1280
	mapHeight = 720
)

var ErrNoRoute = errors.New("no route between the points")

type Config struct {
	RoutingURL   string
	StaticMapURL string
	Timeout      time.Duration
}

// Client asks an OSRM server for a driving route and a static map renderer
// for its picture.
type Client struct {
	routingURL   string
	staticMapURL string
	httpClient   *http.Client
	log          *slog.Logger
}

func New(conf Config, log *slog.Logger) *Client {
	return &Client{
		routingURL:   strings.TrimRight(conf.RoutingURL, "/"),
		staticMapURL: strings.TrimRight(conf.StaticMapURL, "/"),
		httpClient:   &http.Client{Timeout: conf.Timeout},
		log:          log.With(sl.Module("routemap")),
	}
}

type routeResponse struct {
	Routes []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

type renderRequest struct {
	Width     int         `json:"width"`
	Height    int         `json:"height"`
	Route     [][]float64 `json:"route"`
	Locations [][]float64 `json:"locations"`
}

// RouteThrough returns the route polyline; an empty result means no route.
func (c *Client) RouteThrough(ctx context.Context, points []entity.Point) ([]entity.Point, error) {
	if len(points) < 2 {
		return nil, nil
	}
	coords := make([]string, len(points))
	for i, p := range points {
		coords[i] = strconv.FormatFloat(p.Lon, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lat, 'f', -1, 64)
	}
	url := fmt.Sprintf("%s/route/v1/driving/%s?geometries=geojson", c.routingURL, strings.Join(coords, ";"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("route request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("route request: status %d", resp.StatusCode)
	}

	var rr routeResponse
	if err = json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, fmt.Errorf("decode route: %w", err)
	}
	if len(rr.Routes) == 0 {
		return nil, nil
	}
	line := make([]entity.Point, 0, len(rr.Routes[0].Geometry.Coordinates))
	for _, pt := range rr.Routes[0].Geometry.Coordinates {
		if len(pt) < 2 {
			continue
		}
		line = append(line, entity.Point{Lat: pt[1], Lon: pt[0]})
	}
	return line, nil
}

// RenderMap draws the route with markers and returns a PNG no larger than
// 1280x720.
func (c *Client) RenderMap(ctx context.Context, route, points []entity.Point) ([]byte, error) {
	body, err := json.Marshal(renderRequest{
		Width:     mapWidth,
		Height:    mapHeight,
		Route:     lonLat(route),
		Locations: lonLat(points),
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.staticMapURL+"/render", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("render request: status %d", resp.StatusCode)
	}

	img, err := imaging.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode map: %w", err)
	}
	img = imaging.Fit(img, mapWidth, mapHeight, imaging.Lanczos)

	var out bytes.Buffer
	if err = imaging.Encode(&out, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode map: %w", err)
	}
	return out.Bytes(), nil
}

// Illustrate chains RouteThrough and RenderMap.
func (c *Client) Illustrate(ctx context.Context, points []entity.Point) ([]byte, error) {
	route, err := c.RouteThrough(ctx, points)
	if err != nil {
		return nil, err
	}
	if len(route) < 2 {
		return nil, ErrNoRoute
	}
	t := time.Now()
	img, err := c.RenderMap(ctx, route, points)
	if err != nil {
		return nil, err
	}
	c.log.Debug("route rendered", slog.Int("points", len(points)), slog.Duration("took", time.Since(t)))
	return img, nil
}

func lonLat(points []entity.Point) [][]float64 {
	out := make([][]float64, len(points))
	for i, p := range points {
		out[i] = []float64{p.Lon, p.Lat}
	}
	return out
}
