// Package weather looks up current conditions for a city through the
// Open-Meteo geocoding and forecast APIs.
package weather

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"server-warden/internal/httpclient"
)

// Units selects the unit system of a reading.
type Units string

const (
	Celsius    Units = "celsius"
	Fahrenheit Units = "fahrenheit"
)

// ParseUnits accepts "fahrenheit" (any case); everything else is Celsius.
func ParseUnits(s string) Units {
	if strings.EqualFold(strings.TrimSpace(s), string(Fahrenheit)) {
		return Fahrenheit
	}
	return Celsius
}

func (u Units) temperatureSymbol() string {
	if u == Fahrenheit {
		return "°F"
	}
	return "°C"
}

func (u Units) windSymbol() string {
	if u == Fahrenheit {
		return "mph"
	}
	return "km/h"
}

func (u Units) query() (temperature, wind string) {
	if u == Fahrenheit {
		return "fahrenheit", "mph"
	}
	return "celsius", "kmh"
}

var (
	ErrGeocoding    = errors.New("geocoding service error")
	ErrCityNotFound = errors.New("city not found")
	ErrForecast     = errors.New("weather service error")
	ErrNetwork      = errors.New("weather service unreachable")
)

// Location is the best geocoding match for a query.
type Location struct {
	Name       string  `json:"name"`
	Admin1     string  `json:"admin1"`
	Country    string  `json:"country"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Elevation  float64 `json:"elevation"`
	Population int64   `json:"population"`
}

// Display is "City, State, Country" without empty parts.
func (l Location) Display() string {
	parts := []string{l.Name}
	if l.Admin1 != "" {
		parts = append(parts, l.Admin1)
	}
	country := l.Country
	if country == "" {
		country = "Unknown"
	}
	parts = append(parts, country)
	return strings.Join(parts, ", ")
}

// Reading is a snapshot of the current weather at a location.
type Reading struct {
	Location Location
	Units    Units

	Temperature   float64
	FeelsLike     float64
	Code          int
	WindSpeed     float64
	WindDirection float64
	IsDay         bool
	// Observed is the local time of the reading as reported upstream.
	Observed string

	Humidity   *float64
	Pressure   *float64
	Visibility *float64 // metres
	CloudCover *float64

	TempMax, TempMin *float64
	Sunrise, Sunset  string
}

// Config points the client at the upstream APIs.
type Config struct {
	GeocodingURL string
	ForecastURL  string
}

// Client fetches readings. Concurrent lookups of the same city and units share
// one upstream round trip.
type Client struct {
	http  *httpclient.Client
	cfg   Config
	group singleflight.Group
}

// NewClient returns a Client using http for transport.
func NewClient(http *httpclient.Client, cfg Config) *Client {
	return &Client{http: http, cfg: cfg}
}

// Lookup geocodes city and fetches its current weather. The shared upstream
// call is detached from any single caller's cancellation; each caller stops
// waiting when its own ctx is done.
func (c *Client) Lookup(ctx context.Context, city string, units Units) (*Reading, error) {
	key := strings.ToLower(strings.TrimSpace(city)) + "|" + string(units)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		return c.lookup(context.WithoutCancel(ctx), city, units)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			zerolog.Ctx(ctx).Debug().Str("city", city).Msg("weather lookup shared")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		r := *res.Val.(*Reading)
		return &r, nil
	}
}

func (c *Client) lookup(ctx context.Context, city string, units Units) (*Reading, error) {
	loc, err := c.geocode(ctx, city)
	if err != nil {
		return nil, err
	}
	return c.forecast(ctx, *loc, units)
}

type geocodeResponse struct {
	Results []Location `json:"results"`
}

func (c *Client) geocode(ctx context.Context, city string) (*Location, error) {
	q := url.Values{
		"name":     {city},
		"count":    {"1"},
		"language": {"en"},
		"format":   {"json"},
	}
	var resp geocodeResponse
	if err := c.http.GetJSON(ctx, c.cfg.GeocodingURL, q, &resp); err != nil {
		return nil, classify(err, ErrGeocoding)
	}
	if len(resp.Results) == 0 {
		return nil, ErrCityNotFound
	}
	loc := resp.Results[0]
	if loc.Name == "" {
		loc.Name = city
	}
	return &loc, nil
}

type forecastResponse struct {
	Current struct {
		Temperature   float64 `json:"temperature"`
		WindSpeed     float64 `json:"windspeed"`
		WindDirection float64 `json:"winddirection"`
		WeatherCode   int     `json:"weathercode"`
		IsDay         *int    `json:"is_day"`
		Time          string  `json:"time"`
	} `json:"current_weather"`
	Hourly struct {
		Time                []string   `json:"time"`
		RelativeHumidity    []*float64 `json:"relative_humidity_2m"`
		ApparentTemperature []*float64 `json:"apparent_temperature"`
		PressureMSL         []*float64 `json:"pressure_msl"`
		Visibility          []*float64 `json:"visibility"`
		CloudCover          []*float64 `json:"cloudcover"`
	} `json:"hourly"`
	Daily struct {
		TemperatureMax []*float64 `json:"temperature_2m_max"`
		TemperatureMin []*float64 `json:"temperature_2m_min"`
		Sunrise        []string   `json:"sunrise"`
		Sunset         []string   `json:"sunset"`
	} `json:"daily"`
}

func (c *Client) forecast(ctx context.Context, loc Location, units Units) (*Reading, error) {
	tempUnit, windUnit := units.query()
	q := url.Values{
		"latitude":         {strconv.FormatFloat(loc.Latitude, 'f', -1, 64)},
		"longitude":        {strconv.FormatFloat(loc.Longitude, 'f', -1, 64)},
		"current_weather":  {"true"},
		"timezone":         {"auto"},
		"hourly":           {"relative_humidity_2m,apparent_temperature,pressure_msl,visibility,cloudcover"},
		"daily":            {"temperature_2m_max,temperature_2m_min,sunrise,sunset"},
		"forecast_days":    {"1"},
		"temperature_unit": {tempUnit},
		"windspeed_unit":   {windUnit},
	}
	var resp forecastResponse
	if err := c.http.GetJSON(ctx, c.cfg.ForecastURL, q, &resp); err != nil {
		return nil, classify(err, ErrForecast)
	}

	cur := resp.Current
	r := &Reading{
		Location:      loc,
		Units:         units,
		Temperature:   cur.Temperature,
		FeelsLike:     cur.Temperature,
		Code:          cur.WeatherCode,
		WindSpeed:     cur.WindSpeed,
		WindDirection: cur.WindDirection,
		IsDay:         cur.IsDay == nil || *cur.IsDay == 1,
		Observed:      cur.Time,
	}

	h := hourIndex(resp.Hourly.Time, cur.Time)
	if v := at(resp.Hourly.ApparentTemperature, h); v != nil {
		r.FeelsLike = *v
	}
	r.Humidity = at(resp.Hourly.RelativeHumidity, h)
	r.Pressure = at(resp.Hourly.PressureMSL, h)
	r.Visibility = at(resp.Hourly.Visibility, h)
	r.CloudCover = at(resp.Hourly.CloudCover, h)

	r.TempMax = at(resp.Daily.TemperatureMax, 0)
	r.TempMin = at(resp.Daily.TemperatureMin, 0)
	if len(resp.Daily.Sunrise) > 0 {
		r.Sunrise = resp.Daily.Sunrise[0]
	}
	if len(resp.Daily.Sunset) > 0 {
		r.Sunset = resp.Daily.Sunset[0]
	}
	return r, nil
}

// hourIndex finds the hourly slot of the current observation; Open-Meteo
// reports current time at quarter-hour resolution so the hour prefix is used.
func hourIndex(times []string, current string) int {
	if len(current) >= 13 {
		prefix := current[:13]
		for i, t := range times {
			if strings.HasPrefix(t, prefix) {
				return i
			}
		}
	}
	return 0
}

func at(values []*float64, i int) *float64 {
	if i < 0 || i >= len(values) {
		return nil
	}
	return values[i]
}

// classify maps transport failures to the package sentinels, keeping the cause.
func classify(err, service error) error {
	var se *httpclient.StatusError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, httpclient.ErrUnreachable):
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	case errors.As(err, &se), errors.Is(err, httpclient.ErrDecode):
		return fmt.Errorf("%w: %w", service, err)
	default:
		return err
	}
}
