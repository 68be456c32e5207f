package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"server-warden/internal/httpclient"
)

const berlinGeo = `{"results":[{"name":"Berlin","admin1":"Land Berlin","country":"Germany",
"latitude":52.52437,"longitude":13.41053,"elevation":74,"population":3426354}]}`

const berlinForecast = `{
 "current_weather":{"temperature":21.4,"windspeed":11.2,"winddirection":270,"weathercode":2,"is_day":1,"time":"2026-06-01T14:15"},
 "hourly":{"time":["2026-06-01T13:00","2026-06-01T14:00"],
  "relative_humidity_2m":[40,45],"apparent_temperature":[20.1,20.9],
  "pressure_msl":[1013.2,1012.8],"visibility":[24000,18500],"cloudcover":[30,55]},
 "daily":{"temperature_2m_max":[24.3],"temperature_2m_min":[12.9],
  "sunrise":["2026-06-01T04:47"],"sunset":["2026-06-01T21:25"]}
}`

type upstream struct {
	srv           *httptest.Server
	geoHits       atomic.Int32
	forecastHits  atomic.Int32
	geoStatus     int
	geoBody       string
	forecastQuery atomic.Value
}

func newUpstream(t *testing.T, geoStatus int, geoBody string) *upstream {
	t.Helper()
	u := &upstream{geoStatus: geoStatus, geoBody: geoBody}
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/search"):
			u.geoHits.Add(1)
			assert.Equal(t, "1", r.URL.Query().Get("count"))
			assert.Equal(t, "en", r.URL.Query().Get("language"))
			w.WriteHeader(u.geoStatus)
			_, _ = w.Write([]byte(u.geoBody))
		case strings.HasSuffix(r.URL.Path, "/forecast"):
			u.forecastHits.Add(1)
			u.forecastQuery.Store(r.URL.Query())
			_, _ = w.Write([]byte(berlinForecast))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(u.srv.Close)
	return u
}

func (u *upstream) client() *Client {
	hc := httpclient.New(httpclient.Config{Name: "weather", Timeout: 2 * time.Second, RatePerSecond: 50})
	return NewClient(hc, Config{GeocodingURL: u.srv.URL + "/v1/search", ForecastURL: u.srv.URL + "/v1/forecast"})
}

func TestLookup(t *testing.T) {
	up := newUpstream(t, http.StatusOK, berlinGeo)

	r, err := up.client().Lookup(context.Background(), "Berlin", Celsius)

	require.NoError(t, err)
	assert.Equal(t, "Berlin, Land Berlin, Germany", r.Location.Display())
	assert.Equal(t, 21.4, r.Temperature)
	assert.Equal(t, 20.9, r.FeelsLike, "hourly slot of the current hour")
	require.NotNil(t, r.Visibility)
	assert.Equal(t, 18500.0, *r.Visibility)
	assert.True(t, r.IsDay)

	q := up.forecastQuery.Load().(url.Values)
	assert.Equal(t, "celsius", q.Get("temperature_unit"))
	assert.Equal(t, "kmh", q.Get("windspeed_unit"))
	assert.Equal(t, "true", q.Get("current_weather"))
}

func TestLookup_Fahrenheit(t *testing.T) {
	up := newUpstream(t, http.StatusOK, berlinGeo)

	_, err := up.client().Lookup(context.Background(), "Berlin", Fahrenheit)

	require.NoError(t, err)
	q := up.forecastQuery.Load().(url.Values)
	assert.Equal(t, "fahrenheit", q.Get("temperature_unit"))
	assert.Equal(t, "mph", q.Get("windspeed_unit"))
}

func TestLookup_CityNotFoundSkipsForecast(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{}`)

	_, err := up.client().Lookup(context.Background(), "Atlantis", Celsius)

	assert.ErrorIs(t, err, ErrCityNotFound)
	assert.Equal(t, int32(1), up.geoHits.Load())
	assert.Equal(t, int32(0), up.forecastHits.Load())
	assert.Equal(t, "❌ City 'Atlantis' not found. Please check the spelling and try again.", UserMessage(err, "Atlantis").Content)
}

func TestLookup_GeocodingError(t *testing.T) {
	up := newUpstream(t, http.StatusBadRequest, `{"error":true}`)

	_, err := up.client().Lookup(context.Background(), "Berlin", Celsius)

	assert.ErrorIs(t, err, ErrGeocoding)
	assert.Equal(t, int32(0), up.forecastHits.Load())
	assert.Contains(t, UserMessage(err, "Berlin").Content, "Geocoding service error")
}

func TestLookup_Network(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	hc := httpclient.New(httpclient.Config{Name: "weather", Timeout: time.Second, RatePerSecond: 50})
	c := NewClient(hc, Config{GeocodingURL: base + "/v1/search", ForecastURL: base + "/v1/forecast"})

	_, err := c.Lookup(context.Background(), "Berlin", Celsius)

	assert.ErrorIs(t, err, ErrNetwork)
	msg := UserMessage(err, "Berlin")
	assert.Equal(t, "❌ Network error. Couldn't reach the weather service.", msg.Content)
	assert.True(t, msg.Ephemeral)
}

func TestLookup_CanceledCallerDoesNotFailSharedLookup(t *testing.T) {
	release := make(chan struct{})
	var geoHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/search") {
			geoHits.Add(1)
			<-release
			_, _ = w.Write([]byte(berlinGeo))
			return
		}
		_, _ = w.Write([]byte(berlinForecast))
	}))
	defer srv.Close()
	hc := httpclient.New(httpclient.Config{Name: "weather", Timeout: 5 * time.Second, RatePerSecond: 50})
	c := NewClient(hc, Config{GeocodingURL: srv.URL + "/v1/search", ForecastURL: srv.URL + "/v1/forecast"})

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Lookup(first, "Berlin", Celsius)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return geoHits.Load() == 1 }, time.Second, 5*time.Millisecond)

	second := make(chan *Reading, 1)
	go func() {
		r, err := c.Lookup(context.Background(), "berlin", Celsius)
		assert.NoError(t, err)
		second <- r
	}()
	// let the second caller join the in-flight lookup
	time.Sleep(50 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	select {
	case r := <-second:
		require.NotNil(t, r)
		assert.Equal(t, 21.4, r.Temperature)
	case <-time.After(3 * time.Second):
		t.Fatal("shared lookup did not finish")
	}
}

func TestDescribe(t *testing.T) {
	desc, emoji := Describe(0)
	assert.Equal(t, "Clear sky", desc)
	assert.Equal(t, "☀️", emoji)

	desc, emoji = Describe(12345)
	assert.Equal(t, "Unknown", desc)
	assert.Equal(t, "❓", emoji)

	assert.Len(t, conditions, 28)
}

func TestWindSector(t *testing.T) {
	tests := []struct {
		degrees float64
		want    int
		arrow   string
	}{
		{degrees: 0, want: 0, arrow: "↓"},
		{degrees: 360, want: 0, arrow: "↓"},
		{degrees: 44, want: 0, arrow: "↓"},
		{degrees: 46, want: 1, arrow: "↙"},
		{degrees: 180, want: 4, arrow: "↑"},
		{degrees: 359, want: 7, arrow: "↘"},
		{degrees: -45, want: 7, arrow: "↘"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WindSector(tt.degrees), "%v°", tt.degrees)
		assert.Equal(t, tt.arrow, WindArrow(tt.degrees), "%v°", tt.degrees)
	}
}

func TestRender(t *testing.T) {
	up := newUpstream(t, http.StatusOK, berlinGeo)
	r, err := up.client().Lookup(context.Background(), "Berlin", Celsius)
	require.NoError(t, err)

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	m := Render(r, now)

	assert.Equal(t, "⛅ Current Weather in Berlin, Land Berlin, Germany", m.Title)
	assert.False(t, m.Ephemeral)
	assert.Equal(t, "https://openweathermap.org/img/wn/02d@2x.png", m.Thumbnail)
	assert.Equal(t, now, m.Timestamp)
	assert.Equal(t, "☀️ Day • Updated at 14:15 (Local Time) • Data: Open-Meteo", m.Footer)

	fields := map[string]string{}
	for _, f := range m.Fields {
		fields[f.Name] = f.Value
	}
	assert.Equal(t, "**18.5 km**", fields["👁️ Visibility"])
	assert.Equal(t, "**04:47**", fields["🌅 Sunrise"])
	assert.Equal(t, "**11.2 km/h**\nDirection: 270° →", fields["💨 Wind"])
	assert.Contains(t, fields["🗺️ Location Details"], "3,426,354")
	assert.Contains(t, fields["🗺️ Location Details"], "52.5244, 13.4105")
}

func TestIconURL(t *testing.T) {
	assert.Equal(t, "https://openweathermap.org/img/wn/01n@2x.png", iconURL(0, false))
	assert.Equal(t, "https://openweathermap.org/img/wn/04n@2x.png", iconURL(95, false))
	assert.Equal(t, "https://openweathermap.org/img/wn/13d@2x.png", iconURL(86, true))
	assert.Empty(t, iconURL(12345, true))
}

func TestParseUnits(t *testing.T) {
	assert.Equal(t, Fahrenheit, ParseUnits("Fahrenheit"))
	assert.Equal(t, Celsius, ParseUnits(""))
	assert.Equal(t, Celsius, ParseUnits("kelvin"))
}
