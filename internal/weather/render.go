package weather

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"server-warden/internal/response"
)

const (
	sourceFavicon = "https://open-meteo.com/images/favicon.ico"
	localLayout   = "2006-01-02T15:04"
)

// Render builds the public weather embed for r.
func Render(r *Reading, now time.Time) response.Message {
	desc, emoji := Describe(r.Code)
	temp, wind := r.Units.temperatureSymbol(), r.Units.windSymbol()
	loc := r.Location

	m := response.New(emoji, "Current Weather in "+loc.Display(), "", response.Info).
		AddField("🌡️ Temperature", fmt.Sprintf("**%s%s**\nFeels like: %s%s", num(r.Temperature), temp, num(r.FeelsLike), temp), true).
		AddField("☁️ Condition", fmt.Sprintf("**%s**\nCloud cover: %s%%", desc, optional(r.CloudCover)), true).
		AddField("💧 Humidity", fmt.Sprintf("**%s%%**", optional(r.Humidity)), true).
		AddField("💨 Wind", fmt.Sprintf("**%s %s**\nDirection: %s° %s", num(r.WindSpeed), wind, num(r.WindDirection), WindArrow(r.WindDirection)), true).
		AddField("📊 Pressure", "**"+pressure(r.Pressure)+"**", true).
		AddField("👁️ Visibility", "**"+visibility(r.Visibility)+"**", true).
		AddField("📈 Daily Range", fmt.Sprintf("Max: **%s%s**\nMin: **%s%s**", optional(r.TempMax), temp, optional(r.TempMin), temp), true).
		AddField("🌅 Sunrise", "**"+clock(r.Sunrise)+"**", true).
		AddField("🌇 Sunset", "**"+clock(r.Sunset)+"**", true)

	details := fmt.Sprintf("📍 Coordinates: `%.4f, %.4f`\n🏔️ Elevation: `%sm`", loc.Latitude, loc.Longitude, num(loc.Elevation))
	if loc.Population > 0 {
		details += "\n👥 Population: `" + humanize.Comma(loc.Population) + "`"
	}
	m = m.AddField("🗺️ Location Details", details, false)

	m.URL = fmt.Sprintf("https://open-meteo.com/?lat=%s&lon=%s&timezone=auto", num(loc.Latitude), num(loc.Longitude))
	m.Thumbnail = iconURL(r.Code, r.IsDay)
	day := "☀️ Day"
	if !r.IsDay {
		day = "🌙 Night"
	}
	m.Footer = fmt.Sprintf("%s • Updated at %s (Local Time) • Data: Open-Meteo", day, clock(r.Observed))
	m.FooterIcon = sourceFavicon
	m.Timestamp = now
	return m
}

// UserMessage turns a Lookup error into the private reply shown to the user.
func UserMessage(err error, city string) response.Message {
	var text string
	switch {
	case errors.Is(err, ErrCityNotFound):
		text = fmt.Sprintf("City '%s' not found. Please check the spelling and try again.", city)
	case errors.Is(err, ErrGeocoding):
		text = "Geocoding service error. Please try again."
	case errors.Is(err, ErrForecast):
		text = "Weather service error. Please try again."
	case errors.Is(err, ErrNetwork):
		text = "Network error. Couldn't reach the weather service."
	default:
		text = "An error occurred while fetching weather data."
	}
	return response.Plain(response.IconNo, text)
}

func num(v float64) string {
	return humanize.Ftoa(v)
}

func optional(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return num(*v)
}

func pressure(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return num(*v) + " hPa"
}

func visibility(metres *float64) string {
	if metres == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f km", *metres/1000)
}

// clock renders an upstream local timestamp as HH:MM, or the raw value when it
// does not parse.
func clock(s string) string {
	if s == "" {
		return "N/A"
	}
	t, err := time.Parse(localLayout, s)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, s); err != nil {
			return s
		}
	}
	return t.Format("15:04")
}
