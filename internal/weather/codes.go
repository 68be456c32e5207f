package weather

type condition struct {
	Description string
	Emoji       string
}

// WMO weather interpretation codes.
var conditions = map[int]condition{
	0:  {"Clear sky", "☀️"},
	1:  {"Mainly clear", "🌤️"},
	2:  {"Partly cloudy", "⛅"},
	3:  {"Overcast", "☁️"},
	45: {"Fog", "🌫️"},
	48: {"Depositing rime fog", "🌫️"},
	51: {"Light drizzle", "🌦️"},
	53: {"Moderate drizzle", "🌦️"},
	55: {"Dense drizzle", "🌧️"},
	56: {"Light freezing drizzle", "🌨️"},
	57: {"Dense freezing drizzle", "🌨️"},
	61: {"Slight rain", "🌦️"},
	63: {"Moderate rain", "🌧️"},
	65: {"Heavy rain", "🌧️💧"},
	66: {"Light freezing rain", "🌨️"},
	67: {"Heavy freezing rain", "🌨️❄️"},
	71: {"Slight snowfall", "🌨️"},
	73: {"Moderate snowfall", "❄️"},
	75: {"Heavy snowfall", "❄️❄️"},
	77: {"Snow grains", "❄️"},
	80: {"Slight rain showers", "🌦️"},
	81: {"Moderate rain showers", "🌧️"},
	82: {"Violent rain showers", "🌧️💦"},
	85: {"Slight snow showers", "🌨️"},
	86: {"Heavy snow showers", "❄️💨"},
	95: {"Thunderstorm", "⛈️"},
	96: {"Thunderstorm with slight hail", "⛈️🧊"},
	99: {"Thunderstorm with heavy hail", "⛈️💥"},
}

// Describe returns the text and emoji for a WMO code, or ("Unknown", "❓").
func Describe(code int) (string, string) {
	c, ok := conditions[code]
	if !ok {
		return "Unknown", "❓"
	}
	return c.Description, c.Emoji
}

var windArrows = [8]string{"↓", "↙", "←", "↖", "↑", "↗", "→", "↘"}

// WindSector maps a direction in degrees to one of eight 45° sectors, 0 being
// north. Negative and >360 inputs wrap. Sectors start at their boundary
// (floor, not round), so 44° is still north and 46° is north-east.
func WindSector(degrees float64) int {
	i := int(degrees/45) % 8
	if i < 0 {
		i += 8
	}
	return i
}

// WindArrow is the arrow glyph for WindSector(degrees).
func WindArrow(degrees float64) string {
	return windArrows[WindSector(degrees)]
}

const iconBase = "https://openweathermap.org/img/wn/"

// iconURL picks a thumbnail for code. Night only distinguishes clear and
// partly cloudy skies.
func iconURL(code int, day bool) string {
	if _, known := conditions[code]; !known && day {
		return ""
	}
	var name string
	switch {
	case !day && code == 0:
		name = "01n"
	case !day && (code == 1 || code == 2):
		name = "02n"
	case !day:
		name = "04n"
	case code == 0:
		name = "01d"
	case code == 1 || code == 2:
		name = "02d"
	case code == 3:
		name = "03d"
	case code == 45 || code == 48:
		name = "50d"
	case code >= 51 && code <= 67, code >= 80 && code <= 82:
		name = "10d"
	case code >= 71 && code <= 77, code == 85 || code == 86:
		name = "13d"
	case code >= 95 && code <= 99:
		name = "11d"
	default:
		return ""
	}
	return iconBase + name + "@2x.png"
}
