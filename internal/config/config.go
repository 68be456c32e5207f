// Package config loads the bot configuration from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the process-wide, read-only configuration.
type Config struct {
	DiscordToken string `env:"DISCORD_BOT_TOKEN,required,notEmpty"`
	// GuildID scopes command sync to one guild; empty syncs globally.
	GuildID string `env:"GUILD_ID"`

	Presence Presence `envPrefix:"STATUS_"`
	Log      Log      `envPrefix:"LOG_"`
	Access   Access
	Cooldown Cooldown `envPrefix:"COOLDOWN_"`
	Limits   Limits
	Reasons  Reasons `envPrefix:"REASON_"`
	HTTP     HTTP    `envPrefix:"HTTP_"`
	APIs     APIs
}

// Presence is the activity shown next to the bot's name.
type Presence struct {
	Type    string `env:"TYPE" envDefault:"watching"`
	Message string `env:"MESSAGE" envDefault:"for /commands"`
}

type Log struct {
	Level    string `env:"LEVEL" envDefault:"info"`
	File     string `env:"FILE"`
	Commands bool   `env:"COMMANDS" envDefault:"true"`
	Errors   bool   `env:"ERRORS" envDefault:"true"`
}

// Access is the permission policy for guarded commands. An empty role list
// lets everyone through.
type Access struct {
	AllowedRoles []string `env:"ALLOWED_ROLES" envSeparator:","`
	AllowedUsers []string `env:"ALLOWED_USERS" envSeparator:","`
}

type Cooldown struct {
	Moderation time.Duration `env:"MODERATION" envDefault:"3s"`
	Clear      time.Duration `env:"CLEAR" envDefault:"5s"`
	Weather    time.Duration `env:"WEATHER" envDefault:"10s"`
	Fact       time.Duration `env:"FACT" envDefault:"5s"`
	// Capacity bounds the number of tracked (user, command) pairs.
	Capacity int           `env:"CAPACITY" envDefault:"10000"`
	Sweep    time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
}

type Limits struct {
	ClearMin     int `env:"CLEAR_MIN" envDefault:"1"`
	ClearMax     int `env:"CLEAR_MAX" envDefault:"100"`
	ClearDefault int `env:"CLEAR_DEFAULT" envDefault:"10"`

	TimeoutMin     int `env:"TIMEOUT_MIN" envDefault:"1"`
	TimeoutMax     int `env:"TIMEOUT_MAX" envDefault:"40320"`
	TimeoutDefault int `env:"TIMEOUT_DEFAULT" envDefault:"10"`

	BanDeleteDaysMin     int `env:"BAN_DELETE_DAYS_MIN" envDefault:"0"`
	BanDeleteDaysMax     int `env:"BAN_DELETE_DAYS_MAX" envDefault:"7"`
	BanDeleteDaysDefault int `env:"BAN_DELETE_DAYS_DEFAULT" envDefault:"0"`

	// ClearNoticeTTL is how long the clear confirmation stays visible.
	ClearNoticeTTL time.Duration `env:"CLEAR_NOTICE_TTL" envDefault:"5s"`
}

type Reasons struct {
	Default string `env:"DEFAULT" envDefault:"No reason provided"`
	Kick    string `env:"KICK" envDefault:"Violation of server rules"`
	Ban     string `env:"BAN" envDefault:"Severe violation of server rules"`
	Timeout string `env:"TIMEOUT" envDefault:"Inappropriate behavior"`
}

type HTTP struct {
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"10s"`
	RetryMax int           `env:"RETRY_MAX" envDefault:"2"`
	// RatePerSecond is the starting outbound rate per upstream API.
	RatePerSecond float64 `env:"RATE_PER_SECOND" envDefault:"5"`
	RateMax       float64 `env:"RATE_MAX" envDefault:"20"`
}

type APIs struct {
	GeocodingURL string `env:"GEOCODING_API_URL" envDefault:"https://geocoding-api.open-meteo.com/v1/search"`
	ForecastURL  string `env:"FORECAST_API_URL" envDefault:"https://api.open-meteo.com/v1/forecast"`
	FactURL      string `env:"FACT_API_URL" envDefault:"https://uselessfacts.jsph.pl/api/v2/facts/random"`
}

// ErrMissingToken is returned when no bot token is configured.
var ErrMissingToken = errors.New("DISCORD_BOT_TOKEN is not set")

// Load reads .env (if any) and parses the process environment.
func Load() (*Config, error) {
	// A missing .env is normal in containers; the real environment still applies.
	_ = godotenv.Load()
	return parse(env.Options{})
}

// LoadFrom parses the given environment only. Used by tests and tooling.
func LoadFrom(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		if isMissingToken(err) {
			return nil, ErrMissingToken
		}
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func isMissingToken(err error) bool {
	var agg env.AggregateError
	if !errors.As(err, &agg) {
		return false
	}
	for _, e := range agg.Errors {
		var notSet env.VarIsNotSetError
		var empty env.EmptyVarError
		if errors.As(e, &notSet) && notSet.Key == "DISCORD_BOT_TOKEN" {
			return true
		}
		if errors.As(e, &empty) && empty.Key == "DISCORD_BOT_TOKEN" {
			return true
		}
	}
	return false
}

func (c *Config) validate() error {
	l := c.Limits
	switch {
	case l.ClearMin < 1 || l.ClearMax > 100 || l.ClearMin > l.ClearMax:
		return fmt.Errorf("invalid clear bounds [%d,%d]", l.ClearMin, l.ClearMax)
	case l.TimeoutMin < 1 || l.TimeoutMin > l.TimeoutMax:
		return fmt.Errorf("invalid timeout bounds [%d,%d]", l.TimeoutMin, l.TimeoutMax)
	case l.BanDeleteDaysMin < 0 || l.BanDeleteDaysMin > l.BanDeleteDaysMax:
		return fmt.Errorf("invalid ban delete-days bounds [%d,%d]", l.BanDeleteDaysMin, l.BanDeleteDaysMax)
	case c.Cooldown.Capacity < 1:
		return fmt.Errorf("cooldown capacity must be positive, got %d", c.Cooldown.Capacity)
	}
	return nil
}
