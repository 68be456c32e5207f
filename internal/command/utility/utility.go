// Package utility defines the public information commands.
package utility

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"server-warden/internal/command"
	"server-warden/internal/config"
	"server-warden/internal/fact"
	"server-warden/internal/response"
	"server-warden/internal/weather"
)

// WeatherSource is satisfied by *weather.Client.
type WeatherSource interface {
	Lookup(ctx context.Context, city string, units weather.Units) (*weather.Reading, error)
}

// FactSource is satisfied by *fact.Client.
type FactSource interface {
	Random(ctx context.Context) (*fact.Fact, error)
}

// Category is the help heading of the utility commands.
const Category = "📢 Utilities"

// Commands builds weather and fact.
func Commands(w WeatherSource, f FactSource, clock clockwork.Clock, cooldowns config.Cooldown) []*command.Spec {
	return []*command.Spec{
		{
			Slash: &discordgo.ApplicationCommand{
				Name:        "weather",
				Description: "Get current weather for any city worldwide!",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "city",
						Description: "City name (e.g., London, Tokyo, New York)",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "units",
						Description: "Temperature units (Celsius or Fahrenheit)",
						Choices: []*discordgo.ApplicationCommandOptionChoice{
							{Name: "Celsius (°C)", Value: string(weather.Celsius)},
							{Name: "Fahrenheit (°F)", Value: string(weather.Fahrenheit)},
						},
					},
				},
			},
			Category: Category,
			Rules:    command.Policy{Cooldown: cooldowns.Weather, Deferred: true},
			Handler:  weatherHandler(w, clock),
		},
		{
			Slash: &discordgo.ApplicationCommand{
				Name:        "fact",
				Description: "Get a random useless fact!",
			},
			Category: Category,
			Rules:    command.Policy{Cooldown: cooldowns.Fact, Deferred: true},
			Handler:  factHandler(f, clock),
		},
	}
}

func weatherHandler(src WeatherSource, clock clockwork.Clock) command.Handler {
	return func(ctx context.Context, c *command.Context) error {
		city := strings.TrimSpace(c.Args.String("city", ""))
		if city == "" {
			return c.Reply.Send(ctx, response.Plain(response.IconNo, "Please provide a city name."))
		}
		units := weather.ParseUnits(c.Args.String("units", string(weather.Celsius)))

		reading, err := src.Lookup(ctx, city, units)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("city", city).Msg("weather lookup failed")
			return c.Reply.Send(ctx, weather.UserMessage(err, city))
		}
		return c.Reply.Send(ctx, weather.Render(reading, clock.Now()))
	}
}

func factHandler(src FactSource, clock clockwork.Clock) command.Handler {
	return func(ctx context.Context, c *command.Context) error {
		f, err := src.Random(ctx)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("fact fetch failed")
			return c.Reply.Send(ctx, fact.UserMessage(err))
		}
		return c.Reply.Send(ctx, fact.Render(f, clock.Now()))
	}
}
