// cmd/discord/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"server-warden/internal/command/core"
	"server-warden/internal/command/moderation"
	"server-warden/internal/command/utility"
	"server-warden/internal/config"
	"server-warden/internal/cooldown"
	"server-warden/internal/discord"
	"server-warden/internal/dispatch"
	"server-warden/internal/fact"
	"server-warden/internal/httpclient"
	"server-warden/internal/logging"
	mod "server-warden/internal/moderation"
	"server-warden/internal/permission"
	"server-warden/internal/weather"
)

const appName = "server-warden"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
		os.Exit(1)
	}
	closer := logging.Setup(cfg.Log)
	defer closer.Close()

	log.Info().Str("app", appName).Msg("starting bot")

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("bot stopped with error")
		closer.Close()
		os.Exit(1)
	}
	log.Info().Msg("bot exited cleanly")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()
	store := cooldown.NewStore(cfg.Cooldown.Capacity)

	session, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		return err
	}
	platform := discord.NewPlatform(session)

	exec := mod.NewExecutor(platform, mod.Options{
		Clock: clock,
		Limits: mod.Limits{
			ClearMin:             cfg.Limits.ClearMin,
			ClearMax:             cfg.Limits.ClearMax,
			ClearDefault:         cfg.Limits.ClearDefault,
			TimeoutMin:           cfg.Limits.TimeoutMin,
			TimeoutMax:           cfg.Limits.TimeoutMax,
			TimeoutDefault:       cfg.Limits.TimeoutDefault,
			BanDeleteDaysMin:     cfg.Limits.BanDeleteDaysMin,
			BanDeleteDaysMax:     cfg.Limits.BanDeleteDaysMax,
			BanDeleteDaysDefault: cfg.Limits.BanDeleteDaysDefault,
			ClearNoticeTTL:       cfg.Limits.ClearNoticeTTL,
		},
		Reasons: mod.Reasons{
			Default: cfg.Reasons.Default,
			Kick:    cfg.Reasons.Kick,
			Ban:     cfg.Reasons.Ban,
			Timeout: cfg.Reasons.Timeout,
		},
		LogActions: cfg.Log.Commands,
	})

	weatherClient := weather.NewClient(newHTTPClient(cfg.HTTP, "open-meteo"), weather.Config{
		GeocodingURL: cfg.APIs.GeocodingURL,
		ForecastURL:  cfg.APIs.ForecastURL,
	})
	factClient := fact.NewClient(newHTTPClient(cfg.HTTP, "uselessfacts"), cfg.APIs.FactURL)

	d := dispatch.New(dispatch.Options{
		Cooldowns: store,
		Gate: permission.NewGate(permission.Policy{
			AllowedUsers: cfg.Access.AllowedUsers,
			AllowedRoles: cfg.Access.AllowedRoles,
		}, platform),
		Clock:     clock,
		LogErrors: cfg.Log.Errors,
	})
	if err := d.Register(moderation.Commands(exec, cfg.Cooldown)...); err != nil {
		return err
	}
	if err := d.Register(utility.Commands(weatherClient, factClient, clock, cfg.Cooldown)...); err != nil {
		return err
	}

	if err := d.Register(core.Commands(appName, d.Registry(), session.HeartbeatLatency)...); err != nil {
		return err
	}

	bot := discord.NewBot(platform, cfg, d)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bot.Run(ctx)
	})
	g.Go(func() error {
		cooldown.RunCleaner(ctx, store, clock, cfg.Cooldown.Sweep)
		return nil
	})
	return g.Wait()
}

func newHTTPClient(cfg config.HTTP, name string) *httpclient.Client {
	return httpclient.New(httpclient.Config{
		Name:          name,
		Timeout:       cfg.Timeout,
		RetryMax:      cfg.RetryMax,
		RatePerSecond: cfg.RatePerSecond,
		RateMax:       cfg.RateMax,
		UserAgent:     appName,
	})
}
