// cmd/discord/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"melobot/internal/command"
	corecmd "melobot/internal/command/core"
	musiccmd "melobot/internal/command/music"
	"melobot/internal/config"
	"melobot/internal/discord"
	"melobot/internal/monitor"
	"melobot/internal/music/resolvers/kkdai"
	"melobot/internal/music/resolvers/ytapi"
	"melobot/internal/music/resolvers/ytdlp"
	"melobot/internal/music/resolvers/ytscrape"
	"melobot/internal/music/search"
	"melobot/internal/storage"
	v "melobot/internal/version"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatal(err)
	}

	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	log.Infof("Starting %s %s...", v.AppName, v.AppVersion)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	orchestrator := buildSearch(cfg)
	bot := discord.NewBot(cfg, store, orchestrator)

	registerCommands(bot)

	mon := monitor.New(orchestrator, bot,
		cfg.CacheSweepInterval, cfg.HealthCheckInterval, cfg.IdleDisconnectDelay)
	if err := mon.Start(); err != nil {
		log.Fatal(err)
	}
	defer mon.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- bot.Run(ctx)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Infof("Received signal %s, shutting down...", s)
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil {
			log.Errorf("Discord bot error: %v", err)
		}
		cancel()
	}

	log.Info("Discord bot exited cleanly")
}

// buildSearch assembles the two-phase search pipeline: ordered fast
// resolvers behind a shared cache, plus the heavyweight full resolver.
func buildSearch(cfg *config.Config) *search.Orchestrator {
	fallback := ytdlp.New()
	resolvers := []search.Resolver{}
	if cfg.YouTubeAPIKey != "" {
		resolvers = append(resolvers, ytapi.New(cfg.YouTubeAPIKey))
	} else {
		log.Warn("YOUTUBE_API_KEY not set, Data API resolver disabled")
	}
	resolvers = append(resolvers, ytscrape.New(), fallback)

	cache := search.NewStore(cfg.CacheMaxEntries)
	chain := search.NewChain(resolvers, cfg.ResolverTimeout, cfg.ResolverQuotaCooldown)

	fillers := cfg.FillerWords
	if len(fillers) == 0 {
		fillers = search.DefaultFillerWords
	}

	return search.NewOrchestrator(cache, chain, kkdai.New(), fallback.Name(), search.Options{
		MaxResults:     cfg.MaxFastResults,
		MaxQueryLength: cfg.MaxQueryLength,
		Preprocess:     cfg.PreprocessingEnabled,
		FillerWords:    fillers,
		SearchTTL:      cfg.CacheDefaultTTL,
		DirectURLTTL:   cfg.CacheDirectURLTTL,
		FallbackTTL:    cfg.CacheFallbackTTL,
	})
}

// registerCommands wires every slash command with the shared middleware
// stack. Commands need the bot instance, so registration happens here
// rather than in package init functions.
func registerCommands(bot *discord.Bot) {
	cmds := []command.Command{
		&musiccmd.PlayCommand{Bot: bot},
		&musiccmd.PauseCommand{Bot: bot},
		&musiccmd.ResumeCommand{Bot: bot},
		&musiccmd.SkipCommand{Bot: bot},
		&musiccmd.StopCommand{Bot: bot},
		&musiccmd.QueueCommand{Bot: bot},
		&corecmd.SetupCommand{Bot: bot},
		&corecmd.StatsCommand{Bot: bot},
	}
	for _, cmd := range cmds {
		command.Register(command.Apply(cmd,
			command.WithGuildOnly(),
			command.WithCommandLog(),
		))
	}
}
