package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/avigen/faceguard/internal/agent/capture"
	"github.com/avigen/faceguard/internal/agent/cli"
	"github.com/avigen/faceguard/internal/agent/config"
	"github.com/avigen/faceguard/internal/agent/connectivity"
	"github.com/avigen/faceguard/internal/agent/enroll"
	"github.com/avigen/faceguard/internal/agent/liveness"
	"github.com/avigen/faceguard/internal/agent/localdb"
	"github.com/avigen/faceguard/internal/agent/profilesync"
	"github.com/avigen/faceguard/internal/agent/remote"
	"github.com/avigen/faceguard/internal/agent/store"
	"github.com/avigen/faceguard/internal/logging"
)

func main() {
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))
	cfg := config.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, db, err := localdb.Init(ctx, cfg.CacheDSN)
	if err != nil {
		log.Error(ctx, "local cache init failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	client := remote.NewClient(cfg.ServerURL, log)

	monitor := connectivity.NewMonitor(client, cfg.OnlineCheckInterval, log)
	go monitor.Run(ctx)

	profileStore := store.New(client, repos.Profiles, log)
	manager := profilesync.NewManager(profileStore, monitor, log)
	go manager.Run(ctx)

	var source capture.Source
	if cfg.FakeCamera {
		source = capture.NewFakeSource()
	} else {
		source = capture.NewGstSource(capture.GstConfig{Device: cfg.CameraDevice}, log)
	}

	verifier := remote.NewLivenessVerifier(cfg.VerifierURL, log)
	extractor := remote.NewExtractor(cfg.ExtractorURL, log)

	actions := make([]liveness.Action, 0, len(cfg.LivenessActions))
	for _, a := range cfg.LivenessActions {
		actions = append(actions, liveness.Action(a))
	}
	livenessCfg := liveness.Config{
		Actions:  actions,
		Duration: cfg.LivenessDuration,
		OnProgress: func(p liveness.Progress) {
			fmt.Printf("\r[%3d%%] please %s   ", p.Percent, p.Current)
			if p.Percent >= 100 {
				fmt.Println()
			}
		},
	}

	controller := enroll.NewController(source, verifier, livenessCfg, extractor, client, profileStore, manager, log)

	app := cli.NewApp(client, manager, controller, monitor, log)
	app.Run(ctx)
}
