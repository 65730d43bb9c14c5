package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jukebox/internal/jukebox"
	"jukebox/internal/platform/config"
	"jukebox/internal/platform/logger"
	"jukebox/internal/platform/metrics"
	"jukebox/internal/platform/presence"
	"jukebox/internal/player"
	"jukebox/internal/tui"
	"jukebox/internal/youtube"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run())
}

// run wires and serves the jukebox and returns the process exit code. Every
// exit path goes through its defers so the player child and mDNS record are
// always released.
func run() int {
	_ = config.Load()
	cfg := config.FromEnv()

	// The console owns the terminal while it runs.
	var logOut io.Writer = os.Stdout
	if cfg.TUIEnabled {
		f, err := logger.OpenFile(cfg.LogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
			return 1
		}
		defer f.Close()
		logOut = f
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat, logOut)

	met := metrics.New()
	repo := jukebox.NewInMemoryRepository()
	yt := youtube.New(youtube.WithLogger(log))
	svc := jukebox.NewService(repo, yt, yt, jukebox.Options{
		AverageSongMinutes: cfg.AverageSongMinutes,
		LookupTimeout:      cfg.LookupTimeout,
		SearchTimeout:      cfg.SearchTimeout,
		Workers:            cfg.LookupWorkers,
		Logger:             log,
		Metrics:            met,
	})
	defer svc.Close()

	events := jukebox.NewBroadcaster(log, met)
	repo.OnChange(events.Observe)

	h := jukebox.NewHandler(svc, log, met)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Method(http.MethodGet, "/metrics", met.Handler(func() { met.SetPending(repo.PendingCount()) }))
	r.Get("/", h.Index)
	r.Post("/", h.SubmitForm)
	r.Get("/player", h.Player)
	r.Route("/api", func(r chi.Router) {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "If-None-Match"},
			ExposedHeaders: []string{"ETag"},
		}).Handler)
		r.Get("/current", h.Current)
		r.Get("/search", h.Search)
		r.Post("/add_to_queue", h.AddToQueue)
		r.Get("/queue_data", h.QueueData)
		r.Get("/events", events.ServeHTTP)
	})

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	addr := ":" + cfg.Port
	srv := &http.Server{Addr: addr, Handler: r}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			cancel()
		}
	}()

	log.Info("server starting",
		"port", cfg.Port,
		"tui", cfg.TUIEnabled,
		"player", cfg.PlayerEnabled,
		"log_level", cfg.LogLevel,
	)

	scheduler, err := jukebox.SetupJobs(cfg.HeartbeatInterval, events, repo, met)
	if err != nil {
		log.Error("scheduler setup failed", "error", err)
		return 1
	}
	scheduler.Start()

	if cfg.MDNSEnabled {
		pub, err := presence.Publish(cfg.MDNSInstance, cfg.Port, log)
		if err != nil {
			log.Warn("mdns registration failed", "error", err)
		}
		defer pub.Shutdown()
	}

	var console tui.Player
	if cfg.PlayerEnabled {
		pl := player.New(cfg.PlayerBinary, log)
		if !pl.Available() {
			log.Warn("player binary not found, playback will fail", "binary", cfg.PlayerBinary)
		}
		pl.OnFinish(func() { playNext(svc, pl, log) })
		defer pl.Stop()
		console = pl
	}

	if cfg.TUIEnabled {
		m := tui.New(ctx, svc, tui.Options{Player: console, ExportPath: cfg.ExportPath})
		p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			log.Error("console error", "error", err)
		}
		log.Info("console closed")
	} else {
		<-ctx.Done()
		log.Info("shutdown signal received, draining connections")
	}

	code := 0
	select {
	case err := <-serverErr:
		log.Error("server error", "error", err)
		code = 1
	default:
	}

	if err := scheduler.Shutdown(); err != nil {
		log.Error("scheduler shutdown error", "error", err)
	}
	events.Close()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
		return 1
	}

	log.Info("server stopped")
	return code
}

// playNext advances the queue when a track finishes with autoplay on.
func playNext(svc *jukebox.Service, pl *player.Player, log *slog.Logger) {
	res, ok, err := svc.PlayNext()
	if err != nil {
		log.Warn("autoplay failed", "error", err)
		return
	}
	if !ok {
		log.Info("queue is empty, autoplay idle")
		return
	}
	if !res.Playable {
		log.Warn("autoplay skipped entry without video id", "title", res.Entry.Title)
		return
	}
	if err := pl.Play(jukebox.WatchURL(res.VideoID)); err != nil {
		log.Warn("autoplay failed", "error", err)
	}
}
