// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/podcastr/internal/api/connect"
	"github.com/osa030/podcastr/internal/app/filter"
	"github.com/osa030/podcastr/internal/app/library"
	"github.com/osa030/podcastr/internal/app/notification"
	"github.com/osa030/podcastr/internal/app/playback"
	"github.com/osa030/podcastr/internal/app/player"
	"github.com/osa030/podcastr/internal/infra/config"
	"github.com/osa030/podcastr/internal/infra/episodeapi"
	"github.com/osa030/podcastr/internal/infra/logger"
	"github.com/osa030/podcastr/internal/infra/mpv"
)

var (
	app        = kingpin.New("podcastr-server", "podcastr player server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// list-filters command
	listFiltersCmd = app.Command("list-filters", "List available filters and exit")
	// list-backends command
	listBackendsCmd = app.Command("list-backends", "List available media backends and exit")
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	switch command {
	case listFiltersCmd.FullCommand():
		printFilters()
		return
	case listBackendsCmd.FullCommand():
		printBackends()
		return
	}

	loggerConfig := logger.Config{
		Output:  "stdout",
		Level:   "info",
		Service: "podcastr-server",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = "file"
		loggerConfig.File = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	apiClient, err := episodeapi.New(episodeapi.Config{
		BaseURL: cfg.API.BaseURL,
		Limit:   cfg.API.Limit,
		Sort:    cfg.API.Sort,
		Order:   cfg.API.Order,
		Timeout: cfg.Timeout(),
	})
	if err != nil {
		return fmt.Errorf("failed to create episode API client: %w", err)
	}

	filterChain, err := filter.Build(cfg.EnabledFilters())
	if err != nil {
		return fmt.Errorf("invalid filter config: %w", err)
	}

	store := library.NewStore(apiClient, library.Config{
		LatestCount: cfg.Catalog.LatestCount,
		Revalidate:  cfg.Revalidate(),
		Filter:      filterChain,
	})
	// The player works with an empty catalog, so a failed fetch is not fatal.
	if err := refreshWithRetry(ctx, store); err != nil {
		zlog.Error().Msgf("Starting with an empty catalog: %v", err)
	}

	media, err := newMediaHandle(ctx, cfg.Media)
	if err != nil {
		return fmt.Errorf("failed to create media backend: %w", err)
	}

	session := playback.NewSession()
	surface := player.NewSurface(session, media)
	notifManager := notification.NewManager()
	surface.OnRender(notifManager.Publish)
	go notifManager.Run(ctx)

	playerService := apiconnect.NewPlayerService(store, apiClient, session, surface, notifManager)

	mux := http.NewServeMux()
	playerPath, playerHandler := apiconnect.NewPlayerServiceHandler(
		playerService,
		connect.WithInterceptors(apiconnect.NewLoggingInterceptor()),
	)
	mux.Handle(playerPath, playerHandler)

	serverAddr := cfg.Server.Addr
	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:    serverAddr,
		Handler: h2c.NewHandler(mux, &http2.Server{}),
	}

	serverErrCh := make(chan error, 1)
	serverStartedCh := make(chan struct{})
	surfaceDoneCh := make(chan struct{})

	go func() {
		defer close(surfaceDoneCh)
		if err := surface.Run(ctx); err != nil && ctx.Err() == nil {
			zlog.Error().Msgf("Player stopped: %v", err)
		}
	}()

	go func() {
		if err := store.Run(ctx); err != nil && ctx.Err() == nil {
			zlog.Error().Msgf("Catalog revalidation stopped: %v", err)
		}
	}()

	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", serverAddr)
		close(serverStartedCh)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	<-serverStartedCh
	// Give the server a moment to fully initialize
	time.Sleep(100 * time.Millisecond)

	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case <-surfaceDoneCh:
		zlog.Info().Msg("Media backend closed, shutting down...")
	case err := <-serverErrCh:
		runErr = fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// End subscriber streams first so the server can drain
	playerService.Shutdown()
	notifManager.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	cancel()
	if err := surface.Close(); err != nil {
		zlog.Error().Msgf("Failed to close media backend: %v", err)
	}

	zlog.Info().Msg("Server stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	return runErr
}

// newMediaHandle creates the configured media backend.
func newMediaHandle(ctx context.Context, cfg config.MediaConfig) (player.MediaHandle, error) {
	switch cfg.Backend {
	case config.BackendMpv:
		mpvConfig, err := mpv.ConfigFromSettings(cfg.Settings)
		if err != nil {
			return nil, err
		}
		handle, err := mpv.Start(ctx, mpvConfig)
		if err != nil {
			return nil, err
		}
		return handle, nil
	default:
		zlog.Info().Msg("Using silent media backend")
		return player.NewSilentHandle(time.Second), nil
	}
}

// printFilters prints available filters.
func printFilters() {
	fmt.Println("Available Filters:")
	for _, name := range filter.Names() {
		f := filter.GetRegistered()[name]()
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Printf("  %-26s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
	}
}

// printBackends prints available media backends.
func printBackends() {
	fmt.Println("Available media backends:")
	fmt.Printf("  %-6s - %s\n", config.BackendNone, "no audio output, elapsed time advances while playing")
	fmt.Printf("  %-6s - %s\n", config.BackendMpv, "plays through an mpv process over its IPC socket")
}

// refreshWithRetry fetches the initial catalog.
// It includes retry logic to handle transient errors during startup.
func refreshWithRetry(ctx context.Context, store *library.Store) error {
	maxRetries := 5
	baseDelay := 1 * time.Second

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			delay := baseDelay * time.Duration(1<<uint(i-1))
			zlog.Info().Msgf("Retrying catalog fetch in %v...", delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := store.Refresh(ctx); err != nil {
			lastErr = err
			zlog.Warn().Msgf("Failed to fetch catalog (attempt %d/%d): %v", i+1, maxRetries, err)
			continue
		}
		return nil
	}
	return fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
