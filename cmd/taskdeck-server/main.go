package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/sourcegraph/conc"

	server "github.com/taskdeck/taskdeck/internal"
	"github.com/taskdeck/taskdeck/internal/attachment"
	"github.com/taskdeck/taskdeck/internal/auth"
	authrepo "github.com/taskdeck/taskdeck/internal/auth/repositoryimpl"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/docwatch"
	"github.com/taskdeck/taskdeck/internal/eventbus"
	"github.com/taskdeck/taskdeck/internal/gateway"
	taskrepo "github.com/taskdeck/taskdeck/internal/task/repositoryimpl"
	"github.com/taskdeck/taskdeck/internal/taskstore"
	"github.com/taskdeck/taskdeck/internal/web"
	"github.com/taskdeck/taskdeck/pkg/clog"
	"github.com/taskdeck/taskdeck/pkg/panicerr"
	"github.com/taskdeck/taskdeck/pkg/storage"
)

var version = "dev"

var (
	app = kingpin.New("taskdeck-server", "Single user task board server")

	serveCmd   = app.Command("serve", "Start the TaskDeck server").Default()
	versionCmd = app.Command("version", "Print the version")
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	switch command {
	case versionCmd.FullCommand():
		fmt.Println(version)
	case serveCmd.FullCommand():
		if err := serve(); err != nil {
			slog.Error("server exited", "error", err)
			os.Exit(1)
		}
	}
}

func serve() error {
	env, err := config.LoadEnv()
	if err != nil {
		return err
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewHTTPTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	// Setup storage
	var store storage.Storage
	switch env.StorageEnv.Type {
	case "s3":
		store, err = storage.NewS3Storage(context.Background(), env.S3Bucket, env.S3Prefix, env.S3Region)
		if err != nil {
			return fmt.Errorf("failed to create S3 storage: %w", err)
		}
	default:
		store, err = storage.NewLocalStorage(env.BaseDir)
		if err != nil {
			return fmt.Errorf("failed to create local storage: %w", err)
		}
	}

	// Setup event bus and task pipeline
	bus := eventbus.New()
	repo := taskrepo.NewYAMLRepository(store)
	uploader := attachment.NewUploader(store)
	gw := gateway.New(repo, uploader, bus)
	stores := taskstore.NewManager(gw)

	// Setup identity gate
	provider := auth.NewGoogleProvider(
		env.GoogleClientID,
		env.GoogleClientSecret,
		strings.TrimSuffix(env.BaseURL, "/")+"/auth/callback",
	)
	authService := auth.NewService(
		provider,
		authrepo.NewSessionYAMLRepository(store),
		authrepo.NewProfileYAMLRepository(store),
		env.SessionTTL,
	)
	gate := auth.NewHTTPHandler(authService, env.CookieName, strings.HasPrefix(env.BaseURL, "https://"))

	handlers := web.NewHandlers(stores, bus, gate)
	srv := server.NewServer(config.BaseEnvFromEnv(env), gate, handlers)

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	var wg conc.WaitGroup
	defer wg.Wait()

	// Local documents can change outside the process; flag cached
	// stores stale so the next page load rereads them.
	if local, ok := store.(*storage.LocalStorage); ok {
		watcher := docwatch.New(filepath.Join(local.BasePath(), taskrepo.TasksPrefix), func() {
			stores.MarkAllStale()
			bus.PublishNew(eventbus.TypeTasksReloaded, "", "")
		})
		wg.Go(func() {
			if err := panicerr.SafeContext(watcher.Run)(ctx); err != nil && ctx.Err() == nil {
				slog.Error("document watcher stopped", "error", err)
			}
		})
	}

	wg.Go(func() {
		if err := srv.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	})

	<-ctx.Done()
	slog.Info("shutting down server")

	// Give active connections time to finish after stream contexts are cancelled.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	return nil
}
