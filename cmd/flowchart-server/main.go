// Command flowchart-server starts the voice flowchart HTTP server.
//
// Usage:
//
//	go run ./cmd/flowchart-server
//	FLOWCHART_ADDR=:8080 go run ./cmd/flowchart-server
//
// Example requests:
//
//	# Health check
//	curl http://localhost:5000/healthz
//
//	# Create a flowchart from a spoken instruction
//	curl -X POST http://localhost:5000/flowchart/create \
//	  -H "Content-Type: application/json" \
//	  -d '{"user_email": "user@example.com", "prompt": "start with receive order"}'
//
//	# Add the next step
//	curl -X POST http://localhost:5000/flowchart/add \
//	  -H "Content-Type: application/json" \
//	  -d '{"user_email": "user@example.com", "prompt": "then check stock"}'
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/adapters/httpapi"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/adapters/interpreter"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/adapters/renderer"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/adapters/repository/postgres"
	sessionrepo "github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/adapters/repository/session"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/adapters/repository/sqlite"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/adapters/templates"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/app/usecases"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/config"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/session"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/pkg/codec"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(context.Background()); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(os.Getenv("FLOWCHART_CONFIG"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if os.Getenv("FLOWCHART_DEBUG") != "" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	saver, cleanup, err := openSaver(ctx, cfg)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	rend := renderer.NewGraphviz(cfg.Render.DotPath, cfg.Render.OutputDir, cfg.Render.TempDir)
	defaultFormat := cfg.Render.Format
	if err := rend.Available(); err != nil {
		slog.Warn("Graphviz dot not found. Images render only for requests that name a format, and those will fail until dot is installed.", "error", err)
		defaultFormat = ""
	}

	tmpl := templates.NewDir(cfg.Templates.Dir)
	deps := httpapi.Deps{
		Sessions:            usecases.NewSessionService(sessionrepo.NewInMemorySessionRepository(), usecases.NewMerger(), saver, tmpl),
		Templates:           tmpl,
		Renderer:            rend,
		DefaultRenderFormat: defaultFormat,
		OutputDir:           cfg.Render.OutputDir,
	}

	if cfg.OpenAI.APIKey != "" {
		deps.Interpreter = interpreter.NewOpenAI(interpreter.Config{
			APIKey:         cfg.OpenAI.APIKey,
			Model:          cfg.OpenAI.Model,
			MaxTokens:      cfg.OpenAI.MaxTokens,
			Temperature:    cfg.OpenAI.Temperature,
			RequestTimeout: time.Duration(cfg.OpenAI.TimeoutSeconds) * time.Second,
			BaseURL:        cfg.OpenAI.BaseURL,
		})
		slog.Info("instruction interpreter enabled", "model", cfg.OpenAI.Model)
	} else {
		slog.Info("OPENAI_API_KEY not set. Spoken instructions are disabled; clients must send pre-built deltas to /flowchart/apply_delta.")
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: httpapi.NewRouter(deps),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting flowchart server", "addr", cfg.Server.Addr, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		slog.Info("shutting down flowchart server", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openSaver wires the durable session store selected by the
// configuration. The memory driver returns a nil saver; sessions then
// live only as long as the process.
func openSaver(ctx context.Context, cfg *config.Config) (session.Saver, func(), error) {
	key, err := cfg.EncryptKey()
	if err != nil {
		return nil, nil, err
	}
	serializer := codec.NewSerializer(codec.Config{
		Codec:       codec.NewMsgPackCodec(),
		Compression: cfg.Compression(),
		EncryptKey:  key,
	})

	switch cfg.Store.Driver {
	case config.DriverMemory:
		return nil, nil, nil
	case config.DriverSQLite:
		saver, err := sqlite.Open(ctx, cfg.Store.SQLitePath, serializer)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		slog.Info("session store ready", "driver", cfg.Store.Driver, "path", cfg.Store.SQLitePath)
		return saver, func() { _ = saver.Close() }, nil
	case config.DriverPostgres:
		saver, err := postgres.Connect(ctx, cfg.Store.PostgresDSN, serializer)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres store: %w", err)
		}
		slog.Info("session store ready", "driver", cfg.Store.Driver)
		return saver, saver.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
