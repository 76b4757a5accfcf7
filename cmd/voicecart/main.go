// Voicecart is a multilingual voice shopping daemon that turns spoken or
// transcribed commands in English, Tamil and Sinhala into storefront cart
// and search actions.
//
// Usage:
//
//	voicecart [flags]
//	voicecart --config /path/to/voicecart.yaml
//	voicecart -interpret "add 2 kg rice" -lang en-US
//
// @title       voicecart API
// @version     1.0
// @description Multilingual voice shopping assistant: interprets English, Tamil and Sinhala transcripts into cart and search commands.
// @BasePath    /
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sourcegraph/conc"

	_ "github.com/nadzzz/voicecart/docs"
	"github.com/nadzzz/voicecart/internal/config"
	"github.com/nadzzz/voicecart/internal/dispatch"
	"github.com/nadzzz/voicecart/internal/health"
	"github.com/nadzzz/voicecart/internal/interpreter"
	"github.com/nadzzz/voicecart/internal/recognizer"
	"github.com/nadzzz/voicecart/internal/recognizer/whisper"
	"github.com/nadzzz/voicecart/internal/storefront"
	"github.com/nadzzz/voicecart/internal/transport"
	grpctransport "github.com/nadzzz/voicecart/internal/transport/grpc"
	httptransport "github.com/nadzzz/voicecart/internal/transport/http"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configFile := flag.String("config", "", "path to config file (e.g. configs/voicecart.yaml)")
	text := flag.String("interpret", "", "interpret a transcript, print the command as JSON and exit")
	lang := flag.String("lang", "", "locale for -interpret (en-US, ta-IN, si-LK); defaults to voice.default_language")
	flag.Parse()

	if *showVersion {
		fmt.Printf("voicecart %s\n", version)
		os.Exit(0)
	}

	// A missing .env file is normal outside development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	// Load configuration.
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging.
	config.SetupLogging(cfg.Logging)

	if *text != "" {
		os.Exit(interpretOnce(*text, *lang, cfg))
	}

	slog.Info("voicecart starting", "version", version)

	// Create root context with signal handling for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize the server-side recognizer used for uploaded audio.
	var rec recognizer.Recognizer = recognizer.Unsupported{}
	switch cfg.Recognizer.Backend {
	case "whisper":
		rec = whisper.New(cfg.Recognizer.Whisper)
		slog.Info("using whisper recognizer",
			"endpoint", cfg.Recognizer.Whisper.Endpoint,
			"type", cfg.Recognizer.Whisper.Type)
	default:
		slog.Info("server-side recognition disabled; only browser sessions and transcripts accepted")
	}

	// Initialize the storefront client.
	var store dispatch.Storefront
	if cfg.Storefront.Enabled {
		cache, err := storefront.NewCache(ctx, cfg.Cache)
		if err != nil {
			slog.Error("failed to initialize product cache", "backend", cfg.Cache.Backend, "error", err)
			os.Exit(1)
		}
		defer cache.Close()

		store = storefront.New(cfg.Storefront, storefront.WithCache(cache, cfg.Cache.TTL))
		slog.Info("storefront enabled",
			"base_url", cfg.Storefront.BaseURL,
			"cache", cfg.Cache.Backend)
	} else {
		slog.Info("storefront disabled; commands are interpreted only")
	}

	// Initialize enabled transports.
	var transports []transport.Transport

	if cfg.Transports.GRPC.Enabled {
		transports = append(transports, grpctransport.New(cfg.Transports.GRPC.Port))
	}
	if cfg.Transports.HTTP.Enabled {
		transports = append(transports, httptransport.New(cfg.Transports.HTTP))
	}

	// Create the dispatcher.
	dispatcher := dispatch.New(interpreter.Rules{}, rec, store, cfg.Voice.DefaultLanguage)

	// Start health check server.
	healthServer := health.New(cfg.Server.HealthPort)
	go func() {
		if err := healthServer.ListenAndServe(ctx); err != nil {
			slog.Error("health server failed", "error", err)
		}
	}()

	// Start all transports.
	var wg conc.WaitGroup
	for _, t := range transports {
		wg.Go(func() {
			slog.Info("starting transport", "name", t.Name())
			if err := t.Listen(ctx, dispatcher); err != nil {
				slog.Error("transport failed", "name", t.Name(), "error", err)
			}
		})
	}

	// Mark as ready once all transports are started.
	healthServer.SetReady(true)
	slog.Info("voicecart ready",
		"transports", len(transports),
		"default_language", cfg.Voice.DefaultLanguage,
		"health_port", cfg.Server.HealthPort)

	// Block until shutdown signal.
	<-ctx.Done()
	healthServer.SetReady(false)
	slog.Info("shutdown signal received, draining...")

	// Close all transports gracefully.
	for _, t := range transports {
		if err := t.Close(); err != nil {
			slog.Error("transport close error", "name", t.Name(), "error", err)
		}
	}

	wg.Wait()
	slog.Info("voicecart stopped")
}

// interpretOnce prints the command for one transcript and returns the exit code.
func interpretOnce(text, lang string, cfg *config.Config) int {
	if lang == "" {
		lang = cfg.Voice.DefaultLanguage
	}
	cmd := interpreter.Interpret(text, lang)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cmd); err != nil {
		slog.Error("failed to encode command", "error", err)
		return 1
	}
	return 0
}
