package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"notibridge/service/bundle"
	"notibridge/service/config"
	"notibridge/service/notification"
	"notibridge/service/server"
	"notibridge/service/util"

	"github.com/joho/godotenv"
)

var (
	version = "dev"
)

func init() {
	_ = godotenv.Load() //nolint:errcheck
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("Notibridge %s\n", version)
			return
		case "serialize":
			if err := runSerialize(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "serialize: %v\n", err)
				os.Exit(1)
			}
			return
		case "serve":
		default:
			fmt.Fprintf(os.Stderr, "usage: notibridge [serve|version|serialize <kind> <file>]\n")
			os.Exit(2)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := util.NewLogger(cfg.VerboseLogging)
	logger.Info("Starting Notibridge", "version", version)

	if err := runServer(cfg, logger); err != nil {
		logger.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func runServer(cfg *config.Config, logger *slog.Logger) error {
	srv, err := server.New(cfg, version, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
		return srv.Shutdown()
	case err := <-serverErr:
		return err
	}
}

type serializeOutput struct {
	Bundle        *bundle.Bundle            `json:"bundle"`
	DroppedFields []notification.FieldError `json:"droppedFields"`
}

// runSerialize prints the bundle for a fixture file. Dropped fields are
// logged to stderr and listed in the output.
func runSerialize(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("expected <kind> <file>")
	}
	kind, path := notification.Kind(args[0]), args[1]

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	format := notification.FormatJSON
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		format = notification.FormatYAML
	}

	in, err := notification.DecodeInput(kind, data, format)
	if err != nil {
		return err
	}
	if err := util.ValidateStruct(in); err != nil {
		return err
	}

	logger := util.NewLoggerTo(os.Stderr, false)
	b, dropped, err := in.Serialize(notification.NewSerializer(logger, nil))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(serializeOutput{Bundle: b, DroppedFields: dropped})
}
