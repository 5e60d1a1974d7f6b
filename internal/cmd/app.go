// Package cmd provides the CLI commands for cfpub.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v3"

	"github.com/fclairamb/cfpub/internal/apperrors"
	"github.com/fclairamb/cfpub/internal/confluence"
	"github.com/fclairamb/cfpub/internal/metadata"
	"github.com/fclairamb/cfpub/internal/publish"
	"github.com/fclairamb/cfpub/internal/version"
)

var (
	// konfig is the global koanf instance.
	konfig = koanf.New(".")
)

// verboseFlag is the shared verbose flag for all commands.
var verboseFlag = &cli.BoolFlag{
	Name:  "verbose",
	Usage: "Enable verbose logging",
}

// LogFormat represents the log output format.
type LogFormat string

const (
	// LogFormatText is the human-readable text format (default).
	LogFormatText LogFormat = "text"
	// LogFormatJSON is the JSON-formatted structured logs.
	LogFormatJSON LogFormat = "json"
)

// getLogFormat returns the configured log format from CFP_LOG_FORMAT environment variable.
func getLogFormat() LogFormat {
	val := strings.ToLower(os.Getenv("CFP_LOG_FORMAT"))
	switch val {
	case "json":
		return LogFormatJSON
	case "text", "":
		return LogFormatText
	default:
		// Invalid format - will warn after logger is set up
		return LogFormatText
	}
}

// setupLogging configures the global logger based on the verbose flag and CFP_LOG_FORMAT.
func setupLogging(cmd *cli.Command) {
	level := slog.LevelInfo
	if cmd.Bool("verbose") {
		level = slog.LevelDebug
	}

	format := getLogFormat()
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case LogFormatJSON:
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case LogFormatText:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))

	// Warn about invalid format after logger is set up
	envVal := strings.ToLower(os.Getenv("CFP_LOG_FORMAT"))
	if envVal != "" && envVal != "text" && envVal != "json" {
		slog.Warn("Invalid CFP_LOG_FORMAT value, using text format", "value", envVal)
	}

	if level == slog.LevelDebug {
		slog.Debug("Verbose logging enabled")
	}
}

// NewApp creates the CLI application.
func NewApp() *cli.Command {
	return &cli.Command{
		Name:    "cfpub",
		Usage:   "Publish a tree of rendered documents to Confluence, converging the remote state",
		Version: version.Version,
		Flags: []cli.Flag{
			verboseFlag,
		},
		Before: func(ctx context.Context, _ *cli.Command) (context.Context, error) {
			// Load environment variables with CFP_ prefix
			if err := konfig.Load(env.Provider(".", env.Opt{
				Prefix: "CFP_",
			}), nil); err != nil {
				return ctx, fmt.Errorf("load env: %w", err)
			}

			return ctx, nil
		},
		Commands: []*cli.Command{
			publishCommand(),
			validateCommand(),
		},
	}
}

// publishCommand creates the publish subcommand.
func publishCommand() *cli.Command {
	return &cli.Command{
		Name:      "publish",
		Usage:     "Reconcile the remote page tree with the manifest's desired tree",
		ArgsUsage: "<manifest.yaml>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Usage:   "Root Confluence URL",
				Sources: cli.EnvVars("CONFLUENCE_URL"),
			},
			&cli.StringFlag{
				Name:    "username",
				Usage:   "Confluence username",
				Sources: cli.EnvVars("CONFLUENCE_USERNAME"),
			},
			&cli.StringFlag{
				Name:    "password",
				Usage:   "Confluence password or API token",
				Sources: cli.EnvVars("CONFLUENCE_PASSWORD"),
			},
			&cli.StringFlag{
				Name:    "space-key",
				Usage:   "Target space key (overrides the manifest)",
				Sources: cli.EnvVars("CONFLUENCE_SPACE_KEY"),
			},
			&cli.StringFlag{
				Name:    "ancestor-id",
				Usage:   "Ancestor page ID to publish under (overrides the manifest)",
				Sources: cli.EnvVars("CONFLUENCE_ANCESTOR_ID"),
			},
			&cli.StringFlag{
				Name:  "strategy",
				Usage: "Publish strategy: append-to-ancestor or replace-ancestor",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress per-page progress output",
			},
			verboseFlag,
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			setupLogging(cmd)
			return ctx, nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() < 1 {
				return apperrors.ErrManifestRequired
			}
			manifestPath := cmd.Args().Get(0)

			if cmd.String("url") == "" {
				return apperrors.ErrBaseURLRequired
			}

			manifest, err := metadata.Load(manifestPath)
			if err != nil {
				return err
			}

			spaceKey := firstNonEmpty(cmd.String("space-key"), manifest.SpaceKey)
			ancestorID := firstNonEmpty(cmd.String("ancestor-id"), manifest.AncestorID)

			strategy, err := publish.ParseStrategy(
				firstNonEmpty(cmd.String("strategy"), manifest.Strategy, string(publish.StrategyAppendToAncestor)))
			if err != nil {
				return err
			}

			clientOpts := []confluence.ClientOption{confluence.WithLogger(slog.Default())}
			// CFP_HTTP_TIMEOUT overrides the default request timeout
			if timeout := konfig.Duration("http.timeout"); timeout > 0 {
				clientOpts = append(clientOpts, confluence.WithTimeout(timeout))
			}

			client := confluence.NewClient(
				strings.TrimRight(cmd.String("url"), "/"),
				cmd.String("username"),
				cmd.String("password"),
				clientOpts...,
			)

			listener := publish.NoopListener
			if !cmd.Bool("quiet") {
				listener = printListener
			}

			publisher := publish.NewPublisher(
				client,
				spaceKey,
				ancestorID,
				strategy,
				manifest.PageTree(filepath.Dir(manifestPath)),
				publish.WithListener(listener),
				publish.WithLogger(slog.Default()),
			)

			if err := publisher.Publish(ctx); err != nil {
				return fmt.Errorf("publish: %w", err)
			}

			return nil
		},
	}
}

// validateCommand creates the validate subcommand.
func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check a manifest for structural errors without contacting Confluence",
		ArgsUsage: "<manifest.yaml>",
		Flags: []cli.Flag{
			verboseFlag,
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			setupLogging(cmd)
			return ctx, nil
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() < 1 {
				return apperrors.ErrManifestRequired
			}
			manifestPath := cmd.Args().Get(0)

			manifest, err := metadata.Load(manifestPath)
			if err != nil {
				return err
			}

			if manifest.Strategy != "" {
				if _, err := publish.ParseStrategy(manifest.Strategy); err != nil {
					return err
				}
			}

			slog.Info("manifest is valid",
				"manifest", manifestPath,
				"space_key", manifest.SpaceKey,
				"ancestor_id", manifest.AncestorID,
				"root_pages", len(manifest.Pages))

			return nil
		},
	}
}

// firstNonEmpty returns the first non-empty string of the given values.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
