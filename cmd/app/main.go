package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atvirokodosprendimai/actionlog/internal/app"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "actionlog",
		Usage: "Action audit and event publishing service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Value: ":8080",
				Usage: "HTTP listen address",
			},
			&cli.StringFlag{
				Name:  "db-path",
				Value: "./actionlog.sqlite",
				Usage: "SQLite file path",
			},
			&cli.StringFlag{
				Name:    "source",
				Value:   "actionlog",
				Sources: cli.EnvVars("ACTIONLOG_SOURCE"),
				Usage:   "Source name stamped on published bus events",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Sources: cli.EnvVars("ACTIONLOG_LOG_LEVEL"),
				Usage:   "Log level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "json",
				Sources: cli.EnvVars("ACTIONLOG_LOG_FORMAT"),
				Usage:   "Log format (json or console)",
			},
			&cli.BoolFlag{
				Name:    "disable-bus",
				Sources: cli.EnvVars("ACTIONLOG_DISABLE_BUS"),
				Usage:   "Disable bus event publication entirely",
			},
			&cli.StringFlag{
				Name:    "webhook-url",
				Sources: cli.EnvVars("ACTIONLOG_WEBHOOK_URL"),
				Usage:   "Bus event webhook target URL (falls back to log publication when empty)",
			},
			&cli.StringFlag{
				Name:    "webhook-secret",
				Sources: cli.EnvVars("ACTIONLOG_WEBHOOK_SECRET"),
				Usage:   "HMAC-SHA256 signing secret for outbound webhook requests",
			},
			&cli.DurationFlag{
				Name:    "webhook-timeout",
				Value:   10 * time.Second,
				Sources: cli.EnvVars("ACTIONLOG_WEBHOOK_TIMEOUT"),
				Usage:   "Per-request webhook delivery timeout",
			},
			&cli.IntFlag{
				Name:    "publish-buffer",
				Value:   256,
				Sources: cli.EnvVars("ACTIONLOG_PUBLISH_BUFFER"),
				Usage:   "Queued bus events before drops begin",
			},
			&cli.StringFlag{
				Name:    "bootstrap-api-key",
				Sources: cli.EnvVars("ACTIONLOG_BOOTSTRAP_API_KEY"),
				Usage:   "Optional API key to upsert at startup",
			},
			&cli.StringFlag{
				Name:    "bootstrap-key-name",
				Value:   "bootstrap",
				Sources: cli.EnvVars("ACTIONLOG_BOOTSTRAP_KEY_NAME"),
				Usage:   "Name for the bootstrap API key",
			},
			&cli.IntFlag{
				Name:    "bootstrap-user-id",
				Value:   1,
				Sources: cli.EnvVars("ACTIONLOG_BOOTSTRAP_USER_ID"),
				Usage:   "User the bootstrap API key acts as",
			},
			&cli.IntFlag{
				Name:    "bootstrap-account-id",
				Value:   1,
				Sources: cli.EnvVars("ACTIONLOG_BOOTSTRAP_ACCOUNT_ID"),
				Usage:   "Account the bootstrap API key acts under",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := app.NewLogger(c.String("log-level"), c.String("log-format"))

			cfg := app.Config{
				Addr:               c.String("addr"),
				DBPath:             c.String("db-path"),
				Source:             c.String("source"),
				DisableBus:         c.Bool("disable-bus"),
				WebhookURL:         c.String("webhook-url"),
				WebhookSecret:      c.String("webhook-secret"),
				WebhookTimeout:     c.Duration("webhook-timeout"),
				PublishBuffer:      int(c.Int("publish-buffer")),
				BootstrapAPIKey:    c.String("bootstrap-api-key"),
				BootstrapKeyName:   c.String("bootstrap-key-name"),
				BootstrapUserID:    c.Int("bootstrap-user-id"),
				BootstrapAccountID: c.Int("bootstrap-account-id"),
			}

			server, closer, err := app.NewServer(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}
			defer func() {
				if closeErr := closer.Close(); closeErr != nil {
					logger.Error("close resources", "error", closeErr)
				}
			}()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("listening", "addr", cfg.Addr)
				errCh <- server.ListenAndServe()
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			case sig := <-sigCh:
				logger.Info("received signal", "signal", sig.String())
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
