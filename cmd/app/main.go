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

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/vipadm/api-mocker/internal/app"
	"github.com/vipadm/api-mocker/internal/config"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cmd := &cli.Command{
		Name:  "api-mocker",
		Usage: "API definition registry with change notifications and history",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Sources: cli.EnvVars("API_MOCKER_CONFIG"),
				Usage:   "Path to YAML config file",
			},
			&cli.StringFlag{
				Name:    "addr",
				Sources: cli.EnvVars("API_MOCKER_ADDR"),
				Usage:   "HTTP listen address (overrides config)",
			},
			&cli.StringFlag{
				Name:    "db-path",
				Sources: cli.EnvVars("API_MOCKER_DB_PATH"),
				Usage:   "SQLite file path (overrides config)",
			},
			&cli.StringFlag{
				Name:    "bootstrap-token",
				Sources: cli.EnvVars("API_MOCKER_BOOTSTRAP_TOKEN"),
				Usage:   "Token to upsert for the bootstrap user at startup",
			},
			&cli.StringFlag{
				Name:    "bootstrap-user-id",
				Sources: cli.EnvVars("API_MOCKER_BOOTSTRAP_USER_ID"),
				Usage:   "User id for the bootstrap token",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			server, closer, err := app.NewServer(ctx, cfg, log)
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}
			defer func() {
				if closeErr := closer.Close(); closeErr != nil {
					log.WithError(closeErr).Warn("close resources")
				}
			}()

			errCh := make(chan error, 1)
			go func() {
				log.WithField("addr", cfg.Server.Listen).Info("listening")
				errCh <- server.ListenAndServe()
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case <-ctx.Done():
				return shutdown(server)
			case sig := <-sigCh:
				log.WithField("signal", sig.String()).Info("shutting down")
				return shutdown(server)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Command) (*config.Config, error) {
	var cfg *config.Config
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if addr := c.String("addr"); addr != "" {
		cfg.Server.Listen = addr
	}
	if dbPath := c.String("db-path"); dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if token := c.String("bootstrap-token"); token != "" {
		cfg.Bootstrap.Token = token
	}
	if userID := c.String("bootstrap-user-id"); userID != "" {
		cfg.Bootstrap.UserID = userID
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
