package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gatewarden/gatewarden/internal/logger"
	"github.com/gatewarden/gatewarden/pkg/api"
	"github.com/gatewarden/gatewarden/pkg/api/session"
	"github.com/gatewarden/gatewarden/pkg/auth"
	"github.com/gatewarden/gatewarden/pkg/authz"
	"github.com/gatewarden/gatewarden/pkg/config"
	"github.com/gatewarden/gatewarden/pkg/metrics"
	"github.com/gatewarden/gatewarden/pkg/profile"
)

var watchConfig bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gatewarden server",
	Long: `Start the gatewarden HTTP server with the specified configuration.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/gatewarden/config.yaml.

The local credential store requires bcrypt password hashes for all three
built-in accounts (admin, moderator, viewer), supplied via configuration
or environment variables. The server refuses to start without them.

Examples:
  # Start with default config location
  gatewarden serve

  # Start with custom config file
  gatewarden serve --config /etc/gatewarden/config.yaml

  # Start with environment variable overrides
  GATEWARDEN_LOGGING_LEVEL=DEBUG gatewarden serve`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&watchConfig, "watch-config", false, "Reload logging settings when the config file changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))

	// Initialize metrics (if enabled)
	var authMetrics metrics.AuthMetrics
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		authMetrics = metrics.NewAuthMetrics()
		metricsServer = metrics.NewServer(cfg.Metrics.Port)
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
	} else {
		logger.Info("Metrics collection disabled")
	}

	// Local credential store is the first and mandatory identity source.
	store, err := auth.NewCredentialStore(
		cfg.Auth.Local.AdminPasswordHash,
		cfg.Auth.Local.ModeratorPasswordHash,
		cfg.Auth.Local.ViewerPasswordHash,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}

	chain := []auth.Authenticator{auth.NewLocalAuthenticator(store)}

	if cfg.Auth.Directory.Enabled {
		directory := auth.NewDirectoryAuthenticator(auth.DirectoryConfig{
			URL:                cfg.Auth.Directory.URL,
			BaseDN:             cfg.Auth.Directory.BaseDN,
			BindDN:             cfg.Auth.Directory.BindDN,
			BindPassword:       cfg.Auth.Directory.BindPassword,
			UserSearchFilter:   cfg.Auth.Directory.UserSearchFilter,
			UserSearchBase:     cfg.Auth.Directory.UserSearchBase,
			GroupSearchBase:    cfg.Auth.Directory.GroupSearchBase,
			GroupRolePrefix:    cfg.Auth.Directory.GroupRolePrefix,
			Timeout:            cfg.Auth.Directory.Timeout,
			InsecureSkipVerify: cfg.Auth.Directory.InsecureSkipVerify,
		})
		chain = append(chain, directory)
		logger.Info("Directory authentication enabled", "url", cfg.Auth.Directory.URL)
	}

	var external *auth.ExternalIdentityAdapter
	if cfg.Auth.External.Enabled {
		role, ok := auth.ParseRole(cfg.Auth.External.DefaultRole)
		if !ok {
			return fmt.Errorf("unknown external default role %q", cfg.Auth.External.DefaultRole)
		}
		external = auth.NewExternalIdentityAdapter(auth.ExternalConfig{
			ClientID:     cfg.Auth.External.ClientID,
			ClientSecret: cfg.Auth.External.ClientSecret,
			RedirectURL:  cfg.Auth.External.RedirectURL,
			AuthURL:      cfg.Auth.External.AuthURL,
			TokenURL:     cfg.Auth.External.TokenURL,
			UserInfoURL:  cfg.Auth.External.UserInfoURL,
			Scopes:       cfg.Auth.External.Scopes,
		}, []auth.Role{role})
		logger.Info("External authentication enabled", "redirect_url", cfg.Auth.External.RedirectURL)
	}

	broker := auth.NewBroker(chain, external, authMetrics)

	sessions := session.NewService(session.Config{
		Secret:     cfg.Auth.Session.Secret,
		TTL:        cfg.Auth.Session.TTL,
		CookieName: cfg.Auth.Session.CookieName,
		Secure:     cfg.Auth.Session.Secure,
	})

	rules := authz.DefaultRules()
	for _, path := range cfg.PublicPaths {
		rules = append(rules, authz.AccessRule{Pattern: path, Public: true})
	}
	matcher := authz.NewMatcher(rules)
	profiles := profile.NewStore(profile.DefaultSeed()...)

	router := api.NewRouter(api.RouterDeps{
		Broker:      broker,
		Chain:       chain,
		Sessions:    sessions,
		Matcher:     matcher,
		Profiles:    profiles,
		AuthMetrics: authMetrics,
	})
	server := api.NewServer(cfg.Server, router)
	logger.Info("API server configured", "port", cfg.Server.Port)

	// Start metrics server in background (if enabled)
	if metricsServer != nil {
		go func() {
			if err := metricsServer.Serve(); err != nil {
				logger.Error("Metrics server error", logger.Err(err))
			}
		}()
	}

	// Reload logging settings on config file edits (if requested)
	if watchConfig {
		configPath := GetConfigFile()
		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}
		go func() {
			err := config.Watch(ctx, configPath, func(next *config.Config) {
				logger.SetLevel(next.Logging.Level)
				logger.SetFormat(next.Logging.Format)
			})
			if err != nil && ctx.Err() == nil {
				logger.Warn("Config watcher stopped", logger.Err(err))
			}
		}()
	}

	// Start server in background
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Start(ctx)
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()

		if metricsServer != nil {
			if err := metricsServer.Stop(shutdownCtx); err != nil {
				logger.Error("Metrics server shutdown error", logger.Err(err))
			}
		}

		// Wait for server to shut down gracefully
		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error", logger.Err(err))
			return err
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("Server error", logger.Err(err))
			return err
		}
		logger.Info("Server stopped")
	}

	return nil
}
