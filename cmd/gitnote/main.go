// cmd/gitnote/main.go
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/julianshen/gitnote/internal/config"
	"github.com/julianshen/gitnote/internal/fetch"
	"github.com/julianshen/gitnote/internal/logging"
	"github.com/julianshen/gitnote/internal/models"
	"github.com/julianshen/gitnote/internal/provider"

	// Register providers via init() side effects.
	_ "github.com/julianshen/gitnote/internal/provider/openai"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	configPath   string
	modelFlag    string
	logLevelFlag string
)

func versionString() string {
	return fmt.Sprintf("gitnote %s (commit: %s, built: %s)", version, commit, date)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gitnote",
		Short: "Turn a GitHub repository into an article you can chat with",
		Long: `gitnote fetches a Markdown snapshot of a GitHub repository, analyzes it
from four perspectives (usage, installation, structure, code logic) with an
OpenAI-compatible model, merges the results into one article, and lets you
ask questions about that article.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ~/.config/gitnote/config.toml)")
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "model id from the catalog (default: catalog default)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level: debug, info, warn, error")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), versionString())
		},
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(modelsCmd())
	rootCmd.AddCommand(serveCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "gitnote", "config.toml"), nil
}

// loadConfig reads the config file, applies the custom-model environment and
// command-line overrides, and validates the result.
func loadConfig(environ map[string]string) (*config.Config, error) {
	cfgPath := configPath
	if cfgPath == "" {
		p, err := defaultConfigPath()
		if err != nil {
			return nil, err
		}
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := config.ApplyEnv(cfg, environ); err != nil {
		return nil, err
	}
	if logLevelFlag != "" {
		cfg.Log.Level = logLevelFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app bundles the collaborators every subcommand is built from.
type app struct {
	cfg         *config.Config
	logger      zerolog.Logger
	secrets     config.Secrets
	resolver    *models.Resolver
	fetcher     fetch.Fetcher
	newProvider provider.Factory
}

func newApp(cfg *config.Config, secrets config.Secrets, logOut io.Writer) (*app, error) {
	logger := logging.New(cfg.Log.Level, cfg.Log.Format, logOut)

	f, err := fetch.New(cfg.Fetch, secrets, logger)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:         cfg,
		logger:      logger,
		secrets:     secrets,
		resolver:    models.NewResolver(cfg, secrets),
		fetcher:     f,
		newProvider: provider.NewFactory(provider.Options{IdleTimeout: cfg.Chat.IdleTimeout}),
	}, nil
}

// setup is the common preamble of every command that talks to a model.
func setup() (*app, error) {
	cfg, err := loadConfig(config.EnvironMap(os.Environ()))
	if err != nil {
		return nil, err
	}
	return newApp(cfg, config.EnvSecrets{}, os.Stderr)
}
