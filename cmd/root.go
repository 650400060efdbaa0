package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/vidtutor/internal/config"
	"github.com/abhisek/vidtutor/internal/llm"
	"github.com/abhisek/vidtutor/internal/logger"
	"github.com/abhisek/vidtutor/internal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vidtutor",
	Short: "Socratic tutor for YouTube videos",
	Long: "VidTutor walks a learner through a video chapter by chapter, asking\n" +
		"open questions after each part and unlocking the next one once the\n" +
		"learner shows they understood it.",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides VIDTUTOR_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default $XDG_CONFIG_HOME/vidtutor/config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// env is the configuration and logger every command starts from.
type env struct {
	cfg *config.Config
	log *logger.Logger
}

// loadEnv reads .env, the config file and the global flags, in that order
// of increasing precedence.
func loadEnv(cmd *cobra.Command) (*env, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Store.Path = db
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.New(logger.Options{
		Mode:             cfg.Log.Mode,
		Level:            cfg.Log.Level,
		DisableRedaction: cfg.Log.DisableRedaction,
		HashSalt:         cfg.Log.HashSalt,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return &env{cfg: cfg, log: log}, nil
}

// openStore opens the database at the configured path or the default
// XDG location.
func (e *env) openStore() (*store.Store, error) {
	path := e.cfg.Store.Path
	if path == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		path = p
	} else if err := store.EnsureDir(path); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	s, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

var errNoProvider = errors.New("no LLM provider configured; set VIDTUTOR_LLM_PROVIDER and its API key, or ANTHROPIC_API_KEY / OPENAI_API_KEY / GEMINI_API_KEY / OPENROUTER_API_KEY")

// provider builds the configured LLM provider. Requests are recorded to s
// when it is non-nil.
func (e *env) provider(ctx context.Context, s *store.Store) (llm.Provider, error) {
	cfg := e.cfg.LLM
	if !cfg.Discover() {
		return nil, errNoProvider
	}

	var recorder llm.EventRecorder
	if s != nil {
		recorder = s.EventRepo()
	}
	p, err := llm.NewProvider(ctx, cfg, recorder, e.log)
	if err != nil {
		return nil, fmt.Errorf("init LLM provider: %w", err)
	}
	e.log.Debug("llm provider ready", "provider", cfg.Provider, "model", p.ModelID())
	return p, nil
}

// withStore loads the environment, opens the database and runs fn.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, e *env, s *store.Store) error) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	s, err := e.openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(cmd.Context(), e, s)
}
