package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/povrewrite"
	"github.com/aretw0/povrewrite/internal/logging"
	"github.com/aretw0/povrewrite/pkg/adapters/loam"
	"github.com/aretw0/povrewrite/pkg/adapters/memory"
	"github.com/aretw0/povrewrite/pkg/adapters/openai"
	redisstore "github.com/aretw0/povrewrite/pkg/adapters/redis"
	"github.com/aretw0/povrewrite/pkg/config"
	"github.com/aretw0/povrewrite/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "povrewrite",
	Short: "povrewrite rewrites character cards into first-person voice",
	Long: `povrewrite sends a character card to an LLM and asks it to rewrite the
selected fields from second or third person into first person, keeping
{{char}} and {{user}} placeholders intact.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "povrewrite.yaml", "Settings file (YAML or JSON)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().String("store", "loam", "Document store: loam, redis or memory")
	rootCmd.PersistentFlags().String("library", "characters", "Directory holding markdown character cards (loam store)")
	rootCmd.PersistentFlags().String("redis-addr", "localhost:6379", "Redis address (redis store)")
	rootCmd.PersistentFlags().String("redis-password", "", "Redis password (redis store)")
	rootCmd.PersistentFlags().Int("redis-db", 0, "Redis database (redis store)")
}

func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	levelName, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")

	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}
	switch logging.Format(format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return logging.NewWithWriter(os.Stderr, level, logging.Format(format)), nil
}

// backends is the store and locker selected by the --store flag.
type backends struct {
	store  ports.DocumentStore
	locker ports.Locker
	closer io.Closer
}

func (b backends) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

func openBackends(cmd *cobra.Command) (backends, error) {
	kind, _ := cmd.Flags().GetString("store")

	switch kind {
	case "memory":
		return backends{store: memory.NewStore(), locker: memory.NewLocker()}, nil
	case "loam":
		dir, _ := cmd.Flags().GetString("library")
		store, err := loam.Open(dir)
		if err != nil {
			return backends{}, err
		}
		return backends{store: store, locker: memory.NewLocker()}, nil
	case "redis":
		addr, _ := cmd.Flags().GetString("redis-addr")
		password, _ := cmd.Flags().GetString("redis-password")
		db, _ := cmd.Flags().GetInt("redis-db")

		client := backend.NewClient(&backend.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		})
		if err := client.Ping(cmd.Context()).Err(); err != nil {
			client.Close()
			return backends{}, fmt.Errorf("failed to reach redis at %s: %w", addr, err)
		}
		store := redisstore.NewFromClient(client)
		return backends{
			store:  store,
			locker: redisstore.NewLocker(client, "povrewrite:"),
			closer: store,
		}, nil
	default:
		return backends{}, fmt.Errorf("unknown store %q (supported: loam, redis, memory)", kind)
	}
}

func newCompleter(settings config.Settings, logger *slog.Logger) *openai.Client {
	return openai.New(
		settings.Provider.BaseURL,
		settings.Provider.Model,
		settings.Provider.APIKey,
		openai.WithTimeout(settings.RequestTimeout()),
		openai.WithLogger(logger),
	)
}

func newEngine(b backends, settings config.Settings, logger *slog.Logger, opts ...povrewrite.Option) (*povrewrite.Engine, error) {
	base := []povrewrite.Option{
		povrewrite.WithCompleter(newCompleter(settings, logger)),
		povrewrite.WithStore(b.store),
		povrewrite.WithLocker(b.locker, 0),
		povrewrite.WithLogger(logger),
	}
	return povrewrite.New(append(base, opts...)...)
}
