// Package cli implements the agent-chat CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-chat/internal/config"
	"github.com/rcliao/agent-chat/internal/logging"
	"github.com/rcliao/agent-chat/internal/store"
)

var (
	dbPath      string
	configPath  string
	storeDriver string
	logLevel    string
	formatFlag  string

	cfg    config.Config
	logger *slog.Logger
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "agent-chat",
	Short: "Heuristic chat assistant with memory",
	Long:  "A tiny chat assistant that remembers. Text in, reply out. Keyword retrieval over a SQLite-backed memory log, single binary.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $AGENT_CHAT_DB or ~/.agent-chat/memory.db)")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $AGENT_CHAT_CONFIG or ~/.agent-chat/config.yaml)")
	RootCmd.PersistentFlags().StringVar(&storeDriver, "store", "", "Store driver: sqlite, postgres, json or memory")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
}

func getConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath()
}

// loadConfig resolves the config file, env and flags, in increasing
// precedence, and sets up logging.
func loadConfig() error {
	c, err := config.Read(getConfigPath())
	if err != nil {
		return err
	}
	applyFlags(&c)
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	cfg = c
	logger = logging.Setup(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	return nil
}

func applyFlags(c *config.Config) {
	if dbPath != "" {
		c.Store.Path = dbPath
	}
	if storeDriver != "" {
		c.Store.Driver = storeDriver
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}
}

func openStore(cmd *cobra.Command) (store.Store, error) {
	return store.Open(cmd.Context(), cfg.Store)
}

// openSQLite opens the configured store and requires it to be SQLite, for
// commands that need the users table.
func openSQLite(cmd *cobra.Command) (*store.SQLiteStore, error) {
	s, err := openStore(cmd)
	if err != nil {
		return nil, err
	}
	sq, ok := s.(*store.SQLiteStore)
	if !ok {
		s.Close()
		return nil, fmt.Errorf("user records require the sqlite store, have %q", cfg.Store.Driver)
	}
	return sq, nil
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
