package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"motico-catalog/cmd/catalogctl/output"
	"motico-catalog/internal/app"
	"motico-catalog/internal/catalog"
	"motico-catalog/internal/config"
	"motico-catalog/internal/domain"
	"motico-catalog/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	envFile    string
	backend    string
	storageDir string
	actor      string
	verbose    bool
	jsonOutput bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "catalogctl",
	Short: "Administer the Motico product catalog",
	Long: `catalogctl operates on the same storage the catalog API uses.

It reads the API's environment (or --env-file) to locate the storage
backend, so stock movements made here land in the inventory log exactly
like movements made over HTTP.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file read before the environment")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "Override STORAGE_BACKEND (memory, file, redis, postgres)")
	rootCmd.PersistentFlags().StringVar(&storageDir, "storage-dir", "", "Override STORAGE_DIR for the file backend")
	rootCmd.PersistentFlags().StringVar(&actor, "user", "cli", "User id recorded on inventory log entries")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

func loadConfig() *config.Config {
	cfg := config.LoadFile(envFile)
	if backend != "" {
		cfg.Storage.Backend = backend
	}
	if storageDir != "" {
		cfg.Storage.Dir = storageDir
	}
	return cfg
}

// newLogger is silent unless --verbose, and then writes to stderr so
// --json output on stdout stays parseable.
func newLogger(cmd *cobra.Command, cfg *config.Config) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	return logger.NewWithWriter(cfg.Server.Env, zapcore.AddSync(cmd.ErrOrStderr()))
}

// withCatalog opens the configured storage, runs fn against the catalog
// and releases every resource afterwards.
func withCatalog(cmd *cobra.Command, fn func(ctx context.Context, c *catalog.Catalog, out *output.Printer) error) error {
	cfg := loadConfig()
	log := newLogger(cmd, cfg)
	defer log.Sync()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	application, err := app.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer application.Close(log)

	out := output.New(cmd.OutOrStdout())
	if !application.Store.Persistent() && !jsonOutput {
		out.Warning("Storage is in memory, changes are discarded when the command exits")
	}
	return fn(ctx, application.Catalog, out)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func actorOrSystem() string {
	if actor == "" {
		return domain.SystemUser
	}
	return actor
}
