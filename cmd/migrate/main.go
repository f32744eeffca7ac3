// Command migrate applies the case store schema.
package main

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/spf13/cobra"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/JaimeStill/rounds/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

const envDSN = "ROUNDS_DB_DSN"

var flags struct {
	dsn    string
	config string
}

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the rounds case store schema",
	Long: "The connection is taken from --dsn, then " + envDSN + ", then the\n" +
		"[database] section of the rounds config file.",
	SilenceUsage: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: withMigrator(func(m *migrate.Migrate, cmd *cobra.Command, _ []string) error {
		if err := ignoreNoChange(m.Up()); err != nil {
			return fmt.Errorf("up: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	}),
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert all migrations",
	Args:  cobra.NoArgs,
	RunE: withMigrator(func(m *migrate.Migrate, cmd *cobra.Command, _ []string) error {
		if err := ignoreNoChange(m.Down()); err != nil {
			return fmt.Errorf("down: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations reverted")
		return nil
	}),
}

var stepsCmd = &cobra.Command{
	Use:   "steps <n>",
	Short: "Apply n migrations (negative n reverts)",
	Args:  cobra.ExactArgs(1),
	RunE: withMigrator(func(m *migrate.Migrate, cmd *cobra.Command, args []string) error {
		n, err := parseInt(args[0])
		if err != nil {
			return err
		}
		if err := ignoreNoChange(m.Steps(n)); err != nil {
			return fmt.Errorf("steps: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration steps\n", n)
		return nil
	}),
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: withMigrator(func(m *migrate.Migrate, cmd *cobra.Command, _ []string) error {
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Fprintln(cmd.OutOrStdout(), "version: none")
			return nil
		}
		if err != nil {
			return fmt.Errorf("version: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "version: %d, dirty: %v\n", v, dirty)
		return nil
	}),
}

var forceCmd = &cobra.Command{
	Use:   "force <version>",
	Short: "Set the schema version without running migrations",
	Args:  cobra.ExactArgs(1),
	RunE: withMigrator(func(m *migrate.Migrate, cmd *cobra.Command, args []string) error {
		v, err := parseInt(args[0])
		if err != nil {
			return err
		}
		if err := m.Force(v); err != nil {
			return fmt.Errorf("force: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "forced to version %d\n", v)
		return nil
	}),
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flags.dsn, "dsn", "", "Database URL (postgres://...)")
	rootCmd.PersistentFlags().StringVar(&flags.config, "config", "config.toml", "Path to the rounds config file")

	rootCmd.AddCommand(upCmd, downCmd, stepsCmd, versionCmd, forceCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func withMigrator(fn func(*migrate.Migrate, *cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		dsn, err := resolveDSN(flags.dsn, flags.config)
		if err != nil {
			return err
		}

		source, err := iofs.New(migrations, "migrations")
		if err != nil {
			return fmt.Errorf("create migration source: %w", err)
		}

		m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}
		defer m.Close()

		return fn(m, cmd, args)
	}
}

// resolveDSN picks the first connection source that is set. The config file
// is only consulted when it selects the postgres store.
func resolveDSN(dsn, configPath string) (string, error) {
	if dsn != "" {
		return dsn, nil
	}
	if v := os.Getenv(envDSN); v != "" {
		return v, nil
	}

	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("config load failed: %w", err)
	}
	if !cfg.UsesDatabase() {
		return "", fmt.Errorf("config selects the %q store: pass --dsn or set %s", cfg.Store, envDSN)
	}
	return cfg.Database.URL(), nil
}

func parseInt(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", arg, err)
	}
	return n, nil
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
