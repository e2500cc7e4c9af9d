// Package cli wires the command-line interface: configuration, store
// setup and the subcommands.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tagql/tagql/tagql"
	"github.com/tagql/tagql/tagql/storage"
	"github.com/tagql/tagql/tagql/storage/postgres"
	"github.com/tagql/tagql/tagql/storage/sqlite"
	"github.com/tagql/tagql/tagql/store"
)

var cfgFile string

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tagql",
		Short:         "Query a tagged file index",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cobra.OnInitialize(initConfig)

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/tagql/config.yaml)")
	cmd.PersistentFlags().String("db", "", "sqlite database path")
	cmd.PersistentFlags().String("backend", "", "storage backend: sqlite or postgres")
	cmd.PersistentFlags().String("driver", "", "sqlite driver: modernc (pure Go) or mattn (cgo)")
	_ = viper.BindPFlag("db", cmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("backend", cmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("driver", cmd.PersistentFlags().Lookup("driver"))

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newTagCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newTagsCmd())

	return cmd
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home + "/.config/tagql")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("TAGQL")
	viper.AutomaticEnv()

	viper.SetDefault("backend", "sqlite")
	viper.SetDefault("db", "tagql.db")
	viper.SetDefault("driver", "modernc")
	viper.SetDefault("postgres_schema", "tagql")
	viper.SetDefault("timeout", "10s")

	_ = viper.ReadInConfig()
}

func newAdapter() (storage.Adapter, error) {
	switch viper.GetString("backend") {
	case "sqlite", "":
		driver, err := sqliteDriver(viper.GetString("driver"))
		if err != nil {
			return nil, err
		}
		return sqlite.NewWithDriver(viper.GetString("db"), driver), nil
	case "postgres":
		dsn := viper.GetString("postgres_dsn")
		if dsn == "" {
			return nil, fmt.Errorf("postgres backend requires postgres_dsn (TAGQL_POSTGRES_DSN)")
		}
		return postgres.New(dsn, viper.GetString("postgres_schema")), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", viper.GetString("backend"))
	}
}

// sqliteDriver maps the config name to a registered database/sql
// driver: modernc (pure Go, default) or mattn (cgo).
func sqliteDriver(name string) (string, error) {
	switch name {
	case "", "modernc", "sqlite":
		return "sqlite", nil
	case "mattn", "sqlite3":
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("unknown sqlite driver %q (use modernc or mattn)", name)
	}
}

func openStore(ctx context.Context) (*store.Store, error) {
	adapter, err := newAdapter()
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, adapter)
}

// newEngine builds an engine on the store. A positive override wins
// over the configured timeout.
func newEngine(st *store.Store, override time.Duration) *tagql.Engine {
	timeout := override
	if timeout <= 0 {
		timeout, _ = time.ParseDuration(viper.GetString("timeout"))
	}
	if timeout <= 0 {
		timeout = tagql.DefaultTimeout
	}
	return tagql.NewEngine(st, tagql.Options{
		Timeout:    timeout,
		StrictTags: viper.GetBool("strict_tags"),
	})
}
