package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"schemadiff/internal/db"
	_ "schemadiff/internal/db/extractors"
	"schemadiff/internal/differ"
	"schemadiff/internal/logger"
	"schemadiff/pkg/config"
)

var defaultConfigPath = filepath.Join(".", "configs", "schemadiff.yaml")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		var connErr *db.ConnectionError
		if errors.As(err, &connErr) {
			logger.Error("%s database connection failed: %v", connErr.Role, connErr.Err)
		} else {
			logger.Error("%v", err)
		}
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schemadiff",
		Short: "Generate the SQL that brings a destination schema up to a source schema",
		Long: `schemadiff compares the tables of a source database (usually development)
with a destination database (usually production) and writes a script that
creates the missing tables, their indexes and foreign keys, and adds the
missing columns of tables that exist on both sides.

Nothing is executed against either database.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd.Flags())
		},
	}

	f := cmd.Flags()
	f.String("config", defaultConfigPath, "path to config YAML (optional)")
	f.String("env-file", ".env", "dotenv file loaded before reading the environment")
	f.String("source-driver", "", "source db driver (postgres,pgx,mysql,sqlite,sqlserver,godror)")
	f.String("source-dsn", "", "source dsn override")
	f.String("dest-driver", "", "destination db driver")
	f.String("dest-dsn", "", "destination dsn override")
	f.String("schema", "", "destination schema named in the verification query")
	f.StringP("output", "o", "", "script path (default "+config.DefaultOutputPath+")")
	f.Bool("stdout", false, "print the script instead of writing it")
	f.String("primary-keys", "", "primary key source: catalog or heuristic")
	f.StringSlice("ignore-table", nil, "table to leave out of the comparison (repeatable)")
	f.Int("timeout", 0, fmt.Sprintf("db connect timeout seconds (default %d)", config.DefaultTimeoutSec))
	f.String("log-level", "", "log level: debug, info, warn or error (default info)")
	f.BoolP("verbose", "v", false, "debug logging, same as --log-level debug")

	_ = cmd.RegisterFlagCompletionFunc("primary-keys", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.PrimaryKeysCatalog, config.PrimaryKeysHeuristic}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

// loadConfig layers the config file, the dotenv file, the environment and the
// command-line flags, in that order.
func loadConfig(fl *pflag.FlagSet, lookup func(string) (string, bool)) (config.AppConfig, error) {
	var cfg config.AppConfig

	cfgPath, _ := fl.GetString("config")
	if cfgPath != "" {
		c, err := config.LoadFile(cfgPath)
		switch {
		case err == nil:
			logger.Info("config file %s", cfgPath)
			cfg = c
		case errors.Is(err, os.ErrNotExist) && !fl.Changed("config"):
			logger.Debug("no config file at %s", cfgPath)
		default:
			return cfg, fmt.Errorf("read config file: %w", err)
		}
	}

	envFile, _ := fl.GetString("env-file")
	if err := config.LoadDotEnv(envFile); err != nil {
		return cfg, fmt.Errorf("load %s: %w", envFile, err)
	}
	config.ApplyEnv(&cfg, lookup)

	if err := applyFlags(&cfg, fl); err != nil {
		return cfg, err
	}
	config.ApplyDefaults(&cfg)
	return cfg, cfg.Validate()
}

// applyFlags copies every flag the user set onto cfg.
func applyFlags(cfg *config.AppConfig, fl *pflag.FlagSet) error {
	var err error
	str := func(name string, dst *string) {
		if err == nil && fl.Changed(name) {
			*dst, err = fl.GetString(name)
		}
	}
	// an explicit dsn replaces whatever the file said about that target
	target := func(prefix string, tc *config.DBConfig) {
		str(prefix+"-driver", &tc.Type)
		if err == nil && fl.Changed(prefix+"-dsn") {
			var dsn string
			dsn, err = fl.GetString(prefix + "-dsn")
			*tc = config.DBConfig{Type: tc.Type, DSN: dsn, Schema: tc.Schema, Label: tc.Label}
			if !fl.Changed(prefix+"-driver") || tc.Type == "" {
				if t := config.DriverFromURL(dsn); t != "" {
					tc.Type = t
				}
			}
		}
	}
	target("source", &cfg.Source)
	target("dest", &cfg.Destination)
	str("schema", &cfg.Destination.Schema)
	str("output", &cfg.Output.Path)
	str("primary-keys", &cfg.PrimaryKeys)
	if err == nil && fl.Changed("ignore-table") {
		var extra []string
		extra, err = fl.GetStringSlice("ignore-table")
		cfg.IgnoreTables = append(cfg.IgnoreTables, extra...)
	}
	if err == nil && fl.Changed("timeout") {
		cfg.Timeout, err = fl.GetInt("timeout")
	}
	str("log-level", &cfg.LogLevel)
	if verbose, _ := fl.GetBool("verbose"); verbose {
		cfg.LogLevel = "debug"
	}
	return err
}

func run(ctx context.Context, fl *pflag.FlagSet) error {
	cfg, err := loadConfig(fl, os.LookupEnv)
	if err != nil {
		return err
	}
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	logger.Debug("registered dialects: %v", db.RegisteredDialects())

	logger.Info("connecting to %s database", cfg.Source.Label)
	src, err := db.Connect(ctx, "source", cfg.Source, cfg.Timeout)
	if err != nil {
		return err
	}
	defer src.Close()

	logger.Info("connecting to %s database", cfg.Destination.Label)
	dst, err := db.Connect(ctx, "destination", cfg.Destination, cfg.Timeout)
	if err != nil {
		return err
	}
	defer dst.Close()

	dryRun, _ := fl.GetBool("stdout")
	res, err := differ.New(src, dst, differ.Options{
		OutputPath:         cfg.Output.Path,
		DestinationSchema:  dst.Schema,
		DestinationDialect: dst.Driver,
		InferPrimaryKeys:   cfg.PrimaryKeys == config.PrimaryKeysHeuristic,
		IgnoreTables:       cfg.IgnoreTables,
		DryRun:             dryRun,
	}).Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("done: %d missing tables, %d tables with missing columns, %d statements",
		len(res.MissingTables), len(res.MissingColumns), res.Statements())
	return nil
}
