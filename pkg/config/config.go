package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"schemadiff/internal/logger"
)

const (
	DefaultOutputPath = "scripts/migrate-tables-to-prod.sql"
	DefaultTimeoutSec = 10

	PrimaryKeysCatalog   = "catalog"
	PrimaryKeysHeuristic = "heuristic"
)

type DBConfig struct {
	Type         string `yaml:"type" json:"type"`
	Host         string `yaml:"host" json:"host"`
	Port         int    `yaml:"port" json:"port"`
	Username     string `yaml:"username" json:"username"`
	Password     string `yaml:"password" json:"password"`
	DatabaseName string `yaml:"database_name" json:"database_name"`
	// optional explicit DSN
	DSN string `yaml:"dsn" json:"dsn"`
	// empty means the dialect default
	Schema string `yaml:"schema" json:"schema"`
	// shown in the script header, e.g. DEV
	Label string `yaml:"label" json:"label"`
}

type OutputConfig struct {
	Path string `yaml:"path" json:"path"`
}

type AppConfig struct {
	Source       DBConfig     `yaml:"source" json:"source"`
	Destination  DBConfig     `yaml:"destination" json:"destination"`
	Output       OutputConfig `yaml:"output" json:"output"`
	PrimaryKeys  string       `yaml:"primary_keys" json:"primary_keys"`
	IgnoreTables []string     `yaml:"ignore_tables" json:"ignore_tables"`
	Timeout      int          `yaml:"timeout" json:"timeout"` // connect timeout in seconds
	// debug, info, warn or error; empty means info
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// LoadFile loads YAML config from path.
func LoadFile(path string) (AppConfig, error) {
	var cfg AppConfig
	f, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(f, &cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// envKeys lists the variables consulted for each role, first match wins.
var envKeys = map[string][]string{
	"source":      {"SOURCE_DATABASE_URL", "DEV_DATABASE_URL"},
	"destination": {"DESTINATION_DATABASE_URL", "PROD_DATABASE_URL"},
}

// ApplyEnv overrides connection strings and the output path from environment
// variables. lookup is usually os.LookupEnv.
func ApplyEnv(cfg *AppConfig, lookup func(string) (string, bool)) {
	applyURL := func(db *DBConfig, keys []string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
				db.DSN = strings.TrimSpace(v)
				if t := DriverFromURL(db.DSN); t != "" {
					db.Type = t
				}
				return
			}
		}
	}
	applyURL(&cfg.Source, envKeys["source"])
	applyURL(&cfg.Destination, envKeys["destination"])
	if v, ok := lookup("SCHEMADIFF_OUTPUT"); ok && v != "" {
		cfg.Output.Path = v
	}
}

// ApplyDefaults fills unset fields.
func ApplyDefaults(cfg *AppConfig) {
	if cfg.Output.Path == "" {
		cfg.Output.Path = DefaultOutputPath
	}
	if cfg.PrimaryKeys == "" {
		cfg.PrimaryKeys = PrimaryKeysCatalog
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeoutSec
	}
	if cfg.Source.Label == "" {
		cfg.Source.Label = "source"
	}
	if cfg.Destination.Label == "" {
		cfg.Destination.Label = "destination"
	}
	for _, db := range []*DBConfig{&cfg.Source, &cfg.Destination} {
		if db.Type == "" && db.DSN != "" {
			db.Type = DriverFromURL(db.DSN)
		}
	}
}

// Validate checks that both targets can be turned into a driver and DSN.
func (c AppConfig) Validate() error {
	var errs []error
	if _, _, err := BuildDriverAndDSN(c.Source); err != nil {
		errs = append(errs, fmt.Errorf("source: %w", err))
	}
	if _, _, err := BuildDriverAndDSN(c.Destination); err != nil {
		errs = append(errs, fmt.Errorf("destination: %w", err))
	}
	switch c.PrimaryKeys {
	case "", PrimaryKeysCatalog, PrimaryKeysHeuristic:
	default:
		errs = append(errs, fmt.Errorf("primary_keys must be %q or %q, got %q",
			PrimaryKeysCatalog, PrimaryKeysHeuristic, c.PrimaryKeys))
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	return errors.Join(errs...)
}

// NormalizeDriver maps common aliases to canonical keys (keeps backwards compat).
func NormalizeDriver(d string) string {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case "postgresql", "pg", "postgres":
		return "postgres"
	case "pgx":
		return "pgx"
	case "mysql", "mariadb":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite"
	case "mssql", "sqlserver":
		return "sqlserver"
	case "godror", "oracle":
		return "godror"
	default:
		return strings.ToLower(d)
	}
}

// DriverFromURL guesses the driver from a URL-style DSN scheme.
// It returns "" when the DSN has no recognised scheme.
func DriverFromURL(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return ""
	}
	switch s := NormalizeDriver(u.Scheme); s {
	case "postgres", "sqlserver", "sqlite":
		return s
	case "file":
		return "sqlite"
	default:
		return ""
	}
}

// BuildDriverAndDSN produces a driver name and DSN string for supported DB types.
func BuildDriverAndDSN(db DBConfig) (driver string, dsn string, err error) {
	t := NormalizeDriver(db.Type)

	if db.DSN != "" {
		if t == "" {
			return "", "", fmt.Errorf("dsn given without a database type")
		}
		return t, db.DSN, nil
	}

	switch t {
	case "postgres", "pgx":
		driver = t
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(db.Username, db.Password),
			Host:     fmt.Sprintf("%s:%d", db.Host, db.Port),
			Path:     "/" + db.DatabaseName,
			RawQuery: "sslmode=disable",
		}
		dsn = u.String()
	case "mysql":
		driver = "mysql"
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			db.Username, db.Password, db.Host, db.Port, db.DatabaseName)
	case "sqlite":
		driver = "sqlite"
		if db.DatabaseName == "" {
			return "", "", fmt.Errorf("sqlite needs a file path in database_name")
		}
		dsn = fmt.Sprintf("file:%s?mode=ro", db.DatabaseName)
	case "sqlserver":
		driver = "sqlserver"
		dsn = fmt.Sprintf("sqlserver://%s:%s@%s:%d?database=%s",
			db.Username, db.Password, db.Host, db.Port, db.DatabaseName)
	case "godror":
		driver = "godror"
		// simple EZCONNECT style; may need adjustments per environment
		dsn = fmt.Sprintf("%s/%s@%s:%d/%s",
			db.Username, db.Password, db.Host, db.Port, db.DatabaseName)
	case "":
		err = fmt.Errorf("database type is not set")
	default:
		err = fmt.Errorf("unsupported database type: %s", db.Type)
	}
	return
}
