package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rpattn/reportimport/internal/logging"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrTooManyArguments is returned when more than two positional arguments are given.
var ErrTooManyArguments = errors.New("too many arguments")

// Config is the resolved configuration of one import run.
type Config struct {
	SourcePath  string
	DatabaseURL string
	Table       string
	Sheet       string
	HeaderRows  int
	PreviewRows int
	DryRun      bool
	Log         logging.Config
	// ConfigFile is the config.yaml that was read, if any.
	ConfigFile string
}

// NewFlagSet declares the importer's flags. Usage output goes to out.
func NewFlagSet(out io.Writer) *pflag.FlagSet {
	flags := pflag.NewFlagSet("importer", pflag.ContinueOnError)
	flags.SetOutput(out)
	flags.String("config", ".", "directory containing an optional config.yaml")
	flags.Bool("dry-run", false, "read and normalize the file without writing to the database")
	flags.String("sheet", "", "worksheet to read (default: first sheet)")
	flags.String("table", "error_reports", "destination table")
	flags.Int("header-rows", 3, "title and header rows to skip")
	flags.Int("preview-rows", 10, "reports shown by --dry-run")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	return flags
}

// Load parses args and layers config.yaml and the environment under them.
// The connection string comes from the second positional argument, then
// DATABASE_URL, then database.url in config.yaml.
func Load(args []string, out io.Writer) (Config, error) {
	flags := NewFlagSet(out)
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	configDir, _ := flags.GetString("config")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix("IMPORTER") // IMPORTER_IMPORT_TABLE, IMPORTER_LOG_LEVEL, ...
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("database.url", "DATABASE_URL"); err != nil {
		return Config{}, err
	}

	bindings := map[string]string{
		"import.dry_run":      "dry-run",
		"import.sheet":        "sheet",
		"import.table":        "table",
		"import.header_rows":  "header-rows",
		"import.preview_rows": "preview-rows",
		"log.level":           "log-level",
		"log.format":          "log-format",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return Config{}, fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	positional := flags.Args()
	if len(positional) > 2 {
		return Config{}, fmt.Errorf("%w: %s", ErrTooManyArguments, strings.Join(positional[2:], " "))
	}

	cfg := Config{
		DatabaseURL: v.GetString("database.url"),
		Table:       v.GetString("import.table"),
		Sheet:       v.GetString("import.sheet"),
		HeaderRows:  v.GetInt("import.header_rows"),
		PreviewRows: v.GetInt("import.preview_rows"),
		DryRun:      v.GetBool("import.dry_run"),
		Log: logging.Config{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		ConfigFile: v.ConfigFileUsed(),
	}
	if len(positional) > 0 {
		cfg.SourcePath = positional[0]
	}
	if len(positional) > 1 {
		cfg.DatabaseURL = positional[1]
	}

	return cfg, nil
}
