// Package commands implements the CLI commands for sweeper.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/JonMunkholm/sweeper/internal/core"
	_ "github.com/JonMunkholm/sweeper/internal/core/formats" // Register all formats
	"github.com/JonMunkholm/sweeper/internal/logging"
)

// defaultMaxFileSize matches the server's upload limit.
const defaultMaxFileSize = "50MiB"

// app holds what the commands share once flags and config are resolved.
type app struct {
	v       *viper.Viper
	log     *slog.Logger
	service *core.Service
}

// NewRootCmd builds the command tree with its own viper instance.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "sweeper",
		Short: "Clean tabular files: drop duplicates and blanks, strip symbols",
		Long: `Sweeper reads a CSV, XLSX, TXT, JSON, YAML, DOCX, PDF or Parquet file,
removes duplicate rows and rows with missing values, strips every character
that is not a letter, digit or whitespace from text cells, and writes the
result as cleaned_data.<ext>.

Examples:
  # Clean a spreadsheet into the current directory
  sweeper clean report.xlsx

  # Convert while cleaning
  sweeper clean export.json --to csv --dir out/

  # Look before writing anything
  sweeper preview notes.txt --rows 10

Settings can also come from .sweeper.yaml (current directory or $HOME)
or SWEEPER_* environment variables, e.g. SWEEPER_TO=json.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	// Global flags
	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default ./.sweeper.yaml or $HOME/.sweeper.yaml)")
	pf.String("log-level", "warn", "log level: debug, info, warn, error")
	pf.BoolP("quiet", "q", false, "suppress the summary line")

	_ = a.v.BindPFlag("log_level", pf.Lookup("log-level"))
	_ = a.v.BindPFlag("quiet", pf.Lookup("quiet"))

	root.AddCommand(a.cleanCmd(), a.previewCmd(), a.formatsCmd())
	return root
}

// init reads the config file and environment, then builds the logger and
// service.
func (a *app) init(cmd *cobra.Command) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			a.v.AddConfigPath(home)
		}
		a.v.AddConfigPath(".")
		a.v.SetConfigName(".sweeper")
		a.v.SetConfigType("yaml")
	}

	// Environment variables
	a.v.SetEnvPrefix("SWEEPER")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	a.v.SetDefault("dir", ".")
	a.v.SetDefault("preview_rows", core.DefaultPreviewRows)
	a.v.SetDefault("max_file_size", defaultMaxFileSize)
	a.v.SetDefault("timeout", time.Minute)

	// A missing default config is fine; a missing explicit one is not.
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	level, err := logging.ParseLevel(a.v.GetString("log_level"))
	if err != nil {
		return err
	}

	a.log = logging.New(cmd.ErrOrStderr(), level, "text")
	slog.SetDefault(a.log)

	a.service = core.NewService(core.ServiceOptions{
		Recorder: logRecorder{log: a.log},
		Timeout:  a.v.GetDuration("timeout"),
	})
	return nil
}

// setting returns the flag value when it was given on the command line,
// otherwise the config/env value under key.
func (a *app) setting(cmd *cobra.Command, flag, key string) string {
	if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
		return f.Value.String()
	}
	return a.v.GetString(key)
}

// maxFileSize parses the max_file_size setting, e.g. "50MiB" or "100KB".
// Zero or empty means unlimited.
func (a *app) maxFileSize() (uint64, error) {
	raw := strings.TrimSpace(a.v.GetString("max_file_size"))
	if raw == "" || raw == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid max_file_size %q: %w", raw, err)
	}
	return n, nil
}

// logRecorder writes sweep summaries to the debug log.
type logRecorder struct {
	log *slog.Logger
}

func (r logRecorder) Record(ctx context.Context, rec core.SweepRecord) error {
	r.log.DebugContext(ctx, "sweep recorded",
		"sweep_id", rec.ID.String(),
		"file", rec.FileName,
		"rows_in", rec.RowsIn,
		"rows_out", rec.RowsOut,
		"error_code", rec.ErrorCode,
	)
	return nil
}

// Execute runs the root command.
func Execute() error {
	// .env is optional and never overrides the real environment
	_ = godotenv.Load()

	err := NewRootCmd().Execute()
	if err != nil {
		logError(err)
	}
	return err
}

// logError prints an error message to stderr, with guidance when the error
// maps to a known user message.
func logError(err error) {
	if core.IsUserFacing(err) {
		fmt.Fprintf(os.Stderr, "Error: %v\n  %s\n", err, core.FormatUserError(err))
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
