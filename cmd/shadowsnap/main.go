package main

import (
	"fmt"
	"os"
	"time"

	"github.com/IvanShishkin/shadowsnap/internal/config"
	"github.com/IvanShishkin/shadowsnap/internal/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorRed    = "\033[31m"
	colorOrange = "\033[38;5;208m"
	colorYellow = "\033[38;5;220m"
	colorGray   = "\033[38;5;245m"
)

var (
	version     = "0.1.0"
	verbose     bool
	configPath  string
	metricsFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "shadowsnap",
		Short: "Shadowsnap - filesystem snapshots, tree diffs and shadow copies",
		Long: `Capture the metadata of a directory tree as a portable snapshot, compare two
trees (live or snapshotted) and build filtered, structure-preserving shadow copies.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write run metrics in Prometheus textfile format")

	// Disable built-in help command
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// Add commands
	rootCmd.AddCommand(snapshotCmd())
	rootCmd.AddCommand(shadowCmd())
	rootCmd.AddCommand(diffCmd())
	rootCmd.AddCommand(treeCmd())
	rootCmd.AddCommand(convertCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// session carries what every command needs for one invocation
type session struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Run
	color   bool
	closers []func() error
}

// newSession loads configuration and builds the logger. logFile overrides
// the configured log file when not empty.
func newSession(logFile string) (*session, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	if metricsFile != "" {
		cfg.MetricsFile = metricsFile
	}

	s := &session{
		cfg:     cfg,
		metrics: metrics.New(),
		color:   term.IsTerminal(int(os.Stdout.Fd())),
	}

	s.logger, err = s.buildLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return s, nil
}

// buildLogger returns a development logger with -v, otherwise an error-only
// JSON logger on stderr. A configured log file gets its own core.
func (s *session) buildLogger() (*zap.Logger, error) {
	var console zapcore.Core
	if verbose {
		enc := zap.NewDevelopmentEncoderConfig()
		console = zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), zapcore.DebugLevel)
	} else {
		// Silent logger - only errors
		enc := zap.NewProductionEncoderConfig()
		console = zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.Lock(os.Stderr), zapcore.ErrorLevel)
	}

	if s.cfg.LogFile == "" {
		return zap.New(console), nil
	}

	level, err := zapcore.ParseLevel(s.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(s.cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, f.Close)

	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	var fileEncoder zapcore.Encoder
	if s.cfg.LogFormat == "json" {
		fileEncoder = zapcore.NewJSONEncoder(enc)
	} else {
		fileEncoder = zapcore.NewConsoleEncoder(enc)
	}

	core := zapcore.NewTee(console, zapcore.NewCore(fileEncoder, zapcore.AddSync(f), level))
	return zap.New(core, zap.AddCaller()), nil
}

// close flushes the logger, writes the metrics file and closes the log file
func (s *session) close() {
	if err := s.metrics.WriteTextfile(s.cfg.MetricsFile); err != nil {
		s.logger.Error("Failed to write metrics", zap.Error(err))
	}
	s.logger.Sync()
	for _, c := range s.closers {
		c()
	}
}

func (s *session) paint(color, text string) string {
	if !s.color {
		return text
	}
	return color + text + colorReset
}

// defaultLogFile names the log artifact of a shadow run
func defaultLogFile(now time.Time) string {
	return fmt.Sprintf("shadowsnap-%s.log", now.Format("2006-01-02_150405"))
}
