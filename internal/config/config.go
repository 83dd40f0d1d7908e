package config

import (
	"fmt"
	"math"
	"runtime"
	"strings"

	"github.com/IvanShishkin/shadowsnap/internal/snapshot"
	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

// Config represents the shadowsnap configuration
type Config struct {
	// Enumeration settings
	Backend   string   `mapstructure:"backend"`    // native, billy, index
	IndexPath string   `mapstructure:"index_path"` // snapshot file backing the index backend
	Exclude   []string `mapstructure:"exclude"`    // directory names skipped by the native walker

	// Shadow copy settings
	Extensions   []string `mapstructure:"extensions"`    // allow-list, leading dot
	Workers      int      `mapstructure:"workers"`       // copy workers, 0 = CPU cores
	MaxSize      string   `mapstructure:"max_size"`      // largest file copied, "0" = unlimited
	EmitSnapshot bool     `mapstructure:"emit_snapshot"` // write the source snapshot into the destination
	SnapshotName string   `mapstructure:"snapshot_name"` // file name of that snapshot
	Verify       bool     `mapstructure:"verify"`        // hash-compare every copy

	// Snapshot settings
	Compress    bool   `mapstructure:"compress"`      // compress .lz4/.zst snapshots
	TextMaxSize string `mapstructure:"text_max_size"` // size limit for --keep-text-files

	// Output settings
	LogLevel     string `mapstructure:"log_level"`     // debug, info, warn, error
	LogFormat    string `mapstructure:"log_format"`    // console, json
	LogFile      string `mapstructure:"log_file"`      // extra log file, empty = none
	MetricsFile  string `mapstructure:"metrics_file"`  // prometheus textfile output
	DiffLimit    int    `mapstructure:"diff_limit"`    // missing items printed per side
	ReportFormat string `mapstructure:"report_format"` // text, json, md (empty = console)
}

// Backend names
const (
	BackendNative = "native"
	BackendBilly  = "billy"
	BackendIndex  = "index"
)

// DefaultExtensions is the allow-list used when none is configured
var DefaultExtensions = []string{".txt", ".md", ".log"}

// AnyExtension in an allow-list matches every file
const AnyExtension = "*"

// LoadConfig loads configuration from defaults, an optional config file and
// environment variables. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("backend", BackendNative)
	v.SetDefault("index_path", "")
	v.SetDefault("exclude", []string{})
	v.SetDefault("extensions", DefaultExtensions)
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("max_size", "0")
	v.SetDefault("emit_snapshot", true)
	v.SetDefault("snapshot_name", "_Snapshot.csv")
	v.SetDefault("verify", false)
	v.SetDefault("compress", true)
	v.SetDefault("text_max_size", "1M")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("log_file", "")
	v.SetDefault("metrics_file", "")
	v.SetDefault("diff_limit", 25)
	v.SetDefault("report_format", "")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("SHADOWSNAP")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks option values that would otherwise fail late
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendNative, BackendBilly:
	case BackendIndex:
		if c.IndexPath == "" {
			return fmt.Errorf("backend %q requires index_path", c.Backend)
		}
	default:
		return fmt.Errorf("backend must be one of: native, billy, index (got: %s)", c.Backend)
	}

	for _, ext := range c.Extensions {
		if ext == AnyExtension {
			continue
		}
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("extension %q must start with a dot", ext)
		}
	}

	if _, err := ParseSize(c.MaxSize); err != nil {
		return fmt.Errorf("max_size: %w", err)
	}
	if _, err := ParseSize(c.TextMaxSize); err != nil {
		return fmt.Errorf("text_max_size: %w", err)
	}

	if c.EmitSnapshot && c.SnapshotName != "" {
		if _, err := snapshot.FormatFor(c.SnapshotName); err != nil {
			return fmt.Errorf("snapshot_name: %w", err)
		}
	}

	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative (got: %d)", c.Workers)
	}

	switch c.LogFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json (got: %s)", c.LogFormat)
	}

	switch c.ReportFormat {
	case "", "text", "txt", "json", "md", "markdown":
	default:
		return fmt.Errorf("report_format must be one of: text, json, md (got: %s)", c.ReportFormat)
	}

	return nil
}

// ParseSize parses a byte size such as "650K", "10M", "10MB" or "2GiB".
// A bare K, M, G or T suffix is a power of 1024, "kB" and "MB" are SI.
// An empty string is 0.
func ParseSize(s string) (int64, error) {
	size := strings.TrimSpace(s)
	if size == "" {
		return 0, nil
	}
	if strings.ContainsRune("kKmMgGtT", rune(size[len(size)-1])) {
		size += "i"
	}

	n, err := humanize.ParseBytes(size)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("size %q out of range", s)
	}
	return int64(n), nil
}

// NormalizedExtensions returns the allow-list lowercased and deduplicated
func (c *Config) NormalizedExtensions() []string {
	exts := c.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	return NormalizeExtensions(exts)
}

// NormalizeExtensions lowercases extensions and adds a missing leading dot
func NormalizeExtensions(exts []string) []string {
	seen := make(map[string]bool, len(exts))
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if ext != AnyExtension && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if seen[ext] {
			continue
		}
		seen[ext] = true
		out = append(out, ext)
	}
	return out
}
