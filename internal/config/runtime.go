package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Runtime holds the per-invocation knobs layered over Defaults via
// viper: an optional YAML config file, overridden by environment
// variables (SIGINT_ prefix, dashes folded to underscores, matching the
// teacher's own convention), overridden in turn by flags set on the
// command line.
type Runtime struct {
	CacheDir      string        `mapstructure:"cache-dir"`
	CacheTTLDays  int           `mapstructure:"cache-ttl-days"`
	MaxQueries    int           `mapstructure:"max-queries"`
	EnrichWorkers int           `mapstructure:"enrich-workers"`
	VerifyWorkers int           `mapstructure:"verify-workers"`
	Timeout       time.Duration `mapstructure:"timeout"`
	UserAgent     string        `mapstructure:"user-agent"`
	Debug         bool          `mapstructure:"debug"`

	TCPCheck       bool          `mapstructure:"tcp-check"`
	TCPTimeout     time.Duration `mapstructure:"tcp-timeout"`
	TCPRetries     int           `mapstructure:"tcp-retries"`
	FetchTLS       bool          `mapstructure:"fetch-tls"`
	TLSTimeout     time.Duration `mapstructure:"tls-timeout"`
	RetryThreshold int           `mapstructure:"retry-threshold"`
}

// NewRuntime derives a Runtime from the process-wide Defaults.
func NewRuntime(d Defaults, dataDir string) Runtime {
	return Runtime{
		CacheDir:       filepath.Join(dataDir, "cache"),
		CacheTTLDays:   d.CacheTTLDays,
		MaxQueries:     d.MaxQueries,
		EnrichWorkers:  d.EnrichWorkers,
		VerifyWorkers:  d.VerifyWorkers,
		Timeout:        d.HTTPTimeout,
		UserAgent:      "sigint/0.1",
		TCPCheck:       true,
		TCPTimeout:     d.TCPTimeout,
		TCPRetries:     d.TCPRetries,
		FetchTLS:       true,
		TLSTimeout:     d.TLSTimeout,
		RetryThreshold: d.RetryThreshold,
	}
}

// BindRuntimeFlags registers the persistent flags every subcommand
// shares and binds them into viper so a config file, environment
// variable, or flag can each supply a value (flag wins).
func BindRuntimeFlags(flags *pflag.FlagSet, r Runtime) error {
	flags.String("cache-dir", r.CacheDir, "directory for the discovery and IPInfo caches")
	flags.Int("cache-ttl-days", r.CacheTTLDays, "discovery cache TTL in days (0 = never expire)")
	flags.Int("max-queries", r.MaxQueries, "maximum planner queries per run")
	flags.Int("enrich-workers", r.EnrichWorkers, "concurrent IPInfo enrichment workers")
	flags.Int("verify-workers", r.VerifyWorkers, "concurrent verification workers")
	flags.Duration("timeout", r.Timeout, "per-request HTTP timeout")
	flags.String("user-agent", r.UserAgent, "User-Agent header sent by discovery and probe requests")
	flags.Bool("debug", r.Debug, "enable debug logging")
	flags.Bool("tcp-check", r.TCPCheck, "require a TCP liveness check before probing a candidate")
	flags.Duration("tcp-timeout", r.TCPTimeout, "TCP liveness check timeout")
	flags.Int("tcp-retries", r.TCPRetries, "TCP liveness check retry count")
	flags.Bool("fetch-tls", r.FetchTLS, "harvest TLS certificate data for verified/likely results")
	flags.Duration("tls-timeout", r.TLSTimeout, "TLS handshake timeout for certificate harvesting")
	flags.Int("retry-threshold", r.RetryThreshold, "score below which scheme/prefix retry is attempted")

	for _, name := range []string{
		"cache-dir", "cache-ttl-days", "max-queries", "enrich-workers", "verify-workers",
		"timeout", "user-agent", "debug", "tcp-check", "tcp-timeout", "tcp-retries",
		"fetch-tls", "tls-timeout", "retry-threshold",
	} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			return fmt.Errorf("config: bind flag %q: %w", name, err)
		}
	}
	return nil
}

// LoadRuntime reads an optional "<dataDir>/config.yaml", applies
// SIGINT_-prefixed environment variables, and overlays any bound
// flags, returning the merged Runtime.
func LoadRuntime(dataDir string) (Runtime, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(dataDir)
	viper.SetEnvPrefix("SIGINT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !asConfigFileNotFound(err, &notFound) {
			return Runtime{}, fmt.Errorf("config: read config file: %w", err)
		}
	}

	var r Runtime
	if err := viper.Unmarshal(&r); err != nil {
		return Runtime{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return r, nil
}

func asConfigFileNotFound(err error, target *viper.ConfigFileNotFoundError) bool {
	notFound, ok := err.(viper.ConfigFileNotFoundError)
	if ok {
		*target = notFound
	}
	return ok
}
