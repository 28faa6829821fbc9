// Package config loads runtime settings for the parking lot from defaults,
// an optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "PARKING"

// Config holds all configuration options for the parking lot.
type Config struct {
	Mode      string          `mapstructure:"mode"` // "cli" (default), "server" or "both"
	Lot       LotConfig       `mapstructure:"lot"`
	Shell     ShellConfig     `mapstructure:"shell"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type LotConfig struct {
	// SlotMode is "compact" (slots renumber when a vehicle leaves) or
	// "fixed" (a vehicle keeps its slot; park takes the lowest free one).
	SlotMode string `mapstructure:"slot_mode"`
}

type ShellConfig struct {
	Prompt string `mapstructure:"prompt"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" (default) or "text"
	File   string `mapstructure:"file"`   // also write logs here when set
}

// TelemetryConfig selects where traces and metrics go.
type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`

	// Exporter selects the export backend.
	// Options: "otlp", "stdout", "none". Unset means DefaultExporter(mode).
	Exporter       string        `mapstructure:"exporter"`
	OTLPEndpoint   string        `mapstructure:"otlp_endpoint"`
	MetricInterval time.Duration `mapstructure:"metric_interval"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		Mode: "cli",
		Lot: LotConfig{
			SlotMode: "compact",
		},
		Shell: ShellConfig{
			Prompt: "$ ",
		},
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "parking-lot-service",
			Exporter:       DefaultExporter("cli"),
			OTLPEndpoint:   "http://localhost:4318",
			MetricInterval: 5 * time.Second,
		},
	}
}

// DefaultExporter picks the exporter when none is configured. An
// interactive session should not wait on a collector that may not exist,
// so cli gets "none"; server and both export over OTLP.
func DefaultExporter(mode string) string {
	if mode == "cli" {
		return "none"
	}
	return "otlp"
}

// SetDefaults registers every default on v so env and file values can
// override them key by key. telemetry.exporter is left unset because its
// default depends on mode.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("mode", d.Mode)
	v.SetDefault("lot.slot_mode", d.Lot.SlotMode)
	v.SetDefault("shell.prompt", d.Shell.Prompt)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", d.Server.IdleTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("telemetry.service_name", d.Telemetry.ServiceName)
	v.SetDefault("telemetry.otlp_endpoint", d.Telemetry.OTLPEndpoint)
	v.SetDefault("telemetry.metric_interval", d.Telemetry.MetricInterval)
}

// Load reads cfgFile (optional) and PARKING_* environment variables into v
// and returns the merged, validated configuration. The standard
// OTEL_SERVICE_NAME and OTEL_EXPORTER_OTLP_ENDPOINT variables win over file
// values.
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("reading config %s: %w", cfgFile, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}

	if cfg.Telemetry.Exporter == "" {
		cfg.Telemetry.Exporter = DefaultExporter(cfg.Mode)
	}
	if name := os.Getenv("OTEL_SERVICE_NAME"); name != "" {
		cfg.Telemetry.ServiceName = name
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		cfg.Telemetry.OTLPEndpoint = endpoint
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Mode {
	case "cli", "server", "both":
	default:
		return fmt.Errorf("invalid mode %q: must be cli, server, or both", c.Mode)
	}

	switch c.Lot.SlotMode {
	case "compact", "fixed":
	default:
		return fmt.Errorf("invalid lot.slot_mode %q: must be compact or fixed", c.Lot.SlotMode)
	}

	switch c.Telemetry.Exporter {
	case "otlp", "stdout", "none":
	default:
		return fmt.Errorf("unsupported exporter type: %s", c.Telemetry.Exporter)
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format %q: must be json or text", c.Log.Format)
	}

	if c.Server.Port == "" && c.Mode != "cli" {
		return errors.New("server.port is required in server mode")
	}
	if c.Telemetry.Exporter == "otlp" && c.Telemetry.OTLPEndpoint == "" {
		return errors.New("telemetry.otlp_endpoint required for otlp exporter")
	}
	return nil
}
