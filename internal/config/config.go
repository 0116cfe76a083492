// Package config loads the tiercache command configuration.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. TIERCACHE_DIR.
const EnvPrefix = "TIERCACHE"

// Config holds every setting of the command.
type Config struct {
	LogLevel      string `mapstructure:"LogLevel"`
	LogFilePath   string `mapstructure:"LogFilePath"`
	LogMaxSize    int    `mapstructure:"LogMaxSize"`
	LogMaxBackups int    `mapstructure:"LogMaxBackups"`
	LogCompress   bool   `mapstructure:"LogCompress"`

	// Dir is the disk tier root.
	Dir string `mapstructure:"Dir"`
	// MemoryEntries caps the memory tier (0 = unbounded).
	MemoryEntries int           `mapstructure:"MemoryEntries"`
	MemoryTTL     time.Duration `mapstructure:"MemoryTTL"`
	Policy        string        `mapstructure:"Policy"`
	Codec         string        `mapstructure:"Codec"`
	Compress      bool          `mapstructure:"Compress"`
	MaxReaders    int           `mapstructure:"MaxReaders"`

	ListenAddr       string `mapstructure:"ListenAddr"`
	MetricsNamespace string `mapstructure:"MetricsNamespace"`
}

var keys = []string{
	"LogLevel", "LogFilePath", "LogMaxSize", "LogMaxBackups", "LogCompress",
	"Dir", "MemoryEntries", "MemoryTTL", "Policy", "Codec", "Compress", "MaxReaders",
	"ListenAddr", "MetricsNamespace",
}

// Load reads path (any format viper understands; empty = defaults only),
// applies TIERCACHE_* environment overrides and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range keys {
		if err := v.BindEnv(k, EnvPrefix+"_"+strings.ToUpper(k)); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", k, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.Policy = strings.ToLower(strings.TrimSpace(cfg.Policy))
	cfg.Codec = strings.ToLower(strings.TrimSpace(cfg.Codec))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolve cache directory: %w", err)
	}
	cfg.Dir = abs
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("Dir", "./tiercache")
	v.SetDefault("MemoryEntries", 10_000)
	v.SetDefault("MemoryTTL", "0s")
	v.SetDefault("Policy", "lru")
	v.SetDefault("Codec", "msgpack")
	v.SetDefault("Compress", false)
	v.SetDefault("MaxReaders", 0)
	v.SetDefault("ListenAddr", ":8080")
	v.SetDefault("MetricsNamespace", "tiercache")
}

// FieldError names the offending setting.
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validate checks values that parse but make no sense.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if strings.TrimSpace(c.Dir) == "" {
		return FieldError{"Dir", "must not be empty"}
	}
	if c.MemoryEntries < 0 {
		return FieldError{"MemoryEntries", "must not be negative"}
	}
	if c.MemoryTTL < 0 {
		return FieldError{"MemoryTTL", "must not be negative"}
	}
	switch c.Policy {
	case "lru", "2q":
	default:
		return FieldError{"Policy", "must be lru or 2q"}
	}
	switch c.Codec {
	case "msgpack", "json":
	default:
		return FieldError{"Codec", "must be msgpack or json"}
	}
	if c.MaxReaders < 0 {
		return FieldError{"MaxReaders", "must not be negative"}
	}
	if c.LogMaxSize < 0 || c.LogMaxBackups < 0 {
		return FieldError{"LogMaxSize", "log rotation limits must not be negative"}
	}
	return nil
}

// durationDecodeHook accepts Go duration strings ("30s") as well as plain
// numbers of seconds.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	target := reflect.TypeOf(time.Duration(0))

	return func(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != target {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			v = strings.TrimSpace(v)
			if v == "" {
				return time.Duration(0), nil
			}
			if d, err := time.ParseDuration(v); err == nil {
				return d, nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return time.Duration(seconds * float64(time.Second)), nil
			}
			return nil, fmt.Errorf("invalid duration %q", v)
		case int:
			return time.Duration(v) * time.Second, nil
		case int64:
			return time.Duration(v) * time.Second, nil
		case float64:
			return time.Duration(v * float64(time.Second)), nil
		case time.Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("unsupported duration type %T", v)
		}
	}
}
