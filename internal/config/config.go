// Package config loads calcsteps settings: defaults, then an optional YAML
// file, then CALCSTEPS_* environment variables. The result is validated.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvPath names the variable holding the config file path.
const EnvPath = "CALCSTEPS_CONFIG"

type Config struct {
	CacheSize int    `yaml:"cache_size" validate:"gte=0"`
	MaxOrder  int    `yaml:"max_order" validate:"gte=1,lte=50"`
	Dependent string `yaml:"dependent" validate:"required,ident"`
	Limit     Limit  `yaml:"limit"`
	Log       Log    `yaml:"log"`
	Server    Server `yaml:"server"`
}

type Limit struct {
	Epsilon           float64 `yaml:"epsilon" validate:"gt=0,lt=1"`
	Surrogate         float64 `yaml:"surrogate" validate:"gte=100"`
	InfinityThreshold float64 `yaml:"infinity_threshold" validate:"gt=0"`
	Decimals          int     `yaml:"decimals" validate:"gte=0,lte=12"`
}

type Log struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

type Server struct {
	Addr      string `yaml:"addr" validate:"required"`
	Transport string `yaml:"transport" validate:"oneof=stdio http"`
}

func Default() Config {
	return Config{
		CacheSize: 256,
		MaxOrder:  10,
		Dependent: "y",
		Limit: Limit{
			Epsilon:           1e-5,
			Surrogate:         1e6,
			InfinityThreshold: 1e5,
			Decimals:          4,
		},
		Log:    Log{Level: "info", Format: "text"},
		Server: Server{Addr: ":8080", Transport: "stdio"},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("ident", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return false
		}
		for i, r := range s {
			switch {
			case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			case i > 0 && r >= '0' && r <= '9':
			default:
				return false
			}
		}
		return true
	})
	return v
}

// Load builds the configuration. An empty path falls back to
// CALCSTEPS_CONFIG; a missing file at the fallback path is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvPath)
	}
	if path != "" {
		if err := loadFile(path, &cfg, explicit); err != nil {
			return cfg, err
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides cfg from CALCSTEPS_* variables.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := lookup(key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}

	num("CALCSTEPS_CACHE_SIZE", &cfg.CacheSize)
	num("CALCSTEPS_MAX_ORDER", &cfg.MaxOrder)
	str("CALCSTEPS_DEPENDENT", &cfg.Dependent)
	float("CALCSTEPS_LIMIT_EPSILON", &cfg.Limit.Epsilon)
	float("CALCSTEPS_LIMIT_SURROGATE", &cfg.Limit.Surrogate)
	float("CALCSTEPS_LIMIT_INFINITY_THRESHOLD", &cfg.Limit.InfinityThreshold)
	num("CALCSTEPS_LIMIT_DECIMALS", &cfg.Limit.Decimals)
	str("CALCSTEPS_LOG_LEVEL", &cfg.Log.Level)
	str("CALCSTEPS_LOG_FORMAT", &cfg.Log.Format)
	str("CALCSTEPS_SERVER_ADDR", &cfg.Server.Addr)
	str("CALCSTEPS_SERVER_TRANSPORT", &cfg.Server.Transport)

	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	return errors.Join(errs...)
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (l Log) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Logger builds a logger writing to w in the configured format.
func (l Log) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.SlogLevel()}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
