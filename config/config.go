// Package config loads runner settings from defaults, an optional config
// file and WBG_ environment variables, and maps them onto runtime.Config.
package config

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/wbg-runtime/errors"
	"github.com/wippyai/wbg-runtime/runtime"
)

// EnvPrefix prefixes every environment override: WBG_WASM_MEMORY_PAGES
// sets wasm.memory_pages.
const EnvPrefix = "WBG"

var validate = validator.New()

type Config struct {
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Wasm    WasmConfig    `mapstructure:"wasm" yaml:"wasm"`
	Window  WindowConfig  `mapstructure:"window" yaml:"window"`
	Fetch   FetchConfig   `mapstructure:"fetch" yaml:"fetch"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Audio   AudioConfig   `mapstructure:"audio" yaml:"audio"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=console json"`
}

// WasmConfig holds engine settings.
type WasmConfig struct {
	// Memory limit in pages, 64KiB each. Zero keeps the engine default.
	MemoryPages uint32 `mapstructure:"memory_pages" yaml:"memory_pages" validate:"lte=65536"`
	// Compilation cache directory.
	CacheDir string `mapstructure:"cache_dir" yaml:"cache_dir"`
}

type WindowConfig struct {
	Href             string  `mapstructure:"href" yaml:"href" validate:"required,url"`
	DevicePixelRatio float64 `mapstructure:"device_pixel_ratio" yaml:"device_pixel_ratio" validate:"gt=0"`
	FrameRate        float64 `mapstructure:"frame_rate" yaml:"frame_rate" validate:"gte=0,lte=1000"`
	UserAgent        string  `mapstructure:"user_agent" yaml:"user_agent"`
}

// FetchConfig resolves guest requests. Relative URLs join BaseURL and
// file: URLs are served below FileRoot.
type FetchConfig struct {
	BaseURL  string `mapstructure:"base_url" yaml:"base_url" validate:"omitempty,url"`
	FileRoot string `mapstructure:"file_root" yaml:"file_root" validate:"omitempty,dir"`
}

type StorageConfig struct {
	// Path of the SQLite database. Empty keeps storage in memory.
	Path string `mapstructure:"path" yaml:"path"`
}

type AudioConfig struct {
	SampleRate float64 `mapstructure:"sample_rate" yaml:"sample_rate" validate:"gte=3000,lte=768000"`
}

// SetDefaults installs the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("wasm.memory_pages", 0)
	v.SetDefault("wasm.cache_dir", "")

	v.SetDefault("window.href", "http://localhost/")
	v.SetDefault("window.device_pixel_ratio", 1.0)
	v.SetDefault("window.frame_rate", 60.0)
	v.SetDefault("window.user_agent", "wbg-runtime")

	v.SetDefault("fetch.base_url", "")
	v.SetDefault("fetch.file_root", "")

	v.SetDefault("storage.path", "")

	v.SetDefault("audio.sample_rate", 44100.0)
}

// NewViper returns a viper instance with defaults and environment binding.
// A non-empty path is read as the config file.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "read "+path)
		}
	}
	return v, nil
}

// Load reads the configuration at path, or defaults and environment only
// when path is empty, and validates it.
func Load(path string) (*Config, error) {
	v, err := NewViper(path)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// FromViper decodes and validates the settings held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "validate config")
	}
	return nil
}

// Dump writes the effective configuration as YAML.
func (c *Config) Dump(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "encode config")
	}
	return enc.Close()
}

// Logger builds a zap logger for the log section: json selects the
// production encoder, console the development one.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "log level")
	}
	zc := zap.NewDevelopmentConfig()
	if c.Log.Format == "json" {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	log, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "build logger")
	}
	return log, nil
}

// Runtime maps the settings onto a runtime configuration.
func (c *Config) Runtime(log *zap.Logger) *runtime.Config {
	return &runtime.Config{
		MemoryLimitPages: c.Wasm.MemoryPages,
		CacheDir:         c.Wasm.CacheDir,
		FrameRate:        c.Window.FrameRate,
		Href:             c.Window.Href,
		DevicePixelRatio: c.Window.DevicePixelRatio,
		UserAgent:        c.Window.UserAgent,
		BaseURL:          c.Fetch.BaseURL,
		FileRoot:         c.Fetch.FileRoot,
		HTTPClient:       http.DefaultClient,
		StoragePath:      c.Storage.Path,
		SampleRate:       c.Audio.SampleRate,
		Logger:           log,
	}
}
