package engine

import (
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/jingkaihe/skillhub/pkg/watcher"
)

// Config controls engine behavior. Values come from flags, config
// files, and SKILLHUB_* environment variables via viper.
type Config struct {
	// Root is the skill tree root containing agents/ and skills/.
	Root string `mapstructure:"root"`
	// Parallelism bounds concurrent descriptor parsing; 0 means one
	// worker per CPU.
	Parallelism int `mapstructure:"parallelism"`
	// Watch holds hot-reload settings.
	Watch WatchConfig `mapstructure:"watch"`
}

// WatchConfig holds hot-reload settings.
type WatchConfig struct {
	// Debounce is the quiet period before a reload, e.g. "500ms".
	Debounce time.Duration `mapstructure:"debounce"`
	// Ignore lists glob patterns for path segments that never trigger
	// reloads. Empty means the watcher defaults.
	Ignore []string `mapstructure:"ignore"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Root: ".",
		Watch: WatchConfig{
			Debounce: watcher.DefaultDebounce,
		},
	}
}

// ConfigFromViper decodes engine configuration from the global viper
// instance, applying defaults for unset keys.
func ConfigFromViper() (Config, error) {
	cfg := DefaultConfig()

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     &cfg,
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return cfg, errors.Wrap(err, "failed to create config decoder")
	}
	if err := decoder.Decode(viper.AllSettings()); err != nil {
		return cfg, errors.Wrap(err, "failed to decode engine config")
	}

	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = watcher.DefaultDebounce
	}
	return cfg, nil
}
