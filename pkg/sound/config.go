package sound

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

// Config controls manager behavior. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	// BatchSize is how many sources the pool creates at once, both at
	// startup and on each growth.
	BatchSize int `mapstructure:"batch_size" env:"SOUNDPOOL_BATCH_SIZE"`

	// WatchInterval is how often completion watchers poll for playback
	// end.
	WatchInterval time.Duration `mapstructure:"watch_interval" env:"SOUNDPOOL_WATCH_INTERVAL"`

	// Output selects the backend implementation.
	Output OutputType `mapstructure:"-" env:"-"`

	// Format is the PCM format of the output device. All clips must match.
	Format Format `mapstructure:"-" env:"-"`

	// Volume levels, all 0.0 to 1.0.
	MasterVolume float64 `mapstructure:"master_volume" env:"SOUNDPOOL_MASTER_VOLUME"`
	SFXVolume    float64 `mapstructure:"sfx_volume" env:"SOUNDPOOL_SFX_VOLUME"`
	MusicVolume  float64 `mapstructure:"music_volume" env:"SOUNDPOOL_MUSIC_VOLUME"`

	// ClickVolume is used by PlayButtonClick.
	ClickVolume float64 `mapstructure:"click_volume" env:"SOUNDPOOL_CLICK_VOLUME"`
}

// DefaultConfig returns the stock configuration: a batch of ten pooled
// sources on an auto-detected backend.
func DefaultConfig() Config {
	return Config{
		BatchSize:     DefaultBatchSize,
		WatchInterval: 10 * time.Millisecond,
		Output:        OutputAuto,
		Format:        DefaultFormat(),
		MasterVolume:  1.0,
		SFXVolume:     1.0,
		MusicVolume:   0.7,
		ClickVolume:   0.8,
	}
}

// Validate checks config sanity.
func (c Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.WatchInterval <= 0 {
		return fmt.Errorf("watch interval must be positive, got %s", c.WatchInterval)
	}
	for name, v := range map[string]float64{
		"master_volume": c.MasterVolume,
		"sfx_volume":    c.SFXVolume,
		"music_volume":  c.MusicVolume,
		"click_volume":  c.ClickVolume,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0.0 and 1.0, got %f", name, v)
		}
	}
	return c.Format.Validate()
}

// LoadConfig builds a Config from defaults, then the viper config file,
// then environment variables, in increasing precedence.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()

	if v != nil {
		if v.IsSet("sound") {
			if err := v.UnmarshalKey("sound", &cfg); err != nil {
				return cfg, fmt.Errorf("parsing sound config: %w", err)
			}
		}
		if rate := v.GetInt("sound.sample_rate"); rate != 0 {
			cfg.Format.SampleRate = rate
		}
		if ch := v.GetInt("sound.channels"); ch != 0 {
			cfg.Format.Channels = ch
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing sound environment: %w", err)
	}

	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.WatchInterval == 0 {
		cfg.WatchInterval = 10 * time.Millisecond
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	log.Debug("Sound config loaded",
		"batch_size", cfg.BatchSize,
		"sample_rate", cfg.Format.SampleRate,
		"master_volume", cfg.MasterVolume)
	return cfg, nil
}
