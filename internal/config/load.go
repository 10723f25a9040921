package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/leonardotrapani/healthtranslate/internal/logging"
)

var ErrConfigNotFound = errors.New("config not found")

func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}

	appDir := filepath.Join(configDir, "healthtranslate")
	if err := os.MkdirAll(appDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(appDir, "config.toml"), nil
}

// Load reads the user config, writing the commented default file first when
// none exists.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		logging.Sugar.Infof("Config: no config at %s, writing defaults", configPath)
		if err := SaveDefaultConfig(configPath); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat config file %s: %w", configPath, err)
	}

	return LoadFile(configPath)
}

// LoadFile decodes path over the defaults, so keys missing from the file keep
// their default values.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}

	logging.Sugar.Debugf("Config: loading configuration from %s", path)
	config := DefaultConfig()
	meta, err := toml.DecodeFile(path, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		logging.Sugar.Warnf("Config: ignoring unknown keys in %s: %v", path, undecoded)
	}

	return config, nil
}

// Save writes config to path as plain TOML, replacing any comments.
func Save(path string, config *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	if err := toml.NewEncoder(file).Encode(config); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// rename keeps watchers from reloading a half-written file
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace config file: %w", err)
	}

	logging.Sugar.Infof("Config: saved configuration to %s", path)
	return nil
}

func SaveDefaultConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultTemplate), 0644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}
	return nil
}

const defaultTemplate = `# HealthTranslate configuration
# The daemon reloads this file on save.

[general]
  log_level = "info"        # debug, info, warn, error
  log_format = "console"    # console or json

# Languages are BCP-47 tags. The source language drives speech capture,
# the target language drives translation and playback.
[languages]
  source = "en-US"
  target = "es-ES"

[capture]
  provider = "pipewire"     # pipewire or none
  transcriber = "openai"    # openai or whisper-cpp

  # pw-record settings
  sample_rate = 16000
  channels = 1
  format = "s16"
  buffer_size = 8192
  device = ""               # empty uses the default source
  channel_buffer_size = 30

  # session endpointing
  max_duration = "2m"
  silence_timeout = "8s"    # continuous sessions end after this much silence
  pause_timeout = "1.5s"    # single-utterance sessions end after this pause
  silence_threshold = 0.01  # RMS level below which input counts as silence
  interim_interval = "1.5s" # how often the growing utterance is re-transcribed

  # openai transcriber
  base_url = ""             # empty uses api.openai.com
  model = "whisper-1"
  api_key_env = "OPENAI_API_KEY"

  # whisper-cpp transcriber
  model_path = ""
  threads = 0               # 0 lets whisper-cli decide

# OpenAI-compatible chat completion endpoint used for correction and translation.
[completion]
  base_url = "https://openrouter.ai/api/v1"
  model = "deepseek/deepseek-r1-0528:free"
  api_key_env = "OPENROUTER_API_KEY"
  referer = "http://localhost:3000"
  title = "Healthcare Translation App"
  temperature = 0.0
  request_timeout = "0s"    # 0s waits for the endpoint

[playback]
  backend = "espeak-ng"     # espeak-ng or none
  speed = 160               # words per minute
  auto_speak = false        # speak each translation as it arrives

[notifications]
  enabled = true
  type = "desktop"          # desktop, log, none

[metrics]
  listen_addr = ""          # e.g. "127.0.0.1:9464"; empty disables /metrics
`
