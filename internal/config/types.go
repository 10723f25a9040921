package config

import "time"

type Config struct {
	General       GeneralConfig       `toml:"general"`
	Languages     LanguagesConfig     `toml:"languages"`
	Capture       CaptureConfig       `toml:"capture"`
	Completion    CompletionConfig    `toml:"completion"`
	Playback      PlaybackConfig      `toml:"playback"`
	Notifications NotificationsConfig `toml:"notifications"`
	Metrics       MetricsConfig       `toml:"metrics"`
}

type GeneralConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// LanguagesConfig holds BCP-47 tags. Source drives capture, target drives
// the completion prompt and the playback voice.
type LanguagesConfig struct {
	Source string `toml:"source"`
	Target string `toml:"target"`
}

type CaptureConfig struct {
	Provider    string `toml:"provider"`
	Transcriber string `toml:"transcriber"`

	SampleRate        int    `toml:"sample_rate"`
	Channels          int    `toml:"channels"`
	Format            string `toml:"format"`
	BufferSize        int    `toml:"buffer_size"`
	Device            string `toml:"device"`
	ChannelBufferSize int    `toml:"channel_buffer_size"`

	MaxDuration      time.Duration `toml:"max_duration"`
	SilenceTimeout   time.Duration `toml:"silence_timeout"`
	PauseTimeout     time.Duration `toml:"pause_timeout"`
	SilenceThreshold float64       `toml:"silence_threshold"`
	InterimInterval  time.Duration `toml:"interim_interval"`

	BaseURL   string `toml:"base_url"`
	Model     string `toml:"model"`
	APIKeyEnv string `toml:"api_key_env"`
	ModelPath string `toml:"model_path"`
	Threads   int    `toml:"threads"`
}

type CompletionConfig struct {
	BaseURL        string        `toml:"base_url"`
	Model          string        `toml:"model"`
	APIKeyEnv      string        `toml:"api_key_env"`
	Referer        string        `toml:"referer"`
	Title          string        `toml:"title"`
	Temperature    float32       `toml:"temperature"`
	RequestTimeout time.Duration `toml:"request_timeout"`
}

type PlaybackConfig struct {
	Backend   string `toml:"backend"`
	Speed     int    `toml:"speed"`
	AutoSpeak bool   `toml:"auto_speak"`
}

type NotificationsConfig struct {
	Enabled bool   `toml:"enabled"`
	Type    string `toml:"type"`
}

type MetricsConfig struct {
	ListenAddr string `toml:"listen_addr"`
}
