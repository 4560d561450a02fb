package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the gateway.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Emotion       EmotionConfig       `yaml:"emotion"`
	Chat          ChatConfig          `yaml:"chat"`
	Capture       CaptureConfig       `yaml:"capture"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ShowTrace       bool          `yaml:"show_trace"`
	StaticDir       string        `yaml:"static_dir"`
	UploadsDir      string        `yaml:"uploads_dir"`
	UploadRetention time.Duration `yaml:"upload_retention"`
}

// TranscriptionConfig holds speech-to-text service settings.
type TranscriptionConfig struct {
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"`
	SpeechModel  string        `yaml:"speech_model"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// EmotionConfig holds facial-emotion detector service settings.
type EmotionConfig struct {
	URL         string `yaml:"url"`
	FrameStride int    `yaml:"frame_stride"`
}

// ChatConfig holds chat-completion service settings.
type ChatConfig struct {
	URL   string `yaml:"url"`
	Model string `yaml:"model"`
}

// CaptureConfig holds local recording parameters.
type CaptureConfig struct {
	SampleRate int `yaml:"sample_rate"`
	Channels   int `yaml:"channels"`
	ChunkSize  int `yaml:"chunk_size"`
	FrameRate  int `yaml:"frame_rate"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns a config populated with the built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			ShowTrace:       true,
			StaticDir:       "web",
			UploadsDir:      "server/uploads",
			UploadRetention: 7 * 24 * time.Hour,
		},
		Transcription: TranscriptionConfig{
			BaseURL:      "https://api.assemblyai.com",
			SpeechModel:  "universal",
			PollInterval: 3 * time.Second,
		},
		Emotion: EmotionConfig{
			URL:         "http://localhost:8600",
			FrameStride: 15,
		},
		Chat: ChatConfig{
			URL:   "http://localhost:11434",
			Model: "gemma3",
		},
		Capture: CaptureConfig{
			SampleRate: 44100,
			Channels:   1,
			ChunkSize:  4096,
			FrameRate:  20,
		},
		Logging: LoggingConfig{Level: "debug"},
	}
}

// Load reads a YAML config file, applies defaults for unset fields, then
// applies environment overrides. A missing file is not an error: the
// defaults are returned so the gateway can run without any config on disk.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv applies environment variable overrides. PORT and SHOW_TRACE
// mirror the front end's deployment contract; the transcription API key is
// accepted from the environment so it never has to live in the file.
func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("SHOW_TRACE"); v != "" {
		c.Server.ShowTrace = v != "0"
	}
	if v := os.Getenv("TRANSCRIBE_API_KEY"); v != "" {
		c.Transcription.APIKey = v
	}
}

// Validate checks the config for values the gateway cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.UploadsDir == "" {
		return fmt.Errorf("uploads_dir is required")
	}
	if c.Transcription.BaseURL == "" {
		return fmt.Errorf("transcription base_url is required")
	}
	if c.Transcription.PollInterval <= 0 {
		return fmt.Errorf("invalid transcription poll_interval: %s", c.Transcription.PollInterval)
	}
	if c.Emotion.FrameStride <= 0 {
		return fmt.Errorf("invalid emotion frame_stride: %d", c.Emotion.FrameStride)
	}
	if c.Chat.URL == "" {
		return fmt.Errorf("chat url is required")
	}
	if c.Capture.SampleRate <= 0 || c.Capture.Channels <= 0 {
		return fmt.Errorf("invalid capture audio parameters")
	}
	return nil
}
