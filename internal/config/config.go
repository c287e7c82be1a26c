package config

import (
	"errors"
	"strings"
	"time"

	cenv "github.com/caarlos0/env/v11"
)

type Config struct {
	ListenAddr        string
	RecognizerBaseURL string
	GatewayPath       string
	WorkDir           string
	FFmpegPath        string
	FFprobePath       string
	CoverToolPath     string
	DefaultAspect     string
	MaxUploadBytes    int64
	RecognizeTimeout  time.Duration
	ComposeTimeout    time.Duration
	LogLevel          string
}

type envConfig struct {
	ListenAddr              string `env:"LISTEN_ADDR" envDefault:":8080"`
	RecognizerBaseURL       string `env:"RECOGNIZER_BASE_URL" envDefault:"https://openspeech.bytedance.com"`
	GatewayPath             string `env:"RECOGNIZER_GATEWAY_PATH" envDefault:"/api/v1/asr"`
	WorkDir                 string `env:"WORK_DIR" envDefault:"./data"`
	FFmpegPath              string `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
	FFprobePath             string `env:"FFPROBE_PATH" envDefault:"ffprobe"`
	CoverToolPath           string `env:"COVER_TOOL_PATH" envDefault:"covergen"`
	DefaultAspect           string `env:"DEFAULT_ASPECT" envDefault:"9:16"`
	MaxUploadBytes          int64  `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"`
	RecognizeTimeoutSeconds int    `env:"RECOGNIZE_TIMEOUT_SECONDS" envDefault:"60"`
	ComposeTimeoutSeconds   int    `env:"COMPOSE_TIMEOUT_SECONDS" envDefault:"300"`
	LogLevel                string `env:"LOG_LEVEL" envDefault:"info"`
}

func Load() (Config, error) {
	var raw envConfig
	if err := cenv.Parse(&raw); err != nil {
		return Config{}, err
	}

	cfg := Config{
		ListenAddr:        strings.TrimSpace(raw.ListenAddr),
		RecognizerBaseURL: strings.TrimRight(strings.TrimSpace(raw.RecognizerBaseURL), "/"),
		GatewayPath:       strings.TrimSpace(raw.GatewayPath),
		WorkDir:           strings.TrimSpace(raw.WorkDir),
		FFmpegPath:        strings.TrimSpace(raw.FFmpegPath),
		FFprobePath:       strings.TrimSpace(raw.FFprobePath),
		CoverToolPath:     strings.TrimSpace(raw.CoverToolPath),
		DefaultAspect:     strings.TrimSpace(raw.DefaultAspect),
		MaxUploadBytes:    raw.MaxUploadBytes,
		RecognizeTimeout:  time.Duration(raw.RecognizeTimeoutSeconds) * time.Second,
		ComposeTimeout:    time.Duration(raw.ComposeTimeoutSeconds) * time.Second,
		LogLevel:          strings.ToLower(strings.TrimSpace(raw.LogLevel)),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("LISTEN_ADDR must not be empty")
	}
	if c.RecognizerBaseURL == "" {
		return errors.New("RECOGNIZER_BASE_URL must not be empty")
	}
	if !strings.HasPrefix(c.GatewayPath, "/") {
		return errors.New("RECOGNIZER_GATEWAY_PATH must start with /")
	}
	if c.WorkDir == "" {
		return errors.New("WORK_DIR must not be empty")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be > 0")
	}
	if c.RecognizeTimeout <= 0 {
		return errors.New("RECOGNIZE_TIMEOUT_SECONDS must be > 0")
	}
	if c.ComposeTimeout <= 0 {
		return errors.New("COMPOSE_TIMEOUT_SECONDS must be > 0")
	}
	return nil
}
