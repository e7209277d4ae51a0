// SPDX-License-Identifier: MIT

// Package config loads runtime configuration from an optional YAML file and
// the environment, with environment values taking precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lepetpal/lepetpal/internal/log"
)

// Config is the fully resolved runtime configuration of the daemon.
type Config struct {
	Port            int
	LogLevel        string
	CameraIndex     int
	CameraURL       string
	StreamWidth     int
	StreamHeight    int
	StreamFPS       int
	UseHardware     bool
	ArmPort         string
	ModelMode       string
	ModelPath       string
	InferenceRateHz int
	CalibrationPath string
	CORSOrigins     []string
	RateLimitRPS    int
	RateLimitBurst  int
	TTSCommand      string
	WorkspaceClear  bool
}

// Defaults returns the built-in configuration matching the published
// contract defaults.
func Defaults() Config {
	return Config{
		Port:            5000,
		LogLevel:        "info",
		CameraIndex:     0,
		StreamWidth:     1280,
		StreamHeight:    720,
		StreamFPS:       15,
		UseHardware:     false,
		ArmPort:         "/dev/ttyACM0",
		ModelMode:       "scripted",
		InferenceRateHz: 15,
		RateLimitRPS:    50,
		RateLimitBurst:  100,
		TTSCommand:      "espeak",
		WorkspaceClear:  true,
	}
}

// fileConfig is the YAML shape of an optional CONFIG_FILE. Every field is
// optional; set fields seed the defaults before env overrides apply.
type fileConfig struct {
	Port            *int     `yaml:"port"`
	LogLevel        *string  `yaml:"log_level"`
	CameraIndex     *int     `yaml:"camera_index"`
	CameraURL       *string  `yaml:"camera_url"`
	StreamRes       *string  `yaml:"stream_res"`
	StreamFPS       *int     `yaml:"stream_fps"`
	UseHardware     *bool    `yaml:"use_hardware"`
	ArmPort         *string  `yaml:"arm_port"`
	ModelMode       *string  `yaml:"model_mode"`
	ModelPath       *string  `yaml:"model_path"`
	InferenceRateHz *int     `yaml:"inference_rate_hz"`
	CalibrationPath *string  `yaml:"calibration_path"`
	CORSOrigins     []string `yaml:"cors_origins"`
	RateLimitRPS    *int     `yaml:"rate_limit_rps"`
	RateLimitBurst  *int     `yaml:"rate_limit_burst"`
	TTSCommand      *string  `yaml:"tts_command"`
}

// Load resolves the configuration: defaults, then the optional YAML file
// named by CONFIG_FILE, then environment overrides.
func Load() Config {
	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			logger := log.WithComponent("config")
			logger.Warn().
				Err(err).
				Str("path", path).
				Str("event", "config.file_ignored").
				Msg("config file could not be applied")
		}
	}
	applyEnv(&cfg)
	return cfg
}

func applyFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	setIf(&cfg.Port, fc.Port)
	setIf(&cfg.LogLevel, fc.LogLevel)
	setIf(&cfg.CameraIndex, fc.CameraIndex)
	setIf(&cfg.CameraURL, fc.CameraURL)
	setIf(&cfg.StreamFPS, fc.StreamFPS)
	setIf(&cfg.UseHardware, fc.UseHardware)
	setIf(&cfg.ArmPort, fc.ArmPort)
	setIf(&cfg.ModelMode, fc.ModelMode)
	setIf(&cfg.ModelPath, fc.ModelPath)
	setIf(&cfg.InferenceRateHz, fc.InferenceRateHz)
	setIf(&cfg.CalibrationPath, fc.CalibrationPath)
	setIf(&cfg.RateLimitRPS, fc.RateLimitRPS)
	setIf(&cfg.RateLimitBurst, fc.RateLimitBurst)
	setIf(&cfg.TTSCommand, fc.TTSCommand)
	if len(fc.CORSOrigins) > 0 {
		cfg.CORSOrigins = fc.CORSOrigins
	}
	if fc.StreamRes != nil {
		if w, h, ok := parseResolution(*fc.StreamRes); ok {
			cfg.StreamWidth, cfg.StreamHeight = w, h
		}
	}
	return nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func applyEnv(cfg *Config) {
	cfg.Port = ParseInt("PORT", cfg.Port)
	cfg.LogLevel = ParseString("LOG_LEVEL", cfg.LogLevel)
	cfg.CameraIndex = ParseInt("CAMERA_INDEX", cfg.CameraIndex)
	cfg.CameraURL = ParseString("CAMERA_URL", cfg.CameraURL)
	cfg.StreamFPS = ParseInt("STREAM_FPS", cfg.StreamFPS)
	cfg.UseHardware = ParseBool("USE_HARDWARE", cfg.UseHardware)
	cfg.ArmPort = ParseString("ARM_PORT", cfg.ArmPort)
	cfg.ModelMode = ParseString("MODEL_MODE", cfg.ModelMode)
	cfg.ModelPath = ParseString("MODEL_PATH", cfg.ModelPath)
	cfg.InferenceRateHz = ParseInt("INFERENCE_RATE_HZ", cfg.InferenceRateHz)
	cfg.CalibrationPath = ParseString("CALIBRATION_PATH", cfg.CalibrationPath)
	cfg.RateLimitRPS = ParseInt("RATE_LIMIT_RPS", cfg.RateLimitRPS)
	cfg.RateLimitBurst = ParseInt("RATE_LIMIT_BURST", cfg.RateLimitBurst)
	cfg.TTSCommand = ParseString("TTS_COMMAND", cfg.TTSCommand)
	cfg.WorkspaceClear = ParseBool("WORKSPACE_CLEAR", cfg.WorkspaceClear)

	res := ParseString("STREAM_RES", fmt.Sprintf("%dx%d", cfg.StreamWidth, cfg.StreamHeight))
	if w, h, ok := parseResolution(res); ok {
		cfg.StreamWidth, cfg.StreamHeight = w, h
	} else {
		logger := log.WithComponent("config")
		logger.Warn().
			Str("key", "STREAM_RES").
			Str("value", res).
			Msg("invalid resolution, keeping previous value")
	}

	if raw := ParseString("CORS_ORIGINS", ""); raw != "" {
		cfg.CORSOrigins = splitCSVNonEmpty(raw)
	}
	if cfg.InferenceRateHz < 1 {
		cfg.InferenceRateHz = 1
	}
}

func parseResolution(res string) (int, int, bool) {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(res)), "x", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	w, err1 := strconv.Atoi(parts[0])
	h, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

func splitCSVNonEmpty(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		v := strings.TrimSpace(p)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
