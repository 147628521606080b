/*
 * This file is part of Voice Hub (https://github.com/veristruct/voice-hub).
 * Copyright (C) 2025 Veristruct
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the voice hub
type Config struct {
	Server   ServerConfig
	Speech   SpeechConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	NATS     NATSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxUploadBytes int64
}

// SpeechConfig holds the speech model configuration
type SpeechConfig struct {
	EncoderPath string
	DecoderPath string
	Language    string
}

// DatabaseConfig holds transcription history storage configuration
type DatabaseConfig struct {
	Path string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// NATSConfig holds NATS messaging configuration
type NATSConfig struct {
	URL           string
	MaxReconnect  int
	ReconnectWait time.Duration
}

// Load loads configuration from environment variables with defaults
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Host:           getEnvString("VOX_HOST", "0.0.0.0"),
			Port:           getEnvInt("VOX_PORT", 8080),
			ReadTimeout:    getEnvDuration("VOX_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getEnvDuration("VOX_WRITE_TIMEOUT", 60*time.Second),
			MaxUploadBytes: getEnvInt64("VOX_MAX_UPLOAD_BYTES", 32<<20),
		},
		Speech: SpeechConfig{
			EncoderPath: getEnvString("VOX_ENCODER_PATH", "./models/encoder.onnx"),
			DecoderPath: getEnvString("VOX_DECODER_PATH", "./models/decoder.onnx"),
			Language:    getEnvString("VOX_LANGUAGE", "en"),
		},
		Database: DatabaseConfig{
			Path: getEnvString("VOX_DB_PATH", "./data/voice-hub.db"),
		},
		Logging: LoggingConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
		NATS: NATSConfig{
			URL:           getEnvString("NATS_URL", "nats://localhost:4222"),
			MaxReconnect:  getEnvInt("NATS_MAX_RECONNECT", 10),
			ReconnectWait: getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		},
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// validate checks if the configuration is valid
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive: %d", c.Server.MaxUploadBytes)
	}

	if c.Speech.EncoderPath == "" {
		return fmt.Errorf("encoder model path must be provided")
	}

	if c.Speech.DecoderPath == "" {
		return fmt.Errorf("decoder model path must be provided")
	}

	if c.Speech.Language == "" {
		return fmt.Errorf("default language must be provided")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path must be provided")
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
