package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

var ErrMissingInput = errors.New("usage: engine <transactions.csv>")

type Config struct {
	InputPath   string
	LogLevel    zapcore.Level
	Kafka       KafkaConfig
	DatabaseURL string // empty disables the snapshot archive
}

type KafkaConfig struct {
	Brokers []string // empty disables publishing
	Topic   string
}

// Load builds the configuration from the program arguments (without the
// program name) and the environment. A .env file in the working directory is
// read first when present; variables already set win over it.
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if len(args) < 1 || strings.TrimSpace(args[0]) == "" {
		return nil, ErrMissingInput
	}

	level, err := zapcore.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	return &Config{
		InputPath: args[0],
		LogLevel:  level,
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_TOPIC", "account_snapshots"),
		},
		DatabaseURL: getEnv("DATABASE_URL", ""),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
