// v1
// internal/config/config.go
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config captures all runtime settings for the dogpose backend. Values layer
// defaults, an optional properties file, and environment variables so the
// service boots with minimal setup.
type Config struct {
	// ListenAddress defines the TCP address used by the HTTP server.
	ListenAddress string
	// LogFilePath is the path to the service log file.
	LogFilePath string
	// HTTPReadTimeout bounds the time to read incoming requests.
	HTTPReadTimeout time.Duration
	// HTTPWriteTimeout bounds the time to write responses.
	HTTPWriteTimeout time.Duration
	// ShutdownTimeout limits graceful shutdown attempts.
	ShutdownTimeout time.Duration
	// PropertiesPath records the path used to load property values.
	PropertiesPath string
	// EvaluatorInterval is the cadence of the sensor staleness evaluator.
	EvaluatorInterval time.Duration
	// MaxUploadBytes caps the size of an uploaded image.
	MaxUploadBytes int64
	// MQTTBroker is the optional sensor-feed broker address (empty disables).
	MQTTBroker string
	// MQTTTopic is the sensor-feed subscription topic.
	MQTTTopic string
	// KafkaBrokers lists event-stream brokers (empty disables publishing).
	KafkaBrokers []string
	// ReadingsTopic carries committed sensor readings.
	ReadingsTopic string
	// ResultsTopic carries committed pose results.
	ResultsTopic string
}

const (
	defaultListenAddress = ":8087"
	defaultLogFile       = "logs/dogpose.log"
	defaultReadTimeout   = 10 * time.Second
	defaultWriteTimeout  = 30 * time.Second
	defaultShutdown      = 5 * time.Second
	defaultPropsPath     = "dogpose.properties"
	defaultEvaluator     = 5 * time.Second
	defaultMaxUpload     = int64(10 << 20)
	defaultMQTTTopic     = "sensors/readings"
	defaultReadingsTopic = "dogpose.sensor.readings"
	defaultResultsTopic  = "dogpose.pose.results"
)

// Load resolves configuration by layering defaults, an optional properties
// file, and finally environment variables. The properties file location can
// be overridden with DOGPOSE_PROPERTIES_PATH.
func Load() (Config, error) {
	cfg := Config{
		ListenAddress:     defaultListenAddress,
		LogFilePath:       filepath.Clean(defaultLogFile),
		HTTPReadTimeout:   defaultReadTimeout,
		HTTPWriteTimeout:  defaultWriteTimeout,
		ShutdownTimeout:   defaultShutdown,
		EvaluatorInterval: defaultEvaluator,
		MaxUploadBytes:    defaultMaxUpload,
		MQTTTopic:         defaultMQTTTopic,
		ReadingsTopic:     defaultReadingsTopic,
		ResultsTopic:      defaultResultsTopic,
	}

	propsPath := strings.TrimSpace(os.Getenv("DOGPOSE_PROPERTIES_PATH"))
	if propsPath == "" {
		propsPath = defaultPropsPath
	}
	cfg.PropertiesPath = propsPath

	if err := applyProperties(&cfg, propsPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyProperties(cfg *Config, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") || strings.HasPrefix(raw, ";") {
			continue
		}
		parts := strings.SplitN(raw, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("properties %s line %d: expected key=value", path, line)
		}
		if err := assign(cfg, strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])); err != nil {
			return fmt.Errorf("properties %s line %d: %w", path, line, err)
		}
	}
	return scanner.Err()
}

func applyEnv(cfg *Config) error {
	pairs := map[string]string{
		"listen.address":       "DOGPOSE_LISTEN_ADDRESS",
		"log.file":             "DOGPOSE_LOG_FILE",
		"http.read.timeout":    "DOGPOSE_HTTP_READ_TIMEOUT",
		"http.write.timeout":   "DOGPOSE_HTTP_WRITE_TIMEOUT",
		"shutdown.timeout":     "DOGPOSE_SHUTDOWN_TIMEOUT",
		"evaluator.interval":   "DOGPOSE_EVALUATOR_INTERVAL",
		"upload.max.bytes":     "DOGPOSE_UPLOAD_MAX_BYTES",
		"mqtt.broker":          "DOGPOSE_MQTT_BROKER",
		"mqtt.topic":           "DOGPOSE_MQTT_TOPIC",
		"kafka.brokers":        "DOGPOSE_KAFKA_BROKERS",
		"kafka.topic.readings": "DOGPOSE_KAFKA_READINGS_TOPIC",
		"kafka.topic.results":  "DOGPOSE_KAFKA_RESULTS_TOPIC",
	}
	for key, env := range pairs {
		v := strings.TrimSpace(os.Getenv(env))
		if v == "" {
			continue
		}
		if err := assign(cfg, key, v); err != nil {
			return fmt.Errorf("env %s: %w", env, err)
		}
	}
	return nil
}

func assign(cfg *Config, key, value string) error {
	switch key {
	case "listen.address":
		cfg.ListenAddress = value
	case "log.file":
		cfg.LogFilePath = filepath.Clean(value)
	case "http.read.timeout":
		return parseDuration(value, &cfg.HTTPReadTimeout)
	case "http.write.timeout":
		return parseDuration(value, &cfg.HTTPWriteTimeout)
	case "shutdown.timeout":
		return parseDuration(value, &cfg.ShutdownTimeout)
	case "evaluator.interval":
		return parseDuration(value, &cfg.EvaluatorInterval)
	case "upload.max.bytes":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid byte count %q", value)
		}
		cfg.MaxUploadBytes = n
	case "mqtt.broker":
		cfg.MQTTBroker = value
	case "mqtt.topic":
		cfg.MQTTTopic = value
	case "kafka.brokers":
		cfg.KafkaBrokers = splitAndTrim(value)
	case "kafka.topic.readings":
		cfg.ReadingsTopic = value
	case "kafka.topic.results":
		cfg.ResultsTopic = value
	default:
		return fmt.Errorf("unknown key %q", key)
	}
	return nil
}

func parseDuration(value string, dst *time.Duration) error {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fmt.Errorf("invalid duration %q", value)
	}
	*dst = d
	return nil
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
