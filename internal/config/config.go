// internal/config/config.go
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Fixed transport endpoint of the robot's command/status layer.
// These are compiled in and never read from the environment.
const (
	ROSMasterURI = "http://llp:11311"
	ROSHostname  = "hlp"
)

type Config struct {
	// Redis (node parameter tree)
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MQTT
	MQTTBroker   string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string

	// Guest science
	APKName             string
	UnknownFallsThrough bool

	// Node
	MasterURI          string
	Hostname           string
	NodeStatusInterval time.Duration

	// HTTP
	HTTPAddr string

	// Application
	LogLevel string
	Timeout  time.Duration
}

func Load() (*Config, error) {
	// .env 파일 로드 (없으면 환경변수만 사용)
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	timeoutSeconds, _ := strconv.Atoi(getEnv("TIMEOUT_SECONDS", "10"))
	statusSeconds, _ := strconv.Atoi(getEnv("NODE_STATUS_INTERVAL_SECONDS", "5"))
	if statusSeconds <= 0 {
		statusSeconds = 5
	}

	return &Config{
		RedisHost:           getEnv("REDIS_HOST", "localhost"),
		RedisPort:           getEnv("REDIS_PORT", "6379"),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             redisDB,
		MQTTBroker:          getEnv("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTClientID:        getEnv("MQTT_CLIENT_ID", "ROAM_COMMAND_ASAP"),
		MQTTUsername:        getEnv("MQTT_USERNAME", ""),
		MQTTPassword:        getEnv("MQTT_PASSWORD", ""),
		APKName:             getEnv("GS_APK_NAME", "roamcommandasap"),
		UnknownFallsThrough: getEnvBool("UNKNOWN_FALLS_THROUGH", true),
		MasterURI:           ROSMasterURI,
		Hostname:            ROSHostname,
		NodeStatusInterval:  time.Duration(statusSeconds) * time.Second,
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		Timeout:             time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
