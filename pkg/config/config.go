// Package config loads the server's configuration from the environment
// (optionally seeded by a .env file), following the same flat-struct,
// getEnv-helper shape the rest of this lineage's services use.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates every top-level configuration group.
type Config struct {
	Server   ServerConfig
	TLS      TLSConfig
	Pool     PoolConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Log      LogConfig
}

// ServerConfig controls the listener.
type ServerConfig struct {
	Port              int
	MaxConnections    int
	IdentifyTimeout   time.Duration
	InactivityTimeout time.Duration
	MaxQueueSize      int // back-pressure watermark (FTP_MAX_QUEUE_SIZE)
}

// TLSConfig controls the secure transport layer.
type TLSConfig struct {
	Enabled  bool
	CertFile string
	KeyFile  string
}

// PoolConfig controls the worker pool.
type PoolConfig struct {
	WorkerCount int // 0 = auto (NumCPU + 1)
}

// DatabaseConfig controls the audit log's PostgreSQL connection.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// ConnectionString builds a libpq connection string.
func (d DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// RedisConfig controls the presence mirror's Redis connection.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	InstanceID   string
	RefreshEvery time.Duration
}

// KafkaConfig controls the event bus.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	Compression  string
	Async        bool
	MaxAttempts  int
	RequiredAcks int
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level string
}

// Load reads configuration from the environment, loading a .env file first
// if one is present (a missing .env is not an error).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("FTP_PORT", 2121),
			MaxConnections:    getEnvAsInt("FTP_MAX_CONNECTIONS", 10000),
			IdentifyTimeout:   getEnvAsDuration("FTP_IDENTIFY_TIMEOUT", 10*time.Second),
			InactivityTimeout: getEnvAsDuration("FTP_INACTIVITY_TIMEOUT", 2*time.Minute),
			MaxQueueSize:      getEnvAsInt("FTP_MAX_QUEUE_SIZE", 100),
		},
		TLS: TLSConfig{
			Enabled:  getEnvAsBool("FTP_TLS_ENABLED", false),
			CertFile: getEnv("FTP_TLS_CERT_FILE", ""),
			KeyFile:  getEnv("FTP_TLS_KEY_FILE", ""),
		},
		Pool: PoolConfig{
			WorkerCount: getEnvAsInt("FTP_WORKER_COUNT", 0),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "ftp_user"),
			Password: getEnv("DB_PASSWORD", "ftp_pass"),
			DBName:   getEnv("DB_NAME", "ftp_core"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:         getEnv("REDIS_ADDR", "localhost:6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			InstanceID:   getEnv("INSTANCE_ID", hostnameOrDefault()),
			RefreshEvery: getEnvAsDuration("PRESENCE_REFRESH_INTERVAL", 15*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:      strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			Topic:        getEnv("KAFKA_TOPIC_EVENTS", "ftp.session.events"),
			BatchSize:    getEnvAsInt("KAFKA_BATCH_SIZE", 100),
			BatchTimeout: getEnvAsDuration("KAFKA_BATCH_TIMEOUT", 100*time.Millisecond),
			Compression:  getEnv("KAFKA_COMPRESSION", "snappy"),
			Async:        getEnvAsBool("KAFKA_ASYNC", true),
			MaxAttempts:  getEnvAsInt("KAFKA_MAX_ATTEMPTS", 3),
			RequiredAcks: getEnvAsInt("KAFKA_REQUIRED_ACKS", 1),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
}

func hostnameOrDefault() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return "ftp-core-0"
	}
	return name
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
