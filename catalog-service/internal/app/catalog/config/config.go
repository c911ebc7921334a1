package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config содержит все настройки Catalog Service
// Включает конфигурацию для HTTP сервера, PostgreSQL, Redis, Kafka, MongoDB, JWT и синхронизации
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	MongoDB  MongoDBConfig
	JWT      JWTConfig
	Sync     SyncConfig
	Log      LogConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Host           string   // Адрес хоста (по умолчанию 0.0.0.0)
	Port           string   // Порт сервера (по умолчанию 8081)
	AllowedOrigins []string // Origins витрины (Telegram Mini App) для CORS
}

// DatabaseConfig - настройки подключения к PostgreSQL
// Здесь хранятся боты, категории и товары всех магазинов
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string // disable/require/verify-full
}

// RedisConfig - кеш листингов и ключи паузы между сверками
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration // TTL кеша листинга магазина
}

// KafkaConfig - события каталога (producer) и события ботов (consumer)
type KafkaConfig struct {
	Brokers   []string
	Topic     string // catalog_events: изменения каталога и результаты сверки
	ShopTopic string // shop_events: подключение и отключение ботов
	GroupID   string
	MinBytes  int
	MaxBytes  int
	Disabled  bool // Локальный запуск без брокера
}

// MongoDBConfig - журнал проходов сверки
type MongoDBConfig struct {
	URI      string
	Database string
}

// JWTConfig - проверка токенов владельцев магазинов
type JWTConfig struct {
	Secret string // Должен совпадать с сервисом, выпускающим токены
}

// SyncConfig - настройки синхронизации каталога между магазинами
type SyncConfig struct {
	ReconcileOnRead   bool          // Сверять каталог при промахе кеша листинга
	ReconcileCooldown time.Duration // Минимальный интервал между сверками одного владельца при чтении
	SweepSchedule     string        // Cron-расписание полной сверки всех владельцев (пусто - выключено)
	SyncAllRate       float64       // Запросов POST /products/sync-all в секунду на владельца
	SyncAllBurst      int
}

// LogConfig - уровень логирования и адрес Logstash
type LogConfig struct {
	Level        string
	LogstashAddr string
}

// Load загружает конфигурацию из переменных окружения.
// Если рядом лежит .env, его значения подхватываются, но не перекрывают окружение.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB value: %w", err)
	}

	rate, err := strconv.ParseFloat(getEnv("SYNC_ALL_RATE", "0.2"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_ALL_RATE value: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnv("SERVER_PORT", "8081"),
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "tgshop"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
			TTL:      getEnvDuration("REDIS_CATALOG_TTL", 10*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:   getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:     getEnv("KAFKA_TOPIC", "catalog_events"),
			ShopTopic: getEnv("KAFKA_SHOP_TOPIC", "shop_events"),
			GroupID:   getEnv("KAFKA_GROUP_ID", "catalog-service-group"),
			MinBytes:  getEnvInt("KAFKA_MIN_BYTES", 1),
			MaxBytes:  getEnvInt("KAFKA_MAX_BYTES", 10e6),
			Disabled:  getEnvBool("KAFKA_DISABLED", false),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "tgshop_audit"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),
		},
		Sync: SyncConfig{
			ReconcileOnRead:   getEnvBool("SYNC_RECONCILE_ON_READ", true),
			ReconcileCooldown: getEnvDuration("SYNC_RECONCILE_COOLDOWN", 30*time.Second),
			SweepSchedule:     getEnv("SYNC_SWEEP_SCHEDULE", "0 */15 * * * *"),
			SyncAllRate:       rate,
			SyncAllBurst:      getEnvInt("SYNC_ALL_BURST", 2),
		},
		Log: LogConfig{
			Level:        getEnv("LOG_LEVEL", "info"),
			LogstashAddr: getEnv("LOGSTASH_ADDR", ""),
		},
	}, nil
}

// DSN возвращает строку подключения к PostgreSQL в формате libpq
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Address возвращает адрес сервера в формате host:port
func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

// Address возвращает адрес Redis в формате host:port
func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration принимает формат time.ParseDuration (например 30s, 10m)
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList разбирает список через запятую
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
