package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	Catalog     CatalogConfig     `mapstructure:"catalog"`
	Store       StoreConfig       `mapstructure:"store"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Badger      BadgerConfig      `mapstructure:"badger"`
	Recognition RecognitionConfig `mapstructure:"recognition"`
	OpenRouter  OpenRouterConfig  `mapstructure:"openrouter"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Queue       QueueConfig       `mapstructure:"queue"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Image       ImageConfig       `mapstructure:"image"`
	DedupWindow time.Duration     `mapstructure:"dedup_window"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// LogConfig 日誌設定，Dir 為空時只輸出到終端
type LogConfig struct {
	Level string `mapstructure:"level"`
	Dir   string `mapstructure:"dir"`
	Mode  string `mapstructure:"mode"`
}

// CatalogConfig 食譜目錄設定，Path 為空時使用內嵌資料
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// StoreConfig 收藏與評分的儲存後端
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

// RedisConfig Redis 連線設定
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// BadgerConfig Badger 設定
type BadgerConfig struct {
	Dir        string        `mapstructure:"dir"`
	InMemory   bool          `mapstructure:"in_memory"`
	GCInterval time.Duration `mapstructure:"gc_interval"`
}

// RecognitionConfig 食材辨識設定
type RecognitionConfig struct {
	Provider string        `mapstructure:"provider"`
	MinDelay time.Duration `mapstructure:"min_delay"`
	MaxDelay time.Duration `mapstructure:"max_delay"`
}

// OpenRouterConfig OpenRouter 配置
type OpenRouterConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	APIKey           string        `mapstructure:"api_key"`
	Model            string        `mapstructure:"model"`
	MaxTokens        int           `mapstructure:"max_tokens"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
	BreakerTimeout   time.Duration `mapstructure:"breaker_timeout"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// QueueConfig 辨識隊列設定
type QueueConfig struct {
	Workers int `mapstructure:"workers"`
	MaxSize int `mapstructure:"max_size"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// ImageConfig 圖片配置
type ImageConfig struct {
	MaxSizeBytes int64 `mapstructure:"max_size_bytes"`
}

// 支援的儲存後端
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreBadger = "badger"
)

// 支援的辨識提供者
const (
	RecognitionMock       = "mock"
	RecognitionOpenRouter = "openrouter"
)

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// .env 不存在時不視為錯誤
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return Load(viper.New())
}

// Load 從指定的 viper 實例解析設定，方便測試
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定常用環境變量
	_ = v.BindEnv("server.port", "APP_SERVER_PORT", "PORT")
	_ = v.BindEnv("log.level", "APP_LOG_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv("log.mode", "APP_LOG_MODE", "LOG_MODE")
	_ = v.BindEnv("catalog.path", "APP_CATALOG_PATH", "CATALOG_PATH")
	_ = v.BindEnv("store.driver", "APP_STORE_DRIVER", "STORE_DRIVER")
	_ = v.BindEnv("redis.addr", "APP_REDIS_ADDR", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "APP_REDIS_PASSWORD", "REDIS_PASSWORD")
	_ = v.BindEnv("badger.dir", "APP_BADGER_DIR", "BADGER_DIR")
	_ = v.BindEnv("recognition.provider", "APP_RECOGNITION_PROVIDER", "RECOGNITION_PROVIDER")
	_ = v.BindEnv("openrouter.api_key", "APP_OPENROUTER_API_KEY", "OPENROUTER_API_KEY")
	_ = v.BindEnv("openrouter.model", "APP_OPENROUTER_MODEL", "OPENROUTER_MODEL")
	_ = v.BindEnv("cache.enabled", "APP_CACHE_ENABLED", "CACHE_ENABLED")
	_ = v.BindEnv("rate_limit.enabled", "APP_RATE_LIMIT_ENABLED", "RATE_LIMIT_ENABLED")
	_ = v.BindEnv("rate_limit.requests", "APP_RATE_LIMIT_REQUESTS", "RATE_LIMIT_REQUESTS")
	_ = v.BindEnv("rate_limit.window", "APP_RATE_LIMIT_WINDOW", "RATE_LIMIT_WINDOW")
	_ = v.BindEnv("dedup_window", "APP_DEDUP_WINDOW", "DEDUP_WINDOW")

	// 解析設定
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.Store.Driver = strings.ToLower(strings.TrimSpace(config.Store.Driver))
	config.Recognition.Provider = strings.ToLower(strings.TrimSpace(config.Recognition.Provider))

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// MaskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "recipe-finder")

	// 伺服器設定
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.max_body_bytes", 10<<20) // 10MB

	// 日誌設定
	v.SetDefault("log.level", "info")
	v.SetDefault("log.dir", "logs")
	v.SetDefault("log.mode", "")

	// 目錄與儲存
	v.SetDefault("catalog.path", "")
	v.SetDefault("store.driver", StoreMemory)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "recipe-finder")
	v.SetDefault("badger.dir", "data/badger")
	v.SetDefault("badger.in_memory", false)
	v.SetDefault("badger.gc_interval", "10m")

	// 辨識設定
	v.SetDefault("recognition.provider", RecognitionMock)
	v.SetDefault("recognition.min_delay", "1s")
	v.SetDefault("recognition.max_delay", "3s")

	// OpenRouter 設定
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.model", "qwen/qwen2.5-vl-72b-instruct:free")
	v.SetDefault("openrouter.max_tokens", 500)
	v.SetDefault("openrouter.timeout", "30s")
	v.SetDefault("openrouter.failure_threshold", 3)
	v.SetDefault("openrouter.breaker_timeout", "60s")

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.cleanup_interval", "5m")

	// 隊列設定
	v.SetDefault("queue.workers", 4)
	v.SetDefault("queue.max_size", 32)

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	// 圖片設定
	v.SetDefault("image.max_size_bytes", 8<<20)

	v.SetDefault("dedup_window", "1s")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}
	if config.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("invalid max body bytes")
	}

	switch config.Store.Driver {
	case StoreMemory:
	case StoreRedis:
		if config.Redis.Addr == "" {
			return fmt.Errorf("redis address is required for redis store")
		}
	case StoreBadger:
		if config.Badger.Dir == "" && !config.Badger.InMemory {
			return fmt.Errorf("badger dir is required unless in_memory is set")
		}
	default:
		return fmt.Errorf("unknown store driver %q", config.Store.Driver)
	}

	switch config.Recognition.Provider {
	case RecognitionMock:
	case RecognitionOpenRouter:
		if config.OpenRouter.APIKey == "" {
			return fmt.Errorf("openrouter api key is required for openrouter recognition")
		}
	default:
		return fmt.Errorf("unknown recognition provider %q", config.Recognition.Provider)
	}
	if config.Recognition.MinDelay < 0 || config.Recognition.MaxDelay < config.Recognition.MinDelay {
		return fmt.Errorf("invalid recognition delay range")
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
	}

	// 驗證隊列設定
	if config.Queue.Workers <= 0 {
		return fmt.Errorf("invalid queue workers")
	}
	if config.Queue.MaxSize <= 0 {
		return fmt.Errorf("invalid queue max size")
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit")
	}

	return nil
}
