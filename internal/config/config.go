package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/jengzang/pathtrack-backend-go/internal/tracking"
	"github.com/joho/godotenv"
)

// Config 应用配置
type Config struct {
	Port            string
	DBPath          string
	JWTSecret       string
	ThresholdsFile  string        // 可选的阈值 YAML 文件
	RateLimit       int           // 每个用户每个窗口的最大请求数
	RateWindow      time.Duration
	ShutdownTimeout time.Duration // 停止会话、写出缓冲路径的最长时间
}

// Load 加载配置。先读取 .env（如果存在），已设置的环境变量优先。
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[Config] Failed to load .env: %v", err)
	}

	return &Config{
		Port:            getEnv("PORT", ":8080"),
		DBPath:          getEnv("DB_PATH", "./data/paths/paths.db"),
		JWTSecret:       getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		ThresholdsFile:  os.Getenv("THRESHOLDS_FILE"),
		RateLimit:       getEnvInt("RATE_LIMIT", 120),
		RateWindow:      getEnvDuration("RATE_WINDOW", time.Minute),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

// Thresholds 返回引擎阈值：默认值叠加 ThresholdsFile 中的覆盖项
func (c *Config) Thresholds() (tracking.Thresholds, error) {
	return tracking.LoadThresholds(c.ThresholdsFile)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		log.Printf("[Config] Invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("[Config] Invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return d
}
