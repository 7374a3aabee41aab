package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Avito      AvitoConfig      `yaml:"avito"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Exports    ExportConfig     `yaml:"exports"`
	Worker     WorkerConfig     `yaml:"worker"`
	// Operators — chat ID операторов, получающих уведомления бота.
	Operators []int64 `yaml:"operators"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	Debug    bool   `yaml:"debug"`
}

type AvitoConfig struct {
	BaseURL     string `yaml:"base_url"`
	AccountID   int64  `yaml:"account_id"`
	AccessToken string `yaml:"access_token"`
	// CacheTTLSeconds TTL кеша ответов API в Redis; 0 — кеш выключен.
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type WorkerConfig struct {
	Enabled             bool `yaml:"enabled"`
	SyncIntervalMinutes int  `yaml:"sync_interval_minutes"`
	SyncWindowMonths    int  `yaml:"sync_window_months"`
}

func Load(configPath string) (*Config, error) {
	// .env необязателен: в контейнере переменные приходят из окружения
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	if config.Avito.BaseURL == "" {
		config.Avito.BaseURL = "https://api.avito.ru"
	}
	if config.Worker.SyncIntervalMinutes <= 0 {
		config.Worker.SyncIntervalMinutes = 15
	}
	if config.Worker.SyncWindowMonths <= 0 {
		config.Worker.SyncWindowMonths = 6
	}

	return &config, nil
}

// Validate проверяет обязательные поля перед запуском бота.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" || c.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		return fmt.Errorf("telegram.bot_token is not set")
	}
	if c.Avito.AccountID == 0 {
		return fmt.Errorf("avito.account_id is not set")
	}
	if len(c.Operators) == 0 {
		return fmt.Errorf("operators list is empty, notifications will fail")
	}
	return nil
}
