// Package config 提供配置管理
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/paichan/paichan/pkg/model"
)

// Config 应用配置
type Config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	API      APIConfig      `yaml:"api"`
	Planner  PlannerConfig  `yaml:"planner"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name     string `yaml:"name"`
	Env      string `yaml:"env"`
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN 返回数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// APIConfig API配置
type APIConfig struct {
	RateLimit int           `yaml:"rate_limit"`
	Timeout   time.Duration `yaml:"timeout"`
	CORS      CORSConfig    `yaml:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	Enabled bool     `yaml:"enabled"`
	Origins []string `yaml:"origins"`
}

// PlannerConfig 规划引擎配置
type PlannerConfig struct {
	MaxHoursPerLineDay         float64  `yaml:"max_hours_per_line_day"`
	MinIdleLinesPerDay         int      `yaml:"min_idle_lines_per_day"`
	MaxPersonnelIntensiveLines int      `yaml:"max_personnel_intensive_lines"`
	AvailableLines             []string `yaml:"available_lines"`
	PersonnelIntensiveTerms    []string `yaml:"personnel_intensive_terms"`
	PeakThreshold              float64  `yaml:"peak_threshold"`
	MinTransferHours           float64  `yaml:"min_transfer_hours"`
	MaxTransferHours           float64  `yaml:"max_transfer_hours"`
	MaxTransferFraction        float64  `yaml:"max_transfer_fraction"`
	MaxIterations              int      `yaml:"max_iterations"`
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	defaults := model.DefaultConstraintConfig()

	cfg := &Config{
		App: AppConfig{
			Name:     getEnv("APP_NAME", "paichan"),
			Env:      getEnv("APP_ENV", "development"),
			Port:     getEnvInt("APP_PORT", 7031),
			LogLevel: getEnv("APP_LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "paichan"),
			User:            getEnv("DB_USER", "paichan"),
			Password:        getEnv("DB_PASSWORD", "paichan123"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		API: APIConfig{
			RateLimit: getEnvInt("API_RATE_LIMIT", 100),
			Timeout:   getEnvDuration("API_TIMEOUT", 30*time.Second),
			CORS: CORSConfig{
				Enabled: getEnvBool("API_CORS_ENABLED", true),
				Origins: []string{"*"},
			},
		},
		Planner: PlannerConfig{
			MaxHoursPerLineDay:         getEnvFloat("PLANNER_MAX_HOURS_PER_LINE_DAY", defaults.MaxHoursPerLineDay),
			MinIdleLinesPerDay:         getEnvInt("PLANNER_MIN_IDLE_LINES", defaults.MinIdleLinesPerDay),
			MaxPersonnelIntensiveLines: getEnvInt("PLANNER_MAX_PERSONNEL_LINES", defaults.MaxPersonnelIntensiveLines),
			AvailableLines:             getEnvList("PLANNER_AVAILABLE_LINES", defaults.AvailableLines),
			PersonnelIntensiveTerms:    getEnvList("PLANNER_PERSONNEL_TERMS", defaults.PersonnelIntensiveTerms),
			PeakThreshold:              getEnvFloat("PLANNER_PEAK_THRESHOLD", defaults.PeakThreshold),
			MinTransferHours:           getEnvFloat("PLANNER_MIN_TRANSFER_HOURS", defaults.MinTransferHours),
			MaxTransferHours:           getEnvFloat("PLANNER_MAX_TRANSFER_HOURS", defaults.MaxTransferHours),
			MaxTransferFraction:        getEnvFloat("PLANNER_MAX_TRANSFER_FRACTION", defaults.MaxTransferFraction),
			MaxIterations:              getEnvInt("PLANNER_MAX_ITERATIONS", 10),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
	}

	return cfg, nil
}

// Constraints 把规划配置转换为约束配置
func (c *Config) Constraints() *model.ConstraintConfig {
	cfg := model.DefaultConstraintConfig()
	cfg.MaxHoursPerLineDay = c.Planner.MaxHoursPerLineDay
	cfg.MinIdleLinesPerDay = c.Planner.MinIdleLinesPerDay
	cfg.MaxPersonnelIntensiveLines = c.Planner.MaxPersonnelIntensiveLines
	cfg.AvailableLines = c.Planner.AvailableLines
	cfg.PersonnelIntensiveTerms = c.Planner.PersonnelIntensiveTerms
	cfg.PeakThreshold = c.Planner.PeakThreshold
	cfg.MinTransferHours = c.Planner.MinTransferHours
	cfg.MaxTransferHours = c.Planner.MaxTransferHours
	cfg.MaxTransferFraction = c.Planner.MaxTransferFraction
	return cfg.Normalize()
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// IsTest 检查是否为测试环境
func (c *Config) IsTest() bool {
	return c.App.Env == "test"
}

// 辅助函数
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		list := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				list = append(list, trimmed)
			}
		}
		if len(list) > 0 {
			return list
		}
	}
	return defaultValue
}
