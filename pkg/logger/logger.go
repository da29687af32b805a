// Package logger 提供统一的日志框架
package logger

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

// Level 日志级别
type Level = zerolog.Level

const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
	FatalLevel = zerolog.FatalLevel
)

// Config 日志配置
type Config struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"` // json/console
	Output     string `yaml:"output" json:"output"` // stdout/stderr/file
	FilePath   string `yaml:"file_path,omitempty" json:"file_path,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty" json:"max_size_mb,omitempty"`   // 单文件上限
	MaxBackups int    `yaml:"max_backups,omitempty" json:"max_backups,omitempty"`   // 保留滚动文件数
	TimeFormat string `yaml:"time_format,omitempty" json:"time_format,omitempty"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		MaxSizeMB:  50,
		MaxBackups: 5,
		TimeFormat: time.RFC3339,
	}
}

// Init 初始化日志器
func Init(cfg Config) {
	once.Do(func() {
		level := parseLevel(cfg.Level)
		zerolog.SetGlobalLevel(level)

		var output io.Writer
		switch cfg.Output {
		case "stderr":
			output = os.Stderr
		case "file":
			if cfg.FilePath != "" {
				// 文件输出走 lumberjack 滚动，避免日志无限增长
				output = &lumberjack.Logger{
					Filename:   cfg.FilePath,
					MaxSize:    orDefault(cfg.MaxSizeMB, 50),
					MaxBackups: orDefault(cfg.MaxBackups, 5),
					Compress:   true,
				}
			} else {
				output = os.Stdout
			}
		default:
			output = os.Stdout
		}

		if cfg.Format == "console" {
			output = zerolog.ConsoleWriter{
				Out:        output,
				TimeFormat: cfg.TimeFormat,
			}
		}

		logger = zerolog.New(output).With().Timestamp().Logger()
	})
}

// orDefault 返回非零值
func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// parseLevel 解析日志级别
func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Get 获取日志器
func Get() *zerolog.Logger {
	if logger.GetLevel() == zerolog.Disabled {
		Init(DefaultConfig())
	}
	return &logger
}

// WithContext 从上下文创建日志器
func WithContext(ctx context.Context) *zerolog.Logger {
	l := Get().With().Logger()

	// 添加请求ID
	if reqID, ok := ctx.Value("request_id").(string); ok {
		l = l.With().Str("request_id", reqID).Logger()
	}

	return &l
}

// Debug 记录调试日志
func Debug() *zerolog.Event {
	return Get().Debug()
}

// Info 记录信息日志
func Info() *zerolog.Event {
	return Get().Info()
}

// Warn 记录警告日志
func Warn() *zerolog.Event {
	return Get().Warn()
}

// Error 记录错误日志
func Error() *zerolog.Event {
	return Get().Error()
}

// Fatal 记录致命错误日志
func Fatal() *zerolog.Event {
	return Get().Fatal()
}

// WithError 添加错误信息
func WithError(err error) *zerolog.Event {
	return Get().Error().Err(err)
}

// PlannerLogger 规划引擎专用日志器
type PlannerLogger struct {
	base *zerolog.Logger
}

// NewPlannerLogger 创建规划引擎日志器
func NewPlannerLogger() *PlannerLogger {
	l := Get().With().Str("component", "planner").Logger()
	return &PlannerLogger{base: &l}
}

// StartPlan 记录排产开始
func (l *PlannerLogger) StartPlan(horizon string, demands, lines int) {
	l.base.Info().
		Str("horizon", horizon).
		Int("demands", demands).
		Int("lines", lines).
		Msg("开始生成排产方案")
}

// PlanComplete 记录排产完成
func (l *PlannerLogger) PlanComplete(horizon string, entries int, duration time.Duration) {
	l.base.Info().
		Str("horizon", horizon).
		Int("entries", entries).
		Dur("duration", duration).
		Msg("排产方案生成完成")
}

// TransferApplied 记录工时转移
func (l *PlannerLogger) TransferApplied(iteration int, from, to, line string, hours float64) {
	l.base.Info().
		Int("iteration", iteration).
		Str("from", from).
		Str("to", to).
		Str("line", line).
		Float64("hours", hours).
		Msg("应用工时转移")
}

// CandidateRejected 记录候选转移被约束拒绝
func (l *PlannerLogger) CandidateRejected(from, to, line, reason string) {
	l.base.Debug().
		Str("from", from).
		Str("to", to).
		Str("line", line).
		Str("reason", reason).
		Msg("候选转移被拒绝")
}

// SmoothingDone 记录平滑结束
func (l *PlannerLogger) SmoothingDone(reason string, transfers int, initialVar, finalVar float64) {
	l.base.Info().
		Str("reason", reason).
		Int("transfers", transfers).
		Float64("initial_variance", initialVar).
		Float64("final_variance", finalVar).
		Msg("负载平滑完成")
}
