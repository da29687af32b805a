// PaiChan 生产排产规划服务
// 主程序入口

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/paichan/paichan/internal/config"
	"github.com/paichan/paichan/internal/database"
	"github.com/paichan/paichan/internal/handler"
	"github.com/paichan/paichan/internal/metrics"
	"github.com/paichan/paichan/internal/repository"
	"github.com/paichan/paichan/pkg/logger"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// .env 缺失不算错误，环境变量直接注入同样有效
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: "console",
	})

	fmt.Printf("PaiChan 排产规划服务 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	// 数据库可选：连不上时降级为纯计算服务，持久化端点不可用
	var historyRepo repository.HistoryRepositoryInterface
	var planRepo repository.PlanRepositoryInterface
	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Warn().Err(err).Msg("数据库不可用，持久化功能已禁用")
	} else {
		defer db.Close()
		historyRepo = repository.NewHistoryRepository(db)
		planRepo = repository.NewPlanRepository(db)

		go reportDBStats(db)
	}

	profileHandler := handler.NewProfileHandler(historyRepo)
	planHandler := handler.NewPlanHandler(cfg, historyRepo, planRepo)
	reportHandler := handler.NewReportHandler(cfg)

	mux := http.NewServeMux()

	// ========================================
	// 系统端点
	// ========================================

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Health(ctx); err != nil {
				status = "degraded"
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"%s","service":"paichan"}`, status)
	})

	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s","build_time":"%s","git_commit":"%s"}`, Version, BuildTime, GitCommit)
	})

	// ========================================
	// API v1 端点
	// ========================================

	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"message": "PaiChan 排产规划 API v1",
			"endpoints": {
				"profile": {
					"build": "POST /api/v1/profile/build",
					"import": "POST /api/v1/profile/import"
				},
				"plan": {
					"validate": "POST /api/v1/plan/validate",
					"generate": "POST /api/v1/plan/generate",
					"smooth": "POST /api/v1/plan/smooth",
					"report": "POST /api/v1/plan/report",
					"latest": "GET /api/v1/plan/latest?start_date=YYYY-MM-DD"
				}
			}
		}`))
	})

	// 历史画像 API
	mux.HandleFunc("/api/v1/profile/build", profileHandler.Build)
	mux.HandleFunc("/api/v1/profile/import", profileHandler.Import)

	// 排产规划 API
	mux.HandleFunc("/api/v1/plan/validate", planHandler.Validate)
	mux.HandleFunc("/api/v1/plan/generate", planHandler.Generate)
	mux.HandleFunc("/api/v1/plan/smooth", planHandler.Smooth)
	mux.HandleFunc("/api/v1/plan/report", reportHandler.Report)
	mux.HandleFunc("/api/v1/plan/latest", planHandler.GetLatest)

	// ========================================
	// 监控端点
	// ========================================

	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	// ========================================
	// 中间件
	// ========================================

	// 中间件执行顺序：requestID -> rateLimit -> cors -> logging -> handler
	rateLimiter := NewRateLimiter(float64(cfg.API.RateLimit))
	root := requestIDMiddleware(rateLimitMiddleware(rateLimiter, corsMiddleware(loggingMiddleware(mux))))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      root,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info().
			Int("port", cfg.App.Port).
			Str("version", Version).
			Str("env", cfg.App.Env).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("服务器启动失败")
			os.Exit(1)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
		os.Exit(1)
	}

	logger.Info().Msg("服务器已关闭")
}

// reportDBStats 周期性上报数据库连接池指标
func reportDBStats(db *database.DB) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		stats := db.Stats()
		metrics.SetDBConnections(stats.OpenConnections, stats.Idle, stats.InUse)
	}
}

// requestIDMiddleware 请求ID追踪中间件
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestID)

		ctx := context.WithValue(r.Context(), "request_id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware 日志中间件
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID, _ := r.Context().Value("request_id").(string)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)

		logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.statusCode).
			Dur("duration", duration).
			Msg("请求处理")

		metrics.RecordRequest(r.Method, r.URL.Path, rw.statusCode, duration)
	})
}

// responseWriter 包装ResponseWriter以捕获状态码
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RateLimiter 简单的令牌桶限流器
type RateLimiter struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // 每秒添加的令牌数
	lastRefill time.Time
	mu         sync.Mutex
}

// NewRateLimiter 创建限流器
func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	return &RateLimiter{
		tokens:     requestsPerSecond,
		maxTokens:  requestsPerSecond * 2, // 允许突发流量
		refillRate: requestsPerSecond,
		lastRefill: time.Now(),
	}
}

// Allow 检查是否允许请求
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.tokens += elapsed * rl.refillRate
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
	rl.lastRefill = now

	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// rateLimitMiddleware 限流中间件
func rateLimitMiddleware(limiter *RateLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":   true,
				"code":    "RATE_LIMITED",
				"message": "请求过于频繁，请稍后重试",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware CORS中间件
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
