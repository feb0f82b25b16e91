package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tekdash_v1_202608/internal/controller"
	"tekdash_v1_202608/internal/metrics"
	"tekdash_v1_202608/internal/model"
	"tekdash_v1_202608/internal/repository"
	"tekdash_v1_202608/internal/router"
	"tekdash_v1_202608/internal/service"
	"tekdash_v1_202608/internal/task"
	"tekdash_v1_202608/pkg/database"
	"tekdash_v1_202608/pkg/tekmetric"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// 本地开发从 .env 读取配置，线上直接用环境变量
	_ = godotenv.Load()

	// 1. 初始化数据库
	db := initDatabase()

	// 2. 初始化依赖
	deps := initDependencies(db)

	// 3. 启动定时任务
	initTasks(deps)

	// 4. 初始化路由
	r := router.SetupRouter(deps.Controllers)

	// 5. 启动服务
	startServer(r, deps)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	Controllers *router.Controllers
	SyncTask    *task.SyncTask
	Maintenance *task.MaintenanceTask
}

// Repositories 仓库集合
type Repositories struct {
	Token      repository.TokenRepository
	AgingWip   repository.AgingWipRepository
	Historical repository.HistoricalRepository
	SyncLog    repository.SyncLogRepository
	Cache      repository.CacheRepository
}

// Services 服务集合
type Services struct {
	Token        *service.TokenService
	Aging        *service.AgingService
	Historical   *service.HistoricalService
	Orchestrator *service.OrchestratorService
}

// ==================== 初始化 ====================

// initDatabase 连接数据库并迁移表结构
func initDatabase() *gorm.DB {
	dsn := getEnv("DATABASE_DSN",
		"host=localhost user=tekdash password=tekdash dbname=tekdash port=5432 sslmode=disable")

	return database.InitDB(dsn,
		&model.TekmetricToken{},
		&model.TokenAuditLog{},
		&model.AgingWip{},
		&model.HistoricalPerformance{},
		&model.SyncLog{},
		&model.ApiCache{},
	)
}

// initDependencies 组装仓库/服务/控制器
func initDependencies(db *gorm.DB) *Dependencies {
	m := metrics.Registry(getEnv("METRICS_NAMESPACE", "tekdash"))

	client := tekmetric.NewClient(
		getEnv("TEKMETRIC_BASE_URL", tekmetric.DefaultBaseURL),
		mustEnv("TEKMETRIC_CLIENT_ID"),
		mustEnv("TEKMETRIC_CLIENT_SECRET"),
	)

	repos := &Repositories{
		Token:      repository.NewTokenRepository(db),
		AgingWip:   repository.NewAgingWipRepository(db),
		Historical: repository.NewHistoricalRepository(db),
		SyncLog:    repository.NewSyncLogRepository(db),
		Cache:      repository.NewCacheRepository(db),
	}

	tokenSvc := service.NewTokenService(repos.Token, client, m)
	agingSvc := service.NewAgingService(client, tokenSvc, repos.AgingWip, repos.Cache, m)
	historicalSvc := service.NewHistoricalService(client, tokenSvc, repos.Historical, repos.Cache, m, nil)
	orchestrator := service.NewOrchestratorService(repos.SyncLog, historicalSvc, agingSvc, m)

	services := &Services{
		Token:        tokenSvc,
		Aging:        agingSvc,
		Historical:   historicalSvc,
		Orchestrator: orchestrator,
	}

	controllers := &router.Controllers{
		Sync: controller.NewSyncController(agingSvc, historicalSvc, orchestrator),
		Dashboard: controller.NewDashboardController(
			repos.AgingWip, repos.Historical, repos.SyncLog, repos.Token, repos.Cache),
	}

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Services:    services,
		Controllers: controllers,
	}
}

// ==================== 定时任务 ====================

// initTasks 初始化定时任务
func initTasks(deps *Dependencies) {
	// 缓存与审计日志的后台清理
	deps.Maintenance = task.NewMaintenanceTask(deps.Repos.Cache, deps.Repos.Token)
	deps.Maintenance.Start()

	if getEnv("SYNC_SCHEDULE_ENABLED", "true") != "true" {
		log.Println("定时同步已禁用 (SYNC_SCHEDULE_ENABLED != true)")
		return
	}

	deps.SyncTask = task.NewSyncTask(deps.Services.Orchestrator)
	deps.SyncTask.Start()
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(r *gin.Engine, deps *Dependencies) {
	port := getEnv("SERVER_PORT", "8080")

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Printf("服务启动在 :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	if deps.SyncTask != nil {
		deps.SyncTask.Stop()
	}
	if deps.Maintenance != nil {
		deps.Maintenance.Stop()
	}

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务强制关闭: %v", err)
	}

	log.Println("服务已退出")
}

// ==================== 工具函数 ====================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("缺少必需的环境变量: %s", key)
	}
	return value
}
