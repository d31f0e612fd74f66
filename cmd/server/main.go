// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"plagia-detect-go/internal/config"
	"plagia-detect-go/internal/handler"
	"plagia-detect-go/internal/middleware"
	"plagia-detect-go/internal/model"
	"plagia-detect-go/internal/pipeline"
	"plagia-detect-go/internal/report"
	"plagia-detect-go/internal/repository"
	"plagia-detect-go/internal/service"
	"plagia-detect-go/pkg/database"
	"plagia-detect-go/pkg/embedding"
	"plagia-detect-go/pkg/es"
	"plagia-detect-go/pkg/kafka"
	"plagia-detect-go/pkg/llm"
	"plagia-detect-go/pkg/log"
	"plagia-detect-go/pkg/storage"
	"plagia-detect-go/pkg/tika"
	"plagia-detect-go/pkg/token"
	"plagia-detect-go/pkg/vision"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis、对象存储与 ES
	database.InitMySQL(cfg.Database.MySQL.DSN)
	if err := database.DB.AutoMigrate(&model.User{}, &model.ReferenceDocument{}, &model.ReferenceUnit{}); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	if err := es.InitES(cfg.Elasticsearch); err != nil {
		log.Errorf("es 初始化失败 %s", err)
		return
	}
	kafka.InitProducer(cfg.Kafka)

	// 4. 初始化 Repository
	userRepository := repository.NewUserRepository(database.DB)
	referenceRepo := repository.NewReferenceRepository(database.DB)

	// 5. 初始化外部服务客户端
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours)
	tikaClient := tika.NewClient(cfg.Tika)
	embeddingClient := embedding.NewClient(cfg.Embedding)
	visionClient := vision.NewClient(cfg.Vision)
	llmClient := llm.NewClient(cfg.LLM)
	summarizer := report.NewSummarizer(llmClient)

	// 6. 初始化 Service (依赖注入)
	userService := service.NewUserService(userRepository, jwtManager)
	referenceService := service.NewReferenceService(referenceRepo, cfg.MinIO, cfg.Elasticsearch)
	detectService := service.NewDetectService(
		tikaClient,
		embeddingClient,
		visionClient,
		summarizer,
		referenceRepo,
		database.RDB,
		cfg.MinIO,
		cfg.Detection,
	)
	reformulateService := service.NewReformulateService(llmClient)

	// 7. 初始化参考文献解析管道并启动后台 Kafka 消费者
	processor := pipeline.NewProcessor(
		tikaClient,
		embeddingClient,
		visionClient,
		cfg.Elasticsearch,
		cfg.MinIO,
		cfg.Embedding,
		referenceRepo,
	)
	go kafka.StartConsumer(cfg.Kafka, processor)

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	// 添加我们自定义的日志中间件和 Gin 的 Recovery 中间件
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 9. 注册路由
	r.GET("/health", handler.NewHealthHandler(referenceService).Health)

	apiV1 := r.Group("/api/v1")
	{
		// 检测与改写对外开放，无需认证
		apiV1.POST("/detect", handler.NewDetectHandler(detectService).Detect)
		apiV1.POST("/reformulate", handler.NewReformulateHandler(reformulateService).Reformulate)

		users := apiV1.Group("/users")
		{
			users.POST("/register", handler.NewUserHandler(userService).Register)
			users.POST("/login", handler.NewUserHandler(userService).Login)
		}

		// 语料库管理需要认证
		references := apiV1.Group("/references")
		references.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			references.POST("", handler.NewReferenceHandler(referenceService).Upload)
			references.GET("", handler.NewReferenceHandler(referenceService).List)
			references.GET("/search", handler.NewReferenceHandler(referenceService).Search)
			references.DELETE("/:fileMd5", handler.NewReferenceHandler(referenceService).Delete)
		}
	}

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	// Kafka 消费者是一个循环，会在进程退出时自然结束
	log.Info("服务已优雅关闭")
}
