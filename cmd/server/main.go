package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/qs3c/med_image_server/config"
	"github.com/qs3c/med_image_server/internal/api"
	"github.com/qs3c/med_image_server/internal/api/handler"
	"github.com/qs3c/med_image_server/internal/database"
	"github.com/qs3c/med_image_server/internal/model/dto"
	"github.com/qs3c/med_image_server/internal/pkg/cron"
	"github.com/qs3c/med_image_server/internal/pkg/minio"
	"github.com/qs3c/med_image_server/internal/pkg/oss"
	"github.com/qs3c/med_image_server/internal/pkg/pubsub"
	"github.com/qs3c/med_image_server/internal/pkg/storage"
	"github.com/qs3c/med_image_server/internal/pkg/ws"
	"github.com/qs3c/med_image_server/internal/repository"
	"github.com/qs3c/med_image_server/internal/service"
	"github.com/qs3c/med_image_server/web"
)

const pageTitle = "医学图像分析系统"

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 初始化数据库
	db, err := database.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	defer database.Close(db)
	log.Printf("Database connected (%s)", database.Type(cfg.Database.URL))

	// 初始化 Redis（可选）
	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb, err = database.NewRedis(&cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect redis: %v", err)
		}
		defer rdb.Close()
		log.Println("Redis connected")
	}

	// 初始化上传目录和对象存储
	store, err := storage.NewLocalStore(cfg.Upload.Dir)
	if err != nil {
		log.Fatalf("Failed to prepare upload dir: %v", err)
	}
	mirror, err := newMirror(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to init storage mirror: %v", err)
	}

	// 初始化 WebSocket Hub
	wsHub := ws.NewHub()

	// 新记录事件：配置了 Redis 时经由 Redis 广播到所有实例
	var events service.EventPublisher = wsHub
	if rdb != nil {
		events = pubsub.NewPublisher(rdb, cfg.Redis.Channel)
		subscriber := pubsub.NewSubscriber(rdb, cfg.Redis.Channel)
		go func() {
			err := subscriber.Subscribe(ctx, func(event *dto.RecordEvent) {
				if err := wsHub.Publish(ctx, event); err != nil {
					log.Printf("Failed to broadcast record %d: %v", event.Record.ID, err)
				}
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("Record event subscriber stopped: %v", err)
			}
		}()
		log.Printf("Record events via redis channel %s", cfg.Redis.Channel)
	}

	// 初始化分析引擎
	analyzer, err := service.NewAnalyzer(&cfg.Analysis, nil, nil)
	if err != nil {
		log.Fatalf("Failed to init analyzer: %v", err)
	}
	log.Printf("Analysis engine: %s (model %s)", analyzer.Name(), analyzer.ModelVersion())

	// 初始化 Repository
	recordRepo := repository.NewRecordRepository(db)

	// 初始化 Service
	uploadService := service.NewUploadService(store, mirror, recordRepo, cfg, nil)
	analysisService := service.NewAnalysisService(recordRepo, uploadService, analyzer, events, nil)
	systemService := service.NewSystemService(recordRepo, analyzer, rdb, wsHub, cfg, nil)

	// 初始化 Handler
	pageHandler := handler.NewPageHandler(pageTitle)
	systemHandler := handler.NewSystemHandler(systemService)
	analysisHandler := handler.NewAnalysisHandler(analysisService)
	websocketHandler := handler.NewWebSocketHandler(wsHub)

	templates, err := web.Templates()
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}

	// 初始化 Router
	router := api.NewRouter(
		pageHandler,
		systemHandler,
		analysisHandler,
		websocketHandler,
		templates,
		cfg,
	)
	engine := router.Setup()

	// 孤儿文件清理
	cronService := cron.NewService(uploadService, cfg.Upload.OrphanExpireHours, cfg.Upload.CleanupIntervalMin)
	cronService.Start()
	defer cronService.Stop()

	// 启动服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}
	log.Println("Server exited")
}

// newMirror 按 storage.mirror 创建对象存储客户端，未配置时返回 nil
func newMirror(ctx context.Context, cfg *config.Config) (storage.Mirror, error) {
	switch cfg.Storage.Mirror {
	case "":
		return nil, nil
	case "oss":
		client, err := oss.NewClient(&cfg.OSS)
		if err != nil {
			return nil, err
		}
		log.Printf("Upload mirror: oss bucket %s", cfg.OSS.BucketName)
		return client, nil
	case "minio":
		client, err := minio.NewClient(ctx, &cfg.MinIO)
		if err != nil {
			return nil, err
		}
		log.Printf("Upload mirror: minio bucket %s", cfg.MinIO.Bucket)
		return client, nil
	default:
		return nil, fmt.Errorf("unknown storage mirror: %s", cfg.Storage.Mirror)
	}
}
