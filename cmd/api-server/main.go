// Package main API Server 入口
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"transit-admin/internal/apiserver/auth"
	"transit-admin/internal/apiserver/server"
	"transit-admin/internal/config"
	"transit-admin/internal/shared/cache"
	cacheredis "transit-admin/internal/shared/cache/redis"
	"transit-admin/internal/shared/storage/mongostore"
	"transit-admin/pkg/logging"
)

func main() {
	// 加载配置（自动加载 .env，根据 APP_ENV 切换 YAML 配置）
	cfg := config.Load()

	logger := logging.Default("api-server")
	logger.Info("Starting API Server", "env", string(cfg.Env), "config", cfg.String())

	// 认证配置：签名密钥缺失视为致命错误
	authCfg := auth.DefaultConfig()
	authCfg.JWTSecret = cfg.JWTSecret
	authCfg.SecureCookies = cfg.IsProduction()
	if err := authCfg.Validate(); err != nil {
		log.Fatalf("Invalid auth config: %v", err)
	}

	// 初始化 MongoDB（持久化业务数据）
	store, err := mongostore.NewStore(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer store.Close()
	log.Println("Connected to MongoDB")

	// 初始化 Redis 车次缓存（可选，未配置时降级为空实现）
	var tripCache cache.TripCache = cache.NewNoOpTripCache()
	if cfg.RedisURL != "" {
		redisCache, err := cacheredis.NewStoreFromURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisCache.Close()
		tripCache = redisCache
	}

	// 启动时确保管理员账户存在
	if err := auth.EnsureAdminUser(store, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to ensure admin user: %v", err)
	}

	h := server.NewHandler(store, tripCache, authCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("API Server listening on :%s", cfg.APIPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server stopped")
}
