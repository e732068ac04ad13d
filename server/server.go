package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"echofm/config"
	"echofm/core/auth"
	"echofm/core/engagement"
	"echofm/core/search"
	"echofm/db"
	"echofm/logger"
	"echofm/repository"
	"echofm/storage"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogFile,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})

	pool, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer pool.Close()

	if err := db.MigrateSchema(cfg); err != nil {
		logger.Fatal("Failed to migrate database schema", logger.ErrorField(err))
	}

	// Redis only backs the trending cache. If it is down the ranker reads
	// straight from MySQL, so a failed connection is not fatal.
	redisClient, err := db.ConnectRedis(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, trending cache disabled", logger.ErrorField(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	assetStore, err := storage.NewMinioStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize MinIO", logger.ErrorField(err))
	}

	trackRepo := repository.NewMySQLTrackRepository(pool)
	userRepo := repository.NewMySQLUserRepository(pool)
	engagementRepo := repository.NewMySQLEngagementRepository(pool)
	favoriteRepo := repository.NewMySQLFavoriteRepository(pool)
	playlistRepo := repository.NewMySQLPlaylistRepository(pool)

	weights := config.TrendingWeights{
		Plays:     cfg.TrendingPlaysWeight,
		Downloads: cfg.TrendingDownloadsWeight,
	}
	ranker := engagement.NewTrendingRanker(trackRepo, redisClient, weights, cfg.TrendingCacheTTL)

	stopWatch, err := config.WatchTrendingWeights(".env", weights, ranker.SetWeights)
	if err != nil {
		logger.Warn("Trending weight hot-reload disabled", logger.ErrorField(err))
	} else {
		defer stopWatch()
	}

	engagementSvc := engagement.NewService(trackRepo, engagementRepo, favoriteRepo, playlistRepo, assetStore, ranker)
	searchSvc := search.NewService(trackRepo, playlistRepo)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret)

	apiHandler := NewAPIHandler(engagementSvc, searchSvc, trackRepo, userRepo, tokens)

	router := mux.NewRouter()
	router.Use(corsMiddleware)
	router.Use(requestIDMiddleware)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.HealthCheck(r.Context(), pool); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	// 认证
	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)

	// 曲目目录
	router.HandleFunc("/api/tracks", apiHandler.AuthMiddleware(apiHandler.CreateTrackHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/tracks", apiHandler.ListTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/trending", apiHandler.TrendingHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}", apiHandler.GetTrackHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}", apiHandler.AuthMiddleware(apiHandler.DeactivateTrackHandler)).Methods(http.MethodDelete)

	// 播放与下载
	router.HandleFunc("/api/tracks/{id}/play", apiHandler.OptionalAuthMiddleware(apiHandler.RecordPlayHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/tracks/{id}/download", apiHandler.AuthMiddleware(apiHandler.RecordDownloadHandler)).Methods(http.MethodPost)

	// 统计
	router.HandleFunc("/api/tracks/{id}/stats", apiHandler.TrackStatsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/users/me/stats", apiHandler.AuthMiddleware(apiHandler.UserStatsHandler)).Methods(http.MethodGet)

	// 收藏
	router.HandleFunc("/api/tracks/{id}/favorite", apiHandler.AuthMiddleware(apiHandler.FavoriteCheckHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}/favorite", apiHandler.AuthMiddleware(apiHandler.FavoriteToggleHandler)).Methods(http.MethodPost)

	// 搜索
	router.HandleFunc("/api/search", apiHandler.SearchHandler).Methods(http.MethodGet)

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server stopped")
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requestIDMiddleware tags every request with an id so log lines from one
// request can be correlated. An id supplied by an upstream proxy is kept.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}
