package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"massiliafm/cache"
	"massiliafm/config"
	"massiliafm/core/auth"
	"massiliafm/core/session"
	"massiliafm/db"
	"massiliafm/logger"
	"massiliafm/model"
	"massiliafm/repository"
	"massiliafm/storage"
)

// Start brings the whole station up: storage, databases, the player
// hub and the HTTP API. Blocks until SIGINT/SIGTERM, then shuts down
// gracefully.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	if err := storage.InitMinio(cfg); err != nil {
		logger.Fatal("failed to initialize MinIO", logger.ErrorField(err))
	}

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("failed to connect to database", logger.ErrorField(err))
	}
	defer db.DB.Close()

	if err := db.InitDB(); err != nil {
		logger.Fatal("failed to initialize database schema", logger.ErrorField(err))
	}

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("failed to connect gorm", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := db.AutoMigrateModels(&model.PlayEvent{}); err != nil {
		logger.Fatal("failed to migrate models", logger.ErrorField(err))
	}

	if err := db.ConnectRedis(cfg); err != nil {
		logger.Fatal("failed to connect to Redis", logger.ErrorField(err))
	}
	defer db.CloseRedis()

	trackRepo := repository.NewMySQLTrackRepository()
	userRepo := repository.NewMySQLUserRepository(db.DB)
	playEvents := repository.NewGormPlayEventRepository(db.GormDB)
	sessionCache := cache.NewSessionCache(db.RedisClient)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)

	hub := session.NewHub(sessionCache, playEvents)
	go hub.Run()
	defer hub.Stop()

	apiHandler := NewAPIHandler(trackRepo, userRepo, playEvents, sessionCache, hub, tokens, cfg)

	// Reloads of .env take effect on the next config read; long-lived
	// collaborators keep the config they started with.
	watcher, err := config.NewWatcher(cfg, func(next *config.Config) {
		logger.Info("configuration reloaded", logger.String("addr", next.ServerAddr))
	})
	if err != nil {
		logger.Warn("config watcher unavailable", logger.ErrorField(err))
	} else {
		defer watcher.Close()
	}

	router := mux.NewRouter()
	router.Use(corsMiddleware)

	// Public catalog.
	router.HandleFunc("/api/tracks/public", apiHandler.PublicTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/radios", apiHandler.RadiosHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/genres", apiHandler.GenresHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/sessions/{id}/history", apiHandler.SessionHistoryHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/sessions/{id}", apiHandler.SessionDropHandler).Methods(http.MethodDelete)

	// DJ console.
	router.HandleFunc("/api/dj/login", apiHandler.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/dj/tracks", apiHandler.AuthMiddleware(apiHandler.GetDJTracksHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/dj/tracks", apiHandler.AuthMiddleware(apiHandler.CreateTrackHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/dj/tracks/{id}", apiHandler.AuthMiddleware(apiHandler.UpdateTrackHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/dj/tracks/{id}", apiHandler.AuthMiddleware(apiHandler.DeleteTrackHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/dj/tracks/{id}/publish",
		apiHandler.AuthMiddleware(apiHandler.RequireAdmin(apiHandler.TogglePublishHandler))).Methods(http.MethodPost)

	// Uploads.
	router.HandleFunc("/api/uploads/signed-url", apiHandler.AuthMiddleware(apiHandler.SignedURLHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/upload", apiHandler.AuthMiddleware(apiHandler.UploadTrackHandler)).Methods(http.MethodPost)

	// Player sessions.
	router.HandleFunc("/ws/player", apiHandler.PlayerWSHandler).Methods(http.MethodGet)

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
		logger.Info("server starting", logger.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", logger.ErrorField(err))
	}
}

// corsMiddleware opens the API to browser frontends on other origins.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
