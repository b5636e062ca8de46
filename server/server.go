package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mashrabu/config"
	"mashrabu/core/playback"
	"mashrabu/db"
	"mashrabu/logger"
	"mashrabu/model"
	"mashrabu/repository"
	"mashrabu/storage"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Start initializes and starts the HTTP server.
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

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if err := db.Connect(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.Close()

	if err := db.AutoMigrate(&model.Edition{}, &model.Day{}, &model.Track{}); err != nil {
		logger.Fatal("Failed to migrate database schema", logger.ErrorField(err))
	}

	// Redis is optional. Without it the track listing cache is disabled and
	// every listing goes to the database.
	if err := db.ConnectRedis(cfg); err != nil {
		logger.Warn("Redis unavailable, listing cache disabled", logger.ErrorField(err))
	} else {
		defer db.CloseRedis()
	}

	store, err := storage.NewStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize media store", logger.ErrorField(err))
	}

	editionRepo := repository.NewEditionRepository(db.DB)
	dayRepo := repository.NewDayRepository(db.DB)
	trackRepo := repository.NewTrackRepository(db.DB)
	sessions := playback.NewManager()

	apiHandler := NewAPIHandler(cfg, editionRepo, dayRepo, trackRepo, store, sessions)

	router := mux.NewRouter()

	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Public catalogue endpoints
	router.HandleFunc("/api/editions", apiHandler.ListEditionsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/editions/{year}", apiHandler.GetEditionHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/days/{id}", apiHandler.GetDayHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/days/{id}/tracks", apiHandler.ListDayTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/days/{id}/view", apiHandler.DayViewHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/days/{id}/tracks/{trackId}/download", apiHandler.DownloadTrackHandler).Methods(http.MethodGet)

	// Admin authentication
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/logout", apiHandler.LogoutHandler).Methods(http.MethodPost)

	// Admin endpoints
	router.HandleFunc("/api/editions", apiHandler.AdminMiddleware(apiHandler.CreateEditionHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/editions/{year}", apiHandler.AdminMiddleware(apiHandler.DeleteEditionHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/days/{id}", apiHandler.AdminMiddleware(apiHandler.UpdateDayHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/upload", apiHandler.AdminMiddleware(apiHandler.PresignUploadHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/upload", apiHandler.AdminMiddleware(apiHandler.SaveUploadHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/upload/relay", apiHandler.AdminMiddleware(apiHandler.RelayUploadHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/tracks/{id}", apiHandler.AdminMiddleware(apiHandler.DeleteTrackHandler)).Methods(http.MethodDelete)

	// Playback sessions
	router.HandleFunc("/api/playback/sessions", apiHandler.CreateSessionHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/playback/sessions/{id}", apiHandler.DeleteSessionHandler).Methods(http.MethodDelete)
	router.HandleFunc("/api/playback/sessions/{id}/state", apiHandler.GetSessionStateHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/playback/sessions/{id}/toggle", apiHandler.ToggleHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/playback/sessions/{id}/stop", apiHandler.StopAllHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/playback/sessions/{id}/seek", apiHandler.SeekHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/playback/sessions/{id}/events", apiHandler.SessionEventHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/playback/sessions/{id}/stream", apiHandler.SessionStreamHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/playback/sessions/{id}/tracks/{trackId}/download", apiHandler.DownloadNameHandler).Methods(http.MethodGet)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	server.Handler = router

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.ListenAddr), logger.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", logger.ErrorField(err))
	}

	sessions.CloseAll()
	logger.Info("Server stopped")
}
