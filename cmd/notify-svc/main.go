package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"charityops/internal/common"
	"charityops/internal/dbmysql"
	"charityops/internal/di"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

func main() {
	// a missing .env file is fine; system environment still applies
	_ = godotenv.Load()

	app, err := di.InitializeApplication()
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}
	logger := app.Logger
	defer func() { _ = logger.Sync() }()

	if err := dbmysql.Migrate(app.DB); err != nil {
		logger.Fatalw("database migration failed", "error", err)
	}
	logger.Info("database migration completed")

	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	// the gateway authenticates on upgrade itself, so it sits outside the
	// REST auth middleware
	router.HandleFunc("/ws", app.Gateway.HandleWS)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(common.AuthMiddleware(app.Verifier))
	app.Handler.Register(api)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)

	server := &http.Server{
		Addr:         app.Config.Addr(),
		Handler:      cors(handlers.LoggingHandler(os.Stdout, router)),
		ReadTimeout:  time.Duration(app.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(app.Config.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Infow("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorw("graceful shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}
