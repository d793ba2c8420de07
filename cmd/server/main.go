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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Louis-Gabriel-TM/stores-api/internal/claims"
	"github.com/Louis-Gabriel-TM/stores-api/internal/config"
	"github.com/Louis-Gabriel-TM/stores-api/internal/es"
	"github.com/Louis-Gabriel-TM/stores-api/internal/handlers"
	"github.com/Louis-Gabriel-TM/stores-api/internal/logging"
	authmw "github.com/Louis-Gabriel-TM/stores-api/internal/middleware/auth"
	loggingmw "github.com/Louis-Gabriel-TM/stores-api/internal/middleware/logging"
	"github.com/Louis-Gabriel-TM/stores-api/internal/mykafka"
	"github.com/Louis-Gabriel-TM/stores-api/internal/revocation"
	httpserver "github.com/Louis-Gabriel-TM/stores-api/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	registry := revocation.New(time.Minute)
	defer registry.Close()

	producer := mykafka.NewProducer(configuration.KAFKA_ADDRESS)

	var itemIndex *es.Index
	if configuration.ES_URL != "" {
		esClient, err := es.NewClient(configuration)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		itemIndex = &es.Index{Client: esClient, Name: "items"}
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	gate := &authmw.Gate{Secret: jwtSecret, Registry: registry}
	claimsProvider := &claims.RoleProvider{DB: db}

	deps := httpserver.Deps{
		AuthHandler: &handlers.AuthHandler{
			DB:            db,
			Claims:        claimsProvider,
			Registry:      registry,
			Producer:      producer,
			JWTSecret:     jwtSecret,
			RefreshSecret: refreshSecret,
			AccessTTL:     configuration.AccessTTL,
			RefreshTTL:    configuration.RefreshTTL,
		},
		ItemHandler:       &handlers.ItemHandler{DB: db, Producer: producer, Index: itemIndex},
		StoreHandler:      &handlers.StoreHandler{DB: db},
		UserHandler:       &handlers.UserHandler{DB: db},
		SearchHandler:     &handlers.SearchHandler{Index: itemIndex},
		Gate:              gate,
		ExposeDebugRoutes: configuration.ExposeDebugRoutes,
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + configuration.PORT,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if err := producer.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
