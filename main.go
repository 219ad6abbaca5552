package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"splitquiz/config"
	"splitquiz/handlers"
	"splitquiz/models"
	"splitquiz/routes"
	"splitquiz/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database models
	err = db.AutoMigrate(
		&models.User{},
		&models.Prompt{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize Redis
	redisClient := config.InitRedis(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize services
	metrics := services.NewMetrics()
	promptService := services.NewPromptService(db)
	playerService := services.NewPlayerService(db, redisClient, cfg.IdentityCacheTTL)
	stateStore := services.NewRoomStateStore(redisClient, cfg.RoomStateTTL, metrics)
	go stateStore.Run(ctx)

	registry := services.NewRegistry()
	bus := services.NewEventBus()

	roomManager := services.NewRoomManager(registry, promptService, playerService, roomConfig(cfg.Room))
	roomManager.SetMetrics(metrics)
	roomManager.AddObserver(services.NewLogObserver)
	roomManager.AddObserver(stateStore.ForRoom)
	detach := roomManager.Attach(bus)
	defer detach()

	connections := services.NewConnectionManager(registry, bus, metrics)
	connections.SetDebug(cfg.Debug)

	// Initialize handlers
	roomHandler := handlers.NewRoomHandler(roomManager, stateStore, cfg.PublicURL)
	promptHandler := handlers.NewPromptHandler(promptService)
	systemHandler := handlers.NewSystemHandler(connections, roomManager, metrics)

	// Setup Gin router
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	routes.SetupRoutes(router, roomHandler, promptHandler, systemHandler, connections)

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	roomManager.Shutdown()
}

func roomConfig(s config.RoomSettings) services.RoomConfig {
	return services.RoomConfig{
		MinPlayers:            s.MinPlayers,
		MaxRounds:             s.MaxRounds,
		AutoStart:             s.AutoStart,
		CountdownDuration:     s.Countdown,
		IntroDuration:         s.Intro,
		RoundDuration:         s.Round,
		RevealDuration:        s.Reveal,
		OutroDuration:         s.Outro,
		ContentTimeout:        s.ContentTimeout,
		RemainingTimeInterval: s.RemainingTimeInterval,
	}
}
