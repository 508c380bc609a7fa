package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hazglobal/hazmatgo/internal/config"
	"github.com/hazglobal/hazmatgo/internal/database"
	"github.com/hazglobal/hazmatgo/internal/geo"
	"github.com/hazglobal/hazmatgo/internal/handlers"
	"github.com/hazglobal/hazmatgo/internal/services/booking"
	"github.com/hazglobal/hazmatgo/internal/services/mailer"
	"github.com/hazglobal/hazmatgo/internal/services/notify"
	"github.com/hazglobal/hazmatgo/internal/services/pod"
	"github.com/hazglobal/hazmatgo/internal/services/scan"
	"github.com/hazglobal/hazmatgo/internal/store"
	"github.com/hazglobal/hazmatgo/internal/websocket"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize database (embedded vs external detected automatically)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// Note: db.Close() is called manually in the shutdown handler below

	// 3. Synchronize schema and seed the place catalog
	log.Println("🚀 Synchronizing database schema...")
	shipmentStore := store.NewPostgresStore(db)
	if err := shipmentStore.Migrate(); err != nil {
		log.Printf("⚠️ Migration warning: %v\n", err)
	} else {
		log.Println("✅ Schema synchronized successfully")
	}

	// 4. Documents (waybills + PODs)
	pods, err := pod.NewGenerator(cfg.DocumentsDir)
	if err != nil {
		log.Fatalf("Failed to prepare documents directory: %v", err)
	}

	// 5. Mail gateway. Missing credentials degrade to log-only mode so local
	// development never needs a mailbox.
	var gateway notify.Gateway
	if gw, err := mailer.NewGmailGateway(context.Background(), cfg.Mail); err != nil {
		log.Printf("⚠️ Mail: running without gateway: %v", err)
	} else {
		gateway = gw
		log.Println("✅ Mail: Gmail gateway ready")
	}

	notifier := notify.NewService(shipmentStore, gateway, cfg.Mail.FromAddress, cfg.Mail.SendTimeout)
	notifier.Start()

	// 6. Driver job-alert socket hub
	hub := websocket.NewHub()
	go hub.Run()

	// 7. Domain services
	resolver := geo.NewResolver(shipmentStore, cfg.Geocoder)
	scans := scan.NewService(shipmentStore, pods, notifier)
	bookings := booking.NewService(shipmentStore, resolver, pods, notifier, hub)

	// 8. HTTP router
	router := handlers.NewRouter(handlers.Deps{
		Cfg:      cfg,
		DB:       db,
		Store:    shipmentStore,
		Bookings: bookings,
		Scans:    scans,
		Pods:     pods,
		Resolver: resolver,
		Hub:      hub,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// 9. Start server with graceful shutdown
	go func() {
		log.Printf("🌍 Hazmat dispatch server listening on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ Server shutdown: %v", err)
	}

	notifier.Stop()

	if err := db.Close(); err != nil {
		log.Printf("⚠️ Database shutdown: %v", err)
	}

	log.Println("✅ Server stopped")
}
