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

	"binarymlm-go/config"
	"binarymlm-go/database"
	"binarymlm-go/handlers"
	"binarymlm-go/jobs"
	"binarymlm-go/members"
	"binarymlm-go/middleware"
	"binarymlm-go/recharge"
	"binarymlm-go/utils"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	config.ValidateConfig(cfg)

	if err := utils.InitializeJWT(cfg.JWTSecret); err != nil {
		log.Fatal("Failed to initialize JWT:", err)
	}

	db, err := database.Initialize(cfg.DatabaseURL, cfg.Environment)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	if err := database.EnsureReferenceData(db, cfg.RootUsername, cfg.SeedReferenceData); err != nil {
		log.Fatal("Failed to create reference data:", err)
	}

	scheduler, err := jobs.NewScheduler(db, cfg.DailyResetSchedule)
	if err != nil {
		log.Fatal("Failed to create scheduler:", err)
	}
	scheduler.Start()

	provider := recharge.NewHTTPProvider(cfg.RechargeAPIURL, cfg.RechargeAPIToken)
	services := handlers.NewServices(db, cfg, provider, members.LogNotifier{})
	h := handlers.NewHandlers(db, cfg, services)

	stop := make(chan struct{})
	limiter := middleware.NewRateLimiter(10, 50) // 10 requests per second, burst of 50
	limiter.StartCleanup(stop)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Router(limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		log.Printf("Environment: %s", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	close(stop)
	scheduler.Stop()
}
