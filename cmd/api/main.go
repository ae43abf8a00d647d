package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"database/sql"

	"github.com/curtWhite/finance-game-server/internal/config"
	"github.com/curtWhite/finance-game-server/internal/handler"
	"github.com/curtWhite/finance-game-server/internal/integrations/rates"
	"github.com/curtWhite/finance-game-server/internal/jobs"
	"github.com/curtWhite/finance-game-server/internal/middleware"
	"github.com/curtWhite/finance-game-server/internal/notify"
	"github.com/curtWhite/finance-game-server/internal/repository"
	"github.com/curtWhite/finance-game-server/internal/service"
	"github.com/curtWhite/finance-game-server/internal/utils/email"
	"github.com/curtWhite/finance-game-server/internal/worker"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db, logger)
	if err := repo.EnsureSchema(); err != nil {
		logger.Fatalf("Failed to ensure schema: %v", err)
	}

	hub := notify.NewHub(logger)
	pool := worker.NewPool(cfg.WorkerCount, cfg.WorkerQueue, logger)
	rateClient := rates.NewClient(cfg.RatesURL, logger)
	mailer := email.NewSender(cfg, logger)
	svc := service.NewService(repo, logger, cfg, hub, pool, rateClient, mailer)
	h := handler.NewHandler(svc)

	scheduler, err := jobs.NewScheduler(svc, logger)
	if err != nil {
		logger.Fatalf("Failed to build job scheduler: %v", err)
	}
	scheduler.Start()

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	// Protected routes
	authRouter := r.PathPrefix("/api").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/player", h.GetPlayer).Methods("GET")
	authRouter.HandleFunc("/player", h.UpdatePlayer).Methods("PUT")
	authRouter.HandleFunc("/balancesheet/{username}", h.GetBalanceSheet).Methods("GET")
	authRouter.HandleFunc("/balancesheet/{username}/assets", h.AddAsset).Methods("POST")
	authRouter.HandleFunc("/balancesheet/{username}/assets", h.RemoveAsset).Methods("DELETE")
	authRouter.HandleFunc("/balancesheet/{username}/assets/update", h.UpdateAssets).Methods("POST")
	authRouter.HandleFunc("/balancesheet/{username}/liabilities", h.AddLiability).Methods("POST")
	authRouter.HandleFunc("/balancesheet/{username}/liabilities", h.RemoveLiability).Methods("DELETE")
	authRouter.HandleFunc("/balancesheet/{username}/liabilities/update", h.UpdateLiabilities).Methods("POST")
	authRouter.HandleFunc("/balancesheet/{username}/income", h.AddIncome).Methods("POST")
	authRouter.HandleFunc("/balancesheet/{username}/income", h.RemoveIncome).Methods("DELETE")
	authRouter.HandleFunc("/balancesheet/{username}/expenses", h.AddExpense).Methods("POST")
	authRouter.HandleFunc("/balancesheet/{username}/expenses", h.RemoveExpense).Methods("DELETE")
	authRouter.HandleFunc("/bank/{username}/deposit", h.Deposit).Methods("POST")
	authRouter.HandleFunc("/bank/{username}/withdraw", h.Withdraw).Methods("POST")
	authRouter.HandleFunc("/bank/{username}/make_payment", h.MakePayment).Methods("POST")
	authRouter.HandleFunc("/bank/{username}/loan", h.RequestLoan).Methods("POST")
	authRouter.HandleFunc("/lotto/{username}/buy", h.BuyLottoTicket).Methods("POST")
	// Notification socket; clients join the room named by their username.
	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		room := r.URL.Query().Get("username")
		if room == "" {
			http.Error(w, "username query parameter is required", http.StatusBadRequest)
			return
		}
		hub.ServeWS(w, r, room)
	}).Methods("GET")
	// Key rate endpoint
	r.HandleFunc("/key-rate", func(w http.ResponseWriter, r *http.Request) {
		rate, err := rateClient.LoanRate()
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to get key rate: %v", err), http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]float64{"key_rate": rate})
	}).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for shutdown signal, then drain the server, scheduler and pool.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	if err := scheduler.Stop(ctx); err != nil {
		logger.Errorf("Scheduler shutdown failed: %v", err)
	}
	if err := pool.Shutdown(ctx); err != nil {
		logger.Errorf("Worker pool shutdown failed: %v", err)
	}
}
