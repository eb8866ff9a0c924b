package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/rentscore/rent-service/internal/config"
	"github.com/rentscore/rent-service/internal/handler"
	"github.com/rentscore/rent-service/internal/integrations/cbr"
	"github.com/rentscore/rent-service/internal/metrics"
	"github.com/rentscore/rent-service/internal/middleware"
	"github.com/rentscore/rent-service/internal/repository"
	"github.com/rentscore/rent-service/internal/scheduler"
	"github.com/rentscore/rent-service/internal/service"
	"github.com/rentscore/rent-service/internal/utils/email"
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

	// Initialize storage
	var store repository.Store
	if cfg.StoreDriver == "memory" {
		store = repository.NewMemory()
		logger.Warn("Using in-memory store; state is lost on restart")
	} else {
		db, err := sql.Open("postgres", cfg.DBConn)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("Failed to ping database: %v", err)
		}
		if err := repository.Migrate(db); err != nil {
			logger.Fatalf("Failed to migrate database: %v", err)
		}
		store = repository.NewPostgres(db)
	}

	// Initialize layers
	m := metrics.New(prometheus.DefaultRegisterer)
	sender := email.NewSender(cfg, logger)
	cbrClient := cbr.NewCBRClient(cfg, logger)
	svc := service.NewService(store, sender, cbrClient, m, cfg, logger)
	h := handler.NewHandler(svc, logger)

	// Periodic jobs: missed-payment sweep and due-date reminders
	sched, err := scheduler.New(svc, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to set up scheduler: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/accounts", h.CreateAccount).Methods("POST")
	authRouter.HandleFunc("/accounts/me", h.GetAccount).Methods("GET")
	authRouter.HandleFunc("/accounts/deposit", h.Deposit).Methods("POST")
	authRouter.HandleFunc("/leases", h.CreateLease).Methods("POST")
	authRouter.HandleFunc("/leases", h.ListLeases).Methods("GET")
	authRouter.HandleFunc("/leases/{id}/payments", h.PayRent).Methods("POST")
	authRouter.HandleFunc("/leases/{id}/payments", h.GetPayments).Methods("GET")
	authRouter.HandleFunc("/leases/{id}/score", h.GetScore).Methods("GET")
	authRouter.HandleFunc("/leases/{id}/landlord", h.ReassignLandlord).Methods("PUT")
	authRouter.HandleFunc("/leases/{id}/arrears", h.GetArrears).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
