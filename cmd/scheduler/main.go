package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/finance-scheduler/internal/config"
	"github.com/Dan9191/finance-scheduler/internal/handler"
	"github.com/Dan9191/finance-scheduler/internal/integrations/cbr"
	"github.com/Dan9191/finance-scheduler/internal/jobs"
	"github.com/Dan9191/finance-scheduler/internal/repository"
	"github.com/Dan9191/finance-scheduler/internal/utils/email"
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
	repo := repository.NewRepository(db)
	cbrClient := cbr.NewCBRClient(cfg, logger)

	var mailer jobs.AlertMailer
	if cfg.AlertEmail != "" {
		mailer = email.NewSender(cfg, logger)
	}

	day := 24 * time.Hour
	materializer := jobs.NewMaterializer(repo, logger, cfg.MaterializerWorkers)
	rates := jobs.NewRateRefresher(cbrClient, repo, logger)
	budgets := jobs.NewBudgetAggregator(repo, mailer, logger, time.Duration(cfg.AlertTTLDays)*day)
	goals := jobs.NewGoalEstimator(repo, logger, cfg.GoalTrailingWindow)
	janitor := jobs.NewJanitor(repo, logger, time.Duration(cfg.RetentionDays)*day)
	orch := jobs.NewOrchestrator(repo, materializer, rates, budgets, goals, janitor, logger, cfg.JobTimeout)
	h := handler.NewHandler(orch, repo)

	// Schedule the daily batch
	c := cron.New()
	_, err = c.AddFunc(cfg.CronSpec, func() {
		orch.RunAllDailyJobs(context.Background(), time.Now().UTC(), false)
	})
	if err != nil {
		logger.Fatalf("Failed to schedule daily jobs: %v", err)
	}
	c.Start()
	defer c.Stop()

	// Setup router
	r := mux.NewRouter()
	r.HandleFunc("/jobs/run", h.RunAllJobs).Methods("POST")
	r.HandleFunc("/jobs/{name}/run", h.RunJob).Methods("POST")
	r.HandleFunc("/jobs/runs", h.ListJobRuns).Methods("GET")
	r.HandleFunc("/definitions/{id}", h.DeleteDefinition).Methods("DELETE")
	r.HandleFunc("/goals/{id}", h.DeleteGoal).Methods("DELETE")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.JobTimeout + 10*time.Second,
	}
	logger.Infof("Starting scheduler on %s (daily batch at %q)", addr, cfg.CronSpec)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
