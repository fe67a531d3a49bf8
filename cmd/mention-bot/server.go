package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/mention-monitor/mention-bot/internal/config"
	"github.com/mention-monitor/mention-bot/internal/monitoring"
	"github.com/mention-monitor/mention-bot/internal/report"
	"github.com/mention-monitor/mention-bot/internal/scheduler"
)

// watch runs the scheduler and the HTTP surface until ctx is cancelled
func watch(ctx context.Context, cfg *config.Config, service *monitoring.Service, save bool) error {
	runOpts := monitoring.RunOptions{Hours: cfg.CheckInterval, Save: save}

	schedulerService := scheduler.NewService(scheduler.Config{
		Schedule: cfg.CheckSchedule,
		Location: cfg.Location(),
		Hours:    runOpts.Hours,
		Save:     runOpts.Save,
	}, service)

	if err := schedulerService.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer schedulerService.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      newRouter(ctx, service, runOpts),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
	return nil
}

// runner is the part of the monitoring service the HTTP handlers use
type runner interface {
	RunOnce(ctx context.Context, opts monitoring.RunOptions) (*monitoring.RunResult, error)
	GetMetrics() string
	Exports() ([]string, error)
	ReadExport(name string) ([]byte, error)
}

func newRouter(ctx context.Context, service runner, runOpts monitoring.RunOptions) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", healthCheckHandler).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/status", statusHandler(service)).Methods(http.MethodGet)
	router.HandleFunc("/trigger", triggerHandler(ctx, service, runOpts)).Methods(http.MethodPost)
	router.HandleFunc("/exports", exportsHandler(service)).Methods(http.MethodGet)
	router.HandleFunc("/exports/{name}", exportFileHandler(service)).Methods(http.MethodGet)

	return router
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.Errorf("Failed to write response: %v", err)
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func statusHandler(service runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(service.GetMetrics()))
	}
}

func triggerHandler(ctx context.Context, service runner, runOpts monitoring.RunOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		go func() {
			_, err := service.RunOnce(ctx, runOpts)
			if err != nil {
				logrus.Errorf("Manual monitoring trigger failed: %v", err)
			}
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{"message": "Monitoring triggered successfully"})
	}
}

func exportsHandler(service runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		files, err := service.Exports()
		if err != nil {
			logrus.Errorf("Failed to list exports: %v", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
			return
		}
		if files == nil {
			files = []string{}
		}

		writeJSON(w, http.StatusOK, map[string][]string{"files": files})
	}
}

func exportFileHandler(service runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		if !report.IsExportName(name) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "not an export file"})
			return
		}

		data, err := service.ReadExport(name)
		if err != nil {
			logrus.Warnf("Failed to read export %s: %v", name, err)
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "export not found"})
			return
		}

		contentType := "application/json"
		if path.Ext(name) == ".csv" {
			contentType = "text/csv"
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}
