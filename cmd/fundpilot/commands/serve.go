package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fundpilot/internal/api"
	"github.com/wonny/fundpilot/internal/api/handlers"
	"github.com/wonny/fundpilot/internal/report"
	"github.com/wonny/fundpilot/internal/scheduler"
	"github.com/wonny/fundpilot/internal/scheduler/jobs"
)

// serveCmd runs the API server plus the decision scheduler
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "API 서버 + 스케줄러 시작",
	Long: `Starts the HTTP API and schedules the daily decision run.

Endpoints:
  GET  /health                 - Health check
  GET  /api/decisions/latest   - Latest batch
  GET  /api/decisions/{code}   - One instrument's result
  GET  /api/profiles           - Active strategy profiles + hash
  GET  /api/jobs               - Scheduler statistics
  POST /api/run                - Trigger a run out of schedule
  WS   /ws/decisions           - Batch push stream

Example:
  go run ./cmd/fundpilot serve
  go run ./cmd/fundpilot serve --port 8089`,
	RunE: runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API server port (overrides PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(false)
	if err != nil {
		return err
	}
	defer a.close()

	if servePort != "" {
		a.cfg.Port = servePort
	}

	// Reporting: in-memory store for the REST surface, hub for the
	// websocket stream
	store := report.NewStore()
	hub := api.NewHub(a.log)
	reporter := report.Multi{store, hub}

	job := jobs.NewDecisionJob(a.engine, a.cfg.Funds, a.cfg.Engine, a.cfg.Schedule.DecisionCron, reporter, a.log)

	loc, err := time.LoadLocation(a.cfg.Schedule.Timezone)
	if err != nil {
		return fmt.Errorf("bad TIMEZONE %q: %w", a.cfg.Schedule.Timezone, err)
	}

	sched := scheduler.New(a.log, loc)
	if err := sched.AddJob(job); err != nil {
		return fmt.Errorf("schedule decision job: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	decisions := handlers.NewDecisionHandler(
		store,
		a.profiles,
		a.profilesHash,
		job.TriggerAsync,
		func() interface{} { return sched.GetJobStats() },
		a.log,
	)

	server := api.New(a.cfg, a.log, api.NewRouter(decisions, hub, a.log))

	go func() {
		if err := server.Start(); err != nil {
			a.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ FundPilot serving on http://localhost:%s (%d funds, cron %q %s)\n",
		a.cfg.Port, len(a.cfg.Funds), a.cfg.Schedule.DecisionCron, a.cfg.Schedule.Timezone)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}
