// Package ingest runs the day-level pipeline: fetch telemetry, impute
// flight IDs, reconstruct flights, persist the result.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skyward-data/flighttrace/internal/config"
	"github.com/skyward-data/flighttrace/internal/flight"
	"github.com/skyward-data/flighttrace/internal/imputation"
	"github.com/skyward-data/flighttrace/internal/storage/sqlite"
	"github.com/skyward-data/flighttrace/internal/telemetry"
	"github.com/skyward-data/flighttrace/internal/websocket"
	"github.com/skyward-data/flighttrace/pkg/logger"
)

// ErrRunInProgress indicates a concurrent ingest run was rejected
var ErrRunInProgress = errors.New("an ingest run is already in progress")

// RunResult summarizes one completed ingest run
type RunResult struct {
	RunID       string           `json:"run_id"`
	Day         string           `json:"day"`
	Stats       imputation.Stats `json:"stats"`
	FlightCount int              `json:"flight_count"`
	StartedAt   time.Time        `json:"started_at"`
	Duration    time.Duration    `json:"duration"`
}

// Status describes the service's current state for the API
type Status struct {
	Running   bool       `json:"running"`
	LastRun   *RunResult `json:"last_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

// Service orchestrates ingest runs and the optional auto-ingest loop
type Service struct {
	client   *telemetry.Client
	storage  *sqlite.WaypointStorage
	wsServer *websocket.Server
	cfg      *config.Config
	impCfg   imputation.Config
	logger   *logger.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool

	running bool
	lastRun *RunResult
	lastErr error
}

// NewService creates a new ingest service
func NewService(
	client *telemetry.Client,
	storage *sqlite.WaypointStorage,
	wsServer *websocket.Server,
	cfg *config.Config,
	log *logger.Logger,
) *Service {
	return &Service{
		client:   client,
		storage:  storage,
		wsServer: wsServer,
		cfg:      cfg,
		impCfg: imputation.Config{
			TimeThreshold:     cfg.Imputation.TimeThreshold(),
			MidnightThreshold: cfg.Imputation.MidnightThreshold(),
			GroupGap:          cfg.Imputation.GroupGap(),
		},
		logger: log.Named("ingest"),
	}
}

// Start begins the auto-ingest loop if enabled. Safe to call when
// auto-ingest is off; the service then only serves on-demand runs.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("ingest service already started")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.started = true

	if !s.cfg.Ingest.AutoIngest {
		s.logger.Info("Auto-ingest disabled, serving on-demand runs only")
		return nil
	}

	interval := time.Duration(s.cfg.Ingest.IntervalMinutes) * time.Minute
	s.logger.Info("Starting auto-ingest loop", logger.Duration("interval", interval))

	s.wg.Add(1)
	go s.autoIngestLoop(interval)
	return nil
}

// Stop halts the auto-ingest loop and waits for it to finish
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Ingest service stopped")
	return nil
}

// Status returns a snapshot of the service state
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{Running: s.running}
	if s.lastRun != nil {
		run := *s.lastRun
		st.LastRun = &run
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

func (s *Service) autoIngestLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.ingestPreviousDay()
		}
	}
}

// ingestPreviousDay ingests the previous UTC day unless it has already
// been ingested
func (s *Service) ingestPreviousDay() {
	day := time.Now().UTC().AddDate(0, 0, -1).Truncate(24 * time.Hour)
	dayStr := day.Format("2006-01-02")

	n, err := s.storage.CountWaypoints(dayStr)
	if err != nil {
		s.logger.Error("Failed to check existing data for auto-ingest",
			logger.Error(err), logger.String("day", dayStr))
		return
	}
	if n > 0 {
		s.logger.Debug("Previous day already ingested, skipping",
			logger.String("day", dayStr), logger.Int("waypoint_count", n))
		return
	}

	if _, err := s.RunDay(s.ctx, day); err != nil {
		s.logger.Error("Auto-ingest run failed",
			logger.Error(err), logger.String("day", dayStr))
	}
}

// RunDay executes one full ingest run for the given UTC day. Only one
// run executes at a time.
func (s *Service) RunDay(ctx context.Context, day time.Time) (*RunResult, error) {
	day = day.UTC().Truncate(24 * time.Hour)
	dayStr := day.Format("2006-01-02")

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrRunInProgress
	}
	s.running = true
	s.mu.Unlock()

	runID := uuid.New().String()
	startedAt := time.Now()

	result, err := s.runDay(ctx, runID, day, dayStr, startedAt)

	s.mu.Lock()
	s.running = false
	s.lastRun = result
	s.lastErr = err
	s.mu.Unlock()

	return result, err
}

func (s *Service) runDay(ctx context.Context, runID string, day time.Time, dayStr string, startedAt time.Time) (*RunResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.Ingest.RunTimeoutMinutes)*time.Minute)
	defer cancel()

	s.logger.Info("Starting ingest run",
		logger.String("run_id", runID),
		logger.String("day", dayStr))
	s.broadcast(websocket.MessageTypeIngestStarted, map[string]any{
		"run_id": runID,
		"day":    dayStr,
	})

	batch, err := s.client.FetchDay(runCtx, day)
	if err != nil {
		return nil, s.fail(runID, dayStr, fmt.Errorf("telemetry fetch failed: %w", err))
	}

	imputed, stats, err := imputation.Impute(batch, s.impCfg)
	if err != nil {
		return nil, s.fail(runID, dayStr, fmt.Errorf("imputation failed: %w", err))
	}

	flights, err := flight.Reconstruct(imputed)
	if err != nil {
		return nil, s.fail(runID, dayStr, fmt.Errorf("flight reconstruction failed: %w", err))
	}

	if err := s.storage.SaveRun(runID, day, imputed, flights); err != nil {
		return nil, s.fail(runID, dayStr, fmt.Errorf("failed to persist run: %w", err))
	}

	result := &RunResult{
		RunID:       runID,
		Day:         dayStr,
		Stats:       stats,
		FlightCount: len(flights),
		StartedAt:   startedAt,
		Duration:    time.Since(startedAt),
	}

	s.logger.Info("Ingest run completed",
		logger.String("run_id", runID),
		logger.String("day", dayStr),
		logger.Int("waypoint_count", stats.OutputRows),
		logger.Int("flight_count", len(flights)),
		logger.Int("synthesized", stats.Synthesized),
		logger.Duration("duration", result.Duration))

	s.broadcast(websocket.MessageTypeIngestCompleted, map[string]any{
		"run_id":      runID,
		"day":         dayStr,
		"waypoints":   stats.OutputRows,
		"flights":     len(flights),
		"inherited":   stats.Inherited,
		"synthesized": stats.Synthesized,
		"duration_ms": result.Duration.Milliseconds(),
	})
	for i := range flights {
		f := &flights[i]
		s.broadcast(websocket.MessageTypeFlightUpdate, map[string]any{
			"flight_id":      f.ID,
			"icao_address":   f.Address,
			"first_seen":     f.Start(),
			"last_seen":      f.End(),
			"waypoint_count": len(f.Waypoints),
		})
	}

	return result, nil
}

func (s *Service) fail(runID, dayStr string, err error) error {
	s.logger.Error("Ingest run failed",
		logger.String("run_id", runID),
		logger.String("day", dayStr),
		logger.Error(err))
	s.broadcast(websocket.MessageTypeIngestFailed, map[string]any{
		"run_id": runID,
		"day":    dayStr,
		"error":  err.Error(),
	})
	return err
}

func (s *Service) broadcast(msgType string, data map[string]any) {
	if s.wsServer == nil {
		return
	}
	s.wsServer.Broadcast(&websocket.Message{Type: msgType, Data: data})
}
