// Package daemon re-runs a job on a fixed interval and records its progress
// in a heartbeat file.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/store"
)

// HeartbeatFile is the heartbeat file name inside the daemon directory.
const HeartbeatFile = "heartbeat.txt"

// Heartbeat statuses.
const (
	StatusWorking = "working"
	StatusOK      = "ok"
	StatusError   = "error"
	StatusStopped = "stopped"
)

// HeartbeatState represents the parsed state of a heartbeat file.
type HeartbeatState struct {
	Mode     string `json:"mode"` // "running" or "stale"
	PID      string `json:"pid"`
	Interval int    `json:"interval"`
	Age      int    `json:"age"`
	Status   string `json:"status"` // "working", "ok", "error" or "stopped"
}

// RunFunc is the job run on each iteration.
type RunFunc func(ctx context.Context) error

// Daemon runs RunFn immediately, then every Interval and on every value
// received from Trigger, until its context is cancelled. A zero Interval or
// nil Trigger disables that source.
type Daemon struct {
	Interval time.Duration
	Trigger  <-chan struct{}
	Dir      string
	RunFn    RunFunc
	Logger   *slog.Logger
}

func (d *Daemon) heartbeatPath() string {
	return filepath.Join(d.Dir, HeartbeatFile)
}

// WriteHeartbeat writes a heartbeat entry: epoch,interval,pid,status
func (d *Daemon) WriteHeartbeat(status string) error {
	content := fmt.Sprintf("%d,%d,%d,%s\n", time.Now().Unix(), int(d.Interval/time.Second), os.Getpid(), status)
	return store.AtomicWriteFile(d.heartbeatPath(), []byte(content))
}

// Run starts the loop. It blocks until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if err := os.MkdirAll(d.Dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", d.Dir, err)
	}

	d.runOnce(ctx, "start")

	var tick <-chan time.Time
	if d.Interval > 0 {
		ticker := time.NewTicker(d.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			d.stop()
			return nil
		case <-tick:
			d.runOnce(ctx, "interval")
		case <-d.Trigger:
			d.runOnce(ctx, "trigger")
		}
	}
}

func (d *Daemon) runOnce(ctx context.Context, reason string) {
	_ = d.WriteHeartbeat(StatusWorking)
	start := time.Now()
	err := d.RunFn(ctx)
	scheduledDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		scheduledRuns.WithLabelValues(reason, StatusError).Inc()
		d.Logger.Error("scheduled run failed", slog.String("reason", reason), slog.String("error", err.Error()))
		_ = d.WriteHeartbeat(StatusError)
		return
	}
	scheduledRuns.WithLabelValues(reason, StatusOK).Inc()
	d.Logger.Debug("scheduled run complete", slog.String("reason", reason))
	_ = d.WriteHeartbeat(StatusOK)
}

func (d *Daemon) stop() {
	_ = d.WriteHeartbeat(StatusStopped)
}

// ReadHeartbeatState reads and parses the heartbeat file in dir. It returns
// nil when there is no readable heartbeat.
func ReadHeartbeatState(dir string) *HeartbeatState {
	data, err := os.ReadFile(filepath.Join(dir, HeartbeatFile))
	if err != nil {
		return nil
	}

	line := strings.TrimSpace(string(data))
	parts := strings.SplitN(line, ",", 4)
	if len(parts) < 4 {
		return nil
	}

	epoch, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil
	}

	interval, _ := strconv.Atoi(parts[1])
	status := parts[3]
	age := int(time.Now().Unix() - epoch)

	healthyLimit := interval * 12
	if healthyLimit < 300 {
		healthyLimit = 300
	}

	mode := "stale"
	if status != StatusStopped && age <= healthyLimit {
		mode = "running"
	}

	return &HeartbeatState{
		Mode:     mode,
		PID:      parts[2],
		Interval: interval,
		Age:      age,
		Status:   status,
	}
}
