package logic

import (
	"context"
	"fed_courier/shared"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"time"
)

const profilerStartDelay = 10 * time.Second
const profilerInterval = 60 * time.Second

// Profiler periodically dumps goroutine stacks into ProfileDir, to diagnose stuck delivery workers.
type Profiler struct {
	logger          shared.ILogger
	profileDir      string
	profileKeepDays int
	startDelay      time.Duration
	interval        time.Duration
}

// NewProfiler returns nil if no profile directory is configured.
func NewProfiler(cfg *shared.Config, logger shared.ILogger) *Profiler {
	if cfg.ProfileDir == "" {
		return nil
	}
	return &Profiler{
		logger:          logger,
		profileDir:      cfg.ProfileDir,
		profileKeepDays: cfg.ProfileKeepDays,
		startDelay:      profilerStartDelay,
		interval:        profilerInterval,
	}
}

func (prof *Profiler) String() string {
	return "profiler"
}

// Serve implements suture.Service.
func (prof *Profiler) Serve(ctx context.Context) error {
	if err := os.MkdirAll(prof.profileDir, 0755); err != nil {
		return err
	}
	timer := time.NewTimer(prof.startDelay)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		if err := prof.saveProfileAndPurgeOld(time.Now()); err != nil {
			prof.logger.Warnf("Failed to save goroutine profile: %v", err)
		}
		timer.Reset(prof.interval)
	}
}

func saveProfile(profileDir string, now time.Time) error {
	fname := fmt.Sprintf("%v.txt", now.Format("2006-01-02!15-04-05"))
	f, err := os.Create(filepath.Join(profileDir, fname))
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err = fmt.Fprintf(f, "Goroutine count: %d\n\n", runtime.NumGoroutine()); err != nil {
		return err
	}
	return pprof.Lookup("goroutine").WriteTo(f, 2)
}

func purgeOld(profileDir string, cutoff time.Time) error {
	return filepath.Walk(profileDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && info.ModTime().Before(cutoff) {
			return os.Remove(path)
		}
		return nil
	})
}

func (prof *Profiler) saveProfileAndPurgeOld(now time.Time) error {
	if err := saveProfile(prof.profileDir, now); err != nil {
		return err
	}
	return purgeOld(prof.profileDir, now.AddDate(0, 0, -prof.profileKeepDays))
}
