// Package supervisor owns the process lifecycle described in §6: signal
// handling (SIGUSR1 forces a full rescan, SIGUSR2 forces a positions
// backup, SIGTERM/SIGINT trigger graceful shutdown) and the cron-like
// positions-backup scheduler.
package supervisor

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"

	"github.com/ondrejsika/audioserve-go/pkg/index"
	"github.com/ondrejsika/audioserve-go/pkg/position"
)

// shutdownTimeout bounds how long graceful drain waits for in-flight
// requests (§5 "graceful drain") before giving up.
const shutdownTimeout = 10 * time.Second

// Supervisor wires one process's collections, watchers, position manager,
// and HTTP server into a single lifecycle: run until a termination
// signal, then drain.
type Supervisor struct {
	Log logger.Logger

	Indexes  []*index.Index
	Watchers []*index.Watcher

	PosManager          *position.Manager
	PositionsBackupFile string
	BackupSchedule      string

	Server *http.Server
}

// Run blocks until a termination signal arrives (or ctx is cancelled),
// handling SIGUSR1/SIGUSR2 and the cron-like backup schedule as they occur
// along the way, then performs a graceful drain and returns.
func (s *Supervisor) Run(ctx context.Context) error {
	sched, err := parseSchedule(s.BackupSchedule)
	if err != nil {
		return errors.Wrap(err, "invalid positions backup schedule")
	}

	usr1 := make(chan os.Signal, 1)
	usr2 := make(chan os.Signal, 1)
	signal.Notify(usr1, syscall.SIGUSR1)
	signal.Notify(usr2, syscall.SIGUSR2)
	defer signal.Stop(usr1)
	defer signal.Stop(usr2)

	graceful := signals.Setup()

	var cronTick <-chan time.Time
	if sched != nil {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		cronTick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return s.shutdown()

		case <-graceful:
			s.Log.Info("received shutdown signal, starting graceful drain", logger.Data{})
			return s.shutdown()

		case <-usr1:
			s.Log.Info("received SIGUSR1, forcing full rescan", logger.Data{})
			s.rescanAll()

		case <-usr2:
			s.Log.Info("received SIGUSR2, forcing positions backup", logger.Data{})
			s.backupPositions()

		case t := <-cronTick:
			if sched.Matches(t) {
				s.Log.Info("positions backup schedule fired", logger.Data{})
				s.backupPositions()
			}
		}
	}
}

func (s *Supervisor) rescanAll() {
	for _, idx := range s.Indexes {
		if err := index.FullScan(idx); err != nil {
			s.Log.Warn("full rescan failed", logger.Data{"collection": idx.Collection.Name, "error": err.Error()})
		}
	}
}

func (s *Supervisor) backupPositions() {
	if s.PosManager == nil || s.PositionsBackupFile == "" {
		return
	}
	if err := s.PosManager.Save(s.PositionsBackupFile); err != nil {
		s.Log.Warn("positions backup failed", logger.Data{"error": err.Error()})
	}
}

func (s *Supervisor) shutdown() error {
	for _, w := range s.Watchers {
		w.Stop()
	}

	s.backupPositions()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if s.Server != nil {
		if err := s.Server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Log.Warn("server shutdown error", logger.Data{"error": err.Error()})
		}
	}

	s.Log.Info("graceful drain complete", logger.Data{})
	return nil
}
