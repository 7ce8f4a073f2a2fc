package worker

import (
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"

	"wordrush/backend/internal/game"
)

// CleanupWorker runs the periodic maintenance jobs: pruning stale lobby
// participants so abandoned tabs never block start conditions, and ending
// matches whose duration has elapsed. Both jobs are best-effort and never
// block gameplay operations.
type CleanupWorker struct {
	engine    *game.MatchEngine
	log       *logrus.Logger
	scheduler gocron.Scheduler

	// PruneEvery and SweepEvery are the job intervals.
	PruneEvery time.Duration
	SweepEvery time.Duration
}

func NewCleanupWorker(engine *game.MatchEngine, log *logrus.Logger) *CleanupWorker {
	return &CleanupWorker{
		engine:     engine,
		log:        log,
		PruneEvery: 15 * time.Second,
		SweepEvery: 10 * time.Second,
	}
}

// Start registers and starts the jobs.
func (w *CleanupWorker) Start() error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	w.scheduler = sched

	if _, err := sched.NewJob(
		gocron.DurationJob(w.PruneEvery),
		gocron.NewTask(w.pruneStale),
	); err != nil {
		return err
	}
	if _, err := sched.NewJob(
		gocron.DurationJob(w.SweepEvery),
		gocron.NewTask(w.sweepExpired),
	); err != nil {
		return err
	}

	sched.Start()
	w.log.WithFields(logrus.Fields{
		"prune_every": w.PruneEvery,
		"sweep_every": w.SweepEvery,
	}).Info("cleanup worker started")
	return nil
}

// Stop shuts the scheduler down.
func (w *CleanupWorker) Stop() {
	if w.scheduler != nil {
		if err := w.scheduler.Shutdown(); err != nil {
			w.log.WithError(err).Warn("cleanup worker shutdown failed")
		}
	}
}

func (w *CleanupWorker) pruneStale() {
	ids, err := w.engine.LobbyMatchIDs()
	if err != nil {
		w.log.WithError(err).Warn("stale participant sweep query failed")
		return
	}
	for _, id := range ids {
		removed, err := w.engine.CleanupStaleParticipants(id)
		if err != nil {
			w.log.WithError(err).WithField("match_id", id).Warn("stale participant cleanup failed")
			continue
		}
		if removed > 0 {
			w.log.WithFields(logrus.Fields{"match_id": id, "removed": removed}).Info("pruned stale participants")
		}
	}
}

func (w *CleanupWorker) sweepExpired() {
	if ended := w.engine.SweepExpired(); ended > 0 {
		w.log.WithField("ended", ended).Info("ended expired matches")
	}
}
