package workers

import (
	"context"
	"sync"
	"time"

	"github.com/arnold/jcihub-api/internal/models"
	"go.uber.org/zap"
)

// LedgerReconciler is satisfied by services.PointsService.
type LedgerReconciler interface {
	ReconcileAll(ctx context.Context) ([]models.ReconcileResult, error)
}

// Reconciler is a background worker that periodically rewrites cached
// member totals that drifted from their ledger sum.
type Reconciler struct {
	points   LedgerReconciler
	log      *zap.Logger
	interval time.Duration
	timeout  time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewReconciler creates a new reconciliation worker. interval is how often
// every member is checked.
func NewReconciler(points LedgerReconciler, logger *zap.Logger, interval time.Duration) *Reconciler {
	return &Reconciler{
		points:   points,
		log:      logger,
		interval: interval,
		timeout:  5 * time.Minute,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background loop.
func (w *Reconciler) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("points reconciler started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *Reconciler) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("points reconciler stopped")
}

func (w *Reconciler) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.RunOnce()
		}
	}
}

// RunOnce performs a single reconciliation pass and returns the number of
// repaired members.
func (w *Reconciler) RunOnce() int {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	repaired, err := w.points.ReconcileAll(ctx)
	if err != nil {
		w.log.Error("points reconciliation failed", zap.Error(err))
	}
	if len(repaired) > 0 {
		w.log.Warn("points reconciliation repaired drift", zap.Int("members", len(repaired)))
	}
	return len(repaired)
}
