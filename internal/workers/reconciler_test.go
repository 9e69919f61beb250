package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arnold/jcihub-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeLedger struct {
	calls    atomic.Int32
	repaired []models.ReconcileResult
	err      error
}

func (f *fakeLedger) ReconcileAll(ctx context.Context) ([]models.ReconcileResult, error) {
	f.calls.Add(1)
	return f.repaired, f.err
}

func TestRunOnceReportsRepairs(t *testing.T) {
	ledger := &fakeLedger{repaired: []models.ReconcileResult{
		{MemberID: uuid.New(), Cached: 10, Ledger: 7, Repaired: true},
	}}
	w := NewReconciler(ledger, zap.NewNop(), time.Hour)

	assert.Equal(t, 1, w.RunOnce())
	assert.EqualValues(t, 1, ledger.calls.Load())
}

func TestRunOnceSurvivesErrors(t *testing.T) {
	ledger := &fakeLedger{err: errors.New("database gone")}
	w := NewReconciler(ledger, zap.NewNop(), time.Hour)

	assert.Equal(t, 0, w.RunOnce())
}

func TestStartTicksUntilStopped(t *testing.T) {
	ledger := &fakeLedger{}
	w := NewReconciler(ledger, zap.NewNop(), 10*time.Millisecond)

	w.Start()
	assert.Eventually(t, func() bool { return ledger.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	w.Stop()

	after := ledger.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, ledger.calls.Load())
}
