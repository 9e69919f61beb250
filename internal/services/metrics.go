package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pointsGranted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jci_points_granted_total",
		Help: "Ledger entries written, by source type",
	}, []string{"source"})

	pointsGrantFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jci_points_grant_failures_total",
		Help: "Grants rolled back, by source type",
	}, []string{"source"})

	objectivesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jci_objectives_completed_total",
		Help: "Assignments that reached their target",
	})

	ledgerDriftRepaired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jci_ledger_drift_repaired_total",
		Help: "Member point caches rewritten from the ledger sum",
	})
)
