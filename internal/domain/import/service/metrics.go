package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "casaledger",
		Subsystem: "import",
		Name:      "uploads_total",
		Help:      "Uploaded source files by type and outcome.",
	}, []string{"source", "outcome"})

	batchesSavedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "casaledger",
		Subsystem: "import",
		Name:      "batches_saved_total",
		Help:      "Import batches persisted to the expense store.",
	})

	rowsSavedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "casaledger",
		Subsystem: "import",
		Name:      "rows_saved_total",
		Help:      "Expense rows persisted from imports.",
	})

	rowsSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "casaledger",
		Subsystem: "import",
		Name:      "rows_skipped_total",
		Help:      "Source rows dropped during transform (zero or unparseable amounts).",
	})
)
