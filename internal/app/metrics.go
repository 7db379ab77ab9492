package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	resultOK    = "ok"
	resultError = "error"
)

var (
	storeMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quote_store_mutations_total",
		Help: "Quote store mutations by operation and result.",
	}, []string{"op", "result"})

	storeSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "quote_store_quotes",
		Help: "Number of quotes currently held by the store.",
	})

	importedQuotes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quote_import_records_total",
		Help: "Imported records by outcome (added, skipped).",
	}, []string{"outcome"})

	syncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quote_sync_runs_total",
		Help: "Sync cycles by result.",
	}, []string{"result"})

	syncMerged = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quote_sync_merged_total",
		Help: "Remote quotes merged into the store by kind (updated, inserted).",
	}, []string{"kind"})

	forwardedQuotes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quote_forward_total",
		Help: "Quotes forwarded to the remote source by result.",
	}, []string{"result"})
)

func resultLabel(err error) string {
	if err != nil {
		return resultError
	}

	return resultOK
}
