// Package metrics exposes Prometheus counters for estimate and recipe
// persistence. A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics records persistence and catalog events.
type Metrics struct {
	saves          *prometheus.CounterVec
	writeBacks     *prometheus.CounterVec
	catalogMisses  prometheus.Counter
	commitFailures prometheus.Counter
}

// New registers the metrics on the provided registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	saves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rab_estimate_saves_total",
		Help: "Estimate save attempts by result.",
	}, []string{"result"})
	writeBacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rab_recipe_writebacks_total",
		Help: "Unit price write-backs to the catalog by result.",
	}, []string{"result"})
	catalogMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rab_catalog_misses_total",
		Help: "Catalog lookups that found no entry.",
	})
	commitFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rab_recipe_commit_failures_total",
		Help: "Staged component changes that failed to persist.",
	})
	reg.MustRegister(saves, writeBacks, catalogMisses, commitFailures)
	return &Metrics{
		saves:          saves,
		writeBacks:     writeBacks,
		catalogMisses:  catalogMisses,
		commitFailures: commitFailures,
	}
}

func (m *Metrics) ObserveSave(err error) {
	if m == nil || m.saves == nil {
		return
	}
	m.saves.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) ObserveWriteBack(err error) {
	if m == nil || m.writeBacks == nil {
		return
	}
	m.writeBacks.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) IncCatalogMiss() {
	if m == nil || m.catalogMisses == nil {
		return
	}
	m.catalogMisses.Inc()
}

func (m *Metrics) IncCommitFailure() {
	if m == nil || m.commitFailures == nil {
		return
	}
	m.commitFailures.Inc()
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
