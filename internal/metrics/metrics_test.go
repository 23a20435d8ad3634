package metrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestMetricsExportCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveSave(nil)
	m.ObserveSave(nil)
	m.ObserveSave(errors.New("disk full"))
	m.ObserveWriteBack(nil)
	m.IncCatalogMiss()
	m.IncCommitFailure()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchValue(mfs, "rab_estimate_saves_total", "result", ResultOK); err != nil {
		t.Fatalf("fetch saves: %v", err)
	} else if got != 2 {
		t.Fatalf("expected saves ok=2, got %f", got)
	}
	if got, err := fetchValue(mfs, "rab_estimate_saves_total", "result", ResultError); err != nil {
		t.Fatalf("fetch saves: %v", err)
	} else if got != 1 {
		t.Fatalf("expected saves error=1, got %f", got)
	}
	if got, err := fetchValue(mfs, "rab_recipe_writebacks_total", "result", ResultOK); err != nil {
		t.Fatalf("fetch write-backs: %v", err)
	} else if got != 1 {
		t.Fatalf("expected write-backs ok=1, got %f", got)
	}
	if got, err := fetchValue(mfs, "rab_catalog_misses_total", "", ""); err != nil {
		t.Fatalf("fetch misses: %v", err)
	} else if got != 1 {
		t.Fatalf("expected misses=1, got %f", got)
	}
	if got, err := fetchValue(mfs, "rab_recipe_commit_failures_total", "", ""); err != nil {
		t.Fatalf("fetch commit failures: %v", err)
	} else if got != 1 {
		t.Fatalf("expected commit failures=1, got %f", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveSave(nil)
	m.ObserveWriteBack(errors.New("x"))
	m.IncCatalogMiss()
	m.IncCommitFailure()

	unregistered := New(nil)
	unregistered.IncCatalogMiss()
}

func fetchValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if label != "" && !matchesLabel(metric.GetLabel(), label, value) {
				continue
			}
			return metric.GetCounter().GetValue(), nil
		}
		return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
	}
	return 0, fmt.Errorf("metric %q not found", name)
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
