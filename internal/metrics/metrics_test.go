package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestRecordDetectionIncrementsLabeledCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegistry(reg)

	m.RecordDetection("attractor_dogmatism", OutcomeFired)
	m.RecordDetection("attractor_dogmatism", OutcomeFired)
	m.RecordDetection("attractor_dogmatism", OutcomeSkippedMissingInput)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var found bool
	for _, fam := range families {
		if fam.GetName() != "manifold_detections_total" {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if labelValue(metric, "outcome") == "fired" && metric.GetCounter().GetValue() == 2 {
				found = true
			}
		}
	}
	if !found {
		t.Fatal("expected a fired-outcome counter with value 2")
	}
}

func TestWorkerGaugeTracksStartAndFinish(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegistry(reg)

	m.WorkerStarted()
	m.WorkerStarted()
	m.WorkerFinished()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, fam := range families {
		if fam.GetName() == "manifold_worker_pool_in_flight" {
			if got := fam.GetMetric()[0].GetGauge().GetValue(); got != 1 {
				t.Fatalf("in-flight gauge = %v, want 1", got)
			}
		}
	}
}

func TestNilRegistryRecordersAreNoOps(t *testing.T) {
	var m *Registry
	m.RecordDetection("x", OutcomeError)
	m.ObserveLatency("x", time.Millisecond)
	m.WorkerStarted()
	m.WorkerFinished()
	stop := m.Timer("x")
	stop()
}

func labelValue(m *dto.Metric, name string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}
