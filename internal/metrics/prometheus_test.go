package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestJobCountersTrackActiveGauge(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordJobStarted()
	m.RecordJobStarted()
	if got := testutil.ToFloat64(m.ActiveJobs); got != 2 {
		t.Fatalf("active jobs = %v, want 2", got)
	}

	m.RecordJobCompleted("audio")
	m.RecordJobFailed("conversion_error")
	if got := testutil.ToFloat64(m.ActiveJobs); got != 0 {
		t.Fatalf("active jobs after finish = %v, want 0", got)
	}

	if got := testutil.ToFloat64(m.JobsCompleted.WithLabelValues("audio")); got != 1 {
		t.Fatalf("completed(audio) = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.JobsFailed.WithLabelValues("conversion_error")); got != 1 {
		t.Fatalf("failed(conversion_error) = %v, want 1", got)
	}
}

func TestRecordJobFailedDefaultsKind(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordJobStarted()
	m.RecordJobFailed("")

	if got := testutil.ToFloat64(m.JobsFailed.WithLabelValues("internal")); got != 1 {
		t.Fatalf("failed(internal) = %v, want 1", got)
	}
}

func TestSeparateRegistriesDoNotCollide(t *testing.T) {
	_ = New(prometheus.NewRegistry())
	_ = New(prometheus.NewRegistry())
}
