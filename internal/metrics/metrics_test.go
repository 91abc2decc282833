package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.CopyDone("proof_validated")
	m.CopyDone("proof_validated")
	m.CopyFailed("clipboard")
	m.Imported(3, 1)
	m.Mutation("archived")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Copies.WithLabelValues("proof_validated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CopyFailures.WithLabelValues("clipboard")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ImportedRows))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SkippedRows))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Mutations.WithLabelValues("archived")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CopyDone("x")
		m.CopyFailed("x")
		m.Imported(1, 1)
		m.Mutation("x")
	})
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.Mutation("created")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `opsboard_operation_mutations_total{action="created"} 1`)
}
