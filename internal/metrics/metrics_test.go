package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordersUpdateCollectors(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	m.RecordReconcile("updated", 2*time.Second)
	m.RecordReconcile("updated", time.Second)
	m.RecordReconcile("unchanged", time.Millisecond)
	m.RecordPreview("video", "generated")
	m.RecordPreview("", "skipped")
	m.RecordOrganizeItem("moved")
	m.RecordOrganizeItem("move_failure")
	m.ObserveOrganize(time.Second)
	m.RecordFootageDeleted()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.reconcileTotal.WithLabelValues("updated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reconcileTotal.WithLabelValues("unchanged")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.previewTotal.WithLabelValues("none", "skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.organizeItems.WithLabelValues("move_failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.footageDeleted))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordReconcile("updated", time.Second)
	m.RecordPreview("audio", "generated")
	m.RecordOrganizeItem("moved")
	m.ObserveOrganize(time.Second)
	m.RecordFootageDeleted()
	assert.Nil(t, m.Registry())
}

func TestHandlerExposesMetrics(t *testing.T) {
	m, err := New()
	require.NoError(t, err)
	m.RecordOrganizeItem("moved")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(string(body), `reel_organize_items_total{result="moved"} 1`), string(body))
}
