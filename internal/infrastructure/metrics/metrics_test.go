package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveTransition(t *testing.T) {
	m := New()

	m.ObserveTransition("confirm", nil)
	m.ObserveTransition("confirm", errors.New("boom"))
	m.ObserveTransition("confirm", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("confirm", ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("confirm", ResultFailure)))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTransition("delete", nil)
		m.SetCollectionSize("lost_items", 3)
		m.IncSubscriptionError("lost_items")
		m.IncReconciled("lost_items")
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.SetCollectionSize("lost_items", 7)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `lostfound_collection_records{collection="lost_items"} 7`)
}
