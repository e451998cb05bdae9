package stats

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// expvar registration is process-global, so the updater is built once
// and exercised end to end here.
func TestStatsUpdater(t *testing.T) {
	mux := http.NewServeMux()
	su := NewStatsUpdater(mux)
	require.NotNil(t, su, "expected StatsUpdater to be non-nil")
	assert.NotNil(t, su.updateChan, "expected updateChan to be initialized")

	handler, pattern := mux.Handler(&http.Request{URL: &url.URL{Path: "/debug/vars"}, Method: http.MethodGet})
	assert.NotNil(t, handler, "expected handler for /debug/vars to be set")
	assert.Equal(t, "GET /debug/vars", pattern, "expected handler to be registered for GET method on /debug/vars")

	su.RegisterMetric(ActiveSessions)
	su.RegisterMetric(ActiveConnections)

	su.Incr(ActiveSessions)
	su.Incr(ActiveSessions)
	su.Decr(ActiveSessions)
	su.Incr(ActiveConnections)

	// drain the queued updates synchronously instead of racing the
	// background goroutine
	su.Stop()
	su.updateMetrics()

	assert.Equal(t, "1", su.vars.Get(ActiveSessions).String(), "expected ActiveSessions to net out to 1")
	assert.Equal(t, "1", su.vars.Get(ActiveConnections).String(), "expected ActiveConnections to be 1")

	w := httptest.NewRecorder()
	su.expvarHandler(w, httptest.NewRequest(http.MethodGet, "/debug/vars", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var payload map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&payload))
	assert.EqualValues(t, 1, payload[ActiveSessions], "expected ActiveSessions in handler output")
	assert.Contains(t, payload, "Uptime", "expected Uptime to be exported")
}
