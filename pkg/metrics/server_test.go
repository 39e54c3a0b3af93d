package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerExposesMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRegistry(reg, "host-a")
	require.NoError(t, err)
	r.envActive.With(prometheus.Labels{"host": "host-a", "eid": "e1", "username": "alice"}).Set(1)

	server := NewServer(":0", reg)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	server.Handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "genv_env_active")
}
