package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jamesmcnamara/raftkv/internal/message"
	"github.com/jamesmcnamara/raftkv/internal/metrics"
)

func TestObserveAppendAndHandler(t *testing.T) {
	mx := metrics.New(message.MustParseID("abcd"))
	mx.ObserveAppend(true)
	mx.ObserveAppend(false)
	mx.CurrentTerm.Set(3)
	mx.VotesGranted.Inc()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	mx.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "raft_current_term")
	assert.Contains(t, body, `replica="abcd"`)
	assert.Contains(t, body, "raft_append_entries_total")
}

func TestNewRegistryIsIsolatedPerReplica(t *testing.T) {
	// Constructing two registries must not panic with a
	// collector-already-registered error, since each uses its own private
	// prometheus.Registry rather than the global default.
	_ = metrics.New(message.MustParseID("aaaa"))
	_ = metrics.New(message.MustParseID("bbbb"))
}
