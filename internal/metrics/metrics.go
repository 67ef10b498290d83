// Package metrics exposes a replica's observability surface: current term,
// commit/applied indices, role, vote and append outcomes. It is
// deliberately outside the consensus core's correctness surface — nothing
// in the replica's decision logic reads back from a Registry. Each
// Registry wraps a private prometheus.Registry so multiple replicas can
// share a test binary without a collector-already-registered panic.
package metrics

import (
	"net/http"

	"github.com/jamesmcnamara/raftkv/internal/message"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles every gauge/counter this replica reports.
type Registry struct {
	reg *prometheus.Registry

	CurrentTerm  prometheus.Gauge
	CommitIndex  prometheus.Gauge
	LastApplied  prometheus.Gauge
	Role         prometheus.Gauge
	VotesGranted prometheus.Counter
	VotesDenied  prometheus.Counter
	AppendTotal  *prometheus.CounterVec
	SendErrors   prometheus.Counter
}

// New constructs a Registry labeled with this replica's id.
func New(id message.ID) *Registry {
	reg := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"replica": id.String()}

	r := &Registry{
		reg: reg,
		CurrentTerm: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "raft_current_term", Help: "Current Raft term.", ConstLabels: constLabels,
		}),
		CommitIndex: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "raft_commit_index", Help: "Highest log index known committed.", ConstLabels: constLabels,
		}),
		LastApplied: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "raft_last_applied", Help: "Highest log index applied to the state machine.", ConstLabels: constLabels,
		}),
		Role: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "raft_role", Help: "0=follower, 1=candidate, 2=leader.", ConstLabels: constLabels,
		}),
		VotesGranted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "raft_votes_granted_total", Help: "RequestVote RPCs this replica granted.", ConstLabels: constLabels,
		}),
		VotesDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "raft_votes_denied_total", Help: "RequestVote RPCs this replica denied.", ConstLabels: constLabels,
		}),
		AppendTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "raft_append_entries_total", Help: "AppendEntries RPCs processed, by outcome.", ConstLabels: constLabels,
		}, []string{"success"}),
		SendErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transport_send_errors_total", Help: "Best-effort sends to peers that failed.", ConstLabels: constLabels,
		}),
	}

	reg.MustRegister(r.CurrentTerm, r.CommitIndex, r.LastApplied, r.Role,
		r.VotesGranted, r.VotesDenied, r.AppendTotal, r.SendErrors)
	return r
}

// Handler returns the HTTP handler serving this registry's metrics in the
// Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// ObserveAppend records the outcome of processing one AppendEntries RPC.
func (r *Registry) ObserveAppend(success bool) {
	if success {
		r.AppendTotal.WithLabelValues("true").Inc()
	} else {
		r.AppendTotal.WithLabelValues("false").Inc()
	}
}
