// Package replica implements the Raft-style consensus loop that backs one
// member of the cluster: a single-threaded cooperative state machine that
// consumes an inbound message queue interleaved with an election/heartbeat
// timer, dispatches on message class and role, and enforces leader
// election, log replication, and commit safety.
package replica

import (
	"context"
	"math/rand"
	"time"

	"github.com/jamesmcnamara/raftkv/internal/kvstore"
	"github.com/jamesmcnamara/raftkv/internal/message"
	"github.com/jamesmcnamara/raftkv/internal/metrics"
	"github.com/jamesmcnamara/raftkv/internal/raftlog"
	"github.com/jamesmcnamara/raftkv/internal/rlog"
	"github.com/jamesmcnamara/raftkv/internal/role"
	"go.uber.org/zap"
)

// Sender is the outbound half of the transport the Replica talks through.
// internal/transport.Shim satisfies this; tests use a fake.
type Sender interface {
	Send(message.Message)
}

// HeartbeatInterval is the leader's fixed heartbeat period.
var HeartbeatInterval = 100 * time.Millisecond

// ElectionTimeoutMin and ElectionTimeoutMax bound the randomized
// follower/candidate election timeout. Exported as vars, not consts, so
// tests can shrink them for fast, deterministic runs.
var (
	ElectionTimeoutMin = 150 * time.Millisecond
	ElectionTimeoutMax = 300 * time.Millisecond
)

// appendEntriesWindow bounds how many entries a single AppendEntries RPC
// carries, for both heartbeats and targeted retries.
const appendEntriesWindow = 35

// ResetElectionTimeoutRange overrides the election timeout bounds (for
// fast, deterministic tests) and returns the previous bounds so callers
// can restore them.
func ResetElectionTimeoutRange(min, max time.Duration) (oldMin, oldMax time.Duration) {
	oldMin, oldMax = ElectionTimeoutMin, ElectionTimeoutMax
	ElectionTimeoutMin, ElectionTimeoutMax = min, max
	return
}

// Replica holds all of the in-memory state for one cluster member: its
// term and vote history, its replicated log, its committed state machine,
// and whichever role-specific bookkeeping its current role requires.
type Replica struct {
	id    message.ID
	peers []message.ID

	currentTerm uint64
	votedFor    *message.ID
	leader      message.ID

	log         *raftlog.Log
	commitIndex uint64
	lastApplied uint64
	sm          *kvstore.Store

	role role.Role

	sender Sender
	mx     *metrics.Registry
	logger *rlog.Logger
	rng    *rand.Rand

	timer *time.Timer

	// onRoleChange, when set, is invoked synchronously from the event
	// loop goroutine every time the role changes. It lets a test harness
	// or an operator hook observe elections without racing the loop's own
	// state; it must not block.
	onRoleChange func(role.Kind)
}

// OnRoleChange registers fn to be called from the event loop goroutine
// whenever this replica's role changes.
func (r *Replica) OnRoleChange(fn func(role.Kind)) {
	r.onRoleChange = fn
}

// New constructs a Replica in the initial Follower role, with leader
// unknown (message.Broadcast, the "no leader known yet" sentinel).
func New(id message.ID, peers []message.ID, sender Sender, mx *metrics.Registry, logger *rlog.Logger) *Replica {
	r := &Replica{
		id:     id,
		peers:  peers,
		leader: message.Broadcast,
		log:    raftlog.New(),
		sm:     kvstore.New(),
		role:   role.NewFollower(),
		sender: sender,
		mx:     mx,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	return r
}

// Run is the event loop: one blocking select between the next inbound
// Message and the single active timer. It returns when ctx is cancelled or
// inbound is closed, the latter being the normal shutdown path once the
// transport's connection goes away.
func (r *Replica) Run(ctx context.Context, inbound <-chan message.Message) {
	r.timer = time.NewTimer(r.electionTimeout())
	defer r.timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-inbound:
			if !ok {
				return
			}
			r.handle(msg)
		case <-r.timer.C:
			r.handleTimeout()
		}
	}
}

func (r *Replica) electionTimeout() time.Duration {
	span := ElectionTimeoutMax - ElectionTimeoutMin
	if span <= 0 {
		return ElectionTimeoutMin
	}
	return ElectionTimeoutMin + time.Duration(r.rng.Int63n(int64(span)))
}

// resetTimer safely re-arms the single timer, draining a pending fire if
// Stop reports the timer already expired — the standard idiom for a timer
// reused across Reset calls from one goroutine, so it never double-fires
// after a reset.
func (r *Replica) resetTimer(d time.Duration) {
	if !r.timer.Stop() {
		select {
		case <-r.timer.C:
		default:
		}
	}
	r.timer.Reset(d)
}

// resetTimerForRole re-arms the timer with the deadline appropriate to the
// current role: the leader's heartbeat period, or a fresh randomized
// election timeout otherwise. Called once after every node message;
// handleTimeout re-arms the timer itself. Every role change happens on one
// of those two paths, so the active deadline always matches the current
// role.
func (r *Replica) resetTimerForRole() {
	if r.role.Kind == role.Leader {
		r.resetTimer(HeartbeatInterval)
	} else {
		r.resetTimer(r.electionTimeout())
	}
}

func (r *Replica) setRole(newRole role.Role) {
	r.role = newRole
	if r.mx != nil {
		r.mx.Role.Set(float64(newRole.Kind))
	}
	if r.onRoleChange != nil {
		r.onRoleChange(newRole.Kind)
	}
}

// zapLogger returns the zap logger bound with this replica's current
// term/role, for call sites that want structured fields on a decision.
func (r *Replica) zapLogger() *zap.Logger {
	return r.logger.With(r.currentTerm, r.role.Kind.String())
}
