package replica

import (
	"golang.org/x/exp/slices"

	"github.com/jamesmcnamara/raftkv/internal/message"
	"github.com/jamesmcnamara/raftkv/internal/raftlog"
	"github.com/jamesmcnamara/raftkv/internal/role"
)

// tryAdvanceCommit advances commitIndex to N when a majority of match
// indices (including the leader's own, always log.LastIndex()) are >= N,
// and the entry at N was written during the leader's own current term —
// the guard that rules out committing an older-term entry purely because a
// majority happens to hold it.
func (r *Replica) tryAdvanceCommit() {
	if r.role.Kind != role.Leader {
		return
	}
	leaderState := r.role.Leader

	matches := make([]uint64, 0, len(r.peers)+1)
	matches = append(matches, r.log.LastIndex())
	for _, p := range r.peers {
		matches = append(matches, leaderState.MatchIndex[p])
	}
	slices.Sort(matches)

	// In the ascending-sorted match indices (including our own), the lower
	// median at (len-1)/2 is the highest index a strict majority has reached.
	n := matches[(len(matches)-1)/2]

	if n > r.commitIndex && r.log.TermAt(n) == r.currentTerm {
		r.applyAndReplyThrough(n)
	}
}

// applyThrough is the follower-side apply path: advance commitIndex to n and
// run every newly committed entry through the state machine. A follower
// applies an entry because the leader told it to and never replies to
// anyone about it.
func (r *Replica) applyThrough(n uint64) {
	r.commitIndex = n
	if r.mx != nil {
		r.mx.CommitIndex.Set(float64(r.commitIndex))
	}
	for r.lastApplied < r.commitIndex {
		r.lastApplied++
		if entry, ok := r.log.EntryAt(r.lastApplied); ok {
			r.sm.Apply(entry.Key, entry.Value)
		}
	}
	if r.mx != nil {
		r.mx.LastApplied.Set(float64(r.lastApplied))
	}
}

// applyAndReplyThrough is the leader-side apply path: identical to
// applyThrough, but for each newly committed entry that has an outstanding
// client request, reply Ok and remove it from the outstanding set. A client
// Put is answered exactly when its entry is applied, never earlier.
func (r *Replica) applyAndReplyThrough(n uint64) {
	if r.role.Kind != role.Leader {
		r.applyThrough(n)
		return
	}
	leaderState := r.role.Leader

	r.commitIndex = n
	if r.mx != nil {
		r.mx.CommitIndex.Set(float64(r.commitIndex))
	}
	for r.lastApplied < r.commitIndex {
		r.lastApplied++
		entry, ok := r.log.EntryAt(r.lastApplied)
		if !ok {
			continue
		}
		r.sm.Apply(entry.Key, entry.Value)

		if client, pending := leaderState.Outstanding[entry]; pending {
			delete(leaderState.Outstanding, entry)
			reply := message.Reply(client, r.id, r.leader, message.Ok)
			r.sender.Send(reply)
		}
	}
	if r.mx != nil {
		r.mx.LastApplied.Set(float64(r.lastApplied))
	}
}

// fromWireEntries converts the wire representation carried in an
// append_entries body into raftlog.Entry values. The sender's Term is
// trusted verbatim (it is the term the entry was originally proposed
// under, which may predate the receiver's currentTerm) — the fallback
// term argument only covers the defensive case of a zero-value wire entry.
func fromWireEntries(wire []message.Entry, fallbackTerm uint64) []raftlog.Entry {
	if len(wire) == 0 {
		return nil
	}
	out := make([]raftlog.Entry, len(wire))
	for i, e := range wire {
		term := e.Term
		if term == 0 {
			term = fallbackTerm
		}
		out[i] = raftlog.Entry{Key: e.Key, Value: e.Value, Term: term}
	}
	return out
}

func toWireEntries(entries []raftlog.Entry) []message.Entry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]message.Entry, len(entries))
	for i, e := range entries {
		out[i] = message.Entry{Key: e.Key, Value: e.Value, Term: e.Term}
	}
	return out
}

func min(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
