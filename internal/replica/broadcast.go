package replica

import (
	"github.com/jamesmcnamara/raftkv/internal/message"
	"github.com/jamesmcnamara/raftkv/internal/role"
)

// broadcastHeartbeat sends every peer an AppendEntries carrying whatever
// entries that peer's nextIndex still owes it — a heartbeat is simply an
// AppendEntries, possibly with zero entries. Only valid while Leader.
func (r *Replica) broadcastHeartbeat() {
	for _, peer := range r.peers {
		r.sendAppendEntriesTo(peer)
	}
}

// sendAppendEntriesTo sends one peer an AppendEntries built from that
// peer's current nextIndex: prevIndex/prevTerm describe the entry
// immediately preceding the window, and the window itself is bounded by
// appendEntriesWindow.
func (r *Replica) sendAppendEntriesTo(peer message.ID) {
	if r.role.Kind != role.Leader {
		return
	}
	leaderState := r.role.Leader

	next := leaderState.NextIndex[peer]
	if next == 0 {
		next = 1
	}
	prevIndex := next - 1
	prevTerm := r.log.TermAt(prevIndex)
	entries := toWireEntries(r.log.SliceFrom(next, appendEntriesWindow))

	msg := message.Message{
		Src:           r.id,
		Dst:           peer,
		Leader:        r.leader,
		Type:          message.AppendEntries,
		Term:          r.currentTerm,
		LastEntry:     prevIndex,
		LastEntryTerm: prevTerm,
		LeaderCommit:  r.commitIndex,
		Entries:       entries,
	}
	r.sender.Send(msg)
}

// broadcastRequestVote solicits a vote from every peer for the term this
// replica just incremented into after becoming a candidate.
func (r *Replica) broadcastRequestVote() {
	self := r.id
	lastIndex := r.log.LastIndex()
	lastTerm := r.log.LastTerm()
	for _, peer := range r.peers {
		msg := message.Message{
			Src:           r.id,
			Dst:           peer,
			Leader:        r.leader,
			Type:          message.RequestVote,
			Term:          r.currentTerm,
			CandidateID:   &self,
			LastEntry:     lastIndex,
			LastEntryTerm: lastTerm,
		}
		r.sender.Send(msg)
	}
}
