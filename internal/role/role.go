// Package role implements the Role tagged variant: exactly one of
// Follower, Candidate, or Leader is active at a time, and each variant
// carries only the fields valid in that role, preventing bugs where stale
// leader-only state lingers once a replica has stepped down.
package role

import (
	"github.com/jamesmcnamara/raftkv/internal/message"
	"github.com/jamesmcnamara/raftkv/internal/raftlog"
)

// Kind discriminates which variant a Role holds.
type Kind int

const (
	Follower Kind = iota
	Candidate
	Leader
)

func (k Kind) String() string {
	switch k {
	case Follower:
		return "follower"
	case Candidate:
		return "candidate"
	case Leader:
		return "leader"
	default:
		return "unknown"
	}
}

// CandidateState is the data valid only while Kind == Candidate: the set
// of peers (self included) whose votes have been received this term.
type CandidateState struct {
	Votes map[message.ID]struct{}
}

// NewCandidateState seeds the vote set with self: a candidate always
// counts its own vote toward the tally.
func NewCandidateState(self message.ID) *CandidateState {
	return &CandidateState{Votes: map[message.ID]struct{}{self: {}}}
}

// Grant records that peer voted for us this term and returns the new
// tally.
func (c *CandidateState) Grant(peer message.ID) int {
	c.Votes[peer] = struct{}{}
	return len(c.Votes)
}

// LeaderState is the volatile bookkeeping valid only while Kind == Leader.
type LeaderState struct {
	// NextIndex[peer] is the next log slot to send that peer.
	NextIndex map[message.ID]uint64
	// MatchIndex[peer] is the highest index known replicated to that peer.
	MatchIndex map[message.ID]uint64
	// Outstanding maps a pending, not-yet-committed log entry back to the
	// client envelope that requested it.
	Outstanding map[raftlog.Entry]message.Message
}

// NewLeaderState initializes NextIndex to logLength and MatchIndex to 0
// for every peer, as done the moment a candidate is elected leader.
func NewLeaderState(peers []message.ID, logLength uint64) *LeaderState {
	ls := &LeaderState{
		NextIndex:   make(map[message.ID]uint64, len(peers)),
		MatchIndex:  make(map[message.ID]uint64, len(peers)),
		Outstanding: make(map[raftlog.Entry]message.Message),
	}
	for _, p := range peers {
		ls.NextIndex[p] = logLength
		ls.MatchIndex[p] = 0
	}
	return ls
}

// Role is the sum type: Candidate is non-nil only for Kind Candidate,
// Leader only for Kind Leader, and both are nil for a Follower.
type Role struct {
	Kind      Kind
	Candidate *CandidateState
	Leader    *LeaderState
}

// NewFollower returns a bare Follower role (no extra state).
func NewFollower() Role {
	return Role{Kind: Follower}
}

// NewCandidate returns a Candidate role that has already voted for self.
func NewCandidate(self message.ID) Role {
	return Role{Kind: Candidate, Candidate: NewCandidateState(self)}
}

// NewLeader returns a Leader role with next/match index initialized for
// peers against the given log length.
func NewLeader(peers []message.ID, logLength uint64) Role {
	return Role{Kind: Leader, Leader: NewLeaderState(peers, logLength)}
}
