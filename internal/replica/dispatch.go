package replica

import (
	"github.com/jamesmcnamara/raftkv/internal/message"
	"github.com/jamesmcnamara/raftkv/internal/raftlog"
	"github.com/jamesmcnamara/raftkv/internal/role"
	"go.uber.org/zap"
)

// handle classifies an inbound message as a replica-to-replica RPC or a
// client request and dispatches it accordingly.
func (r *Replica) handle(msg message.Message) {
	switch {
	case msg.Type.IsNode():
		r.dispatchNode(msg)
	case msg.Type.IsClient():
		r.dispatchClient(msg)
	}
}

// handleTimeout fires when no message arrived before the active timer
// expired: a leader sends a heartbeat round, anyone else starts an election.
func (r *Replica) handleTimeout() {
	if r.role.Kind == role.Leader {
		r.broadcastHeartbeat()
		r.resetTimer(HeartbeatInterval)
		return
	}

	r.currentTerm++
	self := r.id
	r.votedFor = &self
	r.setRole(role.NewCandidate(r.id))
	if r.mx != nil {
		r.mx.CurrentTerm.Set(float64(r.currentTerm))
	}
	r.zapLogger().Info("election timeout, becoming candidate")
	r.resetTimer(r.electionTimeout())
	r.broadcastRequestVote()
}

// dispatchNode adopts a higher term if the message carries one, dispatches
// on the specific RPC, and then resets the timer — any node message, granted
// or not, postpones the next timeout.
func (r *Replica) dispatchNode(msg message.Message) {
	r.maybeAdoptTerm(msg.Term)

	switch msg.Type {
	case message.RequestVote:
		r.handleRequestVote(msg)
	case message.VoteResp:
		r.handleVoteResp(msg)
	case message.AppendEntries:
		r.handleAppendEntries(msg)
	case message.AppendResp:
		r.handleAppendResp(msg)
	}

	r.resetTimerForRole()
}

// maybeAdoptTerm enforces that current term never decreases: on seeing a
// higher term in any inbound message, the replica steps down to follower,
// clears its vote, and adopts the higher term before reacting to anything
// else in that message.
func (r *Replica) maybeAdoptTerm(term uint64) {
	if term <= r.currentTerm {
		return
	}
	r.currentTerm = term
	r.votedFor = nil
	r.setRole(role.NewFollower())
	if r.mx != nil {
		r.mx.CurrentTerm.Set(float64(r.currentTerm))
	}
}

// handleRequestVote grants a vote only when the term matches (a higher term
// has already been adopted by the time we get here), this replica hasn't
// already voted for someone else this term, and the candidate's log is at
// least as up to date as ours by the (last entry term, last entry index)
// tuple.
func (r *Replica) handleRequestVote(msg message.Message) {
	logger := r.zapLogger()

	upToDate := msg.LastEntryTerm > r.log.LastTerm() ||
		(msg.LastEntryTerm == r.log.LastTerm() && msg.LastEntry >= r.log.LastIndex())

	candidateOK := msg.CandidateID != nil
	canVote := candidateOK && (r.votedFor == nil || *r.votedFor == *msg.CandidateID)
	grant := msg.Term >= r.currentTerm && canVote && upToDate

	if grant {
		id := *msg.CandidateID
		r.votedFor = &id
		r.setRole(role.NewFollower())
		if r.mx != nil {
			r.mx.VotesGranted.Inc()
		}
		logger.Info("vote granted", zap.String("candidate", id.String()))
	} else {
		if r.mx != nil {
			r.mx.VotesDenied.Inc()
		}
		logger.Info("vote denied", zap.Bool("candidate_set", candidateOK), zap.Bool("up_to_date", upToDate))
	}

	resp := message.Reply(msg, r.id, r.leader, message.VoteResp)
	resp.Term = r.currentTerm
	resp.Vote = grant
	r.sender.Send(resp)
}

// handleVoteResp only matters while Candidate and for the current term; it
// advances to Leader the moment a strict majority of votes is in hand.
func (r *Replica) handleVoteResp(msg message.Message) {
	if r.role.Kind != role.Candidate || msg.Term != r.currentTerm || !msg.Vote {
		return
	}

	votes := r.role.Candidate.Grant(msg.Src)
	if votes <= (len(r.peers)+1)/2 {
		return
	}

	r.setRole(role.NewLeader(r.peers, uint64(r.log.Length())))
	r.leader = r.id
	r.zapLogger().Info("elected leader", zap.Int("votes", votes))
	r.broadcastHeartbeat()
}

// handleAppendEntries rejects a stale-term leader outright, otherwise
// recognizes the sender as leader, checks the log matches at the given
// prev-entry point, and appends/truncates accordingly.
func (r *Replica) handleAppendEntries(msg message.Message) {
	if msg.Term < r.currentTerm {
		r.replyAppendResp(msg, false, r.log.LastIndex())
		return
	}

	r.setRole(role.NewFollower())
	r.votedFor = nil
	r.leader = msg.Src

	if !r.log.Matches(msg.LastEntry, msg.LastEntryTerm) {
		r.replyAppendResp(msg, false, r.log.LastIndex())
		return
	}

	r.log.TruncateAfter(msg.LastEntry)
	r.log.AppendMany(fromWireEntries(msg.Entries, r.currentTerm)...)

	newLast := r.log.LastIndex()
	if newCommit := min(msg.LeaderCommit, newLast); newCommit > r.commitIndex {
		r.applyThrough(newCommit)
	}

	r.replyAppendResp(msg, true, newLast)
}

func (r *Replica) replyAppendResp(to message.Message, success bool, matchIndex uint64) {
	if r.mx != nil {
		r.mx.ObserveAppend(success)
	}
	resp := message.Reply(to, r.id, r.leader, message.AppendResp)
	resp.Term = r.currentTerm
	resp.Success = success
	resp.MatchIndex = matchIndex
	r.sender.Send(resp)
}

// handleAppendResp only applies while Leader; a successful response advances
// the follower's match/next index and may advance the commit index, a
// failed one backs off nextIndex by one and retries.
func (r *Replica) handleAppendResp(msg message.Message) {
	if r.role.Kind != role.Leader {
		return
	}
	leaderState := r.role.Leader

	if msg.Success {
		leaderState.MatchIndex[msg.Src] = msg.MatchIndex
		leaderState.NextIndex[msg.Src] = min(msg.MatchIndex+1, uint64(r.log.Length()))
		r.tryAdvanceCommit()
		return
	}

	next := leaderState.NextIndex[msg.Src]
	if next > 0 {
		next--
	}
	leaderState.NextIndex[msg.Src] = next
	r.sendAppendEntriesTo(msg.Src)
}

// dispatchClient routes a client request by its message type.
func (r *Replica) dispatchClient(msg message.Message) {
	switch msg.Type {
	case message.Get:
		r.handleGet(msg)
	case message.Put:
		r.handlePut(msg)
	default:
		// Ok/Fail/Redirect arriving as client messages are protocol
		// errors; drop them.
	}
}

func (r *Replica) handleGet(msg message.Message) {
	if r.role.Kind != role.Leader {
		resp := message.Reply(msg, r.id, r.leader, message.Redirect)
		r.sender.Send(resp)
		return
	}
	value, ok := r.sm.Get(msg.Key)
	if !ok {
		r.sender.Send(message.Reply(msg, r.id, r.leader, message.Fail))
		return
	}
	resp := message.Reply(msg, r.id, r.leader, message.Ok)
	resp.Value = value
	r.sender.Send(resp)
}

func (r *Replica) handlePut(msg message.Message) {
	if r.role.Kind != role.Leader {
		r.sender.Send(message.Reply(msg, r.id, r.leader, message.Redirect))
		return
	}

	entry := raftlog.Entry{Key: msg.Key, Value: msg.Value, Term: r.currentTerm}
	r.role.Leader.Outstanding[entry] = msg
	r.log.AppendMany(entry)

	for _, peer := range r.peers {
		r.sendAppendEntriesTo(peer)
	}
	// A lone replica (no peers) constitutes its own majority; advance
	// immediately rather than waiting on a quorum that will never arrive.
	r.tryAdvanceCommit()
}
