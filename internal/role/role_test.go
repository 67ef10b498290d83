package role_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jamesmcnamara/raftkv/internal/message"
	"github.com/jamesmcnamara/raftkv/internal/role"
)

func TestNewCandidateSeedsSelfVote(t *testing.T) {
	self := message.MustParseID("self")
	r := role.NewCandidate(self)

	assert.Equal(t, role.Candidate, r.Kind)
	assert.Len(t, r.Candidate.Votes, 1)

	peer := message.MustParseID("peer")
	votes := r.Candidate.Grant(peer)
	assert.Equal(t, 2, votes)

	// Granting the same peer twice does not double-count.
	votes = r.Candidate.Grant(peer)
	assert.Equal(t, 2, votes)
}

func TestNewLeaderInitializesPerPeerState(t *testing.T) {
	peers := []message.ID{message.MustParseID("pr01"), message.MustParseID("pr02")}
	r := role.NewLeader(peers, 5)

	assert.Equal(t, role.Leader, r.Kind)
	for _, p := range peers {
		assert.Equal(t, uint64(5), r.Leader.NextIndex[p])
		assert.Equal(t, uint64(0), r.Leader.MatchIndex[p])
	}
	assert.Empty(t, r.Leader.Outstanding)
}

func TestNewFollowerHasNoVariantState(t *testing.T) {
	r := role.NewFollower()
	assert.Equal(t, role.Follower, r.Kind)
	assert.Nil(t, r.Candidate)
	assert.Nil(t, r.Leader)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "follower", role.Follower.String())
	assert.Equal(t, "candidate", role.Candidate.String())
	assert.Equal(t, "leader", role.Leader.String())
}
