package message_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesmcnamara/raftkv/internal/message"
)

func TestParseID(t *testing.T) {
	id, err := message.ParseID("node1")
	require.Error(t, err, "5-character id should be rejected")

	id, err = message.ParseID("abcd")
	require.NoError(t, err)
	assert.Equal(t, "abcd", id.String())
	assert.False(t, id.IsBroadcast())

	assert.True(t, message.Broadcast.IsBroadcast())
	assert.Equal(t, "FFFF", message.Broadcast.String())
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	self := message.MustParseID("node")
	msg := message.Message{
		Src:           self,
		Dst:           message.MustParseID("peer"),
		Leader:        self,
		MID:           "abc-123",
		Type:          message.AppendEntries,
		Term:          7,
		LastEntry:     3,
		LastEntryTerm: 2,
		LeaderCommit:  2,
		Entries: []message.Entry{
			{Key: "k", Value: "v", Term: 7},
		},
	}

	encoded, err := message.Encode(msg)
	require.NoError(t, err)

	decoded, err := message.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, msg, decoded)
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := message.Decode([]byte(`{"type":"explode"}`))
	assert.ErrorIs(t, err, message.ErrUnknownType)
}

func TestDecodeMalformed(t *testing.T) {
	_, err := message.Decode([]byte(`not json`))
	assert.ErrorIs(t, err, message.ErrMalformed)
}

func TestCandidateIDOmittedWhenAbsent(t *testing.T) {
	msg := message.Message{Type: message.AppendEntries}
	encoded, err := message.Encode(msg)
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), "candidate_id")
}

func TestCandidateIDPresentWhenSet(t *testing.T) {
	id := message.MustParseID("node")
	msg := message.Message{Type: message.RequestVote, CandidateID: id.Ptr()}
	encoded, err := message.Encode(msg)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), "candidate_id")
}

func TestIsClientIsNode(t *testing.T) {
	for _, typ := range []message.Type{message.Get, message.Put, message.Ok, message.Fail, message.Redirect} {
		assert.True(t, typ.IsClient(), typ)
		assert.False(t, typ.IsNode(), typ)
	}
	for _, typ := range []message.Type{message.AppendEntries, message.AppendResp, message.RequestVote, message.VoteResp} {
		assert.True(t, typ.IsNode(), typ)
		assert.False(t, typ.IsClient(), typ)
	}
}

func TestReplyEchoesMID(t *testing.T) {
	client := message.MustParseID("clnt")
	leader := message.MustParseID("ldr1")
	from := message.MustParseID("ldr1")
	req := message.Message{Src: client, Dst: leader, MID: "req-1", Type: message.Get, Key: "k"}

	reply := message.Reply(req, from, leader, message.Ok)
	assert.Equal(t, from, reply.Src)
	assert.Equal(t, client, reply.Dst)
	assert.Equal(t, "req-1", reply.MID)
	assert.Equal(t, message.Ok, reply.Type)
}
