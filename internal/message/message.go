// Package message implements the wire-level Message envelope and body
// variants: a tagged union encoded as a single JSON object, terminated by
// a newline by the transport shim.
package message

import (
	"errors"

	jsoniter "github.com/json-iterator/go"
)

// json is configured compatible with encoding/json (same struct-tag
// semantics, same map-key ordering on encode) so nothing about the wire
// format changes by picking a faster codec.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Type is the wire discriminator carried in the "type" field.
type Type string

const (
	Get            Type = "get"
	Put            Type = "put"
	Ok             Type = "ok"
	Fail           Type = "fail"
	Redirect       Type = "redirect"
	AppendEntries  Type = "append_entries"
	AppendResp     Type = "ae_resp"
	RequestVote    Type = "request_vote"
	VoteResp       Type = "rv_resp"
)

// ErrUnknownType is returned by Decode when the "type" field doesn't match
// any of the variants above. This is a protocol error the caller should
// log and drop, never propagate.
var ErrUnknownType = errors.New("message: unknown type")

// ErrMalformed is returned by Decode for a frame that does not parse as a
// JSON object of the Message shape. A frame missing a field its variant
// uses is not rejected: the field decodes to its zero value.
var ErrMalformed = errors.New("message: malformed frame")

// Entry is the wire representation of a replicated log entry, used inside
// an append_entries body. It is intentionally a standalone type (not
// raftlog.Entry) so this package has no dependency on the log package;
// internal/replica converts between the two at the boundary.
type Entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Term  uint64 `json:"term"`
}

// Message is the common envelope plus every body variant's fields,
// flattened. Only the fields relevant to Type are populated; the rest are
// left zero and omitted on encode.
type Message struct {
	Src    ID   `json:"src"`
	Dst    ID   `json:"dst"`
	Leader ID   `json:"leader"`
	MID    string `json:"MID"`
	Type   Type   `json:"type"`

	// get, put
	Key   string `json:"key,omitempty"`
	Value string `json:"value,omitempty"`

	// ok (value optional, present for reads only)

	// append_entries, request_vote (details)
	Term          uint64  `json:"term,omitempty"`
	LastEntry     uint64  `json:"last_entry,omitempty"`
	LastEntryTerm uint64  `json:"last_entry_term,omitempty"`
	LeaderCommit  uint64  `json:"leader_commit,omitempty"`
	Entries       []Entry `json:"entries,omitempty"`

	// ae_resp
	Success    bool   `json:"success,omitempty"`
	MatchIndex uint64 `json:"match_index,omitempty"`

	// request_vote
	CandidateID *ID `json:"candidate_id,omitempty"`

	// rv_resp
	Vote bool `json:"vote,omitempty"`
}

// Encode serializes msg as a single JSON object (no trailing newline; the
// transport shim owns framing).
func Encode(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// Decode parses a single JSON object into a Message, validating that Type
// is one of the known variants. It does not enforce per-variant required
// fields beyond what json-iterator's struct decode already guarantees
// (zero values for absent fields) — callers that need e.g. a non-empty Key
// on Get check that themselves, since a missing field just decodes to a
// zero-value Go field rather than an error.
func Decode(raw []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Message{}, ErrMalformed
	}
	switch msg.Type {
	case Get, Put, Ok, Fail, Redirect, AppendEntries, AppendResp, RequestVote, VoteResp:
		return msg, nil
	default:
		return Message{}, ErrUnknownType
	}
}

// Reply builds the envelope for a reply to msg: src/dst swapped, leader
// stamped to the replica's current belief, MID echoed verbatim since it is
// an opaque client-supplied correlation id.
func Reply(to Message, from, leader ID, typ Type) Message {
	return Message{
		Src:    from,
		Dst:    to.Src,
		Leader: leader,
		MID:    to.MID,
		Type:   typ,
	}
}

// IsClient reports whether typ is a client-facing RPC or reply, as opposed
// to an internal node-to-node RPC.
func (t Type) IsClient() bool {
	switch t {
	case Get, Put, Ok, Fail, Redirect:
		return true
	default:
		return false
	}
}

// IsNode reports whether typ is an internal replica-to-replica RPC.
func (t Type) IsNode() bool {
	switch t {
	case AppendEntries, AppendResp, RequestVote, VoteResp:
		return true
	default:
		return false
	}
}
