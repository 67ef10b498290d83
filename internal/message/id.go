package message

import "fmt"

// ID is a 4-character ASCII replica/client identifier. It is a fixed-size
// array rather than a bare string so a short or malformed identifier fails
// at decode time instead of panicking the first time something indexes
// past the end of it.
type ID [4]byte

// Broadcast is the reserved "no leader known" / "all peers" sentinel.
var Broadcast = ID{'F', 'F', 'F', 'F'}

// ParseID validates and converts a wire string into an ID.
func ParseID(s string) (ID, error) {
	var id ID
	if len(s) != len(id) {
		return id, fmt.Errorf("message: identifier %q is not %d ASCII characters", s, len(id))
	}
	copy(id[:], s)
	return id, nil
}

// MustParseID is ParseID for constants and tests; it panics on a malformed
// identifier.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ID) String() string {
	return string(id[:])
}

// IsBroadcast reports whether id is the FFFF sentinel.
func (id ID) IsBroadcast() bool {
	return id == Broadcast
}

// Ptr returns a pointer to id, for populating the optional candidate_id
// field of a request_vote message.
func (id ID) Ptr() *ID {
	return &id
}

// MarshalText implements encoding.TextMarshaler so json-iterator (configured
// compatible with encoding/json) encodes an ID as its 4-character string.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
