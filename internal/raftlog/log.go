// Package raftlog implements the replicated log. Log indices are counted
// from a virtual origin at index 0 (always term 0, whether or not the log
// is empty — a sentinel so prev-link checks remain well-defined at the log
// origin); the first real entry lives at index 1, the second at index 2,
// and so on. Under this numbering prevIndex 0 always means "nothing before
// this point," independent of how many entries the log actually holds.
package raftlog

import "golang.org/x/exp/slices"

// Entry is an atomic replicated record: a key/value write proposed during
// a given term. Two entries with the same index and term must be identical
// across every replica.
type Entry struct {
	Key   string
	Value string
	Term  uint64
}

// Log is the sequence of entries held by one replica. By convention only
// the replica's event-loop goroutine ever mutates it, so no locking is
// needed.
type Log struct {
	entries []Entry // entries[i] is the entry at index i+1
}

// New returns an empty log.
func New() *Log {
	return &Log{}
}

// Length returns the current number of entries: also the 1-based index of
// the final entry (see LastIndex), and the leader's initial nextIndex for a
// fresh peer.
func (l *Log) Length() int {
	return len(l.entries)
}

// LastIndex returns 0 for an empty log, else Length(), the index of the
// final entry.
func (l *Log) LastIndex() uint64 {
	return uint64(len(l.entries))
}

// LastTerm returns 0 for an empty log; otherwise the term of the entry at
// LastIndex().
func (l *Log) LastTerm() uint64 {
	return l.TermAt(l.LastIndex())
}

// TermAt returns 0 for index 0 (the origin sentinel, always); otherwise
// the term of the entry at the 1-based index i. An out-of-range i has no
// defined term; Matches treats that case as a mismatch rather than
// calling TermAt.
func (l *Log) TermAt(i uint64) uint64 {
	if i == 0 {
		return 0
	}
	if i > uint64(len(l.entries)) {
		return 0
	}
	return l.entries[i-1].Term
}

// EntryAt returns the entry at the 1-based index i and whether it exists.
func (l *Log) EntryAt(i uint64) (Entry, bool) {
	if i == 0 || i > uint64(len(l.entries)) {
		return Entry{}, false
	}
	return l.entries[i-1], true
}

// Matches reports whether prevIndex/prevTerm describe a point this log
// actually holds: since index 0 is always the sentinel term 0, prevIndex
// == 0 matches iff prevTerm == 0; otherwise it matches iff an entry exists
// at prevIndex whose term equals prevTerm.
func (l *Log) Matches(prevIndex, prevTerm uint64) bool {
	if prevIndex == 0 {
		return prevTerm == 0
	}
	entry, ok := l.EntryAt(prevIndex)
	if !ok {
		return false
	}
	return entry.Term == prevTerm
}

// TruncateAfter retains indices [0, prevIndex] and drops the tail.
func (l *Log) TruncateAfter(prevIndex uint64) {
	if prevIndex >= uint64(len(l.entries)) {
		return
	}
	l.entries = l.entries[:prevIndex]
}

// AppendMany appends entries in order.
func (l *Log) AppendMany(entries ...Entry) {
	l.entries = append(l.entries, entries...)
}

// SliceFrom returns up to max entries starting at the 1-based index i,
// cloned so the caller can't alias the log's backing array against one an
// earlier in-flight send still references. Used by the leader to bound
// the size of a single AppendEntries request.
func (l *Log) SliceFrom(i uint64, max int) []Entry {
	if i == 0 {
		i = 1
	}
	if i > uint64(len(l.entries)) {
		return nil
	}
	end := i - 1 + uint64(max)
	if end > uint64(len(l.entries)) {
		end = uint64(len(l.entries))
	}
	return slices.Clone(l.entries[i-1 : end])
}
