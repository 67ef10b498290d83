package raftlog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jamesmcnamara/raftkv/internal/raftlog"
)

func TestEmptyLog(t *testing.T) {
	l := raftlog.New()
	assert.Equal(t, 0, l.Length())
	assert.Equal(t, uint64(0), l.LastIndex())
	assert.Equal(t, uint64(0), l.LastTerm())
	assert.True(t, l.Matches(0, 0), "an empty log always matches the origin sentinel")
	assert.False(t, l.Matches(1, 0), "a nonexistent prevIndex never matches")
}

func TestAppendAndQuery(t *testing.T) {
	l := raftlog.New()
	l.AppendMany(
		raftlog.Entry{Key: "a", Value: "1", Term: 1},
		raftlog.Entry{Key: "b", Value: "2", Term: 2},
	)

	assert.Equal(t, 2, l.Length())
	assert.Equal(t, uint64(2), l.LastIndex())
	assert.Equal(t, uint64(2), l.LastTerm())
	assert.Equal(t, uint64(1), l.TermAt(1))
	assert.Equal(t, uint64(2), l.TermAt(2))
	assert.Equal(t, uint64(0), l.TermAt(0))

	entry, ok := l.EntryAt(1)
	assert.True(t, ok)
	assert.Equal(t, "a", entry.Key)

	_, ok = l.EntryAt(3)
	assert.False(t, ok)
}

func TestMatches(t *testing.T) {
	l := raftlog.New()
	l.AppendMany(raftlog.Entry{Key: "a", Term: 1}, raftlog.Entry{Key: "b", Term: 1})

	assert.True(t, l.Matches(0, 0))
	assert.True(t, l.Matches(2, 1))
	assert.False(t, l.Matches(2, 2), "term mismatch at an existing index")
	assert.False(t, l.Matches(3, 1), "prevIndex past the end of the log")
}

func TestTruncateAfter(t *testing.T) {
	l := raftlog.New()
	l.AppendMany(
		raftlog.Entry{Key: "a", Term: 1},
		raftlog.Entry{Key: "b", Term: 1},
		raftlog.Entry{Key: "c", Term: 2},
	)

	l.TruncateAfter(1)
	assert.Equal(t, 1, l.Length())
	assert.Equal(t, uint64(1), l.LastTerm())

	// Truncating past the end is a no-op.
	l.TruncateAfter(5)
	assert.Equal(t, 1, l.Length())
}

func TestSliceFromBoundsWindow(t *testing.T) {
	l := raftlog.New()
	for i := 0; i < 5; i++ {
		l.AppendMany(raftlog.Entry{Key: string(rune('a' + i)), Term: 1})
	}

	window := l.SliceFrom(2, 2)
	if assert.Len(t, window, 2) {
		assert.Equal(t, "b", window[0].Key)
		assert.Equal(t, "c", window[1].Key)
	}

	assert.Nil(t, l.SliceFrom(10, 2), "starting past the end yields nothing")
}

func TestSliceFromIsDefensiveCopy(t *testing.T) {
	l := raftlog.New()
	l.AppendMany(raftlog.Entry{Key: "a", Term: 1})

	s := l.SliceFrom(1, 10)
	s[0].Key = "mutated"

	entry, _ := l.EntryAt(1)
	assert.Equal(t, "a", entry.Key, "mutating a returned slice must not alias the log")
}
