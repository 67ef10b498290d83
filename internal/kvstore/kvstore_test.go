package kvstore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jamesmcnamara/raftkv/internal/kvstore"
)

func TestGetMiss(t *testing.T) {
	s := kvstore.New()
	_, ok := s.Get("missing")
	assert.False(t, ok)
}

func TestApplyThenGet(t *testing.T) {
	s := kvstore.New()
	s.Apply("k", "v1")
	value, ok := s.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v1", value)

	s.Apply("k", "v2")
	value, ok = s.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v2", value, "a later Apply overwrites an earlier one for the same key")
}
