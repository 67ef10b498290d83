package rlog_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jamesmcnamara/raftkv/internal/message"
	"github.com/jamesmcnamara/raftkv/internal/rlog"
)

func TestNewAndWith(t *testing.T) {
	id := message.MustParseID("abcd")
	logger := rlog.New(id, true)
	require.NotNil(t, logger.Base())

	bound := logger.With(5, "leader")
	require.NotNil(t, bound)
	_ = logger.Sync()
}
