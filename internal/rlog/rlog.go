// Package rlog wraps zap with the fields every log line in this repo
// needs: the replica's own id, term, and role. Grounded on the structured
// key/value logging idiom in
// _examples/other_examples/9ccd88af_ChuLiYu-raft-recovery__internal-raft-rpc.go.go
// ("rf.logger.Info("Vote granted", "candidate", args.CandidateID, "term",
// args.Term)"), adapted to zap's typed field constructors.
package rlog

import (
	"github.com/jamesmcnamara/raftkv/internal/message"
	"go.uber.org/zap"
)

// Logger binds a replica id to every line it emits.
type Logger struct {
	base *zap.Logger
	id   message.ID
}

// New builds a production zap.Logger (or a development one, for readable
// local runs, when debug is true) pre-bound with id.
func New(id message.ID, debug bool) *Logger {
	var z *zap.Logger
	var err error
	if debug {
		z, err = zap.NewDevelopment()
	} else {
		z, err = zap.NewProduction()
	}
	if err != nil {
		// zap's constructors only fail on a broken sink; fall back to a
		// no-op logger rather than taking down the replica over logging.
		z = zap.NewNop()
	}
	return &Logger{base: z.With(zap.String("id", id.String())), id: id}
}

// With returns a child zap.Logger that additionally carries term and role
// on every line, for Replica call sites that log a decision.
func (l *Logger) With(term uint64, roleName string) *zap.Logger {
	return l.base.With(zap.Uint64("term", term), zap.String("role", roleName))
}

// Base returns the unadorned (id-only) zap.Logger, for call sites before a
// term/role is established (e.g. bootstrap).
func (l *Logger) Base() *zap.Logger {
	return l.base
}

// Sync flushes any buffered log entries; call it on shutdown.
func (l *Logger) Sync() error {
	return l.base.Sync()
}
