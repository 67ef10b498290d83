// Package transport implements the shim bridging a line-delimited byte
// pipe and a typed Message channel. It reads bytes, splits on newline,
// decodes each segment as a message.Message, and enqueues it; on the write
// side it serializes a Message and emits "<json>\n". Malformed segments
// are dropped with a log line; decoding errors are never fatal.
package transport

import (
	"bufio"
	"context"
	"io"
	"net"
	"sync"

	"github.com/jamesmcnamara/raftkv/internal/message"
	"github.com/jamesmcnamara/raftkv/internal/metrics"
	"go.uber.org/zap"
)

// Shim bridges a single net.Conn to a Message channel in each direction.
type Shim struct {
	conn   net.Conn
	logger *zap.Logger
	mx     *metrics.Registry

	inbound chan message.Message

	writeMu sync.Mutex
}

// Dial opens the unix-domain endpoint named after this replica's identifier:
// the replica connects to a pre-existing named endpoint whose path equals
// the replica identifier.
func Dial(path string, logger *zap.Logger, mx *metrics.Registry) (*Shim, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, err
	}
	return New(conn, logger, mx), nil
}

// New wraps an already-open connection (used directly in tests, where a
// net.Pipe() stands in for the unix socket).
func New(conn net.Conn, logger *zap.Logger, mx *metrics.Registry) *Shim {
	return &Shim{
		conn:    conn,
		logger:  logger,
		mx:      mx,
		inbound: make(chan message.Message, 256),
	}
}

// Recv returns the channel of successfully decoded inbound messages, in
// on-wire arrival order. The shim preserves on-wire order in each
// direction, but makes no cross-peer ordering guarantee.
func (s *Shim) Recv() <-chan message.Message {
	return s.inbound
}

// Run is the shim's reader loop, the one extra goroutine running alongside
// the replica's own event loop. It closes the inbound channel (and so,
// transitively, ends the replica's process cleanly) when the connection's
// reads stop, either because the peer closed it or ctx was cancelled.
func (s *Shim) Run(ctx context.Context) {
	defer close(s.inbound)

	go func() {
		<-ctx.Done()
		s.conn.Close()
	}()

	scanner := bufio.NewScanner(s.conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		msg, err := message.Decode(line)
		if err != nil {
			s.logger.Warn("dropping malformed frame", zap.Error(err), zap.ByteString("frame", line))
			continue
		}
		select {
		case s.inbound <- msg:
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		s.logger.Warn("transport read ended with error", zap.Error(err))
	}
}

// Send best-effort writes msg to the peer pipe; it is fire-and-forget, so
// failures are logged but never propagated or retried inline.
func (s *Shim) Send(msg message.Message) {
	encoded, err := message.Encode(msg)
	if err != nil {
		s.logger.Warn("failed to encode outbound message", zap.Error(err))
		if s.mx != nil {
			s.mx.SendErrors.Inc()
		}
		return
	}
	encoded = append(encoded, '\n')

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.conn.Write(encoded); err != nil {
		s.logger.Warn("failed to write outbound message", zap.Error(err), zap.String("dst", msg.Dst.String()))
		if s.mx != nil {
			s.mx.SendErrors.Inc()
		}
	}
}

// Close releases the underlying connection.
func (s *Shim) Close() error {
	return s.conn.Close()
}
