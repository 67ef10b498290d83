// Command replica runs one member of a raftkv cluster: it dials its
// transport endpoint, starts the consensus event loop, and blocks until the
// inbound queue closes.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jamesmcnamara/raftkv/internal/config"
	"github.com/jamesmcnamara/raftkv/internal/message"
	"github.com/jamesmcnamara/raftkv/internal/metrics"
	"github.com/jamesmcnamara/raftkv/internal/replica"
	"github.com/jamesmcnamara/raftkv/internal/rlog"
	"github.com/jamesmcnamara/raftkv/internal/transport"
)

var (
	clusterFile string
	adminAddr   string
	logLevel    string
)

func main() {
	root := &cobra.Command{
		Use:   "replica <id> [peer ...]",
		Short: "Run one replica of a raftkv cluster",
		Args:  cobra.MinimumNArgs(0),
		RunE:  run,
	}
	root.Flags().StringVar(&clusterFile, "cluster-file", "", "YAML file supplying id/peers instead of argv")
	root.Flags().StringVar(&adminAddr, "admin-addr", ":0", "address the metrics HTTP server listens on")
	root.Flags().StringVar(&logLevel, "log-level", "info", "debug enables development-mode (human-readable) logging")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	self, peers, err := resolveCluster(args)
	if err != nil {
		return pkgerrors.Wrap(err, "resolve cluster")
	}

	logger := rlog.New(self, logLevel == "debug")
	defer logger.Sync()

	mx := metrics.New(self)
	adminListener, err := net.Listen("tcp", adminAddr)
	if err != nil {
		return pkgerrors.Wrap(err, "start admin listener")
	}
	logger.Base().Info("metrics listening", zap.String("addr", adminListener.Addr().String()))
	adminServer := &http.Server{Handler: mx.Handler()}
	go func() {
		if err := adminServer.Serve(adminListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Base().Warn("metrics server exited", zap.Error(err))
		}
	}()

	shim, err := transport.Dial(self.String(), logger.Base(), mx)
	if err != nil {
		return pkgerrors.Wrapf(err, "dial transport endpoint %q", self.String())
	}
	defer shim.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go shim.Run(ctx)

	r := replica.New(self, peers, shim, mx, logger)
	r.Run(ctx, shim.Recv())

	return adminServer.Close()
}

// resolveCluster resolves this replica's id and peer list from positional
// args, falling back to --cluster-file when no id is given positionally.
func resolveCluster(args []string) (message.ID, []message.ID, error) {
	if len(args) == 0 {
		if clusterFile == "" {
			return message.ID{}, nil, errors.New("replica id is required: pass it positionally or via --cluster-file")
		}
		c, err := config.Load(clusterFile)
		if err != nil {
			return message.ID{}, nil, err
		}
		return c.IDs()
	}

	self, err := message.ParseID(args[0])
	if err != nil {
		return message.ID{}, nil, pkgerrors.Wrap(err, "replica id")
	}
	peers := make([]message.ID, 0, len(args)-1)
	for _, a := range args[1:] {
		peer, err := message.ParseID(a)
		if err != nil {
			return message.ID{}, nil, pkgerrors.Wrap(err, "peer id")
		}
		peers = append(peers, peer)
	}
	return self, peers, nil
}
