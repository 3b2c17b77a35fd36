package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inquesthq/inquest/internal/logging"
)

// Listener serves the Prometheus scrape endpoint on /metrics. It implements
// lifecycle.Component: Start binds the address synchronously so port
// conflicts surface as start failures, then serves in the background.
type Listener struct {
	addr     string
	gatherer prometheus.Gatherer
	logger   *logging.Logger

	server *http.Server
	bound  net.Addr
}

// NewListener creates a listener for the given host:port. The gatherer is
// usually the same registry the Sink registers into.
func NewListener(addr string, gatherer prometheus.Gatherer) *Listener {
	return &Listener{
		addr:     addr,
		gatherer: gatherer,
		logger:   logging.GetLogger("metrics.listener"),
	}
}

// Name implements lifecycle.Component.
func (l *Listener) Name() string {
	return "metrics-listener"
}

// Start implements lifecycle.Component.
func (l *Listener) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return err
	}
	l.bound = ln.Addr()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(l.gatherer, promhttp.HandlerOpts{}))

	l.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := l.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.logger.Error("Metrics listener failed: %v", err)
		}
	}()

	l.logger.Info("Serving metrics on %s/metrics", l.bound)
	return nil
}

// Addr returns the bound address, useful when Start was given port 0.
func (l *Listener) Addr() string {
	if l.bound == nil {
		return l.addr
	}
	return l.bound.String()
}

// Stop implements lifecycle.Component.
func (l *Listener) Stop(ctx context.Context) error {
	if l.server == nil {
		return nil
	}
	return l.server.Shutdown(ctx)
}
