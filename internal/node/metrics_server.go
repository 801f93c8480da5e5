package node

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/catapult-go/chainsync/libs/log"
)

// MetricsServer serves Prometheus's /metrics endpoint on a fixed address for
// the life of the node.
type MetricsServer struct {
	server *http.Server
	logger log.Logger
}

// NewMetricsServer constructs a MetricsServer listening on addr.
func NewMetricsServer(logger log.Logger, addr string) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &MetricsServer{
		server: &http.Server{Addr: addr, Handler: mux},
		logger: logger,
	}
}

// Start begins serving in the background. It returns immediately.
func (s *MetricsServer) Start() {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server stopped unexpectedly", "err", err)
		}
	}()
	s.logger.Info("metrics server started", "addr", s.server.Addr)
}

// Stop shuts the server down, waiting up to 5 seconds for in-flight scrapes.
func (s *MetricsServer) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(ctx)
}
