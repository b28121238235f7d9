package serve

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

// MetricsHandler serves the default prometheus registry.
func MetricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// ServeMetrics exposes /metrics on port and returns a function that stops the server.
func ServeMetrics(port uint16) (func(), error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, errors.Wrapf(err, "error listening for metrics on port %d", port)
	}
	return Serve(listener, MetricsHandler()), nil
}

// Serve serves handler on listener in the background until the returned function is called.
func Serve(listener net.Listener, handler http.Handler) func() {
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: shutdownTimeout}
	addr := listener.Addr().String()
	go func() {
		log.Infof("Starting http server listening on %s", addr)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Errorf("Http server listening on %s failed", addr)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Infof("Stopping http server listening on %s", addr)
		if err := srv.Shutdown(ctx); err != nil {
			log.WithError(err).Warnf("Error stopping http server listening on %s", addr)
		}
	}
}
