package extension

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/Fantom-foundation/contract-runtime/executor"
	"github.com/Fantom-foundation/contract-runtime/logger"
	"github.com/Fantom-foundation/contract-runtime/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MakeMetricsServer creates an extension serving the metrics of the given
// gatherer on the configured address for the duration of a run.
func MakeMetricsServer(cfg *utils.Config, gatherer prometheus.Gatherer) executor.Extension {
	return makeMetricsServer(cfg, gatherer, logger.NewLogger(cfg.LogLevel, "Metrics-Server"))
}

func makeMetricsServer(cfg *utils.Config, gatherer prometheus.Gatherer, log logger.Logger) executor.Extension {
	if cfg.MetricsAddr == "" {
		return NilExtension{}
	}
	return &metricsServer{
		addr:     cfg.MetricsAddr,
		gatherer: gatherer,
		log:      log,
	}
}

type metricsServer struct {
	NilExtension
	addr     string
	gatherer prometheus.Gatherer
	log      logger.Logger
	server   *http.Server
	listener net.Listener
	done     chan struct{}
}

func (e *metricsServer) PreRun(executor.State, *executor.Context) error {
	listener, err := net.Listen("tcp", e.addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.gatherer, promhttp.HandlerOpts{}))
	e.listener = listener
	e.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	e.done = make(chan struct{})

	e.log.Infof("Starting metrics server at http://%v/metrics", listener.Addr())
	go func() {
		defer close(e.done)
		if err := e.server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			e.log.Errorf("Metrics server failed; %v", err)
		}
	}()
	return nil
}

func (e *metricsServer) PostRun(executor.State, *executor.Context, error) error {
	if e.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := e.server.Shutdown(ctx)
	<-e.done
	e.server = nil
	return err
}
