//go:build nng

// Command plasmad runs one plasma peer: it loads a graph dump and a
// config file, opens a nanomsg/mangos request/reply socket at the
// configured self URL, and serves queries and sub-queries from other
// peers until a shutdown signal arrives.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/plasmagraph/plasmadb/internal/config"
	"github.com/plasmagraph/plasmadb/internal/graphstore"
	"github.com/plasmagraph/plasmadb/internal/logging"
	"github.com/plasmagraph/plasmadb/internal/peer"
	"github.com/plasmagraph/plasmadb/internal/peer/mangos"
	"github.com/plasmagraph/plasmadb/internal/peerauth"
	"github.com/plasmagraph/plasmadb/internal/presence"
	"github.com/plasmagraph/plasmadb/internal/telemetry/metrics"
	"github.com/plasmagraph/plasmadb/internal/telemetry/tracing"
)

func main() {
	configPath := flag.String("config", "", "path to a peer config YAML file")
	graphPath := flag.String("graph", "", "path to a graph dump JSON file")
	metricsAddr := flag.String("metrics-addr", ":9200", "address to serve /metrics and /health on")
	flag.Parse()

	fmt.Println("plasmad - plasma peer daemon")
	fmt.Println("=============================")

	if *configPath == "" {
		log.Fatal("plasmad: -config is required")
	}
	data, err := os.ReadFile(*configPath)
	if err != nil {
		log.Fatalf("plasmad: read config: %v", err)
	}
	cfg, err := config.Load(data)
	if err != nil {
		log.Fatalf("plasmad: invalid config: %v", err)
	}

	logger := logging.NewDefaultLogger()

	store := graphstore.New()
	if *graphPath != "" {
		loaded, err := graphstore.LoadDump(*graphPath)
		if err != nil {
			log.Fatalf("plasmad: load graph: %v", err)
		}
		store = loaded
	}

	reg := metrics.NewRegistry()

	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	defer tp.Shutdown(context.Background())
	tracer := tracing.New()

	p := peer.New(cfg.SelfURL, mangos.NewFactory(), store, logger).
		WithMetrics(reg).
		WithTracer(tracer).
		WithPresence(presence.NewRegistry(), cfg.SeedPeers...)

	if cfg.AuthSecret != "" {
		authMgr, err := peerauth.NewManager(cfg.AuthSecret)
		if err != nil {
			log.Fatalf("plasmad: invalid auth_secret: %v", err)
		}
		p = p.WithAuth(authMgr)
	}

	if err := p.Listen(); err != nil {
		log.Fatalf("plasmad: listen on %s: %v", cfg.SelfURL, err)
	}
	fmt.Printf("listening on %s\n", cfg.SelfURL)
	fmt.Printf("seed peers: %v\n", cfg.SeedPeers)

	metricsSrv := &http.Server{Addr: *metricsAddr, Handler: metricsHandler(reg)}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("plasmad: metrics server stopped", logging.PeerURL(cfg.SelfURL), logging.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	fmt.Println("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	metricsSrv.Shutdown(shutdownCtx)
	if err := p.Close(); err != nil {
		log.Fatalf("plasmad: close: %v", err)
	}
}

func metricsHandler(reg *metrics.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg.Gatherer(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

