// Command mcp serves the relay generate_content, get_settings and
// update_settings tools over MCP stdio.
//
// Configuration comes from the environment (and a .env file if present):
//
//	API_KEY                   comma separated keys; locks the settings
//	RELAY_SETTINGS            memory, file or redis
//	RELAY_SETTINGS_PATH       settings file for the file backend
//	RELAY_REDIS_URL           redis URL for the redis backend
//	RELAY_MODEL               default model
//	RELAY_ISOLATED_ROTATION   give each call its own rotation cursor
//	RELAY_METRICS_ADDR        serve Prometheus metrics on this address
//	RELAY_LOG_LEVEL           debug, info, warn or error
//
// Configuration for an MCP client:
//
//	{
//	    "mcpServers": {
//	        "relay": {
//	            "command": "relay-mcp",
//	            "env": {"RELAY_SETTINGS": "file"}
//	        }
//	    }
//	}
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spetersoncode/relay/client"
	"github.com/spetersoncode/relay/internal/config"
	relaymcp "github.com/spetersoncode/relay/mcp"
	"github.com/spetersoncode/relay/metrics"
)

const eventBuffer = 256

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("relay-mcp: " + err.Error() + "\n")
		os.Exit(1)
	}

	rt, err := cfg.Open(ctx)
	if err != nil {
		os.Stderr.WriteString("relay-mcp: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer rt.Close()
	logger := rt.Logger

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector("relay", reg, logger)

	events := make(chan client.Event, eventBuffer)
	go collector.Consume(ctx, events)

	if cfg.MetricsAddr != "" {
		srv := startMetricsServer(cfg.MetricsAddr, reg, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	c := client.New(client.Config{
		Store:            rt.Store,
		Logger:           logger,
		IsolatedRotation: cfg.IsolatedRotation,
		Events:           events,
	})
	collector.TrackInFlight(c)

	logger.Info("starting MCP server", zap.String("transport", "stdio"))
	if err := relaymcp.ServeStdio(c, rt.Store,
		relaymcp.WithName("relay"),
		relaymcp.WithDefaultModel(cfg.Model),
	); err != nil {
		logger.Error("MCP server stopped", zap.Error(err))
		rt.Close()
		os.Exit(1)
	}
}

func startMetricsServer(addr string, reg *prometheus.Registry, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}
