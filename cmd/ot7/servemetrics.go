package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/otseven/OT7-sub000/internal/metrics"
	"github.com/otseven/OT7-sub000/internal/otlog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func serveMetricsCmd(g *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve-metrics",
		Short: "Expose Prometheus metrics over HTTP",
		Long: `Starts a small HTTP server exposing /metrics for scraping. This is
operational tooling, not part of the OT7 protocol: it lets encode/decode
runs sharing this process's metrics registry be monitored the way the
teacher exposes its own agent health over HTTP.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := g.logger()
			metrics.Default() // ensure the default collectors are registered

			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}))
			mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("OK\n"))
			})

			srv := &http.Server{
				Handler:      mux,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Second,
			}

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", addr, err)
			}

			go func() {
				if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
					logger.Error("metrics server stopped", otlog.KeyError, err.Error())
				}
			}()

			logger.Info("metrics server listening", "addr", ln.Addr().String())
			fmt.Printf("serving metrics on %s/metrics\n", ln.Addr().String())

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":9090", "address to listen on for the /metrics endpoint")
	return cmd
}
