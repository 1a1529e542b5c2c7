package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nootr/glimit/metrics"
	"github.com/nootr/glimit/pkg/glimit"
)

func main() {
	port := flag.String("port", "8080", "Port to run the server on")
	configFile := flag.String("config", "cmd/demo/config.yaml", "Path to configuration file")
	flag.Parse()

	log.Println("Loading configuration from:", *configFile)
	limiter, err := glimit.NewRateLimiter(
		glimit.WithConfigFile(*configFile),
		glimit.WithRecorder(metrics.NewRecorder(prometheus.DefaultRegisterer)),
	)
	if err != nil {
		log.Fatalf("Failed to create rate limiter: %v", err)
	}

	stopSweeper := limiter.StartSweeper()
	defer stopSweeper()
	log.Println("Rate limiter initialized, sweeper running")

	mux := http.NewServeMux()

	// Unthrottled endpoints
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Rate-limited API endpoints
	mux.Handle("/api/search", limiter.Middleware(jsonHandler(`{"results": []}`)))
	mux.Handle("/api/login", limiter.Middleware(jsonHandler(`{"status": "ok"}`)))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintf(w, `glimit demo server

Available endpoints:
  GET  /health       - Health check (no rate limit)
  GET  /metrics      - Prometheus metrics
  GET  /api/search   - Search endpoint (default policy)
  POST /api/login    - Login endpoint (strict policy)

Try it:
  curl -i http://localhost:%s/api/search
`, *port)
	})

	addr := ":" + *port
	log.Println("Listening on", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func jsonHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, body)
	})
}
