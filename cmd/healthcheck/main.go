// Command healthcheck is the container health check for creditgate. It exits 0 when
// the gateway's /healthz endpoint answers 200 with status "ok".
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/ericfisherdev/creditgate/internal/config"
)

// defaultAddr matches the server's default listen address.
const defaultAddr = "127.0.0.1:6969"

const checkTimeout = 2 * time.Second

// listenConfig reads only the listen address, so the check works without the
// store and bank settings the server needs.
type listenConfig struct {
	ListenAddr string `env:"LISTEN_ADDR"`
}

type healthBody struct {
	Status string `json:"status"`
}

func main() {
	var cfg listenConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: config.Prefix}); err != nil {
		fmt.Fprintln(os.Stderr, "healthcheck:", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	client := &http.Client{Timeout: checkTimeout}
	if err := checkHealth(ctx, client, normalizeAddr(cfg.ListenAddr)); err != nil {
		fmt.Fprintln(os.Stderr, "healthcheck:", err)
		os.Exit(1)
	}
}

// checkHealth fails unless GET /healthz on addr returns 200 with status "ok".
func checkHealth(ctx context.Context, client *http.Client, addr string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("GET /healthz: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET /healthz: status %d", resp.StatusCode)
	}

	var body healthBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<10)).Decode(&body); err != nil {
		return fmt.Errorf("decoding /healthz body: %w", err)
	}
	if body.Status != "ok" {
		return fmt.Errorf("gateway reports status %q", body.Status)
	}
	return nil
}

// normalizeAddr maps a bind-all listen address to loopback; the check runs
// inside the gateway's own container.
func normalizeAddr(raw string) string {
	if raw == "" {
		return defaultAddr
	}

	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return defaultAddr
	}

	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}

	return net.JoinHostPort(host, port)
}
