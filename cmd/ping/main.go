// Command ping probes the server's /healthz endpoint for container healthchecks:
//
//	HEALTHCHECK CMD ["/ping"]
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"
)

const (
	defaultPort    = 8080
	healthEndpoint = "/healthz"
	statusOK       = "ok"
	requestTimeout = 2 * time.Second

	codeRequestFailed     = 2
	codeBadHTTPStatus     = 3
	codeDecodeError       = 4
	codeReportedUnhealthy = 5
)

// healthResp mirrors the body written by the server's health handler.
type healthResp struct {
	Status     string `json:"status"`
	Store      string `json:"store"`
	ReplicaSet *bool  `json:"replica_set,omitempty"`
	Error      string `json:"error,omitempty"`
}

// probeError carries the exit code matching the failure.
type probeError struct {
	code int
	err  error
}

func (e *probeError) Error() string { return e.err.Error() }

func main() {
	port := detectPort(os.Getenv("APP_PORT"))
	url := fmt.Sprintf("http://localhost:%d%s", port, healthEndpoint)

	h, err := probe(&http.Client{Timeout: requestTimeout}, url)
	if err != nil {
		var pe *probeError
		if errors.As(err, &pe) {
			log.Print(pe)
			os.Exit(pe.code)
		}
		log.Print(err)
		os.Exit(1)
	}

	log.Printf("note-vault healthy on port %d (store=%s)", port, h.Store)
}

// probe fetches url and checks the reported status.
func probe(client *http.Client, url string) (healthResp, error) {
	var h healthResp

	resp, err := client.Get(url)
	if err != nil {
		return h, &probeError{codeRequestFailed, fmt.Errorf("request failed: %w", err)}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("failed to close response body: %v", err)
		}
	}()

	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil && !errors.Is(err, io.EOF) {
		return h, &probeError{codeDecodeError, fmt.Errorf("decode error: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return h, &probeError{codeBadHTTPStatus, fmt.Errorf("unexpected HTTP status %d: %s", resp.StatusCode, h.Error)}
	}
	if h.Status != "" && h.Status != statusOK {
		return h, &probeError{codeReportedUnhealthy, fmt.Errorf("service reported unhealthy: %q", h.Status)}
	}
	return h, nil
}

// detectPort parses APP_PORT and falls back to defaultPort.
func detectPort(v string) int {
	if v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 && p <= 65535 {
			return p
		}
	}
	return defaultPort
}
