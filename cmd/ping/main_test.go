package main

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectPort(t *testing.T) {
	assert.Equal(t, 9090, detectPort("9090"))
	assert.Equal(t, defaultPort, detectPort(""))
	assert.Equal(t, defaultPort, detectPort("abc"))
	assert.Equal(t, defaultPort, detectPort("70000"))
}

func TestProbe(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode int
	}{
		{"healthy", http.StatusOK, `{"status":"ok","store":"memory"}`, 0},
		{"empty body", http.StatusOK, ``, 0},
		{"store down", http.StatusServiceUnavailable, `{"status":"down","error":"no primary"}`, codeBadHTTPStatus},
		{"unhealthy status", http.StatusOK, `{"status":"degraded"}`, codeReportedUnhealthy},
		{"garbage", http.StatusOK, `{not json`, codeDecodeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := probe(srv.Client(), srv.URL+healthEndpoint)
			if tt.wantCode == 0 {
				require.NoError(t, err)
				return
			}
			var pe *probeError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.wantCode, pe.code)
		})
	}
}

func TestProbeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := probe(srv.Client(), url)
	var pe *probeError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, codeRequestFailed, pe.code)
}
