package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasleandrokruk/toolhost/internal/infra/config"
	"github.com/matiasleandrokruk/toolhost/internal/infra/logging"
)

func testHTTPConfig(addr string) config.HTTPConfig {
	return config.HTTPConfig{
		Addr:            addr,
		ReadTimeout:     time.Second,
		WriteTimeout:    2 * time.Second,
		IdleTimeout:     3 * time.Second,
		ShutdownTimeout: time.Second,
	}
}

func TestNew_ConfiguresHTTPServer(t *testing.T) {
	t.Parallel()

	s := New(http.NotFoundHandler(), testHTTPConfig("127.0.0.1:18080"), nil)
	require.NotNil(t, s.http.Handler)
	assert.Equal(t, "127.0.0.1:18080", s.Addr())
	assert.Equal(t, time.Second, s.http.ReadTimeout)
	assert.Equal(t, 2*time.Second, s.http.WriteTimeout)
	assert.Equal(t, 3*time.Second, s.http.IdleTimeout)
}

func TestServe_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "pong") //nolint:errcheck
	})
	s := New(handler, testHTTPConfig(ln.Addr().String()), logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestRun_ListenError(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	s := New(http.NotFoundHandler(), testHTTPConfig(ln.Addr().String()), logging.Discard())
	err = s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen")
}
