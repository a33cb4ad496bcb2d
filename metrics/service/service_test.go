package service

import (
	"io"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceServesGatherer(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "blackhole_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Add(3)

	s, err := NewService("tcp", "127.0.0.1:0", PathOption("/m"), GathererOption(reg))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Serve() }()

	resp, err := http.Get("http://" + s.Addr().String() + "/m")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "blackhole_test_total 3")

	assert.False(t, s.IsClosed())
	require.NoError(t, s.Close())
	assert.True(t, s.IsClosed())
	assert.NoError(t, <-done)
}
