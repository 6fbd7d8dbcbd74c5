package httpserver

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	s := New(http.NotFoundHandler(),
		Port("0"),
		ReadTimeout(time.Second),
		WriteTimeout(0),
		ShutdownTimeout(2*time.Second),
	)

	assert.Equal(t, ":0", s.Addr())
	assert.Equal(t, time.Second, s.server.ReadTimeout)
	assert.Zero(t, s.server.WriteTimeout)
	assert.Equal(t, 2*time.Second, s.shutdownTimeout)

	require.NoError(t, s.Shutdown())
	assert.ErrorIs(t, <-s.Notify(), http.ErrServerClosed)
}
