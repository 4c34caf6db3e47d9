package metric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer_Defaults(t *testing.T) {
	server := NewServer(0, "", NewMetricsRegistry())

	assert.Equal(t, "http://localhost:9090/metrics", server.Address())
}

func TestNewServer_CustomPortAndPath(t *testing.T) {
	server := NewServer(8181, "/stats", NewMetricsRegistry())

	assert.Equal(t, "http://localhost:8181/stats", server.Address())
}

func TestServer_StartWithoutRegistry(t *testing.T) {
	server := NewServer(9090, "", nil)

	err := server.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registry")
}

func TestServer_StopWithoutStart(t *testing.T) {
	server := NewServer(9090, "", NewMetricsRegistry())

	require.NoError(t, server.Stop())
}
