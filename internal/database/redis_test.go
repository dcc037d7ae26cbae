package database

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestConnectRedis(t *testing.T) {
	_, err := ConnectRedis("  ")
	require.Error(t, err)

	server := miniredis.RunT(t)
	client, err := ConnectRedis("redis://" + server.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	server.Close()
	_, err = ConnectRedis("redis://" + server.Addr())
	require.Error(t, err)
}
