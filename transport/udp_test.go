package transport

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listen(t *testing.T) *net.UDPConn {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	return conn
}

func receive(t *testing.T, conn *net.UDPConn) []byte {
	buf := make([]byte, 2048)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := conn.ReadFromUDP(buf)
	require.NoError(t, err)
	return buf[:n]
}

func TestSend(t *testing.T) {
	server := listen(t)
	defer server.Close()

	u := NewUDP(server.LocalAddr().String())
	defer u.Close()

	require.NoError(t, u.Send([]byte{'P', 1, 0, 0}))
	assert.Equal(t, []byte{'P', 1, 0, 0}, receive(t, server))

	require.NoError(t, u.Send([]byte{'I', 2, 0, 0, 0, 0}))
	assert.Equal(t, []byte{'I', 2, 0, 0, 0, 0}, receive(t, server))
}

func TestSendOnce(t *testing.T) {
	server := listen(t)
	defer server.Close()

	require.NoError(t, SendOnce(server.LocalAddr().String(), []byte("hello")))
	assert.Equal(t, []byte("hello"), receive(t, server))
}

func TestBadAddress(t *testing.T) {
	u := NewUDP("no-port-here")
	assert.Error(t, u.Send([]byte{1}))
	assert.NoError(t, u.Close())
}
