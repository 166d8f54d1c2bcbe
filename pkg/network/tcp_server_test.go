package network

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propindex/pkg/config"
	"propindex/pkg/core"
	"propindex/pkg/protocol"
)

func TestRawFrames(t *testing.T) {
	store, err := core.NewStore(config.Default(), nil)
	require.NoError(t, err)
	srv := NewTCPServer(store, nil)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go srv.Serve(l)
	defer srv.Close()

	conn, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	tests := []struct {
		name   string
		op     byte
		key    []byte
		value  []byte
		status byte
	}{
		{"short key", protocol.OpGet, []byte{1, 2}, nil, protocol.RespInvalid},
		{"unknown op", 0x7F, nil, nil, protocol.RespErr},
		{"bad json", protocol.OpPut, nil, []byte("{"), protocol.RespInvalid},
		{"put", protocol.OpPut, nil, []byte(`{"city":"Cali","price":10,"surface_total":2}`), protocol.RespVal},
		{"get", protocol.OpGet, protocol.EncodeKey(5), nil, protocol.RespVal},
		{"missing", protocol.OpDel, protocol.EncodeKey(6), nil, protocol.RespNotFound},
		{"empty search", protocol.OpSearch, nil, nil, protocol.RespVal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, protocol.Encode(conn, tt.op, tt.key, tt.value))
			resp, err := protocol.Decode(conn)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.Op, string(resp.Value))
		})
	}
}

func TestCloseDropsConnections(t *testing.T) {
	store, err := core.NewStore(config.Default(), nil)
	require.NoError(t, err)
	srv := NewTCPServer(store, nil)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(l) }()

	conn, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, protocol.Encode(conn, protocol.OpStats, nil, nil))
	_, err = protocol.Decode(conn)
	require.NoError(t, err)

	require.NoError(t, srv.Close())
	assert.NoError(t, <-done)

	_, err = protocol.Decode(conn)
	assert.Error(t, err)
}
