package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propindex/pkg/common"
)

func TestEncodeDecode(t *testing.T) {
	buf := new(bytes.Buffer)
	key := EncodeKey(1000.5)
	val := []byte(`{"city":"Cali"}`)

	require.NoError(t, Encode(buf, OpInsert, key, val))

	pkt, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, byte(OpInsert), pkt.Op)
	assert.Equal(t, key, pkt.Key)
	assert.Equal(t, val, pkt.Value)
}

func TestDecodeInvalidMagic(t *testing.T) {
	buf := bytes.NewReader([]byte{0x00, OpPut, 0, 8, 0, 0, 0, 5, 'h', 'e', 'l', 'l', 'o'})
	_, err := Decode(buf)
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestDecodeEmptyKeyValue(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, Encode(buf, OpTree, nil, nil))
	pkt, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, byte(OpTree), pkt.Op)
	assert.Empty(t, pkt.Key)
	assert.Empty(t, pkt.Value)
}

func TestDecodeIncompleteFrame(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte{MagicNumber, OpGet}))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = Decode(bytes.NewReader(nil))
	assert.ErrorIs(t, err, io.EOF)

	// header promises 8 key bytes, only 3 follow
	_, err = Decode(bytes.NewReader([]byte{MagicNumber, OpGet, 0, 8, 0, 0, 0, 0, 1, 2, 3}))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDecodeRejectsOversizedValue(t *testing.T) {
	header := []byte{MagicNumber, OpPut, 0, 0, 0, 0, 0, 0}
	binary.BigEndian.PutUint32(header[4:], MaxValueSize+1)
	_, err := Decode(bytes.NewReader(header))
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestKeyCodec(t *testing.T) {
	for _, k := range []common.KeyType{0, -3.25, 1e300, math.Inf(1), math.SmallestNonzeroFloat64} {
		got, err := DecodeKey(EncodeKey(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := DecodeKey([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrBadKey)
}

func TestStatusRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   byte
		sentinel error
	}{
		{"not found", fmt.Errorf("%w: 42", common.ErrNotFound), RespNotFound, common.ErrNotFound},
		{"invalid record", fmt.Errorf("%w: surface_total must be positive", common.ErrInvalidRecord), RespInvalid, common.ErrInvalidRecord},
		{"malformed criteria", fmt.Errorf("%w: min > max", common.ErrMalformedCriteria), RespInvalid, common.ErrMalformedCriteria},
		{"bad key", ErrBadKey, RespInvalid, common.ErrInvalidRecord},
		{"other", errors.New("disk on fire"), RespErr, ErrRemote},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := StatusOf(tt.err)
			assert.Equal(t, tt.status, status)

			err := ErrorOf(&Packet{Op: status, Value: []byte(tt.err.Error())})
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}

	assert.NoError(t, ErrorOf(&Packet{Op: RespVal}))
	assert.Equal(t, "key not found: 42",
		ErrorOf(&Packet{Op: RespNotFound, Value: []byte("key not found: 42")}).Error())
}
