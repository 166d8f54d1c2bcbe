package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"propindex/pkg/common"
)

const (
	MagicNumber = 0x50

	OpPut    = 0x01 // Value=JSON property; reply Key=assigned key
	OpGet    = 0x02 // Key=key; reply Value=JSON property
	OpDel    = 0x03 // Key=key
	OpSearch = 0x04 // Value=JSON criteria; reply Value=JSON records
	OpInsert = 0x05 // Key=key, Value=JSON property
	OpTree   = 0x06 // reply Value=rendered tree
	OpStats  = 0x07 // reply Value=JSON stats
	OpSQL    = 0x08 // Value=query text; reply Value=JSON records

	RespOK       = 0x00
	RespVal      = 0x01
	RespNotFound = 0x02
	RespInvalid  = 0x03
	RespErr      = 0xFF

	// MaxValueSize bounds the body a peer may announce.
	MaxValueSize = 16 << 20
)

var (
	ErrInvalidMagic  = errors.New("invalid magic number")
	ErrFrameTooLarge = errors.New("frame exceeds max value size")
	ErrBadKey        = errors.New("key must be 8 bytes")
	ErrRemote        = errors.New("remote error")
)

type Packet struct {
	Op    byte
	Key   []byte
	Value []byte
}

func Encode(w io.Writer, op byte, key []byte, value []byte) error {
	if len(value) > MaxValueSize || len(key) > math.MaxUint16 {
		return ErrFrameTooLarge
	}
	frame := make([]byte, 8, 8+len(key)+len(value))
	frame[0] = MagicNumber
	frame[1] = op
	binary.BigEndian.PutUint16(frame[2:4], uint16(len(key)))
	binary.BigEndian.PutUint32(frame[4:8], uint32(len(value)))
	frame = append(frame, key...)
	frame = append(frame, value...)

	_, err := w.Write(frame)
	return err
}

func Decode(r io.Reader) (*Packet, error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	if header[0] != MagicNumber {
		return nil, ErrInvalidMagic
	}

	op := header[1]
	kLen := binary.BigEndian.Uint16(header[2:4])
	vLen := binary.BigEndian.Uint32(header[4:8])
	if vLen > MaxValueSize {
		return nil, ErrFrameTooLarge
	}

	key := make([]byte, kLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}

	val := make([]byte, vLen)
	if _, err := io.ReadFull(r, val); err != nil {
		return nil, err
	}

	return &Packet{Op: op, Key: key, Value: val}, nil
}

// EncodeKey writes key as its IEEE-754 bits, big-endian.
func EncodeKey(key common.KeyType) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, math.Float64bits(key))
	return b
}

func DecodeKey(b []byte) (common.KeyType, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("%w: got %d", ErrBadKey, len(b))
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

// StatusOf maps an error to the response code a server replies with.
func StatusOf(err error) byte {
	switch {
	case err == nil:
		return RespOK
	case errors.Is(err, common.ErrNotFound):
		return RespNotFound
	case errors.Is(err, common.ErrInvalidRecord),
		errors.Is(err, common.ErrMalformedCriteria),
		errors.Is(err, ErrBadKey):
		return RespInvalid
	default:
		return RespErr
	}
}

// ErrorOf rebuilds a client-side error from a reply, so callers can test
// it with errors.Is against the same sentinels the server used.
func ErrorOf(p *Packet) error {
	msg := string(p.Value)
	switch p.Op {
	case RespOK, RespVal:
		return nil
	case RespNotFound:
		return wrap(common.ErrNotFound, msg)
	case RespInvalid:
		if strings.HasPrefix(msg, common.ErrMalformedCriteria.Error()) {
			return wrap(common.ErrMalformedCriteria, msg)
		}
		return wrap(common.ErrInvalidRecord, msg)
	default:
		return fmt.Errorf("%w: %s", ErrRemote, msg)
	}
}

func wrap(sentinel error, msg string) error {
	rest, ok := strings.CutPrefix(msg, sentinel.Error()+": ")
	if !ok {
		rest = msg
	}
	return fmt.Errorf("%w: %s", sentinel, rest)
}
