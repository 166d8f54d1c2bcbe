package network

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"propindex/pkg/common"
	"propindex/pkg/core"
	"propindex/pkg/logging"
	"propindex/pkg/protocol"
	"propindex/pkg/sql"
)

// TCPServer exposes a Store over the binary protocol, one goroutine per
// connection, requests answered in order.
type TCPServer struct {
	store *core.Store
	log   logging.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closed   bool
	wg       sync.WaitGroup
}

func NewTCPServer(store *core.Store, logger logging.Logger) *TCPServer {
	if logger == nil {
		logger = logging.Discard{}
	}
	return &TCPServer{
		store: store,
		log:   logger,
		conns: make(map[net.Conn]struct{}),
	}
}

func (s *TCPServer) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(listener)
}

// Serve accepts on l until Close. It returns nil after Close.
func (s *TCPServer) Serve(l net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		l.Close()
		return net.ErrClosed
	}
	s.listener = l
	s.mu.Unlock()

	s.log.Info("tcp listening", "addr", l.Addr().String())

	for {
		conn, err := l.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.log.Warn("tcp accept failed", "err", err)
			continue
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return nil
		}
		s.conns[conn] = struct{}{}
		s.wg.Add(1)
		s.mu.Unlock()
		go s.handleConn(conn)
	}
}

// Close stops accepting, drops open connections and waits for handlers.
func (s *TCPServer) Close() error {
	s.mu.Lock()
	s.closed = true
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return err
}

func (s *TCPServer) handleConn(conn net.Conn) {
	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		s.wg.Done()
	}()

	for {
		req, err := protocol.Decode(conn)
		if err != nil {
			if err != io.EOF && !errors.Is(err, net.ErrClosed) {
				s.log.Debug("tcp decode failed", "remote", conn.RemoteAddr().String(), "err", err)
			}
			return
		}

		op, key, val, err := s.dispatch(req)
		if err != nil {
			op, key, val = protocol.StatusOf(err), nil, []byte(err.Error())
		}
		if err := protocol.Encode(conn, op, key, val); err != nil {
			s.log.Debug("tcp write failed", "remote", conn.RemoteAddr().String(), "err", err)
			return
		}
	}
}

func (s *TCPServer) dispatch(req *protocol.Packet) (byte, []byte, []byte, error) {
	switch req.Op {
	case protocol.OpPut:
		p, err := decodeProperty(req.Value)
		if err != nil {
			return 0, nil, nil, err
		}
		key, err := s.store.Put(p)
		if err != nil {
			return 0, nil, nil, err
		}
		return protocol.RespVal, protocol.EncodeKey(key), nil, nil

	case protocol.OpInsert:
		key, err := protocol.DecodeKey(req.Key)
		if err != nil {
			return 0, nil, nil, err
		}
		p, err := decodeProperty(req.Value)
		if err != nil {
			return 0, nil, nil, err
		}
		if err := s.store.Insert(key, p); err != nil {
			return 0, nil, nil, err
		}
		return protocol.RespOK, nil, nil, nil

	case protocol.OpGet:
		key, err := protocol.DecodeKey(req.Key)
		if err != nil {
			return 0, nil, nil, err
		}
		p, err := s.store.Get(key)
		if err != nil {
			return 0, nil, nil, err
		}
		return reply(p)

	case protocol.OpDel:
		key, err := protocol.DecodeKey(req.Key)
		if err != nil {
			return 0, nil, nil, err
		}
		if !s.store.Delete(key) {
			return 0, nil, nil, fmt.Errorf("%w: %v", common.ErrNotFound, key)
		}
		return protocol.RespOK, nil, nil, nil

	case protocol.OpSearch:
		c := common.NewCriteria()
		if len(req.Value) > 0 {
			if err := json.Unmarshal(req.Value, &c); err != nil {
				return 0, nil, nil, fmt.Errorf("%w: %v", common.ErrMalformedCriteria, err)
			}
		}
		records, err := s.store.Search(c)
		if err != nil {
			return 0, nil, nil, err
		}
		return reply(records)

	case protocol.OpSQL:
		q, err := sql.Parse(string(req.Value))
		if err != nil {
			if errors.Is(err, sql.ErrSyntax) {
				err = fmt.Errorf("%w: %v", common.ErrMalformedCriteria, err)
			}
			return 0, nil, nil, err
		}
		records, err := s.store.Search(q.Criteria)
		if err != nil {
			return 0, nil, nil, err
		}
		return reply(q.Apply(records))

	case protocol.OpTree:
		out, err := s.store.Tree()
		if err != nil {
			return 0, nil, nil, err
		}
		return protocol.RespVal, nil, []byte(out), nil

	case protocol.OpStats:
		return reply(s.store.Stats())

	default:
		return 0, nil, nil, fmt.Errorf("unknown op 0x%02x", req.Op)
	}
}

func decodeProperty(b []byte) (*common.Property, error) {
	var p common.Property
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidRecord, err)
	}
	return &p, nil
}

func reply(v any) (byte, []byte, []byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return 0, nil, nil, err
	}
	return protocol.RespVal, nil, body, nil
}
