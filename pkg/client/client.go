package client

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"propindex/pkg/common"
	"propindex/pkg/protocol"
)

// Client speaks the binary protocol over one TCP connection. Errors from
// the server come back wrapping the common sentinels, so callers can use
// errors.Is(err, common.ErrNotFound) and friends.
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	addr    string
	timeout time.Duration
}

func Dial(addr string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, err
	}
	return &Client{
		conn:    conn,
		addr:    addr,
		timeout: 5 * time.Second,
	}, nil
}

// Put indexes p by its derived metric and returns the key the server used.
func (c *Client) Put(p *common.Property) (common.KeyType, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return 0, err
	}
	resp, err := c.roundTrip(protocol.OpPut, nil, body, false)
	if err != nil {
		return 0, err
	}
	return protocol.DecodeKey(resp.Key)
}

func (c *Client) Insert(key common.KeyType, p *common.Property) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = c.roundTrip(protocol.OpInsert, protocol.EncodeKey(key), body, false)
	return err
}

func (c *Client) Get(key common.KeyType) (*common.Property, error) {
	resp, err := c.roundTrip(protocol.OpGet, protocol.EncodeKey(key), nil, true)
	if err != nil {
		return nil, err
	}
	var p common.Property
	if err := json.Unmarshal(resp.Value, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes one record under key. A missing key yields common.ErrNotFound.
func (c *Client) Delete(key common.KeyType) error {
	_, err := c.roundTrip(protocol.OpDel, protocol.EncodeKey(key), nil, false)
	return err
}

func (c *Client) Search(criteria common.Criteria) ([]*common.Property, error) {
	body, err := json.Marshal(criteria)
	if err != nil {
		return nil, err
	}
	return c.records(protocol.OpSearch, body)
}

// Query runs a SELECT statement, see package sql.
func (c *Client) Query(stmt string) ([]*common.Property, error) {
	return c.records(protocol.OpSQL, []byte(stmt))
}

func (c *Client) Tree() (string, error) {
	resp, err := c.roundTrip(protocol.OpTree, nil, nil, true)
	if err != nil {
		return "", err
	}
	return string(resp.Value), nil
}

func (c *Client) Stats() (map[string]interface{}, error) {
	resp, err := c.roundTrip(protocol.OpStats, nil, nil, true)
	if err != nil {
		return nil, err
	}
	stats := map[string]interface{}{}
	if err := json.Unmarshal(resp.Value, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}

func (c *Client) records(op byte, body []byte) ([]*common.Property, error) {
	resp, err := c.roundTrip(op, nil, body, true)
	if err != nil {
		return nil, err
	}
	var out []*common.Property
	if err := json.Unmarshal(resp.Value, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// roundTrip sends one request and reads its reply. A failed write is
// retried once on a fresh connection; a failed read only when the request
// is safe to repeat.
func (c *Client) roundTrip(op byte, key, val []byte, idempotent bool) (*protocol.Packet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, sent, err := c.exchange(op, key, val)
	if err != nil && (!sent || idempotent) {
		if rerr := c.reconnect(); rerr != nil {
			return nil, fmt.Errorf("%v (reconnect: %w)", err, rerr)
		}
		resp, _, err = c.exchange(op, key, val)
	}
	if err != nil {
		return nil, err
	}
	return resp, protocol.ErrorOf(resp)
}

func (c *Client) exchange(op byte, key, val []byte) (*protocol.Packet, bool, error) {
	c.conn.SetDeadline(time.Now().Add(c.timeout))
	if err := protocol.Encode(c.conn, op, key, val); err != nil {
		return nil, false, err
	}
	resp, err := protocol.Decode(c.conn)
	return resp, true, err
}

func (c *Client) reconnect() error {
	c.conn.Close()
	conn, err := net.DialTimeout("tcp", c.addr, c.timeout)
	if err != nil {
		return err
	}
	c.conn = conn
	return nil
}
