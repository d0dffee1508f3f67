// File: internal/iotransport/tcp.go
// Author: ulala-x
// License: Apache-2.0
//
// Grounded on client/transport_client.go's clientTransport and
// client/client.go's recvLoop goroutine, merged into one type since this
// connector has no zero-copy buffer pool to keep separate from the
// connection wrapper.

package iotransport

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// netConnTransport wraps any net.Conn (plain or *tls.Conn) with the read
// loop, callback registration, and idempotent close that both the TCP and
// TLS transports share.
type netConnTransport struct {
	opts Options

	mu   sync.Mutex
	conn net.Conn

	connected atomic.Bool
	closeOnce sync.Once

	onReceive    func(data []byte)
	onDisconnect func()
	onError      func(code int16, message string)

	dial func(host string, port int) (net.Conn, error)
}

func newTCPTransport(opts Options) *netConnTransport {
	t := &netConnTransport{opts: opts}
	t.dial = func(host string, port int) (net.Conn, error) {
		return net.DialTimeout("tcp", fmt.Sprintf("%s:%d", host, port), 10*time.Second)
	}
	return t
}

func (t *netConnTransport) Connect(host string, port int) (bool, error) {
	conn, err := t.dial(host, port)
	if err != nil {
		return false, err
	}
	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
	t.connected.Store(true)
	t.closeOnce = sync.Once{}
	go t.recvLoop()
	return true, nil
}

func (t *netConnTransport) recvLoop() {
	buf := make([]byte, 64*1024)
	for {
		t.mu.Lock()
		conn := t.conn
		t.mu.Unlock()
		if conn == nil {
			return
		}
		n, err := conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if t.onReceive != nil {
				t.onReceive(chunk)
			}
		}
		if err != nil {
			if t.connected.Load() {
				t.fireDisconnect()
			}
			return
		}
	}
}

func (t *netConnTransport) fireDisconnect() {
	t.connected.Store(false)
	if t.onDisconnect != nil {
		t.onDisconnect()
	}
}

func (t *netConnTransport) Disconnect() error {
	var err error
	t.closeOnce.Do(func() {
		t.connected.Store(false)
		t.mu.Lock()
		conn := t.conn
		t.mu.Unlock()
		if conn != nil {
			err = conn.Close()
		}
	})
	return err
}

func (t *netConnTransport) IsConnected() bool {
	return t.connected.Load()
}

func (t *netConnTransport) Send(data []byte) error {
	if !t.connected.Load() {
		return fmt.Errorf("iotransport: not connected")
	}
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("iotransport: not connected")
	}
	_, err := conn.Write(data)
	if err != nil && t.onError != nil {
		t.onError(errCodeConnectionFailed, err.Error())
	}
	return err
}

func (t *netConnTransport) SetReceiveCallback(f func(data []byte))              { t.onReceive = f }
func (t *netConnTransport) SetDisconnectCallback(f func())                      { t.onDisconnect = f }
func (t *netConnTransport) SetErrorCallback(f func(code int16, message string)) { t.onError = f }
