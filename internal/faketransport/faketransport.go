// File: internal/faketransport/faketransport.go
// Package faketransport provides a controllable, in-memory stand-in for a
// real Transport, for exercising the Connector without a socket.
// Author: ulala-x
// License: Apache-2.0
//
// Grounded on fake/transport.go's fake.Transport: a mutex-guarded buffer
// of sent frames plus settable error injection, adapted from the
// teacher's batch-oriented api.Transport (Send([][]byte)/Recv()
// ([][]byte, error)) to this project's callback-oriented Transport
// (Send([]byte) error, SetReceiveCallback).
package faketransport

// Transport is a fake playhouse.Transport. The zero value is not ready
// for use; construct with New.
type Transport struct {
	connectErr error
	sendErr    error
	connected  bool

	sent [][]byte

	onReceive    func(data []byte)
	onDisconnect func()
	onError      func(code int16, message string)
}

// New constructs a disconnected fake transport.
func New() *Transport {
	return &Transport{}
}

// SetConnectError makes every subsequent Connect call fail with err.
func (t *Transport) SetConnectError(err error) { t.connectErr = err }

// SetSendError makes every subsequent Send call fail with err.
func (t *Transport) SetSendError(err error) { t.sendErr = err }

// Connect implements playhouse.Transport.
func (t *Transport) Connect(host string, port int) (bool, error) {
	if t.connectErr != nil {
		return false, t.connectErr
	}
	t.connected = true
	return true, nil
}

// Disconnect implements playhouse.Transport.
func (t *Transport) Disconnect() error {
	t.connected = false
	return nil
}

// IsConnected implements playhouse.Transport.
func (t *Transport) IsConnected() bool { return t.connected }

// Send implements playhouse.Transport. Sent frames are recorded for
// inspection via SentFrames.
func (t *Transport) Send(data []byte) error {
	if t.sendErr != nil {
		return t.sendErr
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	t.sent = append(t.sent, cp)
	return nil
}

func (t *Transport) SetReceiveCallback(f func(data []byte))              { t.onReceive = f }
func (t *Transport) SetDisconnectCallback(f func())                      { t.onDisconnect = f }
func (t *Transport) SetErrorCallback(f func(code int16, message string)) { t.onError = f }

// DeliverBytes simulates the server sending data, invoking the registered
// receive callback synchronously (as a real transport's I/O goroutine
// would, from the caller's point of view).
func (t *Transport) DeliverBytes(data []byte) {
	if t.onReceive != nil {
		t.onReceive(data)
	}
}

// SimulateDisconnect invokes the registered disconnect callback, as a
// real transport would on peer close.
func (t *Transport) SimulateDisconnect() {
	t.connected = false
	if t.onDisconnect != nil {
		t.onDisconnect()
	}
}

// SimulateError invokes the registered error callback.
func (t *Transport) SimulateError(code int16, message string) {
	if t.onError != nil {
		t.onError(code, message)
	}
}

// SentFrames returns every frame recorded by Send, in send order.
func (t *Transport) SentFrames() [][]byte {
	out := make([][]byte, len(t.sent))
	copy(out, t.sent)
	return out
}

// ClearSent discards recorded frames.
func (t *Transport) ClearSent() { t.sent = nil }
