// File: transport.go
// Author: ulala-x
// License: Apache-2.0
//
// The transport contract every concrete transport (plain TCP, TLS,
// WebSocket, secure WebSocket) must satisfy (spec.md §6.2). Grounded on
// api/transport.go's NetConn shape, widened to the callback-registration
// contract spec.md actually specifies (set_receive_callback /
// set_disconnect_callback / set_error_callback) rather than a bare
// io.ReadWriteCloser, since the session core must be invoked from the
// transport's own I/O goroutine rather than polling it.

package playhouse

// Transport abstracts a byte-pipe to the server. Implementations live in
// internal/iotransport; Connector.Init selects one based on Config.Kind().
type Transport interface {
	// Connect initiates the connection. It blocks the calling goroutine
	// until the underlying handshake (TCP connect, TLS handshake,
	// WebSocket upgrade) completes or fails; the Connector calls it from a
	// goroutine of its own so this never blocks the user's caller.
	Connect(host string, port int) (bool, error)

	// Disconnect idempotently closes the connection.
	Disconnect() error

	// IsConnected reports the transport's own connection state.
	IsConnected() bool

	// Send enqueues bytes for transmission, preserving the order of Send
	// calls. Best-effort: the transport may buffer internally.
	Send(data []byte) error

	// SetReceiveCallback registers f to be invoked from the transport's
	// I/O goroutine whenever new bytes arrive. The byte slice is only
	// valid for the duration of the call; implementations that need to
	// retain it must copy.
	SetReceiveCallback(f func(data []byte))

	// SetDisconnectCallback registers f to be invoked at most once when
	// the peer or the local side closes the connection.
	SetDisconnectCallback(f func())

	// SetErrorCallback registers f to be invoked for transport-visible
	// errors that are not a normal disconnect. code is a wire ErrorCode
	// value (int16 here, not playhouse.ErrorCode, so that transport
	// implementations in internal/iotransport need not import this
	// package — only the Connector, which already does, converts it).
	SetErrorCallback(f func(code int16, message string))
}
