// File: internal/iotransport/transport.go
// Package iotransport implements the concrete byte-pipe transports the
// Connector dials: plain TCP, TLS, WebSocket, and secure WebSocket.
// Author: ulala-x
// License: Apache-2.0
//
// Grounded on client/transport_client.go's clientTransport (net.Conn
// wrapping, deadline plumbing) and client/client.go's recvLoop (a
// dedicated read goroutine feeding a callback rather than a channel, so
// it composes with the Connector's own ring-buffer-driven frame
// extractor instead of a second buffering layer).
//
// This package deliberately defines its own Transport interface rather
// than importing the root package's: the root package already imports
// this one to select a concrete implementation, and Go's structural
// interface satisfaction means the two shapes only need to agree on
// method signatures, not share a type.
package iotransport

import "fmt"

// Kind mirrors playhouse.TransportKind's four values without importing
// the root package.
type Kind int

const (
	KindTCP Kind = iota
	KindTLS
	KindWebSocket
	KindSecureWebSocket
)

// Options carries the subset of Config a concrete transport needs.
type Options struct {
	UseSSL                    bool
	SkipCertificateValidation bool
	WebSocketPath             string
	SendBufferSize            int
}

// Transport is the byte-pipe contract; see the root package's Transport
// for the authoritative documentation of each method's contract.
type Transport interface {
	Connect(host string, port int) (bool, error)
	Disconnect() error
	IsConnected() bool
	Send(data []byte) error
	SetReceiveCallback(f func(data []byte))
	SetDisconnectCallback(f func())
	SetErrorCallback(f func(code int16, message string))
}

// New constructs the concrete Transport for kind.
func New(kind Kind, opts Options) (Transport, error) {
	switch kind {
	case KindTCP:
		return newTCPTransport(opts), nil
	case KindTLS:
		return newTLSTransport(opts), nil
	case KindWebSocket:
		return newWebSocketTransport(opts, false), nil
	case KindSecureWebSocket:
		return newWebSocketTransport(opts, true), nil
	default:
		return nil, fmt.Errorf("iotransport: unknown kind %d", kind)
	}
}

// errCodeConnectionFailed is the wire error code for a failed Send,
// duplicated from the root package's ErrorCode value (see errors.go) to
// avoid the import cycle the package comment explains.
const errCodeConnectionFailed = int16(1001)
