// File: config.go
// Author: ulala-x
// License: Apache-2.0
//
// Connector configuration. Grounded on client/client.go's ClientConfig and
// on the field-for-field shape of original_source/.../config.hpp; this is
// a plain struct with a DefaultConfig constructor, following the teacher's
// own highlevel.DefaultOptions() convention — no config-file parsing or
// env var binding in the core.

package playhouse

import "time"

// TransportKind selects which concrete Transport implementation Init wires
// up, derived from UseWebSocket/UseSSL.
type TransportKind int

const (
	TransportTCP TransportKind = iota
	TransportTLS
	TransportWebSocket
	TransportSecureWebSocket
)

// Config holds every option spec.md §3 recognizes.
type Config struct {
	// SendBufferSize is an advisory capacity hint passed to the transport
	// for its outbound buffering. Default 64 KiB.
	SendBufferSize int

	// ReceiveBufferSize is the capacity of the receive ring buffer.
	// Default 256 KiB.
	ReceiveBufferSize int

	// HeartbeatIntervalMs is the period at which the session emits a
	// reserved heartbeat message, if greater than zero. Default 10s.
	// Optional responsibility (spec.md §9) — core correctness does not
	// depend on it.
	HeartbeatIntervalMs int

	// RequestTimeoutMs is the per-request deadline from send to response.
	// Default 30s.
	RequestTimeoutMs int

	// EnableReconnect and ReconnectIntervalMs configure the optional
	// single-retry reconnect behavior (see SPEC_FULL.md §14). Disabled by
	// default. MaxReconnectAttempts is stored but not read by Connect,
	// which retries at most once.
	EnableReconnect      bool
	ReconnectIntervalMs  int
	MaxReconnectAttempts int

	// UseWebSocket selects a WebSocket transport instead of plain TCP.
	UseWebSocket bool

	// UseSSL wraps the selected transport in TLS (TCP+TLS, or WSS when
	// combined with UseWebSocket).
	UseSSL bool

	// SkipServerCertificateValidation disables TLS certificate validation.
	// Intended for self-signed test certificates only.
	SkipServerCertificateValidation bool

	// WebSocketPath is the HTTP path used for the WebSocket handshake.
	// Default "/ws".
	WebSocketPath string

	// ReaperInterval overrides the timeout reaper's sweep cadence. Must be
	// <= 200ms per spec.md §4.6; zero selects reaper.DefaultInterval.
	ReaperInterval time.Duration
}

// DefaultConfig returns a Config populated with spec.md §3's defaults.
func DefaultConfig() Config {
	return Config{
		SendBufferSize:       64 * 1024,
		ReceiveBufferSize:    256 * 1024,
		HeartbeatIntervalMs:  10_000,
		RequestTimeoutMs:     30_000,
		EnableReconnect:      false,
		ReconnectIntervalMs:  5_000,
		MaxReconnectAttempts: 0,
		UseWebSocket:         false,
		UseSSL:               false,
		WebSocketPath:        "/ws",
	}
}

// Kind derives the TransportKind this config selects.
func (c Config) Kind() TransportKind {
	switch {
	case c.UseWebSocket && c.UseSSL:
		return TransportSecureWebSocket
	case c.UseWebSocket:
		return TransportWebSocket
	case c.UseSSL:
		return TransportTLS
	default:
		return TransportTCP
	}
}

func (c Config) requestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}

func (c Config) heartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatIntervalMs) * time.Millisecond
}
