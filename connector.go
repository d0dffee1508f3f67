// File: connector.go
// Author: ulala-x
// License: Apache-2.0
//
// Connector is the session core: the finite state machine, sequence
// allocator, pending-request table, inbound frame extractor, and
// main-thread dispatch queue wired together around one Transport.
//
// Grounded on client/client.go's WebSocketClient for the overall shape
// (config-in-constructor, dialAndHandshake/connect retry loop, recvLoop
// pushing into a channel, heartbeatLoop, handler fan-out) and on
// internal/session/session.go for state tracking, generalized from a
// single WebSocket-only client to the transport-agnostic connector
// original_source/.../client_network.cpp and connector.cpp describe:
// ClientNetwork::Impl's receive_buffer_ + pending_requests_ +
// pending_promises_ + request_timestamps_ become ringbuf.RingBuffer +
// pending.Table; its timeout_thread_ becomes internal/reaper.Reaper;
// its main-thread ProcessPackets/QueueCallback become internal/dispatch.
package playhouse

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ulala-x/playhouse-go/internal/dispatch"
	"github.com/ulala-x/playhouse-go/internal/iotransport"
	"github.com/ulala-x/playhouse-go/internal/pending"
	"github.com/ulala-x/playhouse-go/internal/reaper"
	"github.com/ulala-x/playhouse-go/internal/ringbuf"
	"github.com/ulala-x/playhouse-go/protocol"
)

// Packet aliases protocol.Packet so callers need only import this package
// for the common case.
type Packet = protocol.Packet

// sessionState is the finite state machine from spec.md §4.4.4:
// UNINITIALIZED -> INITIALIZED -> CONNECTING -> CONNECTED -> DISCONNECTED,
// with DISCONNECTED able to cycle back through CONNECTING -> CONNECTED (or
// DISCONNECTED) again since Connect may be called again after a disconnect.
type sessionState int32

const (
	stateUninitialized sessionState = iota
	stateInitialized
	stateConnecting
	stateConnected
	stateDisconnected
)

// EventHandler groups the callbacks the Connector invokes through its
// dispatch queue. Every field is optional; a nil field is simply not
// called. Grounded on client.ConnEventHandler, flattened from an
// interface into a struct of funcs since a Connector has exactly one
// handler, not a registered list.
type EventHandler struct {
	OnConnect    func()
	OnReceive    func(Packet)
	OnDisconnect func()
	OnError      func(code ErrorCode, message string)
}

// Connector is the client-side session core. The zero value is not
// usable; construct with NewConnector.
type Connector struct {
	handler EventHandler

	mu    sync.Mutex // serializes Init/Connect/Disconnect transitions
	state atomic.Int32

	cfg       Config
	transport Transport

	ring    *ringbuf.RingBuffer
	pending *pending.Table
	disp    *dispatch.Queue
	reaper  *reaper.Reaper
	seqCtr  atomic.Uint32
	authed  atomic.Bool
	stopHB  chan struct{}
	hbDone  chan struct{}
}

// ConnectorOption configures a Connector at construction time.
// Grounded on client.ClientOption's functional-option shape.
type ConnectorOption func(*Connector)

// WithTransport overrides the Transport Init would otherwise select from
// Config.Kind(). Intended for tests, which wire in an
// internal/faketransport.Transport instead of dialing a real socket.
func WithTransport(t Transport) ConnectorOption {
	return func(c *Connector) { c.transport = t }
}

// NewConnector constructs a Connector in the UNINITIALIZED state.
func NewConnector(handler EventHandler, opts ...ConnectorOption) *Connector {
	c := &Connector{handler: handler}
	c.state.Store(int32(stateUninitialized))
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Init validates and stores cfg, builds the ring buffer, pending table,
// dispatch queue, and timeout reaper, and selects a concrete Transport
// per cfg.Kind(). Must be called exactly once before Connect.
func (c *Connector) Init(cfg Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sessionState(c.state.Load()) != stateUninitialized {
		return ErrAlreadyInitialized
	}
	if cfg.ReceiveBufferSize <= 0 {
		cfg.ReceiveBufferSize = DefaultConfig().ReceiveBufferSize
	}
	if cfg.RequestTimeoutMs <= 0 {
		cfg.RequestTimeoutMs = DefaultConfig().RequestTimeoutMs
	}

	c.cfg = cfg
	c.ring = ringbuf.New(cfg.ReceiveBufferSize)
	c.pending = pending.New()
	c.disp = dispatch.New()

	if c.transport == nil {
		tr, err := iotransport.New(iotransport.Kind(cfg.Kind()), iotransport.Options{
			UseSSL:                    cfg.UseSSL,
			SkipCertificateValidation: cfg.SkipServerCertificateValidation,
			WebSocketPath:             cfg.WebSocketPath,
			SendBufferSize:            cfg.SendBufferSize,
		})
		if err != nil {
			return fmt.Errorf("playhouse: selecting transport: %w", err)
		}
		c.transport = tr
	}
	c.wireTransportCallbacks()

	c.reaper = reaper.New(c.pending, c.disp, cfg.ReaperInterval)
	c.reaper.Start()

	c.state.Store(int32(stateInitialized))
	return nil
}

func (c *Connector) wireTransportCallbacks() {
	c.transport.SetReceiveCallback(c.onBytesReceived)
	c.transport.SetDisconnectCallback(func() {
		c.disconnectInternal(ErrCodeConnectionClosed, "transport closed")
	})
	c.transport.SetErrorCallback(func(code int16, message string) {
		c.enqueueError(ErrorCode(code), message)
	})
}

// Connect dials host:port. Spec.md's Non-goals bound reconnection to at
// most one optional retry (see SPEC_FULL.md §14): if the first attempt
// fails and cfg.EnableReconnect is set, exactly one more attempt is made
// after ReconnectIntervalMs. The returned Future resolves with true on
// success, false otherwise; OnConnect fires on success, OnError on final
// failure, both through the dispatch queue.
func (c *Connector) Connect(host string, port int) *Future[bool] {
	fut := newFuture[bool]()

	c.mu.Lock()
	st := sessionState(c.state.Load())
	if st != stateInitialized && st != stateDisconnected {
		c.mu.Unlock()
		fut.resolve(false)
		return fut
	}
	c.state.Store(int32(stateConnecting))
	c.mu.Unlock()

	go func() {
		ok, err := c.transport.Connect(host, port)
		if !ok || err != nil {
			if c.cfg.EnableReconnect {
				time.Sleep(time.Duration(c.cfg.ReconnectIntervalMs) * time.Millisecond)
				ok, err = c.transport.Connect(host, port)
			}
		}
		if !ok || err != nil {
			c.state.Store(int32(stateDisconnected))
			msg := "connect failed"
			if err != nil {
				msg = err.Error()
			}
			c.disp.Enqueue(func() {
				if c.handler.OnError != nil {
					c.handler.OnError(ErrCodeConnectionFailed, msg)
				}
			})
			fut.resolve(false)
			return
		}

		c.state.Store(int32(stateConnected))
		c.ring.Clear()
		if c.cfg.HeartbeatIntervalMs > 0 {
			c.startHeartbeat()
		}
		c.disp.Enqueue(func() {
			if c.handler.OnConnect != nil {
				c.handler.OnConnect()
			}
		})
		fut.resolve(true)
	}()

	return fut
}

// IsConnected reports whether the session believes itself connected.
// Does not round-trip to the transport.
func (c *Connector) IsConnected() bool {
	return sessionState(c.state.Load()) == stateConnected
}

// Disconnect idempotently tears down the connection: stops the heartbeat
// loop, closes the transport, drains the pending table with synthetic
// ConnectionClosed results, and fires OnDisconnect exactly once.
func (c *Connector) Disconnect() {
	c.disconnectInternal(ErrCodeConnectionClosed, "local disconnect")
}

func (c *Connector) disconnectInternal(code ErrorCode, reason string) {
	c.mu.Lock()
	st := sessionState(c.state.Load())
	if st == stateDisconnected || st == stateUninitialized || st == stateInitialized {
		c.mu.Unlock()
		return
	}
	c.state.Store(int32(stateDisconnected))
	c.authed.Store(false)
	c.mu.Unlock()

	log.Printf("playhouse: disconnecting (%s): %s", code, reason)
	c.stopHeartbeat()
	_ = c.transport.Disconnect()
	c.ring.Clear()

	for _, exp := range c.pending.DrainAll() {
		sink := exp.Sink
		seq := exp.Seq
		c.disp.Enqueue(func() {
			sink(protocol.Packet{MsgID: protocol.MsgIDTimeout, MsgSeq: seq, ErrorCode: int16(ErrCodeConnectionClosed)})
		})
	}

	c.disp.Enqueue(func() {
		if c.handler.OnDisconnect != nil {
			c.handler.OnDisconnect()
		}
	})
}

// Close stops the connector's background reaper and, if connected,
// disconnects. After Close the Connector must not be reused.
func (c *Connector) Close() {
	c.Disconnect()
	if c.reaper != nil {
		c.reaper.Stop()
	}
}

// DriveMainThread drains every callback queued since the last call, on
// the calling goroutine. Callers must invoke this periodically from
// whichever goroutine they have designated "main" — no callback in
// EventHandler or passed to Request/Authenticate runs otherwise.
func (c *Connector) DriveMainThread() {
	c.disp.Drive()
}

// nextSeq allocates the next request sequence number: a widen-then-
// truncate counter (spec.md §4.4.1's design note) that skips the
// truncated value 0 so msg_seq 0 always means "push", never "request".
func (c *Connector) nextSeq() uint16 {
	for {
		seq := uint16(c.seqCtr.Add(1))
		if seq != 0 {
			return seq
		}
	}
}

// Send transmits packet as a one-way push: MsgSeq is forced to 0
// regardless of what the caller set.
func (c *Connector) Send(packet Packet) error {
	if !c.IsConnected() {
		return newError(ErrCodeConnectionClosed, "not connected")
	}
	packet.MsgSeq = 0
	frame, err := protocol.EncodeRequest(packet)
	if err != nil {
		return newError(ErrCodeProtocolViolation, err.Error())
	}
	return c.transport.Send(frame)
}

// Request sends packet and invokes sink, through the dispatch queue,
// with the server's response, a synthetic timeout/disconnect packet, or,
// if the transport's Send fails, a packet carrying ErrCodeConnectionFailed.
// Exactly one of those outcomes reaches sink. When Request returns an error
// because the session is not connected or the packet cannot be encoded,
// sink is never invoked.
func (c *Connector) Request(packet Packet, sink func(Packet)) error {
	if !c.IsConnected() {
		return newError(ErrCodeConnectionClosed, "not connected")
	}
	seq := c.nextSeq()
	packet.MsgSeq = seq
	frame, err := protocol.EncodeRequest(packet)
	if err != nil {
		return newError(ErrCodeProtocolViolation, err.Error())
	}

	deadline := time.Now().Add(c.cfg.requestTimeout())
	c.pending.Insert(seq, deadline, sink)

	if err := c.transport.Send(frame); err != nil {
		if s, ok := c.pending.Resolve(seq); ok {
			failure := Packet{MsgID: packet.MsgID, MsgSeq: seq, ErrorCode: int16(ErrCodeConnectionFailed)}
			c.disp.Enqueue(func() { s(failure) })
		}
		return newError(ErrCodeConnectionFailed, err.Error())
	}
	return nil
}

// RequestFuture is Request's awaitable form.
func (c *Connector) RequestFuture(packet Packet) *Future[Packet] {
	fut := newFuture[Packet]()
	if err := c.Request(packet, fut.resolve); err != nil {
		fut.resolve(Packet{MsgID: packet.MsgID, ErrorCode: int16(ErrCodeConnectionFailed)})
	}
	return fut
}

// Authenticate is Request narrowed to the login/handshake use case
// (spec.md §6.3): sink receives true only if the response's ErrorCode is
// ErrCodeSuccess, and the session's authenticated flag is updated to
// match before sink runs.
func (c *Connector) Authenticate(packet Packet, sink func(bool)) error {
	return c.Request(packet, func(p Packet) {
		ok := p.ErrorCode == int16(ErrCodeSuccess)
		c.authed.Store(ok)
		sink(ok)
	})
}

// AuthenticateFuture is Authenticate's awaitable form.
func (c *Connector) AuthenticateFuture(packet Packet) *Future[bool] {
	fut := newFuture[bool]()
	if err := c.Authenticate(packet, fut.resolve); err != nil {
		fut.resolve(false)
	}
	return fut
}

// IsAuthenticated reports the session's authenticated flag, set by a
// successful Authenticate and cleared on every disconnect.
func (c *Connector) IsAuthenticated() bool {
	return c.authed.Load()
}

// SendDebugPing transmits a reserved @Debug@ push carrying payload,
// useful for exercising a connection without engaging game logic (see
// SPEC_FULL.md §14).
func (c *Connector) SendDebugPing(payload []byte) error {
	return c.Send(protocol.Packet{MsgID: protocol.MsgIDDebug, Payload: payload})
}

func (c *Connector) startHeartbeat() {
	c.stopHB = make(chan struct{})
	c.hbDone = make(chan struct{})
	stop, done := c.stopHB, c.hbDone
	go func() {
		defer close(done)
		ticker := time.NewTicker(c.cfg.heartbeatInterval())
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				_ = c.Send(protocol.Packet{MsgID: protocol.MsgIDHeartbeat})
			}
		}
	}()
}

func (c *Connector) stopHeartbeat() {
	if c.stopHB == nil {
		return
	}
	close(c.stopHB)
	<-c.hbDone
	c.stopHB = nil
	c.hbDone = nil
}

// onBytesReceived is the Transport's receive callback: it appends data to
// the ring buffer and then extracts as many complete frames as are now
// available, per spec.md §4.4.2. Runs on the transport's I/O goroutine.
func (c *Connector) onBytesReceived(data []byte) {
	if err := c.ring.Write(data); err != nil {
		c.enqueueError(ErrCodeBufferOverflow, "receive buffer overflow")
		c.disconnectInternal(ErrCodeBufferOverflow, "receive buffer overflow")
		return
	}
	c.drainFrames()
}

// enqueueError hands code/message to OnError through the dispatch queue,
// the same marshalling boundary every other handler callback crosses.
func (c *Connector) enqueueError(code ErrorCode, message string) {
	c.disp.Enqueue(func() {
		if c.handler.OnError != nil {
			c.handler.OnError(code, message)
		}
	})
}

func (c *Connector) drainFrames() {
	hdr := make([]byte, protocol.ContentSizeLen)
	for {
		if c.ring.Count() < protocol.ContentSizeLen {
			return
		}
		if err := c.ring.Peek(hdr, 0); err != nil {
			return
		}
		contentSize := protocol.PeekContentSize(hdr)
		if contentSize > protocol.MaxPayloadLen+protocol.ResponseHeaderLen {
			c.enqueueError(ErrCodeProtocolViolation, "content size exceeds maximum frame size")
			c.disconnectInternal(ErrCodeProtocolViolation, "content size exceeds maximum frame size")
			return
		}

		frameLen := protocol.ContentSizeLen + int(contentSize)
		if c.ring.Count() < frameLen {
			return // wait for the rest of this frame
		}

		frame := make([]byte, frameLen)
		if err := c.ring.Peek(frame, 0); err != nil {
			c.enqueueError(ErrCodeProtocolViolation, "ring buffer desync")
			c.disconnectInternal(ErrCodeProtocolViolation, "ring buffer desync")
			return
		}
		_ = c.ring.Consume(frameLen)

		// A malformed-but-length-prefixed frame is non-fatal per spec.md
		// §7/§4.4.2 step 3: the bytes are already consumed, so the stream
		// stays in sync and the next frame may still be intact. Surface it
		// and keep draining instead of tearing down the session.
		packet, err := protocol.DecodeResponse(frame)
		if err != nil {
			c.enqueueError(ErrCodeInvalidResponse, err.Error())
			continue
		}
		c.routePacket(packet)
	}
}

func (c *Connector) routePacket(packet Packet) {
	if !packet.IsPush() {
		if sink, ok := c.pending.Resolve(packet.MsgSeq); ok {
			c.disp.Enqueue(func() { sink(packet) })
			return
		}
		// No pending entry: either it already expired (reaper raced us) or
		// the server replied to a sequence we never sent. Fall through and
		// surface it as a push so nothing is silently dropped.
	}
	c.disp.Enqueue(func() {
		if c.handler.OnReceive != nil {
			c.handler.OnReceive(packet)
		}
	})
}
