// File: protocol/packet.go
// Author: ulala-x
// License: Apache-2.0

package protocol

// Packet is a single PlayHouse message record, identified by (MsgId,
// MsgSeq). Requests never populate ErrorCode/OriginalSize on the wire;
// decoded responses always carry them.
type Packet struct {
	MsgID        string
	MsgSeq       uint16
	StageID      int64
	ErrorCode    int16
	OriginalSize uint32
	Payload      []byte
}

// Empty returns a Packet with no payload and MsgSeq/StageId left at zero.
func Empty(msgID string) Packet {
	return Packet{MsgID: msgID}
}

// IsPush reports whether this packet, as received, is a server push rather
// than a response to a pending request.
func (p Packet) IsPush() bool {
	return p.MsgSeq == 0
}
