// File: protocol/constants.go
// Package protocol implements the PlayHouse wire codec with frame size
// enforcement.
// Author: ulala-x
// License: Apache-2.0
//
// Wire format constants for the little-endian, length-prefixed PlayHouse
// packet protocol. See DecodeResponse and EncodeRequest for the frame
// layouts.

package protocol

const (
	// MaxMsgIDLen is the maximum encoded length of MsgId, in bytes.
	MaxMsgIDLen = 256

	// MaxPayloadLen is the maximum payload size for a single packet.
	MaxPayloadLen = 2 * 1024 * 1024 // 2 MiB

	// RequestHeaderLen is the fixed-size portion of an outbound request
	// frame, i.e. everything ContentSize counts except MsgId and Payload:
	// MsgIdLen(1) + MsgSeq(2) + StageId(8).
	RequestHeaderLen = 1 + 2 + 8

	// ResponseHeaderLen is the fixed-size portion of an inbound response
	// frame counted by ContentSize: MsgIdLen(1) + MsgSeq(2) + StageId(8) +
	// ErrorCode(2) + OriginalSize(4).
	ResponseHeaderLen = 1 + 2 + 8 + 2 + 4

	// ContentSizeLen is the width of the leading ContentSize field itself,
	// which is not counted in ContentSize's own value.
	ContentSizeLen = 4

	// MinResponseFrameLen is the smallest possible complete response frame:
	// ContentSize(4) + MsgIdLen(1) + 1-byte MsgId + MsgSeq(2) + StageId(8) +
	// ErrorCode(2) + OriginalSize(4).
	MinResponseFrameLen = ContentSizeLen + 1 + ResponseHeaderLen
)

// Reserved message ids. MsgSeq 0 is never assigned to these by the codec;
// the session core is responsible for attaching the right msg_seq semantics.
const (
	MsgIDHeartbeat = "@Heart@Beat@"
	MsgIDDebug     = "@Debug@"
	MsgIDTimeout   = "@Timeout@"
)
