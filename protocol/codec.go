// File: protocol/codec.go
// Package protocol implements the PlayHouse wire codec with frame size
// enforcement.
// Author: ulala-x
// License: Apache-2.0
//
// Encodes outbound request frames and decodes inbound response frames.
// Both directions are little-endian and length-prefixed by ContentSize,
// the byte count of everything that follows the ContentSize field itself.
//
// Request wire format:
//
//	ContentSize:4 | MsgIdLen:1 | MsgId:MsgIdLen | MsgSeq:2 | StageId:8 | Payload
//
// Response wire format:
//
//	ContentSize:4 | MsgIdLen:1 | MsgId:MsgIdLen | MsgSeq:2 | StageId:8 | ErrorCode:2 | OriginalSize:4 | Payload
//
// The response carries two extra fields the request never does; encoding
// ErrorCode/OriginalSize on the outbound path is a protocol violation by
// construction, since EncodeRequest has no parameters for them.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrProtocolViolation is returned by EncodeRequest when the packet cannot
// be represented on the wire (oversize MsgId or Payload).
var ErrProtocolViolation = errors.New("protocol: violation")

// ErrInvalidResponse is returned by DecodeResponse when the supplied bytes
// do not form a well-formed response frame.
var ErrInvalidResponse = errors.New("protocol: invalid response")

// EncodeRequest serializes packet as an outbound request frame. MsgSeq and
// StageId are taken from the packet as given; callers (the session core)
// are responsible for setting them before encoding.
//
// Fails with ErrProtocolViolation if len(packet.MsgID) is 0 or greater than
// MaxMsgIDLen, or if len(packet.Payload) exceeds MaxPayloadLen.
func EncodeRequest(packet Packet) ([]byte, error) {
	msgIDLen := len(packet.MsgID)
	if msgIDLen == 0 || msgIDLen > MaxMsgIDLen {
		return nil, fmt.Errorf("%w: msg_id length %d out of range [1,%d]", ErrProtocolViolation, msgIDLen, MaxMsgIDLen)
	}
	if len(packet.Payload) > MaxPayloadLen {
		return nil, fmt.Errorf("%w: payload length %d exceeds %d", ErrProtocolViolation, len(packet.Payload), MaxPayloadLen)
	}

	contentSize := uint32(1+msgIDLen) + 2 + 8 + uint32(len(packet.Payload))

	buf := make([]byte, ContentSizeLen+int(contentSize))
	binary.LittleEndian.PutUint32(buf[0:4], contentSize)
	buf[4] = byte(msgIDLen)
	offset := 5
	copy(buf[offset:], packet.MsgID)
	offset += msgIDLen
	binary.LittleEndian.PutUint16(buf[offset:], packet.MsgSeq)
	offset += 2
	binary.LittleEndian.PutUint64(buf[offset:], uint64(packet.StageID))
	offset += 8
	copy(buf[offset:], packet.Payload)

	return buf, nil
}

// DecodeResponse parses a complete response frame, including its leading
// ContentSize field. frame must be exactly ContentSize+4 bytes (the caller,
// the ring-buffer-driven frame extractor, guarantees this).
//
// Fails with ErrInvalidResponse if MsgIdLen is 0 or exceeds MaxMsgIDLen, or
// if the frame is too short for any sub-field it claims to contain.
func DecodeResponse(frame []byte) (Packet, error) {
	if len(frame) < MinResponseFrameLen {
		return Packet{}, fmt.Errorf("%w: frame length %d below minimum %d", ErrInvalidResponse, len(frame), MinResponseFrameLen)
	}

	contentSize := binary.LittleEndian.Uint32(frame[0:4])
	if int(contentSize) != len(frame)-ContentSizeLen {
		return Packet{}, fmt.Errorf("%w: content size %d does not match frame length %d", ErrInvalidResponse, contentSize, len(frame)-ContentSizeLen)
	}

	offset := 4
	msgIDLen := int(frame[offset])
	offset++
	if msgIDLen == 0 || msgIDLen > MaxMsgIDLen {
		return Packet{}, fmt.Errorf("%w: msg_id length %d out of range [1,%d]", ErrInvalidResponse, msgIDLen, MaxMsgIDLen)
	}
	if offset+msgIDLen > len(frame) {
		return Packet{}, fmt.Errorf("%w: truncated msg_id", ErrInvalidResponse)
	}
	msgID := string(frame[offset : offset+msgIDLen])
	offset += msgIDLen

	if offset+2 > len(frame) {
		return Packet{}, fmt.Errorf("%w: truncated msg_seq", ErrInvalidResponse)
	}
	msgSeq := binary.LittleEndian.Uint16(frame[offset:])
	offset += 2

	if offset+8 > len(frame) {
		return Packet{}, fmt.Errorf("%w: truncated stage_id", ErrInvalidResponse)
	}
	stageID := int64(binary.LittleEndian.Uint64(frame[offset:]))
	offset += 8

	if offset+2 > len(frame) {
		return Packet{}, fmt.Errorf("%w: truncated error_code", ErrInvalidResponse)
	}
	errorCode := int16(binary.LittleEndian.Uint16(frame[offset:]))
	offset += 2

	if offset+4 > len(frame) {
		return Packet{}, fmt.Errorf("%w: truncated original_size", ErrInvalidResponse)
	}
	originalSize := binary.LittleEndian.Uint32(frame[offset:])
	offset += 4

	var payload []byte
	if offset < len(frame) {
		payload = make([]byte, len(frame)-offset)
		copy(payload, frame[offset:])
	}

	return Packet{
		MsgID:        msgID,
		MsgSeq:       msgSeq,
		StageID:      stageID,
		ErrorCode:    errorCode,
		OriginalSize: originalSize,
		Payload:      payload,
	}, nil
}

// PeekContentSize reads the 4-byte little-endian ContentSize header from
// the first 4 bytes of hdr. Callers (the ring-buffer frame extractor) use
// this to learn how many more bytes a complete frame needs before reading
// it out of the buffer.
func PeekContentSize(hdr []byte) uint32 {
	return binary.LittleEndian.Uint32(hdr[0:4])
}
