package protocol_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ulala-x/playhouse-go/protocol"
)

func TestEncodeRequestThenDecodeResponseRoundTrip(t *testing.T) {
	// EncodeRequest/DecodeResponse speak different wire shapes (the
	// asymmetry is a design invariant), so the round trip here goes through
	// a hand-built response frame carrying the same identity fields an
	// encoded request would have sent.
	req := protocol.Packet{
		MsgID:   "EchoRequest",
		MsgSeq:  7,
		StageID: -42,
		Payload: []byte("hello world"),
	}
	encoded, err := protocol.EncodeRequest(req)
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}

	resp := buildResponseFrame(t, req.MsgID, req.MsgSeq, req.StageID, 0, 0, req.Payload)
	decoded, err := protocol.DecodeResponse(resp)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}

	if decoded.MsgID != req.MsgID || decoded.MsgSeq != req.MsgSeq || decoded.StageID != req.StageID {
		t.Fatalf("identity mismatch: got %+v", decoded)
	}
	if !bytes.Equal(decoded.Payload, req.Payload) {
		t.Fatalf("payload mismatch: got %q want %q", decoded.Payload, req.Payload)
	}
	_ = encoded
}

func TestEncodeRequestMsgIDBoundaries(t *testing.T) {
	cases := []struct {
		name    string
		msgIDLen int
		wantErr bool
	}{
		{"len1", 1, false},
		{"len256", 256, false},
		{"len0", 0, true},
		{"len257", 257, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := protocol.EncodeRequest(protocol.Packet{MsgID: strings.Repeat("a", tc.msgIDLen)})
			if tc.wantErr && err == nil {
				t.Fatalf("expected error for msg_id length %d", tc.msgIDLen)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error for msg_id length %d: %v", tc.msgIDLen, err)
			}
		})
	}
}

func TestEncodeRequestPayloadBoundaries(t *testing.T) {
	ok := protocol.Packet{MsgID: "x", Payload: make([]byte, protocol.MaxPayloadLen)}
	if _, err := protocol.EncodeRequest(ok); err != nil {
		t.Fatalf("2 MiB payload should encode: %v", err)
	}
	tooBig := protocol.Packet{MsgID: "x", Payload: make([]byte, protocol.MaxPayloadLen+1)}
	if _, err := protocol.EncodeRequest(tooBig); err == nil {
		t.Fatalf("2 MiB+1 payload should fail to encode")
	}
}

func TestDecodeResponseRejectsZeroMsgIDLen(t *testing.T) {
	frame := buildResponseFrameRaw(t, 0, nil, 0, 0, 0, 0, nil)
	if _, err := protocol.DecodeResponse(frame); err == nil {
		t.Fatalf("expected error decoding zero-length msg_id")
	}
}

func TestDecodeResponseRejectsTruncatedMsgID(t *testing.T) {
	frame := buildResponseFrameRaw(t, 0, nil, 0, 0, 0, 0, nil)
	frame[4] = 255 // claim a 255-byte msg_id that isn't actually present
	if _, err := protocol.DecodeResponse(frame); err == nil {
		t.Fatalf("expected error decoding truncated msg_id")
	}
}

func TestDecodeResponseSurvivesServerReportedError(t *testing.T) {
	frame := buildResponseFrame(t, "FailReply", 3, 1, 123, 0, []byte("forced error"))
	decoded, err := protocol.DecodeResponse(frame)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if decoded.ErrorCode != 123 {
		t.Fatalf("error_code = %d, want 123", decoded.ErrorCode)
	}
	if string(decoded.Payload) != "forced error" {
		t.Fatalf("payload = %q", decoded.Payload)
	}
}

func TestFrameSplitAcrossTwoDeliveriesReassembles(t *testing.T) {
	frame := buildResponseFrame(t, "EchoReply", 9, 0, 0, 0, []byte("split me"))
	mid := len(frame) / 2
	var reassembled []byte
	reassembled = append(reassembled, frame[:mid]...)
	reassembled = append(reassembled, frame[mid:]...)
	decoded, err := protocol.DecodeResponse(reassembled)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if decoded.MsgID != "EchoReply" {
		t.Fatalf("msg_id = %q", decoded.MsgID)
	}
}

// buildResponseFrame constructs a well-formed response frame for tests that
// need to exercise DecodeResponse without a server.
func buildResponseFrame(t *testing.T, msgID string, msgSeq uint16, stageID int64, errorCode int16, originalSize uint32, payload []byte) []byte {
	t.Helper()
	return buildResponseFrameRaw(t, len(msgID), []byte(msgID), msgSeq, stageID, errorCode, originalSize, payload)
}

func buildResponseFrameRaw(t *testing.T, msgIDLen int, msgID []byte, msgSeq uint16, stageID int64, errorCode int16, originalSize uint32, payload []byte) []byte {
	t.Helper()
	contentSize := 1 + msgIDLen + 2 + 8 + 2 + 4 + len(payload)
	buf := make([]byte, 4+contentSize)
	putLE32(buf[0:4], uint32(contentSize))
	buf[4] = byte(msgIDLen)
	offset := 5
	copy(buf[offset:], msgID)
	offset += msgIDLen
	putLE16(buf[offset:], msgSeq)
	offset += 2
	putLE64(buf[offset:], uint64(stageID))
	offset += 8
	putLE16(buf[offset:], uint16(errorCode))
	offset += 2
	putLE32(buf[offset:], originalSize)
	offset += 4
	copy(buf[offset:], payload)
	return buf
}

func putLE16(b []byte, v uint16) { b[0] = byte(v); b[1] = byte(v >> 8) }
func putLE32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
func putLE64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
