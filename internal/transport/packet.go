package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Engine.IO packet types.
const (
	engineOpen    = '0'
	engineClose   = '1'
	enginePing    = '2'
	enginePong    = '3'
	engineMessage = '4'
	engineUpgrade = '5'
	engineNoop    = '6'
)

// Socket.IO packet types, carried inside an Engine.IO message.
const (
	socketConnect      = '0'
	socketDisconnect   = '1'
	socketEvent        = '2'
	socketAck          = '3'
	socketConnectError = '4'
)

// handshake is the Engine.IO open packet payload.
type handshake struct {
	SID          string `json:"sid"`
	PingInterval int    `json:"pingInterval"`
	PingTimeout  int    `json:"pingTimeout"`
	MaxPayload   int    `json:"maxPayload"`
}

// deadline is how long the connection may stay silent before it is
// considered dead.
func (h handshake) deadline() time.Duration {
	if h.PingInterval <= 0 {
		return 0
	}
	return time.Duration(h.PingInterval+h.PingTimeout) * time.Millisecond
}

type packetKind int

const (
	packetIgnored packetKind = iota
	packetOpen
	packetClose
	packetPing
	packetConnected
	packetConnectError
	packetDisconnected
	packetEvent
)

type packet struct {
	kind      packetKind
	handshake handshake
	event     string
	args      []json.RawMessage
	raw       []byte
}

func decodePacket(b []byte) (packet, error) {
	if len(b) == 0 {
		return packet{}, fmt.Errorf("empty packet")
	}

	switch b[0] {
	case engineOpen:
		p := packet{kind: packetOpen}
		if err := json.Unmarshal(b[1:], &p.handshake); err != nil {
			return packet{}, fmt.Errorf("decoding handshake: %w", err)
		}
		return p, nil
	case engineClose:
		return packet{kind: packetClose}, nil
	case enginePing:
		return packet{kind: packetPing}, nil
	case enginePong, engineUpgrade, engineNoop:
		return packet{kind: packetIgnored}, nil
	case engineMessage:
		return decodeSocketPacket(b[1:])
	default:
		return packet{}, fmt.Errorf("unknown engine packet type %q", b[0])
	}
}

func decodeSocketPacket(b []byte) (packet, error) {
	if len(b) == 0 {
		return packet{}, fmt.Errorf("empty socket packet")
	}
	body := skipAttachmentsAndNamespace(b[1:])

	switch b[0] {
	case socketConnect:
		return packet{kind: packetConnected, raw: body}, nil
	case socketConnectError:
		return packet{kind: packetConnectError, raw: body}, nil
	case socketDisconnect:
		return packet{kind: packetDisconnected}, nil
	case socketAck:
		return packet{kind: packetIgnored}, nil
	case socketEvent:
		body = skipAckID(body)
		var parts []json.RawMessage
		if err := json.Unmarshal(body, &parts); err != nil {
			return packet{}, fmt.Errorf("decoding event: %w", err)
		}
		if len(parts) == 0 {
			return packet{}, fmt.Errorf("decoding event: missing name")
		}
		var name string
		if err := json.Unmarshal(parts[0], &name); err != nil {
			return packet{}, fmt.Errorf("decoding event name: %w", err)
		}
		return packet{kind: packetEvent, event: name, args: parts[1:]}, nil
	default:
		return packet{}, fmt.Errorf("unknown socket packet type %q", b[0])
	}
}

// skipAttachmentsAndNamespace drops a "<n>-" attachment count and a
// "/nsp," namespace prefix. Only the default namespace is used.
func skipAttachmentsAndNamespace(b []byte) []byte {
	if i := bytes.IndexByte(b, '-'); i > 0 && isDigits(b[:i]) {
		b = b[i+1:]
	}
	if len(b) > 0 && b[0] == '/' {
		if i := bytes.IndexByte(b, ','); i >= 0 {
			return b[i+1:]
		}
		return nil
	}
	return b
}

func skipAckID(b []byte) []byte {
	i := 0
	for i < len(b) && b[i] >= '0' && b[i] <= '9' {
		i++
	}
	return b[i:]
}

func isDigits(b []byte) bool {
	for _, c := range b {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(b) > 0
}

func encodeEvent(event string, payload any) ([]byte, error) {
	parts := []any{event}
	if payload != nil {
		parts = append(parts, payload)
	}
	body, err := json.Marshal(parts)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", event, err)
	}
	return append([]byte{engineMessage, socketEvent}, body...), nil
}

var (
	connectPacket = []byte{engineMessage, socketConnect}
	pongPacket    = []byte{enginePong}
)
