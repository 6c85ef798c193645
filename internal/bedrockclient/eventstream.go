package bedrockclient

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
)

// eventStreamEvent is one decoded frame of a Bedrock
// InvokeModelWithResponseStream response. For the ":event-type" header of
// "chunk", Payload holds the raw chunk envelope JSON ({"bytes": "<base64>"}),
// which Client.InvokeStream unwraps and base64-decodes; for "exception" it
// holds the raw exception payload.
type eventStreamEvent struct {
	EventType string // "chunk", "exception", or a message-type-specific value
	Payload   []byte
}

// eventStreamDecoder reads AWS's vnd.amazon.eventstream binary framing:
// a 12-byte prelude (total length, headers length, prelude CRC32, all
// big-endian uint32), a headers section, a payload, and a trailing
// whole-message CRC32. Every Bedrock raw-model streaming response (Claude,
// Llama, Mistral, Cohere, generic imported) is wrapped in this framing
// regardless of the model family; only the JSON inside each chunk's payload
// differs per family.
type eventStreamDecoder struct {
	r *bufio.Reader
}

func newEventStreamDecoder(r io.Reader) *eventStreamDecoder {
	return &eventStreamDecoder{r: bufio.NewReader(r)}
}

// readEvent reads and validates one framed message, returning io.EOF when
// the underlying stream is exhausted between messages.
func (d *eventStreamDecoder) readEvent() (*eventStreamEvent, error) {
	prelude := make([]byte, 12)
	if _, err := io.ReadFull(d.r, prelude); err != nil {
		return nil, err
	}

	totalLength := binary.BigEndian.Uint32(prelude[0:4])
	headersLength := binary.BigEndian.Uint32(prelude[4:8])
	preludeCRC := binary.BigEndian.Uint32(prelude[8:12])

	if got := crc32.ChecksumIEEE(prelude[0:8]); got != preludeCRC {
		return nil, fmt.Errorf("eventstream: prelude crc mismatch: got %x want %x", got, preludeCRC)
	}

	if totalLength < 16 {
		return nil, fmt.Errorf("eventstream: implausible total_length %d", totalLength)
	}
	payloadLength := totalLength - 12 - headersLength - 4

	rest := make([]byte, totalLength-12)
	if _, err := io.ReadFull(d.r, rest); err != nil {
		return nil, fmt.Errorf("eventstream: short read of message body: %w", err)
	}
	headerBytes := rest[:headersLength]
	payload := rest[headersLength : headersLength+payloadLength]
	trailingCRC := binary.BigEndian.Uint32(rest[headersLength+payloadLength:])

	full := make([]byte, 0, totalLength)
	full = append(full, prelude...)
	full = append(full, rest[:headersLength+payloadLength]...)
	if got := crc32.ChecksumIEEE(full); got != trailingCRC {
		return nil, fmt.Errorf("eventstream: message crc mismatch: got %x want %x", got, trailingCRC)
	}

	headers, err := parseEventStreamHeaders(headerBytes)
	if err != nil {
		return nil, err
	}

	eventType := headers[":event-type"]
	if headers[":message-type"] == "exception" {
		eventType = "exception"
	}

	return &eventStreamEvent{EventType: eventType, Payload: payload}, nil
}

// parseEventStreamHeaders decodes the repeated
// [name_len:1][name][value_type:1][value] entries in an eventstream headers
// section. Only the string value type (7) appears in Bedrock's framing.
func parseEventStreamHeaders(data []byte) (map[string]string, error) {
	headers := make(map[string]string)
	i := 0
	for i < len(data) {
		if i+1 > len(data) {
			return nil, fmt.Errorf("eventstream: truncated header name length")
		}
		nameLen := int(data[i])
		i++
		if i+nameLen > len(data) {
			return nil, fmt.Errorf("eventstream: truncated header name")
		}
		name := string(data[i : i+nameLen])
		i += nameLen

		if i+1 > len(data) {
			return nil, fmt.Errorf("eventstream: truncated header value type")
		}
		valueType := data[i]
		i++

		switch valueType {
		case 7: // string: 2-byte big-endian length prefix
			if i+2 > len(data) {
				return nil, fmt.Errorf("eventstream: truncated header value length")
			}
			valLen := int(binary.BigEndian.Uint16(data[i : i+2]))
			i += 2
			if i+valLen > len(data) {
				return nil, fmt.Errorf("eventstream: truncated header value")
			}
			headers[name] = string(data[i : i+valLen])
			i += valLen
		default:
			return nil, fmt.Errorf("eventstream: unsupported header value type %d", valueType)
		}
	}
	return headers, nil
}
