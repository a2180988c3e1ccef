package hame

import (
	"strings"
	"unicode/utf8"
)

// Message is a parsed status payload: a flat key to text-value mapping.
//
// The device reports its status as a single comma-separated blob of
// key=value pairs. Message only performs the grammar-level split; typed
// field decoding happens per message kind (see DecodeDeviceInfo).
type Message struct {
	fields map[string]string
}

// ParseMessage parses a raw status payload.
//
// The payload must be valid UTF-8 and every comma-separated segment must
// contain a '=' separating key from value. Any violation fails the whole
// parse with InvalidFormatError carrying the original bytes; a partial
// mapping is never returned. Surrounding whitespace is ignored and the
// last occurrence of a duplicate key wins.
func ParseMessage(payload []byte) (Message, error) {
	if !utf8.Valid(payload) {
		return Message{}, &InvalidFormatError{Payload: payload}
	}

	fields := make(map[string]string)
	for _, part := range strings.Split(strings.TrimSpace(string(payload)), ",") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return Message{}, &InvalidFormatError{Payload: payload}
		}
		fields[key] = value
	}

	return Message{fields: fields}, nil
}

// Get returns the raw text value for a protocol key.
func (m Message) Get(key string) (string, bool) {
	value, ok := m.fields[key]
	return value, ok
}

// Len returns the number of distinct keys in the message.
func (m Message) Len() int {
	return len(m.fields)
}
