package cardano

import "unicode/utf8"

// Metadata is transaction auxiliary data keyed by metadatum label.
type Metadata map[uint64]any

// ChunkString splits message into contiguous segments of at most maxLen
// bytes, preserving order and the original bytes. Segments end on rune
// boundaries; a single rune longer than maxLen gets a segment of its own.
// Empty messages return nil.
func ChunkString(message string, maxLen int) []string {
	if message == "" {
		return nil
	}

	if maxLen <= 0 || len(message) <= maxLen {
		return []string{message}
	}

	var chunks []string
	start := 0
	for i := 0; i < len(message); {
		_, size := utf8.DecodeRuneInString(message[i:])
		if i > start && i+size-start > maxLen {
			chunks = append(chunks, message[start:i])
			start = i
		}
		i += size
	}

	return append(chunks, message[start:])
}

// MessageMetadata returns the metadatum value for a text message: the message
// itself when its encoding fits in one ledger string, otherwise its chunks.
func MessageMetadata(message string, maxLen int) any {
	chunks := ChunkString(message, maxLen)
	switch len(chunks) {
	case 0:
		return nil
	case 1:
		return chunks[0]
	default:
		return chunks
	}
}

// MessageAuxData builds the auxiliary data for a message under label, or nil
// when there is no message.
func MessageAuxData(label uint64, message string, maxLen int) Metadata {
	value := MessageMetadata(message, maxLen)
	if value == nil {
		return nil
	}
	return Metadata{label: value}
}

// ReadMessage reassembles a message previously attached under label.
func (m Metadata) ReadMessage(label uint64) (message string, ok bool) {
	value, found := m[label]
	if !found {
		return
	}

	switch v := value.(type) {
	case string:
		return v, true
	case []string:
		for _, chunk := range v {
			message += chunk
		}
		return message, true
	case []any:
		for _, chunk := range v {
			s, isString := chunk.(string)
			if !isString {
				return "", false
			}
			message += s
		}
		return message, true
	}

	return
}
