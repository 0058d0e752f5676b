package docpipe

import (
	"strings"
	"unicode/utf8"
)

// decodeText returns data as a string. The bytes are kept as-is (no
// whitespace or newline normalization) so that encodeText restores them
// exactly.
func decodeText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", &EncodingError{Offset: invalidOffset(data)}
	}
	return string(data), nil
}

func encodeText(text string) ([]byte, error) {
	if !utf8.ValidString(text) {
		return nil, &EncodingError{Offset: invalidOffset([]byte(text))}
	}
	return []byte(text), nil
}

// invalidOffset returns the index of the first invalid UTF-8 sequence.
func invalidOffset(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(data)
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	text = strings.TrimSpace(text)
	if len(text) > 200 {
		text = text[:200]
		for !utf8.ValidString(text) {
			text = text[:len(text)-1]
		}
	}
	return text
}
