package tts

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"strings"
)

// candidateKeys is the fixed set of container fields tried, in order, when a
// synthesis response arrives as a JSON object instead of raw audio.
var candidateKeys = []string{"audio", "data", "result", "audio_base64", "base64", "content"}

// stripDataURL removes a leading data:...;base64, prefix if present.
func stripDataURL(s string) string {
	if i := strings.Index(s, ";base64,"); i >= 0 {
		return s[i+len(";base64,"):]
	}
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			return s[i+1:]
		}
	}
	return s
}

// ExtractBytes attempts to pull raw audio bytes out of the many shapes a
// synthesis response can take: direct bytes, a base64 or data-URL string, a
// keyed JSON container with nested fields, a readable stream, or a sequence
// of byte chunks. Each step that yields no bytes falls through to the next;
// total failure returns nil.
func ExtractBytes(v any) []byte {
	switch obj := v.(type) {
	case nil:
		return nil

	case []byte:
		if len(obj) == 0 {
			return nil
		}
		return obj

	case json.RawMessage:
		var decoded any
		if err := json.Unmarshal(obj, &decoded); err == nil {
			if b := ExtractBytes(decoded); len(b) > 0 {
				return b
			}
		}
		return nil

	case string:
		s := strings.TrimSpace(stripDataURL(obj))
		if s == "" {
			return nil
		}
		if b, err := base64.StdEncoding.DecodeString(s); err == nil && len(b) > 0 {
			return b
		}
		if b, err := base64.RawStdEncoding.DecodeString(s); err == nil && len(b) > 0 {
			return b
		}
		return []byte(obj)

	case map[string]any:
		for _, key := range candidateKeys {
			if val, ok := obj[key]; ok {
				if b := ExtractBytes(val); len(b) > 0 {
					return b
				}
			}
		}
		// Last resort: any long base64-looking string value.
		for _, val := range obj {
			s, ok := val.(string)
			if !ok || len(s) <= 100 {
				continue
			}
			if b, err := base64.StdEncoding.DecodeString(stripDataURL(s)); err == nil && len(b) > 0 {
				return b
			}
		}
		return nil

	case io.Reader:
		b, err := io.ReadAll(io.LimitReader(obj, maxAudioBytes))
		if err != nil || len(b) == 0 {
			return nil
		}
		return ExtractBytes(b)

	case [][]byte:
		var joined []byte
		for _, chunk := range obj {
			joined = append(joined, chunk...)
		}
		if len(joined) == 0 {
			return nil
		}
		return joined

	case []any:
		var joined []byte
		for _, item := range obj {
			if b := ExtractBytes(item); len(b) > 0 {
				joined = append(joined, b...)
			}
		}
		if len(joined) == 0 {
			return nil
		}
		return joined

	default:
		return nil
	}
}

const maxAudioBytes = 16 << 20
