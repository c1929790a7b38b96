package protocol

import "fmt"

// Payload builds a message payload from alternating key/value pairs.
// Panics on an odd argument count; call sites are static.
func Payload(pairs ...any) map[string]any {
	if len(pairs)%2 != 0 {
		panic("protocol.Payload: odd number of arguments")
	}
	payload := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("protocol.Payload: key %v is not a string", pairs[i]))
		}
		payload[key] = pairs[i+1]
	}
	return payload
}

// GetString reads a string field, returning fallback when absent or
// differently typed.
func GetString(payload map[string]any, key, fallback string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return fallback
}

// RequireString reads a mandatory string field.
func RequireString(payload map[string]any, key string) (string, error) {
	v, ok := payload[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("payload field %q is required", key)
	}
	return v, nil
}

// GetInt reads a numeric field, tolerating the integer and float types
// a decoded payload may carry.
func GetInt(payload map[string]any, key string, fallback int) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// GetBool reads a boolean field with a fallback.
func GetBool(payload map[string]any, key string, fallback bool) bool {
	if v, ok := payload[key].(bool); ok {
		return v
	}
	return fallback
}
