package menugate

import "strings"

// ErrorKind classifies why a gateway call did not succeed.
type ErrorKind string

const (
	// KindOffline means no network attempt was made.
	KindOffline ErrorKind = "offline"
	// KindTimeout means the call's deadline elapsed; any late response is
	// discarded.
	KindTimeout ErrorKind = "timeout"
	// KindNetwork means a transport-level failure (DNS, connection refused).
	KindNetwork ErrorKind = "network"
	// KindUnauthorized maps 401/403-equivalent responses.
	KindUnauthorized ErrorKind = "unauthorized"
	// KindServer maps any other non-success status, a malformed body, or a
	// response whose success flag is absent or false.
	KindServer ErrorKind = "server"
)

// Envelope is the uniform result of every gateway call. Success implies Kind
// is empty; Unauthorized implies Success is false. Both invariants hold by
// construction through the helpers below.
type Envelope struct {
	Success      bool      `json:"success"`
	Data         any       `json:"data,omitempty"`
	Message      string    `json:"message,omitempty"`
	Kind         ErrorKind `json:"errorKind,omitempty"`
	Unauthorized bool      `json:"unauthorized,omitempty"`
}

func okEnvelope(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

func failEnvelope(kind ErrorKind, message string) Envelope {
	return Envelope{
		Success:      false,
		Kind:         kind,
		Message:      message,
		Unauthorized: kind == KindUnauthorized,
	}
}

// Recoverable reports whether the failure is one the fallback chain handles
// locally (snapshot serve or mutation queue) instead of surfacing.
func (e Envelope) Recoverable() bool {
	switch e.Kind {
	case KindOffline, KindTimeout, KindNetwork:
		return true
	default:
		return false
	}
}

// extract evaluates the ordered candidate paths against a decoded body and
// returns the first non-empty match. With no paths the body itself is
// returned. No match yields an empty collection, never an error: the backend
// has historically moved payloads between data, data.customers, customers,
// and users depending on endpoint, and shape drift must not crash a caller.
func extract(body any, paths []string) any {
	if len(paths) == 0 {
		return body
	}
	for _, path := range paths {
		if value, ok := lookupPath(body, path); ok && !isEmptyValue(value) {
			return value
		}
	}
	return []any{}
}

func lookupPath(body any, path string) (any, bool) {
	current := body
	for _, segment := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func isEmptyValue(v any) bool {
	switch value := v.(type) {
	case nil:
		return true
	case []any:
		return len(value) == 0
	case map[string]any:
		return len(value) == 0
	case string:
		return value == ""
	default:
		return false
	}
}
