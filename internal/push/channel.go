package push

import "context"

// Payload is the notification content delivered to a device.
type Payload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// TokenResult is the outcome for a single device token.
type TokenResult struct {
	Success bool

	// Permanent marks a token the channel reported as invalid or
	// unregistered. Such registrations must be pruned, not retried.
	Permanent bool

	ErrorCode string
}

// Result is the outcome of one multicast call. Responses are positionally
// aligned with the token slice passed to SendMulticast.
type Result struct {
	SuccessCount int
	Responses    []TokenResult
}

// Channel sends one payload to many device tokens in a single call.
// A non-nil error means the call itself failed (transport failure) and no
// per-token outcome is available; per-token failures are reported through
// Result with a nil error.
type Channel interface {
	SendMulticast(ctx context.Context, tokens []string, payload Payload) (*Result, error)
}
